package api

import (
	"context"
	"log/slog"

	"github.com/savrin/flowpilot/internal/domain"
	"github.com/savrin/flowpilot/internal/repo"
)

// Executor — запуск flow на устройстве. Реализуется координатором.
type Executor interface {
	Execute(ctx context.Context, deviceSerial, flowID string) (*domain.ExecutionReport, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	deviceRepo    *repo.DeviceRepo
	flowRepo      *repo.FlowRepo
	executionRepo *repo.ExecutionRepo
	scheduleRepo  *repo.ScheduleRepo
	executor      Executor
	logger        *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	DeviceRepo    *repo.DeviceRepo
	FlowRepo      *repo.FlowRepo
	ExecutionRepo *repo.ExecutionRepo
	ScheduleRepo  *repo.ScheduleRepo
	Executor      Executor
	Logger        *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		deviceRepo:    cfg.DeviceRepo,
		flowRepo:      cfg.FlowRepo,
		executionRepo: cfg.ExecutionRepo,
		scheduleRepo:  cfg.ScheduleRepo,
		executor:      cfg.Executor,
		logger:        cfg.Logger,
	}
}
