package refresher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/savrin/flowpilot/internal/domain"
	"github.com/savrin/flowpilot/internal/mq"
	"github.com/savrin/flowpilot/internal/repo"
	"github.com/savrin/flowpilot/internal/telemetry"
)

// FlowStore — часть репозитория flows, нужная refresher'у.
type FlowStore interface {
	UpdateLastRun(ctx context.Context, id uuid.UUID, at time.Time, status domain.ExecutionStatus) error
}

// DeviceStore — часть репозитория устройств, нужная refresher'у.
type DeviceStore interface {
	MarkSeen(ctx context.Context, serial string, at time.Time) error
}

// Refresher обновляет метаданные "последнего запуска" по событиям
// execution.completed.
//
// Координатор не трогает БД после выполнения: он публикует событие,
// а refresher асинхронно обновляет last_run_at/last_run_status flow
// и last_seen_at устройства. Отставание метаданных на время доставки
// события — осознанный компромисс.
type Refresher struct {
	flows   FlowStore
	devices DeviceStore
	logger  *slog.Logger
}

// Config — конфигурация Refresher.
type Config struct {
	Flows   FlowStore
	Devices DeviceStore
	Logger  *slog.Logger
}

// New создаёт новый Refresher.
func New(cfg Config) *Refresher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Refresher{
		flows:   cfg.Flows,
		devices: cfg.Devices,
		logger:  logger,
	}
}

// HandleMessage обрабатывает одно событие execution.completed.
//
// Сигнатура совместима с mq.Handler. Отсутствие flow или устройства
// в БД — не ошибка обработки: запись могла быть удалена после
// выполнения, событие подтверждается, повторная доставка не нужна.
func (r *Refresher) HandleMessage(ctx context.Context, msg *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.ExecutionCompletedPayload](&msg.Message)
	if err != nil {
		return fmt.Errorf("parse execution.completed payload: %w", err)
	}

	return r.Apply(ctx, payload)
}

// Apply применяет событие к метаданным flow и устройства.
func (r *Refresher) Apply(ctx context.Context, payload mq.ExecutionCompletedPayload) error {
	logger := telemetry.WithFlowID(telemetry.WithDevice(r.logger, payload.DeviceSerial), payload.FlowID)

	completedAt := payload.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now()
	}

	flowID, err := uuid.Parse(payload.FlowID)
	if err != nil {
		// Битый идентификатор не станет лучше при повторной доставке
		logger.Warn("event carries invalid flow id, skipping")
		return nil
	}

	status := domain.ExecutionStatus(payload.Status)
	if status != domain.ExecutionStatusSucceeded && status != domain.ExecutionStatusFailed {
		logger.Warn("event carries unknown status, skipping", "status", payload.Status)
		return nil
	}

	if err := r.flows.UpdateLastRun(ctx, flowID, completedAt, status); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Debug("flow deleted before refresh, skipping")
		} else {
			return fmt.Errorf("update flow last run: %w", err)
		}
	}

	if err := r.devices.MarkSeen(ctx, payload.DeviceSerial, completedAt); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Debug("device deleted before refresh, skipping")
		} else {
			return fmt.Errorf("mark device seen: %w", err)
		}
	}

	logger.Info("last run metadata refreshed",
		"status", status,
		"completed_at", completedAt,
	)

	return nil
}
