package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/savrin/flowpilot/internal/domain"
	"github.com/savrin/flowpilot/internal/exec"
	"github.com/savrin/flowpilot/internal/repo"
)

// executionTimeout — предельное время одного запуска по расписанию.
const executionTimeout = 10 * time.Minute

// ScheduleStore — часть репозитория расписаний, нужная планировщику.
type ScheduleStore interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Schedule, error)
	Update(ctx context.Context, schedule *domain.Schedule) error
}

// FlowStore — часть репозитория flows, нужная планировщику.
type FlowStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Flow, error)
}

// Executor — запуск flow на устройстве. Реализуется координатором.
type Executor interface {
	Execute(ctx context.Context, deviceSerial, flowID string) (*domain.ExecutionReport, error)
}

// ExecutionStore — запись истории выполнений (опционально).
type ExecutionStore interface {
	Create(ctx context.Context, execution *domain.Execution) error
}

// Scheduler — планировщик, запускающий flows по due schedules.
//
// Запуск идёт через тот же координатор, что и ручной запуск из API этого
// процесса: расписание подчиняется single-flight ограничению координатора.
// Занятый ключ — не ошибка планировщика: запуск просто пропускается до
// следующего due времени.
type Scheduler struct {
	schedules  ScheduleStore
	flows      FlowStore
	executor   Executor
	executions ExecutionStore
	logger     *slog.Logger
	batchSize  int

	wg sync.WaitGroup
}

// Config — конфигурация Scheduler.
type Config struct {
	Schedules  ScheduleStore
	Flows      FlowStore
	Executor   Executor
	Executions ExecutionStore // опционально: история запусков по расписанию
	Logger     *slog.Logger
	BatchSize  int // количество schedules за один тик (default: 100)
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		schedules:  cfg.Schedules,
		flows:      cfg.Flows,
		executor:   cfg.Executor,
		executions: cfg.Executions,
		logger:     logger,
		batchSize:  batchSize,
	}
}

// Tick выполняет один тик планировщика.
//
// 1. Находит due schedules (enabled=true, next_due_at <= now)
// 2. Для каждого schedule фиксирует запуск и следующее due время
// 3. Запускает flow через координатор в фоне
//
// Расписание обновляется до запуска: выполнение может длиться минуты,
// и тик не должен раздавать один и тот же schedule повторно.
// Ошибки одного schedule не блокируют обработку остальных.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := time.Now()

	schedules, err := s.schedules.ListDue(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list due schedules: %w", err)
	}

	if len(schedules) == 0 {
		return nil
	}

	s.logger.Debug("found due schedules", "count", len(schedules))

	var dispatched int
	for i := range schedules {
		sched := &schedules[i]

		ok, err := s.processSchedule(ctx, sched, now)
		if err != nil {
			s.logger.Error("failed to process schedule",
				"schedule_id", sched.ID,
				"schedule_name", sched.Name,
				"error", err,
			)
			// Продолжаем обработку остальных
			continue
		}
		if ok {
			dispatched++
		}
	}

	s.logger.Info("scheduler tick completed",
		"due", len(schedules),
		"dispatched", dispatched,
	)

	return nil
}

// Wait дожидается завершения всех запущенных выполнений.
// Вызывается при graceful shutdown.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// processSchedule обрабатывает один schedule.
// Возвращает true, если запуск был отправлен координатору.
func (s *Scheduler) processSchedule(ctx context.Context, sched *domain.Schedule, now time.Time) (bool, error) {
	// 1. Проверяем, что flow существует
	flow, err := s.flows.GetByID(ctx, sched.FlowID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.logger.Warn("flow not found for schedule, skipping",
				"schedule_id", sched.ID,
				"flow_id", sched.FlowID,
			)
			return false, nil
		}
		return false, fmt.Errorf("get flow: %w", err)
	}

	// 2. Вычисляем следующее due время
	nextDue, err := CalculateNextDue(sched, now)
	if err != nil {
		// Некорректное выражение: next_due_at не трогаем, запуск не делаем
		s.logger.Error("failed to calculate next due, skipping schedule",
			"schedule_id", sched.ID,
			"cron_expr", sched.CronExpr,
			"error", err,
		)
		return false, nil
	}

	// 3. Фиксируем запуск до его начала
	sched.RecordRun(now, nextDue)
	if err := s.schedules.Update(ctx, sched); err != nil {
		return false, fmt.Errorf("update schedule: %w", err)
	}

	// 4. Запускаем flow в фоне
	s.wg.Add(1)
	go s.runFlow(sched, flow)

	s.logger.Info("dispatched scheduled execution",
		"schedule_id", sched.ID,
		"schedule_name", sched.Name,
		"flow_id", flow.ID,
		"device", flow.DeviceSerial,
		"next_due_at", nextDue,
	)

	return true, nil
}

// runFlow выполняет один запуск по расписанию.
//
// Собственный контекст: выполнение не должно обрываться из-за завершения
// тика, его предел — executionTimeout.
func (s *Scheduler) runFlow(sched *domain.Schedule, flow *domain.Flow) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), executionTimeout)
	defer cancel()

	logger := s.logger.With(
		"schedule_id", sched.ID,
		"flow_id", flow.ID,
		"device", flow.DeviceSerial,
	)

	report, err := s.executor.Execute(ctx, flow.DeviceSerial, flow.ID.String())
	if err != nil {
		if errors.Is(err, exec.ErrAlreadyRunning) {
			// Flow уже запущен вручную или предыдущим расписанием
			logger.Info("flow already running, scheduled execution skipped")
			return
		}
		logger.Warn("scheduled execution failed", "error", err)
		return
	}

	logger.Info("scheduled execution completed",
		"status", report.Result.Status(),
		"executed_steps", report.Result.ExecutedSteps,
	)

	if s.executions != nil {
		execution := &domain.Execution{
			ID:           uuid.New(),
			FlowID:       flow.ID,
			DeviceSerial: flow.DeviceSerial,
			Status:       report.Result.Status(),
			Result:       report.Result,
			Steps:        report.Steps,
			CreatedAt:    time.Now(),
		}
		if err := s.executions.Create(ctx, execution); err != nil {
			logger.Warn("failed to record execution history", "error", err)
		}
	}
}
