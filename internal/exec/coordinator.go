package exec

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/savrin/flowpilot/internal/domain"
	"github.com/savrin/flowpilot/internal/telemetry"
)

// Default configuration values.
const (
	// DefaultCooldown — пауза до освобождения ключа после успешного
	// выполнения. Защищает от мгновенного повторного запуска, пока
	// оператор ещё смотрит на отчёт. UX-дребезг, не требование корректности.
	DefaultCooldown = 1000 * time.Millisecond

	// notifyTimeout — таймаут fire-and-forget уведомления о завершении.
	notifyTimeout = 5 * time.Second
)

// Gateway — удалённый вызов выполнения flow на устройстве.
type Gateway interface {
	Execute(ctx context.Context, deviceSerial, flowID string) (*domain.ExecutionResult, error)
}

// FlowRegistry — источник определений flows.
// Ошибка (в том числе "не найден") трактуется координатором как
// отсутствие flow: отчёт строится с нулём известных шагов.
type FlowRegistry interface {
	GetFlow(ctx context.Context, flowID string) (*domain.Flow, error)
}

// StatusNotifier — колбэк после завершённого выполнения (успешного или нет).
// Координатор вызывает его fire-and-forget: ошибка уведомления логируется,
// но никогда не влияет на возвращаемый отчёт.
type StatusNotifier interface {
	ExecutionCompleted(ctx context.Context, deviceSerial, flowID string, result *domain.ExecutionResult) error
}

// Coordinator управляет выполнением flows на устройствах.
//
// Для каждого запроса Coordinator:
//   - захватывает single-flight guard по ключу (устройство, flow)
//   - вызывает backend через Gateway (единственная точка ожидания)
//   - классифицирует результат по шагам flow
//   - уведомляет StatusNotifier о завершении
//   - освобождает guard: сразу при ошибке, после cool-down при успехе
//
// Guard принадлежит конкретному экземпляру Coordinator: два экземпляра
// (например, API-сервер и scheduler) не видят выполнений друг друга.
type Coordinator struct {
	gateway  Gateway
	registry FlowRegistry
	notifier StatusNotifier

	guard    *Guard
	cooldown time.Duration

	logger *slog.Logger
}

// Config — конфигурация Coordinator.
type Config struct {
	// Gateway — клиент backend (обязателен).
	Gateway Gateway

	// Registry — источник определений flows (обязателен).
	Registry FlowRegistry

	// Notifier — получатель уведомлений о завершении (опционален).
	Notifier StatusNotifier

	// Cooldown — пауза до освобождения ключа после успеха
	// (default: DefaultCooldown).
	Cooldown time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Coordinator с пустым guard.
func New(cfg Config) *Coordinator {
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator{
		gateway:  cfg.Gateway,
		registry: cfg.Registry,
		notifier: cfg.Notifier,
		guard:    NewGuard(),
		cooldown: cooldown,
		logger:   logger,
	}
}

// Execute выполняет flow на устройстве и возвращает классифицированный отчёт.
//
// Возвращает ErrAlreadyRunning без обращения к backend, если flow уже
// выполняется на этом устройстве (или ещё не истёк cool-down). Запрос
// отклоняется, а не ставится в очередь.
//
// Инвариант: guard никогда не остаётся захваченным после возврата ошибки;
// единственное намеренное удержание — cool-down после успеха.
func (c *Coordinator) Execute(ctx context.Context, deviceSerial, flowID string) (*domain.ExecutionReport, error) {
	if deviceSerial == "" {
		return nil, ErrEmptyDeviceSerial
	}
	if flowID == "" {
		return nil, ErrEmptyFlowID
	}

	key := Key{DeviceSerial: deviceSerial, FlowID: flowID}

	// 1. Захватываем guard. Занято — отклоняем сразу, backend не трогаем.
	if !c.guard.TryAcquire(key) {
		telemetry.GuardRejectionsTotal.Inc()
		c.logger.Debug("execution rejected, key held",
			"device", deviceSerial,
			"flow_id", flowID,
		)
		return nil, ErrAlreadyRunning
	}

	c.logger.Info("execution started",
		"device", deviceSerial,
		"flow_id", flowID,
	)

	// 2. Вызываем backend. Единственная точка ожидания.
	start := time.Now()
	result, err := c.gateway.Execute(ctx, deviceSerial, flowID)
	if err != nil {
		// Ошибка на пути к backend не должна оставить ключ захваченным.
		c.guard.Release(key)
		telemetry.ExecutionsTotal.WithLabelValues("error").Inc()
		c.logger.Warn("execution failed",
			"device", deviceSerial,
			"flow_id", flowID,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", ErrExecutionFailed, err)
	}

	// 3. Классифицируем результат. Отсутствующий flow — не ошибка:
	// отчёт строится с нулём известных шагов.
	flow := c.lookupFlow(ctx, flowID)
	report := &domain.ExecutionReport{
		Result: *result,
		Steps:  Classify(flow, result),
	}

	telemetry.ExecutionsTotal.WithLabelValues(string(result.Status())).Inc()
	telemetry.ExecutionDuration.Observe(time.Since(start).Seconds())

	c.logger.Info("execution completed",
		"device", deviceSerial,
		"flow_id", flowID,
		"status", result.Status(),
		"executed_steps", result.ExecutedSteps,
		"duration_ms", result.ExecutionTimeMs,
	)

	// 4. Уведомляем о завершении. Fire-and-forget: контекст вызова может
	// завершиться сразу после возврата, поэтому берём свой.
	if c.notifier != nil {
		go func() {
			nctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			defer cancel()

			if err := c.notifier.ExecutionCompleted(nctx, deviceSerial, flowID, result); err != nil {
				c.logger.Warn("status notify failed",
					"device", deviceSerial,
					"flow_id", flowID,
					"error", err,
				)
			}
		}()
	}

	// 5. Освобождаем ключ после cool-down. Если процесс завершится раньше —
	// не страшно: guard живёт только в памяти процесса.
	time.AfterFunc(c.cooldown, func() {
		c.guard.Release(key)
	})

	return report, nil
}

// ActiveCount возвращает количество ключей, захваченных в данный момент
// (включая ключи в cool-down).
func (c *Coordinator) ActiveCount() int {
	return c.guard.Len()
}

// lookupFlow загружает flow из реестра.
// Любая ошибка (включая "не найден") даёт nil: flow мог быть удалён
// между выполнениями, это штатная ситуация.
func (c *Coordinator) lookupFlow(ctx context.Context, flowID string) *domain.Flow {
	flow, err := c.registry.GetFlow(ctx, flowID)
	if err != nil {
		c.logger.Debug("flow not found in registry, reporting zero steps",
			"flow_id", flowID,
			"error", err,
		)
		return nil
	}
	return flow
}
