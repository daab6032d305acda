// FlowPilot API — HTTP сервер для управления устройствами, flows,
// расписаниями и для запуска выполнений на устройствах.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/savrin/flowpilot/internal/api"
	"github.com/savrin/flowpilot/internal/exec"
	"github.com/savrin/flowpilot/internal/gateway"
	"github.com/savrin/flowpilot/internal/mq"
	"github.com/savrin/flowpilot/internal/repo"
	"github.com/savrin/flowpilot/internal/telemetry"
)

var startTime = time.Now()

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting flowpilot-api")

	// Подключаемся к базе данных
	pool, err := repo.NewPool(context.Background())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Создаём репозитории
	deviceRepo := repo.NewDeviceRepo(pool)
	flowRepo := repo.NewFlowRepo(pool)
	executionRepo := repo.NewExecutionRepo(pool)
	scheduleRepo := repo.NewScheduleRepo(pool)

	// RabbitMQ опционален: без него выполнения работают,
	// но события execution.completed не публикуются.
	var notifier *mq.Notifier
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, completion events disabled", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(context.Background(), mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		notifier = mq.NewNotifier(mq.NewPublisher(mqConn, logger))
	}

	// Клиент backend, выполняющего шаги на устройствах
	backend := gateway.NewClient(gateway.Config{
		BaseURL: os.Getenv("BACKEND_URL"),
		Logger:  logger,
	})

	// Координатор выполнений
	coordCfg := exec.Config{
		Gateway:  backend,
		Registry: flowRepo,
		Logger:   logger,
	}
	if notifier != nil {
		coordCfg.Notifier = notifier
	}
	if v := os.Getenv("EXEC_COOLDOWN_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			coordCfg.Cooldown = time.Duration(ms) * time.Millisecond
		}
	}
	coordinator := exec.New(coordCfg)

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		DeviceRepo:    deviceRepo,
		FlowRepo:      flowRepo,
		ExecutionRepo: executionRepo,
		ScheduleRepo:  scheduleRepo,
		Executor:      coordinator,
		Logger:        logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-ctx.Done()
	logger.Info("shutting down", "active_executions", coordinator.ActiveCount())

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
