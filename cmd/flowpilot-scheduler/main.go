// FlowPilot Scheduler — запускает flows по cron-расписаниям.
//
// Scheduler:
//   - Раз в тик выбирает due schedules из БД
//   - Сдвигает next_due_at и запускает flow через координатор
//   - Пишет результат в историю выполнений и публикует событие
//
// Один экземпляр на инсталляцию: leader election не реализован.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/savrin/flowpilot/internal/exec"
	"github.com/savrin/flowpilot/internal/gateway"
	"github.com/savrin/flowpilot/internal/mq"
	"github.com/savrin/flowpilot/internal/repo"
	"github.com/savrin/flowpilot/internal/scheduler"
	"github.com/savrin/flowpilot/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting flowpilot-scheduler")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	flowRepo := repo.NewFlowRepo(pool)
	executionRepo := repo.NewExecutionRepo(pool)
	scheduleRepo := repo.NewScheduleRepo(pool)

	// RabbitMQ опционален
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

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		notifier = mq.NewNotifier(mq.NewPublisher(mqConn, logger))
	}

	// Координатор: у scheduler свой guard, он не видит выполнения,
	// запущенные через API-процесс.
	coordCfg := exec.Config{
		Gateway: gateway.NewClient(gateway.Config{
			BaseURL: os.Getenv("BACKEND_URL"),
			Logger:  logger,
		}),
		Registry: flowRepo,
		Logger:   logger,
	}
	if notifier != nil {
		coordCfg.Notifier = notifier
	}
	coordinator := exec.New(coordCfg)

	sched := scheduler.New(scheduler.Config{
		Schedules:  scheduleRepo,
		Flows:      flowRepo,
		Executor:   coordinator,
		Executions: executionRepo,
		Logger:     logger,
	})

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8081"
	if v := os.Getenv("SCHED_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	tickInterval := 10 * time.Second
	if v := os.Getenv("SCHEDULER_TICK_SEC"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			tickInterval = time.Duration(sec) * time.Second
		}
	}

	// scheduler loop
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	logger.Info("scheduler loop started", "tick", tickInterval)

	for {
		select {
		case <-ticker.C:
			if err := sched.Tick(ctx); err != nil {
				logger.Error("tick failed", "error", err)
			}

		case <-ctx.Done():
			logger.Info("shutting down, waiting for in-flight executions")
			sched.Wait()
			logger.Info("stopped")
			return
		}
	}
}
