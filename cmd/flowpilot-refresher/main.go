// FlowPilot Refresher — потребляет события execution.completed и
// обновляет last_run метаданные flows и last_seen устройств.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/savrin/flowpilot/internal/mq"
	"github.com/savrin/flowpilot/internal/refresher"
	"github.com/savrin/flowpilot/internal/repo"
	"github.com/savrin/flowpilot/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting flowpilot-refresher")

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
	deviceRepo := repo.NewDeviceRepo(pool)

	// RabbitMQ обязателен: без очереди refresher бесполезен
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	ref := refresher.New(refresher.Config{
		Flows:   flowRepo,
		Devices: deviceRepo,
		Logger:  logger,
	})

	consumer := mq.NewConsumer(mqConn, logger, mq.ConsumerConfig{
		Queue:   string(mq.QueueExecutionsCompleted),
		Handler: ref.HandleMessage,
	})

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8082"
	if v := os.Getenv("REFRESHER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Блокирующий цикл потребления; завершается по отмене контекста
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("stopped")
}
