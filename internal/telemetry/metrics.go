package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики координатора выполнений.
var (
	// ExecutionsTotal — завершённые выполнения по итоговому статусу
	// (SUCCEEDED, FAILED, error).
	ExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowpilot_executions_total",
		Help: "Total flow executions by final status",
	}, []string{"status"})

	// GuardRejectionsTotal — запросы, отклонённые из-за занятого ключа
	// (устройство, flow).
	GuardRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowpilot_guard_rejections_total",
		Help: "Executions rejected because the (device, flow) pair was already running",
	})

	// ExecutionDuration — длительность обращения к backend.
	ExecutionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flowpilot_execution_duration_seconds",
		Help:    "Wall-clock duration of backend flow executions",
		Buckets: prometheus.DefBuckets,
	})
)
