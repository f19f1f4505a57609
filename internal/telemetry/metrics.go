package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "surfer"

var (
	// TasksSubmitted — количество принятых задач.
	TasksSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_submitted_total",
		Help:      "Total tasks accepted for execution",
	})

	// TasksCompleted — количество завершённых задач по финальному статусу.
	TasksCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_completed_total",
		Help:      "Total tasks that reached a terminal status",
	}, []string{"status"})

	// TasksRunning — задачи, выполняющиеся в данный момент.
	TasksRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tasks_running",
		Help:      "Tasks currently executed by the worker",
	})

	// TaskDuration — длительность прогона задачи.
	TaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Duration of a single task run",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"status"})

	// DBInitAttempts — попытки инициализации хранилища.
	DBInitAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "db_init_attempts_total",
		Help:      "Store initialization attempts by outcome",
	}, []string{"outcome"})

	// StoreMode — режим хранилища: primary, fallback, degraded.
	StoreMode = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_mode",
		Help:      "Active store mode (1 for the current one)",
	}, []string{"mode"})

	// CapabilityAvailable — доступность опциональных зависимостей.
	CapabilityAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "capability_available",
		Help:      "Whether an optional runtime capability is available",
	}, []string{"capability"})

	// HTTPRequests — количество HTTP запросов к API.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests handled by the API",
	}, []string{"method", "code"})
)

// ObserveTask фиксирует завершение задачи.
func ObserveTask(status string, d time.Duration) {
	TasksCompleted.WithLabelValues(status).Inc()
	TaskDuration.WithLabelValues(status).Observe(d.Seconds())
}

// SetStoreMode отмечает активный режим хранилища.
func SetStoreMode(mode string) {
	for _, m := range []string{"primary", "fallback", "degraded"} {
		v := 0.0
		if m == mode {
			v = 1
		}
		StoreMode.WithLabelValues(m).Set(v)
	}
}

// SetCapability отмечает доступность зависимости.
func SetCapability(name string, available bool) {
	v := 0.0
	if available {
		v = 1
	}
	CapabilityAvailable.WithLabelValues(name).Set(v)
}
