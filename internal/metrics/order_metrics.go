package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"orders/internal/domain"
)

// OrderMetrics содержит метрики операций над заказами.
type OrderMetrics struct {
	// Счётчик операций репозитория с исходом.
	operations *prometheus.CounterVec
	// Гистограмма времени выполнения операций.
	duration *prometheus.HistogramVec
}

// NewOrderMetrics создаёт метрики в глобальном реестре Prometheus.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orders_repository_operations_total",
			Help: "Total number of order repository operations by outcome",
		}, []string{"operation", "status"}),
		duration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "orders_repository_operation_duration_seconds",
			Help:    "Duration of order repository operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"}),
	}
}

// ObserveOperation фиксирует исход и длительность одной операции репозитория.
func (m *OrderMetrics) ObserveOperation(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	m.operations.WithLabelValues(operation, outcome(err)).Inc()
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

// outcome разводит бизнес-исходы и сбои хранилища: отсутствие заказа и
// дубликат ключа — не ошибки инфраструктуры.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsNotFound(err):
		return "not_found"
	case domain.IsAlreadyExists(err):
		return "conflict"
	default:
		return "error"
	}
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok2 := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec); ok2 {
				return existing
			}
		}
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok2 := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec); ok2 {
				return existing
			}
		}
	}
	return collector
}
