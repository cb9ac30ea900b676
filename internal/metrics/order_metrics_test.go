package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"orders/internal/domain"
)

func TestOrderMetricsObserveOperation(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newOrderMetricsWithRegisterer(registry)

	m.ObserveOperation("create", 10*time.Millisecond, nil)
	m.ObserveOperation("create", time.Millisecond, errors.New("boom"))
	m.ObserveOperation("delete", time.Millisecond, nil)

	okCounter, err := m.operations.GetMetricWithLabelValues("create", "ok")
	if err != nil {
		t.Fatalf("get ok counter: %v", err)
	}
	var metric dto.Metric
	if err := okCounter.Write(&metric); err != nil {
		t.Fatalf("write ok counter: %v", err)
	}
	if got := metric.GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected 1 ok create, got %f", got)
	}

	errCounter, err := m.operations.GetMetricWithLabelValues("create", "error")
	if err != nil {
		t.Fatalf("get error counter: %v", err)
	}
	metric.Reset()
	if err := errCounter.Write(&metric); err != nil {
		t.Fatalf("write error counter: %v", err)
	}
	if got := metric.GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected 1 failed create, got %f", got)
	}
}

func TestOrderMetricsBusinessOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newOrderMetricsWithRegisterer(registry)

	m.ObserveOperation("get", time.Millisecond, domain.ErrOrderNotFound)
	m.ObserveOperation("create", time.Millisecond, domain.ErrOrderAlreadyExists)

	cases := []struct {
		operation string
		status    string
	}{
		{"get", "not_found"},
		{"create", "conflict"},
	}
	for _, tc := range cases {
		counter, err := m.operations.GetMetricWithLabelValues(tc.operation, tc.status)
		if err != nil {
			t.Fatalf("get %s/%s counter: %v", tc.operation, tc.status, err)
		}
		var metric dto.Metric
		if err := counter.Write(&metric); err != nil {
			t.Fatalf("write %s/%s counter: %v", tc.operation, tc.status, err)
		}
		if got := metric.GetCounter().GetValue(); got != 1 {
			t.Fatalf("expected 1 %s %s, got %f", tc.status, tc.operation, got)
		}
	}
}

func TestOrderMetricsDoubleRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()

	first := newOrderMetricsWithRegisterer(registry)
	// Повторная регистрация не должна паниковать: коллекторы переиспользуются.
	second := newOrderMetricsWithRegisterer(registry)

	if first == nil || second == nil {
		t.Fatal("metrics must be constructed on re-registration")
	}

	first.ObserveOperation("list", time.Millisecond, nil)
	second.ObserveOperation("list", time.Millisecond, nil)

	counter, err := second.operations.GetMetricWithLabelValues("list", "ok")
	if err != nil {
		t.Fatalf("get counter: %v", err)
	}
	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("write counter: %v", err)
	}
	if got := metric.GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected shared counter value 2, got %f", got)
	}
}

func TestObserveOperationOnNilMetrics(t *testing.T) {
	var m *OrderMetrics
	// Nil-метрики допустимы в тестовой сборке сервера.
	m.ObserveOperation("create", time.Millisecond, nil)
}
