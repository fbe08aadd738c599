// Package metrics exposes Prometheus metrics for the compliance workflow.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"compliance_backend/internal/feature/compliance/domain/entity"
	"compliance_backend/internal/feature/compliance/usecase"
)

// DispatchMetrics records which path resolved each dispatched intent.
type DispatchMetrics struct {
	// dispatchTotal counts dispatches by operation and path (planned, fallback, failed).
	dispatchTotal *prometheus.CounterVec
	// dispatchSeconds measures dispatch latency including every LLM call.
	dispatchSeconds *prometheus.HistogramVec
}

var _ usecase.DispatchObserver = (*DispatchMetrics)(nil)

// NewDispatchMetrics registers the dispatch metrics on reg.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	f := promauto.With(reg)
	return &DispatchMetrics{
		dispatchTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "compliance",
			Subsystem: "dispatch",
			Name:      "total",
			Help:      "Dispatched intents by operation and resolution path",
		}, []string{"operation", "path"}),
		dispatchSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "compliance",
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "Dispatch latency by operation",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"operation"}),
	}
}

// ObserveDispatch implements usecase.DispatchObserver.
func (m *DispatchMetrics) ObserveDispatch(operation string, path entity.DispatchPath, elapsed time.Duration) {
	m.dispatchTotal.WithLabelValues(operation, string(path)).Inc()
	m.dispatchSeconds.WithLabelValues(operation).Observe(elapsed.Seconds())
}
