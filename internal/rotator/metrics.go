package rotator

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rotationStartedTotal   *prometheus.CounterVec
	rotationCompletedTotal *prometheus.CounterVec
	rotationDuration       *prometheus.HistogramVec
	selfHealTotal          *prometheus.CounterVec
	rollbackTotal          *prometheus.CounterVec

	// Registration guard
	metricsOnce       sync.Once
	metricsRegistered bool
)

// Metrics provides methods to record rotation metrics.
type Metrics struct{}

// NewMetrics creates a new Metrics instance. Recording is a no-op
// until InitMetrics has been called.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// InitMetrics initializes all Prometheus metrics. Call once at
// startup if metrics are enabled.
func InitMetrics() {
	metricsOnce.Do(func() {
		rotationStartedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyrotator_rotation_started_total",
				Help: "Total number of key rotation runs started",
			},
			[]string{"identity"},
		)

		rotationCompletedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyrotator_rotation_completed_total",
				Help: "Total number of key rotation runs completed",
			},
			[]string{"identity", "status"},
		)

		rotationDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keyrotator_rotation_duration_seconds",
				Help:    "Duration of key rotation runs in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120},
			},
			[]string{"identity"},
		)

		selfHealTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyrotator_self_heal_total",
				Help: "Total number of self-heal attempts (inactive keys deleted before a creation retry)",
			},
			[]string{"identity"},
		)

		rollbackTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyrotator_rollback_total",
				Help: "Total number of undelivered keys deleted after a handler failure",
			},
			[]string{"identity"},
		)

		metricsRegistered = true
	})
}

// RecordRotationStarted records a rotation start event.
func (m *Metrics) RecordRotationStarted(identity string) {
	if !metricsRegistered || rotationStartedTotal == nil {
		return
	}
	rotationStartedTotal.WithLabelValues(identity).Inc()
}

// RecordRotationCompleted records a rotation completion with its duration.
func (m *Metrics) RecordRotationCompleted(identity, status string, durationSeconds float64) {
	if !metricsRegistered || rotationCompletedTotal == nil {
		return
	}
	rotationCompletedTotal.WithLabelValues(identity, status).Inc()
	rotationDuration.WithLabelValues(identity).Observe(durationSeconds)
}

// RecordSelfHeal records a self-heal attempt.
func (m *Metrics) RecordSelfHeal(identity string) {
	if !metricsRegistered || selfHealTotal == nil {
		return
	}
	selfHealTotal.WithLabelValues(identity).Inc()
}

// RecordRollback records the deletion of an undelivered key.
func (m *Metrics) RecordRollback(identity string) {
	if !metricsRegistered || rollbackTotal == nil {
		return
	}
	rollbackTotal.WithLabelValues(identity).Inc()
}
