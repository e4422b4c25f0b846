// Package metrics exposes Prometheus instruments for pipeline and review activity.
package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Config labels every instrument with the service identity.
type Config struct {
	ServiceName string
	Environment string
}

// AppMetrics collects the service-level counters.
type AppMetrics struct {
	submissionsReviewed *prometheus.CounterVec
	batchesCompleted    *prometheus.CounterVec
	featuresProcessed   prometheus.Counter
	areasStaged         prometheus.Counter
	activeBatches       prometheus.Gauge
}

var (
	appMetricsOnce sync.Once
	appMetrics     *AppMetrics
)

// App returns the process-wide metrics, registering them on first use.
func App() *AppMetrics {
	return AppWithConfig(Config{})
}

// AppWithConfig returns the process-wide metrics with explicit identity labels.
func AppWithConfig(cfg Config) *AppMetrics {
	appMetricsOnce.Do(func() {
		appMetrics = New(prometheus.DefaultRegisterer, cfg)
	})
	return appMetrics
}

// ResetForTest clears the singleton so tests can register against a fresh registry.
func ResetForTest() {
	appMetricsOnce = sync.Once{}
	appMetrics = nil
}

// New registers the instruments on the given registerer. Most callers want
// the App singleton; an explicit registerer keeps instrument state isolated.
func New(registerer prometheus.Registerer, cfg Config) *AppMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "trashmob"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	submissionsReviewed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "trashmob_metric_submissions_reviewed_total",
			Help:        "Metric submissions moved out of pending, by review outcome.",
			ConstLabels: constLabels,
		},
		[]string{"outcome"}, // approved | rejected | adjusted
	)

	batchesCompleted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "trashmob_area_batches_total",
			Help:        "Area generation batches reaching a terminal state.",
			ConstLabels: constLabels,
		},
		[]string{"status"}, // complete | failed | cancelled
	)

	featuresProcessed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "trashmob_area_features_processed_total",
			Help:        "Discovered features examined by the area pipeline.",
			ConstLabels: constLabels,
		},
	)

	areasStaged := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "trashmob_areas_staged_total",
			Help:        "Candidate areas staged for review.",
			ConstLabels: constLabels,
		},
	)

	activeBatches := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name:        "trashmob_area_batches_active",
			Help:        "Batches currently in a non-terminal state.",
			ConstLabels: constLabels,
		},
	)

	for _, collector := range []prometheus.Collector{
		submissionsReviewed,
		batchesCompleted,
		featuresProcessed,
		areasStaged,
		activeBatches,
	} {
		if err := registerer.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}

	return &AppMetrics{
		submissionsReviewed: submissionsReviewed,
		batchesCompleted:    batchesCompleted,
		featuresProcessed:   featuresProcessed,
		areasStaged:         areasStaged,
		activeBatches:       activeBatches,
	}
}

// IncReviewed records a review outcome.
func (m *AppMetrics) IncReviewed(outcome string) {
	if m == nil {
		return
	}
	m.submissionsReviewed.WithLabelValues(outcome).Inc()
}

// IncBatchTerminal records a batch reaching a terminal state.
func (m *AppMetrics) IncBatchTerminal(status string) {
	if m == nil {
		return
	}
	m.batchesCompleted.WithLabelValues(status).Inc()
}

// IncFeatureProcessed records one examined feature.
func (m *AppMetrics) IncFeatureProcessed() {
	if m == nil {
		return
	}
	m.featuresProcessed.Inc()
}

// IncAreaStaged records one staged candidate area.
func (m *AppMetrics) IncAreaStaged() {
	if m == nil {
		return
	}
	m.areasStaged.Inc()
}

// SetActiveBatches updates the non-terminal batch gauge.
func (m *AppMetrics) SetActiveBatches(count float64) {
	if m == nil {
		return
	}
	m.activeBatches.Set(count)
}
