// Package observe provides Prometheus metrics and OpenTelemetry tracing
// for the reactive engine. Both attach through reactive.RegisterHooks and
// can be combined freely.
package observe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/veil-dev/veil/pkg/reactive"
)

// MetricsConfig configures the Prometheus hooks.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "veil").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for effect run duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus hooks.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the effect duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "veil",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics records engine activity as Prometheus metrics.
//
// Metrics collected:
//   - veil_tracks_total: Counter of recorded dependencies by access kind
//   - veil_triggers_total: Counter of change notifications by mutation kind
//   - veil_effect_runs_total: Counter of effect executions
//   - veil_effect_duration_seconds: Histogram of effect run duration
type Metrics struct {
	tracksTotal    *prometheus.CounterVec
	triggersTotal  *prometheus.CounterVec
	effectRuns     prometheus.Counter
	effectDuration prometheus.Histogram
}

// NewMetrics creates the Prometheus hooks and registers their collectors.
//
// Example:
//
//	remove := reactive.RegisterHooks(observe.NewMetrics(
//	    observe.WithNamespace("myapp"),
//	))
//	defer remove()
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		tracksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tracks_total",
			Help:        "Total dependencies recorded, by access kind",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		triggersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "triggers_total",
			Help:        "Total change notifications, by mutation kind",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		effectRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_runs_total",
			Help:        "Total effect executions",
			ConstLabels: config.ConstLabels,
		}),

		effectDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_duration_seconds",
			Help:        "Effect run duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

// OnTrack implements reactive.Hooks.
func (m *Metrics) OnTrack(ev reactive.TrackEvent) {
	m.tracksTotal.WithLabelValues(ev.Op.String()).Inc()
}

// OnTrigger implements reactive.Hooks.
func (m *Metrics) OnTrigger(ev reactive.TriggerEvent) {
	m.triggersTotal.WithLabelValues(ev.Op.String()).Inc()
}

// OnEffectRun implements reactive.Hooks.
func (m *Metrics) OnEffectRun(ev reactive.EffectRunEvent) {
	m.effectRuns.Inc()
	m.effectDuration.Observe(ev.Duration.Seconds())
}
