package observe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/veil-dev/veil/pkg/reactive"
)

// Default tracer name for the reactive engine.
const defaultTracerName = "veil"

// maxBufferedTriggers caps the trigger events held between effect runs so a
// burst of writes outside any effect cannot grow the buffer without bound.
const maxBufferedTriggers = 64

// TracingConfig configures the OpenTelemetry hooks.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "veil").
	TracerName string

	// RecordTriggers attaches the change notifications observed since the
	// previous effect run as events on the next effect span. Best effort:
	// concurrent writers interleave into one buffer. Disabled by default:
	// triggers are hot.
	RecordTriggers bool

	// MinDuration drops spans for effect runs shorter than this.
	// Zero records everything.
	MinDuration time.Duration

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// TracingOption configures the OpenTelemetry hooks.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithRecordTriggers enables recording triggers as span events.
func WithRecordTriggers(record bool) TracingOption {
	return func(c *TracingConfig) {
		c.RecordTriggers = record
	}
}

// WithMinDuration sets the shortest effect run worth a span.
func WithMinDuration(d time.Duration) TracingOption {
	return func(c *TracingConfig) {
		c.MinDuration = d
	}
}

func defaultTracingConfig() TracingConfig {
	return TracingConfig{
		TracerName: defaultTracerName,
	}
}

// triggerRecord is one buffered change notification awaiting its span.
type triggerRecord struct {
	at  time.Time
	op  string
	key string
}

// Tracing records effect runs as OpenTelemetry spans.
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it in
// main() before registering the hooks:
//
//	otel.SetTracerProvider(tp)
//	remove := reactive.RegisterHooks(observe.NewTracing())
//	defer remove()
//
// Spans are recorded retroactively when a run completes, with start and end
// timestamps reconstructed from the run duration.
type Tracing struct {
	config TracingConfig

	mu       sync.Mutex
	triggers []triggerRecord
}

// NewTracing creates the OpenTelemetry hooks.
func NewTracing(opts ...TracingOption) *Tracing {
	config := defaultTracingConfig()
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)
	return &Tracing{config: config}
}

// OnTrack implements reactive.Hooks. Tracks are too hot to trace.
func (t *Tracing) OnTrack(reactive.TrackEvent) {}

// OnTrigger implements reactive.Hooks. The event is buffered and attached to
// the span of the effect run it invalidates, since a trigger has no span of
// its own.
func (t *Tracing) OnTrigger(ev reactive.TriggerEvent) {
	if !t.config.RecordTriggers {
		return
	}
	t.mu.Lock()
	if len(t.triggers) < maxBufferedTriggers {
		t.triggers = append(t.triggers, triggerRecord{
			at:  time.Now(),
			op:  ev.Op.String(),
			key: fmt.Sprintf("%v", ev.Key),
		})
	}
	t.mu.Unlock()
}

// OnEffectRun implements reactive.Hooks.
func (t *Tracing) OnEffectRun(ev reactive.EffectRunEvent) {
	var drained []triggerRecord
	if t.config.RecordTriggers {
		t.mu.Lock()
		drained = t.triggers
		t.triggers = nil
		t.mu.Unlock()
	}

	if ev.Duration < t.config.MinDuration {
		return
	}

	name := ev.Name
	if name == "" {
		name = fmt.Sprintf("effect-%d", ev.ID)
	}

	end := time.Now()
	start := end.Add(-ev.Duration)

	_, span := t.config.tracer.Start(
		context.Background(),
		fmt.Sprintf("reactive.effect %s", name),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(start),
		trace.WithAttributes(
			attribute.Int64("veil.effect_id", int64(ev.ID)),
			attribute.String("veil.effect_name", ev.Name),
		),
	)
	for _, tr := range drained {
		span.AddEvent("reactive.trigger",
			trace.WithTimestamp(tr.at),
			trace.WithAttributes(
				attribute.String("veil.op", tr.op),
				attribute.String("veil.key", tr.key),
			),
		)
	}
	span.End(trace.WithTimestamp(end))
}
