package observe

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"

	"github.com/veil-dev/veil/pkg/reactive"
)

// spanRecorder is a minimal in-memory tracer provider for assertions.
type spanRecorder struct {
	embedded.TracerProvider

	mu    sync.Mutex
	spans []*recordedSpan
}

func (r *spanRecorder) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return &recorderTracer{rec: r}
}

func (r *spanRecorder) all() []*recordedSpan {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*recordedSpan(nil), r.spans...)
}

type recorderTracer struct {
	embedded.Tracer
	rec *spanRecorder
}

func (t *recorderTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	s := &recordedSpan{name: name, attrs: cfg.Attributes(), start: cfg.Timestamp()}
	t.rec.mu.Lock()
	t.rec.spans = append(t.rec.spans, s)
	t.rec.mu.Unlock()
	return ctx, s
}

type spanEvent struct {
	name  string
	attrs []attribute.KeyValue
	at    time.Time
}

type recordedSpan struct {
	embedded.Span

	name   string
	attrs  []attribute.KeyValue
	start  time.Time
	end    time.Time
	events []spanEvent
}

func (s *recordedSpan) End(opts ...trace.SpanEndOption) {
	cfg := trace.NewSpanEndConfig(opts...)
	s.end = cfg.Timestamp()
}

func (s *recordedSpan) AddEvent(name string, opts ...trace.EventOption) {
	cfg := trace.NewEventConfig(opts...)
	s.events = append(s.events, spanEvent{name: name, attrs: cfg.Attributes(), at: cfg.Timestamp()})
}

func (s *recordedSpan) IsRecording() bool                       { return true }
func (s *recordedSpan) RecordError(error, ...trace.EventOption) {}
func (s *recordedSpan) SpanContext() trace.SpanContext          { return trace.SpanContext{} }
func (s *recordedSpan) SetStatus(codes.Code, string)            {}
func (s *recordedSpan) SetName(name string)                     { s.name = name }
func (s *recordedSpan) SetAttributes(...attribute.KeyValue)     {}
func (s *recordedSpan) TracerProvider() trace.TracerProvider    { return nil }

func (s *recordedSpan) eventAttr(event, key string) (string, bool) {
	for _, ev := range s.events {
		if ev.name != event {
			continue
		}
		for _, kv := range ev.attrs {
			if string(kv.Key) == key {
				return kv.Value.AsString(), true
			}
		}
	}
	return "", false
}

func withRecorder(t *testing.T) *spanRecorder {
	t.Helper()
	rec := &spanRecorder{}
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(rec)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func TestTracingSpansPerEffectRun(t *testing.T) {
	rec := withRecorder(t)

	remove := reactive.RegisterHooks(NewTracing(WithRecordTriggers(true)))
	defer remove()

	c := reactive.NewCell(0)
	e := reactive.NewEffect(func() reactive.Cleanup {
		_ = c.Get()
		return nil
	}, reactive.EffectName("watcher"))
	defer e.Stop()

	c.Set(1)

	spans := rec.all()
	if len(spans) != 2 {
		t.Fatalf("expected one span per effect run, got %d", len(spans))
	}
	if spans[0].name != "reactive.effect watcher" {
		t.Errorf("unexpected span name %q", spans[0].name)
	}
	if spans[0].end.Before(spans[0].start) {
		t.Error("the retroactive span must end at or after its start")
	}

	// The write that caused the re-run must appear on the re-run's span.
	op, ok := spans[1].eventAttr("reactive.trigger", "veil.op")
	if !ok {
		t.Fatal("the invalidating trigger must be attached as a span event")
	}
	if op != "set" {
		t.Errorf("expected op set, got %q", op)
	}
	if key, _ := spans[1].eventAttr("reactive.trigger", "veil.key"); key != "value" {
		t.Errorf("expected the payload key, got %q", key)
	}
	if len(spans[0].events) != 0 {
		t.Error("the initial run has no invalidating trigger")
	}
}

func TestTracingTriggersOffByDefault(t *testing.T) {
	rec := withRecorder(t)

	remove := reactive.RegisterHooks(NewTracing())
	defer remove()

	c := reactive.NewCell(0)
	e := reactive.NewEffect(func() reactive.Cleanup {
		_ = c.Get()
		return nil
	})
	defer e.Stop()

	c.Set(1)

	for _, s := range rec.all() {
		if len(s.events) != 0 {
			t.Error("trigger events must not be recorded unless enabled")
		}
	}
}

func TestTracingMinDuration(t *testing.T) {
	rec := withRecorder(t)

	remove := reactive.RegisterHooks(NewTracing(WithMinDuration(time.Hour)))
	defer remove()

	e := reactive.NewEffect(func() reactive.Cleanup { return nil })
	defer e.Stop()

	if len(rec.all()) != 0 {
		t.Error("runs shorter than the floor must not produce spans")
	}
}
