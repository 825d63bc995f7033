package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"gfimx/policyd/pkg/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer(t *testing.T) (*Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := NewWithProvider(provider)
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })
	return tracer, recorder
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		config      *config.TracingConfig
		wantErr     bool
		wantEnabled bool
	}{
		{
			name:    "nil config",
			config:  nil,
			wantErr: true,
		},
		{
			name:   "disabled tracing",
			config: &config.TracingConfig{Enabled: false, ServiceName: "test-service"},
		},
		{
			name: "enabled with insecure OTLP",
			config: &config.TracingConfig{
				Enabled:     true,
				Endpoint:    "localhost:4317",
				Insecure:    true,
				SampleRatio: 1.0,
				ServiceName: "test-service",
				Timeout:     time.Second,
			},
			wantEnabled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, err := New(tt.config, "test")
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer tracer.Shutdown(context.Background())

			if tracer.Enabled() != tt.wantEnabled {
				t.Errorf("Enabled() = %v, want %v", tracer.Enabled(), tt.wantEnabled)
			}
		})
	}
}

func TestTracer_NoopAndNil(t *testing.T) {
	for name, tracer := range map[string]*Tracer{"noop": Noop(), "nil": nil} {
		t.Run(name, func(t *testing.T) {
			ctx, span := tracer.Start(context.Background(), SpanRun)
			if span == nil {
				t.Fatal("Start() returned nil span")
			}
			span.End()

			if got := TraceID(ctx); got != "" {
				t.Errorf("TraceID() = %q, want empty for unrecorded span", got)
			}
			if err := tracer.Shutdown(ctx); err != nil {
				t.Errorf("Shutdown() error = %v", err)
			}
		})
	}
}

func TestTracer_NestedSpans(t *testing.T) {
	tracer, recorder := newRecordingTracer(t)

	ctx, run := tracer.Start(context.Background(), SpanRun)
	SetRunAttributes(run, "run-1", 2, "abc123")
	_, client := tracer.Start(ctx, SpanClient)
	SetClientAttributes(client, "acme", "/etc/gfimx/policy/acme.toml")
	SetPolicyAttributes(client, "deadbeef", 3)
	client.End()
	run.End()

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(spans))
	}

	child, parent := spans[0], spans[1]
	if child.Name() != SpanClient || parent.Name() != SpanRun {
		t.Errorf("span names = %s, %s", child.Name(), parent.Name())
	}
	if child.Parent().SpanID() != parent.SpanContext().SpanID() {
		t.Error("client span is not a child of the run span")
	}

	want := map[attribute.Key]attribute.Value{
		AttrClient:       attribute.StringValue("acme"),
		AttrPatternCount: attribute.IntValue(3),
	}
	for _, kv := range child.Attributes() {
		if v, ok := want[kv.Key]; ok && v != kv.Value {
			t.Errorf("attribute %s = %v, want %v", kv.Key, kv.Value.Emit(), v.Emit())
		}
	}
	if TraceID(ctx) != parent.SpanContext().TraceID().String() {
		t.Error("TraceID() does not match the run span")
	}
}

func TestSetErrorAndStatus(t *testing.T) {
	tracer, recorder := newRecordingTracer(t)

	_, span := tracer.Start(context.Background(), SpanPublish)
	err := errors.New("connection refused")
	SetError(span, err)
	SetErrorType(span, "publish_failed")
	SetStatus(span, err)
	span.End()

	_, ok := tracer.Start(context.Background(), SpanPublish)
	SetError(ok, nil)
	SetStatus(ok, nil)
	ok.End()

	spans := recorder.Ended()
	if spans[0].Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", spans[0].Status().Code)
	}
	if len(spans[0].Events()) != 1 {
		t.Errorf("events = %d, want 1 recorded error", len(spans[0].Events()))
	}
	if spans[1].Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", spans[1].Status().Code)
	}
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{1.0, "ParentBased{root:AlwaysOnSampler"},
		{0, "ParentBased{root:AlwaysOffSampler"},
		{0.25, "ParentBased{root:TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		got := createSampler(tt.ratio).Description()
		if len(got) < len(tt.want) || got[:len(tt.want)] != tt.want {
			t.Errorf("createSampler(%v) = %s, want prefix %s", tt.ratio, got, tt.want)
		}
	}
}
