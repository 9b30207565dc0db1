package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/JaimeStill/estimator"

// Recorder records spans and metrics for conversation turns, tool executions,
// and model calls.
type Recorder interface {
	// StartTurn starts the root span for one user turn.
	StartTurn(ctx context.Context, sessionID string) (context.Context, trace.Span)
	// StartTool starts a child span for a single tool execution.
	StartTool(ctx context.Context, tool string) (context.Context, trace.Span)
	// EndSpan completes a span, recording err when non-nil.
	EndSpan(span trace.Span, err error)

	RecordTool(ctx context.Context, tool string, duration time.Duration, err error)
	RecordTurn(ctx context.Context, status string, toolCalls int, duration time.Duration)
	RecordModelCall(ctx context.Context, purpose string, duration time.Duration, err error)
}

type recorder struct {
	tracer trace.Tracer

	toolExecutions metric.Int64Counter
	toolLatency    metric.Float64Histogram
	toolErrors     metric.Int64Counter
	turns          metric.Int64Counter
	turnLatency    metric.Float64Histogram
	turnToolCalls  metric.Int64Histogram
	modelCalls     metric.Int64Counter
	modelLatency   metric.Float64Histogram
	modelErrors    metric.Int64Counter
}

// Noop returns a Recorder that discards everything.
func Noop() Recorder {
	r, _ := NewRecorder(tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	return r
}

// NewRecorder builds a Recorder from explicit providers.
func NewRecorder(tp trace.TracerProvider, mp metric.MeterProvider) (Recorder, error) {
	meter := mp.Meter(instrumentationName)
	r := &recorder{tracer: tp.Tracer(instrumentationName)}

	var err error
	if r.toolExecutions, err = meter.Int64Counter("estimator.tool.executions",
		metric.WithDescription("Number of tool executions"),
	); err != nil {
		return nil, err
	}
	if r.toolLatency, err = meter.Float64Histogram("estimator.tool.latency_ms",
		metric.WithDescription("Tool execution latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if r.toolErrors, err = meter.Int64Counter("estimator.tool.errors",
		metric.WithDescription("Number of failed tool executions"),
	); err != nil {
		return nil, err
	}
	if r.turns, err = meter.Int64Counter("estimator.turns",
		metric.WithDescription("Number of processed user turns"),
	); err != nil {
		return nil, err
	}
	if r.turnLatency, err = meter.Float64Histogram("estimator.turn.latency_ms",
		metric.WithDescription("Turn latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if r.turnToolCalls, err = meter.Int64Histogram("estimator.turn.tool_calls",
		metric.WithDescription("Tool executions per turn"),
	); err != nil {
		return nil, err
	}
	if r.modelCalls, err = meter.Int64Counter("estimator.model.calls",
		metric.WithDescription("Number of language model calls"),
	); err != nil {
		return nil, err
	}
	if r.modelLatency, err = meter.Float64Histogram("estimator.model.latency_ms",
		metric.WithDescription("Language model call latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if r.modelErrors, err = meter.Int64Counter("estimator.model.errors",
		metric.WithDescription("Number of failed language model calls"),
	); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *recorder) StartTurn(ctx context.Context, sessionID string) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "estimator.turn",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

func (r *recorder) StartTool(ctx context.Context, tool string) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "estimator.tool."+tool,
		trace.WithAttributes(attribute.String("tool.name", tool)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (r *recorder) EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (r *recorder) RecordTool(ctx context.Context, tool string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("tool", tool))
	r.toolExecutions.Add(ctx, 1, attrs)
	r.toolLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
	if err != nil {
		r.toolErrors.Add(ctx, 1, attrs)
	}
}

func (r *recorder) RecordTurn(ctx context.Context, status string, toolCalls int, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("status", status))
	r.turns.Add(ctx, 1, attrs)
	r.turnLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
	r.turnToolCalls.Record(ctx, int64(toolCalls), attrs)
}

func (r *recorder) RecordModelCall(ctx context.Context, purpose string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("purpose", purpose))
	r.modelCalls.Add(ctx, 1, attrs)
	r.modelLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
	if err != nil {
		r.modelErrors.Add(ctx, 1, attrs)
	}
}
