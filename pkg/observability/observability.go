// Package observability owns the OpenTelemetry tracer and meter providers and
// records spans and metrics for the estimation workflow.
package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/JaimeStill/estimator/pkg/lifecycle"
)

// ErrDisabled is returned by Snapshot when telemetry is turned off.
var ErrDisabled = errors.New("observability disabled")

// Measurement is a flattened view of one metric data point.
type Measurement struct {
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Count      uint64            `json:"count"`
	Sum        float64           `json:"sum"`
}

// System owns the telemetry providers for the process.
type System interface {
	Recorder() Recorder
	// Snapshot collects the current value of every instrument.
	Snapshot(ctx context.Context) ([]Measurement, error)
	Start(lc *lifecycle.Coordinator) error
}

type telemetry struct {
	recorder Recorder
	tracer   *sdktrace.TracerProvider
	meter    *sdkmetric.MeterProvider
	reader   *sdkmetric.ManualReader
	logger   *slog.Logger
}

// New creates the telemetry system. When cfg.Enabled is false the recorder is
// backed by no-op providers and Snapshot returns ErrDisabled.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	t := &telemetry{logger: logger.With("system", "observability")}

	if !cfg.Enabled {
		rec, err := NewRecorder(tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
		if err != nil {
			return nil, err
		}
		t.recorder = rec
		return t, nil
	}

	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))

	t.reader = sdkmetric.NewManualReader()
	t.meter = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(t.reader),
		sdkmetric.WithResource(res),
	)
	t.tracer = sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(t.tracer)
	otel.SetMeterProvider(t.meter)

	rec, err := NewRecorder(t.tracer, t.meter)
	if err != nil {
		return nil, fmt.Errorf("create recorder: %w", err)
	}
	t.recorder = rec

	return t, nil
}

func (t *telemetry) Recorder() Recorder {
	return t.recorder
}

func (t *telemetry) Start(lc *lifecycle.Coordinator) error {
	if t.meter == nil {
		t.logger.Info("observability disabled")
		return nil
	}

	t.logger.Info("starting observability")

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		ctx := context.Background()

		if err := t.tracer.Shutdown(ctx); err != nil {
			t.logger.Error("tracer provider shutdown failed", "error", err)
		}
		if err := t.meter.Shutdown(ctx); err != nil {
			t.logger.Error("meter provider shutdown failed", "error", err)
		}

		t.logger.Info("observability stopped")
	})

	return nil
}

func (t *telemetry) Snapshot(ctx context.Context) ([]Measurement, error) {
	if t.reader == nil {
		return nil, ErrDisabled
	}

	var rm metricdata.ResourceMetrics
	if err := t.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("collect metrics: %w", err)
	}

	return Flatten(&rm), nil
}

// Flatten converts collected resource metrics into measurements sorted by name.
func Flatten(rm *metricdata.ResourceMetrics) []Measurement {
	out := make([]Measurement, 0)

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					out = append(out, Measurement{
						Name:       m.Name,
						Attributes: attrMap(dp.Attributes),
						Count:      uint64(dp.Value),
						Sum:        float64(dp.Value),
					})
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					out = append(out, Measurement{
						Name:       m.Name,
						Attributes: attrMap(dp.Attributes),
						Count:      dp.Count,
						Sum:        dp.Sum,
					})
				}
			case metricdata.Histogram[int64]:
				for _, dp := range data.DataPoints {
					out = append(out, Measurement{
						Name:       m.Name,
						Attributes: attrMap(dp.Attributes),
						Count:      dp.Count,
						Sum:        float64(dp.Sum),
					})
				}
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})

	return out
}

func attrMap(set attribute.Set) map[string]string {
	if set.Len() == 0 {
		return nil
	}
	m := make(map[string]string, set.Len())
	for _, kv := range set.ToSlice() {
		m[string(kv.Key)] = kv.Value.Emit()
	}
	return m
}
