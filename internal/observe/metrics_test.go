package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumValue collects from the reader and returns the int64 sum data point of
// the named metric whose attributes are a superset of match. Returns the
// value and whether such a point was found.
func sumValue(t *testing.T, reader *sdkmetric.ManualReader, name string, match ...attribute.KeyValue) (int64, bool) {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	met := findMetric(rm, name)
	if met == nil {
		t.Fatalf("metric %q not found", name)
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q data is %T, want Sum[int64]", name, met.Data)
	}
points:
	for _, dp := range sum.DataPoints {
		for _, want := range match {
			if v, present := dp.Attributes.Value(want.Key); !present || v != want.Value {
				continue points
			}
		}
		return dp.Value, true
	}
	return 0, false
}

func TestMetrics_PipelineHistograms(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	// One slow LLM call, two fast weaves, one TTS synthesis.
	m.LLMDuration.Record(ctx, 2.4)
	m.AnnotateDuration.Record(ctx, 0.0004)
	m.AnnotateDuration.Record(ctx, 0.0007)
	m.TTSDuration.Record(ctx, 0.9)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	counts := map[string]uint64{
		"kotoba.llm.duration":      1,
		"kotoba.annotate.duration": 2,
		"kotoba.tts.duration":      1,
	}
	for name, want := range counts {
		met := findMetric(rm, name)
		if met == nil {
			t.Errorf("metric %q not recorded", name)
			continue
		}
		hist, ok := met.Data.(metricdata.Histogram[float64])
		if !ok {
			t.Errorf("metric %q data is %T, want Histogram[float64]", name, met.Data)
			continue
		}
		if got := hist.DataPoints[0].Count; got != want {
			t.Errorf("%s sample count = %d, want %d", name, got, want)
		}
	}
}

func TestMetrics_Counters(t *testing.T) {
	tests := []struct {
		name   string
		record func(context.Context, *Metrics)
		metric string
		match  []attribute.KeyValue
		want   int64
	}{
		{
			name: "provider requests split by status",
			record: func(ctx context.Context, m *Metrics) {
				m.RecordProviderRequest(ctx, "openai", "llm", "ok")
				m.RecordProviderRequest(ctx, "openai", "llm", "ok")
				m.RecordProviderRequest(ctx, "openai", "llm", "error")
			},
			metric: "kotoba.provider.requests",
			match:  []attribute.KeyValue{attribute.String("status", "ok")},
			want:   2,
		},
		{
			name: "entries processed split by language",
			record: func(ctx context.Context, m *Metrics) {
				m.RecordEntry(ctx, "ja", "ok")
				m.RecordEntry(ctx, "ja", "ok")
				m.RecordEntry(ctx, "en", "degraded")
			},
			metric: "kotoba.entries.processed",
			match:  []attribute.KeyValue{attribute.String("language", "ja")},
			want:   2,
		},
		{
			name: "cache hits",
			record: func(ctx context.Context, m *Metrics) {
				m.RecordCacheHit(ctx, "ja")
			},
			metric: "kotoba.cache.hits",
			match:  []attribute.KeyValue{attribute.String("language", "ja")},
			want:   1,
		},
		{
			name: "provider errors",
			record: func(ctx context.Context, m *Metrics) {
				m.RecordProviderError(ctx, "elevenlabs", "tts")
			},
			metric: "kotoba.provider.errors",
			match:  []attribute.KeyValue{attribute.String("provider", "elevenlabs")},
			want:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, reader := newTestMetrics(t)
			tt.record(context.Background(), m)

			got, found := sumValue(t, reader, tt.metric, tt.match...)
			if !found {
				t.Fatalf("no %s data point matching %v", tt.metric, tt.match)
			}
			if got != tt.want {
				t.Errorf("%s = %d, want %d", tt.metric, got, tt.want)
			}
		})
	}
}

func TestMetrics_ActiveLiveSessions(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	// Two connects, one disconnect.
	m.ActiveLiveSessions.Add(ctx, 1)
	m.ActiveLiveSessions.Add(ctx, 1)
	m.ActiveLiveSessions.Add(ctx, -1)

	got, found := sumValue(t, reader, "kotoba.active_live_sessions")
	if !found {
		t.Fatal("no active_live_sessions data point")
	}
	if got != 1 {
		t.Errorf("active live sessions = %d, want 1", got)
	}
}

func TestDefaultMetrics_ReturnsSameInstance(t *testing.T) {
	// DefaultMetrics uses the global OTel provider so we just check
	// that repeated calls return the same pointer.
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a != b {
		t.Error("DefaultMetrics returned different pointers")
	}
}
