package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// captureLogs swaps the default slog logger for one writing JSON to a buffer.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		lines = append(lines, m)
	}
	return lines
}

func TestTimedValue(t *testing.T) {
	buf := captureLogs(t)

	got, err := TimedValue(context.Background(), "sample_function", func(context.Context) (string, error) {
		return "Hello", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", got)

	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Contains(t, lines[0]["msg"], "Execution time for 'sample_function'")
	assert.Equal(t, "sample_function", lines[0]["function"])
}

func TestTimedValue_MeasuresSlowFunction(t *testing.T) {
	buf := captureLogs(t)

	got, err := TimedValue(context.Background(), "sample_async_function", func(ctx context.Context) (string, error) {
		select {
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
		}
		return "Async Hello", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Async Hello", got)

	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	assert.GreaterOrEqual(t, lines[0]["duration"], float64(100*time.Millisecond))
}

func TestTimed_ErrorPassesThrough(t *testing.T) {
	buf := captureLogs(t)
	boom := errors.New("boom")

	err := Timed(context.Background(), "failing", func(context.Context) error { return boom })
	assert.Same(t, boom, err)

	lines := logLines(t, buf)
	require.Len(t, lines, 1, "timing is logged even when fn fails")
	assert.Contains(t, lines[0]["msg"], "Execution time for 'failing'")
}

func TestTimed_RecordsDurationHistogram(t *testing.T) {
	captureLogs(t)
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	ctx := context.Background()
	for range 2 {
		require.NoError(t, Timed(ctx, "histogram-step", func(context.Context) error { return nil }))
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	var count uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "dbsettings.execution.duration" {
				continue
			}
			hist, ok := m.Data.(metricdata.Histogram[float64])
			require.True(t, ok)
			for _, dp := range hist.DataPoints {
				count += dp.Count
			}
		}
	}
	assert.Equal(t, uint64(2), count, "both calls share one histogram")
}
