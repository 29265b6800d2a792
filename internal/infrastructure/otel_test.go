package infrastructure

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"shipbreaking/internal/config"
)

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	cfg := config.Default()
	cfg.Output.Dir = t.TempDir()
	return cfg.GetPaths()
}

func TestInitializeTelemetry(t *testing.T) {
	paths := testPaths(t)
	ctx := context.Background()

	tel, err := InitializeTelemetry(ctx, config.TelemetryConfig{
		Tracing:     true,
		SampleRatio: 1.0,
		Metrics:     true,
	}, paths, "run-1", nil)
	require.NoError(t, err)
	require.NotNil(t, tel.TracerProvider)
	require.NotNil(t, tel.MeterProvider)
	require.NotNil(t, tel.Registry)

	spanCtx, span := tel.Tracer.Start(ctx, "clean")
	assert.True(t, span.IsRecording())
	AddSpanEvent(spanCtx, "rows.dropped", attribute.Int("count", 3))
	RecordError(spanCtx, errors.New("boom"))
	span.End()

	metrics, err := CreatePipelineMetrics(tel.Meter)
	require.NoError(t, err)
	metrics.RecordLoaded(ctx, 2014, 10)
	metrics.RecordDropped(ctx, "invalid_imo", 2)
	metrics.RecordImputed(ctx, "regression", 4)
	metrics.RecordStep(ctx, "clean", "completed", 150*time.Millisecond)
	metrics.RecordRegression(ctx, 0.92, 8)

	require.NoError(t, tel.WriteMetrics())

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, tel.Shutdown(shutdownCtx))
	require.NoError(t, tel.Shutdown(shutdownCtx), "second shutdown is a no-op")

	traces, err := os.ReadFile(paths.TraceFile)
	require.NoError(t, err)
	assert.Contains(t, string(traces), `"Name": "clean"`)
	assert.Contains(t, string(traces), "rows.dropped")

	prom, err := os.ReadFile(paths.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "shipbreaking_rows_loaded")
	assert.Contains(t, string(prom), "shipbreaking_rows_dropped")
	assert.Contains(t, string(prom), `reason="invalid_imo"`)
	assert.Contains(t, string(prom), "shipbreaking_step_duration")
	assert.Contains(t, string(prom), "shipbreaking_regression_r_squared")
}

func TestInitializeTelemetry_Disabled(t *testing.T) {
	paths := testPaths(t)

	tel, err := InitializeTelemetry(context.Background(), config.TelemetryConfig{}, paths, "run-2", nil)
	require.NoError(t, err)
	assert.Nil(t, tel.TracerProvider)
	assert.Nil(t, tel.Registry)

	_, span := tel.Tracer.Start(context.Background(), "noop")
	assert.False(t, span.IsRecording())
	span.End()

	require.NoError(t, tel.WriteMetrics())
	require.NoError(t, tel.Shutdown(context.Background()))

	_, err = os.Stat(paths.MetricsFile)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(paths.OutputDir, config.DefaultTraceFile))
	assert.True(t, os.IsNotExist(err))
}

func TestPipelineMetrics_NilSafe(t *testing.T) {
	var m *PipelineMetrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordStep(ctx, "load", "completed", time.Second)
		m.RecordLoaded(ctx, 2014, 1)
		m.RecordDropped(ctx, "duplicate_imo", 1)
		m.RecordImputed(ctx, "regression", 1)
		m.RecordRegression(ctx, 1, 2)
	})
}

func TestNoopTelemetry(t *testing.T) {
	tel := NoopTelemetry()

	metrics, err := CreatePipelineMetrics(tel.Meter)
	require.NoError(t, err)
	metrics.RecordLoaded(context.Background(), 2020, 5)

	assert.NoError(t, tel.WriteMetrics())
	assert.NoError(t, tel.Shutdown(context.Background()))
}
