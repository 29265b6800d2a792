package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics holds the instruments recorded during a pipeline run
type PipelineMetrics struct {
	RowsLoaded        metric.Int64Counter
	RowsDropped       metric.Int64Counter
	LDTImputed        metric.Int64Counter
	StepExecutions    metric.Int64Counter
	StepDuration      metric.Float64Histogram
	RegressionRSquare metric.Float64Gauge
	TrainingRows      metric.Int64Gauge
}

// CreatePipelineMetrics creates the pipeline instruments on meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	rowsLoaded, err := meter.Int64Counter(
		"shipbreaking_rows_loaded",
		metric.WithDescription("Number of data rows read from yearly source files"),
	)
	if err != nil {
		return nil, err
	}

	rowsDropped, err := meter.Int64Counter(
		"shipbreaking_rows_dropped",
		metric.WithDescription("Number of rows removed by cleaning, by reason"),
	)
	if err != nil {
		return nil, err
	}

	ldtImputed, err := meter.Int64Counter(
		"shipbreaking_ldt_imputed",
		metric.WithDescription("Number of LDT values filled in, by source"),
	)
	if err != nil {
		return nil, err
	}

	stepExecutions, err := meter.Int64Counter(
		"shipbreaking_step_executions",
		metric.WithDescription("Number of pipeline step executions, by status"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"shipbreaking_step_duration",
		metric.WithDescription("Pipeline step duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	rSquared, err := meter.Float64Gauge(
		"shipbreaking_regression_r_squared",
		metric.WithDescription("Coefficient of determination of the GT to LDT fit"),
	)
	if err != nil {
		return nil, err
	}

	trainingRows, err := meter.Int64Gauge(
		"shipbreaking_regression_training_rows",
		metric.WithDescription("Rows used to fit the GT to LDT regression"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		RowsLoaded:        rowsLoaded,
		RowsDropped:       rowsDropped,
		LDTImputed:        ldtImputed,
		StepExecutions:    stepExecutions,
		StepDuration:      stepDuration,
		RegressionRSquare: rSquared,
		TrainingRows:      trainingRows,
	}, nil
}

// RecordStep records one step execution and its duration
func (m *PipelineMetrics) RecordStep(ctx context.Context, step, status string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("step", step),
		attribute.String("status", status),
	)
	m.StepExecutions.Add(ctx, 1, attrs)
	m.StepDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordLoaded records rows read for a year
func (m *PipelineMetrics) RecordLoaded(ctx context.Context, year, rows int) {
	if m == nil || rows == 0 {
		return
	}
	m.RowsLoaded.Add(ctx, int64(rows), metric.WithAttributes(attribute.Int("year", year)))
}

// RecordDropped records rows removed for reason
func (m *PipelineMetrics) RecordDropped(ctx context.Context, reason string, rows int) {
	if m == nil || rows == 0 {
		return
	}
	m.RowsDropped.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordImputed records LDT values filled from source
func (m *PipelineMetrics) RecordImputed(ctx context.Context, source string, rows int) {
	if m == nil || rows == 0 {
		return
	}
	m.LDTImputed.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("source", source)))
}

// RecordRegression records the quality of a fitted model
func (m *PipelineMetrics) RecordRegression(ctx context.Context, rSquared float64, n int) {
	if m == nil {
		return
	}
	m.RegressionRSquare.Record(ctx, rSquared)
	m.TrainingRows.Record(ctx, int64(n))
}
