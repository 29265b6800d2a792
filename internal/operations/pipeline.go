package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"shipbreaking/internal/config"
	"shipbreaking/internal/exporter"
	"shipbreaking/internal/infrastructure"
	"shipbreaking/internal/validation"
	"shipbreaking/pkg/contracts"
)

// Pipeline runs one complete harmonization pass for a configuration
type Pipeline struct {
	cfg    *config.Config
	paths  *config.Paths
	logger *slog.Logger
}

// NewPipeline creates a pipeline for cfg
func NewPipeline(cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:    cfg,
		paths:  cfg.GetPaths(),
		logger: logger,
	}
}

// Paths returns the resolved file locations of the run
func (p *Pipeline) Paths() *config.Paths {
	return p.paths
}

// Run executes every step, then writes the run report and the metrics file.
// The report is returned even when a step failed; the error is the step
// failure joined with any error hit while writing the report or telemetry.
// A run ID already carried by ctx is kept, otherwise a new one is generated.
func (p *Pipeline) Run(ctx context.Context) (*exporter.RunReport, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	runID := infrastructure.GetRunID(ctx)

	if err := validation.NewFileValidator(p.logger).ValidateOutputDirectory(p.paths.OutputDir); err != nil {
		return nil, err
	}
	if err := p.paths.EnsureDirectories(); err != nil {
		return nil, err
	}

	telemetry, err := infrastructure.InitializeTelemetry(ctx, p.cfg.Telemetry, p.paths, runID, p.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	// Shutdown must still flush spans after an interrupt
	flushCtx := context.WithoutCancel(ctx)

	metrics, err := infrastructure.CreatePipelineMetrics(telemetry.Meter)
	if err != nil {
		_ = telemetry.Shutdown(flushCtx)
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	registry, err := NewPipelineRegistry(&StageOptions{
		Config:  p.cfg,
		Paths:   p.paths,
		Metrics: metrics,
		Logger:  p.logger,
	})
	if err != nil {
		_ = telemetry.Shutdown(flushCtx)
		return nil, err
	}

	state := NewOperationState(runID)
	runErr := NewManager(registry, telemetry, metrics, p.logger).Execute(ctx, state)

	state.AddOutput(p.paths.RunReport)
	report := BuildReport(state)

	errs := []error{runErr}
	if err := exporter.WriteReport(p.paths.RunReport, report); err != nil {
		errs = append(errs, err)
	}
	if err := telemetry.WriteMetrics(); err != nil {
		errs = append(errs, err)
	}
	if err := telemetry.Shutdown(flushCtx); err != nil {
		errs = append(errs, err)
	}

	p.logger.InfoContext(ctx, "Run finished",
		slog.String("status", report.Status),
		slog.String("report", p.paths.RunReport))

	return report, errors.Join(errs...)
}

// BuildReport converts the final state of a run into its report
func BuildReport(state *OperationState) *exporter.RunReport {
	data := state.Data
	report := &exporter.RunReport{
		RunID:      state.ID,
		Version:    contracts.Version,
		StartedAt:  state.StartTime,
		Status:     string(state.GetStatus()),
		LoadIssues: data.LoadIssues,
		Schema:     data.Schema,
		Cleaning:   data.Cleaning,
		Age:        data.Age,
		Imputation: data.Imputation,
		Outputs:    data.Outputs,
	}
	if state.EndTime != nil {
		report.FinishedAt = *state.EndTime
	}
	if state.Error != nil {
		report.Error = state.Error.Error()
	}

	for _, s := range state.OrderedStages() {
		step := exporter.StepReport{
			Name:     s.ID,
			Status:   string(s.GetStatus()),
			Duration: s.Duration(),
		}
		if s.StartTime != nil {
			step.StartedAt = *s.StartTime
		}
		if s.Error != nil {
			step.Error = s.Error.Error()
		}
		if step.Status == string(StepStatusSkipped) {
			step.SkipReason = s.Message
		}
		report.Steps = append(report.Steps, step)
	}

	for _, yf := range data.YearFiles {
		report.Inputs = append(report.Inputs, exporter.InputReport{
			Year:   yf.Year,
			Path:   yf.Path,
			Format: yf.Format,
			Rows:   data.LoadedRows[yf.Year],
		})
	}

	if data.Aggregation != nil {
		report.Stats = data.Aggregation.Stats
	}
	return report
}
