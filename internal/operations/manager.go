package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "shipbreaking/internal/errors"
	"shipbreaking/internal/infrastructure"
)

// Manager executes the registered steps of a pipeline run in order
type Manager struct {
	registry *Registry
	tracer   trace.Tracer
	metrics  *infrastructure.PipelineMetrics
	logger   *slog.Logger
}

// NewManager creates a manager for the steps in registry. A nil telemetry
// records nothing.
func NewManager(registry *Registry, telemetry *infrastructure.Telemetry, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if telemetry == nil {
		telemetry = infrastructure.NoopTelemetry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry: registry,
		tracer:   telemetry.Tracer,
		metrics:  metrics,
		logger:   logger,
	}
}

// GetRegistry returns the registry for accessing registered stages
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// Execute runs every registered step against state. A step returning a
// SkipError is marked skipped and the run continues; any other error fails
// the run and leaves the remaining steps skipped.
func (m *Manager) Execute(ctx context.Context, state *OperationState) error {
	ctx = infrastructure.WithRunID(ctx, state.ID)

	steps := m.registry.List()
	for _, step := range steps {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	ctx, span := m.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("pipeline.run_id", state.ID),
			attribute.Int("pipeline.steps", len(steps)),
		))
	defer span.End()

	state.Start()
	m.logger.InfoContext(ctx, "Pipeline started",
		slog.String("run_id", state.ID),
		slog.Int("step_count", len(steps)),
		slog.Any("steps", m.registry.ListIDs()))

	for i, step := range steps {
		select {
		case <-ctx.Done():
			err := NewCancellationError(step.ID(), ctx.Err())
			m.logger.WarnContext(ctx, "Pipeline cancelled", slog.String("step", step.ID()))
			m.skipRemaining(state, steps[i:], "run cancelled")
			state.Cancel(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		default:
		}

		if err := m.executeStep(ctx, state, step); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				cancelErr := NewCancellationError(step.ID(), ctxErr)
				m.skipRemaining(state, steps[i+1:], "run cancelled")
				state.Cancel(cancelErr)
				span.SetStatus(codes.Error, cancelErr.Error())
				return cancelErr
			}
			m.skipRemaining(state, steps[i+1:], fmt.Sprintf("previous step %s not completed", step.ID()))
			state.Fail(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			infrastructure.WithError(m.logger, err).ErrorContext(ctx, "Pipeline failed",
				slog.String("step", step.ID()),
				slog.String("error_type", string(GetErrorType(err))),
				slog.String("cause_type", string(apperrors.TypeOf(err))))
			return err
		}
	}

	state.Complete()
	span.SetStatus(codes.Ok, "")
	m.logger.InfoContext(ctx, "Pipeline completed",
		slog.Duration("duration", state.Duration()))
	return nil
}

func (m *Manager) executeStep(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStage(step.ID())

	ctx, span := m.tracer.Start(ctx, step.ID(),
		trace.WithAttributes(
			attribute.String("step.id", step.ID()),
			attribute.String("step.name", step.Name()),
		))
	defer span.End()

	stepState.Start()
	m.logger.InfoContext(ctx, "Executing step", slog.String("step", step.ID()))

	err := step.Validate(state)
	if err == nil {
		err = step.Execute(ctx, state)
	}

	switch {
	case err == nil:
		stepState.Complete()
		span.SetStatus(codes.Ok, "")
		m.logger.InfoContext(ctx, "Step completed",
			slog.String("step", step.ID()),
			slog.Duration("duration", stepState.Duration()))

	case IsSkip(err):
		stepState.Skip(err.Error())
		span.AddEvent("step.skipped", trace.WithAttributes(attribute.String("reason", err.Error())))
		m.logger.WarnContext(ctx, "Step skipped",
			slog.String("step", step.ID()),
			slog.String("reason", err.Error()))

	default:
		stepState.Fail(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	m.metrics.RecordStep(ctx, step.ID(), string(stepState.GetStatus()), stepState.Duration())

	if err != nil && !IsSkip(err) {
		return NewExecutionError(step.ID(), err)
	}
	return nil
}

func (m *Manager) skipRemaining(state *OperationState, steps []Step, reason string) {
	for _, step := range steps {
		if s := state.GetStage(step.ID()); s != nil && s.GetStatus() == StepStatusPending {
			s.Skip(reason)
		}
	}
}
