package operations_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "shipbreaking/internal/errors"
	"shipbreaking/internal/operations"
)

func newManager(t *testing.T, steps ...operations.Step) *operations.Manager {
	t.Helper()
	registry := operations.NewRegistry()
	for _, step := range steps {
		require.NoError(t, registry.Register(step))
	}
	return operations.NewManager(registry, nil, nil, nil)
}

func statuses(state *operations.OperationState) map[string]operations.StepStatus {
	out := make(map[string]operations.StepStatus)
	for _, s := range state.OrderedStages() {
		out[s.ID] = s.GetStatus()
	}
	return out
}

func TestManagerExecuteRunsStepsInOrder(t *testing.T) {
	var order []string
	record := func(id string) *fakeStep {
		return newFakeStep(id, func(ctx context.Context, state *operations.OperationState) error {
			order = append(order, id)
			return nil
		})
	}

	manager := newManager(t, record("load"), record("clean"), record("export"))
	state := operations.NewOperationState("run-1")

	require.NoError(t, manager.Execute(context.Background(), state))
	assert.Equal(t, []string{"load", "clean", "export"}, order)
	assert.Equal(t, operations.OperationStatusCompleted, state.GetStatus())
	for id, status := range statuses(state) {
		assert.Equal(t, operations.StepStatusCompleted, status, id)
	}
}

func TestManagerExecuteSkipContinues(t *testing.T) {
	impute := newFakeStep("impute", func(ctx context.Context, state *operations.OperationState) error {
		return operations.NewSkipError("2 rows left without LDT", errors.New("insufficient training data"))
	})
	export := newFakeStep("export", nil)

	manager := newManager(t, impute, export)
	state := operations.NewOperationState("run-1")

	require.NoError(t, manager.Execute(context.Background(), state))
	assert.Equal(t, operations.OperationStatusCompleted, state.GetStatus())
	assert.Equal(t, 1, export.calls)

	skipped := state.GetStage("impute")
	assert.Equal(t, operations.StepStatusSkipped, skipped.GetStatus())
	assert.Contains(t, skipped.Message, "2 rows left without LDT")
	assert.Equal(t, operations.StepStatusCompleted, state.GetStage("export").GetStatus())
}

func TestManagerExecuteFailureStops(t *testing.T) {
	cause := errors.New("input directory missing")
	load := newFakeStep("load", func(ctx context.Context, state *operations.OperationState) error {
		return cause
	})
	clean := newFakeStep("clean", nil)
	export := newFakeStep("export", nil)

	manager := newManager(t, load, clean, export)
	state := operations.NewOperationState("run-1")

	err := manager.Execute(context.Background(), state)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, operations.ErrorTypeExecution, operations.GetErrorType(err))

	assert.Equal(t, operations.OperationStatusFailed, state.GetStatus())
	assert.True(t, state.HasFailures())
	assert.Zero(t, clean.calls)
	assert.Zero(t, export.calls)

	assert.Equal(t, map[string]operations.StepStatus{
		"load":   operations.StepStatusFailed,
		"clean":  operations.StepStatusSkipped,
		"export": operations.StepStatusSkipped,
	}, statuses(state))
	assert.Equal(t, "previous step load not completed", state.GetStage("clean").Message)
}

func TestManagerExecuteValidationFailure(t *testing.T) {
	step := newFakeStep("export", nil)
	step.validate = func(state *operations.OperationState) error {
		return operations.NewValidationError("export", "nothing to export")
	}

	manager := newManager(t, step)
	state := operations.NewOperationState("run-1")

	err := manager.Execute(context.Background(), state)
	require.Error(t, err)
	assert.Zero(t, step.calls)
	assert.Equal(t, operations.StepStatusFailed, state.GetStage("export").GetStatus())
}

func TestManagerExecuteCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	load := newFakeStep("load", func(ctx context.Context, state *operations.OperationState) error {
		cancel()
		return nil
	})
	clean := newFakeStep("clean", nil)

	manager := newManager(t, load, clean)
	state := operations.NewOperationState("run-1")

	err := manager.Execute(ctx, state)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, operations.ErrorTypeCancellation, operations.GetErrorType(err))
	assert.Equal(t, operations.OperationStatusCancelled, state.GetStatus())

	assert.Equal(t, 1, load.calls)
	assert.Zero(t, clean.calls)
	assert.Equal(t, operations.StepStatusCompleted, state.GetStage("load").GetStatus())
	assert.Equal(t, operations.StepStatusSkipped, state.GetStage("clean").GetStatus())
}

func TestManagerExecuteEmptyRegistry(t *testing.T) {
	manager := operations.NewManager(nil, nil, nil, nil)
	state := operations.NewOperationState("run-1")

	require.NoError(t, manager.Execute(context.Background(), state))
	assert.Equal(t, 0, manager.GetRegistry().Count())
	assert.Equal(t, operations.OperationStatusCompleted, state.GetStatus())
}

func TestManagerExecuteStepInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	load := newFakeStep("load", func(ctx context.Context, state *operations.OperationState) error {
		cancel()
		return ctx.Err()
	})
	clean := newFakeStep("clean", nil)

	manager := newManager(t, load, clean)
	state := operations.NewOperationState("run-1")

	err := manager.Execute(ctx, state)
	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeCancellation, operations.GetErrorType(err))
	assert.Equal(t, operations.OperationStatusCancelled, state.GetStatus())
	assert.Equal(t, operations.StepStatusFailed, state.GetStage("load").GetStatus())
	assert.Equal(t, operations.StepStatusSkipped, state.GetStage("clean").GetStatus())
}

func TestManagerExecuteLogsFailureTypes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	export := newFakeStep("export", func(ctx context.Context, state *operations.OperationState) error {
		return apperrors.NewStorageError("output directory is not writable", os.ErrPermission)
	})
	registry := operations.NewRegistry()
	require.NoError(t, registry.Register(newFakeStep("load", nil)))
	require.NoError(t, registry.Register(export))

	manager := operations.NewManager(registry, nil, nil, logger)
	require.Error(t, manager.Execute(context.Background(), operations.NewOperationState("run-1")))

	var started, failed map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		switch entry["msg"] {
		case "Pipeline started":
			started = entry
		case "Pipeline failed":
			failed = entry
		}
	}

	require.NotNil(t, started)
	assert.Equal(t, []any{"load", "export"}, started["steps"])

	require.NotNil(t, failed)
	assert.Equal(t, "export", failed["step"])
	assert.Equal(t, string(operations.ErrorTypeExecution), failed["error_type"])
	assert.Equal(t, string(apperrors.ErrTypeStorage), failed["cause_type"])
	assert.Contains(t, failed["error"], "output directory is not writable")
}
