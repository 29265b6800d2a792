package operations_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipbreaking/internal/operations"
)

func TestNewStepState(t *testing.T) {
	state := operations.NewStepState("clean", "Clean records")

	assert.Equal(t, "clean", state.ID)
	assert.Equal(t, "Clean records", state.Name)
	assert.Equal(t, operations.StepStatusPending, state.GetStatus())
	assert.Nil(t, state.StartTime)
	assert.Nil(t, state.EndTime)
	assert.Nil(t, state.Error)
	assert.Zero(t, state.Duration())
}

func TestStepStateTransitions(t *testing.T) {
	tests := []struct {
		name       string
		transition func(*operations.StepState)
		wantStatus operations.StepStatus
		wantEnd    bool
	}{
		{
			name:       "start",
			transition: func(s *operations.StepState) { s.Start() },
			wantStatus: operations.StepStatusActive,
		},
		{
			name: "complete",
			transition: func(s *operations.StepState) {
				s.Start()
				s.Complete()
			},
			wantStatus: operations.StepStatusCompleted,
			wantEnd:    true,
		},
		{
			name: "fail",
			transition: func(s *operations.StepState) {
				s.Start()
				s.Fail(errors.New("boom"))
			},
			wantStatus: operations.StepStatusFailed,
			wantEnd:    true,
		},
		{
			name:       "skip",
			transition: func(s *operations.StepState) { s.Skip("no training rows") },
			wantStatus: operations.StepStatusSkipped,
			wantEnd:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := operations.NewStepState("impute", "Impute LDT")
			tt.transition(s)
			assert.Equal(t, tt.wantStatus, s.GetStatus())
			assert.Equal(t, tt.wantEnd, s.EndTime != nil)
		})
	}
}

func TestStepStateFailAndSkipDetails(t *testing.T) {
	failed := operations.NewStepState("load", "Load")
	cause := errors.New("missing directory")
	failed.Fail(cause)
	assert.Equal(t, cause, failed.Error)

	skipped := operations.NewStepState("impute", "Impute")
	skipped.Skip("regression could not be fit")
	assert.Equal(t, "regression could not be fit", skipped.Message)
}

func TestOperationStateLifecycle(t *testing.T) {
	state := operations.NewOperationState("run-1")
	require.NotNil(t, state.Data)
	assert.Equal(t, operations.OperationStatusPending, state.GetStatus())

	state.Start()
	assert.Equal(t, operations.OperationStatusRunning, state.GetStatus())

	state.Complete()
	assert.Equal(t, operations.OperationStatusCompleted, state.GetStatus())
	require.NotNil(t, state.EndTime)

	failed := operations.NewOperationState("run-2")
	failed.Start()
	err := errors.New("boom")
	failed.Fail(err)
	assert.Equal(t, operations.OperationStatusFailed, failed.GetStatus())
	assert.Equal(t, err, failed.Error)

	cancelled := operations.NewOperationState("run-3")
	cancelled.Cancel(err)
	assert.Equal(t, operations.OperationStatusCancelled, cancelled.GetStatus())
}

func TestOperationStateOrderedStages(t *testing.T) {
	state := operations.NewOperationState("run-1")
	for _, id := range []string{"load", "harmonize", "clean"} {
		state.SetStage(id, operations.NewStepState(id, id))
	}
	// Replacing a stage keeps its position
	state.SetStage("load", operations.NewStepState("load", "reloaded"))

	stages := state.OrderedStages()
	require.Len(t, stages, 3)
	assert.Equal(t, "load", stages[0].ID)
	assert.Equal(t, "reloaded", stages[0].Name)
	assert.Equal(t, "harmonize", stages[1].ID)
	assert.Equal(t, "clean", stages[2].ID)
	assert.Nil(t, state.GetStage("export"))
}

func TestOperationStateHasFailures(t *testing.T) {
	state := operations.NewOperationState("run-1")
	ok := operations.NewStepState("load", "Load")
	ok.Complete()
	state.SetStage("load", ok)
	assert.False(t, state.HasFailures())

	bad := operations.NewStepState("clean", "Clean")
	bad.Fail(errors.New("boom"))
	state.SetStage("clean", bad)
	assert.True(t, state.HasFailures())
}

func TestOperationStateAddOutput(t *testing.T) {
	state := operations.NewOperationState("run-1")
	state.AddOutput("a.csv")
	state.AddOutput("b.csv", "c.csv")
	assert.Equal(t, []string{"a.csv", "b.csv", "c.csv"}, state.Data.Outputs)
}
