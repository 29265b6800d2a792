package operations_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipbreaking/internal/operations"
)

// fakeStep is a Step whose behavior is supplied by the test
type fakeStep struct {
	operations.BaseStage
	run      func(ctx context.Context, state *operations.OperationState) error
	validate func(state *operations.OperationState) error
	calls    int
}

func newFakeStep(id string, run func(ctx context.Context, state *operations.OperationState) error) *fakeStep {
	return &fakeStep{BaseStage: operations.NewBaseStage(id, id+" step"), run: run}
}

func (f *fakeStep) Execute(ctx context.Context, state *operations.OperationState) error {
	f.calls++
	if f.run == nil {
		return nil
	}
	return f.run(ctx, state)
}

func (f *fakeStep) Validate(state *operations.OperationState) error {
	if f.validate == nil {
		return nil
	}
	return f.validate(state)
}

func TestRegistryRegister(t *testing.T) {
	registry := operations.NewRegistry()

	require.NoError(t, registry.Register(newFakeStep("load", nil)))
	require.NoError(t, registry.Register(newFakeStep("clean", nil)))

	assert.Equal(t, 2, registry.Count())
	assert.Equal(t, []string{"load", "clean"}, registry.ListIDs())

	steps := registry.List()
	require.Len(t, steps, 2)
	assert.Equal(t, "clean step", steps[1].Name())
}

func TestRegistryRejects(t *testing.T) {
	registry := operations.NewRegistry()
	require.NoError(t, registry.Register(newFakeStep("load", nil)))

	assert.Error(t, registry.Register(nil))
	assert.Error(t, registry.Register(newFakeStep("", nil)))
	assert.Error(t, registry.Register(newFakeStep("load", nil)))
	assert.Equal(t, 1, registry.Count())
}

func TestRegistryListKeepsOrder(t *testing.T) {
	registry := operations.NewRegistry()
	ids := []string{"load", "harmonize", "clean", "derive_age", "impute", "aggregate", "export"}
	for _, id := range ids {
		require.NoError(t, registry.Register(newFakeStep(id, nil)))
	}

	steps := registry.List()
	require.Len(t, steps, len(ids))
	for i, step := range steps {
		assert.Equal(t, ids[i], step.ID())
	}
}
