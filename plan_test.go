package saga

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanBuilderOrdersByDependencies(t *testing.T) {
	b := NewPlanBuilder[*[]string]("checkout")
	require.NoError(t, b.Add(noop("ship"), "charge", "reserve"))
	require.NoError(t, b.Add(noop("reserve"), "charge"))
	require.NoError(t, b.Add(noop("charge")))
	require.NoError(t, b.Add(noop("notify")))

	plan, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "checkout", plan.Name())
	assert.Equal(t, []string{"charge", "reserve", "ship", "notify"}, plan.StepNames())

	var trace []string
	res := Run(context.Background(), &trace, plan.Steps())
	require.True(t, res.Success)
	assert.Equal(t, plan.StepNames(), trace)
}

func TestPlanBuilderKeepsDeclarationOrder(t *testing.T) {
	b := NewPlanBuilder[*[]string]("linear")
	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, b.Add(noop(name)))
	}
	plan, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, plan.StepNames())
}

func TestPlanBuilderErrors(t *testing.T) {
	t.Run("duplicate", func(t *testing.T) {
		b := NewPlanBuilder[*[]string]("dup")
		require.NoError(t, b.Add(noop("a")))
		assert.ErrorIs(t, b.Add(noop("a")), ErrDuplicateStep)
		assert.ErrorIs(t, b.Add(noop("b")), ErrDuplicateStep, "first error sticks")
		_, err := b.Build()
		assert.ErrorIs(t, err, ErrDuplicateStep)
	})

	t.Run("unknown dependency", func(t *testing.T) {
		b := NewPlanBuilder[*[]string]("unknown")
		require.NoError(t, b.Add(noop("a"), "ghost"))
		_, err := b.Build()
		assert.ErrorIs(t, err, ErrUnknownDependency)
	})

	t.Run("self dependency", func(t *testing.T) {
		b := NewPlanBuilder[*[]string]("self")
		require.NoError(t, b.Add(noop("a"), "a"))
		_, err := b.Build()
		assert.ErrorIs(t, err, ErrDependencyCycle)
	})

	t.Run("cycle", func(t *testing.T) {
		b := NewPlanBuilder[*[]string]("cycle")
		require.NoError(t, b.Add(noop("a"), "b"))
		require.NoError(t, b.Add(noop("b"), "a"))
		_, err := b.Build()
		assert.ErrorIs(t, err, ErrDependencyCycle)
	})
}

func TestPlanExportDot(t *testing.T) {
	b := NewPlanBuilder[*[]string]("checkout")
	require.NoError(t, b.Add(noop("charge")))
	require.NoError(t, b.Add(noop("reserve"), "charge"))
	plan, err := b.Build()
	require.NoError(t, err)

	out, err := plan.ExportDot()
	require.NoError(t, err)
	assert.Contains(t, out, "charge")
	assert.Contains(t, out, "reserve")
	assert.Contains(t, out, "no compensate")
}
