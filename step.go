package saga

import (
	"context"
	"fmt"
)

// ExecuteFunc performs the forward action of a step against the shared saga context.
type ExecuteFunc[C any] func(ctx context.Context, sagaCtx C) (any, error)

// CompensateFunc undoes the effect of a step whose ExecuteFunc succeeded.
type CompensateFunc[C any] func(ctx context.Context, sagaCtx C) error

// Step is one unit of work in a saga.
//
// Compensate may be nil, in which case the step is skipped during rollback.
type Step[C any] struct {
	Name       string
	Execute    ExecuteFunc[C]
	Compensate CompensateFunc[C]
}

// NewStep constructs a Step from a pair of functions.
func NewStep[C any](name string, execute ExecuteFunc[C], compensate CompensateFunc[C]) Step[C] {
	return Step[C]{
		Name:       name,
		Execute:    execute,
		Compensate: compensate,
	}
}

// NewStepNoCompensate constructs a Step that has nothing to undo.
func NewStepNoCompensate[C any](name string, execute ExecuteFunc[C]) Step[C] {
	return NewStep(name, execute, nil)
}

// HasCompensate reports whether the step defines a compensating action.
func (s Step[C]) HasCompensate() bool {
	return s.Compensate != nil
}

// String implements the fmt.Stringer interface for Step.
func (s Step[C]) String() string {
	return fmt.Sprintf("Step[%s compensate=%t]", s.Name, s.HasCompensate())
}

// doIt runs Execute, turning a panic into a *PanicError.
func (s Step[C]) doIt(ctx context.Context, sagaCtx C) (result any, err error) {
	if s.Execute == nil {
		return nil, fmt.Errorf("step %q has no execute function", s.Name)
	}
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = newPanicError(s.Name, r)
		}
	}()
	return s.Execute(ctx, sagaCtx)
}

// undoIt runs Compensate, turning a panic into a *PanicError.
// Callers must check HasCompensate first.
func (s Step[C]) undoIt(ctx context.Context, sagaCtx C) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(s.Name, r)
		}
	}()
	return s.Compensate(ctx, sagaCtx)
}
