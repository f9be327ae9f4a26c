package saga

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/btree"
)

// Result is the outcome of one saga run.
type Result[C any] struct {
	RunID uuid.UUID
	Name  string

	// Success is true iff every step executed without error.
	Success bool

	// CompletedSteps counts the successful Execute calls made before the run
	// finished or failed. Rollback does not change it.
	CompletedSteps int

	// Context is the caller's context, as mutated by the steps.
	Context C

	// Err is the error returned by the failing step's Execute.
	Err error

	FailedStep string

	// CompensatedSteps lists the steps whose Compensate succeeded, in rollback order.
	CompensatedSteps []string

	CompensationErrors []*CompensationError

	State    State
	Duration time.Duration
	Log      *SagaLog

	outputs *btree.Map[string, any]
}

// CompensationErr joins all compensation failures, or returns nil if rollback
// was clean (or never happened).
func (r *Result[C]) CompensationErr() error {
	if len(r.CompensationErrors) == 0 {
		return nil
	}
	errs := make([]error, len(r.CompensationErrors))
	for i, err := range r.CompensationErrors {
		errs[i] = err
	}
	return errors.Join(errs...)
}

// Output returns the value produced by the named step's Execute. When several
// steps share a name the last one to complete wins.
func (r *Result[C]) Output(name string) (any, bool) {
	if r.outputs == nil {
		return nil, false
	}
	return r.outputs.Get(name)
}

// Outputs returns the names of all steps that produced an output, sorted.
func (r *Result[C]) Outputs() []string {
	if r.outputs == nil {
		return nil
	}
	return r.outputs.Keys()
}

// LookupTyped retrieves the output of a completed step with type assertion.
// Returns the typed output and true if found and the type matches.
func LookupTyped[R any, C any](r *Result[C], name string) (R, bool) {
	var zero R
	value, found := r.Output(name)
	if !found {
		return zero, false
	}
	typed, ok := value.(R)
	if !ok {
		return zero, false
	}
	return typed, true
}
