package saga

import (
	"errors"
	"fmt"
)

var (
	// ErrStepPanicked is wrapped by every *PanicError.
	ErrStepPanicked = errors.New("step panicked")

	ErrStepNotFound      = errors.New("step not found")
	ErrDuplicateStep     = errors.New("step already registered")
	ErrUnknownDependency = errors.New("unknown dependency")
	ErrDependencyCycle   = errors.New("dependency cycle")
)

// CompensationError records a compensating action that failed during rollback.
type CompensationError struct {
	Step string
	Err  error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("compensate %q: %v", e.Step, e.Err)
}

func (e *CompensationError) Unwrap() error {
	return e.Err
}

// PanicError is produced when a step's Execute or Compensate panics.
type PanicError struct {
	Step  string
	Value any
}

func newPanicError(step string, value any) error {
	return &PanicError{Step: step, Value: value}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("step %q panicked: %v", e.Step, e.Value)
}

// Unwrap allows errors.Is(err, ErrStepPanicked), and reaches the panic value
// when it was itself an error.
func (e *PanicError) Unwrap() []error {
	if inner, ok := e.Value.(error); ok {
		return []error{ErrStepPanicked, inner}
	}
	return []error{ErrStepPanicked}
}

// RegistryError is returned by Registry and PlanBuilder.
type RegistryError struct {
	Name string
	Err  error
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("step %q: %v", e.Name, e.Err)
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}
