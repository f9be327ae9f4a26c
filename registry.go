package saga

import (
	"sort"

	"github.com/puzpuzpuz/xsync/v3"
)

// Registry is a set of named steps that can be shared across sagas.
//
// Sagas are often assembled at runtime from user input. Registering every
// step once under a unique name lets callers build a step list from a list
// of names, as a scenario file does.
type Registry[C any] struct {
	steps *xsync.MapOf[string, Step[C]]
}

// NewRegistry creates a new Registry.
func NewRegistry[C any]() *Registry[C] {
	return &Registry[C]{
		steps: xsync.NewMapOf[string, Step[C]](),
	}
}

// Register adds a step to the registry.
func (r *Registry[C]) Register(step Step[C]) error {
	if _, loaded := r.steps.LoadOrStore(step.Name, step); loaded {
		return &RegistryError{Name: step.Name, Err: ErrDuplicateStep}
	}
	return nil
}

// Get retrieves a step from the registry by its name.
func (r *Registry[C]) Get(name string) (Step[C], error) {
	step, ok := r.steps.Load(name)
	if !ok {
		return Step[C]{}, &RegistryError{Name: name, Err: ErrStepNotFound}
	}
	return step, nil
}

// Steps resolves names into a step list, preserving order.
func (r *Registry[C]) Steps(names ...string) ([]Step[C], error) {
	steps := make([]Step[C], 0, len(names))
	for _, name := range names {
		step, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// Names returns the registered step names, sorted.
func (r *Registry[C]) Names() []string {
	names := make([]string, 0, r.steps.Size())
	r.steps.Range(func(name string, _ Step[C]) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}
