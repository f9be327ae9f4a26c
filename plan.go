package saga

import (
	"errors"
	"fmt"

	"github.com/fortressi/saga/dag"
	"github.com/fortressi/saga/set"
	"gonum.org/v1/gonum/graph/topo"
)

// PlanBuilder builds a linear step list from steps that declare which other
// steps must run before them.
//
// Steps are still executed one at a time. The builder only decides the
// order: a step runs after all of its dependencies, and steps with no
// ordering constraint between them keep the order in which they were added.
type PlanBuilder[C any] struct {
	name  string
	steps []Step[C]
	deps  [][]string
	names *set.Set[string]
	err   error
}

// NewPlanBuilder creates a new PlanBuilder.
func NewPlanBuilder[C any](name string) *PlanBuilder[C] {
	return &PlanBuilder[C]{
		name:  name,
		names: &set.Set[string]{},
	}
}

// Add appends a step that must run after each of dependsOn. The first error
// is kept and returned again by Build.
func (b *PlanBuilder[C]) Add(step Step[C], dependsOn ...string) error {
	if b.err != nil {
		return b.err
	}
	if !b.names.Insert(step.Name) {
		b.err = &RegistryError{Name: step.Name, Err: ErrDuplicateStep}
		return b.err
	}
	b.steps = append(b.steps, step)
	b.deps = append(b.deps, dependsOn)
	return nil
}

// Build resolves the dependencies into an execution order.
func (b *PlanBuilder[C]) Build() (*Plan[C], error) {
	if b.err != nil {
		return nil, b.err
	}

	g := dag.New()
	index := make(map[string]int, len(b.steps))
	for i, step := range b.steps {
		label := step.Name
		if !step.HasCompensate() {
			label += " (no compensate)"
		}
		if _, err := g.AddNamed(step.Name, label); err != nil {
			return nil, err
		}
		index[step.Name] = i
	}

	for i, step := range b.steps {
		for _, dep := range b.deps[i] {
			if !b.names.Contains(dep) {
				return nil, &RegistryError{
					Name: step.Name,
					Err:  fmt.Errorf("%w %q", ErrUnknownDependency, dep),
				}
			}
			if err := g.Connect(dep, step.Name); err != nil {
				return nil, &RegistryError{
					Name: step.Name,
					Err:  fmt.Errorf("%w: %v", ErrDependencyCycle, err),
				}
			}
		}
	}

	order, err := g.Order()
	if err != nil {
		var unorderable topo.Unorderable
		if errors.As(err, &unorderable) {
			return nil, fmt.Errorf("plan %q: %w: %v", b.name, ErrDependencyCycle, err)
		}
		return nil, fmt.Errorf("plan %q: %w", b.name, err)
	}

	steps := make([]Step[C], len(order))
	for i, node := range order {
		steps[i] = b.steps[index[node.Name]]
	}

	return &Plan[C]{name: b.name, steps: steps, graph: g}, nil
}

// Plan is an ordered step list produced by a PlanBuilder.
type Plan[C any] struct {
	name  string
	steps []Step[C]
	graph *dag.Graph
}

// Name returns the plan's name.
func (p *Plan[C]) Name() string {
	return p.name
}

// Steps returns the steps in execution order.
func (p *Plan[C]) Steps() []Step[C] {
	return append([]Step[C](nil), p.steps...)
}

// StepNames returns the step names in execution order.
func (p *Plan[C]) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name
	}
	return names
}

// ExportDot renders the dependency graph in Graphviz format.
func (p *Plan[C]) ExportDot() (string, error) {
	return p.graph.ExportToDot(p.name)
}
