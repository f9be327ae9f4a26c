// Package scenario describes simulated sagas in YAML so that rollback
// behaviour can be replayed without writing Go code.
//
// Every step works on a shared Counter: it adds to and then multiplies the
// value, and its compensation undoes both in reverse.
//
//	name: checkout
//	initial: 0
//	steps:
//	  - name: charge
//	    add: 1
//	    compensate: true
//	  - name: reserve
//	    multiply: 2
//	    depends_on: [charge]
//	    fail: true
package scenario

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fortressi/saga"
	"gopkg.in/yaml.v3"
)

// Counter is the saga context shared by every scenario step.
type Counter struct {
	Value int      `json:"value" yaml:"value"`
	Trace []string `json:"trace" yaml:"trace"`
}

// Scenario is a saga described in YAML.
type Scenario struct {
	Name    string `yaml:"name"`
	Initial int    `yaml:"initial"`
	Steps   []Step `yaml:"steps"`
}

// Step is one simulated step.
type Step struct {
	Name           string   `yaml:"name"`
	DependsOn      []string `yaml:"depends_on"`
	Add            int      `yaml:"add"`
	Multiply       int      `yaml:"multiply"`
	Fail           bool     `yaml:"fail"`
	Compensate     bool     `yaml:"compensate"`
	CompensateFail bool     `yaml:"compensate_fail"`
}

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid scenario")

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, expected a file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse scenario file %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a scenario. Unknown keys are rejected.
func Parse(data []byte) (*Scenario, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalid)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the scenario for mistakes the plan builder would not catch.
func (s *Scenario) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	for i, step := range s.Steps {
		if strings.TrimSpace(step.Name) == "" {
			return fmt.Errorf("%w: step %d has no name", ErrInvalid, i)
		}
		if step.CompensateFail && !step.Compensate {
			return fmt.Errorf("%w: step %q sets compensate_fail without compensate", ErrInvalid, step.Name)
		}
	}
	return nil
}

// NewCounter returns the initial context for a run of s.
func (s *Scenario) NewCounter() *Counter {
	return &Counter{Value: s.Initial, Trace: []string{}}
}

// Build turns the scenario into an executable plan.
func (s *Scenario) Build() (*saga.Plan[*Counter], error) {
	b := saga.NewPlanBuilder[*Counter](s.Name)
	for _, step := range s.Steps {
		if err := b.Add(step.toSagaStep(), step.DependsOn...); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// Run builds the scenario and runs it against a fresh Counter.
func (s *Scenario) Run(ctx context.Context, opts ...saga.Option) (*saga.Result[*Counter], error) {
	plan, err := s.Build()
	if err != nil {
		return nil, err
	}
	opts = append([]saga.Option{saga.WithName(s.Name)}, opts...)
	return saga.Run(ctx, s.NewCounter(), plan.Steps(), opts...), nil
}

func (st Step) toSagaStep() saga.Step[*Counter] {
	execute := func(ctx context.Context, c *Counter) (any, error) {
		c.Trace = append(c.Trace, "execute:"+st.Name)
		if st.Fail {
			return nil, fmt.Errorf("step %s failed", st.Name)
		}
		c.Value += st.Add
		if st.Multiply != 0 {
			c.Value *= st.Multiply
		}
		return c.Value, nil
	}

	if !st.Compensate {
		return saga.NewStepNoCompensate(st.Name, execute)
	}

	compensate := func(ctx context.Context, c *Counter) error {
		c.Trace = append(c.Trace, "compensate:"+st.Name)
		if st.CompensateFail {
			return fmt.Errorf("compensation of %s failed", st.Name)
		}
		if st.Multiply != 0 {
			c.Value /= st.Multiply
		}
		c.Value -= st.Add
		return nil
	}
	return saga.NewStep(st.Name, execute, compensate)
}
