package saga

import (
	"go.uber.org/zap"
)

// Hooks observe a run at fixed points. Every hook is optional and is called
// synchronously; the run continues once the hook returns.
type Hooks struct {
	// OnStepComplete is called after each successful Execute with the step's result.
	OnStepComplete func(name string, result any)

	// OnStepFailed is called once, for the step that broke the chain.
	OnStepFailed func(name string, err error)

	// OnCompensate is called after each successful Compensate, in rollback order.
	OnCompensate func(name string)

	// OnCompensateFailed is called when a Compensate returns an error or panics.
	// Rollback continues with the next step afterwards.
	OnCompensateFailed func(name string, err error)
}

type options struct {
	name   string
	logger *zap.Logger
	hooks  Hooks
}

func defaultOptions() options {
	return options{
		name:   "saga",
		logger: zap.NewNop(),
	}
}

// Option configures a SagaExecutor or a single Run.
type Option func(*options)

// WithLogger sets the logger used to record step progress. A nil logger
// disables logging.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = zap.NewNop()
		}
		o.logger = logger
	}
}

// WithHooks installs observation hooks.
func WithHooks(hooks Hooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithName labels the saga in logs and results.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
