package saga

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/qmuntal/stateless"
	"github.com/tidwall/btree"
	"go.uber.org/zap"
)

// SagaExecutor runs sagas with a fixed set of options. It keeps no state
// between runs and is safe for concurrent use, provided concurrent runs do
// not share a context.
type SagaExecutor[C any] struct {
	opts options
}

// NewSagaExecutor creates a new saga executor.
func NewSagaExecutor[C any](opts ...Option) *SagaExecutor[C] {
	return &SagaExecutor[C]{opts: applyOptions(opts)}
}

// Run executes steps in order against sagaCtx. If a step fails, the steps
// that completed before it are compensated in reverse order.
//
// Run never returns an error: the outcome, including the triggering error, is
// reported in the Result.
func (e *SagaExecutor[C]) Run(ctx context.Context, sagaCtx C, steps []Step[C]) *Result[C] {
	return newRunner(ctx, e.opts, sagaCtx, steps).run()
}

// Run is shorthand for NewSagaExecutor[C](opts...).Run(ctx, sagaCtx, steps).
func Run[C any](ctx context.Context, sagaCtx C, steps []Step[C], opts ...Option) *Result[C] {
	return newRunner(ctx, applyOptions(opts), sagaCtx, steps).run()
}

// runner holds the state of exactly one run.
type runner[C any] struct {
	ctx     context.Context
	hooks   Hooks
	log     *zap.Logger
	sagaCtx C
	steps   []Step[C]

	fsm       *stateless.StateMachine
	sagaLog   *SagaLog
	completed []int
	outputs   *btree.Map[string, any]
	result    *Result[C]
}

func newRunner[C any](ctx context.Context, opts options, sagaCtx C, steps []Step[C]) *runner[C] {
	runID := uuid.New()
	return &runner[C]{
		ctx:   ctx,
		hooks: opts.hooks,
		log: opts.logger.With(
			zap.String("saga", opts.name),
			zap.String("run_id", runID.String()),
		),
		sagaCtx:   sagaCtx,
		steps:     steps,
		fsm:       newRunStateMachine(),
		sagaLog:   NewSagaLog(runID),
		completed: make([]int, 0, len(steps)),
		outputs:   btree.NewMap[string, any](10),
		result: &Result[C]{
			RunID: runID,
			Name:  opts.name,
		},
	}
}

func (r *runner[C]) run() *Result[C] {
	startedAt := time.Now()

	r.fire(triggerStart)
	r.log.Info("saga started", zap.Int("steps", len(r.steps)))

	if r.forward() {
		r.fire(triggerAllStepsDone)
	} else {
		r.fire(triggerStepFailed)
		r.compensate()
		r.fire(triggerUnwound)
	}

	res := r.result
	res.State = r.state()
	res.Success = res.State == StateSucceeded
	res.Context = r.sagaCtx
	res.Log = r.sagaLog
	res.outputs = r.outputs
	res.Duration = time.Since(startedAt)

	fields := []zap.Field{
		zap.Bool("success", res.Success),
		zap.Int("completed_steps", res.CompletedSteps),
		zap.Duration("duration", res.Duration),
	}
	if !res.Success {
		fields = append(fields,
			zap.String("failed_step", res.FailedStep),
			zap.Int("compensation_errors", len(res.CompensationErrors)),
		)
	}
	r.log.Info("saga finished", fields...)

	return res
}

// forward runs steps in declaration order and reports whether all succeeded.
func (r *runner[C]) forward() bool {
	for i, step := range r.steps {
		r.record(i, step.Name, EventStarted)

		output, err := step.doIt(r.ctx, r.sagaCtx)
		if err != nil {
			r.record(i, step.Name, EventFailed)
			r.log.Error("step failed",
				zap.String("step", step.Name),
				zap.Int("index", i),
				zap.Error(err),
			)
			if r.hooks.OnStepFailed != nil {
				r.hooks.OnStepFailed(step.Name, err)
			}
			r.result.Err = err
			r.result.FailedStep = step.Name
			return false
		}

		r.completed = append(r.completed, i)
		r.result.CompletedSteps++
		r.outputs.Set(step.Name, output)
		r.record(i, step.Name, EventSucceeded)
		r.log.Debug("step completed", zap.String("step", step.Name), zap.Int("index", i))

		if r.hooks.OnStepComplete != nil {
			r.hooks.OnStepComplete(step.Name, output)
		}
	}
	return true
}

// compensate undoes completed steps in reverse completion order. A failing
// compensation is recorded and the remaining steps are still compensated.
func (r *runner[C]) compensate() {
	r.log.Info("compensating completed steps", zap.Int("count", len(r.completed)))

	for i := len(r.completed) - 1; i >= 0; i-- {
		index := r.completed[i]
		step := r.steps[index]

		if !step.HasCompensate() {
			r.record(index, step.Name, EventUndoSkipped)
			r.log.Debug("no compensation defined", zap.String("step", step.Name), zap.Int("index", index))
			continue
		}

		r.record(index, step.Name, EventUndoStarted)
		if err := step.undoIt(r.ctx, r.sagaCtx); err != nil {
			r.record(index, step.Name, EventUndoFailed)
			r.result.CompensationErrors = append(r.result.CompensationErrors,
				&CompensationError{Step: step.Name, Err: err})
			r.log.Warn("compensation failed",
				zap.String("step", step.Name),
				zap.Int("index", index),
				zap.Error(err),
			)
			if r.hooks.OnCompensateFailed != nil {
				r.hooks.OnCompensateFailed(step.Name, err)
			}
			continue
		}

		r.record(index, step.Name, EventUndoFinished)
		r.result.CompensatedSteps = append(r.result.CompensatedSteps, step.Name)
		r.log.Info("compensated step", zap.String("step", step.Name), zap.Int("index", index))
		if r.hooks.OnCompensate != nil {
			r.hooks.OnCompensate(step.Name)
		}
	}
}

func (r *runner[C]) record(index int, name string, eventType StepEventType) {
	err := r.sagaLog.Record(&StepEvent{
		RunID:     r.sagaLog.RunID(),
		Index:     index,
		Step:      name,
		EventType: eventType,
	})
	if err != nil {
		r.log.Error("failed to record saga log event", zap.Error(err))
	}
}

func (r *runner[C]) fire(t trigger) {
	if err := r.fsm.Fire(t); err != nil {
		r.log.Error("illegal saga state transition",
			zap.Stringer("trigger", t),
			zap.Stringer("state", r.state()),
			zap.Error(err),
		)
	}
}

func (r *runner[C]) state() State {
	return r.fsm.MustState().(State)
}
