// Package saga runs an ordered list of steps as a saga.
//
// Each step pairs an Execute function with an optional Compensate function.
// Steps execute in order against a shared, caller-owned context value. When a
// step fails, no further steps execute and every step that already completed
// is compensated in reverse (LIFO) order. A failed compensation is recorded
// and the unwind carries on with the remaining steps.
//
// Overview
//
//  1. Define steps with NewStep or NewStepNoCompensate.
//  2. Optionally order them by dependency with a PlanBuilder, or look them up
//     by name from a Registry.
//  3. Run them with Run or a reusable SagaExecutor.
//  4. Inspect the Result: success flag, completed step count, the mutated
//     context, the failing step and its error, compensation errors, per-step
//     outputs and the SagaLog journal of the run.
//
// Example:
//
//	steps := []saga.Step[*Order]{
//		saga.NewStep("charge", chargeCard, refundCard),
//		saga.NewStep("reserve", reserveStock, releaseStock),
//		saga.NewStepNoCompensate("notify", sendEmail),
//	}
//	res := saga.Run(ctx, order, steps, saga.WithLogger(logger))
//	if !res.Success {
//		return res.Err
//	}
//
// The engine is synchronous and keeps no state between runs, so a single
// SagaExecutor may run many sagas concurrently as long as each run has its
// own context value.
package saga
