package sitewait

import (
	"context"
	"fmt"
)

// Condition checks external state.
//
// A condition returns (value, true, nil) when ready, (zero, false, nil) when
// not ready yet, and a non-nil error when the check itself failed. Errors
// should carry a [FailureKind] (see [Fail]) so [Poll] can decide whether to
// keep waiting. Conditions are called repeatedly and must not have side
// effects beyond the check.
type Condition[T any] func(ctx context.Context) (T, bool, error)

// Poll evaluates cond until it is ready, a non-ignored failure occurs, the
// timeout elapses or ctx is cancelled.
//
// Poll blocks the calling goroutine and keeps no state between calls, so any
// number of polls may run concurrently. The timeout is measured from entry and
// is never reset by ignored failures. The sleep before the next attempt is
// clipped to the remaining budget; once the budget is spent Poll returns
// [StateTimedOut] without trying again, so a timeout of zero performs exactly
// one attempt.
//
// Cancellation does not interrupt a running condition. When ctx is done Poll
// returns [StateAborted] with [FailureCancelled] before the next attempt starts.
// A condition that completes ready after cancellation still counts as success.
func Poll[T any](ctx context.Context, cond Condition[T], cfg PollConfig) Outcome[T] {
	clock := cfg.clock()
	start := clock.Now()

	out := Outcome[T]{}
	finish := func(state OutcomeState, kind FailureKind, cause error) Outcome[T] {
		out.State = state
		out.Kind = kind
		out.Cause = cause
		out.Elapsed = clock.Now().Sub(start)
		return out
	}

	if err := cfg.Validate(); err != nil {
		return finish(StateAborted, FailureUnknown, fmt.Errorf("invalid poll config: %w", err))
	}

	var lastIgnored error
	for {
		if err := ctx.Err(); err != nil {
			return finish(StateAborted, FailureCancelled, err)
		}

		out.Attempts++
		value, ready, err := safeEval(ctx, cond)
		if err == nil && ready {
			out.Value = value
			return finish(StateSuccess, "", nil)
		}

		if err != nil {
			kind := KindOf(err)
			if ctx.Err() != nil {
				kind = FailureCancelled
			}
			if !cfg.Ignores(kind) {
				return finish(StateAborted, kind, err)
			}
			lastIgnored = err
		}

		elapsed := clock.Now().Sub(start)
		if elapsed >= cfg.Timeout {
			return finish(StateTimedOut, "", lastIgnored)
		}
		if cfg.MaxAttempts > 0 && out.Attempts >= cfg.MaxAttempts {
			return finish(StateTimedOut, "", lastIgnored)
		}

		wait := min(cfg.PollInterval, cfg.Timeout-elapsed)
		if cfg.Logger != nil {
			cfg.Logger.Debug("condition not ready",
				"attempt", out.Attempts,
				"elapsed_ms", elapsed.Milliseconds(),
				"next_attempt_in_ms", wait.Milliseconds(),
				"failure_kind", KindOf(err).String(),
			)
		}

		select {
		case <-ctx.Done():
			return finish(StateAborted, FailureCancelled, ctx.Err())
		case <-clock.After(wait):
		}

		if clock.Now().Sub(start) >= cfg.Timeout {
			return finish(StateTimedOut, "", lastIgnored)
		}
	}
}

// safeEval runs cond with panic recovery. A panicking condition is reported as
// a [FailureUnknown] failure.
func safeEval[T any](ctx context.Context, cond Condition[T]) (value T, ready bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value, ready = zero, false
			err = Failf(FailureUnknown, "condition panicked: %v", r)
		}
	}()
	return cond(ctx)
}

// Until polls a predicate that has no value to return.
//
// It is shorthand for Poll followed by [Outcome.Err].
func Until(ctx context.Context, pred func(context.Context) (bool, error), cfg PollConfig) error {
	var cond Condition[struct{}] = func(ctx context.Context) (struct{}, bool, error) {
		ok, err := pred(ctx)
		return struct{}{}, ok, err
	}
	return Poll(ctx, cond, cfg).Err()
}
