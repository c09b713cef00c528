package engine

import (
	"context"
	"time"
)

// RetryPolicy bounds status polling: a fixed interval between checks and an
// overall deadline per statement. The deadline exists so a statement stuck
// in PROVISIONING surfaces a PollTimeoutError instead of hanging the run.
type RetryPolicy struct {
	// Interval is the wait between status checks.
	Interval time.Duration
	// Deadline is the total wait budget for one statement.
	Deadline time.Duration
}

// sleepFunc waits for a duration or until the context is done. Tests inject
// one that records calls instead of sleeping.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// awaitTerminal polls one statement until it reaches a terminal phase.
// RUNNING, COMPLETED and unrecognized phases map to success; FAILED maps to
// a StatementFailedError with the engine's detail text. PENDING and
// PROVISIONING wait one interval and re-query until the deadline elapses.
func awaitTerminal(ctx context.Context, api StatementAPI, handle string, policy RetryPolicy, sleep sleepFunc) error {
	if sleep == nil {
		sleep = sleepCtx
	}

	var waited time.Duration
	for {
		status, err := api.Status(ctx, handle)
		if err != nil {
			return err
		}
		if status.Phase.Terminal() {
			if status.Phase.Succeeded() {
				return nil
			}
			return &StatementFailedError{Handle: handle, Detail: status.Detail}
		}
		if policy.Deadline > 0 && waited+policy.Interval > policy.Deadline {
			return &PollTimeoutError{Handle: handle, Deadline: policy.Deadline}
		}
		if err := sleep(ctx, policy.Interval); err != nil {
			return err
		}
		waited += policy.Interval
	}
}
