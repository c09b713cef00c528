package engine

import (
	"fmt"
	"time"
)

// StatementFailedError reports a statement that reached the FAILED phase,
// carrying the engine's detail text.
type StatementFailedError struct {
	Handle string
	Detail string
}

func (e *StatementFailedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("statement %q failed", e.Handle)
	}
	return fmt.Sprintf("statement %q failed: %s", e.Handle, e.Detail)
}

// PollTimeoutError reports a statement that never left a non-terminal phase
// within the polling deadline.
type PollTimeoutError struct {
	Handle   string
	Deadline time.Duration
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("statement %q did not reach a terminal phase within %s", e.Handle, e.Deadline)
}
