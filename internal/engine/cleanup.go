package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/streamops/pipectl/internal/flink"
	"github.com/streamops/pipectl/internal/naming"
)

// OwnershipFilter decides whether a listed statement belongs to the current
// run. The listing is environment-wide, so a coordinator can see another
// run's live statements; the filter is a mandatory argument precisely so
// those are never touched.
type OwnershipFilter func(flink.StatementInfo) bool

// OwnedBy returns a filter matching statements whose name carries the given
// run identity. Generated names embed the sanitized run identity between
// hyphens (<base>-<runid>-<ts>), so only the delimited token matches; run
// "test" must never claim run "test2"'s statements.
func OwnedBy(runID string) OwnershipFilter {
	token := naming.Sanitize(runID)
	return func(info flink.StatementInfo) bool {
		return token != "" && strings.Contains(info.Handle, "-"+token+"-")
	}
}

// Cleaner stops every still-active remote statement belonging to a run. It
// is invoked from every exit path, so it never escalates per-statement
// failures: each one is logged and the remaining statements still get their
// stop request.
type Cleaner struct {
	api    StatementAPI
	logger *slog.Logger
}

// NewCleaner constructs a Cleaner around the given statement API.
func NewCleaner(api StatementAPI, logger *slog.Logger) *Cleaner {
	return &Cleaner{api: api, logger: logger}
}

// Cleanup lists the remote statement collection and issues a stop request
// for every active statement the filter claims. Listing is remote, not from
// local memory: a cleanup invocation may not share a process with the deploy
// that created the statements.
func (c *Cleaner) Cleanup(ctx context.Context, owned OwnershipFilter) error {
	if owned == nil {
		return fmt.Errorf("cleanup requires an ownership filter")
	}

	statements, err := c.api.List(ctx)
	if err != nil {
		return fmt.Errorf("enumerate statements: %w", err)
	}

	stopped := 0
	for _, info := range statements {
		if !info.Active() || !owned(info) {
			continue
		}
		c.logger.Info("stopping statement", "handle", info.Handle, "status", info.Status)
		if err := c.api.Stop(ctx, info.Handle); err != nil {
			c.logger.Warn("failed to stop statement, continuing", "handle", info.Handle, "error", err)
			continue
		}
		stopped++
	}

	c.logger.Info("statement cleanup finished", "stopped", stopped, "listed", len(statements))
	return nil
}
