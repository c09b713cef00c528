// Package engine contains the high-level orchestration for statement
// deployment: the sequential submit/settle/poll loop and the best-effort
// cleanup coordinator.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streamops/pipectl/internal/flink"
	"github.com/streamops/pipectl/internal/naming"
	"github.com/streamops/pipectl/internal/sqlsource"
)

// StatementAPI is the slice of the remote engine client the orchestrator
// needs. *flink.Client satisfies it; tests supply fakes.
type StatementAPI interface {
	Submit(ctx context.Context, name, sql string, placement flink.Placement) (flink.SubmitOutcome, error)
	Status(ctx context.Context, handle string) (flink.StatementStatus, error)
	List(ctx context.Context) ([]flink.StatementInfo, error)
	Stop(ctx context.Context, handle string) error
}

// SettleDelays are the fixed post-submission waits before the first status
// check, keyed by statement kind. Remote provisioning is asynchronous and the
// first query is unreliable immediately after submission.
type SettleDelays struct {
	Alter   time.Duration
	Create  time.Duration
	Default time.Duration
}

// ForKind returns the settle delay for a statement kind.
func (s SettleDelays) ForKind(kind sqlsource.Kind) time.Duration {
	switch kind {
	case sqlsource.KindAlter:
		return s.Alter
	case sqlsource.KindCreate:
		return s.Create
	default:
		return s.Default
	}
}

// DeployerConfig collects the run-scoped inputs of a Deployer.
type DeployerConfig struct {
	// Placement is the compute target and catalog/database for submissions.
	Placement flink.Placement
	// Namer derives remote statement names.
	Namer naming.Namer
	// Retry bounds status polling per statement.
	Retry RetryPolicy
	// Settle holds the per-kind post-submission delays.
	Settle SettleDelays
}

// Deployer runs an ordered list of statement units to completion or first
// failure. Deployment is strictly sequential: later statements depend on
// earlier ones reaching a running state.
type Deployer struct {
	api    StatementAPI
	cfg    DeployerConfig
	logger *slog.Logger
	sleep  sleepFunc
}

// NewDeployer constructs a Deployer around the given statement API.
func NewDeployer(api StatementAPI, cfg DeployerConfig, logger *slog.Logger) *Deployer {
	return &Deployer{
		api:    api,
		cfg:    cfg,
		logger: logger,
		sleep:  sleepCtx,
	}
}

// DeployedStatement records one successfully deployed unit.
type DeployedStatement struct {
	// Unit is the source statement unit.
	Unit sqlsource.Unit
	// RemoteName is the generated remote statement name.
	RemoteName string
	// Handle is the server-assigned identifier; empty when the statement
	// already existed.
	Handle string
}

// Result summarizes a completed deployment.
type Result struct {
	// Deployed lists every unit in deployment order.
	Deployed []DeployedStatement
	// ActiveInserts lists handles of INSERT statements left running as
	// streaming jobs. They are reported, not stopped; teardown is the
	// cleanup coordinator's job.
	ActiveInserts []string
}

// Deploy submits each unit in order, applies the settle delay for freshly
// created statements, and polls each to a terminal phase. The first
// unrecoverable failure aborts the remaining sequence and the error names
// the failing unit.
func (d *Deployer) Deploy(ctx context.Context, units []sqlsource.Unit) (*Result, error) {
	result := &Result{}

	for _, unit := range units {
		remoteName := d.cfg.Namer.StatementName(unit.Name)
		d.logger.Info("submitting statement", "unit", unit.Name, "name", remoteName, "kind", unit.Kind.String())

		outcome, err := d.api.Submit(ctx, remoteName, unit.SQL, d.cfg.Placement)
		if err != nil {
			return nil, fmt.Errorf("deploy %q: %w", unit.Name, err)
		}

		if !outcome.Created {
			d.logger.Warn("statement already exists", "unit", unit.Name, "name", remoteName)
			result.Deployed = append(result.Deployed, DeployedStatement{Unit: unit, RemoteName: remoteName})
			continue
		}

		settle := d.cfg.Settle.ForKind(unit.Kind)
		if settle > 0 {
			d.logger.Debug("settling before first status check", "unit", unit.Name, "delay", settle)
			if err := d.sleep(ctx, settle); err != nil {
				return nil, fmt.Errorf("deploy %q: %w", unit.Name, err)
			}
		}

		if err := awaitTerminal(ctx, d.api, outcome.Handle, d.cfg.Retry, d.sleep); err != nil {
			return nil, fmt.Errorf("deploy %q: %w", unit.Name, err)
		}

		result.Deployed = append(result.Deployed, DeployedStatement{Unit: unit, RemoteName: remoteName, Handle: outcome.Handle})
		if unit.Kind == sqlsource.KindInsert {
			result.ActiveInserts = append(result.ActiveInserts, outcome.Handle)
		}
		d.logger.Info("statement deployed", "unit", unit.Name, "handle", outcome.Handle)
	}

	if len(result.ActiveInserts) > 0 {
		d.logger.Info("streaming inserts left running", "handles", result.ActiveInserts)
	}
	return result, nil
}
