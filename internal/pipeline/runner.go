// Package pipeline wires the provisioning, deployment, data and teardown
// steps of one pipeline run and guarantees cleanup on every exit path.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streamops/pipectl/internal/config"
	"github.com/streamops/pipectl/internal/engine"
	"github.com/streamops/pipectl/internal/env"
	"github.com/streamops/pipectl/internal/flink"
	"github.com/streamops/pipectl/internal/kafka"
	"github.com/streamops/pipectl/internal/logging"
	"github.com/streamops/pipectl/internal/naming"
	"github.com/streamops/pipectl/internal/sqlsource"
)

const (
	// initializeWait gives the streaming engine time to pick up freshly
	// deployed statements before events arrive.
	initializeWait = 10 * time.Second
	// processWait gives the engine time to process produced events before
	// the consumer starts counting.
	processWait = 20 * time.Second
	// consumeTimeout bounds the enriched-results read.
	consumeTimeout = 120 * time.Second
	// expectedEnriched is the number of product clicks in the canonical
	// workload, each of which should come back enriched.
	expectedEnriched = 5
	// cleanupTimeout bounds teardown, which runs on a fresh context since
	// the run context may already be canceled.
	cleanupTimeout = 2 * time.Minute
)

// Runner coordinates one pipeline run. All components are constructed from a
// single Config value; nothing consults ambient globals.
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	userVars env.Vars

	statements engine.StatementAPI
	deployer   *engine.Deployer
	cleaner    *engine.Cleaner
}

// NewRunner constructs a Runner and its remote statement client. userVars
// layer on top of the derived SQL template placeholders.
func NewRunner(cfg *config.Config, userVars env.Vars, logger *slog.Logger) *Runner {
	client := flink.NewClient(cfg.FlinkBaseURL(), cfg.FlinkAPIKey, cfg.FlinkAPISecret)

	deployCfg := engine.DeployerConfig{
		Placement: flink.Placement{
			ComputePoolID: cfg.ComputePoolID,
			Catalog:       cfg.CurrentCatalog,
			Database:      cfg.CurrentDatabase,
		},
		Namer: naming.Namer{RunID: cfg.RunID},
		Retry: engine.RetryPolicy{
			Interval: cfg.Pipeline.Deploy.PollIntervalOrDefault(),
			Deadline: cfg.Pipeline.Deploy.PollDeadlineOrDefault(),
		},
		Settle: engine.SettleDelays{
			Alter:   cfg.Pipeline.Deploy.SettleAlterOrDefault(),
			Create:  cfg.Pipeline.Deploy.SettleCreateOrDefault(),
			Default: cfg.Pipeline.Deploy.SettleDefaultOrDefault(),
		},
	}

	return &Runner{
		cfg:        cfg,
		logger:     logger,
		userVars:   userVars,
		statements: client,
		deployer:   engine.NewDeployer(client, deployCfg, logging.WithComponent(logger, "deployer")),
		cleaner:    engine.NewCleaner(client, logging.WithComponent(logger, "cleanup")),
	}
}

// Provision creates topics, registers schemas and deploys the SQL statements.
// It returns the registered schema IDs keyed by subject for the data paths.
func (r *Runner) Provision(ctx context.Context) (map[string]int, *engine.Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, nil, err
	}

	admin, err := kafka.NewAdmin(r.cfg, logging.WithComponent(r.logger, "topics"))
	if err != nil {
		return nil, nil, err
	}
	defer admin.Close()

	r.logger.Info("creating topics", "input", r.cfg.InputTopic(), "output", r.cfg.OutputTopic())
	if err := admin.CreateTopics(ctx); err != nil {
		return nil, nil, err
	}

	registry, err := kafka.NewRegistry(r.cfg, logging.WithComponent(r.logger, "schemas"))
	if err != nil {
		return nil, nil, err
	}
	ids, err := registry.RegisterSchemas(ctx)
	if err != nil {
		return nil, nil, err
	}

	result, err := r.DeployStatements(ctx)
	if err != nil {
		return nil, nil, err
	}
	return ids, result, nil
}

// DeployStatements resolves the SQL templates and runs the deployment
// sequence.
func (r *Runner) DeployStatements(ctx context.Context) (*engine.Result, error) {
	units, err := sqlsource.LoadUnits(r.cfg.Pipeline.ResolvedSQLDir(), r.cfg.Placeholders(r.userVars))
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("no deployable statements found in %q", r.cfg.Pipeline.ResolvedSQLDir())
	}
	r.logger.Info("deploying statements", "count", len(units), "run", r.cfg.RunID)
	return r.deployer.Deploy(ctx, units)
}

// Run executes the full pipeline: provision, produce, consume, report.
// Teardown always runs: a full teardown on success, a statements-only
// teardown on failure or interruption so topics and schemas stay around for
// inspection.
func (r *Runner) Run(ctx context.Context) (err error) {
	defer func() {
		preserve := err != nil || ctx.Err() != nil
		if cleanupErr := r.Cleanup(!preserve); cleanupErr != nil {
			r.logger.Warn("teardown incomplete", "error", cleanupErr)
		}
	}()

	ids, result, err := r.Provision(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("pipeline deployed", "statements", len(result.Deployed), "activeInserts", len(result.ActiveInserts))

	r.logger.Info("waiting for the streaming engine to initialize", "wait", initializeWait)
	if err = sleepStep(ctx, initializeWait); err != nil {
		return err
	}

	producer, err := kafka.NewProducer(r.cfg, ids[r.cfg.InputSubject()], logging.WithComponent(r.logger, "producer"))
	if err != nil {
		return err
	}
	defer producer.Close()
	if err = producer.GenerateEvents(ctx); err != nil {
		return err
	}

	r.logger.Info("waiting for events to be processed", "wait", processWait)
	if err = sleepStep(ctx, processWait); err != nil {
		return err
	}

	consumer, err := kafka.NewConsumer(r.cfg, ids[r.cfg.OutputSubject()], logging.WithComponent(r.logger, "consumer"))
	if err != nil {
		return err
	}
	defer consumer.Close()

	summary, err := consumer.Consume(ctx, consumeTimeout, expectedEnriched)
	if err != nil {
		return err
	}
	if summary.Enriched == 0 {
		return fmt.Errorf("no enriched events were processed")
	}
	r.logger.Info("pipeline completed", "messages", summary.Messages, "enriched", summary.Enriched)
	return nil
}

// Cleanup tears down the run's remote resources. Statements are always
// stopped; topics and schema subjects are removed only when full is true.
// It runs on a fresh context so it still works after an interrupt cancels
// the run context.
func (r *Runner) Cleanup(full bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	r.logger.Info("cleaning up pipeline resources", "run", r.cfg.RunID, "full", full)

	var firstErr error
	if err := r.cleaner.Cleanup(ctx, engine.OwnedBy(r.cfg.RunID)); err != nil {
		r.logger.Warn("statement cleanup failed", "error", err)
		firstErr = err
	}

	if !full {
		r.logger.Info("preserving topics and schemas for inspection")
		return firstErr
	}

	if admin, err := kafka.NewAdmin(r.cfg, logging.WithComponent(r.logger, "topics")); err != nil {
		r.logger.Warn("topic cleanup unavailable", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	} else {
		defer admin.Close()
		if err := admin.DeleteTopics(ctx); err != nil {
			r.logger.Warn("topic cleanup failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if registry, err := kafka.NewRegistry(r.cfg, logging.WithComponent(r.logger, "schemas")); err != nil {
		r.logger.Warn("schema cleanup unavailable", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	} else if err := registry.DeleteSubjects(ctx); err != nil {
		r.logger.Warn("schema cleanup failed", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// sleepStep waits for a duration unless the run is interrupted first.
func sleepStep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
