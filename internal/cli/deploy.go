package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/streamops/pipectl/internal/pipeline"
)

// newDeployCommand creates the "deploy" subcommand that provisions topics,
// schemas and statements and leaves them running.
func newDeployCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Provision topics, schemas and SQL statements without the data phases",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			cfg, userVars, err := loadRunConfig(opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runner := pipeline.NewRunner(cfg, userVars, logger)
			_, result, err := runner.Provision(ctx)
			if err != nil {
				// A partial provision leaves statements running; stop this
				// run's statements but keep topics and schemas around.
				if cleanupErr := runner.Cleanup(false); cleanupErr != nil {
					logger.Warn("teardown incomplete", "error", cleanupErr)
				}
				return err
			}

			logger.Info("pipeline deployed; resources left running",
				"pipelineId", cfg.RunID,
				"statements", len(result.Deployed),
				"activeInserts", len(result.ActiveInserts))
			logger.Info("tear down later with: pipectl cleanup --pipeline-id " + cfg.RunID)
			return nil
		},
	}
	return cmd
}
