package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/streamops/pipectl/internal/pipeline"
)

// newRunCommand creates the "run" subcommand that executes the full pipeline.
func newRunCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Provision, deploy and exercise the full pipeline, then tear it down",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			cfg, userVars, err := loadRunConfig(opts)
			if err != nil {
				return err
			}

			// An interrupt cancels the run context so every blocking wait
			// unwinds into the runner's teardown path.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("starting pipeline run", "pipelineId", cfg.RunID)
			runner := pipeline.NewRunner(cfg, userVars, logger)
			if err := runner.Run(ctx); err != nil {
				if ctx.Err() != nil {
					logger.Warn("pipeline interrupted; topics preserved for inspection", "pipelineId", cfg.RunID)
				}
				return err
			}

			logger.Info("pipeline run completed", "pipelineId", cfg.RunID)
			return nil
		},
	}
	return cmd
}
