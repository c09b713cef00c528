package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/streamops/pipectl/internal/pipeline"
)

// newCleanupCommand creates the "cleanup" subcommand that tears down every
// resource belonging to a run identity.
func newCleanupCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Stop statements and delete topics and schema subjects for a run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			cfg, _, err := loadRunConfig(opts)
			if err != nil {
				return err
			}
			if cfg.RunIDGenerated {
				return fmt.Errorf("cleanup needs the run's identity: set --pipeline-id or PIPELINE_ID")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			runner := pipeline.NewRunner(cfg, nil, logger)
			if err := runner.Cleanup(true); err != nil {
				return err
			}
			logger.Info("pipeline cleanup completed", "pipelineId", cfg.RunID)
			return nil
		},
	}
	return cmd
}
