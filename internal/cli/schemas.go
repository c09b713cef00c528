package cli

import (
	"github.com/spf13/cobra"

	"github.com/streamops/pipectl/internal/kafka"
	"github.com/streamops/pipectl/internal/logging"
)

// newRegisterSchemasCommand creates the "register-schemas" subcommand that
// registers the Avro value subjects without provisioning anything else.
func newRegisterSchemasCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register-schemas",
		Short: "Register the input/output Avro schemas with the Schema Registry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			cfg, _, err := loadRunConfig(opts)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			registry, err := kafka.NewRegistry(cfg, logging.WithComponent(logger, "schemas"))
			if err != nil {
				return err
			}

			ids, err := registry.RegisterSchemas(cmd.Context())
			if err != nil {
				return err
			}
			for subject, id := range ids {
				logger.Info("schema registered", "subject", subject, "id", id)
			}
			return nil
		},
	}
	return cmd
}
