package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/streamops/pipectl/internal/kafka"
	"github.com/streamops/pipectl/internal/logging"
)

// newProduceCommand creates the "produce" subcommand that sends the canonical
// click-stream workload to the input topic of an existing run.
func newProduceCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "produce",
		Short: "Send the click-stream test events to the input topic",
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
			// Registering an identical schema is idempotent and returns the
			// existing ID, so this doubles as a lookup.
			ids, err := registry.RegisterSchemas(cmd.Context())
			if err != nil {
				return err
			}

			producer, err := kafka.NewProducer(cfg, ids[cfg.InputSubject()], logging.WithComponent(logger, "producer"))
			if err != nil {
				return err
			}
			defer producer.Close()

			return producer.GenerateEvents(cmd.Context())
		},
	}
	return cmd
}

// newConsumeCommand creates the "consume" subcommand that reads enriched
// events from the output topic of an existing run.
func newConsumeCommand(opts *Options) *cobra.Command {
	var (
		timeout  time.Duration
		expected int
	)

	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Read enriched events from the output topic",
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

			consumer, err := kafka.NewConsumer(cfg, ids[cfg.OutputSubject()], logging.WithComponent(logger, "consumer"))
			if err != nil {
				return err
			}
			defer consumer.Close()

			summary, err := consumer.Consume(cmd.Context(), timeout, expected)
			if err != nil {
				return err
			}
			logger.Info("consume summary", "messages", summary.Messages, "enriched", summary.Enriched)
			return verifyEnriched(summary, expected)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 120*time.Second, "How long to wait for enriched events")
	cmd.Flags().IntVar(&expected, "expected", 5, "Stop after this many enriched events")

	return cmd
}
