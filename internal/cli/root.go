// Package cli defines the command-line interface for pipectl.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/streamops/pipectl/internal/config"
	"github.com/streamops/pipectl/internal/env"
	"github.com/streamops/pipectl/internal/logging"
)

// Options stores global CLI options shared between commands.
type Options struct {
	ConfigPath    string
	ConfigPathSet bool
	EnvFile       string
	RunID         string
	Vars          string
	VarFile       string
	LogLevel      logging.Level
}

// Execute builds the root command, runs it with the provided args and logger, and returns any error.
func Execute(args []string, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewLogger(os.Stderr, logging.LevelInfo)
	}

	defaults := loadEnvDefaults()
	rootOpts := &Options{
		ConfigPath: defaults.configPath(),
		LogLevel:   logging.LevelInfo,
	}

	rootCmd := newRootCommand(rootOpts, defaults, logger)
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

// newRootCommand constructs the root cobra.Command with global flags and subcommands.
func newRootCommand(opts *Options, defaults baseEnv, logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipectl",
		Short: "pipectl provisions and tears down streaming SQL pipelines",
		Long: "pipectl manages a streaming enrichment pipeline on Confluent Cloud: " +
			"Kafka topics, Avro schema subjects, and Flink SQL statements deployed " +
			"from a directory of templates, with deterministic teardown.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := logging.ParseLevel(cmd.Flag("log-level").Value.String())
			opts.LogLevel = level
			opts.ConfigPathSet = cmd.Flags().Changed("config")
			logger = logging.NewLogger(os.Stderr, level)
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
			logger.Debug("logger initialized", "level", level)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", opts.ConfigPath, "Path to pipeline.yaml definition file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", defaults.EnvFile, "Path to .env file with credentials")
	cmd.PersistentFlags().StringVar(&opts.RunID, "pipeline-id", "", "Pipeline run identity (defaults to PIPELINE_ID or a generated one)")
	cmd.PersistentFlags().StringVar(&opts.Vars, "vars", "", "Additional SQL placeholders in k=v,k2=v2 format")
	cmd.PersistentFlags().StringVar(&opts.VarFile, "var-file", "", "Path to YAML/ENV file with additional SQL placeholders")
	cmd.PersistentFlags().String("log-level", defaults.logLevel(), "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newRunCommand(opts),
		newDeployCommand(opts),
		newCleanupCommand(opts),
		newRegisterSchemasCommand(opts),
		newProduceCommand(opts),
		newConsumeCommand(opts),
	)

	return cmd
}

// loggerKey is a private context key used to store a logger in command contexts.
type loggerKey struct{}

// LoggerFromContext extracts a logger from the context or falls back to a default logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return logging.NewLogger(os.Stderr, logging.LevelInfo)
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return logging.NewLogger(os.Stderr, logging.LevelInfo)
}

// loadRunConfig builds the process Config and the merged user placeholder
// vars from the global options.
func loadRunConfig(opts *Options) (*config.Config, env.Vars, error) {
	userVars, err := collectUserVars(opts)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(config.LoadOptions{
		PipelinePath:    opts.ConfigPath,
		PipelinePathSet: opts.ConfigPathSet,
		EnvFile:         opts.EnvFile,
		UserVars:        userVars,
		RunID:           opts.RunID,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, userVars, nil
}
