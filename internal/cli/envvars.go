package cli

import (
	envparse "github.com/caarlos0/env/v11"

	"github.com/streamops/pipectl/internal/config"
)

// baseEnv defines root CLI defaults sourced from PIPECTL_* env vars.
type baseEnv struct {
	// ConfigPath is the pipeline.yaml path from PIPECTL_CONFIG.
	ConfigPath string `env:"PIPECTL_CONFIG"`
	// EnvFile is the .env path from PIPECTL_ENV_FILE.
	EnvFile string `env:"PIPECTL_ENV_FILE"`
	// LogLevel is the logging level from PIPECTL_LOG_LEVEL.
	LogLevel string `env:"PIPECTL_LOG_LEVEL"`
}

// loadEnvDefaults parses PIPECTL_* defaults, ignoring parse failures so a
// malformed environment never blocks flag-driven use.
func loadEnvDefaults() baseEnv {
	var defaults baseEnv
	_ = envparse.Parse(&defaults)
	return defaults
}

func (b baseEnv) configPath() string {
	if b.ConfigPath != "" {
		return b.ConfigPath
	}
	return config.DefaultPipelinePath
}

func (b baseEnv) logLevel() string {
	if b.LogLevel != "" {
		return b.LogLevel
	}
	return "info"
}
