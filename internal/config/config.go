// Package config contains the loader and strongly typed model for pipectl
// configuration: Confluent credentials from the environment and the
// declarative pipeline.yaml definition.
package config

import (
	"fmt"
	"strings"
	"time"

	envparse "github.com/caarlos0/env/v11"

	"github.com/streamops/pipectl/internal/env"
	"github.com/streamops/pipectl/internal/naming"
)

// Config is the process-wide configuration value. It is constructed once at
// start by Load and passed into every component constructor; nothing reads
// ambient globals after that.
type Config struct {
	// BootstrapServers is the Kafka bootstrap address from BOOTSTRAP_SERVERS.
	BootstrapServers string `env:"BOOTSTRAP_SERVERS"`
	// SASLUsername is the Kafka SASL/PLAIN username from SASL_USERNAME.
	SASLUsername string `env:"SASL_USERNAME"`
	// SASLPassword is the Kafka SASL/PLAIN password from SASL_PASSWORD.
	SASLPassword string `env:"SASL_PASSWORD"`

	// FlinkEndpoint is the Flink REST base endpoint from FLINK_REST_ENDPOINT.
	FlinkEndpoint string `env:"FLINK_REST_ENDPOINT"`
	// FlinkAPIKey is the Flink API key from FLINK_API_KEY.
	FlinkAPIKey string `env:"FLINK_API_KEY"`
	// FlinkAPISecret is the Flink API secret from FLINK_API_SECRET.
	FlinkAPISecret string `env:"FLINK_API_SECRET"`
	// FlinkOrgID is the organization ID from FLINK_ORG_ID.
	FlinkOrgID string `env:"FLINK_ORG_ID"`
	// EnvironmentID is the Confluent environment ID from CONFLUENT_ENV_ID.
	EnvironmentID string `env:"CONFLUENT_ENV_ID"`
	// ComputePoolID is the Flink compute pool from FLINK_COMPUTE_POOL_ID.
	ComputePoolID string `env:"FLINK_COMPUTE_POOL_ID"`
	// CurrentCatalog is the default SQL catalog from SQL_CURRENT_CATALOG.
	CurrentCatalog string `env:"SQL_CURRENT_CATALOG"`
	// CurrentDatabase is the default SQL database from SQL_CURRENT_DATABASE.
	CurrentDatabase string `env:"SQL_CURRENT_DATABASE"`

	// SchemaRegistryEndpoint is the Schema Registry URL from SCHEMA_REGISTRY_ENDPOINT.
	SchemaRegistryEndpoint string `env:"SCHEMA_REGISTRY_ENDPOINT"`
	// SchemaRegistryAPIKey is the registry key from SCHEMA_REGISTRY_API_KEY.
	SchemaRegistryAPIKey string `env:"SCHEMA_REGISTRY_API_KEY"`
	// SchemaRegistryAPISecret is the registry secret from SCHEMA_REGISTRY_API_SECRET.
	SchemaRegistryAPISecret string `env:"SCHEMA_REGISTRY_API_SECRET"`

	// RunID uniquely identifies one pipeline invocation. Taken from
	// PIPELINE_ID when set, otherwise generated from the current time.
	RunID string `env:"PIPELINE_ID"`
	// RunIDGenerated records that RunID was generated rather than supplied.
	// Teardown of an earlier run refuses a generated identity, since it
	// could not name anything that run created.
	RunIDGenerated bool `env:"-"`

	// Pipeline holds the declarative definition parsed from pipeline.yaml.
	Pipeline PipelineSpec `env:"-"`
}

// requiredVars maps the env var names that must be present before any remote
// operation runs, in reporting order.
var requiredVars = []struct {
	name  string
	value func(*Config) string
}{
	{"BOOTSTRAP_SERVERS", func(c *Config) string { return c.BootstrapServers }},
	{"SASL_USERNAME", func(c *Config) string { return c.SASLUsername }},
	{"SASL_PASSWORD", func(c *Config) string { return c.SASLPassword }},
	{"FLINK_REST_ENDPOINT", func(c *Config) string { return c.FlinkEndpoint }},
	{"FLINK_API_KEY", func(c *Config) string { return c.FlinkAPIKey }},
	{"FLINK_API_SECRET", func(c *Config) string { return c.FlinkAPISecret }},
	{"FLINK_ORG_ID", func(c *Config) string { return c.FlinkOrgID }},
	{"CONFLUENT_ENV_ID", func(c *Config) string { return c.EnvironmentID }},
	{"FLINK_COMPUTE_POOL_ID", func(c *Config) string { return c.ComputePoolID }},
	{"SQL_CURRENT_CATALOG", func(c *Config) string { return c.CurrentCatalog }},
	{"SQL_CURRENT_DATABASE", func(c *Config) string { return c.CurrentDatabase }},
	{"SCHEMA_REGISTRY_ENDPOINT", func(c *Config) string { return c.SchemaRegistryEndpoint }},
	{"SCHEMA_REGISTRY_API_KEY", func(c *Config) string { return c.SchemaRegistryAPIKey }},
	{"SCHEMA_REGISTRY_API_SECRET", func(c *Config) string { return c.SchemaRegistryAPISecret }},
}

// MissingError reports required configuration names that were absent. The
// check is all-or-nothing: every missing name is collected before failing.
type MissingError struct {
	Missing []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// LoadOptions describes inputs that influence configuration loading.
type LoadOptions struct {
	// PipelinePath is the path to pipeline.yaml. When it points at the
	// default path and the file is absent, built-in defaults are used.
	PipelinePath string
	// PipelinePathSet records whether the path was set explicitly; an
	// explicitly named missing file is an error.
	PipelinePathSet bool
	// EnvFile overrides the .env file path.
	EnvFile string
	// UserVars are inline overrides with the highest precedence.
	UserVars env.Vars
	// RunID overrides the run identity from the command line.
	RunID string
	// Now supplies the clock for run identity generation; defaults to time.Now.
	Now func() time.Time
}

// Load builds the Config from pipeline.yaml, .env files, the OS environment
// and inline overrides, in ascending precedence.
func Load(opts LoadOptions) (*Config, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	spec, baseDir, err := loadPipelineSpec(opts.PipelinePath, opts.PipelinePathSet)
	if err != nil {
		return nil, err
	}

	envFiles := spec.EnvFiles
	if opts.EnvFile != "" {
		envFiles = []string{opts.EnvFile}
	}
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	// Files named by pipeline.yaml or the built-in default may be absent; a
	// file named explicitly on the command line may not.
	fileVars, err := env.LoadEnvFiles(baseDir, envFiles, opts.EnvFile == "")
	if err != nil {
		return nil, err
	}

	merged := env.Merge(fileVars, env.FromOS(), opts.UserVars)

	cfg := &Config{Pipeline: spec}
	if err := envparse.ParseWithOptions(cfg, envparse.Options{Environment: merged}); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	// Older deployments exported the environment ID under a longer name.
	if cfg.EnvironmentID == "" {
		cfg.EnvironmentID = merged["CONFLUENT_CLOUD_ENVIRONMENT_ID"]
	}

	if opts.RunID != "" {
		cfg.RunID = opts.RunID
	}
	if cfg.RunID == "" {
		cfg.RunID = fmt.Sprintf("pipeline_%d", now().Unix())
		cfg.RunIDGenerated = true
	}
	if len(naming.Sanitize(cfg.RunID)) > naming.MaxRunIDLength {
		return nil, fmt.Errorf("pipeline id %q exceeds %d characters after sanitizing", cfg.RunID, naming.MaxRunIDLength)
	}

	return cfg, nil
}

// Validate checks that every required value is present and returns a
// MissingError listing all absent names at once.
func (c *Config) Validate() error {
	var missing []string
	for _, rv := range requiredVars {
		if strings.TrimSpace(rv.value(c)) == "" {
			missing = append(missing, rv.name)
		}
	}
	if len(missing) > 0 {
		return &MissingError{Missing: missing}
	}
	return nil
}

// FlinkBaseURL returns the statement API base endpoint for this environment.
func (c *Config) FlinkBaseURL() string {
	return fmt.Sprintf("%s/sql/v1/organizations/%s/environments/%s",
		strings.TrimRight(c.FlinkEndpoint, "/"), c.FlinkOrgID, c.EnvironmentID)
}

// InputTopic returns the run-scoped input topic name.
func (c *Config) InputTopic() string { return "input_" + c.RunID }

// OutputTopic returns the run-scoped output topic name.
func (c *Config) OutputTopic() string { return "output_" + c.RunID }

// InputSubject returns the Schema Registry subject for the input topic value.
func (c *Config) InputSubject() string { return c.InputTopic() + "-value" }

// OutputSubject returns the Schema Registry subject for the output topic value.
func (c *Config) OutputSubject() string { return c.OutputTopic() + "-value" }

// EnrichedView returns the run-scoped name of the intermediate enriched view.
func (c *Config) EnrichedView() string { return "enriched_view_" + c.RunID }

// Placeholders returns the substitution values available to SQL templates.
// Declarative placeholders from pipeline.yaml and inline user vars layer on
// top of the derived run-scoped names.
func (c *Config) Placeholders(extra env.Vars) map[string]string {
	out := map[string]string{
		"pipeline_id":       c.RunID,
		"input_topic":       c.InputTopic(),
		"output_topic":      c.OutputTopic(),
		"enriched_table":    c.EnrichedView(),
		"bootstrap_servers": c.BootstrapServers,
		"sasl_username":     c.SASLUsername,
		"sasl_password":     c.SASLPassword,
	}
	for k, v := range c.Pipeline.Placeholders {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
