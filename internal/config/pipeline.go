package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPipelinePath is the default path to the pipeline definition file.
const DefaultPipelinePath = "pipeline.yaml"

// PipelineSpec is the declarative side of a pipeline: where the SQL templates
// live, how topics are shaped, and deployment timing overrides. Credentials
// never appear here; they come from the environment.
type PipelineSpec struct {
	// Project is the short project name used in logs and client IDs.
	Project string `yaml:"project,omitempty"`
	// EnvFiles lists .env files loaded before parsing the environment.
	EnvFiles []string `yaml:"envFiles,omitempty"`
	// SQLDir is the directory containing *.sql templates.
	SQLDir string `yaml:"sqlDir,omitempty"`
	// Topics configures the input/output topic shape.
	Topics TopicsSpec `yaml:"topics,omitempty"`
	// Placeholders adds extra template substitutions beyond the derived ones.
	Placeholders map[string]string `yaml:"placeholders,omitempty"`
	// Deploy tunes settle delays and status polling.
	Deploy DeploySpec `yaml:"deploy,omitempty"`

	// BaseDir is the directory pipeline.yaml was loaded from; relative
	// sqlDir and envFiles paths resolve against it.
	BaseDir string `yaml:"-"`
}

// ResolvedSQLDir returns the SQL template directory resolved against BaseDir.
func (s PipelineSpec) ResolvedSQLDir() string {
	dir := s.SQLDirOrDefault()
	if filepath.IsAbs(dir) || s.BaseDir == "" {
		return dir
	}
	return filepath.Join(s.BaseDir, dir)
}

// TopicsSpec describes the Kafka topic shape for the run.
type TopicsSpec struct {
	// Partitions is the partition count for created topics.
	Partitions int32 `yaml:"partitions,omitempty"`
	// ReplicationFactor is the replication factor for created topics.
	ReplicationFactor int16 `yaml:"replicationFactor,omitempty"`
	// RetentionMS is the retention in milliseconds.
	RetentionMS int64 `yaml:"retentionMs,omitempty"`
}

// DeploySpec holds string-form durations for deployment timing. Empty values
// fall back to built-in defaults.
type DeploySpec struct {
	// PollInterval is the wait between statement status checks (e.g. "5s").
	PollInterval string `yaml:"pollInterval,omitempty"`
	// PollDeadline bounds the total wait for one statement to settle (e.g. "10m").
	PollDeadline string `yaml:"pollDeadline,omitempty"`
	// SettleAlter is the post-submit delay for ALTER statements.
	SettleAlter string `yaml:"settleAlter,omitempty"`
	// SettleCreate is the post-submit delay for CREATE statements.
	SettleCreate string `yaml:"settleCreate,omitempty"`
	// SettleDefault is the post-submit delay for everything else.
	SettleDefault string `yaml:"settleDefault,omitempty"`
}

const (
	defaultSQLDir            = "sql"
	defaultPartitions        = 3
	defaultReplicationFactor = 3
	defaultRetentionMS       = 86400000 // 24h

	defaultPollInterval  = 5 * time.Second
	defaultPollDeadline  = 10 * time.Minute
	defaultSettleAlter   = 5 * time.Second
	defaultSettleCreate  = 10 * time.Second
	defaultSettleDefault = 8 * time.Second
)

// SQLDirOrDefault returns the SQL template directory, defaulting to "sql".
func (s PipelineSpec) SQLDirOrDefault() string {
	if s.SQLDir != "" {
		return s.SQLDir
	}
	return defaultSQLDir
}

// PartitionsOrDefault returns the configured partition count or the default.
func (t TopicsSpec) PartitionsOrDefault() int32 {
	if t.Partitions > 0 {
		return t.Partitions
	}
	return defaultPartitions
}

// ReplicationOrDefault returns the configured replication factor or the default.
func (t TopicsSpec) ReplicationOrDefault() int16 {
	if t.ReplicationFactor > 0 {
		return t.ReplicationFactor
	}
	return defaultReplicationFactor
}

// RetentionOrDefault returns the configured retention or the 24h default.
func (t TopicsSpec) RetentionOrDefault() int64 {
	if t.RetentionMS > 0 {
		return t.RetentionMS
	}
	return defaultRetentionMS
}

// PollIntervalOrDefault returns the parsed poll interval or the 5s default.
func (d DeploySpec) PollIntervalOrDefault() time.Duration {
	return durationOr(d.PollInterval, defaultPollInterval)
}

// PollDeadlineOrDefault returns the parsed poll deadline or the 10m default.
func (d DeploySpec) PollDeadlineOrDefault() time.Duration {
	return durationOr(d.PollDeadline, defaultPollDeadline)
}

// SettleAlterOrDefault returns the ALTER settle delay or the 5s default.
func (d DeploySpec) SettleAlterOrDefault() time.Duration {
	return durationOr(d.SettleAlter, defaultSettleAlter)
}

// SettleCreateOrDefault returns the CREATE settle delay or the 10s default.
func (d DeploySpec) SettleCreateOrDefault() time.Duration {
	return durationOr(d.SettleCreate, defaultSettleCreate)
}

// SettleDefaultOrDefault returns the fallback settle delay or the 8s default.
func (d DeploySpec) SettleDefaultOrDefault() time.Duration {
	return durationOr(d.SettleDefault, defaultSettleDefault)
}

func durationOr(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// loadPipelineSpec reads and parses pipeline.yaml. A missing file at the
// default path yields built-in defaults; an explicitly named missing file is
// an error. The second return value is the directory the file lives in, used
// to resolve relative envFiles and sqlDir paths.
func loadPipelineSpec(path string, explicit bool) (PipelineSpec, string, error) {
	if path == "" {
		path = DefaultPipelinePath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return PipelineSpec{}, "", fmt.Errorf("resolve pipeline path: %w", err)
	}
	baseDir := filepath.Dir(absPath)

	raw, err := os.ReadFile(absPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return PipelineSpec{BaseDir: baseDir}, baseDir, nil
		}
		return PipelineSpec{}, "", fmt.Errorf("read pipeline definition %q: %w", absPath, err)
	}

	var spec PipelineSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return PipelineSpec{}, "", fmt.Errorf("parse pipeline definition %q: %w", absPath, err)
	}
	spec.BaseDir = baseDir
	return spec, baseDir, nil
}
