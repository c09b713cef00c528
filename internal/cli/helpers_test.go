package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamops/pipectl/internal/kafka"
)

func TestCollectUserVarsInlineOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source_cluster: east\nregion: us-west-2\n"), 0o600))

	vars, err := collectUserVars(&Options{
		VarFile: path,
		Vars:    "source_cluster=west,extra=1",
	})
	require.NoError(t, err)

	assert.Equal(t, "west", vars["source_cluster"])
	assert.Equal(t, "us-west-2", vars["region"])
	assert.Equal(t, "1", vars["extra"])
}

func TestCollectUserVarsRejectsMalformedInline(t *testing.T) {
	_, err := collectUserVars(&Options{Vars: "nonsense"})
	assert.Error(t, err)
}

func TestVerifyEnriched(t *testing.T) {
	assert.NoError(t, verifyEnriched(kafka.ConsumeSummary{Messages: 8, Enriched: 5}, 5))
	assert.NoError(t, verifyEnriched(kafka.ConsumeSummary{Messages: 9, Enriched: 6}, 5))

	err := verifyEnriched(kafka.ConsumeSummary{Messages: 8, Enriched: 3}, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 5 enriched events, observed 3")
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("PIPECTL_CONFIG", "")
	t.Setenv("PIPECTL_LOG_LEVEL", "")

	defaults := loadEnvDefaults()
	assert.Equal(t, "pipeline.yaml", defaults.configPath())
	assert.Equal(t, "info", defaults.logLevel())

	t.Setenv("PIPECTL_CONFIG", "custom/pipeline.yaml")
	t.Setenv("PIPECTL_LOG_LEVEL", "debug")

	defaults = loadEnvDefaults()
	assert.Equal(t, "custom/pipeline.yaml", defaults.configPath())
	assert.Equal(t, "debug", defaults.logLevel())
}
