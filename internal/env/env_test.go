package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	merged := Merge(
		Vars{"A": "1", "B": "1"},
		Vars{"B": "2", "C": "2"},
		Vars{"C": "3"},
	)
	assert.Equal(t, Vars{"A": "1", "B": "2", "C": "3"}, merged)
}

func TestFromOS(t *testing.T) {
	t.Setenv("PIPECTL_TEST_VALUE", "present")

	vars := FromOS()
	assert.Equal(t, "present", vars["PIPECTL_TEST_VALUE"])
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"# comment\nBOOTSTRAP_SERVERS=broker:9092\nSASL_PASSWORD=\"quoted pass\"\n"), 0o600))

	vars, err := LoadEnvFile(path)
	require.NoError(t, err)

	assert.Equal(t, "broker:9092", vars["BOOTSTRAP_SERVERS"])
	assert.Equal(t, "quoted pass", vars["SASL_PASSWORD"])
}

func TestLoadEnvFileMissing(t *testing.T) {
	_, err := LoadEnvFile(filepath.Join(t.TempDir(), "absent.env"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadEnvFilesMergesInOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.env"), []byte("X=a\nY=a\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.env"), []byte("Y=b\n"), 0o600))

	vars, err := LoadEnvFiles(dir, []string{"a.env", "b.env"}, false)
	require.NoError(t, err)

	assert.Equal(t, "a", vars["X"])
	assert.Equal(t, "b", vars["Y"])
}

func TestLoadEnvFilesOptionalSkipsMissing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.env"), []byte("X=a\n"), 0o600))

	vars, err := LoadEnvFiles(dir, []string{"absent.env", "a.env"}, true)
	require.NoError(t, err)
	assert.Equal(t, "a", vars["X"])
}

func TestLoadEnvFilesStrictFailsOnMissing(t *testing.T) {
	_, err := LoadEnvFiles(t.TempDir(), []string{"absent.env"}, false)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseInlineVars(t *testing.T) {
	vars, err := ParseInlineVars("A=1, B = two ,C=")
	require.NoError(t, err)

	assert.Equal(t, Vars{"A": "1", "B": "two", "C": ""}, vars)
}

func TestParseInlineVarsEmpty(t *testing.T) {
	vars, err := ParseInlineVars("   ")
	require.NoError(t, err)
	assert.Empty(t, vars)
}

func TestParseInlineVarsRejectsMalformed(t *testing.T) {
	_, err := ParseInlineVars("A=1,nonsense")
	assert.Error(t, err)

	_, err = ParseInlineVars("=value")
	assert.Error(t, err)
}

func TestLoadVarFileColonAndEqualsStyles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"# header\nsource_cluster: east\nregion = 'us-west-2'\nquoted: \"v\"\n\n"), 0o600))

	vars, err := LoadVarFile(path)
	require.NoError(t, err)

	assert.Equal(t, "east", vars["source_cluster"])
	assert.Equal(t, "us-west-2", vars["region"])
	assert.Equal(t, "v", vars["quoted"])
}
