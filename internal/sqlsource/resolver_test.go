package sqlsource

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const createStmt = "CREATE TABLE clicks (id STRING, userId STRING, eventTime TIMESTAMP(3)) WITH ('connector' = 'kafka')"

const insertStmt = "INSERT INTO output_clicks SELECT id, userId, eventTime FROM clicks WHERE eventType = 'product_click'"

func TestSubstitute(t *testing.T) {
	out := Substitute("INSERT INTO `{output_topic}` SELECT * FROM `{input_topic}`", map[string]string{
		"input_topic":  "input_x",
		"output_topic": "output_x",
	})
	assert.Equal(t, "INSERT INTO `output_x` SELECT * FROM `input_x`", out)
}

func TestSubstituteLeavesUnresolvedTokens(t *testing.T) {
	out := Substitute("SELECT {missing} FROM t", map[string]string{"other": "x"})
	assert.Equal(t, "SELECT {missing} FROM t", out)
}

func TestSplitFragmentSingleStatement(t *testing.T) {
	units := SplitFragment("01_create.sql", createStmt)

	require.Len(t, units, 1)
	assert.Equal(t, "01_create.sql", units[0].Name)
	assert.Equal(t, KindCreate, units[0].Kind)
	assert.NotContains(t, units[0].Name, "_part_")
}

func TestSplitFragmentMultipleStatements(t *testing.T) {
	content := createStmt + ";\n" + insertStmt + ";\n"
	units := SplitFragment("10_mixed.sql", content)

	require.Len(t, units, 2)
	assert.Equal(t, "10_mixed.sql_part_1", units[0].Name)
	assert.Equal(t, "10_mixed.sql_part_2", units[1].Name)
	assert.Equal(t, KindCreate, units[0].Kind)
	assert.Equal(t, KindInsert, units[1].Kind)
}

func TestSplitFragmentFiltersShortAndKeywordless(t *testing.T) {
	content := strings.Join([]string{
		createStmt,
		"SELECT 1", // too short
		"this part is long enough to pass the length check but has no verb at all here",
		insertStmt,
	}, ";")
	units := SplitFragment("frag.sql", content)

	require.Len(t, units, 2)
	assert.Equal(t, "frag.sql_part_1", units[0].Name)
	assert.Equal(t, "frag.sql_part_2", units[1].Name)
}

func TestSplitFragmentCommentOnly(t *testing.T) {
	units := SplitFragment("note.sql", "-- no-op\n")
	assert.Empty(t, units)
}

func TestSplitFragmentShortWithoutSeparator(t *testing.T) {
	units := SplitFragment("tiny.sql", "SELECT 1")
	assert.Empty(t, units)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		sql  string
		want Kind
	}{
		{"CREATE VIEW v AS SELECT 1", KindCreate},
		{"  create table t (x int)", KindCreate},
		{"ALTER TABLE t ADD COLUMN y INT", KindAlter},
		{"INSERT INTO t SELECT * FROM s", KindInsert},
		{"SELECT * FROM t", KindOther},
		{"UPDATE t SET x = 1", KindOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classify(tt.sql), "sql %q", tt.sql)
	}
}

func TestLoadUnitsOrderAndSubstitution(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "02_insert.sql", "INSERT INTO `{output_topic}` SELECT id, userId, eventTime, searchId FROM enriched_events")
	writeFile(t, dir, "01_create.sql", "CREATE TABLE `{input_topic}` (id STRING, userId STRING, eventTime TIMESTAMP(3)) WITH ('connector' = 'kafka')")
	writeFile(t, dir, "README.md", "not sql")

	units, err := LoadUnits(dir, map[string]string{
		"input_topic":  "input_x",
		"output_topic": "output_x",
	})
	require.NoError(t, err)

	require.Len(t, units, 2)
	assert.Equal(t, "01_create.sql", units[0].Name)
	assert.Contains(t, units[0].SQL, "input_x")
	assert.Equal(t, "02_insert.sql", units[1].Name)
	assert.Contains(t, units[1].SQL, "output_x")
}

func TestLoadUnitsSkipsCommentOnlyFragments(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "00_note.sql", "-- no-op\n")
	writeFile(t, dir, "01_create.sql", createStmt)

	units, err := LoadUnits(dir, nil)
	require.NoError(t, err)

	require.Len(t, units, 1)
	assert.Equal(t, "01_create.sql", units[0].Name)
}

func TestLoadUnitsMissingDirectory(t *testing.T) {
	_, err := LoadUnits(filepath.Join(t.TempDir(), "absent"), nil)
	assert.Error(t, err)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
