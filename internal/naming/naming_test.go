package naming

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Unix(1712345678, 0)
}

func TestStatementName(t *testing.T) {
	n := Namer{RunID: "pipeline_1712345600", Now: fixedNow}

	name := n.StatementName("01_Create Table.sql")
	assert.Equal(t, "01-create-table-pipeline-1712345600-1712345678", name)
}

func TestStatementNameCharset(t *testing.T) {
	n := Namer{RunID: "pipeline_1", Now: fixedNow}
	valid := regexp.MustCompile(`^[a-z0-9-]+$`)

	for _, base := range []string{
		"01_create.sql",
		"02_insert.sql_part_3",
		"Weird Name.SQL.sql",
		"dots.and.more",
	} {
		name := n.StatementName(base)
		assert.True(t, valid.MatchString(name), "name %q for base %q", name, base)
		assert.True(t, strings.HasSuffix(name, "-"+strconv.FormatInt(fixedNow().Unix(), 10)), "name %q", name)
	}
}

func TestStatementNameTruncation(t *testing.T) {
	n := Namer{RunID: "pipeline_1712345600", Now: fixedNow}

	long := strings.Repeat("abcde_", 40)
	name := n.StatementName(long)

	require.LessOrEqual(t, len(name), MaxNameLength)
	// The run identity and timestamp must survive truncation intact.
	assert.True(t, strings.HasSuffix(name, "-pipeline-1712345600-1712345678"))
}

func TestStatementNameOversizedRunID(t *testing.T) {
	n := Namer{RunID: strings.Repeat("r", 95), Now: fixedNow}

	name := n.StatementName("01_create.sql")

	require.LessOrEqual(t, len(name), MaxNameLength)
	assert.True(t, strings.HasSuffix(name, "-1712345678"), "name %q", name)
}

func TestStatementNameRunIDAtLimit(t *testing.T) {
	n := Namer{RunID: strings.Repeat("r", MaxRunIDLength), Now: fixedNow}

	name := n.StatementName("01_create.sql")

	require.LessOrEqual(t, len(name), MaxNameLength)
	// An identity within the configured bound survives untruncated.
	assert.Contains(t, name, "-"+strings.Repeat("r", MaxRunIDLength)+"-")
}

func TestStatementNameWithoutRunID(t *testing.T) {
	n := Namer{Now: fixedNow}
	assert.Equal(t, "stmt-1712345678", n.StatementName("stmt"))
}

func TestStatementNameEmptyBase(t *testing.T) {
	n := Namer{RunID: "run", Now: fixedNow}
	// Degenerate but valid: suffix only.
	assert.Equal(t, "-run-1712345678", n.StatementName(""))
}

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"01_create.sql":  "01-create",
		"My File.sql":    "my-file",
		"already-clean":  "already-clean",
		"With.Dots":      "withdots",
		"UPPER_case.sql": "upper-case",
	}
	for in, want := range tests {
		assert.Equal(t, want, Sanitize(in), "input %q", in)
	}
}
