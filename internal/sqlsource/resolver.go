// Package sqlsource loads SQL templates from disk, substitutes run-scoped
// placeholders, and splits the result into individually submittable units.
package sqlsource

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Kind classifies a statement unit by its leading SQL verb. It is decided
// once at unit construction; nothing downstream re-inspects the SQL text.
type Kind int

const (
	// KindOther covers verbs with no special handling (SELECT, UPDATE, ...).
	KindOther Kind = iota
	// KindCreate marks CREATE statements (tables, views).
	KindCreate
	// KindAlter marks ALTER statements.
	KindAlter
	// KindInsert marks INSERT statements, which run as streaming jobs.
	KindInsert
)

// String returns the verb-style name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "CREATE"
	case KindAlter:
		return "ALTER"
	case KindInsert:
		return "INSERT"
	default:
		return "OTHER"
	}
}

// Unit is one atomic deployable SQL statement.
type Unit struct {
	// Name is the unit's base name, derived from the source filename and,
	// for multi-statement fragments, a 1-based _part_ suffix.
	Name string
	// SQL is the substituted statement text.
	SQL string
	// Kind is the statement classification.
	Kind Kind
}

// minStatementLength filters out splinters too short to be a real statement.
const minStatementLength = 50

// sqlVerbs are the keywords a candidate unit must contain to survive the
// split filter.
var sqlVerbs = []string{"CREATE", "INSERT", "SELECT", "UPDATE", "DELETE", "ALTER"}

// LoadUnits discovers *.sql files under dir, sorted by filename, substitutes
// placeholders, and splits each fragment into units. The filename sort order
// is the authoritative execution order. A fragment yielding zero units (for
// example, one holding only comments) is silently skipped.
func LoadUnits(dir string, placeholders map[string]string) ([]Unit, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read sql directory %q: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".sql") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	var units []Unit
	for _, name := range files {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read sql fragment %q: %w", name, err)
		}
		units = append(units, SplitFragment(name, Substitute(string(raw), placeholders))...)
	}
	return units, nil
}

// Substitute performs literal replacement of {name} tokens. Unresolved
// placeholders are left as-is; the caller is responsible for supplying every
// placeholder its templates use.
func Substitute(content string, placeholders map[string]string) string {
	for key, value := range placeholders {
		content = strings.ReplaceAll(content, "{"+key+"}", value)
	}
	return content
}

// SplitFragment splits substituted fragment text into units. Text without a
// semicolon is a single candidate; otherwise each semicolon-delimited part is
// a candidate. Candidates that are empty, shorter than the minimum length, or
// missing every recognized SQL verb are dropped. When more than one unit
// survives, each name carries a _part_<i> suffix.
func SplitFragment(baseName, content string) []Unit {
	var parts []string
	if !strings.Contains(content, ";") {
		parts = []string{content}
	} else {
		parts = strings.Split(content, ";")
	}

	var kept []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if isStatement(part) {
			kept = append(kept, part)
		}
	}

	units := make([]Unit, 0, len(kept))
	for i, sql := range kept {
		name := baseName
		if len(kept) > 1 {
			name = fmt.Sprintf("%s_part_%d", baseName, i+1)
		}
		units = append(units, Unit{Name: name, SQL: sql, Kind: classify(sql)})
	}
	return units
}

// isStatement reports whether a trimmed candidate passes the length and
// keyword checks.
func isStatement(s string) bool {
	if s == "" || len(s) <= minStatementLength {
		return false
	}
	upper := strings.ToUpper(s)
	for _, verb := range sqlVerbs {
		if strings.Contains(upper, verb) {
			return true
		}
	}
	return false
}

// classify decides the unit kind from the leading verb of the statement.
func classify(sql string) Kind {
	upper := strings.ToUpper(strings.TrimSpace(sql))
	switch {
	case strings.HasPrefix(upper, "CREATE"):
		return KindCreate
	case strings.HasPrefix(upper, "ALTER"):
		return KindAlter
	case strings.HasPrefix(upper, "INSERT"):
		return KindInsert
	default:
		return KindOther
	}
}
