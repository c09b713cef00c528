// Package naming derives remote-safe unique names for statements submitted to
// the Flink REST API. Statement names must be lowercase alphanumerics and
// hyphens, at most 100 characters.
package naming

import (
	"strconv"
	"strings"
	"time"
)

// MaxNameLength is the remote engine's limit on statement names.
const MaxNameLength = 100

// MaxRunIDLength bounds the sanitized run identity so every generated name
// keeps room for a base segment and the timestamp inside MaxNameLength.
// Configuration loading rejects longer identities before they reach a Namer.
const MaxRunIDLength = 64

// Namer maps base names to unique remote names. Every generated name embeds
// the run identity so cleanup can tell this run's statements apart from a
// concurrent run's. The zero Now uses the system clock; tests inject a fixed
// one.
type Namer struct {
	// RunID is the run identity embedded in every generated name.
	RunID string
	// Now supplies the timestamp suffix; defaults to time.Now.
	Now func() time.Time
}

// StatementName builds a unique remote name from a base name: lowercase,
// underscores and spaces replaced with hyphens, the .sql suffix dropped, the
// run identity appended, and a unix-seconds suffix appended so repeated
// submissions of the same logical statement never collide. When the result
// would exceed MaxNameLength the base is truncated first, then the run
// identity; the timestamp always survives intact.
func (n Namer) StatementName(base string) string {
	now := n.Now
	if now == nil {
		now = time.Now
	}
	ts := strconv.FormatInt(now().Unix(), 10)

	suffix := "-" + ts
	if run := Sanitize(n.RunID); run != "" {
		// An oversized run identity loses its tail rather than the
		// timestamp; the timestamp is what keeps resubmissions unique.
		if max := MaxNameLength - len(suffix) - 1; len(run) > max {
			run = run[:max]
		}
		suffix = "-" + run + suffix
	}

	safe := Sanitize(base)
	if cut := MaxNameLength - len(suffix); len(safe) > cut {
		safe = safe[:cut]
	}
	return safe + suffix
}

// Sanitize normalizes a base name into the engine's charset without adding a
// uniqueness suffix. Characters outside [a-z0-9-] are dropped.
func Sanitize(base string) string {
	s := strings.ToLower(base)
	s = strings.ReplaceAll(s, ".sql", "")
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, " ", "-")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
