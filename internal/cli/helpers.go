package cli

import (
	"fmt"

	"github.com/streamops/pipectl/internal/env"
	"github.com/streamops/pipectl/internal/kafka"
)

// collectUserVars merges --var-file and --vars into one placeholder map,
// inline vars overriding file values.
func collectUserVars(opts *Options) (env.Vars, error) {
	vars := make(env.Vars)

	if opts.VarFile != "" {
		fileVars, err := env.LoadVarFile(opts.VarFile)
		if err != nil {
			return nil, err
		}
		vars = env.Merge(vars, fileVars)
	}

	inline, err := env.ParseInlineVars(opts.Vars)
	if err != nil {
		return nil, err
	}
	return env.Merge(vars, inline), nil
}

// verifyEnriched fails a consume pass that observed fewer enriched events
// than expected.
func verifyEnriched(summary kafka.ConsumeSummary, expected int) error {
	if summary.Enriched < expected {
		return fmt.Errorf("expected %d enriched events, observed %d", expected, summary.Enriched)
	}
	return nil
}
