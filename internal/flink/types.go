package flink

import "strings"

// Phase is a statement's remote lifecycle state as reported by the engine.
type Phase int

const (
	// PhaseUnknown covers engine phases not enumerated here. It is treated
	// as success-equivalent so an unrecognized phase never blocks a deploy.
	PhaseUnknown Phase = iota
	// PhasePending means the statement is queued but not yet provisioning.
	PhasePending
	// PhaseProvisioning means the engine is allocating resources.
	PhaseProvisioning
	// PhaseRunning means the statement is executing.
	PhaseRunning
	// PhaseCompleted means the statement finished successfully.
	PhaseCompleted
	// PhaseFailed means the statement reached a terminal failure.
	PhaseFailed
)

// ParsePhase maps the engine's phase string onto a Phase value.
func ParsePhase(s string) Phase {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PENDING":
		return PhasePending
	case "PROVISIONING":
		return PhaseProvisioning
	case "RUNNING":
		return PhaseRunning
	case "COMPLETED":
		return PhaseCompleted
	case "FAILED":
		return PhaseFailed
	default:
		return PhaseUnknown
	}
}

// String returns the engine-side phase name.
func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "PENDING"
	case PhaseProvisioning:
		return "PROVISIONING"
	case PhaseRunning:
		return "RUNNING"
	case PhaseCompleted:
		return "COMPLETED"
	case PhaseFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the phase ends polling. PENDING and PROVISIONING
// are the only non-terminal phases; everything else, including UNKNOWN, is
// terminal so the sequencer never blocks on an engine-specific phase.
func (p Phase) Terminal() bool {
	return p != PhasePending && p != PhaseProvisioning
}

// Succeeded reports whether a terminal phase counts as success. Only FAILED
// counts as failure.
func (p Phase) Succeeded() bool {
	return p != PhaseFailed
}

// Placement carries the run-scoped placement properties for a submission.
type Placement struct {
	// ComputePoolID selects the compute target.
	ComputePoolID string
	// Catalog sets sql.current-catalog.
	Catalog string
	// Database sets sql.current-database.
	Database string
}

// SubmitOutcome classifies a successful submission.
type SubmitOutcome struct {
	// Handle is the server-assigned statement identifier. Empty when the
	// statement already existed, in which case the handle is unknown and
	// cleanup must rely on remote enumeration.
	Handle string
	// Created is true for fresh creation, false for already-exists.
	Created bool
}

// StatementStatus is one statement's reported lifecycle state.
type StatementStatus struct {
	// Phase is the parsed lifecycle phase.
	Phase Phase
	// Detail carries the engine's failure detail text, when present.
	Detail string
}

// StatementInfo is one entry from the full statement listing.
type StatementInfo struct {
	// Handle is the statement identifier usable in stop requests.
	Handle string
	// Status is the listing-level status string (e.g. RUNNING, STOPPED).
	Status string
}

// Active reports whether the statement is still running or queued and is
// therefore a candidate for a stop request.
func (s StatementInfo) Active() bool {
	switch strings.ToUpper(s.Status) {
	case "RUNNING", "PENDING":
		return true
	default:
		return false
	}
}

// submitRequest is the POST /statements payload.
type submitRequest struct {
	Name string        `json:"name"`
	Spec statementSpec `json:"spec"`
}

type statementSpec struct {
	Statement     string            `json:"statement"`
	ComputePoolID string            `json:"compute_pool_id"`
	Properties    map[string]string `json:"properties"`
}

// submitResponse is the relevant slice of the create response.
type submitResponse struct {
	Name string `json:"name"`
}

// statusResponse is the GET /statements/{id} body.
type statusResponse struct {
	Status struct {
		Phase  string `json:"phase"`
		Detail string `json:"detail"`
	} `json:"status"`
}

// listResponse is the GET /v1/statements body.
type listResponse struct {
	Data []struct {
		StatementHandle string `json:"statement_handle"`
		Status          struct {
			Status string `json:"status"`
		} `json:"status"`
	} `json:"data"`
}
