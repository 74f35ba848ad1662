package entity

// Fact type names used in selection sets and the persisted document.
// Phase 1 facts are extracted directly from the upstream API; Phase 2 facts
// are derived from Phase 1 outputs or cheap enrichment calls.
const (
	FactRepository     = "repository"
	FactCommits        = "commits"
	FactIssues         = "issues"
	FactPullRequests   = "pull_requests"
	FactContributors   = "contributors"
	FactDependencies   = "dependencies"
	FactForkLineage    = "fork_lineage"
	FactCommitLineage  = "commit_lineage"
	FactBusFactor      = "bus_factor"
	FactPRMetrics      = "pr_metrics"
	FactIssueMetrics   = "issue_metrics"
	FactCommitActivity = "commit_activity"
	FactReleaseCadence = "release_cadence"
)

// BaseFacts lists the Phase 1 fact types in a stable order.
var BaseFacts = []string{
	FactCommits,
	FactIssues,
	FactPullRequests,
	FactContributors,
	FactDependencies,
}

// DerivedFacts lists the Phase 2 fact types in a stable order.
var DerivedFacts = []string{
	FactForkLineage,
	FactCommitLineage,
	FactBusFactor,
	FactPRMetrics,
	FactIssueMetrics,
	FactCommitActivity,
	FactReleaseCadence,
}

// Limits caps the number of items fetched per listing fact type.
// A zero or negative value means the configured default cap.
type Limits struct {
	Commits      int `json:"commit" yaml:"commit"`
	Issues       int `json:"issues" yaml:"issues"`
	PullRequests int `json:"pr" yaml:"pr"`
}

// ExtractionRequest describes a single extraction run. It is validated once
// at orchestration start and treated as immutable afterwards.
type ExtractionRequest struct {
	// Target is a repository identifier: an https or git SSH GitHub URL,
	// or a bare "owner/repo" string.
	Target string `json:"target"`

	// Selections maps fact type names to whether they should be extracted.
	// Unknown names are ignored; at least one flag must be true.
	Selections map[string]bool `json:"selections"`

	// Limits caps item counts for the listing fact types.
	Limits Limits `json:"limits"`

	// ExtractionID uniquely identifies the run. Assigned by the
	// orchestrator when empty.
	ExtractionID string `json:"extraction_id,omitempty"`
}

// Selected reports whether the given fact type is requested.
func (r *ExtractionRequest) Selected(fact string) bool {
	return r.Selections[fact]
}

// Validate checks the request invariants that must hold before any I/O is
// attempted: a non-empty target and at least one selected fact type.
func (r *ExtractionRequest) Validate() error {
	if r.Target == "" {
		return ErrEmptyTarget
	}
	for _, selected := range r.Selections {
		if selected {
			return nil
		}
	}
	return ErrEmptySelection
}

// DefaultSelections returns a selection set with every known fact type
// enabled. Used by the CLI and the worker when a target does not narrow its
// selection.
func DefaultSelections() map[string]bool {
	sel := map[string]bool{FactRepository: true}
	for _, fact := range BaseFacts {
		sel[fact] = true
	}
	for _, fact := range DerivedFacts {
		sel[fact] = true
	}
	return sel
}
