// Package resolution defines the request/result types shared between the
// resolution engine, the budget allocator, and callers such as the CLI.
package resolution

// DiagnosticCode classifies a non-fatal condition attached to a result or
// recorded during registry construction.
type DiagnosticCode string

const (
	// DroppedForBudget indicates a source was eligible but did not fit
	// within the remaining budget.
	DroppedForBudget DiagnosticCode = "DroppedForBudget"
	// SourceExceedsBudget indicates a single source is larger than the
	// entire budget and could never be included.
	SourceExceedsBudget DiagnosticCode = "SourceExceedsBudget"
	// SkillTruncated indicates skill content was partially included to
	// fill the remaining budget.
	SkillTruncated DiagnosticCode = "SkillTruncated"
	// InvalidGlobPattern indicates a path-specific source whose match
	// pattern failed to parse; the source is excluded from all matches.
	InvalidGlobPattern DiagnosticCode = "InvalidGlobPattern"
	// MalformedSource indicates a source violating a structural invariant
	// (for example a match pattern on a non-path-specific source); the
	// source is excluded from resolution.
	MalformedSource DiagnosticCode = "MalformedSource"
)

// Diagnostic records a non-fatal condition for a specific source.
type Diagnostic struct {
	Code     DiagnosticCode `json:"code"`
	SourceID string         `json:"sourceId"`
	Detail   string         `json:"detail,omitempty"`
}

// Request describes one resolution query against a registry snapshot.
type Request struct {
	// TargetPath is the file being worked on.
	TargetPath string `json:"targetPath"`
	// AgentID identifies the requesting agent for exclusion filtering.
	AgentID string `json:"agentId"`
	// BudgetLimit is the maximum total content size to assemble.
	BudgetLimit int `json:"budgetLimit"`
	// ActiveSkillID optionally names a skill-scope source chosen through
	// the skill gate; empty means no skill participates.
	ActiveSkillID string `json:"activeSkillId,omitempty"`
}

// Entry records the outcome for a single candidate source, in priority order.
type Entry struct {
	SourceID  string `json:"sourceId"`
	Included  bool   `json:"included"`
	Truncated bool   `json:"truncated"`
}

// Result is the outcome of one resolution: the per-candidate ledger, the
// concatenated included content, and any diagnostics.
type Result struct {
	Entries     []Entry      `json:"entries"`
	Content     string       `json:"content"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// IncludedIDs returns the ids of included sources in priority order.
func (r *Result) IncludedIDs() []string {
	ids := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		if e.Included {
			ids = append(ids, e.SourceID)
		}
	}
	return ids
}

// HasDiagnostic reports whether the result carries a diagnostic with the
// given code for the given source.
func (r *Result) HasDiagnostic(code DiagnosticCode, sourceID string) bool {
	for _, d := range r.Diagnostics {
		if d.Code == code && d.SourceID == sourceID {
			return true
		}
	}
	return false
}
