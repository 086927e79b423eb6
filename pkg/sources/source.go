// Package sources defines the instruction source data model and the
// per-session registry snapshot the resolution engine operates on.
// Sources are immutable once registered; observing changed files requires
// building a new registry.
package sources

// Scope describes where and how a source is eligible to apply.
type Scope string

const (
	// ScopeRepository applies to every file in the repository.
	ScopeRepository Scope = "repository-wide"
	// ScopeDirectory applies to files under the source's origin directory,
	// with the nearest origin winning among ancestors.
	ScopeDirectory Scope = "directory-scoped"
	// ScopePath applies to files matching the source's glob pattern.
	ScopePath Scope = "path-specific"
	// ScopeSkill is on-demand content selected through the skill gate.
	ScopeSkill Scope = "skill"
)

// Tier is the authorship-based priority axis.
type Tier string

const (
	TierPersonal     Tier = "personal"
	TierRepository   Tier = "repository"
	TierOrganization Tier = "organization"
)

// Source is one unit of instruction content with its eligibility metadata.
type Source struct {
	// ID is the unique stable identifier of the source.
	ID string `json:"id"`
	// Scope determines how eligibility is computed for a target path.
	Scope Scope `json:"scope"`
	// Tier defaults to TierRepository when empty.
	Tier Tier `json:"tier,omitempty"`
	// OriginPath is the directory or file location the source was
	// discovered at, slash-separated and rooted at the repository.
	OriginPath string `json:"originPath"`
	// MatchPattern is the glob expression for path-specific sources.
	// It is set if and only if Scope is ScopePath.
	MatchPattern string `json:"matchPattern,omitempty"`
	// ExcludedAgents lists agent ids this source must not apply to.
	ExcludedAgents []string `json:"excludedAgents,omitempty"`
	// Content is the opaque instruction payload.
	Content string `json:"content"`
	// Size is the measured size of Content as accounted by the budget
	// allocator. Loaders set it to the content byte length.
	Size int `json:"size"`

	// Name and Description are present for skill-scope sources only and
	// are interpreted solely by the external skill selector.
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// EffectiveTier returns the source tier, defaulting to TierRepository.
func (s *Source) EffectiveTier() Tier {
	if s.Tier == "" {
		return TierRepository
	}
	return s.Tier
}

// AppliesTo reports whether the source may apply for the given agent.
func (s *Source) AppliesTo(agentID string) bool {
	for _, excluded := range s.ExcludedAgents {
		if excluded == agentID {
			return false
		}
	}
	return true
}
