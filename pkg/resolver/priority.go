package resolver

import (
	"sort"

	"github.com/agentctx/agentctx/pkg/sources"
)

// Merger combines scope results with authorship tiers into one ordered
// candidate list. Higher-priority candidates come first and are the last
// to be dropped under budget pressure: personal intent is never sacrificed
// before broader guidance, and organization-wide defaults go first.
type Merger struct {
	reg    *sources.Registry
	scopes *ScopeResolver
}

// NewMerger returns a merger over the given registry.
func NewMerger(reg *sources.Registry) *Merger {
	return &Merger{reg: reg, scopes: NewScopeResolver(reg)}
}

// Merge produces the ordered candidate list for one resolution:
//
//  1. personal-tier sources, deepest origin first
//  2. nearest directory-scoped source (repository tier)
//  3. matched path-specific sources (repository tier), most specific first
//  4. the active skill, when one was selected through the skill gate
//  5. repository-wide sources
//  6. organization-tier sources
//
// Nearest-wins is preserved inside every tier bracket, and agent
// exclusions apply to all scopes.
func (m *Merger) Merge(targetPath, agentID string, skill *sources.Source) ([]*sources.Source, error) {
	var candidates []*sources.Source

	personal, err := m.tierBracket(targetPath, agentID, sources.TierPersonal)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, personal...)

	nearest, err := m.scopes.NearestDirectory(targetPath, sources.TierRepository)
	if err != nil {
		return nil, err
	}
	if nearest != nil && nearest.AppliesTo(agentID) {
		candidates = append(candidates, nearest)
	}

	candidates = append(candidates, m.scopes.MatchPathSpecific(targetPath, agentID, sources.TierRepository)...)

	// A skill is more specific than general repository guidance but less
	// authoritative than personal or directory overrides.
	if skill != nil && skill.AppliesTo(agentID) {
		candidates = append(candidates, skill)
	}

	for _, src := range m.reg.ByScope(sources.ScopeRepository) {
		if src.EffectiveTier() == sources.TierRepository && src.AppliesTo(agentID) {
			candidates = append(candidates, src)
		}
	}

	organization, err := m.tierBracket(targetPath, agentID, sources.TierOrganization)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, organization...)

	return candidates, nil
}

// tierBracket gathers the eligible sources of one non-repository tier:
// that tier's repository-wide sources, its nearest directory-scoped
// source, and its matched path-specific sources, ordered by origin depth
// (deeper first) with a stable id tie-break.
func (m *Merger) tierBracket(targetPath, agentID string, tier sources.Tier) ([]*sources.Source, error) {
	var bracket []*sources.Source

	nearest, err := m.scopes.NearestDirectory(targetPath, tier)
	if err != nil {
		return nil, err
	}
	if nearest != nil && nearest.AppliesTo(agentID) {
		bracket = append(bracket, nearest)
	}

	bracket = append(bracket, m.scopes.MatchPathSpecific(targetPath, agentID, tier)...)

	for _, src := range m.reg.ByScope(sources.ScopeRepository) {
		if src.EffectiveTier() == tier && src.AppliesTo(agentID) {
			bracket = append(bracket, src)
		}
	}

	sort.SliceStable(bracket, func(i, j int) bool {
		di, dj := pathDepth(normalizePath(bracket[i].OriginPath)), pathDepth(normalizePath(bracket[j].OriginPath))
		if di != dj {
			return di > dj
		}
		return bracket[i].ID < bracket[j].ID
	})
	return bracket, nil
}
