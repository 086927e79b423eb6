package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentctx/agentctx/pkg/sources"
)

func candidateIDs(t *testing.T, reg *sources.Registry, targetPath, agentID string, skill *sources.Source) []string {
	t.Helper()
	candidates, err := NewMerger(reg).Merge(targetPath, agentID, skill)
	require.NoError(t, err)
	ids := make([]string, 0, len(candidates))
	for _, src := range candidates {
		ids = append(ids, src.ID)
	}
	return ids
}

func TestMergeOrdering(t *testing.T) {
	t.Run("tier brackets in priority order", func(t *testing.T) {
		reg := mustRegistry(t, []sources.Source{
			{ID: "org", Scope: sources.ScopeRepository, OriginPath: "/", Tier: sources.TierOrganization},
			{ID: "repo-wide", Scope: sources.ScopeRepository, OriginPath: "/"},
			{ID: "dir", Scope: sources.ScopeDirectory, OriginPath: "/src"},
			{ID: "path", Scope: sources.ScopePath, MatchPattern: "src/**/*.go"},
			{ID: "personal", Scope: sources.ScopeRepository, OriginPath: "/", Tier: sources.TierPersonal},
		})

		ids := candidateIDs(t, reg, "/src/main.go", "", nil)
		assert.Equal(t, []string{"personal", "dir", "path", "repo-wide", "org"}, ids)
	})

	t.Run("skill ranks between path-specific and repository-wide", func(t *testing.T) {
		reg := mustRegistry(t, []sources.Source{
			{ID: "repo-wide", Scope: sources.ScopeRepository, OriginPath: "/"},
			{ID: "path", Scope: sources.ScopePath, MatchPattern: "**/*.go"},
			{ID: "skill", Scope: sources.ScopeSkill, Name: "deploy", Description: "deploys"},
		})
		skill, ok := reg.Get("skill")
		require.True(t, ok)

		ids := candidateIDs(t, reg, "/main.go", "", skill)
		assert.Equal(t, []string{"path", "skill", "repo-wide"}, ids)
	})

	t.Run("personal bracket ordered by origin depth", func(t *testing.T) {
		reg := mustRegistry(t, []sources.Source{
			{ID: "personal-root", Scope: sources.ScopeRepository, OriginPath: "/", Tier: sources.TierPersonal},
			{ID: "personal-dir", Scope: sources.ScopeDirectory, OriginPath: "/src/backend", Tier: sources.TierPersonal},
			{ID: "personal-path", Scope: sources.ScopePath, OriginPath: "/src", MatchPattern: "**/*.go", Tier: sources.TierPersonal},
		})

		ids := candidateIDs(t, reg, "/src/backend/main.go", "", nil)
		assert.Equal(t, []string{"personal-dir", "personal-path", "personal-root"}, ids)
	})

	t.Run("nearest wins inside non-repository tiers", func(t *testing.T) {
		reg := mustRegistry(t, []sources.Source{
			{ID: "personal-shallow", Scope: sources.ScopeDirectory, OriginPath: "/", Tier: sources.TierPersonal},
			{ID: "personal-deep", Scope: sources.ScopeDirectory, OriginPath: "/src", Tier: sources.TierPersonal},
		})

		ids := candidateIDs(t, reg, "/src/main.go", "", nil)
		assert.Equal(t, []string{"personal-deep"}, ids)
	})

	t.Run("agent exclusions apply to every scope", func(t *testing.T) {
		reg := mustRegistry(t, []sources.Source{
			{ID: "dir", Scope: sources.ScopeDirectory, OriginPath: "/src", ExcludedAgents: []string{"review-agent"}},
			{ID: "repo-wide", Scope: sources.ScopeRepository, OriginPath: "/"},
		})

		assert.Equal(t, []string{"repo-wide"}, candidateIDs(t, reg, "/src/main.go", "review-agent", nil))
		assert.Equal(t, []string{"dir", "repo-wide"}, candidateIDs(t, reg, "/src/main.go", "code-agent", nil))
	})

	t.Run("unmatched path-specific sources are absent", func(t *testing.T) {
		reg := mustRegistry(t, []sources.Source{
			{ID: "py-rules", Scope: sources.ScopePath, MatchPattern: "**/*.py"},
			{ID: "repo-wide", Scope: sources.ScopeRepository, OriginPath: "/"},
		})

		ids := candidateIDs(t, reg, "/src/main.go", "", nil)
		assert.Equal(t, []string{"repo-wide"}, ids)
	})
}
