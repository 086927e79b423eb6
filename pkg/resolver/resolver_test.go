package resolver

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentctx/agentctx/pkg/sources"
	"github.com/agentctx/agentctx/pkg/types/resolution"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("budget pressure drops the lowest priority source", func(t *testing.T) {
		reg := mustRegistry(t, []sources.Source{
			{ID: "repo-wide", Scope: sources.ScopeRepository, OriginPath: "/", Content: strings.Repeat("r", 50), Size: 50},
			{ID: "pkg-dir", Scope: sources.ScopeDirectory, OriginPath: "/pkg", Content: strings.Repeat("d", 30), Size: 30},
			{ID: "py-rules", Scope: sources.ScopePath, MatchPattern: "pkg/**/*.py", Content: strings.Repeat("p", 40), Size: 40},
		})

		result, err := New(reg).Resolve(ctx, resolution.Request{
			TargetPath:  "/pkg/x.py",
			BudgetLimit: 100,
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"pkg-dir", "py-rules"}, result.IncludedIDs())
		assert.True(t, result.HasDiagnostic(resolution.DroppedForBudget, "repo-wide"))
		assert.NotContains(t, result.Content, "r")
	})

	t.Run("drop order follows tier priority", func(t *testing.T) {
		reg := mustRegistry(t, []sources.Source{
			{ID: "personal", Scope: sources.ScopeRepository, OriginPath: "/", Tier: sources.TierPersonal, Content: strings.Repeat("a", 40), Size: 40},
			{ID: "dir", Scope: sources.ScopeDirectory, OriginPath: "/pkg", Content: strings.Repeat("b", 40), Size: 40},
			{ID: "path", Scope: sources.ScopePath, MatchPattern: "pkg/**", Content: strings.Repeat("c", 40), Size: 40},
			{ID: "repo-wide", Scope: sources.ScopeRepository, OriginPath: "/", Content: strings.Repeat("d", 40), Size: 40},
			{ID: "org", Scope: sources.ScopeRepository, OriginPath: "/", Tier: sources.TierOrganization, Content: strings.Repeat("e", 40), Size: 40},
		})
		eng := New(reg)

		budgets := map[int][]string{
			40:  {"personal"},
			80:  {"personal", "dir"},
			120: {"personal", "dir", "path"},
			160: {"personal", "dir", "path", "repo-wide"},
			200: {"personal", "dir", "path", "repo-wide", "org"},
		}
		for limit, want := range budgets {
			result, err := eng.Resolve(ctx, resolution.Request{TargetPath: "/pkg/x.py", BudgetLimit: limit})
			require.NoError(t, err)
			assert.Equal(t, want, result.IncludedIDs(), "budget %d", limit)
		}
	})

	t.Run("everything fits under a generous budget", func(t *testing.T) {
		reg := mustRegistry(t, []sources.Source{
			{ID: "repo-wide", Scope: sources.ScopeRepository, OriginPath: "/", Content: "repo", Size: 4},
			{ID: "pkg-dir", Scope: sources.ScopeDirectory, OriginPath: "/pkg", Content: "dir", Size: 3},
		})

		result, err := New(reg).Resolve(ctx, resolution.Request{
			TargetPath:  "/pkg/x.py",
			BudgetLimit: 1000,
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"pkg-dir", "repo-wide"}, result.IncludedIDs())
		assert.Equal(t, "dir\n\nrepo", result.Content)
	})

	t.Run("identical requests produce identical results", func(t *testing.T) {
		reg := mustRegistry(t, []sources.Source{
			{ID: "repo-wide", Scope: sources.ScopeRepository, OriginPath: "/", Content: "repo", Size: 4},
			{ID: "rules", Scope: sources.ScopePath, MatchPattern: "**/*.go", Content: "rules", Size: 5},
			{ID: "bad", Scope: sources.ScopePath, MatchPattern: "[unterminated", Content: "x", Size: 1},
		})
		eng := New(reg)
		req := resolution.Request{TargetPath: "/main.go", AgentID: "agent", BudgetLimit: 100}

		first, err := eng.Resolve(ctx, req)
		require.NoError(t, err)
		second, err := eng.Resolve(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("registry diagnostics are carried into the result", func(t *testing.T) {
		reg := mustRegistry(t, []sources.Source{
			{ID: "bad", Scope: sources.ScopePath, MatchPattern: "[unterminated", Content: "x", Size: 1},
		})

		result, err := New(reg).Resolve(ctx, resolution.Request{TargetPath: "/main.go", BudgetLimit: 10})
		require.NoError(t, err)
		assert.True(t, result.HasDiagnostic(resolution.InvalidGlobPattern, "bad"))
	})

	t.Run("active skill is injected and budgeted", func(t *testing.T) {
		reg := mustRegistry(t, []sources.Source{
			{ID: "repo-wide", Scope: sources.ScopeRepository, OriginPath: "/", Content: "repo", Size: 4},
			{ID: "skill", Scope: sources.ScopeSkill, Name: "deploy", Description: "deploys", Content: "skill", Size: 5},
		})

		result, err := New(reg).Resolve(ctx, resolution.Request{
			TargetPath:    "/main.go",
			BudgetLimit:   100,
			ActiveSkillID: "skill",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"skill", "repo-wide"}, result.IncludedIDs())
	})

	t.Run("skill absent without gate injection", func(t *testing.T) {
		reg := mustRegistry(t, []sources.Source{
			{ID: "repo-wide", Scope: sources.ScopeRepository, OriginPath: "/", Content: "repo", Size: 4},
			{ID: "skill", Scope: sources.ScopeSkill, Name: "deploy", Description: "deploys", Content: "skill", Size: 5},
		})

		result, err := New(reg).Resolve(ctx, resolution.Request{TargetPath: "/main.go", BudgetLimit: 100})
		require.NoError(t, err)
		assert.Equal(t, []string{"repo-wide"}, result.IncludedIDs())
	})

	t.Run("request validation", func(t *testing.T) {
		reg := mustRegistry(t, nil)
		eng := New(reg)

		_, err := eng.Resolve(ctx, resolution.Request{BudgetLimit: 10})
		assert.Error(t, err)

		_, err = eng.Resolve(ctx, resolution.Request{TargetPath: "/x", BudgetLimit: -1})
		assert.Error(t, err)

		_, err = eng.Resolve(ctx, resolution.Request{TargetPath: "/x", BudgetLimit: 10, ActiveSkillID: "missing"})
		assert.Error(t, err)
	})

	t.Run("active skill must have skill scope", func(t *testing.T) {
		reg := mustRegistry(t, []sources.Source{
			{ID: "repo-wide", Scope: sources.ScopeRepository, OriginPath: "/", Content: "repo", Size: 4},
		})

		_, err := New(reg).Resolve(ctx, resolution.Request{
			TargetPath:    "/x",
			BudgetLimit:   10,
			ActiveSkillID: "repo-wide",
		})
		assert.Error(t, err)
	})
}

func TestResolveConcurrent(t *testing.T) {
	reg := mustRegistry(t, []sources.Source{
		{ID: "repo-wide", Scope: sources.ScopeRepository, OriginPath: "/", Content: "repo", Size: 4},
		{ID: "rules", Scope: sources.ScopePath, MatchPattern: "**/*.go", Content: "rules", Size: 5},
	})
	eng := New(reg)

	done := make(chan *resolution.Result, 16)
	for i := 0; i < 16; i++ {
		go func() {
			result, err := eng.Resolve(context.Background(), resolution.Request{
				TargetPath:  "/pkg/main.go",
				BudgetLimit: 100,
			})
			assert.NoError(t, err)
			done <- result
		}()
	}

	first := <-done
	for i := 1; i < 16; i++ {
		assert.Equal(t, first, <-done)
	}
}
