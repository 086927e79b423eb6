package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentctx/agentctx/pkg/sources"
	"github.com/agentctx/agentctx/pkg/types/resolution"
)

func src(id string, scope sources.Scope, size int) *sources.Source {
	content := make([]byte, size)
	for i := range content {
		content[i] = 'x'
	}
	return &sources.Source{ID: id, Scope: scope, Content: string(content), Size: size}
}

func TestAllocate(t *testing.T) {
	t.Run("includes everything that fits", func(t *testing.T) {
		result := Allocate([]*sources.Source{
			src("a", sources.ScopeDirectory, 30),
			src("b", sources.ScopePath, 40),
		}, 100)

		assert.Equal(t, []string{"a", "b"}, result.IncludedIDs())
		assert.Empty(t, result.Diagnostics)
		assert.Len(t, result.Content, 72) // 30 + 40 + separator
	})

	t.Run("drops lowest priority first under pressure", func(t *testing.T) {
		result := Allocate([]*sources.Source{
			src("dir", sources.ScopeDirectory, 30),
			src("path", sources.ScopePath, 40),
			src("repo", sources.ScopeRepository, 50),
		}, 100)

		assert.Equal(t, []string{"dir", "path"}, result.IncludedIDs())
		assert.True(t, result.HasDiagnostic(resolution.DroppedForBudget, "repo"))
	})

	t.Run("inclusion is atomic for non-skill scopes", func(t *testing.T) {
		result := Allocate([]*sources.Source{
			src("big", sources.ScopeDirectory, 80),
			src("small", sources.ScopePath, 20),
		}, 90)

		// big fits; small is dropped whole rather than truncated
		assert.Equal(t, []string{"big"}, result.IncludedIDs())
		require.Len(t, result.Entries, 2)
		assert.False(t, result.Entries[1].Included)
		assert.False(t, result.Entries[1].Truncated)
		assert.True(t, result.HasDiagnostic(resolution.DroppedForBudget, "small"))
	})

	t.Run("skill content is truncated into remaining space", func(t *testing.T) {
		skill := &sources.Source{ID: "skill", Scope: sources.ScopeSkill, Content: "0123456789", Size: 10}
		result := Allocate([]*sources.Source{
			src("dir", sources.ScopeDirectory, 6),
			skill,
		}, 10)

		require.Len(t, result.Entries, 2)
		assert.True(t, result.Entries[1].Included)
		assert.True(t, result.Entries[1].Truncated)
		assert.True(t, result.HasDiagnostic(resolution.SkillTruncated, "skill"))
		assert.Contains(t, result.Content, "0123")
		assert.NotContains(t, result.Content, "01234")
	})

	t.Run("skill is dropped when nothing remains", func(t *testing.T) {
		skill := &sources.Source{ID: "skill", Scope: sources.ScopeSkill, Content: "abc", Size: 3}
		result := Allocate([]*sources.Source{
			src("dir", sources.ScopeDirectory, 10),
			skill,
		}, 10)

		assert.Equal(t, []string{"dir"}, result.IncludedIDs())
		assert.True(t, result.HasDiagnostic(resolution.DroppedForBudget, "skill"))
	})

	t.Run("source larger than the whole budget", func(t *testing.T) {
		result := Allocate([]*sources.Source{src("huge", sources.ScopeRepository, 200)}, 100)

		assert.Empty(t, result.IncludedIDs())
		assert.True(t, result.HasDiagnostic(resolution.SourceExceedsBudget, "huge"))
	})

	t.Run("zero budget includes nothing with content", func(t *testing.T) {
		result := Allocate([]*sources.Source{src("a", sources.ScopeDirectory, 5)}, 0)
		assert.Empty(t, result.IncludedIDs())
	})
}

func TestAllocateMonotonicity(t *testing.T) {
	candidates := []*sources.Source{
		src("a", sources.ScopeDirectory, 60),
		src("b", sources.ScopePath, 50),
		src("c", sources.ScopePath, 30),
		src("d", sources.ScopeRepository, 70),
	}

	smaller := Allocate(candidates, 100)
	larger := Allocate(candidates, 200)

	largerSet := make(map[string]bool)
	for _, id := range larger.IncludedIDs() {
		largerSet[id] = true
	}
	for _, id := range smaller.IncludedIDs() {
		assert.True(t, largerSet[id], "source %s included at 100 but not at 200", id)
	}
}

func TestAllocateDeterminism(t *testing.T) {
	candidates := []*sources.Source{
		src("a", sources.ScopeDirectory, 30),
		src("b", sources.ScopePath, 40),
		src("c", sources.ScopeRepository, 50),
	}

	first := Allocate(candidates, 100)
	second := Allocate(candidates, 100)
	assert.Equal(t, first, second)
}

func TestTruncateContent(t *testing.T) {
	t.Run("cuts at rune boundary", func(t *testing.T) {
		content := "héllo wörld"
		out := truncateContent(content, len(content), 3)
		assert.True(t, len(out) <= 3)
		for _, r := range out {
			assert.NotEqual(t, '�', r)
		}
	})

	t.Run("full content when remaining covers size", func(t *testing.T) {
		assert.Equal(t, "abc", truncateContent("abc", 3, 3))
	})
}
