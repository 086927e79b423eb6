// Package resolver determines which instruction sources apply to a target
// path, orders them by tier and specificity, and assembles the final
// context through the budget allocator.
package resolver

import (
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/agentctx/agentctx/pkg/sources"
)

// ScopeResolver computes per-path eligibility for a registry snapshot.
// It performs no size accounting.
type ScopeResolver struct {
	reg *sources.Registry
}

// NewScopeResolver returns a scope resolver over the given registry.
func NewScopeResolver(reg *sources.Registry) *ScopeResolver {
	return &ScopeResolver{reg: reg}
}

// NearestDirectory returns the directory-scoped source of the given tier
// whose origin is the deepest ancestor of targetPath's containing
// directory. A nil result means no ancestor source exists, which is not an
// error. Two sources at the same depth indicate a registry invariant
// violation and fail with ErrAmbiguousScopeConflict.
func (sr *ScopeResolver) NearestDirectory(targetPath string, tier sources.Tier) (*sources.Source, error) {
	dir := containingDir(targetPath)

	var nearest *sources.Source
	bestDepth := -1
	for _, src := range sr.reg.ByScope(sources.ScopeDirectory) {
		if src.EffectiveTier() != tier {
			continue
		}
		origin := normalizePath(src.OriginPath)
		if !isAncestorDir(origin, dir) {
			continue
		}
		depth := pathDepth(origin)
		switch {
		case depth > bestDepth:
			nearest = src
			bestDepth = depth
		case depth == bestDepth:
			return nil, errors.Wrapf(sources.ErrAmbiguousScopeConflict,
				"sources %q and %q are equally near %q", nearest.ID, src.ID, targetPath)
		}
	}

	return nearest, nil
}

// MatchPathSpecific returns every path-specific source of the given tier
// whose pattern matches targetPath and which applies to the agent. Matches
// are additive; the result is ordered by pattern specificity (fewer
// wildcard segments first) with a stable id tie-break.
func (sr *ScopeResolver) MatchPathSpecific(targetPath, agentID string, tier sources.Tier) []*sources.Source {
	target := normalizePath(targetPath)
	relative := strings.TrimPrefix(target, "/")

	var matched []*sources.Source
	for _, src := range sr.reg.ByScope(sources.ScopePath) {
		if src.EffectiveTier() != tier || sr.reg.InvalidPattern(src.ID) {
			continue
		}
		if !src.AppliesTo(agentID) {
			continue
		}
		if matchGlob(src.MatchPattern, target) || matchGlob(src.MatchPattern, relative) {
			matched = append(matched, src)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		si, sj := patternSpecificity(matched[i].MatchPattern), patternSpecificity(matched[j].MatchPattern)
		if si != sj {
			return si < sj
		}
		return matched[i].ID < matched[j].ID
	})
	return matched
}

func matchGlob(pattern, p string) bool {
	ok, err := doublestar.Match(pattern, p)
	return err == nil && ok
}

// patternSpecificity counts wildcard-bearing segments: fewer means more
// specific.
func patternSpecificity(pattern string) int {
	count := 0
	for _, segment := range strings.Split(pattern, "/") {
		if strings.ContainsAny(segment, "*?[{") {
			count++
		}
	}
	return count
}

// normalizePath canonicalizes a path to clean, slash separated, and root
// anchored form.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// containingDir returns the normalized directory holding targetPath.
func containingDir(targetPath string) string {
	return path.Dir(normalizePath(targetPath))
}

// isAncestorDir reports whether origin is dir or an ancestor of dir.
func isAncestorDir(origin, dir string) bool {
	if origin == "/" {
		return true
	}
	return dir == origin || strings.HasPrefix(dir, origin+"/")
}

// pathDepth counts the segments of a normalized path; "/" has depth zero.
func pathDepth(p string) int {
	if p == "/" {
		return 0
	}
	return strings.Count(p, "/")
}
