package sources

import (
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/agentctx/agentctx/pkg/types/resolution"
)

var (
	// ErrDuplicateSourceID is returned when two sources share an id;
	// the registry cannot be built.
	ErrDuplicateSourceID = errors.New("duplicate source id")
	// ErrAmbiguousScopeConflict is returned when two directory-scoped
	// sources of the same tier share an origin path, which breaks
	// nearest-wins selection.
	ErrAmbiguousScopeConflict = errors.New("ambiguous scope conflict")
)

// Registry is an immutable snapshot of all known instruction sources for
// one resolution session. It is safe for concurrent reads without locking.
type Registry struct {
	sessionID string
	ordered   []*Source
	byID      map[string]*Source
	byScope   map[Scope][]*Source
	byTier    map[Tier][]*Source

	invalidPattern map[string]bool
	diagnostics    []resolution.Diagnostic
}

// NewRegistry builds a registry from an enumerated set of sources.
//
// Duplicate ids and duplicate directory-scoped origins are construction
// errors. A path-specific source with an unparseable glob pattern, or a
// source violating the pattern-iff-path-specific invariant, is recorded
// as a diagnostic and excluded from matching rather than aborting
// construction.
func NewRegistry(srcs []Source) (*Registry, error) {
	r := &Registry{
		sessionID:      uuid.NewString(),
		byID:           make(map[string]*Source, len(srcs)),
		byScope:        make(map[Scope][]*Source),
		byTier:         make(map[Tier][]*Source),
		invalidPattern: make(map[string]bool),
	}

	dirOrigins := make(map[Tier]map[string]string)

	for i := range srcs {
		src := srcs[i] // copy; the registry owns its snapshot
		if _, exists := r.byID[src.ID]; exists {
			return nil, errors.Wrapf(ErrDuplicateSourceID, "source %q", src.ID)
		}

		if malformed := structuralProblem(&src); malformed != "" {
			r.byID[src.ID] = &src
			r.diagnostics = append(r.diagnostics, resolution.Diagnostic{
				Code:     resolution.MalformedSource,
				SourceID: src.ID,
				Detail:   malformed,
			})
			continue
		}

		if src.Scope == ScopeDirectory {
			tier := src.EffectiveTier()
			if dirOrigins[tier] == nil {
				dirOrigins[tier] = make(map[string]string)
			}
			origin := normalizeOrigin(src.OriginPath)
			if other, exists := dirOrigins[tier][origin]; exists {
				return nil, errors.Wrapf(ErrAmbiguousScopeConflict,
					"sources %q and %q share origin %q at tier %s", other, src.ID, origin, tier)
			}
			dirOrigins[tier][origin] = src.ID
		}

		if src.Scope == ScopePath {
			if !doublestar.ValidatePattern(src.MatchPattern) {
				r.invalidPattern[src.ID] = true
				r.diagnostics = append(r.diagnostics, resolution.Diagnostic{
					Code:     resolution.InvalidGlobPattern,
					SourceID: src.ID,
					Detail:   src.MatchPattern,
				})
			}
		}

		r.byID[src.ID] = &src
		r.ordered = append(r.ordered, &src)
		r.byScope[src.Scope] = append(r.byScope[src.Scope], &src)
		r.byTier[src.EffectiveTier()] = append(r.byTier[src.EffectiveTier()], &src)
	}

	// Canonical enumeration order keeps resolution deterministic
	// regardless of loader ordering.
	sortByID(r.ordered)
	for _, list := range r.byScope {
		sortByID(list)
	}
	for _, list := range r.byTier {
		sortByID(list)
	}

	return r, nil
}

// structuralProblem reports why a source violates the data model, or ""
// if it is well formed.
func structuralProblem(src *Source) string {
	switch {
	case src.Scope == ScopePath && src.MatchPattern == "":
		return "path-specific source missing match pattern"
	case src.Scope != ScopePath && src.MatchPattern != "":
		return "match pattern set on non-path-specific source"
	}
	return ""
}

func sortByID(list []*Source) {
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
}

// SessionID identifies this registry snapshot.
func (r *Registry) SessionID() string { return r.sessionID }

// Len returns the number of well-formed sources in the registry.
func (r *Registry) Len() int { return len(r.ordered) }

// Get returns the source with the given id, if present.
func (r *Registry) Get(id string) (*Source, bool) {
	src, ok := r.byID[id]
	return src, ok
}

// All returns every well-formed source in canonical id order.
func (r *Registry) All() []*Source {
	return append([]*Source(nil), r.ordered...)
}

// ByScope returns the well-formed sources with the given scope.
func (r *Registry) ByScope(scope Scope) []*Source {
	return append([]*Source(nil), r.byScope[scope]...)
}

// ByTier returns the well-formed sources with the given effective tier.
func (r *Registry) ByTier(tier Tier) []*Source {
	return append([]*Source(nil), r.byTier[tier]...)
}

// Skills returns the skill-scope sources forming the skill gate catalog.
func (r *Registry) Skills() []*Source {
	return r.ByScope(ScopeSkill)
}

// InvalidPattern reports whether the given path-specific source carries an
// unparseable glob pattern and must be excluded from all matches.
func (r *Registry) InvalidPattern(id string) bool {
	return r.invalidPattern[id]
}

// Diagnostics returns construction-time diagnostics (invalid glob
// patterns, malformed sources).
func (r *Registry) Diagnostics() []resolution.Diagnostic {
	return append([]resolution.Diagnostic(nil), r.diagnostics...)
}
