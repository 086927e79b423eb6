// Package skillgate is the contract boundary to the external skill
// selection collaborator. Matching a task description against skill
// descriptions is a semantic judgment made by the host assistant and must
// be treated as nondeterministic; the engine's only obligation is to
// expose the catalog, validate the choice, and hand the chosen source to
// the resolver for injection.
package skillgate

import (
	"context"

	"github.com/pkg/errors"

	"github.com/agentctx/agentctx/pkg/logger"
	"github.com/agentctx/agentctx/pkg/sources"
)

// SkillInfo is the catalog entry exposed to an external selector. Name
// and description are the only fields a selector should interpret.
type SkillInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Size        int    `json:"size"`
}

// Selector chooses at most one skill for a task. Returning an empty id
// means no skill applies.
type Selector interface {
	SelectSkill(ctx context.Context, taskDescription string, catalog []SkillInfo) (string, error)
}

// SelectorFunc adapts a function to the Selector interface.
type SelectorFunc func(ctx context.Context, taskDescription string, catalog []SkillInfo) (string, error)

// SelectSkill implements Selector.
func (f SelectorFunc) SelectSkill(ctx context.Context, taskDescription string, catalog []SkillInfo) (string, error) {
	return f(ctx, taskDescription, catalog)
}

// NameSelector returns a deterministic selector matching a skill by its
// exact name. Used by the CLI where the operator names the skill directly.
func NameSelector(name string) Selector {
	return SelectorFunc(func(_ context.Context, _ string, catalog []SkillInfo) (string, error) {
		for _, info := range catalog {
			if info.Name == name {
				return info.ID, nil
			}
		}
		return "", errors.Errorf("skill %q not found", name)
	})
}

// Catalog lists the registry's skill-scope sources for an external
// selector.
func Catalog(reg *sources.Registry) []SkillInfo {
	skills := reg.Skills()
	catalog := make([]SkillInfo, 0, len(skills))
	for _, src := range skills {
		catalog = append(catalog, SkillInfo{
			ID:          src.ID,
			Name:        src.Name,
			Description: src.Description,
			Size:        src.Size,
		})
	}
	return catalog
}

// Choose runs the selector against the registry's skill catalog and
// returns the chosen source, validated against the registry. A nil source
// with nil error means the selector declined to pick a skill.
func Choose(ctx context.Context, reg *sources.Registry, sel Selector, taskDescription string) (*sources.Source, error) {
	catalog := Catalog(reg)
	if len(catalog) == 0 {
		return nil, nil
	}

	id, err := sel.SelectSkill(ctx, taskDescription, catalog)
	if err != nil {
		return nil, errors.Wrap(err, "skill selection failed")
	}
	if id == "" {
		return nil, nil
	}

	src, ok := reg.Get(id)
	if !ok {
		return nil, errors.Errorf("selector returned unknown source %q", id)
	}
	if src.Scope != sources.ScopeSkill {
		return nil, errors.Errorf("selector returned non-skill source %q (scope %s)", id, src.Scope)
	}

	logger.G(ctx).WithField("skill", src.Name).Debug("skill selected")
	return src, nil
}
