package resolver

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/agentctx/agentctx/pkg/budget"
	"github.com/agentctx/agentctx/pkg/logger"
	"github.com/agentctx/agentctx/pkg/sources"
	"github.com/agentctx/agentctx/pkg/telemetry"
	"github.com/agentctx/agentctx/pkg/types/resolution"
)

// Engine resolves which instruction sources apply to a target path and
// assembles them into a single context payload under the budget limit.
// Resolution is a pure computation over the registry snapshot: identical
// requests against the same registry produce byte-identical results, and
// concurrent resolutions need no coordination.
type Engine struct {
	reg    *sources.Registry
	merger *Merger
}

// New returns an engine over the given registry snapshot.
func New(reg *sources.Registry) *Engine {
	return &Engine{reg: reg, merger: NewMerger(reg)}
}

// Resolve answers one resolution request. Construction-time diagnostics of
// the registry (invalid patterns, malformed sources) are carried into the
// result ahead of any budget diagnostics so callers see everything that
// was dropped and why.
func (e *Engine) Resolve(ctx context.Context, req resolution.Request) (*resolution.Result, error) {
	if req.TargetPath == "" {
		return nil, errors.New("target path is required")
	}
	if req.BudgetLimit < 0 {
		return nil, errors.Errorf("budget limit cannot be negative: %d", req.BudgetLimit)
	}

	var skill *sources.Source
	if req.ActiveSkillID != "" {
		src, ok := e.reg.Get(req.ActiveSkillID)
		if !ok {
			return nil, errors.Errorf("active skill %q not found in registry", req.ActiveSkillID)
		}
		if src.Scope != sources.ScopeSkill {
			return nil, errors.Errorf("active skill %q has scope %s, expected %s", req.ActiveSkillID, src.Scope, sources.ScopeSkill)
		}
		skill = src
	}

	var result *resolution.Result
	err := telemetry.WithSpan(ctx, "resolver.resolve", func(ctx context.Context) error {
		candidates, err := e.merger.Merge(req.TargetPath, req.AgentID, skill)
		if err != nil {
			return err
		}

		logger.G(ctx).WithField("target_path", req.TargetPath).
			WithField("agent_id", req.AgentID).
			WithField("candidates", len(candidates)).
			Debug("merged candidate sources")

		result = budget.Allocate(candidates, req.BudgetLimit)
		result.Diagnostics = append(e.reg.Diagnostics(), result.Diagnostics...)
		return nil
	},
		attribute.String("resolution.target_path", req.TargetPath),
		attribute.String("resolution.agent_id", req.AgentID),
		attribute.Int("resolution.budget_limit", req.BudgetLimit),
	)
	if err != nil {
		return nil, err
	}

	return result, nil
}
