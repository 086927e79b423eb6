// Package loader discovers instruction sources on disk and produces the
// validated records a registry is built from. It is the external
// collaborator of the resolution core: the engine itself never touches
// the filesystem.
//
// Conventions per source tree:
//
//	AGENTS.md              repository-wide (tree root) or directory-scoped
//	**/*.instructions.md   path-specific, YAML frontmatter with applyTo glob
//	skills/<name>/SKILL.md skill, frontmatter with name and description
//
// The repository tree yields repository-tier sources; configured personal
// and organization trees yield their respective tiers.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/agentctx/agentctx/pkg/logger"
	"github.com/agentctx/agentctx/pkg/sources"
)

const (
	agentsFileName     = "AGENTS.md"
	skillFileName      = "SKILL.md"
	instructionsSuffix = ".instructions.md"
	skillsDirName      = "skills"
)

var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
}

// Loader discovers instruction sources from a repository root and
// optional personal and organization trees.
type Loader struct {
	root         string
	personalDirs []string
	orgDirs      []string
}

// Option configures a Loader.
type Option func(*Loader) error

// WithRoot sets the repository root to scan.
func WithRoot(root string) Option {
	return func(l *Loader) error {
		if root == "" {
			return errors.New("root directory cannot be empty")
		}
		l.root = root
		return nil
	}
}

// WithPersonalDirs sets the personal-tier source trees.
func WithPersonalDirs(dirs ...string) Option {
	return func(l *Loader) error {
		l.personalDirs = dirs
		return nil
	}
}

// WithOrgDirs sets the organization-tier source trees.
func WithOrgDirs(dirs ...string) Option {
	return func(l *Loader) error {
		l.orgDirs = dirs
		return nil
	}
}

// WithDefaultDirs scans the current directory with ~/.agentctx as the
// personal tree.
func WithDefaultDirs() Option {
	return func(l *Loader) error {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to get user home directory")
		}
		l.root = "."
		l.personalDirs = []string{filepath.Join(homeDir, ".agentctx")}
		return nil
	}
}

// New creates a loader. Without options it scans the current directory
// and the default personal tree.
func New(opts ...Option) (*Loader, error) {
	l := &Loader{}
	if len(opts) == 0 {
		opts = []Option{WithDefaultDirs()}
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	if l.root == "" {
		l.root = "."
	}
	return l, nil
}

// Load walks every configured tree and returns the discovered sources.
// Per-file failures are aggregated into the returned error while loading
// continues; the sources slice is usable even when the error is non-nil.
func (l *Loader) Load(ctx context.Context) ([]sources.Source, error) {
	var srcs []sources.Source
	var errs *multierror.Error

	trees := []struct {
		dirs []string
		tier sources.Tier
	}{
		{[]string{l.root}, sources.TierRepository},
		{l.personalDirs, sources.TierPersonal},
		{l.orgDirs, sources.TierOrganization},
	}

	for _, group := range trees {
		for i, dir := range group.dirs {
			label := string(group.tier)
			if i > 0 {
				label = fmt.Sprintf("%s#%d", group.tier, i+1)
			}
			l.loadTree(ctx, dir, group.tier, label, &srcs, &errs)
		}
	}

	return srcs, errs.ErrorOrNil()
}

func (l *Loader) loadTree(ctx context.Context, tree string, tier sources.Tier, label string, srcs *[]sources.Source, errs **multierror.Error) {
	if _, err := os.Stat(tree); err != nil {
		logger.G(ctx).WithField("dir", tree).Debug("source tree not present, skipping")
		return
	}

	walkErr := filepath.WalkDir(tree, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			*errs = multierror.Append(*errs, errors.Wrapf(err, "walking %s", p))
			return nil
		}

		if d.IsDir() {
			if p == tree {
				return nil
			}
			name := d.Name()
			if skippedDirs[name] || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if name == skillsDirName {
				l.loadSkillsDir(ctx, tree, p, tier, label, srcs, errs)
				return filepath.SkipDir
			}
			return nil
		}

		switch {
		case d.Name() == agentsFileName:
			l.loadAgentsFile(ctx, tree, p, tier, label, srcs, errs)
		case strings.HasSuffix(d.Name(), instructionsSuffix):
			l.loadInstructionsFile(ctx, tree, p, tier, label, srcs, errs)
		}
		return nil
	})
	if walkErr != nil {
		*errs = multierror.Append(*errs, errors.Wrapf(walkErr, "walking tree %s", tree))
	}
}

func (l *Loader) loadAgentsFile(ctx context.Context, tree, p string, tier sources.Tier, label string, srcs *[]sources.Source, errs **multierror.Error) {
	content, err := os.ReadFile(p)
	if err != nil {
		*errs = multierror.Append(*errs, errors.Wrapf(err, "reading %s", p))
		return
	}

	origin := originOf(tree, filepath.Dir(p))
	scope := sources.ScopeDirectory
	if origin == "/" {
		scope = sources.ScopeRepository
	}

	*srcs = append(*srcs, sources.Source{
		ID:         sourceID(label, tree, p),
		Scope:      scope,
		Tier:       tier,
		OriginPath: origin,
		Content:    string(content),
		Size:       len(content),
	})
	logger.G(ctx).WithField("path", p).WithField("scope", scope).Debug("loaded agents file")
}

func (l *Loader) loadInstructionsFile(ctx context.Context, tree, p string, tier sources.Tier, label string, srcs *[]sources.Source, errs **multierror.Error) {
	raw, err := os.ReadFile(p)
	if err != nil {
		*errs = multierror.Append(*errs, errors.Wrapf(err, "reading %s", p))
		return
	}

	fm, body, err := parseInstructions(string(raw))
	if err != nil {
		*errs = multierror.Append(*errs, errors.Wrapf(err, "parsing %s", p))
		return
	}

	effectiveTier := tier
	if fm.Tier != "" {
		parsed, err := parseTier(fm.Tier)
		if err != nil {
			*errs = multierror.Append(*errs, errors.Wrapf(err, "parsing %s", p))
			return
		}
		effectiveTier = parsed
	}

	*srcs = append(*srcs, sources.Source{
		ID:             sourceID(label, tree, p),
		Scope:          sources.ScopePath,
		Tier:           effectiveTier,
		OriginPath:     originOf(tree, p),
		MatchPattern:   fm.ApplyTo,
		ExcludedAgents: fm.ExcludedAgents,
		Content:        body,
		Size:           len(body),
		Description:    fm.Description,
	})
	logger.G(ctx).WithField("path", p).WithField("pattern", fm.ApplyTo).Debug("loaded instructions file")
}

func (l *Loader) loadSkillsDir(ctx context.Context, tree, dir string, tier sources.Tier, label string, srcs *[]sources.Source, errs **multierror.Error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		*errs = multierror.Append(*errs, errors.Wrapf(err, "reading skills dir %s", dir))
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		skillPath := filepath.Join(dir, entry.Name(), skillFileName)
		raw, err := os.ReadFile(skillPath)
		if err != nil {
			continue // a skills subdirectory without SKILL.md is not a skill
		}

		name, description, body, err := parseSkill(raw)
		if err != nil {
			*errs = multierror.Append(*errs, errors.Wrapf(err, "parsing %s", skillPath))
			continue
		}

		*srcs = append(*srcs, sources.Source{
			ID:          sourceID(label, tree, skillPath),
			Scope:       sources.ScopeSkill,
			Tier:        tier,
			OriginPath:  originOf(tree, filepath.Dir(skillPath)),
			Content:     body,
			Size:        len(body),
			Name:        name,
			Description: description,
		})
		logger.G(ctx).WithField("skill", name).Debug("loaded skill")
	}
}

// originOf maps an absolute or tree-relative location to the root-anchored
// logical path the resolver compares against.
func originOf(tree, p string) string {
	rel, err := filepath.Rel(tree, p)
	if err != nil || rel == "." {
		return "/"
	}
	return "/" + filepath.ToSlash(rel)
}

// sourceID derives a stable identifier from the tier label and the
// tree-relative file path.
func sourceID(label, tree, p string) string {
	rel, err := filepath.Rel(tree, p)
	if err != nil {
		rel = p
	}
	return label + ":" + filepath.ToSlash(rel)
}

func parseTier(s string) (sources.Tier, error) {
	switch sources.Tier(s) {
	case sources.TierPersonal, sources.TierRepository, sources.TierOrganization:
		return sources.Tier(s), nil
	}
	return "", errors.Errorf("unknown tier %q", s)
}
