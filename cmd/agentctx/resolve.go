package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
	"github.com/spf13/cobra"

	"github.com/agentctx/agentctx/pkg/logger"
	"github.com/agentctx/agentctx/pkg/presenter"
	"github.com/agentctx/agentctx/pkg/resolver"
	"github.com/agentctx/agentctx/pkg/skillgate"
	"github.com/agentctx/agentctx/pkg/sources"
	"github.com/agentctx/agentctx/pkg/types/resolution"
)

// ResolveOptions holds the resolve command flags.
type ResolveOptions struct {
	AgentID  string
	Budget   int
	Skill    string
	Task     string
	Output   string
	Watch    bool
	Debounce int
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <target-path>",
	Short: "Assemble the instruction context for a file",
	Long: `Resolve which instruction sources apply to the target path and
assemble them into one context payload under the size budget.

With --watch the source trees are monitored and the context is
re-resolved from a fresh registry whenever a file changes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		opts := resolveOptionsFromFlags(cmd)

		config, err := loadConfig()
		if err != nil {
			presenter.Error(err, "failed to load configuration")
			return err
		}
		if opts.AgentID == "" {
			opts.AgentID = config.AgentID
		}
		if opts.Budget <= 0 {
			opts.Budget = config.Budget
		}

		if opts.Watch {
			return watchAndResolve(ctx, config, opts, args[0])
		}
		return resolveOnce(ctx, config, opts, args[0])
	},
}

func init() {
	resolveCmd.Flags().StringP("agent", "a", "", "Requesting agent id for exclusion filtering")
	resolveCmd.Flags().IntP("budget", "b", 0, "Maximum total content size (defaults to config)")
	resolveCmd.Flags().StringP("skill", "s", "", "Name of a skill to inject through the skill gate")
	resolveCmd.Flags().String("task", "", "Task description passed to the skill selector")
	resolveCmd.Flags().StringP("output", "o", "", "Write the assembled context to a file instead of stdout")
	resolveCmd.Flags().BoolP("watch", "w", false, "Re-resolve whenever source files change")
	resolveCmd.Flags().Int("debounce", 500, "Watch debounce time in milliseconds")
	rootCmd.AddCommand(resolveCmd)
}

func resolveOptionsFromFlags(cmd *cobra.Command) *ResolveOptions {
	opts := &ResolveOptions{}
	opts.AgentID, _ = cmd.Flags().GetString("agent")
	opts.Budget, _ = cmd.Flags().GetInt("budget")
	opts.Skill, _ = cmd.Flags().GetString("skill")
	opts.Task, _ = cmd.Flags().GetString("task")
	opts.Output, _ = cmd.Flags().GetString("output")
	opts.Watch, _ = cmd.Flags().GetBool("watch")
	opts.Debounce, _ = cmd.Flags().GetInt("debounce")
	return opts
}

func resolveOnce(ctx context.Context, config *Config, opts *ResolveOptions, targetPath string) error {
	reg, err := buildRegistry(ctx, config)
	if err != nil {
		presenter.Error(err, "failed to build registry")
		return err
	}

	req := resolution.Request{
		TargetPath:  targetPath,
		AgentID:     opts.AgentID,
		BudgetLimit: opts.Budget,
	}

	if opts.Skill != "" {
		skill, err := skillgate.Choose(ctx, reg, skillgate.NameSelector(opts.Skill), opts.Task)
		if err != nil {
			presenter.Error(err, "skill selection failed")
			return err
		}
		if skill != nil {
			req.ActiveSkillID = skill.ID
		}
	}

	result, err := resolver.New(reg).Resolve(ctx, req)
	if err != nil {
		presenter.Error(err, "resolution failed")
		return err
	}

	reportDiagnostics(reg, result)

	if opts.Output != "" {
		if err := lockedfile.Write(opts.Output, strings.NewReader(result.Content), 0o644); err != nil {
			presenter.Error(err, "failed to write output")
			return errors.Wrapf(err, "writing %s", opts.Output)
		}
		presenter.Success(fmt.Sprintf("wrote %d sources to %s", len(result.IncludedIDs()), opts.Output))
		return nil
	}

	fmt.Println(result.Content)
	return nil
}

func reportDiagnostics(reg *sources.Registry, result *resolution.Result) {
	included := result.IncludedIDs()
	presenter.Info(fmt.Sprintf("session %s: %d candidates, %d included", reg.SessionID(), len(result.Entries), len(included)))
	for _, d := range result.Diagnostics {
		presenter.Warning(fmt.Sprintf("%s: %s %s", d.Code, d.SourceID, d.Detail))
	}
}

// watchAndResolve re-runs the resolution from a freshly built registry
// whenever a file under the configured trees changes. Each rebuild is a
// new session; the registry itself is never mutated.
func watchAndResolve(ctx context.Context, config *Config, opts *ResolveOptions, targetPath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	trees := append([]string{config.Root}, config.PersonalDirs...)
	trees = append(trees, config.OrgDirs...)
	for _, tree := range trees {
		if err := watchTree(watcher, tree); err != nil {
			logger.G(ctx).WithError(err).WithField("dir", tree).Warn("failed to watch tree")
		}
	}

	if err := resolveOnce(ctx, config, opts, targetPath); err != nil {
		return err
	}

	debounce := time.Duration(opts.Debounce) * time.Millisecond
	var timer *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			logger.G(ctx).WithField("file", event.Name).WithField("op", event.Op.String()).Debug("file event")
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.G(ctx).WithError(err).Warn("watcher error")
		case <-pending:
			presenter.Section("sources changed, re-resolving")
			if err := resolveOnce(ctx, config, opts, targetPath); err != nil {
				presenter.Error(err, "re-resolution failed")
			}
		}
	}
}

func watchTree(watcher *fsnotify.Watcher, tree string) error {
	if _, err := os.Stat(tree); err != nil {
		return err
	}
	return filepath.WalkDir(tree, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		name := d.Name()
		if p != tree && (name == ".git" || name == "node_modules" || strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	})
}
