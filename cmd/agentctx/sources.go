package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/agentctx/agentctx/pkg/presenter"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the instruction sources in the registry",
	Long: `List every discovered instruction source with its scope, tier,
origin, and size. Use --match to filter ids by glob pattern.

Examples:
  agentctx sources
  agentctx sources --match 'repository:*'
  agentctx sources --match '*skill*'`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		pattern, _ := cmd.Flags().GetString("match")

		var matcher glob.Glob
		if pattern != "" {
			var err error
			matcher, err = glob.Compile(pattern)
			if err != nil {
				presenter.Error(err, "invalid --match pattern")
				return errors.Wrapf(err, "compiling pattern %q", pattern)
			}
		}

		config, err := loadConfig()
		if err != nil {
			presenter.Error(err, "failed to load configuration")
			return err
		}
		reg, err := buildRegistry(ctx, config)
		if err != nil {
			presenter.Error(err, "failed to build registry")
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSCOPE\tTIER\tORIGIN\tSIZE\tPATTERN")
		shown := 0
		for _, src := range reg.All() {
			if matcher != nil && !matcher.Match(src.ID) {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				src.ID, src.Scope, src.EffectiveTier(), src.OriginPath, src.Size, src.MatchPattern)
			shown++
		}
		w.Flush()

		for _, d := range reg.Diagnostics() {
			presenter.Warning(fmt.Sprintf("%s: %s %s", d.Code, d.SourceID, d.Detail))
		}
		presenter.Info(fmt.Sprintf("%d of %d sources shown", shown, reg.Len()))
		return nil
	},
}

func init() {
	sourcesCmd.Flags().StringP("match", "m", "", "Glob pattern filtering source ids")
	rootCmd.AddCommand(sourcesCmd)
}
