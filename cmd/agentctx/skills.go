package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agentctx/agentctx/pkg/presenter"
	"github.com/agentctx/agentctx/pkg/skillgate"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List the skill catalog exposed to the skill gate",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

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

		catalog := skillgate.Catalog(reg)
		if len(catalog) == 0 {
			presenter.Info("no skills discovered")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSIZE\tID\tDESCRIPTION")
		for _, info := range catalog {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", info.Name, info.Size, info.ID, info.Description)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(skillsCmd)
}
