package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentctx/agentctx/pkg/presenter"
	"github.com/agentctx/agentctx/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			out, err := version.Get().JSON()
			if err != nil {
				presenter.Error(err, "failed to render version")
				return err
			}
			fmt.Println(out)
			return nil
		}
		fmt.Println(version.Get().String())
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("json", false, "Print version information as JSON")
	rootCmd.AddCommand(versionCmd)
}
