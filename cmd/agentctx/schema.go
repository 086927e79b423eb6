package main

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/agentctx/agentctx/pkg/loader"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema for *.instructions.md frontmatter",
	Long: `Print the JSON Schema describing the YAML frontmatter of
path-specific instruction files, for use by editors and validators.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		reflector := &jsonschema.Reflector{DoNotReference: true}
		schema := reflector.Reflect(&loader.InstructionsFrontmatter{})

		out, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal schema")
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
