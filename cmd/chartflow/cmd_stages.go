package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dusk-indust/chartflow/internal/export"
	"github.com/dusk-indust/chartflow/internal/stages"
	"github.com/spf13/cobra"
)

var stagesJSON bool

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "List the analysis stages in execution order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		infos := stages.Describe()
		out := cmd.OutOrStdout()

		if stagesJSON {
			data, err := json.MarshalIndent(infos, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal JSON: %w", err)
			}
			_, err = out.Write(append(data, '\n'))
			return err
		}

		fmt.Fprintf(out, "%-4s %-16s %-40s %s\n", "#", "STAGE", "DEPENDS ON", "TOOLS")
		for i, info := range infos {
			deps := "-"
			if len(info.DependsOn) > 0 {
				deps = strings.Join(info.DependsOn, ",")
			}
			fmt.Fprintf(out, "%-4d %-16s %-40s %s\n", i+1, info.ID, deps, strings.Join(info.Tools, ","))
		}
		return nil
	},
}

var diagramCmd = &cobra.Command{
	Use:   "diagram",
	Short: "Print a Mermaid diagram of the stage dependency graph",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprint(cmd.OutOrStdout(), export.GenerateMermaid(stages.Catalogue(), nil))
		return err
	},
}

func init() {
	stagesCmd.Flags().BoolVar(&stagesJSON, "json", false, "print stage descriptions, schemas included, as JSON")
}
