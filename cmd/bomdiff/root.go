package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bomdiff",
		Short: "Compare two BOM baselines offline",
		Long: `Compare two BOM baselines offline.

  Baselines are part trees stored as YAML or JSON files. Nodes are matched by id,
  never by position. A part moved under another parent keeps its id and is not
  reported as a change; only its own fields are compared.`,
		Version:       Version + " (" + BuildTime + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCompareCmd(), newFlattenCmd())
	return root
}
