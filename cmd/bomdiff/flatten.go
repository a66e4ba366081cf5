package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/bitfantasy/nimo-baseline/internal/plm/bomdiff"
	"github.com/spf13/cobra"
)

func newFlattenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flatten TREE",
		Short: "Print the pre-order flat list of a baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := loadTree(args[0])
			if err != nil {
				return err
			}
			return writeFlat(cmd.OutOrStdout(), bomdiff.Flatten(root))
		},
	}
}

func writeFlat(w io.Writer, entries []bomdiff.FlatEntry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DEPTH\tID\tPART NUMBER\tQTY\tPATH")
	for i := range entries {
		e := &entries[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			e.Depth, e.ID, bomdiff.FormatText(e.PartNumber), bomdiff.FormatQuantity(e.Quantity), e.JoinedPath())
	}
	return tw.Flush()
}
