package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/bitfantasy/nimo-baseline/internal/plm/bomdiff"
	"github.com/bitfantasy/nimo-baseline/internal/plm/service"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type compareOptions struct {
	change     string
	depth      string
	focus      string
	onlyFields bool
	sort       string
	format     string
	output     string
	encoding   string
	limit      int
}

func newCompareCmd() *cobra.Command {
	opts := &compareOptions{}
	cmd := &cobra.Command{
		Use:   "compare LEFT RIGHT",
		Short: "Show what changed from LEFT to RIGHT",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], args[1], opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.change, "change", "all", "only show rows of this change type (all|added|removed|modified|same)")
	f.StringVar(&opts.depth, "depth", "all", "maximum depth to show")
	f.StringVar(&opts.focus, "focus", "", "restrict to the subtree of this node id")
	f.BoolVar(&opts.onlyFields, "only-fields", false, "only show rows with field changes")
	f.StringVar(&opts.sort, "sort", string(bomdiff.SortByName), "order within a depth level (name|traversal)")
	f.StringVarP(&opts.format, "format", "f", "table", "output format (table|csv|xlsx)")
	f.StringVarP(&opts.output, "output", "o", "", "write to file instead of stdout")
	f.StringVar(&opts.encoding, "encoding", "utf-8", "csv encoding (utf-8|gbk)")
	f.IntVar(&opts.limit, "limit", 0, "table output: show only the first N rows")
	return cmd
}

func (o *compareOptions) filter() (bomdiff.Filter, error) {
	f := bomdiff.DefaultFilter()
	change, err := bomdiff.ParseChangeFilter(o.change)
	if err != nil {
		return f, err
	}
	depth, err := bomdiff.ParseDepth(o.depth)
	if err != nil {
		return f, err
	}
	f.Change = change
	f.MaxDepth = depth
	f.FocusID = o.focus
	f.OnlyFieldChanges = o.onlyFields
	return f, nil
}

func runCompare(stdout, stderr io.Writer, leftPath, rightPath string, opts *compareOptions) error {
	filter, err := opts.filter()
	if err != nil {
		return err
	}
	mode := bomdiff.SortMode(opts.sort)
	if mode != bomdiff.SortByName && mode != bomdiff.SortByTraversal {
		return fmt.Errorf("invalid sort %q", opts.sort)
	}

	left, err := loadTree(leftPath)
	if err != nil {
		return err
	}
	right, err := loadTree(rightPath)
	if err != nil {
		return err
	}
	warn := color.New(color.FgYellow)
	for _, msg := range []string{duplicateWarning(leftPath, left), duplicateWarning(rightPath, right)} {
		if msg != "" {
			warn.Fprintf(stderr, "! %s\n", msg)
		}
	}

	rows := bomdiff.Diff(left, right, bomdiff.WithSortMode(mode))

	format := strings.ToLower(opts.format)
	if format == "table" {
		out, closeFn, err := openOutput(stdout, opts.output)
		if err != nil {
			return err
		}
		defer closeFn()
		return writeTable(out, rows, filter, opts.limit)
	}

	if format == service.ExportXLSX && opts.output == "" {
		return fmt.Errorf("xlsx output needs --output")
	}
	summary := func(path string, root *bomdiff.PartNode) service.BaselineSummary {
		return service.BaselineSummary{ID: root.ID, Name: filepath.Base(path), NodeCount: root.Count()}
	}
	data, _, err := service.RenderExport(bomdiff.Apply(rows, filter),
		summary(leftPath, left), summary(rightPath, right), format, opts.encoding)
	if err != nil {
		return err
	}
	out, closeFn, err := openOutput(stdout, opts.output)
	if err != nil {
		return err
	}
	defer closeFn()
	_, err = out.Write(data)
	return err
}

func openOutput(stdout io.Writer, path string) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

var changeMarks = map[bomdiff.ChangeType]struct {
	mark  string
	color *color.Color
}{
	bomdiff.ChangeAdded:    {"+", color.New(color.FgGreen)},
	bomdiff.ChangeRemoved:  {"-", color.New(color.FgRed)},
	bomdiff.ChangeModified: {"~", color.New(color.FgYellow)},
	bomdiff.ChangeSame:     {" ", color.New(color.Faint)},
}

func writeTable(w io.Writer, rows []bomdiff.DiffRow, filter bomdiff.Filter, limit int) error {
	var page bomdiff.Page
	if limit > 0 {
		page = bomdiff.Render(rows, filter, bomdiff.NewWindow(limit), false)
	} else {
		filtered := bomdiff.Apply(rows, filter)
		page = bomdiff.Page{Rows: filtered, Total: len(filtered), Visible: len(filtered)}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i := range page.Rows {
		r := &page.Rows[i]
		m := changeMarks[r.ChangeType]
		name := strings.Repeat("  ", r.Depth()) + r.Name()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.color.Sprint(m.mark), name, r.ID, bomdiff.FormatText(r.PartNumber()))
		for _, d := range r.FieldDiffs {
			fmt.Fprintf(tw, "\t%s  %s\t\t\n", strings.Repeat("  ", r.Depth()), m.color.Sprint(d.String()))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := bomdiff.Summarize(rows)
	if page.Visible < page.Total {
		fmt.Fprintf(w, "... %d more rows (use --limit to show more)\n", page.Total-page.Visible)
	}
	fmt.Fprintf(w, "%s added, %s removed, %s modified, %d unchanged\n",
		changeMarks[bomdiff.ChangeAdded].color.Sprint(s.Added),
		changeMarks[bomdiff.ChangeRemoved].color.Sprint(s.Removed),
		changeMarks[bomdiff.ChangeModified].color.Sprint(s.Modified),
		s.Same)
	return nil
}
