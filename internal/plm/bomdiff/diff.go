package bomdiff

import "sort"

// ChangeType classifies one matched id.
type ChangeType string

const (
	ChangeSame     ChangeType = "same"
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

// Valid reports whether c is one of the four classifications.
func (c ChangeType) Valid() bool {
	switch c {
	case ChangeSame, ChangeAdded, ChangeRemoved, ChangeModified:
		return true
	}
	return false
}

// DiffRow is one id matched across the two baselines.
type DiffRow struct {
	ID         string      `json:"id"`
	ChangeType ChangeType  `json:"change_type"`
	Left       *FlatEntry  `json:"left,omitempty"`
	Right      *FlatEntry  `json:"right,omitempty"`
	FieldDiffs []FieldDiff `json:"field_diffs,omitempty"`
}

// Depth is the larger depth of the sides present.
func (r *DiffRow) Depth() int {
	switch {
	case r.Left != nil && r.Right != nil:
		return max(r.Left.Depth, r.Right.Depth)
	case r.Right != nil:
		return r.Right.Depth
	case r.Left != nil:
		return r.Left.Depth
	}
	return 0
}

// Entry returns the right side when present, otherwise the left side.
func (r *DiffRow) Entry() *FlatEntry {
	if r.Right != nil {
		return r.Right
	}
	return r.Left
}

// Name is the display name of the row.
func (r *DiffRow) Name() string {
	if e := r.Entry(); e != nil {
		return e.Name
	}
	return ""
}

// PartNumber is the display part number of the row.
func (r *DiffRow) PartNumber() string {
	if e := r.Entry(); e != nil {
		return e.PartNumber
	}
	return ""
}

// SortMode picks the secondary ordering inside one depth level.
type SortMode string

const (
	// SortByName orders rows of equal depth by name, then id.
	SortByName SortMode = "name"
	// SortByTraversal keeps rows of equal depth in traversal order.
	SortByTraversal SortMode = "traversal"
)

type diffOptions struct {
	sort SortMode
}

// DiffOption customises Diff.
type DiffOption func(*diffOptions)

// WithSortMode selects the tie-break inside a depth level.
func WithSortMode(mode SortMode) DiffOption {
	return func(o *diffOptions) {
		if mode == SortByTraversal {
			o.sort = SortByTraversal
			return
		}
		o.sort = SortByName
	}
}

// Diff flattens both trees, joins them by id and classifies every id. Rows are
// ordered by depth; see SortMode for ties. Either root may be nil.
func Diff(left, right *PartNode, opts ...DiffOption) []DiffRow {
	o := diffOptions{sort: SortByName}
	for _, opt := range opts {
		opt(&o)
	}

	leftEntries, rightEntries := Flatten(left), Flatten(right)
	leftIndex, rightIndex := index(leftEntries), index(rightEntries)

	// union in traversal order: left ids first, then right-only ids
	order := make([]string, 0, len(leftIndex)+len(rightIndex))
	seen := make(map[string]bool, cap(order))
	for _, e := range leftEntries {
		if !seen[e.ID] {
			seen[e.ID] = true
			order = append(order, e.ID)
		}
	}
	for _, e := range rightEntries {
		if !seen[e.ID] {
			seen[e.ID] = true
			order = append(order, e.ID)
		}
	}

	rows := make([]DiffRow, 0, len(order))
	for _, id := range order {
		rows = append(rows, classify(id, leftIndex[id], rightIndex[id]))
	}

	if o.sort == SortByTraversal {
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].Depth() < rows[j].Depth()
		})
		return rows
	}
	sort.SliceStable(rows, func(i, j int) bool {
		di, dj := rows[i].Depth(), rows[j].Depth()
		if di != dj {
			return di < dj
		}
		ni, nj := rows[i].Name(), rows[j].Name()
		if ni != nj {
			return ni < nj
		}
		return rows[i].ID < rows[j].ID
	})
	return rows
}

func classify(id string, left, right *FlatEntry) DiffRow {
	row := DiffRow{ID: id, Left: left, Right: right}
	switch {
	case left == nil:
		row.ChangeType = ChangeAdded
	case right == nil:
		row.ChangeType = ChangeRemoved
	default:
		row.FieldDiffs = CompareFields(*left, *right)
		if len(row.FieldDiffs) > 0 {
			row.ChangeType = ChangeModified
		} else {
			row.ChangeType = ChangeSame
		}
	}
	return row
}

// Summary counts rows per classification.
type Summary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Same     int `json:"same"`
	Total    int `json:"total"`
}

// Summarize counts rows per change type.
func Summarize(rows []DiffRow) Summary {
	var s Summary
	for i := range rows {
		switch rows[i].ChangeType {
		case ChangeAdded:
			s.Added++
		case ChangeRemoved:
			s.Removed++
		case ChangeModified:
			s.Modified++
		case ChangeSame:
			s.Same++
		}
	}
	s.Total = len(rows)
	return s
}
