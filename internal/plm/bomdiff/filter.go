package bomdiff

import (
	"fmt"
	"strconv"
	"strings"
)

// ChangeFilter selects rows by classification. ChangeAll keeps everything.
type ChangeFilter string

const ChangeAll ChangeFilter = "all"

// DepthUnbounded disables the depth filter.
const DepthUnbounded = -1

// Filter holds the three independent view filters.
type Filter struct {
	Change ChangeFilter `json:"change"`
	// OnlyFieldChanges additionally requires ChangeModified.
	OnlyFieldChanges bool   `json:"only_field_changes"`
	MaxDepth         int    `json:"max_depth"`
	FocusID          string `json:"focus_id,omitempty"`
}

// DefaultFilter keeps every row.
func DefaultFilter() Filter {
	return Filter{Change: ChangeAll, MaxDepth: DepthUnbounded}
}

// ParseChangeFilter accepts "all", "" or one of the change types.
func ParseChangeFilter(s string) (ChangeFilter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == string(ChangeAll) {
		return ChangeAll, nil
	}
	if !ChangeType(s).Valid() {
		return "", fmt.Errorf("unknown change type %q", s)
	}
	return ChangeFilter(s), nil
}

// ParseDepth accepts "", "all", "unbounded" or a non-negative integer.
func ParseDepth(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "all", "unbounded":
		return DepthUnbounded, nil
	}
	d, err := strconv.Atoi(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid depth %q", s)
	}
	return d, nil
}

// Apply returns the rows passing every filter, in their original order.
func Apply(rows []DiffRow, f Filter) []DiffRow {
	focusPath, hasFocus := resolveFocus(rows, f.FocusID)
	out := make([]DiffRow, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		if !matchChange(r, f) {
			continue
		}
		if f.MaxDepth >= 0 && r.Depth() > f.MaxDepth {
			continue
		}
		if hasFocus && !inFocus(r, f.FocusID, focusPath) {
			continue
		}
		out = append(out, *r)
	}
	return out
}

func matchChange(r *DiffRow, f Filter) bool {
	if f.OnlyFieldChanges && r.ChangeType != ChangeModified {
		return false
	}
	if f.Change == "" || f.Change == ChangeAll {
		return true
	}
	return ChangeType(f.Change) == r.ChangeType
}

// resolveFocus finds the joined path of the focus node, preferring the right side.
// An id that does not resolve disables the focus filter.
func resolveFocus(rows []DiffRow, focusID string) (string, bool) {
	if focusID == "" {
		return "", false
	}
	for i := range rows {
		if rows[i].ID != focusID {
			continue
		}
		if e := rows[i].Entry(); e != nil {
			return e.JoinedPath(), true
		}
	}
	return "", false
}

func inFocus(r *DiffRow, focusID, focusPath string) bool {
	if r.ID == focusID {
		return true
	}
	return (r.Left != nil && underPath(r.Left.JoinedPath(), focusPath)) ||
		(r.Right != nil && underPath(r.Right.JoinedPath(), focusPath))
}

// underPath matches whole path segments so "Fan" does not contain "Fan Case".
func underPath(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+PathSeparator)
}
