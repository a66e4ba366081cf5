package bomdiff

import "strings"

// ExportHeader names the columns produced by ExportRecord.
var ExportHeader = []string{"Change", "Part Number", "Name", "Changes", "Path"}

// Describe joins a row's field diffs into one line.
func Describe(r *DiffRow) string {
	if len(r.FieldDiffs) == 0 {
		return ""
	}
	parts := make([]string, len(r.FieldDiffs))
	for i, d := range r.FieldDiffs {
		parts[i] = d.String()
	}
	return strings.Join(parts, "; ")
}

// ExportRecord projects a row onto the flat export columns.
func ExportRecord(r *DiffRow) []string {
	path := ""
	if e := r.Entry(); e != nil {
		path = e.JoinedPath()
	}
	return []string{string(r.ChangeType), r.PartNumber(), r.Name(), Describe(r), path}
}
