package bomdiff

// Next returns the index of the row after currentID in the filtered rows.
// An unknown or empty currentID starts at the first row; the last row stays put.
// ok is false only when rows is empty.
func Next(rows []DiffRow, currentID string) (idx int, ok bool) {
	if len(rows) == 0 {
		return -1, false
	}
	i := position(rows, currentID)
	if i < 0 {
		return 0, true
	}
	return min(i+1, len(rows)-1), true
}

// Prev returns the index of the row before currentID. An unknown or empty
// currentID starts at the last row; the first row stays put.
func Prev(rows []DiffRow, currentID string) (idx int, ok bool) {
	if len(rows) == 0 {
		return -1, false
	}
	i := position(rows, currentID)
	if i < 0 {
		return len(rows) - 1, true
	}
	return max(i-1, 0), true
}

func position(rows []DiffRow, id string) int {
	if id == "" {
		return -1
	}
	for i := range rows {
		if rows[i].ID == id {
			return i
		}
	}
	return -1
}
