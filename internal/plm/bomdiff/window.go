package bomdiff

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// DefaultChunk is the initial visible count and the growth step of a Window.
const DefaultChunk = 150

// Window is the caller-owned cursor over a filtered row sequence. It only grows
// within one epoch and starts over at one chunk when the epoch changes.
type Window struct {
	Visible int    `json:"visible"`
	Chunk   int    `json:"chunk"`
	Epoch   uint64 `json:"epoch"`
}

// NewWindow returns a window showing one chunk. A non-positive chunk uses DefaultChunk.
func NewWindow(chunk int) Window {
	if chunk <= 0 {
		chunk = DefaultChunk
	}
	return Window{Visible: chunk, Chunk: chunk}
}

// Sync resets the cursor when epoch differs from the one it was built for.
func (w Window) Sync(epoch uint64) Window {
	if w.Chunk <= 0 {
		w.Chunk = DefaultChunk
	}
	if w.Epoch != epoch || w.Visible <= 0 {
		w.Visible = w.Chunk
		w.Epoch = epoch
	}
	return w
}

// Advance grows the cursor by one chunk, capped at total. It never shrinks.
func (w Window) Advance(total int) Window {
	if w.Chunk <= 0 {
		w.Chunk = DefaultChunk
	}
	next := w.Visible + w.Chunk
	if next > total {
		next = total
	}
	if next > w.Visible {
		w.Visible = next
	}
	return w
}

// Clamp caps the cursor at total rows.
func (w Window) Clamp(total int) Window {
	if w.Visible > total {
		w.Visible = max(total, 0)
	}
	return w
}

// Count is the number of rows visible out of total.
func (w Window) Count(total int) int {
	return min(max(w.Visible, 0), total)
}

// Slice returns the visible prefix of rows.
func (w Window) Slice(rows []DiffRow) []DiffRow {
	return rows[:w.Count(len(rows))]
}

// Fingerprint identifies a (rows, filter) epoch. Equal inputs give equal values.
func Fingerprint(rows []DiffRow, f Filter) uint64 {
	h := xxhash.New()
	write := func(s string) {
		_, _ = h.WriteString(s)
		_, _ = h.Write([]byte{0})
	}
	write(string(f.Change))
	write(strconv.FormatBool(f.OnlyFieldChanges))
	write(strconv.Itoa(f.MaxDepth))
	write(f.FocusID)
	for i := range rows {
		r := &rows[i]
		write(r.ID)
		write(string(r.ChangeType))
		write(strconv.Itoa(r.Depth()))
		if r.Left != nil {
			write(r.Left.JoinedPath())
		}
		write("|")
		if r.Right != nil {
			write(r.Right.JoinedPath())
		}
		for _, d := range r.FieldDiffs {
			write(d.Key)
			write(d.LeftText)
			write(d.RightText)
		}
	}
	return h.Sum64()
}

// Page is what the rendering layer receives.
type Page struct {
	Rows    []DiffRow `json:"rows"`
	Total   int       `json:"total"`
	Visible int       `json:"visible"`
	HasMore bool      `json:"has_more"`
	Window  Window    `json:"window"`
}

// Render filters rows, syncs w to the resulting epoch and returns the visible page.
// When more is set the window advances one chunk after syncing. The returned
// window never points past the filtered rows.
func Render(rows []DiffRow, f Filter, w Window, more bool) Page {
	filtered := Apply(rows, f)
	w = w.Sync(Fingerprint(rows, f))
	if more {
		w = w.Advance(len(filtered))
	}
	w = w.Clamp(len(filtered))
	visible := w.Slice(filtered)
	return Page{
		Rows:    visible,
		Total:   len(filtered),
		Visible: len(visible),
		HasMore: len(visible) < len(filtered),
		Window:  w,
	}
}
