package bomdiff

import "strings"

// PathSeparator joins path segments when a path is compared as a string.
const PathSeparator = "/"

// FlatEntry is a read-only snapshot of one node with its position in the tree.
type FlatEntry struct {
	ID             string       `json:"id"`
	Depth          int          `json:"depth"`
	Path           []string     `json:"path"`
	Name           string       `json:"name"`
	PartNumber     string       `json:"part_number,omitempty"`
	Revision       string       `json:"revision,omitempty"`
	Quantity       *float64     `json:"quantity,omitempty"`
	UnitOfMeasure  string       `json:"unit_of_measure,omitempty"`
	FindNumber     string       `json:"find_number,omitempty"`
	LifecycleStage string       `json:"lifecycle_stage,omitempty"`
	Effectivity    *Effectivity `json:"effectivity,omitempty"`
	Substitutes    []Substitute `json:"substitutes,omitempty"`
}

// JoinedPath returns the entry's path joined with PathSeparator.
func (e *FlatEntry) JoinedPath() string {
	return strings.Join(e.Path, PathSeparator)
}

// Flatten walks root in pre-order (parent first, children in source order) and
// returns one entry per node. A nil root yields nil.
//
// Trees are expected to be acyclic; a cycle never terminates.
func Flatten(root *PartNode) []FlatEntry {
	if root == nil {
		return nil
	}
	entries := make([]FlatEntry, 0, root.Count())
	var path []string
	var visit func(n *PartNode, depth int)
	visit = func(n *PartNode, depth int) {
		path = append(path[:depth], n.Name)
		entries = append(entries, newFlatEntry(n, depth, path))
		for _, child := range n.Children {
			if child == nil {
				continue
			}
			visit(child, depth+1)
		}
	}
	visit(root, 0)
	return entries
}

func newFlatEntry(n *PartNode, depth int, path []string) FlatEntry {
	e := FlatEntry{
		ID:             n.ID,
		Depth:          depth,
		Path:           append([]string(nil), path...),
		Name:           n.Name,
		PartNumber:     n.PartNumber,
		Revision:       n.Revision,
		UnitOfMeasure:  n.UnitOfMeasure,
		FindNumber:     n.FindNumber,
		LifecycleStage: n.LifecycleStage,
	}
	if n.Quantity != nil {
		q := *n.Quantity
		e.Quantity = &q
	}
	if n.Effectivity != nil {
		eff := *n.Effectivity
		e.Effectivity = &eff
	}
	if len(n.Substitutes) > 0 {
		e.Substitutes = make([]Substitute, len(n.Substitutes))
		for i, s := range n.Substitutes {
			e.Substitutes[i] = s
			if s.Priority != nil {
				p := *s.Priority
				e.Substitutes[i].Priority = &p
			}
		}
	}
	return e
}

// index builds the id lookup for a flattened tree. Later entries overwrite
// earlier ones sharing the same id.
func index(entries []FlatEntry) map[string]*FlatEntry {
	m := make(map[string]*FlatEntry, len(entries))
	for i := range entries {
		m[entries[i].ID] = &entries[i]
	}
	return m
}
