// Package bomdiff compares two baselines of a hierarchical parts tree.
//
// Every function in this package is synchronous and side-effect free: trees are
// flattened into path-annotated entries, joined by node id, classified, filtered
// and finally windowed for progressive rendering. Callers own all state, including
// the Window cursor, and pass it in explicitly.
package bomdiff

// PartNode is one node of a BOM baseline tree. Children are owned by the parent.
// Empty strings and nil pointers mean "not set".
type PartNode struct {
	ID             string       `json:"id" yaml:"id" validate:"required"`
	Name           string       `json:"name" yaml:"name"`
	PartNumber     string       `json:"part_number,omitempty" yaml:"part_number,omitempty"`
	Revision       string       `json:"revision,omitempty" yaml:"revision,omitempty"`
	Quantity       *float64     `json:"quantity,omitempty" yaml:"quantity,omitempty" validate:"omitempty,gte=0"`
	UnitOfMeasure  string       `json:"unit_of_measure,omitempty" yaml:"unit_of_measure,omitempty"`
	FindNumber     string       `json:"find_number,omitempty" yaml:"find_number,omitempty"`
	LifecycleStage string       `json:"lifecycle_stage,omitempty" yaml:"lifecycle_stage,omitempty"`
	Effectivity    *Effectivity `json:"effectivity,omitempty" yaml:"effectivity,omitempty"`
	Substitutes    []Substitute `json:"substitutes,omitempty" yaml:"substitutes,omitempty" validate:"dive"`
	Children       []*PartNode  `json:"children,omitempty" yaml:"children,omitempty" validate:"dive,required"`
}

// Effectivity is the serial range, date range and block point a revision applies to.
type Effectivity struct {
	SerialFrom string `json:"serial_from,omitempty" yaml:"serial_from,omitempty"`
	SerialTo   string `json:"serial_to,omitempty" yaml:"serial_to,omitempty"`
	DateFrom   string `json:"date_from,omitempty" yaml:"date_from,omitempty"`
	DateTo     string `json:"date_to,omitempty" yaml:"date_to,omitempty"`
	BlockPoint string `json:"block_point,omitempty" yaml:"block_point,omitempty"`
}

// Substitute is an approved alternate part. List order is the preference order.
type Substitute struct {
	PartNumber string `json:"part_number" yaml:"part_number" validate:"required"`
	Reason     string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Priority   *int   `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// Walk visits n and its descendants in pre-order. Returning false from fn stops
// descending into that node's children.
func (n *PartNode) Walk(fn func(node *PartNode, depth int) bool) {
	if n == nil {
		return
	}
	walk(n, 0, fn)
}

func walk(n *PartNode, depth int, fn func(*PartNode, int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, child := range n.Children {
		if child == nil {
			continue
		}
		walk(child, depth+1, fn)
	}
}

// Count returns the number of nodes in the tree rooted at n.
func (n *PartNode) Count() int {
	total := 0
	n.Walk(func(*PartNode, int) bool {
		total++
		return true
	})
	return total
}

// DuplicateIDs returns every id that occurs more than once in the tree, in the
// order the second occurrence is walked. The diff engine itself keeps the last
// walked node for a duplicated id.
func DuplicateIDs(root *PartNode) []string {
	seen := make(map[string]int)
	var dups []string
	root.Walk(func(node *PartNode, _ int) bool {
		seen[node.ID]++
		if seen[node.ID] == 2 {
			dups = append(dups, node.ID)
		}
		return true
	})
	return dups
}
