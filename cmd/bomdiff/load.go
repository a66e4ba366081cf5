package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/bitfantasy/nimo-baseline/internal/plm/bomdiff"
	"github.com/bitfantasy/nimo-baseline/internal/plm/service"
	"gopkg.in/yaml.v3"
)

// loadTree reads a part tree from a YAML or JSON file.
func loadTree(path string) (*bomdiff.PartNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseTree(path, data)
}

func parseTree(name string, data []byte) (*bomdiff.PartNode, error) {
	var root bomdiff.PartNode
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	// duplicates are reported, not rejected; the last one walked wins
	if err := service.ValidateTree(&root, false); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &root, nil
}

func duplicateWarning(name string, root *bomdiff.PartNode) string {
	dups := bomdiff.DuplicateIDs(root)
	if len(dups) == 0 {
		return ""
	}
	return fmt.Sprintf("%s: duplicate ids %s, last occurrence wins", name, strings.Join(dups, ", "))
}
