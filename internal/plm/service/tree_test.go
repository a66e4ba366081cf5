package service

import (
	"errors"
	"testing"

	"github.com/bitfantasy/nimo-baseline/internal/plm/bomdiff"
	"github.com/bitfantasy/nimo-baseline/internal/plm/entity"
)

func ptr[T any](v T) *T { return &v }

func sampleTree() *bomdiff.PartNode {
	return &bomdiff.PartNode{
		ID: "ENGINE", Name: "Engine",
		Children: []*bomdiff.PartNode{
			{ID: "FAN", Name: "Fan", Children: []*bomdiff.PartNode{
				{ID: "FAN-BLADE", Name: "Fan Blade", Quantity: ptr(18.0), UnitOfMeasure: "EA"},
			}},
			{ID: "LPC", Name: "LP Compressor", Substitutes: []bomdiff.Substitute{{PartNumber: "LPC-ALT"}}},
		},
	}
}

func TestValidateTree(t *testing.T) {
	if err := ValidateTree(sampleTree(), true); err != nil {
		t.Fatalf("Expected valid tree, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(root *bomdiff.PartNode)
		want   error
	}{
		{"missing id", func(r *bomdiff.PartNode) { r.Children[0].ID = "" }, ErrInvalidTree},
		{"negative quantity", func(r *bomdiff.PartNode) { r.Children[0].Children[0].Quantity = ptr(-1.0) }, ErrInvalidTree},
		{"substitute without part number", func(r *bomdiff.PartNode) { r.Children[1].Substitutes[0].PartNumber = "" }, ErrInvalidTree},
		{"nil child", func(r *bomdiff.PartNode) { r.Children = append(r.Children, nil) }, ErrInvalidTree},
		{"duplicate id", func(r *bomdiff.PartNode) { r.Children[1].ID = "FAN" }, ErrDuplicateNodeID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := sampleTree()
			tt.mutate(root)
			err := ValidateTree(root, true)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	if err := ValidateTree(nil, false); !errors.Is(err, ErrInvalidTree) {
		t.Errorf("Expected nil root to be rejected, got %v", err)
	}
}

func TestValidateTreeAllowsDuplicatesWhenConfigured(t *testing.T) {
	root := sampleTree()
	root.Children[1].ID = "FAN"
	if err := ValidateTree(root, false); err != nil {
		t.Errorf("Expected duplicates to pass, got %v", err)
	}
}

func TestEncodeDecodeTree(t *testing.T) {
	snapshot, checksum, err := EncodeTree(sampleTree())
	if err != nil {
		t.Fatalf("EncodeTree: %v", err)
	}
	if len(checksum) != 16 {
		t.Errorf("Expected 16 hex chars, got %q", checksum)
	}

	_, again, _ := EncodeTree(sampleTree())
	if again != checksum {
		t.Errorf("Expected stable checksum, got %s and %s", checksum, again)
	}

	root, err := DecodeTree(snapshot)
	if err != nil {
		t.Fatalf("DecodeTree: %v", err)
	}
	if root.Count() != 4 {
		t.Errorf("Expected 4 nodes, got %d", root.Count())
	}
	blade := root.Children[0].Children[0]
	if blade.Quantity == nil || *blade.Quantity != 18 {
		t.Errorf("Expected quantity 18 to survive, got %v", blade.Quantity)
	}

	if _, err := DecodeTree("{not json"); err == nil {
		t.Error("Expected error for malformed snapshot")
	}
}

func TestTreeFromBOM(t *testing.T) {
	bom := &entity.ProjectBOM{ID: "bom-1", Name: "Drone", BOMType: "EBOM", Version: "v2"}
	items := []entity.ProjectBOMItem{
		{ID: "frame", ItemNumber: 1, Level: 0, Name: "Frame", ManufacturerPN: "FR-1", Quantity: 1, Unit: "pcs", LifecycleStatus: "active"},
		{ID: "arm", ItemNumber: 2, Level: 1, ParentItemID: ptr("frame"), Name: "Arm", DrawingNo: "DWG-ARM", Quantity: 4, Unit: "pcs"},
		{ID: "arm-alt1", ItemNumber: 3, IsAlternative: true, AlternativeFor: ptr("arm"), ManufacturerPN: "ARM-B", Notes: "cost"},
		{ID: "arm-alt2", ItemNumber: 4, IsAlternative: true, AlternativeFor: ptr("arm"), ManufacturerPN: "ARM-C"},
		{ID: "orphan", ItemNumber: 5, ParentItemID: ptr("missing"), Name: "Orphan", Quantity: 2},
	}

	root, err := TreeFromBOM(bom, items)
	if err != nil {
		t.Fatalf("TreeFromBOM: %v", err)
	}
	if root.ID != "bom-1" || root.PartNumber != "EBOM" || root.Revision != "v2" {
		t.Errorf("Unexpected root: %+v", root)
	}
	if root.Count() != 4 {
		t.Fatalf("Expected root + 3 items, got %d", root.Count())
	}
	if len(root.Children) != 2 || root.Children[0].ID != "frame" || root.Children[1].ID != "orphan" {
		t.Fatalf("Expected frame and orphan under root, got %d children", len(root.Children))
	}

	frame := root.Children[0]
	if frame.FindNumber != "1" || frame.PartNumber != "FR-1" || frame.LifecycleStage != "active" {
		t.Errorf("Unexpected frame node: %+v", frame)
	}
	arm := frame.Children[0]
	if arm.PartNumber != "DWG-ARM" {
		t.Errorf("Expected drawing number fallback, got %q", arm.PartNumber)
	}
	if len(arm.Substitutes) != 2 {
		t.Fatalf("Expected 2 substitutes, got %d", len(arm.Substitutes))
	}
	if got := bomdiff.FormatSubstitutes(arm.Substitutes); got != "ARM-B·cost·1, ARM-C·-·2" {
		t.Errorf("Unexpected substitutes: %s", got)
	}
}

func TestTreeFromBOMRejectsParentCycle(t *testing.T) {
	bom := &entity.ProjectBOM{ID: "bom-1", Name: "Loop"}
	items := []entity.ProjectBOMItem{
		{ID: "a", ParentItemID: ptr("b"), Name: "A"},
		{ID: "b", ParentItemID: ptr("a"), Name: "B"},
	}
	if _, err := TreeFromBOM(bom, items); !errors.Is(err, ErrInvalidTree) {
		t.Errorf("Expected ErrInvalidTree, got %v", err)
	}
}
