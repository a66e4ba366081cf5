package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bitfantasy/nimo-baseline/internal/plm/bomdiff"
	"github.com/bitfantasy/nimo-baseline/internal/plm/entity"
	"github.com/cespare/xxhash/v2"
	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidTree     = errors.New("invalid baseline tree")
	ErrDuplicateNodeID = errors.New("duplicate node id")
)

var validate = validator.New()

// ValidateTree 校验零件树：节点ID必填、替代料号必填、数量非负；
// rejectDuplicates 为 true 时重复节点ID直接拒绝
func ValidateTree(root *bomdiff.PartNode, rejectDuplicates bool) error {
	if root == nil {
		return fmt.Errorf("%w: root is required", ErrInvalidTree)
	}
	if err := validate.Struct(root); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTree, err)
	}
	if !rejectDuplicates {
		return nil
	}
	if dups := bomdiff.DuplicateIDs(root); len(dups) > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeID, strings.Join(dups, ", "))
	}
	return nil
}

// EncodeTree 序列化零件树并计算校验和
func EncodeTree(root *bomdiff.PartNode) (snapshot string, checksum string, err error) {
	data, err := json.Marshal(root)
	if err != nil {
		return "", "", fmt.Errorf("marshal tree: %w", err)
	}
	return string(data), fmt.Sprintf("%016x", xxhash.Sum64(data)), nil
}

// DecodeTree 反序列化基线快照
func DecodeTree(snapshot string) (*bomdiff.PartNode, error) {
	var root bomdiff.PartNode
	if err := json.Unmarshal([]byte(snapshot), &root); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &root, nil
}

// TreeFromBOM 将项目BOM行项冻结为零件树。
// BOM本身为根节点；parent_item_id 缺失或无效的行项挂在根下；
// 替代料行项（is_alternative）不成为节点，而是作为被替代件的 substitutes。
func TreeFromBOM(bom *entity.ProjectBOM, items []entity.ProjectBOMItem) (*bomdiff.PartNode, error) {
	root := &bomdiff.PartNode{
		ID:         bom.ID,
		Name:       bom.Name,
		PartNumber: bom.BOMType,
		Revision:   bom.Version,
	}

	nodes := make(map[string]*bomdiff.PartNode, len(items))
	for i := range items {
		item := &items[i]
		if item.IsAlternative && item.AlternativeFor != nil {
			continue
		}
		nodes[item.ID] = nodeFromItem(item)
	}

	// 替代料按行项顺序决定优先级
	priorities := make(map[string]int)
	for i := range items {
		item := &items[i]
		if !item.IsAlternative || item.AlternativeFor == nil {
			continue
		}
		target, ok := nodes[*item.AlternativeFor]
		if !ok {
			continue
		}
		priorities[target.ID]++
		p := priorities[target.ID]
		target.Substitutes = append(target.Substitutes, bomdiff.Substitute{
			PartNumber: itemPartNumber(item),
			Reason:     strings.TrimSpace(item.Notes),
			Priority:   &p,
		})
	}

	parentOf := make(map[string]string, len(nodes))
	for i := range items {
		item := &items[i]
		node, ok := nodes[item.ID]
		if !ok {
			continue
		}
		if item.ParentItemID != nil {
			if parent, ok := nodes[*item.ParentItemID]; ok && parent != node {
				parent.Children = append(parent.Children, node)
				parentOf[item.ID] = parent.ID
				continue
			}
		}
		root.Children = append(root.Children, node)
	}

	// parent_item_id 成环的行项从根不可达
	if reachable := root.Count() - 1; reachable != len(nodes) {
		return nil, fmt.Errorf("%w: %d items form a parent cycle", ErrInvalidTree, len(nodes)-reachable)
	}
	return root, nil
}

func nodeFromItem(item *entity.ProjectBOMItem) *bomdiff.PartNode {
	q := item.Quantity
	node := &bomdiff.PartNode{
		ID:             item.ID,
		Name:           item.Name,
		PartNumber:     itemPartNumber(item),
		Revision:       item.Revision,
		Quantity:       &q,
		UnitOfMeasure:  item.Unit,
		LifecycleStage: item.LifecycleStatus,
	}
	if item.ItemNumber > 0 {
		node.FindNumber = strconv.Itoa(item.ItemNumber)
	}
	return node
}

func itemPartNumber(item *entity.ProjectBOMItem) string {
	if item.ManufacturerPN != "" {
		return item.ManufacturerPN
	}
	return item.DrawingNo
}
