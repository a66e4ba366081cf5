package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bitfantasy/nimo-baseline/internal/plm/bomdiff"
	"github.com/xuri/excelize/v2"
)

// 基线导入模板列
var baselineImportHeaders = []string{
	"Level", "ID", "Name", "Part Number", "Revision", "Quantity", "Unit",
	"Find Number", "Lifecycle", "Serial From", "Serial To", "Date From",
	"Date To", "Block Point", "Substitutes",
}

const (
	colLevel = iota
	colID
	colName
	colPartNumber
	colRevision
	colQuantity
	colUnit
	colFindNumber
	colLifecycle
	colSerialFrom
	colSerialTo
	colDateFrom
	colDateTo
	colBlockPoint
	colSubstitutes
)

// ParseTreeRows 将层级缩进的表格行（首行为表头）解析为零件树。
// Level 0 必须是第一条数据行且唯一；子行 Level 只能比上一行深一级。
func ParseTreeRows(rows [][]string) (*bomdiff.PartNode, error) {
	var root *bomdiff.PartNode
	var stack []*bomdiff.PartNode

	for i, row := range rows {
		if i == 0 || isBlankRow(row) {
			continue
		}
		line := i + 1
		levelText := cell(row, colLevel)
		level, err := strconv.Atoi(levelText)
		if err != nil || level < 0 {
			return nil, fmt.Errorf("%w: row %d: invalid level %q", ErrInvalidTree, line, levelText)
		}

		node, err := nodeFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidTree, line, err)
		}

		if level == 0 {
			if root != nil {
				return nil, fmt.Errorf("%w: row %d: second root", ErrInvalidTree, line)
			}
			root = node
			stack = []*bomdiff.PartNode{root}
			continue
		}
		if root == nil {
			return nil, fmt.Errorf("%w: row %d: first row must be level 0", ErrInvalidTree, line)
		}
		if level > len(stack) {
			return nil, fmt.Errorf("%w: row %d: level %d skips a level", ErrInvalidTree, line, level)
		}
		parent := stack[level-1]
		parent.Children = append(parent.Children, node)
		stack = append(stack[:level], node)
	}

	if root == nil {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidTree)
	}
	return root, nil
}

func nodeFromRow(row []string) (*bomdiff.PartNode, error) {
	node := &bomdiff.PartNode{
		ID:             cell(row, colID),
		Name:           cell(row, colName),
		PartNumber:     cell(row, colPartNumber),
		Revision:       cell(row, colRevision),
		UnitOfMeasure:  cell(row, colUnit),
		FindNumber:     cell(row, colFindNumber),
		LifecycleStage: cell(row, colLifecycle),
	}
	if node.ID == "" {
		return nil, fmt.Errorf("id is required")
	}
	if q := cell(row, colQuantity); q != "" {
		v, err := strconv.ParseFloat(q, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity %q", q)
		}
		node.Quantity = &v
	}
	eff := bomdiff.Effectivity{
		SerialFrom: cell(row, colSerialFrom),
		SerialTo:   cell(row, colSerialTo),
		DateFrom:   cell(row, colDateFrom),
		DateTo:     cell(row, colDateTo),
		BlockPoint: cell(row, colBlockPoint),
	}
	if eff != (bomdiff.Effectivity{}) {
		node.Effectivity = &eff
	}
	subs, err := parseSubstitutes(cell(row, colSubstitutes))
	if err != nil {
		return nil, err
	}
	node.Substitutes = subs
	return node, nil
}

// parseSubstitutes 解析 "料号:原因:优先级; 料号2" 格式
func parseSubstitutes(s string) ([]bomdiff.Substitute, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var subs []bomdiff.Substitute
	for _, token := range strings.Split(s, ";") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		parts := strings.SplitN(token, ":", 3)
		sub := bomdiff.Substitute{PartNumber: strings.TrimSpace(parts[0])}
		if sub.PartNumber == "" {
			return nil, fmt.Errorf("substitute %q has no part number", token)
		}
		if len(parts) > 1 {
			sub.Reason = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
			p, err := strconv.Atoi(strings.TrimSpace(parts[2]))
			if err != nil {
				return nil, fmt.Errorf("invalid substitute priority %q", parts[2])
			}
			sub.Priority = &p
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ParseExcelTree 读取第一个工作表并解析为零件树
func ParseExcelTree(f *excelize.File) (*bomdiff.PartNode, error) {
	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read excel: %w", err)
	}
	return ParseTreeRows(rows)
}

// GenerateTemplate 生成基线导入模板
func GenerateTemplate() (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Baseline"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, h := range baselineImportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheet, col+"1", h)
		f.SetCellStyle(sheet, col+"1", col+"1", boldStyle)
		f.SetColWidth(sheet, col, col, 14)
	}

	examples := [][]interface{}{
		{0, "ENGINE", "Engine", "ENG-100", "A", 1, "EA", "", "production"},
		{1, "FAN", "Fan Module", "FAN-200", "B", 1, "EA", "10", "production"},
		{2, "FAN-BLADE", "Fan Blade", "FB-1", "C", 18, "EA", "20", "production",
			"1001", "1999", "", "", "", "FB-2:supply:1; FB-3"},
	}
	for r, values := range examples {
		for c, v := range values {
			name, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellValue(sheet, name, v)
		}
	}
	return f, nil
}
