package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bitfantasy/nimo-baseline/internal/plm/bomdiff"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// 导出格式
const (
	ExportXLSX = "xlsx"
	ExportCSV  = "csv"
)

// ErrUnsupportedExport 不支持的导出格式或编码
var ErrUnsupportedExport = errors.New("unsupported export format")

// changeFills 变更类型底色
var changeFills = map[bomdiff.ChangeType]string{
	bomdiff.ChangeAdded:    "#E2EFDA",
	bomdiff.ChangeRemoved:  "#FCE4D6",
	bomdiff.ChangeModified: "#FFF2CC",
}

// WriteDiffXLSX 导出对比结果为xlsx（完整筛选结果，不分批）
func WriteDiffXLSX(rows []bomdiff.DiffRow, left, right BaselineSummary) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Compare"
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
	styles := make(map[bomdiff.ChangeType]int, len(changeFills))
	for ct, color := range changeFills {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if err == nil {
			styles[ct] = id
		}
	}

	f.SetCellValue(sheet, "A1", fmt.Sprintf("%s → %s", left.Name, right.Name))
	for i, h := range bomdiff.ExportHeader {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "2"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(bomdiff.ExportHeader))
	for i := range rows {
		r := i + 3
		record := bomdiff.ExportRecord(&rows[i])
		for c, v := range record {
			name, _ := excelize.CoordinatesToCellName(c+1, r)
			f.SetCellValue(sheet, name, v)
		}
		if style, ok := styles[rows[i].ChangeType]; ok {
			f.SetCellStyle(sheet, fmt.Sprintf("A%d", r), fmt.Sprintf("%s%d", lastCol, r), style)
		}
	}

	colWidths := []float64{10, 16, 24, 60, 48}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
	return f, nil
}

// WriteDiffCSV 导出对比结果为csv；encoding 为 gbk 时按GBK编码（兼容中文Excel）
func WriteDiffCSV(w io.Writer, rows []bomdiff.DiffRow, encoding string) error {
	var out io.Writer = w
	var closer io.Closer
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
	case "gbk":
		tw := transform.NewWriter(w, simplifiedchinese.GBK.NewEncoder())
		out, closer = tw, tw
	default:
		return fmt.Errorf("%w: encoding %q", ErrUnsupportedExport, encoding)
	}

	cw := csv.NewWriter(out)
	if err := cw.Write(bomdiff.ExportHeader); err != nil {
		return err
	}
	for i := range rows {
		if err := cw.Write(bomdiff.ExportRecord(&rows[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	if closer != nil {
		return closer.Close()
	}
	return nil
}

// RenderExport 按格式生成导出内容
func RenderExport(rows []bomdiff.DiffRow, left, right BaselineSummary, format, encoding string) ([]byte, string, error) {
	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "", ExportXLSX:
		f, err := WriteDiffXLSX(rows, left, right)
		if err != nil {
			return nil, "", err
		}
		if err := f.Write(&buf); err != nil {
			return nil, "", fmt.Errorf("write xlsx: %w", err)
		}
		return buf.Bytes(), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	case ExportCSV:
		if err := WriteDiffCSV(&buf, rows, encoding); err != nil {
			return nil, "", fmt.Errorf("write csv: %w", err)
		}
		return buf.Bytes(), "text/csv; charset=" + csvCharset(encoding), nil
	}
	return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedExport, format)
}

func csvCharset(encoding string) string {
	if strings.EqualFold(encoding, "gbk") {
		return "gbk"
	}
	return "utf-8"
}
