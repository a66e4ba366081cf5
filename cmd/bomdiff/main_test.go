package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/xuri/excelize/v2"
)

const leftYAML = `
id: ENGINE
name: Engine
children:
  - id: FAN
    name: Fan
    children:
      - id: FAN-BLADE
        name: Fan Blade
        part_number: FB-1
        quantity: 18
  - id: LPC
    name: LP Compressor
    children:
      - id: LPC-STG1
        name: Stage 1
`

const rightJSON = `{
  "id": "ENGINE", "name": "Engine",
  "children": [
    {"id": "FAN", "name": "Fan", "children": [
      {"id": "FAN-BLADE", "name": "Fan Blade", "part_number": "FB-1", "quantity": 20}
    ]},
    {"id": "LPC", "name": "LP Compressor", "children": [
      {"id": "LPC-STG1", "name": "Stage 1"},
      {"id": "LPC-STG2", "name": "Stage 2", "part_number": "S2"}
    ]}
  ]
}`

func writeFixtures(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	left := filepath.Join(dir, "a.yaml")
	right := filepath.Join(dir, "b.json")
	if err := os.WriteFile(left, []byte(leftYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(right, []byte(rightJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return left, right
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCompareTable(t *testing.T) {
	left, right := writeFixtures(t)

	out, err := run(t, "compare", left, right)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	for _, want := range []string{"Quantity: 18 → 20", "LPC-STG2", "1 added, 0 removed, 1 modified, 4 unchanged"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}

	out, err = run(t, "compare", left, right, "--change", "added")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if strings.Contains(out, "FAN-BLADE") {
		t.Errorf("Expected modified row to be filtered out:\n%s", out)
	}

	out, err = run(t, "compare", left, right, "--limit", "2")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if !strings.Contains(out, "... 4 more rows") {
		t.Errorf("Expected truncation notice:\n%s", out)
	}
}

func TestCompareCSVAndXLSX(t *testing.T) {
	left, right := writeFixtures(t)

	out, err := run(t, "compare", left, right, "--format", "csv", "--only-fields")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "modified,FB-1,Fan Blade") {
		t.Errorf("Unexpected csv output:\n%s", out)
	}

	if _, err := run(t, "compare", left, right, "--format", "xlsx"); err == nil {
		t.Error("Expected xlsx without --output to fail")
	}

	target := filepath.Join(t.TempDir(), "diff.xlsx")
	if _, err := run(t, "compare", left, right, "--format", "xlsx", "--output", target); err != nil {
		t.Fatalf("compare xlsx: %v", err)
	}
	f, err := excelize.OpenFile(target)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows("Compare")
	if len(rows) != 2+6 {
		t.Errorf("Expected title + header + 6 rows, got %d", len(rows))
	}
}

func TestCompareRejectsBadInput(t *testing.T) {
	left, right := writeFixtures(t)

	if _, err := run(t, "compare", left); err == nil {
		t.Error("Expected argument count error")
	}
	if _, err := run(t, "compare", left, right, "--depth", "deep"); err == nil {
		t.Error("Expected depth error")
	}
	if _, err := run(t, "compare", left, right, "--sort", "size"); err == nil {
		t.Error("Expected sort error")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(bad, []byte("name: no id\n"), 0o644)
	if _, err := run(t, "compare", bad, right); err == nil {
		t.Error("Expected validation error for missing root id")
	}
}

func TestCompareWarnsOnDuplicateIDs(t *testing.T) {
	_, right := writeFixtures(t)
	dup := filepath.Join(t.TempDir(), "dup.yaml")
	os.WriteFile(dup, []byte("id: R\nname: Root\nchildren:\n  - id: X\n    name: One\n  - id: X\n    name: Two\n"), 0o644)

	out, err := run(t, "compare", dup, right)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if !strings.Contains(out, "duplicate ids X") {
		t.Errorf("Expected duplicate warning:\n%s", out)
	}
}

func TestFlatten(t *testing.T) {
	left, _ := writeFixtures(t)

	out, err := run(t, "flatten", left)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1+5 {
		t.Fatalf("Expected header + 5 entries, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[3], "Engine/Fan/Fan Blade") || !strings.Contains(lines[3], "18") {
		t.Errorf("Unexpected blade line %q", lines[3])
	}
}

func TestCompareMovedPartIsUnchanged(t *testing.T) {
	left, _ := writeFixtures(t)
	moved := filepath.Join(t.TempDir(), "moved.yaml")
	const movedYAML = `
id: ENGINE
name: Engine
children:
  - id: FAN
    name: Fan
  - id: LPC
    name: LP Compressor
    children:
      - id: LPC-STG1
        name: Stage 1
      - id: FAN-BLADE
        name: Fan Blade
        part_number: FB-1
        quantity: 18
`
	if err := os.WriteFile(moved, []byte(movedYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "compare", left, moved)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if !strings.Contains(out, "0 added, 0 removed, 0 modified, 5 unchanged") {
		t.Errorf("Expected a moved part to count as unchanged:\n%s", out)
	}

	help, err := run(t, "--help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	if !strings.Contains(help, "reported as a change") {
		t.Errorf("Expected help to describe moved parts:\n%s", help)
	}
}
