package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bitfantasy/nimo-baseline/internal/plm/bomdiff"
	"github.com/bitfantasy/nimo-baseline/internal/plm/repository"
)

type fakeSource map[string]*bomdiff.PartNode

func (f fakeSource) GetTree(_ context.Context, id string) (*bomdiff.PartNode, BaselineSummary, error) {
	root, ok := f[id]
	if !ok {
		return nil, BaselineSummary{}, repository.ErrNotFound
	}
	_, checksum, err := EncodeTree(root)
	if err != nil {
		return nil, BaselineSummary{}, err
	}
	return root, BaselineSummary{ID: id, Name: id, Checksum: checksum, NodeCount: root.Count()}, nil
}

// wideTree 根下 n 个叶子，第 i 个叶子数量为 qty(i)
func wideTree(n int, qty func(i int) float64) *bomdiff.PartNode {
	root := &bomdiff.PartNode{ID: "ROOT", Name: "Root"}
	for i := 0; i < n; i++ {
		root.Children = append(root.Children, &bomdiff.PartNode{
			ID:       fmt.Sprintf("P%03d", i),
			Name:     fmt.Sprintf("Part %03d", i),
			Quantity: ptr(qty(i)),
		})
	}
	return root
}

func newTestCompareService(src fakeSource, chunk int) *CompareService {
	return NewCompareService(src, NewCompareCache(nil, 0), nil, nil, chunk)
}

func TestCompareServiceCompare(t *testing.T) {
	src := fakeSource{
		"v1": sampleTree(),
		"v2": func() *bomdiff.PartNode {
			r := sampleTree()
			r.Children[0].Children[0].Quantity = ptr(20.0)
			r.Children = r.Children[:1]
			return r
		}(),
	}
	svc := newTestCompareService(src, 0)

	result, err := svc.Compare(context.Background(), "v1", "v2", "")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	want := bomdiff.Summary{Removed: 1, Modified: 1, Same: 2, Total: 4}
	if result.Summary != want {
		t.Errorf("Expected %+v, got %+v", want, result.Summary)
	}
	if result.Cached {
		t.Error("Expected uncached result without redis")
	}

	if _, err := svc.Compare(context.Background(), "v1", "missing", ""); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCompareServiceViewGrowsWindow(t *testing.T) {
	src := fakeSource{
		"old": wideTree(10, func(int) float64 { return 1 }),
		"new": wideTree(10, func(i int) float64 { return float64(i%2 + 1) }),
	}
	svc := newTestCompareService(src, 2)
	q := &CompareQuery{
		LeftID:  "old",
		RightID: "new",
		Filter:  bomdiff.Filter{Change: bomdiff.ChangeFilter(bomdiff.ChangeModified), MaxDepth: bomdiff.DepthUnbounded},
	}

	view, err := svc.View(context.Background(), q)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if view.Total != 5 || view.Visible != 2 || !view.HasMore {
		t.Fatalf("Unexpected first page: total=%d visible=%d more=%v", view.Total, view.Visible, view.HasMore)
	}

	q.Window = view.Window
	q.More = true
	view, err = svc.View(context.Background(), q)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if view.Visible != 4 {
		t.Errorf("Expected window to grow to 4, got %d", view.Visible)
	}

	// 筛选条件变化，窗口回到一批
	q.Window = view.Window
	q.More = false
	q.Filter.Change = bomdiff.ChangeAll
	view, err = svc.View(context.Background(), q)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if view.Total != 11 || view.Visible != 2 {
		t.Errorf("Expected reset window over 11 rows, got visible=%d total=%d", view.Visible, view.Total)
	}
}

func TestCompareServiceNavigate(t *testing.T) {
	src := fakeSource{
		"old": wideTree(10, func(int) float64 { return 1 }),
		"new": wideTree(10, func(i int) float64 { return float64(i%2 + 1) }),
	}
	svc := newTestCompareService(src, 2)
	q := &CompareQuery{
		LeftID:  "old",
		RightID: "new",
		Filter:  bomdiff.Filter{Change: bomdiff.ChangeFilter(bomdiff.ChangeModified), MaxDepth: bomdiff.DepthUnbounded},
	}

	nav, err := svc.Navigate(context.Background(), q, "", "prev")
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if !nav.Found || nav.Index != 4 || nav.Row.ID != "P009" {
		t.Fatalf("Expected last modified row P009, got %+v", nav)
	}
	if nav.Window.Visible != 5 {
		t.Errorf("Expected window to cover the target, got %d", nav.Window.Visible)
	}

	nav, err = svc.Navigate(context.Background(), q, "P001", "next")
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if nav.Row.ID != "P003" {
		t.Errorf("Expected P003 after P001, got %s", nav.Row.ID)
	}

	if _, err := svc.Navigate(context.Background(), q, "", "sideways"); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("Expected ErrInvalidDirection, got %v", err)
	}

	q.Filter.Change = bomdiff.ChangeFilter(bomdiff.ChangeAdded)
	nav, err = svc.Navigate(context.Background(), q, "", "next")
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if nav.Found || nav.Total != 0 {
		t.Errorf("Expected nothing to navigate, got %+v", nav)
	}
}

func TestCompareServiceExportIgnoresWindow(t *testing.T) {
	src := fakeSource{
		"old": wideTree(10, func(int) float64 { return 1 }),
		"new": wideTree(10, func(i int) float64 { return float64(i%2 + 1) }),
	}
	svc := newTestCompareService(src, 2)
	q := &CompareQuery{
		LeftID:  "old",
		RightID: "new",
		Filter:  bomdiff.Filter{Change: bomdiff.ChangeFilter(bomdiff.ChangeModified), MaxDepth: bomdiff.DepthUnbounded},
		Window:  bomdiff.NewWindow(2),
	}

	data, contentType, filename, err := svc.Export(context.Background(), q, "csv", "")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if contentType != "text/csv; charset=utf-8" || filename != "compare_old_new.csv" {
		t.Errorf("Unexpected content type %q or filename %q", contentType, filename)
	}
	rows := parseCSV(t, data)
	if len(rows) != 6 {
		t.Errorf("Expected header + 5 modified rows, got %d", len(rows))
	}
}
