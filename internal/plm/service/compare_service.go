package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bitfantasy/nimo-baseline/internal/plm/bomdiff"
	"github.com/bitfantasy/nimo-baseline/internal/shared/telemetry"
	"go.uber.org/zap"
)

var ErrInvalidDirection = errors.New("direction must be next or prev")

// BaselineSource 基线零件树来源
type BaselineSource interface {
	GetTree(ctx context.Context, id string) (*bomdiff.PartNode, BaselineSummary, error)
}

// CompareQuery 对比视图查询
type CompareQuery struct {
	LeftID  string
	RightID string
	Sort    bomdiff.SortMode
	Filter  bomdiff.Filter
	Window  bomdiff.Window
	More    bool
}

// CompareResult 完整对比结果（未筛选）
type CompareResult struct {
	Left    BaselineSummary   `json:"left"`
	Right   BaselineSummary   `json:"right"`
	Rows    []bomdiff.DiffRow `json:"rows"`
	Summary bomdiff.Summary   `json:"summary"`
	Cached  bool              `json:"cached"`
}

// CompareView 筛选并分批后的对比视图
type CompareView struct {
	Left    BaselineSummary `json:"left"`
	Right   BaselineSummary `json:"right"`
	Summary bomdiff.Summary `json:"summary"`
	Filter  bomdiff.Filter  `json:"filter"`
	bomdiff.Page
}

// NavigateResult 上一个/下一个差异定位结果
type NavigateResult struct {
	Found  bool             `json:"found"`
	Index  int              `json:"index"`
	Total  int              `json:"total"`
	Row    *bomdiff.DiffRow `json:"row,omitempty"`
	Window bomdiff.Window   `json:"window"`
}

// CompareService 基线对比服务
type CompareService struct {
	source  BaselineSource
	cache   *CompareCache
	metrics *telemetry.Metrics
	logger  *zap.Logger
	chunk   int
}

// NewCompareService 创建对比服务
func NewCompareService(source BaselineSource, cache *CompareCache, metrics *telemetry.Metrics, logger *zap.Logger, chunk int) *CompareService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if chunk <= 0 {
		chunk = bomdiff.DefaultChunk
	}
	return &CompareService{source: source, cache: cache, metrics: metrics, logger: logger, chunk: chunk}
}

// Compare 对比两条基线（左为旧、右为新）
func (s *CompareService) Compare(ctx context.Context, leftID, rightID string, mode bomdiff.SortMode) (*CompareResult, error) {
	if mode != bomdiff.SortByTraversal {
		mode = bomdiff.SortByName
	}
	leftRoot, left, err := s.source.GetTree(ctx, leftID)
	if err != nil {
		return nil, fmt.Errorf("left baseline: %w", err)
	}
	rightRoot, right, err := s.source.GetTree(ctx, rightID)
	if err != nil {
		return nil, fmt.Errorf("right baseline: %w", err)
	}

	key := CompareCacheKey(left, right, mode)
	if rows, ok := s.cache.Get(ctx, key); ok {
		s.metrics.RecordCompare(string(mode), len(rows), true, 0)
		return &CompareResult{Left: left, Right: right, Rows: rows, Summary: bomdiff.Summarize(rows), Cached: true}, nil
	}

	start := time.Now()
	rows := bomdiff.Diff(leftRoot, rightRoot, bomdiff.WithSortMode(mode))
	elapsed := time.Since(start)
	s.metrics.RecordCompare(string(mode), len(rows), false, elapsed)

	if err := s.cache.Set(ctx, key, rows); err != nil {
		s.logger.Warn("cache compare result failed", zap.String("key", key), zap.Error(err))
	}
	s.logger.Debug("baselines compared",
		zap.String("left", leftID),
		zap.String("right", rightID),
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", elapsed))

	return &CompareResult{Left: left, Right: right, Rows: rows, Summary: bomdiff.Summarize(rows)}, nil
}

// View 对比视图：筛选后按窗口返回可见行
func (s *CompareService) View(ctx context.Context, q *CompareQuery) (*CompareView, error) {
	result, err := s.Compare(ctx, q.LeftID, q.RightID, q.Sort)
	if err != nil {
		return nil, err
	}
	page := bomdiff.Render(result.Rows, q.Filter, s.window(q.Window), q.More)
	return &CompareView{
		Left:    result.Left,
		Right:   result.Right,
		Summary: result.Summary,
		Filter:  q.Filter,
		Page:    page,
	}, nil
}

// Navigate 在筛选结果中定位上一个/下一个差异，窗口按需增长以包含目标行
func (s *CompareService) Navigate(ctx context.Context, q *CompareQuery, currentID, direction string) (*NavigateResult, error) {
	var step func([]bomdiff.DiffRow, string) (int, bool)
	switch strings.ToLower(direction) {
	case "", "next":
		step = bomdiff.Next
	case "prev", "previous":
		step = bomdiff.Prev
	default:
		return nil, ErrInvalidDirection
	}

	result, err := s.Compare(ctx, q.LeftID, q.RightID, q.Sort)
	if err != nil {
		return nil, err
	}
	filtered := bomdiff.Apply(result.Rows, q.Filter)
	w := s.window(q.Window).Sync(bomdiff.Fingerprint(result.Rows, q.Filter)).Clamp(len(filtered))

	nav := &NavigateResult{Total: len(filtered), Index: -1, Window: w}
	idx, ok := step(filtered, currentID)
	if !ok {
		return nav, nil
	}
	for w.Visible <= idx {
		w = w.Advance(len(filtered))
	}
	nav.Found = true
	nav.Index = idx
	nav.Row = &filtered[idx]
	nav.Window = w
	return nav, nil
}

// Export 导出完整筛选结果（不受窗口限制）
func (s *CompareService) Export(ctx context.Context, q *CompareQuery, format, encoding string) ([]byte, string, string, error) {
	result, err := s.Compare(ctx, q.LeftID, q.RightID, q.Sort)
	if err != nil {
		return nil, "", "", err
	}
	filtered := bomdiff.Apply(result.Rows, q.Filter)

	format = strings.ToLower(format)
	if format == "" {
		format = ExportXLSX
	}
	data, contentType, err := RenderExport(filtered, result.Left, result.Right, format, encoding)
	if err != nil {
		return nil, "", "", err
	}
	s.metrics.RecordExport(format)
	filename := fmt.Sprintf("compare_%s_%s.%s", result.Left.Name, result.Right.Name, format)
	return data, contentType, filename, nil
}

func (s *CompareService) window(w bomdiff.Window) bomdiff.Window {
	if w.Chunk <= 0 {
		w.Chunk = s.chunk
	}
	return w
}
