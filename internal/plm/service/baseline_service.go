package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bitfantasy/nimo-baseline/internal/plm/bomdiff"
	"github.com/bitfantasy/nimo-baseline/internal/plm/entity"
	"github.com/bitfantasy/nimo-baseline/internal/plm/repository"
	"github.com/bitfantasy/nimo-baseline/internal/plm/sse"
	"github.com/bitfantasy/nimo-baseline/internal/shared/telemetry"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// BaselineSummary 基线摘要（不含快照）
type BaselineSummary struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id,omitempty"`
	Name      string    `json:"name"`
	Label     string    `json:"label,omitempty"`
	Checksum  string    `json:"checksum"`
	NodeCount int       `json:"node_count"`
	CreatedAt time.Time `json:"created_at"`
}

func summaryOf(b *entity.Baseline) BaselineSummary {
	return BaselineSummary{
		ID:        b.ID,
		ProjectID: b.ProjectID,
		Name:      b.Name,
		Label:     b.Label,
		Checksum:  b.Checksum,
		NodeCount: b.NodeCount,
		CreatedAt: b.CreatedAt,
	}
}

// CreateBaselineInput 创建基线请求
type CreateBaselineInput struct {
	ProjectID   string            `json:"project_id"`
	Name        string            `json:"name" binding:"required"`
	Label       string            `json:"label"`
	Description string            `json:"description"`
	Root        *bomdiff.PartNode `json:"root" binding:"required"`
}

// SnapshotBOMInput 从项目BOM冻结基线请求
type SnapshotBOMInput struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// BaselineService 基线服务
type BaselineService struct {
	repo             *repository.BaselineRepository
	bomRepo          *repository.ProjectBOMRepository
	archive          *SnapshotArchive
	hub              *sse.Hub
	metrics          *telemetry.Metrics
	logger           *zap.Logger
	rejectDuplicates bool
}

// NewBaselineService 创建基线服务
func NewBaselineService(
	repo *repository.BaselineRepository,
	bomRepo *repository.ProjectBOMRepository,
	archive *SnapshotArchive,
	hub *sse.Hub,
	metrics *telemetry.Metrics,
	logger *zap.Logger,
	rejectDuplicates bool,
) *BaselineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaselineService{
		repo:             repo,
		bomRepo:          bomRepo,
		archive:          archive,
		hub:              hub,
		metrics:          metrics,
		logger:           logger,
		rejectDuplicates: rejectDuplicates,
	}
}

// Create 手工创建基线
func (s *BaselineService) Create(ctx context.Context, userID string, input *CreateBaselineInput) (*entity.Baseline, error) {
	b := &entity.Baseline{
		ProjectID:   input.ProjectID,
		Name:        input.Name,
		Label:       input.Label,
		Description: input.Description,
		Source:      entity.BaselineSourceManual,
		CreatedBy:   userID,
	}
	return s.save(ctx, b, input.Root)
}

// Import 从Excel导入基线
func (s *BaselineService) Import(ctx context.Context, userID string, input *CreateBaselineInput, file io.Reader) (*entity.Baseline, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("%w: open excel: %v", ErrInvalidTree, err)
	}
	defer f.Close()

	root, err := ParseExcelTree(f)
	if err != nil {
		return nil, err
	}
	b := &entity.Baseline{
		ProjectID:   input.ProjectID,
		Name:        input.Name,
		Label:       input.Label,
		Description: input.Description,
		Source:      entity.BaselineSourceImport,
		CreatedBy:   userID,
	}
	return s.save(ctx, b, root)
}

// SnapshotFromBOM 将项目BOM冻结为基线
func (s *BaselineService) SnapshotFromBOM(ctx context.Context, userID, projectID, bomID string, input *SnapshotBOMInput) (*entity.Baseline, error) {
	bom, err := s.bomRepo.FindByID(ctx, bomID)
	if err != nil {
		return nil, err
	}
	if bom.ProjectID != projectID {
		return nil, repository.ErrNotFound
	}
	items, err := s.bomRepo.ListItemsByBOM(ctx, bomID)
	if err != nil {
		return nil, fmt.Errorf("list bom items: %w", err)
	}
	root, err := TreeFromBOM(bom, items)
	if err != nil {
		return nil, err
	}

	name := input.Name
	if name == "" {
		name = fmt.Sprintf("%s %s", bom.Name, bom.Version)
	}
	b := &entity.Baseline{
		ProjectID:   projectID,
		Name:        name,
		Label:       input.Label,
		Description: input.Description,
		Source:      entity.BaselineSourceBOM,
		SourceBOMID: &bom.ID,
		CreatedBy:   userID,
	}
	return s.save(ctx, b, root)
}

// save 校验、序列化并保存基线，然后归档和通知
func (s *BaselineService) save(ctx context.Context, b *entity.Baseline, root *bomdiff.PartNode) (*entity.Baseline, error) {
	if err := ValidateTree(root, s.rejectDuplicates); err != nil {
		return nil, err
	}
	snapshot, checksum, err := EncodeTree(root)
	if err != nil {
		return nil, err
	}

	b.ID = uuid.New().String()
	b.SnapshotJSON = snapshot
	b.Checksum = checksum
	b.NodeCount = root.Count()
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create baseline: %w", err)
	}

	if s.archive.Enabled() {
		key := ArchiveKey(b.ProjectID, b.ID)
		if err := s.archive.Put(ctx, key, []byte(snapshot)); err != nil {
			s.logger.Warn("archive baseline snapshot failed", zap.String("baseline_id", b.ID), zap.Error(err))
		} else if err := s.repo.UpdateArchiveKey(ctx, b.ID, key); err != nil {
			s.logger.Warn("record archive key failed", zap.String("baseline_id", b.ID), zap.Error(err))
		} else {
			b.ArchiveKey = key
		}
	}

	s.metrics.RecordBaselineSaved(b.Source, b.NodeCount)
	if s.hub != nil {
		s.hub.PublishBaselineUpdate(b.ProjectID, b.ID, "created")
	}
	s.logger.Info("baseline created",
		zap.String("baseline_id", b.ID),
		zap.String("source", b.Source),
		zap.Int("nodes", b.NodeCount),
		zap.String("checksum", b.Checksum))
	return b, nil
}

// Get 获取基线
func (s *BaselineService) Get(ctx context.Context, id string) (*entity.Baseline, error) {
	return s.repo.FindByID(ctx, id)
}

// GetTree 获取基线零件树
func (s *BaselineService) GetTree(ctx context.Context, id string) (*bomdiff.PartNode, BaselineSummary, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, BaselineSummary{}, err
	}
	root, err := DecodeTree(b.SnapshotJSON)
	if err != nil {
		return nil, BaselineSummary{}, fmt.Errorf("baseline %s: %w", id, err)
	}
	return root, summaryOf(b), nil
}

// List 获取基线列表
func (s *BaselineService) List(ctx context.Context, projectID string) ([]entity.Baseline, error) {
	return s.repo.ListByProject(ctx, projectID)
}

// Flatten 获取基线扁平列表
func (s *BaselineService) Flatten(ctx context.Context, id string) ([]bomdiff.FlatEntry, error) {
	root, _, err := s.GetTree(ctx, id)
	if err != nil {
		return nil, err
	}
	return bomdiff.Flatten(root), nil
}

// DownloadArchive 下载基线快照；未归档时返回数据库中的快照
func (s *BaselineService) DownloadArchive(ctx context.Context, id string) ([]byte, *entity.Baseline, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if b.ArchiveKey != "" && s.archive.Enabled() {
		data, err := s.archive.Get(ctx, b.ArchiveKey)
		if err == nil {
			return data, b, nil
		}
		s.logger.Warn("read archived snapshot failed, using stored copy",
			zap.String("baseline_id", id), zap.Error(err))
	}
	return []byte(b.SnapshotJSON), b, nil
}

// Delete 删除基线
func (s *BaselineService) Delete(ctx context.Context, id string) error {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if b.ArchiveKey != "" {
		if err := s.archive.Remove(ctx, b.ArchiveKey); err != nil && !errors.Is(err, ErrArchiveDisabled) {
			s.logger.Warn("remove archived snapshot failed", zap.String("baseline_id", id), zap.Error(err))
		}
	}
	if s.hub != nil {
		s.hub.PublishBaselineUpdate(b.ProjectID, b.ID, "deleted")
	}
	return nil
}
