package repository

import (
	"context"

	"github.com/bitfantasy/nimo-baseline/internal/plm/entity"
	"gorm.io/gorm"
)

type BaselineRepository struct {
	db *gorm.DB
}

func NewBaselineRepository(db *gorm.DB) *BaselineRepository {
	return &BaselineRepository{db: db}
}

// Create 创建基线
func (r *BaselineRepository) Create(ctx context.Context, b *entity.Baseline) error {
	return r.db.WithContext(ctx).Create(b).Error
}

// FindByID 根据ID查找基线（含快照）
func (r *BaselineRepository) FindByID(ctx context.Context, id string) (*entity.Baseline, error) {
	var b entity.Baseline
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// ListByProject 获取基线列表（不加载快照）；projectID为空时返回全部
func (r *BaselineRepository) ListByProject(ctx context.Context, projectID string) ([]entity.Baseline, error) {
	var list []entity.Baseline
	query := r.db.WithContext(ctx).Omit("snapshot_json")
	if projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}
	err := query.Order("created_at DESC").Find(&list).Error
	return list, err
}

// UpdateArchiveKey 记录归档对象路径
func (r *BaselineRepository) UpdateArchiveKey(ctx context.Context, id, key string) error {
	return r.db.WithContext(ctx).Model(&entity.Baseline{}).Where("id = ?", id).Update("archive_key", key).Error
}

// Delete 删除基线
func (r *BaselineRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&entity.Baseline{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
