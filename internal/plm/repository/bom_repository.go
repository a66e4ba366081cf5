package repository

import (
	"context"

	"github.com/bitfantasy/nimo-baseline/internal/plm/entity"
	"gorm.io/gorm"
)

// ProjectBOMRepository 项目BOM只读访问（基线冻结用）
type ProjectBOMRepository struct {
	db *gorm.DB
}

func NewProjectBOMRepository(db *gorm.DB) *ProjectBOMRepository {
	return &ProjectBOMRepository{db: db}
}

// FindByID 根据ID查找BOM
func (r *ProjectBOMRepository) FindByID(ctx context.Context, id string) (*entity.ProjectBOM, error) {
	var bom entity.ProjectBOM
	if err := r.db.WithContext(ctx).First(&bom, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &bom, nil
}

// ListItemsByBOM 获取BOM所有行项（按层级、序号排序）
func (r *ProjectBOMRepository) ListItemsByBOM(ctx context.Context, bomID string) ([]entity.ProjectBOMItem, error) {
	var items []entity.ProjectBOMItem
	err := r.db.WithContext(ctx).
		Where("bom_id = ?", bomID).
		Order("level ASC, item_number ASC, id ASC").
		Find(&items).Error
	return items, err
}
