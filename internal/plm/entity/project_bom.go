package entity

import "time"

// ProjectBOM 项目BOM（研发BOM，关联项目+阶段），基线可从其行项冻结生成
type ProjectBOM struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	ProjectID   string    `json:"project_id" gorm:"size:32;not null"`
	BOMType     string    `json:"bom_type" gorm:"size:16;not null;default:EBOM"` // EBOM/SBOM/OBOM/FWBOM
	Version     string    `json:"version" gorm:"size:16;not null;default:v1.0"`
	Name        string    `json:"name" gorm:"size:128;not null"`
	Status      string    `json:"status" gorm:"size:16;not null;default:draft"` // draft/pending_review/published/frozen/rejected
	Description string    `json:"description,omitempty"`
	TotalItems  int       `json:"total_items" gorm:"default:0"`
	CreatedBy   string    `json:"created_by" gorm:"size:32;not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Items []ProjectBOMItem `json:"items,omitempty" gorm:"foreignKey:BOMID"`
}

func (ProjectBOM) TableName() string {
	return "project_boms"
}

// ProjectBOMItem BOM行项（parent_item_id 组织层级）
type ProjectBOMItem struct {
	ID              string   `json:"id" gorm:"primaryKey;size:32"`
	BOMID           string   `json:"bom_id" gorm:"size:32;not null"`
	ItemNumber      int      `json:"item_number" gorm:"default:0"`
	ParentItemID    *string  `json:"parent_item_id,omitempty" gorm:"size:32"`
	Level           int      `json:"level" gorm:"not null;default:0"`
	Name            string   `json:"name" gorm:"size:128;not null"`
	Revision        string   `json:"revision,omitempty" gorm:"size:16"`
	Quantity        float64  `json:"quantity" gorm:"type:numeric(15,4);not null;default:1"`
	Unit            string   `json:"unit" gorm:"size:16;not null;default:pcs"`
	ManufacturerPN  string   `json:"manufacturer_pn,omitempty" gorm:"size:64"`
	DrawingNo       string   `json:"drawing_no,omitempty" gorm:"size:64"` // 图纸编号
	LifecycleStatus string   `json:"lifecycle_status,omitempty" gorm:"size:16;default:active"`
	IsAlternative   bool     `json:"is_alternative" gorm:"default:false"`
	AlternativeFor  *string  `json:"alternative_for,omitempty" gorm:"size:32"`
	Notes           string   `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProjectBOMItem) TableName() string {
	return "project_bom_items"
}
