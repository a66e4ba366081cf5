package entity

import "time"

// Baseline 基线来源
const (
	BaselineSourceManual = "manual"
	BaselineSourceImport = "import"
	BaselineSourceBOM    = "bom"
)

// Baseline BOM基线（不可变快照，零件树以JSON保存）
type Baseline struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	ProjectID    string    `json:"project_id" gorm:"size:32;index"`
	Name         string    `json:"name" gorm:"size:128;not null"`
	Label        string    `json:"label,omitempty" gorm:"size:32"` // A/B/EVT/DVT...
	Description  string    `json:"description,omitempty"`
	Source       string    `json:"source" gorm:"size:16;not null;default:manual"` // manual/import/bom
	SourceBOMID  *string   `json:"source_bom_id,omitempty" gorm:"size:32"`
	NodeCount    int       `json:"node_count" gorm:"default:0"`
	Checksum     string    `json:"checksum" gorm:"size:16;not null"`
	SnapshotJSON string    `json:"-" gorm:"type:jsonb;not null"`
	ArchiveKey   string    `json:"archive_key,omitempty" gorm:"size:256"`
	CreatedBy    string    `json:"created_by" gorm:"size:32"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Baseline) TableName() string {
	return "bom_baselines"
}
