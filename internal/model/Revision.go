package model

import "fmt"

// Revision is one immutable document version in a project's ledger.
// Ordinals are dense and 1-based per project; ContentHash is unique across
// the whole system, not just within the owning project.
type Revision struct {
	BaseModel
	ProjectID string  `gorm:"type:text;not null;index;uniqueIndex:idx_revisions_project_ordinal" json:"projectId"`
	Project   Project `json:"-"`

	Ordinal     int    `gorm:"not null;uniqueIndex:idx_revisions_project_ordinal" json:"ordinal"`
	FileName    string `gorm:"type:varchar(255);not null" json:"fileName"`
	FilePath    string `gorm:"type:varchar(500);not null" json:"filePath"`
	ContentHash string `gorm:"type:varchar(64);not null;uniqueIndex" json:"contentHash"`

	IsLatest     bool `gorm:"type:boolean;default:false" json:"isLatest"`
	InProduction bool `gorm:"type:boolean;default:false" json:"inProduction"`
}

func (r Revision) TableName() string {
	return "revisions"
}

// Label renders the ordinal as the two-digit revision label used in file
// names and the UI, e.g. 1 -> "01".
func (r Revision) Label() string {
	return fmt.Sprintf("%02d", r.Ordinal)
}
