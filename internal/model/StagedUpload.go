package model

// StagedUpload holds uploaded bytes in the temp area until they are
// committed into a Revision. Consumed flips exactly once at commit time,
// whether or not the commit produced a new revision.
type StagedUpload struct {
	BaseModel
	OwnerID      string `gorm:"type:text;not null;index" json:"ownerId"`
	OriginalName string `gorm:"type:varchar(255);not null" json:"originalName"`
	TmpPath      string `gorm:"type:varchar(500);not null" json:"-"`
	ContentHash  string `gorm:"type:varchar(64);not null;index" json:"contentHash"`
	Consumed     bool   `gorm:"type:boolean;default:false" json:"consumed"`
}

func (s StagedUpload) TableName() string {
	return "staged_uploads"
}
