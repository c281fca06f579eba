package model

// Project is the single point of identity for a controlled document set.
// FullCode stays nil while the project is a draft; assigning a code that
// already belongs to another project merges this one into it.
type Project struct {
	BaseModel
	FullCode     *string `gorm:"type:varchar(128);uniqueIndex" json:"fullCode"`
	Construction string  `gorm:"type:text;default:''" json:"construction"`
	// NeedsReview is derived, never set directly. True iff FullCode or any
	// classifier reference is missing.
	NeedsReview bool `gorm:"type:boolean;default:true" json:"needsReview"`

	DesignerID    *string      `gorm:"type:text" json:"designerId"`
	Designer      *Designer    `json:"designer,omitempty"`
	LineID        *string      `gorm:"type:text" json:"lineId"`
	Line          *Line        `json:"line,omitempty"`
	DesignStageID *string      `gorm:"type:text" json:"designStageId"`
	DesignStage   *DesignStage `json:"designStage,omitempty"`
	StageID       *string      `gorm:"type:text" json:"stageId"`
	Stage         *Stage       `json:"stage,omitempty"`
	PlotID        *string      `gorm:"type:text" json:"plotId"`
	Plot          *Plot        `json:"plot,omitempty"`
	SectionID     *string      `gorm:"type:text" json:"sectionId"`
	Section       *Section     `json:"section,omitempty"`

	Revisions []Revision `gorm:"constraint:OnDelete:CASCADE" json:"revisions,omitempty"`
}

func (p Project) TableName() string {
	return "projects"
}

// CodeOrDraft renders the identity for logs and file names.
func (p Project) CodeOrDraft() string {
	if p.FullCode != nil && *p.FullCode != "" {
		return *p.FullCode
	}
	return "draft-" + p.ID
}

// ComputeNeedsReview derives the review flag from the identity fields.
// Callers mutating FullCode or a classifier reference must persist the
// result in the same transaction.
func (p Project) ComputeNeedsReview() bool {
	if p.FullCode == nil || *p.FullCode == "" {
		return true
	}
	refs := []*string{p.DesignerID, p.LineID, p.DesignStageID, p.StageID, p.PlotID, p.SectionID}
	for _, ref := range refs {
		if ref == nil || *ref == "" {
			return true
		}
	}
	return false
}
