package model

// Classifier entities are reference data resolved by code. A project keeps
// nullable references to them; an unresolvable code leaves the reference nil
// and forces the project into needs-review.

type Designer struct {
	BaseModel
	Code     string `gorm:"type:varchar(10);not null;uniqueIndex" json:"code"`
	FullName string `gorm:"type:varchar(255);not null" json:"fullName"`
	IsActive bool   `gorm:"type:boolean;default:true" json:"isActive"`
}

func (Designer) TableName() string { return "designers" }

type Line struct {
	BaseModel
	Code     string `gorm:"type:varchar(10);not null;uniqueIndex" json:"code"`
	FullName string `gorm:"type:varchar(255);not null" json:"fullName"`
	IsActive bool   `gorm:"type:boolean;default:true" json:"isActive"`
}

func (Line) TableName() string { return "lines" }

type DesignStage struct {
	BaseModel
	Code     string `gorm:"type:varchar(5);not null;uniqueIndex" json:"code"`
	FullName string `gorm:"type:varchar(255);not null" json:"fullName"`
	IsActive bool   `gorm:"type:boolean;default:true" json:"isActive"`
}

func (DesignStage) TableName() string { return "design_stages" }

type Stage struct {
	BaseModel
	Code     string `gorm:"type:varchar(10);not null;uniqueIndex" json:"code"`
	FullName string `gorm:"type:varchar(255);not null" json:"fullName"`
	IsActive bool   `gorm:"type:boolean;default:true" json:"isActive"`
}

func (Stage) TableName() string { return "stages" }

type Plot struct {
	BaseModel
	Code     string `gorm:"type:varchar(10);not null;uniqueIndex" json:"code"`
	FullName string `gorm:"type:varchar(255);not null" json:"fullName"`
	IsActive bool   `gorm:"type:boolean;default:true" json:"isActive"`
}

func (Plot) TableName() string { return "plots" }

type Section struct {
	BaseModel
	Code     string `gorm:"type:varchar(5);not null;uniqueIndex" json:"code"`
	FullName string `gorm:"type:varchar(255);not null" json:"fullName"`
	IsActive bool   `gorm:"type:boolean;default:true" json:"isActive"`
}

func (Section) TableName() string { return "sections" }
