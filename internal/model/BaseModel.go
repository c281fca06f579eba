package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BaseModel struct {
	ID string `gorm:"type:text;primaryKey" json:"id"`
	// No explicit column type: gorm picks the dialect's native timestamp
	// type (timestamptz on postgres, datetime on the sqlite used in tests).
	CreatedAt *time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt *time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

func (bm *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	if bm.ID == "" {
		// UUID version 4
		bm.ID = uuid.NewString()
	}
	return
}
