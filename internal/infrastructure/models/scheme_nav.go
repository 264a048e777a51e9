package models

import (
	"time"

	"github.com/google/uuid"
)

type SchemeNAV struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	SchemeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	NavData   string    `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SchemeNAV) TableName() string {
	return "scheme_navs"
}
