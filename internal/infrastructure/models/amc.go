package models

import (
	"time"

	"github.com/google/uuid"
)

type AMC struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Code      string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Address   string    `gorm:"type:text"`
	Email     string    `gorm:"type:varchar(255)"`
	Phone     string    `gorm:"type:varchar(100)"`
	Website   string    `gorm:"type:varchar(255)"`
	FundName  string    `gorm:"type:varchar(255)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (AMC) TableName() string {
	return "amcs"
}
