package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

type MutualFundScheme struct {
	ID                   uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Name                 string      `gorm:"type:varchar(255);not null;uniqueIndex"`
	SchemeCode           null.Int64  `gorm:"uniqueIndex"`
	AmcID                *uuid.UUID  `gorm:"type:uuid;index"`
	SchemePlan           string      `gorm:"type:varchar(100)"`
	SchemeType           string      `gorm:"type:varchar(100)"`
	SchemeCategory       string      `gorm:"type:varchar(255)"`
	Nav                  float64     `gorm:"default:0"`
	ISIN                 null.String `gorm:"type:varchar(20);uniqueIndex"`
	Cagr                 float64     `gorm:"default:0"`
	RiskLevel            string      `gorm:"type:varchar(100)"`
	Aum                  float64     `gorm:"default:0"`
	Ter                  float64     `gorm:"default:0"`
	Rating               int         `gorm:"default:0"`
	BenchmarkIndex       string      `gorm:"type:varchar(255)"`
	MinInvestmentSip     float64     `gorm:"default:0"`
	MinInvestmentOneTime float64     `gorm:"default:0"`
	ExitLoad             string      `gorm:"type:text"`
	FundManager          string      `gorm:"type:varchar(255)"`
	ReturnSinceInception float64     `gorm:"default:0"`
	ReturnLastYear       float64     `gorm:"default:0"`
	ReturnLast3Years     float64     `gorm:"column:return_last3_years;default:0"`
	ReturnLast5Years     float64     `gorm:"column:return_last5_years;default:0"`
	StandardDeviation    float64     `gorm:"default:0"`
	SharpeRatio          float64     `gorm:"default:0"`
	SortinoRatio         float64     `gorm:"default:0"`
	Alpha                float64     `gorm:"default:0"`
	Beta                 float64     `gorm:"default:0"`
	MissingMetrics       string      `gorm:"type:jsonb;default:'[]'"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (MutualFundScheme) TableName() string {
	return "mutual_fund_schemes"
}
