package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Scheme metric names, used to report which metrics were defaulted during ingestion
const (
	MetricNav                  = "nav"
	MetricCagr                 = "cagr"
	MetricAum                  = "aum"
	MetricTer                  = "ter"
	MetricMinInvestmentSip     = "min_investment_sip"
	MetricMinInvestmentOneTime = "min_investment_one_time"
	MetricReturnSinceInception = "return_since_inception"
	MetricReturnLastYear       = "return_last_year"
	MetricReturnLast3Years     = "return_last3_years"
	MetricReturnLast5Years     = "return_last5_years"
	MetricStandardDeviation    = "standard_deviation"
	MetricSharpeRatio          = "sharpe_ratio"
	MetricSortinoRatio         = "sortino_ratio"
	MetricAlpha                = "alpha"
	MetricBeta                 = "beta"
)

// MutualFundScheme represents a mutual fund scheme
type MutualFundScheme struct {
	ID                   uuid.UUID   `json:"id"`
	Name                 string      `json:"name"`
	SchemeCode           null.Int64  `json:"scheme_id"`
	AmcID                *uuid.UUID  `json:"amc_id,omitempty"`
	SchemePlan           string      `json:"scheme_plan"`
	SchemeType           string      `json:"scheme_type"`
	SchemeCategory       string      `json:"scheme_category"`
	Nav                  float64     `json:"nav"`
	ISIN                 null.String `json:"isin"`
	Cagr                 float64     `json:"cagr"`
	RiskLevel            string      `json:"risk_level"`
	Aum                  float64     `json:"aum"`
	Ter                  float64     `json:"ter"`
	Rating               int         `json:"rating"`
	BenchmarkIndex       string      `json:"benchmark_index"`
	MinInvestmentSip     float64     `json:"min_investment_sip"`
	MinInvestmentOneTime float64     `json:"min_investment_one_time"`
	ExitLoad             string      `json:"exit_load"`
	FundManager          string      `json:"fund_manager"`
	ReturnSinceInception float64     `json:"return_since_inception"`
	ReturnLastYear       float64     `json:"return_last_year"`
	ReturnLast3Years     float64     `json:"return_last3_years"`
	ReturnLast5Years     float64     `json:"return_last5_years"`
	StandardDeviation    float64     `json:"standard_deviation"`
	SharpeRatio          float64     `json:"sharpe_ratio"`
	SortinoRatio         float64     `json:"sortino_ratio"`
	Alpha                float64     `json:"alpha"`
	Beta                 float64     `json:"beta"`
	MissingMetrics       []string    `json:"missing_metrics"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// SchemeInput carries every overwritable scheme field, keyed by Name.
// AmcID is only applied when set, so an update never detaches a scheme from its AMC.
type SchemeInput struct {
	Name                 string
	SchemeCode           null.Int64
	AmcID                *uuid.UUID
	SchemePlan           string
	SchemeType           string
	SchemeCategory       string
	Nav                  float64
	ISIN                 null.String
	Cagr                 float64
	RiskLevel            string
	Aum                  float64
	Ter                  float64
	Rating               int
	BenchmarkIndex       string
	MinInvestmentSip     float64
	MinInvestmentOneTime float64
	ExitLoad             string
	FundManager          string
	ReturnSinceInception float64
	ReturnLastYear       float64
	ReturnLast3Years     float64
	ReturnLast5Years     float64
	StandardDeviation    float64
	SharpeRatio          float64
	SortinoRatio         float64
	Alpha                float64
	Beta                 float64
	MissingMetrics       []string
}

// ApplySchemeFields overwrites the business fields of s from in.
func ApplySchemeFields(s *MutualFundScheme, in SchemeInput) {
	s.Name = in.Name
	s.SchemeCode = in.SchemeCode
	if in.AmcID != nil {
		id := *in.AmcID
		s.AmcID = &id
	}
	s.SchemePlan = in.SchemePlan
	s.SchemeType = in.SchemeType
	s.SchemeCategory = in.SchemeCategory
	s.Nav = in.Nav
	s.ISIN = in.ISIN
	s.Cagr = in.Cagr
	s.RiskLevel = in.RiskLevel
	s.Aum = in.Aum
	s.Ter = in.Ter
	s.Rating = in.Rating
	s.BenchmarkIndex = in.BenchmarkIndex
	s.MinInvestmentSip = in.MinInvestmentSip
	s.MinInvestmentOneTime = in.MinInvestmentOneTime
	s.ExitLoad = in.ExitLoad
	s.FundManager = in.FundManager
	s.ReturnSinceInception = in.ReturnSinceInception
	s.ReturnLastYear = in.ReturnLastYear
	s.ReturnLast3Years = in.ReturnLast3Years
	s.ReturnLast5Years = in.ReturnLast5Years
	s.StandardDeviation = in.StandardDeviation
	s.SharpeRatio = in.SharpeRatio
	s.SortinoRatio = in.SortinoRatio
	s.Alpha = in.Alpha
	s.Beta = in.Beta
	s.MissingMetrics = append([]string(nil), in.MissingMetrics...)
}

// IsMetricMissing reports whether a zero value for metric came from a fallback
func (s *MutualFundScheme) IsMetricMissing(metric string) bool {
	for _, m := range s.MissingMetrics {
		if m == metric {
			return true
		}
	}
	return false
}

// SchemeFilter narrows scheme listings
type SchemeFilter struct {
	AmcID          *uuid.UUID
	SchemeCategory string
	Search         string
}
