package entities

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Join sentinels for values absent from every upstream table
const (
	SentinelText   = "NA"
	SentinelNumber = "0"
)

// RawRow is one flat row of an upstream feed
type RawRow map[string]any

// RawBatch is an upstream feed payload: {"Table": [row, ...]}
type RawBatch struct {
	Table []RawRow `json:"Table"`
}

// Text returns the column as a trimmed string, "" when absent or null.
// Column names are matched exactly first, then case-insensitively.
func (r RawRow) Text(column string) string {
	v, ok := r[column]
	if !ok {
		for k, val := range r {
			if strings.EqualFold(k, column) {
				v, ok = val, true
				break
			}
		}
	}
	if !ok || v == nil {
		return ""
	}

	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// SchemeTables are the upstream feeds joined into scheme records. Details is
// the primary table; every other table is keyed by a scheme, class or plan code.
type SchemeTables struct {
	Details      []RawRow `json:"Scheme_Details"`
	Classes      []RawRow `json:"Sclass_mst"`
	Aum          []RawRow `json:"Scheme_paum"`
	Plans        []RawRow `json:"Plan_mst"`
	Risk         []RawRow `json:"Scheme_master"`
	Returns      []RawRow `json:"Mf_abs_return"`
	ExitLoads    []RawRow `json:"Schemeload"`
	Ratios       []RawRow `json:"MF_Ratios_DefaultBM"`
	Sip          []RawRow `json:"Mf_sip"`
	ExpenseRatio []RawRow `json:"Expenceratio"`
	Isin         []RawRow `json:"schemeisinmaster"`
}

// CompositeScheme is one scheme assembled from the primary row and its side
// table matches, still in upstream string form. Defaulted names the metrics
// whose side table had no row for the scheme.
type CompositeScheme struct {
	SchemeCode           string   `json:"scheme_code"`
	Name                 string   `json:"name"`
	AmcCode              string   `json:"amc_code"`
	SchemePlan           string   `json:"scheme_plan"`
	SchemeType           string   `json:"scheme_type"`
	SchemeCategory       string   `json:"scheme_category"`
	Nav                  string   `json:"nav"`
	ISIN                 string   `json:"isin"`
	Cagr                 string   `json:"cagr"`
	RiskLevel            string   `json:"risk_level"`
	Aum                  string   `json:"aum"`
	Ter                  string   `json:"ter"`
	MinInvestmentSip     string   `json:"min_investment_sip"`
	ExitLoad             string   `json:"exit_load"`
	FundManager          string   `json:"fund_manager"`
	ReturnSinceInception string   `json:"return_since_inception"`
	ReturnLastYear       string   `json:"return_last_year"`
	ReturnLast3Years     string   `json:"return_last3_years"`
	ReturnLast5Years     string   `json:"return_last5_years"`
	StandardDeviation    string   `json:"standard_deviation"`
	SharpeRatio          string   `json:"sharpe_ratio"`
	SortinoRatio         string   `json:"sortino_ratio"`
	Alpha                string   `json:"alpha"`
	Beta                 string   `json:"beta"`
	Defaulted            []string `json:"defaulted,omitempty"`
}

// IngestReport summarises one ingestion pass over a feed
type IngestReport struct {
	Feed     string   `json:"feed"`
	Total    int      `json:"total"`
	Upserted int      `json:"upserted"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}
