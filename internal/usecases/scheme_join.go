package usecases

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"myfi.backend/internal/domain/entities"
	"myfi.backend/internal/infrastructure/metrics"
	"myfi.backend/pkg/logger"
)

// Key columns of the upstream scheme feeds
const (
	colSchemeCode = "schemecode"
	colClassCode  = "classcode"
	colPlanCode   = "plan_code"
	colPlan       = "plan"
)

func indexBy(rows []entities.RawRow, column string) map[string]entities.RawRow {
	idx := make(map[string]entities.RawRow, len(rows))
	for _, row := range rows {
		if key := row.Text(column); key != "" {
			idx[key] = row
		}
	}
	return idx
}

// JoinSchemeTables assembles one composite record per primary scheme row.
// Every side table is indexed once, so the join is linear in the total row
// count. A side table with no row for a scheme yields "NA" for text fields and
// "0" for numeric fields.
func JoinSchemeTables(t entities.SchemeTables) []entities.CompositeScheme {
	classes := indexBy(t.Classes, colClassCode)
	plans := indexBy(t.Plans, colPlanCode)
	aum := indexBy(t.Aum, colSchemeCode)
	risk := indexBy(t.Risk, colSchemeCode)
	returns := indexBy(t.Returns, colSchemeCode)
	exitLoads := indexBy(t.ExitLoads, colSchemeCode)
	ratios := indexBy(t.Ratios, colSchemeCode)
	sip := indexBy(t.Sip, colSchemeCode)
	expense := indexBy(t.ExpenseRatio, colSchemeCode)
	isin := indexBy(t.Isin, colSchemeCode)

	out := make([]entities.CompositeScheme, 0, len(t.Details))
	for _, row := range t.Details {
		code := row.Text(colSchemeCode)
		if code == "" {
			continue
		}

		j := joiner{}
		class, hasClass := classes[row.Text(colClassCode)]
		plan, hasPlan := plans[row.Text(colPlan)]
		ret, hasRet := returns[code]
		ratio, hasRatio := ratios[code]
		riskRow, hasRisk := risk[code]
		aumRow, hasAum := aum[code]
		sipRow, hasSip := sip[code]
		expRow, hasExp := expense[code]
		loadRow, hasLoad := exitLoads[code]
		isinRow, hasIsin := isin[code]

		c := entities.CompositeScheme{
			SchemeCode:     code,
			Name:           textOrNA(row.Text("s_name")),
			AmcCode:        textOrNA(row.Text("amc_code")),
			FundManager:    textOrNA(row.Text("fund_mgr1")),
			SchemePlan:     j.text(plan, hasPlan, "plan"),
			SchemeType:     j.text(class, hasClass, "asset_type"),
			SchemeCategory: j.text(class, hasClass, "sub_category"),
			RiskLevel:      j.text(riskRow, hasRisk, "color"),
			ExitLoad:       j.text(loadRow, hasLoad, "EXITLOAD"),
			ISIN:           j.text(isinRow, hasIsin, "ISIN"),

			Nav:                  j.number(entities.MetricNav, ret, hasRet, "c_nav"),
			Cagr:                 j.number(entities.MetricCagr, ret, hasRet, "1yrret"),
			ReturnLastYear:       j.number(entities.MetricReturnLastYear, ret, hasRet, "1yrret"),
			ReturnLast3Years:     j.number(entities.MetricReturnLast3Years, ret, hasRet, "3yearret"),
			ReturnLast5Years:     j.number(entities.MetricReturnLast5Years, ret, hasRet, "5yearret"),
			ReturnSinceInception: j.number(entities.MetricReturnSinceInception, ret, hasRet, "incret"),
			Aum:                  j.number(entities.MetricAum, aumRow, hasAum, "aum"),
			Ter:                  j.number(entities.MetricTer, expRow, hasExp, "expratio"),
			MinInvestmentSip:     j.number(entities.MetricMinInvestmentSip, sipRow, hasSip, "sipmininvest"),
			StandardDeviation:    j.number(entities.MetricStandardDeviation, ratio, hasRatio, "sd"),
			SharpeRatio:          j.number(entities.MetricSharpeRatio, ratio, hasRatio, "sharpe"),
			SortinoRatio:         j.number(entities.MetricSortinoRatio, ratio, hasRatio, "sortino"),
			Alpha:                j.number(entities.MetricAlpha, ratio, hasRatio, "alpha"),
			Beta:                 j.number(entities.MetricBeta, ratio, hasRatio, "beta"),
		}
		c.Defaulted = j.defaulted
		out = append(out, c)
	}
	return out
}

type joiner struct {
	defaulted []string
}

func (j *joiner) text(row entities.RawRow, found bool, column string) string {
	if !found {
		return entities.SentinelText
	}
	return textOrNA(row.Text(column))
}

func (j *joiner) number(metric string, row entities.RawRow, found bool, column string) string {
	if !found {
		j.defaulted = append(j.defaulted, metric)
		return entities.SentinelNumber
	}
	return row.Text(column)
}

func textOrNA(v string) string {
	if v == "" {
		return entities.SentinelText
	}
	return v
}

// parseMetric reads an upstream numeric string. ok is false for empty,
// sentinel text or unparsable values.
func parseMetric(raw string) (float64, bool) {
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	raw = strings.ReplaceAll(raw, ",", "")
	if raw == "" || strings.EqualFold(raw, entities.SentinelText) || raw == "-" {
		return 0, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// metricCoercer converts composite strings to numbers, defaulting to zero and
// recording every metric that had no usable value.
type metricCoercer struct {
	ctx        context.Context
	schemeCode string
	missing    []string
	defaulted  map[string]bool
}

func newMetricCoercer(ctx context.Context, c entities.CompositeScheme) *metricCoercer {
	defaulted := make(map[string]bool, len(c.Defaulted))
	for _, m := range c.Defaulted {
		defaulted[m] = true
	}
	return &metricCoercer{ctx: ctx, schemeCode: c.SchemeCode, defaulted: defaulted}
}

func (mc *metricCoercer) float(metric, raw string) float64 {
	if !mc.defaulted[metric] {
		if v, ok := parseMetric(raw); ok {
			return v
		}
	}
	mc.missing = append(mc.missing, metric)
	metrics.ObserveDefaultedMetric(metric)
	logger.Warn(mc.ctx, "Scheme metric defaulted to zero",
		zap.String("scheme_code", mc.schemeCode),
		zap.String("metric", metric),
		zap.String("raw", raw),
	)
	return 0
}

// toSchemeInput coerces a composite record into upsert input. amcID may be nil
// when the AMC code is unknown.
func toSchemeInput(ctx context.Context, c entities.CompositeScheme, amcID *uuid.UUID) entities.SchemeInput {
	mc := newMetricCoercer(ctx, c)

	in := entities.SchemeInput{
		Name:           c.Name,
		AmcID:          amcID,
		SchemePlan:     c.SchemePlan,
		SchemeType:     c.SchemeType,
		SchemeCategory: c.SchemeCategory,
		RiskLevel:      c.RiskLevel,
		BenchmarkIndex: entities.SentinelText,
		ExitLoad:       c.ExitLoad,
		FundManager:    c.FundManager,

		Nav:                  mc.float(entities.MetricNav, c.Nav),
		Cagr:                 mc.float(entities.MetricCagr, c.Cagr),
		Aum:                  mc.float(entities.MetricAum, c.Aum),
		Ter:                  mc.float(entities.MetricTer, c.Ter),
		MinInvestmentSip:     mc.float(entities.MetricMinInvestmentSip, c.MinInvestmentSip),
		ReturnSinceInception: mc.float(entities.MetricReturnSinceInception, c.ReturnSinceInception),
		ReturnLastYear:       mc.float(entities.MetricReturnLastYear, c.ReturnLastYear),
		ReturnLast3Years:     mc.float(entities.MetricReturnLast3Years, c.ReturnLast3Years),
		ReturnLast5Years:     mc.float(entities.MetricReturnLast5Years, c.ReturnLast5Years),
		StandardDeviation:    mc.float(entities.MetricStandardDeviation, c.StandardDeviation),
		SharpeRatio:          mc.float(entities.MetricSharpeRatio, c.SharpeRatio),
		SortinoRatio:         mc.float(entities.MetricSortinoRatio, c.SortinoRatio),
		Alpha:                mc.float(entities.MetricAlpha, c.Alpha),
		Beta:                 mc.float(entities.MetricBeta, c.Beta),
	}
	// No upstream feed carries the lump-sum minimum.
	in.MissingMetrics = append(mc.missing, entities.MetricMinInvestmentOneTime)

	if code, err := strconv.ParseInt(c.SchemeCode, 10, 64); err == nil {
		in.SchemeCode = null.Int64From(code)
	}
	if c.ISIN != "" && c.ISIN != entities.SentinelText {
		in.ISIN = null.StringFrom(c.ISIN)
	}
	return in
}
