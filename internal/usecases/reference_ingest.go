package usecases

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"myfi.backend/internal/domain/entities"
	domainerrors "myfi.backend/internal/domain/errors"
	"myfi.backend/internal/infrastructure/metrics"
	"myfi.backend/pkg/logger"
)

// Feed names used in reports and metrics
const (
	FeedAmc     = "amc"
	FeedSchemes = "schemes"
	FeedNav     = "nav"
)

const maxReportErrors = 20

// reportBuilder collects row outcomes from concurrent workers
type reportBuilder struct {
	mu     sync.Mutex
	report entities.IngestReport
}

func newReportBuilder(feed string, total int) *reportBuilder {
	return &reportBuilder{report: entities.IngestReport{Feed: feed, Total: total}}
}

func (b *reportBuilder) upserted() {
	b.mu.Lock()
	b.report.Upserted++
	b.mu.Unlock()
	metrics.ObserveIngestRow(b.report.Feed, metrics.OutcomeSuccess)
}

func (b *reportBuilder) skipped() {
	b.mu.Lock()
	b.report.Skipped++
	b.mu.Unlock()
	metrics.ObserveIngestRow(b.report.Feed, metrics.OutcomeSkipped)
}

func (b *reportBuilder) failed(key string, err error) {
	b.mu.Lock()
	b.report.Failed++
	if len(b.report.Errors) < maxReportErrors {
		b.report.Errors = append(b.report.Errors, fmt.Sprintf("%s: %v", key, err))
	}
	b.mu.Unlock()
	metrics.ObserveIngestRow(b.report.Feed, metrics.OutcomeFailure)
}

func (b *reportBuilder) build() entities.IngestReport {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.report
}

// forEach runs fn over n items with the configured worker limit. Row failures
// are the caller's to record; only context cancellation stops the pass.
func (u *ReferenceDataUsecase) forEach(ctx context.Context, n int, fn func(ctx context.Context, i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.workers)
	for i := 0; i < n; i++ {
		if err := gctx.Err(); err != nil {
			break
		}
		i := i
		g.Go(func() error {
			fn(gctx, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// IngestAmcBatch upserts every row of an AMC master feed. Rows sharing an AMC
// code collapse into the last one before the workers start.
func (u *ReferenceDataUsecase) IngestAmcBatch(ctx context.Context, batch entities.RawBatch) (entities.IngestReport, error) {
	b := newReportBuilder(FeedAmc, len(batch.Table))

	inputs := make([]entities.AmcInput, len(batch.Table))
	for i, row := range batch.Table {
		inputs[i] = amcInputFromRow(row)
		inputs[i].Code = strings.TrimSpace(inputs[i].Code)
		if inputs[i].Code == "" {
			b.skipped()
		}
	}
	rows := lastByKey(len(inputs), func(i int) string { return inputs[i].Code })

	err := u.forEach(ctx, len(rows), func(ctx context.Context, i int) {
		r := rows[i]
		in := inputs[r.index]
		if _, err := u.UpsertAmc(ctx, in); err != nil {
			logger.Warn(ctx, "AMC upsert failed", zap.String("amc_code", in.Code), zap.Error(err))
			times(r.rows, func() { b.failed(in.Code, err) })
			return
		}
		times(r.rows, b.upserted)
	})

	report := b.build()
	logIngestReport(ctx, report)
	return report, err
}

// keyedRow is the surviving row of a business key and how many feed rows
// collapsed into it
type keyedRow struct {
	index int
	rows  int
}

// lastByKey keeps the last of n rows per key, in first-seen key order. Rows
// with an empty key are dropped.
func lastByKey(n int, key func(i int) string) []keyedRow {
	pos := map[string]int{}
	var out []keyedRow
	for i := 0; i < n; i++ {
		k := key(i)
		if k == "" {
			continue
		}
		if p, ok := pos[k]; ok {
			out[p].index = i
			out[p].rows++
			continue
		}
		pos[k] = len(out)
		out = append(out, keyedRow{index: i, rows: 1})
	}
	return out
}

func times(n int, outcome func()) {
	for i := 0; i < n; i++ {
		outcome()
	}
}

func amcInputFromRow(row entities.RawRow) entities.AmcInput {
	var address []string
	for _, col := range []string{"add1", "add2", "add3"} {
		if v := row.Text(col); v != "" {
			address = append(address, v)
		}
	}
	return entities.AmcInput{
		Name:     row.Text("amc"),
		Code:     row.Text("amc_code"),
		Address:  strings.Join(address, " "),
		Email:    row.Text("email"),
		Phone:    row.Text("phone"),
		Website:  row.Text("webiste"),
		FundName: row.Text("fund"),
	}
}

// IngestSchemeBatch joins the scheme feeds and upserts one scheme per primary
// row. Composites sharing a scheme name collapse into the last one.
func (u *ReferenceDataUsecase) IngestSchemeBatch(ctx context.Context, tables entities.SchemeTables) (entities.IngestReport, error) {
	composites := JoinSchemeTables(tables)
	b := newReportBuilder(FeedSchemes, len(composites))
	amcs := newAmcResolver(u)

	rows := lastByKey(len(composites), func(i int) string {
		name := strings.TrimSpace(composites[i].Name)
		if name == "" || name == entities.SentinelText {
			b.skipped()
			return ""
		}
		return name
	})

	err := u.forEach(ctx, len(rows), func(ctx context.Context, i int) {
		r := rows[i]
		c := composites[r.index]

		amcID, err := amcs.resolve(ctx, c.AmcCode)
		if err != nil {
			times(r.rows, func() { b.failed(c.SchemeCode, err) })
			return
		}

		if _, err := u.UpsertScheme(ctx, toSchemeInput(ctx, c, amcID)); err != nil {
			logger.Warn(ctx, "Scheme upsert failed", zap.String("scheme_code", c.SchemeCode), zap.Error(err))
			times(r.rows, func() { b.failed(c.SchemeCode, err) })
			return
		}
		times(r.rows, b.upserted)
	})

	report := b.build()
	logIngestReport(ctx, report)
	return report, err
}

// amcResolver caches AMC code lookups for the duration of one batch
type amcResolver struct {
	u     *ReferenceDataUsecase
	mu    sync.Mutex
	known map[string]*uuid.UUID
}

func newAmcResolver(u *ReferenceDataUsecase) *amcResolver {
	return &amcResolver{u: u, known: map[string]*uuid.UUID{}}
}

// resolve returns nil for an unknown code; the scheme is stored without an AMC
func (r *amcResolver) resolve(ctx context.Context, code string) (*uuid.UUID, error) {
	if code == "" || code == entities.SentinelText {
		return nil, nil
	}

	r.mu.Lock()
	id, ok := r.known[code]
	r.mu.Unlock()
	if ok {
		return id, nil
	}

	amc, err := r.u.amcRepo.GetByCode(ctx, code)
	switch {
	case err == nil:
		found := amc.ID
		id = &found
	case errors.Is(err, domainerrors.ErrNotFound):
		logger.Warn(ctx, "Unknown AMC code, scheme stored without AMC", zap.String("amc_code", code))
	default:
		return nil, err
	}

	r.mu.Lock()
	r.known[code] = id
	r.mu.Unlock()
	return id, nil
}

// IngestNavBatch groups NAV rows by scheme code and merges each group into
// that scheme's history. Rows for unknown schemes are skipped.
func (u *ReferenceDataUsecase) IngestNavBatch(ctx context.Context, batch entities.RawBatch) (entities.IngestReport, error) {
	type group struct {
		code   string
		series entities.NavSeries
		rows   int
	}

	b := newReportBuilder(FeedNav, len(batch.Table))
	byCode := map[string]*group{}
	var order []*group

	for _, row := range batch.Table {
		code := row.Text(colSchemeCode)
		date, err := entities.NormalizeNavDate(row.Text("navdate"))
		if code == "" || err != nil {
			b.failed(code, fmt.Errorf("bad nav row: %w", domainerrors.ErrInvalidInput))
			continue
		}
		value, ok := parseMetric(row.Text("navrs"))
		if !ok || !entities.ValidNavValue(value) {
			b.failed(code, fmt.Errorf("bad nav value %q: %w", row.Text("navrs"), domainerrors.ErrInvalidInput))
			continue
		}

		g, seen := byCode[code]
		if !seen {
			g = &group{code: code, series: entities.NavSeries{}}
			byCode[code] = g
			order = append(order, g)
		}
		g.series[date] = value
		g.rows++
	}

	err := u.forEach(ctx, len(order), func(ctx context.Context, i int) {
		g := order[i]
		record := func(outcome func()) { times(g.rows, outcome) }

		schemeID, err := u.schemeIDForCode(ctx, g.code)
		if err != nil {
			if errors.Is(err, domainerrors.ErrNotFound) {
				record(b.skipped)
				return
			}
			record(func() { b.failed(g.code, err) })
			return
		}

		if _, err := u.mergeNav(ctx, schemeID, g.series); err != nil {
			logger.Warn(ctx, "NAV merge failed", zap.String("scheme_code", g.code), zap.Error(err))
			record(func() { b.failed(g.code, err) })
			return
		}
		record(b.upserted)
	})

	report := b.build()
	logIngestReport(ctx, report)
	return report, err
}

func (u *ReferenceDataUsecase) schemeIDForCode(ctx context.Context, code string) (uuid.UUID, error) {
	n, err := parseSchemeCode(code)
	if err != nil {
		return uuid.Nil, err
	}
	scheme, err := u.schemeRepo.GetBySchemeCode(ctx, n)
	if err != nil {
		return uuid.Nil, err
	}
	return scheme.ID, nil
}

func parseSchemeCode(code string) (int64, error) {
	n, err := strconv.ParseInt(code, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("scheme code %q: %w", code, domainerrors.ErrInvalidInput)
	}
	return n, nil
}

func logIngestReport(ctx context.Context, r entities.IngestReport) {
	logger.Info(ctx, "Ingestion pass finished",
		zap.String("feed", r.Feed),
		zap.Int("total", r.Total),
		zap.Int("upserted", r.Upserted),
		zap.Int("skipped", r.Skipped),
		zap.Int("failed", r.Failed),
	)
}
