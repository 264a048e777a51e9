package usecases_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"myfi.backend/internal/domain/entities"
	domainerrors "myfi.backend/internal/domain/errors"
	"myfi.backend/internal/domain/repositories"
	infraRepos "myfi.backend/internal/infrastructure/repositories"
	"myfi.backend/internal/usecases"
)

type sqliteReference struct {
	db      *gorm.DB
	uc      *usecases.ReferenceDataUsecase
	amcs    repositories.AmcRepository
	schemes repositories.SchemeRepository
}

func newSQLiteReference(t *testing.T) *sqliteReference {
	t.Helper()
	return newSQLiteReferenceWithWorkers(t, 1)
}

func newSQLiteReferenceWithWorkers(t *testing.T, workers int) *sqliteReference {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, ddl := range []string{
		`CREATE TABLE amcs (
			id TEXT PRIMARY KEY, name TEXT NOT NULL UNIQUE, code TEXT NOT NULL UNIQUE,
			address TEXT, email TEXT, phone TEXT, website TEXT, fund_name TEXT,
			created_at DATETIME, updated_at DATETIME)`,
		`CREATE TABLE mutual_fund_schemes (
			id TEXT PRIMARY KEY, name TEXT NOT NULL UNIQUE, scheme_code INTEGER UNIQUE, amc_id TEXT,
			scheme_plan TEXT, scheme_type TEXT, scheme_category TEXT, nav REAL DEFAULT 0,
			isin TEXT UNIQUE, cagr REAL DEFAULT 0, risk_level TEXT, aum REAL DEFAULT 0,
			ter REAL DEFAULT 0, rating INTEGER DEFAULT 0, benchmark_index TEXT,
			min_investment_sip REAL DEFAULT 0, min_investment_one_time REAL DEFAULT 0,
			exit_load TEXT, fund_manager TEXT, return_since_inception REAL DEFAULT 0,
			return_last_year REAL DEFAULT 0, return_last3_years REAL DEFAULT 0,
			return_last5_years REAL DEFAULT 0, standard_deviation REAL DEFAULT 0,
			sharpe_ratio REAL DEFAULT 0, sortino_ratio REAL DEFAULT 0, alpha REAL DEFAULT 0,
			beta REAL DEFAULT 0, missing_metrics TEXT DEFAULT '[]',
			created_at DATETIME, updated_at DATETIME)`,
		`CREATE TABLE scheme_navs (
			id TEXT PRIMARY KEY, scheme_id TEXT NOT NULL UNIQUE,
			nav_data TEXT NOT NULL DEFAULT '{}', created_at DATETIME, updated_at DATETIME)`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}

	amcRepo := infraRepos.NewAmcRepository(db)
	schemeRepo := infraRepos.NewSchemeRepository(db)
	return &sqliteReference{
		db: db,
		uc: usecases.NewReferenceDataUsecase(
			amcRepo,
			schemeRepo,
			infraRepos.NewSchemeNavRepository(db),
			infraRepos.NewUnitOfWork(db),
			workers,
		),
		amcs:    amcRepo,
		schemes: schemeRepo,
	}
}

func TestReferenceIngest_AmcUpsertOverwrite(t *testing.T) {
	r := newSQLiteReference(t)
	ctx := context.Background()

	_, err := r.uc.UpsertAmc(ctx, entities.AmcInput{Name: "Alpha", Code: "123", Email: "a@x.com", Phone: "1"})
	require.NoError(t, err)
	_, err = r.uc.UpsertAmc(ctx, entities.AmcInput{Name: "Alpha", Code: "123", Email: "b@x.com", Website: "alpha.in"})
	require.NoError(t, err)

	got, err := r.amcs.GetByCode(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", got.Email)
	assert.Equal(t, "alpha.in", got.Website)
	assert.Empty(t, got.Phone)

	// same name under a new code collides on the store's unique index
	_, err = r.uc.UpsertAmc(ctx, entities.AmcInput{Name: "Alpha", Code: "456"})
	assert.ErrorIs(t, err, domainerrors.ErrConstraintViolation)
}

func TestReferenceIngest_NavUnionMerge(t *testing.T) {
	r := newSQLiteReference(t)
	ctx := context.Background()

	scheme, err := r.uc.UpsertScheme(ctx, entities.SchemeInput{Name: "Alpha Growth"})
	require.NoError(t, err)

	_, err = r.uc.UpsertSchemeNav(ctx, scheme.ID, map[string]any{"2022-01-01": 10.0})
	require.NoError(t, err)
	_, err = r.uc.UpsertSchemeNav(ctx, scheme.ID, map[string]any{"2022-01-02": 20.0})
	require.NoError(t, err)

	nav, err := r.uc.GetSchemeNav(ctx, scheme.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, []entities.NavPoint{{Date: "2022-01-01", Value: 10}, {Date: "2022-01-02", Value: 20}}, nav.NavData.Points())

	_, err = r.uc.UpsertSchemeNav(ctx, scheme.ID, map[string]any{"2022-01-01": 99.0})
	require.NoError(t, err)
	_, err = r.uc.AddLatestNav(ctx, scheme.ID, "2022-01-03", 30)
	require.NoError(t, err)

	nav, err = r.uc.GetSchemeNav(ctx, scheme.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, []entities.NavPoint{
		{Date: "2022-01-01", Value: 99},
		{Date: "2022-01-02", Value: 20},
		{Date: "2022-01-03", Value: 30},
	}, nav.NavData.Points())
}

func TestReferenceIngest_FullPass(t *testing.T) {
	r := newSQLiteReference(t)
	ctx := context.Background()

	amcReport, err := r.uc.IngestAmcBatch(ctx, entities.RawBatch{Table: []entities.RawRow{
		{"amc": "Alpha AMC", "amc_code": "A1", "add1": "1 Main St", "add2": "", "add3": "Mumbai", "email": "a@alpha.in", "phone": "22", "webiste": "alpha.in", "fund": "Alpha MF"},
		{"amc": "No Code AMC"},
	}})
	require.NoError(t, err)
	assert.Equal(t, entities.IngestReport{Feed: usecases.FeedAmc, Total: 2, Upserted: 1, Skipped: 1}, amcReport)

	amc, err := r.amcs.GetByCode(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, "1 Main St Mumbai", amc.Address)
	assert.Equal(t, "alpha.in", amc.Website)

	schemeReport, err := r.uc.IngestSchemeBatch(ctx, sampleSchemeTables())
	require.NoError(t, err)
	assert.Equal(t, 2, schemeReport.Total)
	assert.Equal(t, 2, schemeReport.Upserted)
	assert.Zero(t, schemeReport.Failed)

	full, err := r.schemes.GetByName(ctx, "Alpha Bluechip Growth")
	require.NoError(t, err)
	require.NotNil(t, full.AmcID)
	assert.Equal(t, amc.ID, *full.AmcID)
	assert.Equal(t, int64(101), full.SchemeCode.Int64)
	assert.Equal(t, 45.67, full.Nav)
	assert.Equal(t, "Large Cap", full.SchemeCategory)
	assert.True(t, full.IsMetricMissing(entities.MetricReturnLast5Years))
	assert.False(t, full.IsMetricMissing(entities.MetricNav))

	orphan, err := r.schemes.GetByName(ctx, "Alpha Orphan")
	require.NoError(t, err)
	assert.Equal(t, entities.SentinelText, orphan.SchemeType)
	assert.True(t, orphan.IsMetricMissing(entities.MetricAum))
	assert.False(t, orphan.ISIN.Valid)

	navReport, err := r.uc.IngestNavBatch(ctx, entities.RawBatch{Table: []entities.RawRow{
		{"schemecode": "101", "navdate": "2022-09-29T00:00:00", "navrs": "45.10"},
		{"schemecode": "101", "navdate": "2022-09-30T00:00:00", "navrs": "45.67"},
		{"schemecode": "999", "navdate": "2022-09-30", "navrs": "1"},
		{"schemecode": "101", "navdate": "not a date", "navrs": "1"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 4, navReport.Total)
	assert.Equal(t, 2, navReport.Upserted)
	assert.Equal(t, 1, navReport.Skipped)
	assert.Equal(t, 1, navReport.Failed)

	nav, err := r.uc.GetSchemeNav(ctx, full.ID, "", "")
	require.NoError(t, err)
	latest, ok := nav.NavData.Latest()
	require.True(t, ok)
	assert.Equal(t, entities.NavPoint{Date: "2022-09-30", Value: 45.67}, latest)

	// a second pass is an update, not a duplicate
	schemeReport, err = r.uc.IngestSchemeBatch(ctx, sampleSchemeTables())
	require.NoError(t, err)
	assert.Equal(t, 2, schemeReport.Upserted)
}

func TestReferenceIngest_DuplicateAmcCodesWithWorkers(t *testing.T) {
	r := newSQLiteReferenceWithWorkers(t, 4)
	ctx := context.Background()

	var rows []entities.RawRow
	for _, email := range []string{"first@x.com", "second@x.com"} {
		for i := 0; i < 40; i++ {
			rows = append(rows, entities.RawRow{
				"amc":      fmt.Sprintf("AMC %02d", i),
				"amc_code": fmt.Sprintf("C%02d", i),
				"email":    email,
			})
		}
	}
	rows = append(rows, entities.RawRow{"amc": "No Code"})

	report, err := r.uc.IngestAmcBatch(ctx, entities.RawBatch{Table: rows})
	require.NoError(t, err)
	assert.Equal(t, entities.IngestReport{Feed: usecases.FeedAmc, Total: 81, Upserted: 80, Skipped: 1}, report)

	for _, code := range []string{"C00", "C17", "C39"} {
		amc, err := r.amcs.GetByCode(ctx, code)
		require.NoError(t, err)
		assert.Equal(t, "second@x.com", amc.Email, code)
	}
}

func TestReferenceIngest_DuplicateSchemeNamesWithWorkers(t *testing.T) {
	r := newSQLiteReferenceWithWorkers(t, 4)
	ctx := context.Background()

	var details []entities.RawRow
	for i := 0; i < 30; i++ {
		details = append(details,
			entities.RawRow{"schemecode": fmt.Sprintf("%d", 100+i), "s_name": fmt.Sprintf("Scheme %02d", i), "fund_mgr1": "first"},
			entities.RawRow{"schemecode": fmt.Sprintf("%d", 200+i), "s_name": fmt.Sprintf("Scheme %02d", i), "fund_mgr1": "second"},
		)
	}

	report, err := r.uc.IngestSchemeBatch(ctx, entities.SchemeTables{Details: details})
	require.NoError(t, err)
	assert.Equal(t, 60, report.Total)
	assert.Equal(t, 60, report.Upserted)
	assert.Zero(t, report.Failed)
	assert.Empty(t, report.Errors)

	scheme, err := r.schemes.GetByName(ctx, "Scheme 07")
	require.NoError(t, err)
	assert.Equal(t, "second", scheme.FundManager)
	assert.Equal(t, int64(207), scheme.SchemeCode.Int64)
}

func TestReferenceIngest_CancelledContext(t *testing.T) {
	r := newSQLiteReference(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := r.uc.IngestAmcBatch(ctx, entities.RawBatch{Table: []entities.RawRow{{"amc": "A", "amc_code": "1"}}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, report.Upserted)
}
