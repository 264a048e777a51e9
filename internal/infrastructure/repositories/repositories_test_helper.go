package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"myfi.backend/pkg/redis"
)

const testEncryptionKey = "0000000000000000000000000000000000000000000000000000000000000000"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func newTestRecordStore(t *testing.T) (*redis.RecordStore, *miniredis.Miniredis) {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("skip: miniredis unavailable in this environment: %v", err)
	}
	t.Cleanup(srv.Close)

	cli := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = cli.Close() })
	redis.SetClient(cli)

	store, err := redis.NewRecordStore(testEncryptionKey)
	require.NoError(t, err)
	return store, srv
}

func createAmcTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE amcs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		code TEXT NOT NULL UNIQUE,
		address TEXT,
		email TEXT,
		phone TEXT,
		website TEXT,
		fund_name TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createSchemeTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE mutual_fund_schemes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		scheme_code INTEGER UNIQUE,
		amc_id TEXT,
		scheme_plan TEXT,
		scheme_type TEXT,
		scheme_category TEXT,
		nav REAL DEFAULT 0,
		isin TEXT UNIQUE,
		cagr REAL DEFAULT 0,
		risk_level TEXT,
		aum REAL DEFAULT 0,
		ter REAL DEFAULT 0,
		rating INTEGER DEFAULT 0,
		benchmark_index TEXT,
		min_investment_sip REAL DEFAULT 0,
		min_investment_one_time REAL DEFAULT 0,
		exit_load TEXT,
		fund_manager TEXT,
		return_since_inception REAL DEFAULT 0,
		return_last_year REAL DEFAULT 0,
		return_last3_years REAL DEFAULT 0,
		return_last5_years REAL DEFAULT 0,
		standard_deviation REAL DEFAULT 0,
		sharpe_ratio REAL DEFAULT 0,
		sortino_ratio REAL DEFAULT 0,
		alpha REAL DEFAULT 0,
		beta REAL DEFAULT 0,
		missing_metrics TEXT DEFAULT '[]',
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createSchemeNavTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE scheme_navs (
		id TEXT PRIMARY KEY,
		scheme_id TEXT NOT NULL UNIQUE,
		nav_data TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME,
		updated_at DATETIME
	);`)
}
