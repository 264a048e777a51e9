package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"myfi.backend/internal/domain/entities"
	domainerrors "myfi.backend/internal/domain/errors"
	"myfi.backend/pkg/utils"
)

func TestSchemeRepository_CreateGetUpdate(t *testing.T) {
	db := newTestDB(t)
	createSchemeTable(t, db)
	repo := NewSchemeRepository(db)
	ctx := context.Background()

	amcID := uuid.New()
	scheme := &entities.MutualFundScheme{
		Name:           "Axis Bluechip Fund - Growth",
		SchemeCode:     null.Int64From(1001),
		AmcID:          &amcID,
		ISIN:           null.StringFrom("INF846K01164"),
		Nav:            45.12,
		SharpeRatio:    1.2,
		MissingMetrics: []string{entities.MetricAlpha, entities.MetricBeta},
	}
	require.NoError(t, repo.Create(ctx, scheme))

	byName, err := repo.GetByName(ctx, "Axis Bluechip Fund - Growth")
	require.NoError(t, err)
	require.Equal(t, scheme.ID, byName.ID)
	require.Equal(t, amcID, *byName.AmcID)
	require.Equal(t, []string{"alpha", "beta"}, byName.MissingMetrics)
	require.Equal(t, "INF846K01164", byName.ISIN.String)

	byCode, err := repo.GetBySchemeCode(ctx, 1001)
	require.NoError(t, err)
	require.Equal(t, scheme.ID, byCode.ID)

	byName.Nav = 46.0
	byName.MissingMetrics = nil
	require.NoError(t, repo.Update(ctx, byName))

	updated, err := repo.GetByID(ctx, scheme.ID)
	require.NoError(t, err)
	require.Equal(t, 46.0, updated.Nav)
	require.Empty(t, updated.MissingMetrics)
}

func TestSchemeRepository_NullSchemeCodesDoNotCollide(t *testing.T) {
	db := newTestDB(t)
	createSchemeTable(t, db)
	repo := NewSchemeRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entities.MutualFundScheme{Name: "A"}))
	require.NoError(t, repo.Create(ctx, &entities.MutualFundScheme{Name: "B"}))

	require.NoError(t, repo.Create(ctx, &entities.MutualFundScheme{Name: "C", SchemeCode: null.Int64From(7)}))
	err := repo.Create(ctx, &entities.MutualFundScheme{Name: "D", SchemeCode: null.Int64From(7)})
	require.ErrorIs(t, err, domainerrors.ErrConstraintViolation)

	_, err = repo.GetBySchemeCode(ctx, 99)
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	err = repo.Update(ctx, &entities.MutualFundScheme{ID: uuid.New(), Name: "Z"})
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestSchemeRepository_ListFiltersAndPaginates(t *testing.T) {
	db := newTestDB(t)
	createSchemeTable(t, db)
	repo := NewSchemeRepository(db)
	ctx := context.Background()

	amcA, amcB := uuid.New(), uuid.New()
	for _, s := range []*entities.MutualFundScheme{
		{Name: "Alpha Equity", AmcID: &amcA, SchemeCategory: "Equity"},
		{Name: "Beta Debt", AmcID: &amcA, SchemeCategory: "Debt"},
		{Name: "Gamma Equity", AmcID: &amcB, SchemeCategory: "Equity"},
	} {
		require.NoError(t, repo.Create(ctx, s))
	}

	all, total, err := repo.List(ctx, entities.SchemeFilter{}, utils.PaginationParams{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, all, 2)
	require.Equal(t, "Alpha Equity", all[0].Name)

	byAmc, total, err := repo.List(ctx, entities.SchemeFilter{AmcID: &amcA}, utils.PaginationParams{Page: 1})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, byAmc, 2)

	equity, total, err := repo.List(ctx, entities.SchemeFilter{SchemeCategory: "Equity", Search: "gam"}, utils.PaginationParams{Page: 1})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Gamma Equity", equity[0].Name)
}

func TestSchemeRepository_CorruptMissingMetrics(t *testing.T) {
	db := newTestDB(t)
	createSchemeTable(t, db)
	repo := NewSchemeRepository(db)
	ctx := context.Background()

	scheme := &entities.MutualFundScheme{Name: "Broken", SchemeCode: null.Int64From(7)}
	require.NoError(t, repo.Create(ctx, scheme))
	mustExec(t, db, "UPDATE mutual_fund_schemes SET missing_metrics = ? WHERE id = ?", "not json", scheme.ID)

	_, err := repo.GetByID(ctx, scheme.ID)
	require.ErrorContains(t, err, "decode missing_metrics")

	_, err = repo.GetByName(ctx, "Broken")
	require.Error(t, err)

	_, err = repo.GetBySchemeCode(ctx, 7)
	require.Error(t, err)

	_, _, err = repo.List(ctx, entities.SchemeFilter{}, utils.PaginationParams{Page: 1})
	require.ErrorContains(t, err, "decode missing_metrics")
}
