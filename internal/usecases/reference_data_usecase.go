package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"myfi.backend/internal/domain/entities"
	domainerrors "myfi.backend/internal/domain/errors"
	"myfi.backend/internal/domain/repositories"
	"myfi.backend/pkg/logger"
	"myfi.backend/pkg/utils"
)

// DefaultIngestWorkers is the row concurrency of batch ingestion
const DefaultIngestWorkers = 4

// ReferenceDataUsecase reconciles upstream AMC, scheme and NAV data into the
// relational store and serves it back.
type ReferenceDataUsecase struct {
	amcRepo    repositories.AmcRepository
	schemeRepo repositories.SchemeRepository
	navRepo    repositories.SchemeNavRepository
	uow        repositories.UnitOfWork
	workers    int
}

// NewReferenceDataUsecase creates a new reference data usecase
func NewReferenceDataUsecase(
	amcRepo repositories.AmcRepository,
	schemeRepo repositories.SchemeRepository,
	navRepo repositories.SchemeNavRepository,
	uow repositories.UnitOfWork,
	workers int,
) *ReferenceDataUsecase {
	if workers <= 0 {
		workers = DefaultIngestWorkers
	}
	return &ReferenceDataUsecase{
		amcRepo:    amcRepo,
		schemeRepo: schemeRepo,
		navRepo:    navRepo,
		uow:        uow,
		workers:    workers,
	}
}

// UpsertAmc creates the AMC with in.Code or overwrites every field of the existing one
func (u *ReferenceDataUsecase) UpsertAmc(ctx context.Context, in entities.AmcInput) (*entities.AMC, error) {
	in.Code = strings.TrimSpace(in.Code)
	if in.Code == "" {
		return nil, fmt.Errorf("amc code required: %w", domainerrors.ErrInvalidRequest)
	}

	existing, err := u.amcRepo.GetByCode(ctx, in.Code)
	if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	if existing == nil {
		amc := &entities.AMC{}
		entities.ApplyAmcFields(amc, in)
		if err := u.amcRepo.Create(ctx, amc); err != nil {
			return nil, err
		}
		return amc, nil
	}

	entities.ApplyAmcFields(existing, in)
	if err := u.amcRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// UpsertScheme creates the scheme named in.Name or overwrites the existing one
func (u *ReferenceDataUsecase) UpsertScheme(ctx context.Context, in entities.SchemeInput) (*entities.MutualFundScheme, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("scheme name required: %w", domainerrors.ErrInvalidRequest)
	}

	existing, err := u.schemeRepo.GetByName(ctx, in.Name)
	if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	if existing == nil {
		scheme := &entities.MutualFundScheme{}
		entities.ApplySchemeFields(scheme, in)
		if err := u.schemeRepo.Create(ctx, scheme); err != nil {
			return nil, err
		}
		return scheme, nil
	}

	entities.ApplySchemeFields(existing, in)
	if err := u.schemeRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// UpsertSchemeNav merges a date-keyed NAV payload into the scheme's history.
// Payloads that are not a mapping of dates to numbers fail with ErrInvalidInput.
func (u *ReferenceDataUsecase) UpsertSchemeNav(ctx context.Context, schemeID uuid.UUID, navData any) (*entities.SchemeNAV, error) {
	series, err := entities.ParseNavSeries(navData)
	if err != nil {
		logger.Error(ctx, "Rejected NAV payload",
			zap.String("scheme_id", schemeID.String()),
			zap.String("payload_type", fmt.Sprintf("%T", navData)),
			zap.Error(err),
		)
		return nil, err
	}
	return u.mergeNav(ctx, schemeID, series)
}

// AddLatestNav merges a single dated value into the scheme's history
func (u *ReferenceDataUsecase) AddLatestNav(ctx context.Context, schemeID uuid.UUID, date string, value float64) (*entities.SchemeNAV, error) {
	series, err := entities.ParseNavSeries(map[string]float64{date: value})
	if err != nil {
		return nil, err
	}
	return u.mergeNav(ctx, schemeID, series)
}

// mergeNav runs the read-merge-write under a row lock. A concurrent first
// insert for the same scheme loses on the unique index and is retried once as
// a merge into the winner's row.
func (u *ReferenceDataUsecase) mergeNav(ctx context.Context, schemeID uuid.UUID, series entities.NavSeries) (*entities.SchemeNAV, error) {
	nav, err := u.mergeNavOnce(ctx, schemeID, series)
	if errors.Is(err, domainerrors.ErrConstraintViolation) {
		logger.Debug(ctx, "Retrying NAV merge after concurrent insert", zap.String("scheme_id", schemeID.String()))
		nav, err = u.mergeNavOnce(ctx, schemeID, series)
	}
	return nav, err
}

func (u *ReferenceDataUsecase) mergeNavOnce(ctx context.Context, schemeID uuid.UUID, series entities.NavSeries) (*entities.SchemeNAV, error) {
	var result *entities.SchemeNAV

	err := u.uow.Do(u.uow.WithLock(ctx), func(txCtx context.Context) error {
		if _, err := u.schemeRepo.GetByID(txCtx, schemeID); err != nil {
			return err
		}

		existing, err := u.navRepo.GetBySchemeID(txCtx, schemeID)
		if err != nil {
			if !errors.Is(err, domainerrors.ErrNotFound) {
				return err
			}
			nav := &entities.SchemeNAV{SchemeID: schemeID, NavData: entities.NavSeries{}}
			nav.NavData.Merge(series)
			if err := u.navRepo.Create(txCtx, nav); err != nil {
				return err
			}
			result = nav
			return nil
		}

		if existing.NavData == nil {
			existing.NavData = entities.NavSeries{}
		}
		existing.NavData.Merge(series)
		if err := u.navRepo.Update(txCtx, existing); err != nil {
			return err
		}
		result = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListSchemes returns a page of schemes matching filter
func (u *ReferenceDataUsecase) ListSchemes(ctx context.Context, filter entities.SchemeFilter, pagination utils.PaginationParams) ([]*entities.MutualFundScheme, utils.PaginationMeta, error) {
	schemes, total, err := u.schemeRepo.List(ctx, filter, pagination)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return schemes, utils.CalculateMeta(total, pagination), nil
}

// GetScheme returns a scheme by id
func (u *ReferenceDataUsecase) GetScheme(ctx context.Context, id uuid.UUID) (*entities.MutualFundScheme, error) {
	return u.schemeRepo.GetByID(ctx, id)
}

// GetSchemeNav returns the NAV history of a scheme, optionally bounded by
// inclusive from/to dates.
func (u *ReferenceDataUsecase) GetSchemeNav(ctx context.Context, schemeID uuid.UUID, from, to string) (*entities.SchemeNAV, error) {
	var err error
	if from != "" {
		if from, err = entities.NormalizeNavDate(from); err != nil {
			return nil, err
		}
	}
	if to != "" {
		if to, err = entities.NormalizeNavDate(to); err != nil {
			return nil, err
		}
	}

	nav, err := u.navRepo.GetBySchemeID(ctx, schemeID)
	if err != nil {
		return nil, err
	}
	if from != "" || to != "" {
		nav.NavData = nav.NavData.Range(from, to)
	}
	return nav, nil
}

// GetAmcByCode returns an AMC by its upstream code
func (u *ReferenceDataUsecase) GetAmcByCode(ctx context.Context, code string) (*entities.AMC, error) {
	return u.amcRepo.GetByCode(ctx, strings.TrimSpace(code))
}

// ListAmcs returns every AMC ordered by name
func (u *ReferenceDataUsecase) ListAmcs(ctx context.Context) ([]*entities.AMC, error) {
	return u.amcRepo.List(ctx)
}
