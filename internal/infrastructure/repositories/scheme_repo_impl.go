package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"myfi.backend/internal/domain/entities"
	domainerrors "myfi.backend/internal/domain/errors"
	"myfi.backend/internal/domain/repositories"
	"myfi.backend/internal/infrastructure/models"
	"myfi.backend/pkg/utils"
)

// schemeRepo implements repositories.SchemeRepository
type schemeRepo struct {
	db *gorm.DB
}

// NewSchemeRepository creates a new scheme repository
func NewSchemeRepository(db *gorm.DB) repositories.SchemeRepository {
	return &schemeRepo{db: db}
}

// Create creates a new scheme
func (r *schemeRepo) Create(ctx context.Context, scheme *entities.MutualFundScheme) error {
	if scheme.ID == uuid.Nil {
		scheme.ID = utils.NewEntityID()
	}
	m, err := r.toModel(scheme)
	if err != nil {
		return err
	}
	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		return translateError(err)
	}
	scheme.CreatedAt = m.CreatedAt
	scheme.UpdatedAt = m.UpdatedAt
	return nil
}

// GetByID gets a scheme by ID
func (r *schemeRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.MutualFundScheme, error) {
	var m models.MutualFundScheme
	if err := GetDB(ctx, r.db).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return r.toEntity(&m)
}

// GetByName gets a scheme by its business key
func (r *schemeRepo) GetByName(ctx context.Context, name string) (*entities.MutualFundScheme, error) {
	var m models.MutualFundScheme
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return r.toEntity(&m)
}

// GetBySchemeCode gets a scheme by the upstream numeric scheme code
func (r *schemeRepo) GetBySchemeCode(ctx context.Context, code int64) (*entities.MutualFundScheme, error) {
	var m models.MutualFundScheme
	if err := GetDB(ctx, r.db).Where("scheme_code = ?", code).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return r.toEntity(&m)
}

// Update overwrites every column of an existing scheme
func (r *schemeRepo) Update(ctx context.Context, scheme *entities.MutualFundScheme) error {
	m, err := r.toModel(scheme)
	if err != nil {
		return err
	}
	result := GetDB(ctx, r.db).Model(&models.MutualFundScheme{}).Where("id = ?", scheme.ID).Updates(map[string]interface{}{
		"name":                    m.Name,
		"scheme_code":             m.SchemeCode,
		"amc_id":                  m.AmcID,
		"scheme_plan":             m.SchemePlan,
		"scheme_type":             m.SchemeType,
		"scheme_category":         m.SchemeCategory,
		"nav":                     m.Nav,
		"isin":                    m.ISIN,
		"cagr":                    m.Cagr,
		"risk_level":              m.RiskLevel,
		"aum":                     m.Aum,
		"ter":                     m.Ter,
		"rating":                  m.Rating,
		"benchmark_index":         m.BenchmarkIndex,
		"min_investment_sip":      m.MinInvestmentSip,
		"min_investment_one_time": m.MinInvestmentOneTime,
		"exit_load":               m.ExitLoad,
		"fund_manager":            m.FundManager,
		"return_since_inception":  m.ReturnSinceInception,
		"return_last_year":        m.ReturnLastYear,
		"return_last3_years":      m.ReturnLast3Years,
		"return_last5_years":      m.ReturnLast5Years,
		"standard_deviation":      m.StandardDeviation,
		"sharpe_ratio":            m.SharpeRatio,
		"sortino_ratio":           m.SortinoRatio,
		"alpha":                   m.Alpha,
		"beta":                    m.Beta,
		"missing_metrics":         m.MissingMetrics,
		"updated_at":              time.Now(),
	})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// List returns a filtered page of schemes ordered by name
func (r *schemeRepo) List(ctx context.Context, filter entities.SchemeFilter, pagination utils.PaginationParams) ([]*entities.MutualFundScheme, int64, error) {
	var ms []models.MutualFundScheme
	var totalCount int64

	query := GetDB(ctx, r.db).Model(&models.MutualFundScheme{})

	if filter.AmcID != nil {
		query = query.Where("amc_id = ?", *filter.AmcID)
	}
	if filter.SchemeCategory != "" {
		query = query.Where("scheme_category = ?", filter.SchemeCategory)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	if err := query.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("name")
	if pagination.Limit > 0 {
		query = query.Limit(pagination.Limit).Offset(pagination.Offset())
	}

	if err := query.Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	schemes := make([]*entities.MutualFundScheme, 0, len(ms))
	for i := range ms {
		scheme, err := r.toEntity(&ms[i])
		if err != nil {
			return nil, 0, err
		}
		schemes = append(schemes, scheme)
	}
	return schemes, totalCount, nil
}

func (r *schemeRepo) toModel(e *entities.MutualFundScheme) (*models.MutualFundScheme, error) {
	missing := e.MissingMetrics
	if missing == nil {
		missing = []string{}
	}
	missingJSON, err := json.Marshal(missing)
	if err != nil {
		return nil, fmt.Errorf("encode missing_metrics: %w", err)
	}

	return &models.MutualFundScheme{
		ID:                   e.ID,
		Name:                 e.Name,
		SchemeCode:           e.SchemeCode,
		AmcID:                e.AmcID,
		SchemePlan:           e.SchemePlan,
		SchemeType:           e.SchemeType,
		SchemeCategory:       e.SchemeCategory,
		Nav:                  e.Nav,
		ISIN:                 e.ISIN,
		Cagr:                 e.Cagr,
		RiskLevel:            e.RiskLevel,
		Aum:                  e.Aum,
		Ter:                  e.Ter,
		Rating:               e.Rating,
		BenchmarkIndex:       e.BenchmarkIndex,
		MinInvestmentSip:     e.MinInvestmentSip,
		MinInvestmentOneTime: e.MinInvestmentOneTime,
		ExitLoad:             e.ExitLoad,
		FundManager:          e.FundManager,
		ReturnSinceInception: e.ReturnSinceInception,
		ReturnLastYear:       e.ReturnLastYear,
		ReturnLast3Years:     e.ReturnLast3Years,
		ReturnLast5Years:     e.ReturnLast5Years,
		StandardDeviation:    e.StandardDeviation,
		SharpeRatio:          e.SharpeRatio,
		SortinoRatio:         e.SortinoRatio,
		Alpha:                e.Alpha,
		Beta:                 e.Beta,
		MissingMetrics:       string(missingJSON),
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}, nil
}

func (r *schemeRepo) toEntity(m *models.MutualFundScheme) (*entities.MutualFundScheme, error) {
	var missing []string
	if m.MissingMetrics != "" {
		if err := json.Unmarshal([]byte(m.MissingMetrics), &missing); err != nil {
			return nil, fmt.Errorf("decode missing_metrics of scheme %s: %w", m.ID, err)
		}
	}

	return &entities.MutualFundScheme{
		ID:                   m.ID,
		Name:                 m.Name,
		SchemeCode:           m.SchemeCode,
		AmcID:                m.AmcID,
		SchemePlan:           m.SchemePlan,
		SchemeType:           m.SchemeType,
		SchemeCategory:       m.SchemeCategory,
		Nav:                  m.Nav,
		ISIN:                 m.ISIN,
		Cagr:                 m.Cagr,
		RiskLevel:            m.RiskLevel,
		Aum:                  m.Aum,
		Ter:                  m.Ter,
		Rating:               m.Rating,
		BenchmarkIndex:       m.BenchmarkIndex,
		MinInvestmentSip:     m.MinInvestmentSip,
		MinInvestmentOneTime: m.MinInvestmentOneTime,
		ExitLoad:             m.ExitLoad,
		FundManager:          m.FundManager,
		ReturnSinceInception: m.ReturnSinceInception,
		ReturnLastYear:       m.ReturnLastYear,
		ReturnLast3Years:     m.ReturnLast3Years,
		ReturnLast5Years:     m.ReturnLast5Years,
		StandardDeviation:    m.StandardDeviation,
		SharpeRatio:          m.SharpeRatio,
		SortinoRatio:         m.SortinoRatio,
		Alpha:                m.Alpha,
		Beta:                 m.Beta,
		MissingMetrics:       missing,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}, nil
}
