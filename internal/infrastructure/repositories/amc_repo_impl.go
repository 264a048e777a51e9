package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"myfi.backend/internal/domain/entities"
	domainerrors "myfi.backend/internal/domain/errors"
	"myfi.backend/internal/domain/repositories"
	"myfi.backend/internal/infrastructure/models"
	"myfi.backend/pkg/utils"
)

// amcRepo implements repositories.AmcRepository
type amcRepo struct {
	db *gorm.DB
}

// NewAmcRepository creates a new AMC repository
func NewAmcRepository(db *gorm.DB) repositories.AmcRepository {
	return &amcRepo{db: db}
}

// Create creates a new AMC
func (r *amcRepo) Create(ctx context.Context, amc *entities.AMC) error {
	if amc.ID == uuid.Nil {
		amc.ID = utils.NewEntityID()
	}
	m := r.toModel(amc)
	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		return translateError(err)
	}
	amc.CreatedAt = m.CreatedAt
	amc.UpdatedAt = m.UpdatedAt
	return nil
}

// GetByID gets an AMC by ID
func (r *amcRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.AMC, error) {
	var m models.AMC
	if err := GetDB(ctx, r.db).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return r.toEntity(&m), nil
}

// GetByCode gets an AMC by its business code
func (r *amcRepo) GetByCode(ctx context.Context, code string) (*entities.AMC, error) {
	var m models.AMC
	if err := GetDB(ctx, r.db).Where("code = ?", code).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return r.toEntity(&m), nil
}

// Update overwrites every column of an existing AMC
func (r *amcRepo) Update(ctx context.Context, amc *entities.AMC) error {
	m := r.toModel(amc)
	result := GetDB(ctx, r.db).Model(&models.AMC{}).Where("id = ?", amc.ID).Updates(map[string]interface{}{
		"name":       m.Name,
		"code":       m.Code,
		"address":    m.Address,
		"email":      m.Email,
		"phone":      m.Phone,
		"website":    m.Website,
		"fund_name":  m.FundName,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// List returns every AMC ordered by name
func (r *amcRepo) List(ctx context.Context) ([]*entities.AMC, error) {
	var ms []models.AMC
	if err := GetDB(ctx, r.db).Order("name").Find(&ms).Error; err != nil {
		return nil, err
	}

	amcs := make([]*entities.AMC, 0, len(ms))
	for i := range ms {
		amcs = append(amcs, r.toEntity(&ms[i]))
	}
	return amcs, nil
}

func (r *amcRepo) toModel(e *entities.AMC) *models.AMC {
	return &models.AMC{
		ID:        e.ID,
		Name:      e.Name,
		Code:      e.Code,
		Address:   e.Address,
		Email:     e.Email,
		Phone:     e.Phone,
		Website:   e.Website,
		FundName:  e.FundName,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func (r *amcRepo) toEntity(m *models.AMC) *entities.AMC {
	return &entities.AMC{
		ID:        m.ID,
		Name:      m.Name,
		Code:      m.Code,
		Address:   m.Address,
		Email:     m.Email,
		Phone:     m.Phone,
		Website:   m.Website,
		FundName:  m.FundName,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
