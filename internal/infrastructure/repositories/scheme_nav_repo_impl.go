package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"myfi.backend/internal/domain/entities"
	domainerrors "myfi.backend/internal/domain/errors"
	"myfi.backend/internal/domain/repositories"
	"myfi.backend/internal/infrastructure/models"
	"myfi.backend/pkg/utils"
)

// schemeNavRepo implements repositories.SchemeNavRepository
type schemeNavRepo struct {
	db *gorm.DB
}

// NewSchemeNavRepository creates a new NAV history repository
func NewSchemeNavRepository(db *gorm.DB) repositories.SchemeNavRepository {
	return &schemeNavRepo{db: db}
}

// Create creates the NAV row of a scheme
func (r *schemeNavRepo) Create(ctx context.Context, nav *entities.SchemeNAV) error {
	if nav.ID == uuid.Nil {
		nav.ID = utils.NewEntityID()
	}
	m, err := r.toModel(nav)
	if err != nil {
		return err
	}
	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		return translateError(err)
	}
	nav.CreatedAt = m.CreatedAt
	nav.UpdatedAt = m.UpdatedAt
	return nil
}

// GetBySchemeID gets the NAV row of a scheme. Inside a locked unit of work
// the row stays locked until commit.
func (r *schemeNavRepo) GetBySchemeID(ctx context.Context, schemeID uuid.UUID) (*entities.SchemeNAV, error) {
	var m models.SchemeNAV
	if err := GetDB(ctx, r.db).Where("scheme_id = ?", schemeID).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return r.toEntity(&m)
}

// Update replaces the stored series
func (r *schemeNavRepo) Update(ctx context.Context, nav *entities.SchemeNAV) error {
	m, err := r.toModel(nav)
	if err != nil {
		return err
	}
	result := GetDB(ctx, r.db).Model(&models.SchemeNAV{}).Where("id = ?", nav.ID).Updates(map[string]interface{}{
		"nav_data":   m.NavData,
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

func (r *schemeNavRepo) toModel(e *entities.SchemeNAV) (*models.SchemeNAV, error) {
	series := e.NavData
	if series == nil {
		series = entities.NavSeries{}
	}
	// map keys are encoded in sorted order, so the stored object is date ordered
	data, err := json.Marshal(series)
	if err != nil {
		return nil, fmt.Errorf("encode nav_data: %w", err)
	}
	return &models.SchemeNAV{
		ID:        e.ID,
		SchemeID:  e.SchemeID,
		NavData:   string(data),
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}, nil
}

func (r *schemeNavRepo) toEntity(m *models.SchemeNAV) (*entities.SchemeNAV, error) {
	series := entities.NavSeries{}
	if m.NavData != "" {
		if err := json.Unmarshal([]byte(m.NavData), &series); err != nil {
			return nil, fmt.Errorf("decode nav_data: %w", err)
		}
	}
	return &entities.SchemeNAV{
		ID:        m.ID,
		SchemeID:  m.SchemeID,
		NavData:   series,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}
