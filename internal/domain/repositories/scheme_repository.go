package repositories

import (
	"context"

	"github.com/google/uuid"
	"myfi.backend/internal/domain/entities"
	"myfi.backend/pkg/utils"
)

// SchemeRepository defines mutual fund scheme data operations
type SchemeRepository interface {
	Create(ctx context.Context, scheme *entities.MutualFundScheme) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.MutualFundScheme, error)
	GetByName(ctx context.Context, name string) (*entities.MutualFundScheme, error)
	GetBySchemeCode(ctx context.Context, code int64) (*entities.MutualFundScheme, error)
	Update(ctx context.Context, scheme *entities.MutualFundScheme) error
	List(ctx context.Context, filter entities.SchemeFilter, pagination utils.PaginationParams) ([]*entities.MutualFundScheme, int64, error)
}

// SchemeNavRepository defines NAV history data operations
type SchemeNavRepository interface {
	Create(ctx context.Context, nav *entities.SchemeNAV) error
	GetBySchemeID(ctx context.Context, schemeID uuid.UUID) (*entities.SchemeNAV, error)
	Update(ctx context.Context, nav *entities.SchemeNAV) error
}
