package repositories

import (
	"context"

	"github.com/google/uuid"
	"myfi.backend/internal/domain/entities"
)

// AmcRepository defines AMC data operations
type AmcRepository interface {
	Create(ctx context.Context, amc *entities.AMC) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.AMC, error)
	GetByCode(ctx context.Context, code string) (*entities.AMC, error)
	Update(ctx context.Context, amc *entities.AMC) error
	List(ctx context.Context) ([]*entities.AMC, error)
}
