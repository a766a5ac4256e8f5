package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists patient records. GetByID returns (nil, nil) when no
// record exists.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q string, limit, offset int) ([]*Patient, int, error)
}
