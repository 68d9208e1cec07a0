package pickup

import (
	"context"

	"waste-collection-api-server/internal/contamination"
	"waste-collection-api-server/internal/database"
	"waste-collection-api-server/internal/models"
)

// Store is the persistence the service needs. UpdateIf must apply the
// update only if the stored document still satisfies the precondition,
// atomically, and report database.ErrNotFound otherwise.
type Store interface {
	Insert(ctx context.Context, p *models.Pickup) error
	FindByID(ctx context.Context, id string) (*models.Pickup, error)
	UpdateIf(ctx context.Context, id string, cond database.Precondition, upd database.PickupUpdate) (*models.Pickup, error)
	List(ctx context.Context, f database.PickupFilter) ([]models.Pickup, error)
}

// Scorer evaluates an image. *contamination.Pipeline satisfies it.
type Scorer interface {
	Evaluate(ctx context.Context, src contamination.Source, meta contamination.Context) (contamination.Evaluation, error)
}

// FacilityChecker verifies that a facility id refers to a usable facility.
type FacilityChecker interface {
	Exists(ctx context.Context, facilityID string) (bool, error)
}
