package ports

import (
	"context"

	"glance/internal/domain"
)

// IntegrationRepository defines the interface for integration persistence.
// Implementations backed by a full-collection read-modify-write are not safe
// against concurrent writers: two overlapping mutations can lose one update.
type IntegrationRepository interface {
	// List returns every stored integration, empty if none were ever saved
	List(ctx context.Context) ([]domain.Integration, error)

	// Get retrieves an integration by id
	Get(ctx context.Context, id string) (domain.Integration, bool, error)

	// Add appends an integration; the caller guarantees id uniqueness
	Add(ctx context.Context, integration domain.Integration) error

	// Update merges patch into the integration with id; absent ids are a no-op
	Update(ctx context.Context, id string, patch domain.IntegrationPatch) error

	// Remove deletes the integration with id; absent ids are a no-op
	Remove(ctx context.Context, id string) error
}
