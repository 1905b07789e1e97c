package ports

import (
	"context"

	"glance/internal/domain"
)

// WidgetRepository defines the interface for widget configuration persistence.
// It has the same read-modify-write caveat as IntegrationRepository.
type WidgetRepository interface {
	List(ctx context.Context) ([]domain.Widget, error)
	Get(ctx context.Context, id string) (domain.Widget, bool, error)
	Add(ctx context.Context, widget domain.Widget) error
	Update(ctx context.Context, id string, patch domain.WidgetPatch) error
	Remove(ctx context.Context, id string) error

	// Reorder rewrites positions so that ids[i] gets y=i, x=0.
	// Stored widgets missing from ids are dropped.
	Reorder(ctx context.Context, ids []string) error

	// Save replaces the whole collection
	Save(ctx context.Context, widgets []domain.Widget) error
}
