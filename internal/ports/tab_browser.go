package ports

import (
	"context"

	"glance/internal/domain"
)

// TabBrowser is the browser tab API consumed by the tab-groups widget
type TabBrowser interface {
	Query(ctx context.Context) ([]domain.Tab, error)
	Open(ctx context.Context, url string) (domain.Tab, error)
	Activate(ctx context.Context, tabID int) error
	Close(ctx context.Context, tabID int) error

	// Events delivers created/removed/updated notifications until ctx ends
	Events(ctx context.Context) <-chan domain.TabEvent
}
