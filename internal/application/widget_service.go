package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"glance/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WidgetService implements the dashboard editing operations
type WidgetService struct {
	state  *Coordinator
	now    func() time.Time
	logger zerolog.Logger
}

// NewWidgetService creates a new widget service
func NewWidgetService(state *Coordinator, logger zerolog.Logger) *WidgetService {
	return &WidgetService{
		state:  state,
		now:    time.Now,
		logger: logger,
	}
}

// Gallery lists the widget types a user can add
func (s *WidgetService) Gallery() []domain.WidgetDefinition {
	return domain.AllDefinitions()
}

// AddWidget creates a widget of type t from its registry defaults, placed after the existing ones
func (s *WidgetService) AddWidget(ctx context.Context, t domain.WidgetType) (domain.Widget, error) {
	def, ok := domain.LookupDefinition(t)
	if !ok {
		return domain.Widget{}, fmt.Errorf("%w: %q", domain.ErrUnknownWidgetType, t)
	}

	w := domain.Widget{
		ID:        "widget-" + uuid.NewString(),
		Type:      def.Type,
		Name:      def.Name,
		Position:  domain.Position{X: 0, Y: len(s.state.Widgets())},
		Size:      def.DefaultSize,
		Enabled:   true,
		Collapsed: false,
		CreatedAt: s.now().UTC(),
		Settings:  def.DefaultSettings,
	}
	if err := s.state.AddWidget(ctx, w); err != nil {
		return domain.Widget{}, err
	}

	s.logger.Info().
		Str("widgetId", w.ID).
		Str("type", string(w.Type)).
		Msg("Widget added")
	return w, nil
}

// Import stores an externally supplied widget, assigning an id and creation time when missing
func (s *WidgetService) Import(ctx context.Context, w domain.Widget) (domain.Widget, error) {
	if w.ID == "" {
		w.ID = "widget-" + uuid.NewString()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = s.now().UTC()
	}
	if _, exists := s.state.Widget(w.ID); exists {
		return domain.Widget{}, fmt.Errorf("%w: widget %s already exists", domain.ErrInvalidWidget, w.ID)
	}
	if err := s.state.AddWidget(ctx, w); err != nil {
		return domain.Widget{}, err
	}
	return w, nil
}

func (s *WidgetService) get(id string) (domain.Widget, error) {
	w, ok := s.state.Widget(id)
	if !ok {
		return domain.Widget{}, fmt.Errorf("widget %s: %w", id, domain.ErrNotFound)
	}
	return w, nil
}

// DeleteWidget removes the widget and its runtime data
func (s *WidgetService) DeleteWidget(ctx context.Context, id string) error {
	if _, err := s.get(id); err != nil {
		return err
	}
	return s.state.RemoveWidget(ctx, id)
}

// ToggleCollapse flips and persists the collapsed flag
func (s *WidgetService) ToggleCollapse(ctx context.Context, id string) (domain.Widget, error) {
	w, err := s.get(id)
	if err != nil {
		return domain.Widget{}, err
	}
	collapsed := !w.Collapsed
	return s.update(ctx, w, domain.WidgetPatch{Collapsed: &collapsed})
}

// Rename changes the widget title
func (s *WidgetService) Rename(ctx context.Context, id, name string) (domain.Widget, error) {
	w, err := s.get(id)
	if err != nil {
		return domain.Widget{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Widget{}, domain.NewInputError("Name is required")
	}
	return s.update(ctx, w, domain.WidgetPatch{Name: &name})
}

// UpdateSettings replaces the settings payload; it must match the widget type
func (s *WidgetService) UpdateSettings(ctx context.Context, id string, settings domain.WidgetSettings) (domain.Widget, error) {
	w, err := s.get(id)
	if err != nil {
		return domain.Widget{}, err
	}
	if settings == nil {
		return domain.Widget{}, domain.NewInputError("Settings are required")
	}
	return s.update(ctx, w, domain.WidgetPatch{Settings: settings})
}

// SetEnabled shows or hides the widget
func (s *WidgetService) SetEnabled(ctx context.Context, id string, enabled bool) (domain.Widget, error) {
	w, err := s.get(id)
	if err != nil {
		return domain.Widget{}, err
	}
	return s.update(ctx, w, domain.WidgetPatch{Enabled: &enabled})
}

// Resize changes the grid size, clamped to 1-4 units each way
func (s *WidgetService) Resize(ctx context.Context, id string, size domain.Size) (domain.Widget, error) {
	w, err := s.get(id)
	if err != nil {
		return domain.Widget{}, err
	}
	size.Width = min(max(size.Width, 1), 4)
	size.Height = min(max(size.Height, 1), 4)
	return s.update(ctx, w, domain.WidgetPatch{Size: &size})
}

// Reorder persists the order of ids. Ids must cover every widget; omitted widgets are dropped.
func (s *WidgetService) Reorder(ctx context.Context, ids []string) error {
	return s.state.ReorderWidgets(ctx, ids)
}

// Visible returns the enabled widgets in display order
func (s *WidgetService) Visible() []domain.Widget {
	all := s.state.Widgets()
	out := make([]domain.Widget, 0, len(all))
	for _, w := range all {
		if w.Enabled {
			out = append(out, w)
		}
	}
	domain.SortByPosition(out)
	return out
}

func (s *WidgetService) update(ctx context.Context, w domain.Widget, patch domain.WidgetPatch) (domain.Widget, error) {
	updated, err := domain.ApplyWidgetPatch(w, patch)
	if err != nil {
		return domain.Widget{}, err
	}
	if err := s.state.UpdateWidget(ctx, w.ID, patch); err != nil {
		return domain.Widget{}, err
	}
	return updated, nil
}
