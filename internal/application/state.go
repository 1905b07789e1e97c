package application

import (
	"context"
	"fmt"
	"sync"

	"glance/internal/domain"
	"glance/internal/ports"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Coordinator is the in-memory projection of widgets, integrations, runtime data and UI flags.
// Persisted mutators call the store first and touch memory only when the store call succeeds.
// The mutex guards memory only; concurrent store writes can still lose an update.
type Coordinator struct {
	mu           sync.RWMutex
	widgets      []domain.Widget
	integrations []domain.Integration
	widgetData   map[string]domain.WidgetData
	ui           domain.UIState

	widgetRepo      ports.WidgetRepository
	integrationRepo ports.IntegrationRepository
	events          ports.EventPublisher
	logger          zerolog.Logger
}

// NewCoordinator creates an empty coordinator; call Init to load persisted state
func NewCoordinator(
	widgetRepo ports.WidgetRepository,
	integrationRepo ports.IntegrationRepository,
	events ports.EventPublisher,
	logger zerolog.Logger,
) *Coordinator {
	return &Coordinator{
		widgets:         []domain.Widget{},
		integrations:    []domain.Integration{},
		widgetData:      make(map[string]domain.WidgetData),
		ui:              domain.DefaultUIState(),
		widgetRepo:      widgetRepo,
		integrationRepo: integrationRepo,
		events:          events,
		logger:          logger,
	}
}

func (c *Coordinator) publish(kind domain.StateEventKind, id string) {
	if c.events == nil {
		return
	}
	c.events.Publish(domain.StateEvent{Kind: kind, ID: id})
}

// Init loads both persisted families concurrently
func (c *Coordinator) Init(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.LoadWidgets(gctx) })
	g.Go(func() error { return c.LoadIntegrations(gctx) })
	if err := g.Wait(); err != nil {
		return err
	}

	c.mu.RLock()
	c.logger.Info().
		Int("widgets", len(c.widgets)).
		Int("integrations", len(c.integrations)).
		Msg("Application state loaded")
	c.mu.RUnlock()
	return nil
}

// LoadWidgets replaces the widget projection with the stored collection
func (c *Coordinator) LoadWidgets(ctx context.Context) error {
	widgets, err := c.widgetRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load widgets: %w", err)
	}
	c.mu.Lock()
	c.widgets = widgets
	c.mu.Unlock()
	c.publish(domain.EventWidgetsLoaded, "")
	return nil
}

// LoadIntegrations replaces the integration projection with the stored collection
func (c *Coordinator) LoadIntegrations(ctx context.Context) error {
	integrations, err := c.integrationRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load integrations: %w", err)
	}
	c.mu.Lock()
	c.integrations = integrations
	c.mu.Unlock()
	c.publish(domain.EventIntegrationsLoaded, "")
	return nil
}

// Widgets returns a copy of the widget projection in stored order
func (c *Coordinator) Widgets() []domain.Widget {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Widget, 0, len(c.widgets))
	for _, w := range c.widgets {
		out = append(out, w.Clone())
	}
	return out
}

// Widget returns the widget with id
func (c *Coordinator) Widget(id string) (domain.Widget, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	w, ok := domain.FindWidget(c.widgets, id)
	if !ok {
		return domain.Widget{}, false
	}
	return w.Clone(), true
}

// AddWidget persists w and appends it to the projection
func (c *Coordinator) AddWidget(ctx context.Context, w domain.Widget) error {
	if err := c.widgetRepo.Add(ctx, w); err != nil {
		return fmt.Errorf("failed to persist widget: %w", err)
	}
	c.mu.Lock()
	c.widgets = append(c.widgets, w.Clone())
	c.mu.Unlock()
	c.publish(domain.EventWidgetAdded, w.ID)
	return nil
}

// UpdateWidget persists patch and applies it to the projection
func (c *Coordinator) UpdateWidget(ctx context.Context, id string, patch domain.WidgetPatch) error {
	if err := c.widgetRepo.Update(ctx, id, patch); err != nil {
		return fmt.Errorf("failed to persist widget update: %w", err)
	}

	c.mu.Lock()
	changed := false
	for i, w := range c.widgets {
		if w.ID != id {
			continue
		}
		updated, err := domain.ApplyWidgetPatch(w, patch)
		if err != nil {
			c.mu.Unlock()
			return err
		}
		c.widgets[i] = updated
		changed = true
		break
	}
	c.mu.Unlock()
	if changed {
		c.publish(domain.EventWidgetUpdated, id)
	}
	return nil
}

// RemoveWidget deletes the widget and its runtime data
func (c *Coordinator) RemoveWidget(ctx context.Context, id string) error {
	if err := c.widgetRepo.Remove(ctx, id); err != nil {
		return fmt.Errorf("failed to persist widget removal: %w", err)
	}

	c.mu.Lock()
	kept := make([]domain.Widget, 0, len(c.widgets))
	for _, w := range c.widgets {
		if w.ID != id {
			kept = append(kept, w)
		}
	}
	removed := len(kept) != len(c.widgets)
	c.widgets = kept
	delete(c.widgetData, id)
	c.mu.Unlock()
	if removed {
		c.publish(domain.EventWidgetRemoved, id)
	}
	return nil
}

// ReorderWidgets persists the new order and mirrors it in memory
func (c *Coordinator) ReorderWidgets(ctx context.Context, ids []string) error {
	if err := c.widgetRepo.Reorder(ctx, ids); err != nil {
		return fmt.Errorf("failed to persist widget order: %w", err)
	}
	c.mu.Lock()
	c.widgets = domain.ReorderWidgets(c.widgets, ids)
	c.mu.Unlock()
	c.publish(domain.EventWidgetsReordered, "")
	return nil
}

// Integrations returns a copy of the integration projection
func (c *Coordinator) Integrations() []domain.Integration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Integration, 0, len(c.integrations))
	for _, i := range c.integrations {
		out = append(out, i.Clone())
	}
	return out
}

// Integration returns the integration with id
func (c *Coordinator) Integration(id string) (domain.Integration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := domain.FindIntegration(c.integrations, id)
	if !ok {
		return domain.Integration{}, false
	}
	return i.Clone(), true
}

// AddIntegration persists i and appends it to the projection
func (c *Coordinator) AddIntegration(ctx context.Context, i domain.Integration) error {
	if err := c.integrationRepo.Add(ctx, i); err != nil {
		return fmt.Errorf("failed to persist integration: %w", err)
	}
	c.mu.Lock()
	c.integrations = append(c.integrations, i.Clone())
	c.mu.Unlock()
	c.publish(domain.EventIntegrationAdded, i.ID)
	return nil
}

// UpdateIntegration persists patch and applies it to the projection
func (c *Coordinator) UpdateIntegration(ctx context.Context, id string, patch domain.IntegrationPatch) error {
	if err := c.integrationRepo.Update(ctx, id, patch); err != nil {
		return fmt.Errorf("failed to persist integration update: %w", err)
	}

	c.mu.Lock()
	changed := false
	for idx, i := range c.integrations {
		if i.ID != id {
			continue
		}
		updated, err := domain.ApplyIntegrationPatch(i, patch)
		if err != nil {
			c.mu.Unlock()
			return err
		}
		c.integrations[idx] = updated
		changed = true
		break
	}
	c.mu.Unlock()
	if changed {
		c.publish(domain.EventIntegrationUpdated, id)
	}
	return nil
}

// RemoveIntegration deletes the integration. Widgets referencing it are left untouched.
func (c *Coordinator) RemoveIntegration(ctx context.Context, id string) error {
	if err := c.integrationRepo.Remove(ctx, id); err != nil {
		return fmt.Errorf("failed to persist integration removal: %w", err)
	}

	c.mu.Lock()
	kept := make([]domain.Integration, 0, len(c.integrations))
	for _, i := range c.integrations {
		if i.ID != id {
			kept = append(kept, i)
		}
	}
	removed := len(kept) != len(c.integrations)
	c.integrations = kept
	c.mu.Unlock()
	if removed {
		c.publish(domain.EventIntegrationRemoved, id)
	}
	return nil
}

// WidgetData returns the runtime data of a widget
func (c *Coordinator) WidgetData(id string) (domain.WidgetData, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.widgetData[id]
	if !ok {
		return domain.WidgetData{Items: []domain.WidgetDataItem{}}, false
	}
	return d.Clone(), true
}

// SetWidgetData overwrites the runtime data of a widget
func (c *Coordinator) SetWidgetData(id string, data domain.WidgetData) {
	c.mu.Lock()
	c.widgetData[id] = data.Clone()
	c.mu.Unlock()
	c.publish(domain.EventWidgetDataChanged, id)
}

// SetLoading flips the loading flag and keeps the current items.
// Starting a cycle (loading=true) also clears the previous error.
func (c *Coordinator) SetLoading(id string, loading bool) {
	c.mu.Lock()
	d := c.widgetData[id].Clone()
	d.Loading = loading
	if loading {
		d.Error = ""
	}
	c.widgetData[id] = d
	c.mu.Unlock()
	c.publish(domain.EventWidgetDataChanged, id)
}

// SetError records a failed cycle and keeps the current items
func (c *Coordinator) SetError(id string, message string) {
	c.mu.Lock()
	d := c.widgetData[id].Clone()
	d.Loading = false
	d.Error = message
	c.widgetData[id] = d
	c.mu.Unlock()
	c.publish(domain.EventWidgetDataChanged, id)
}

// UIState returns the presentation flags
func (c *Coordinator) UIState() domain.UIState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ui
}

func (c *Coordinator) SetEditMode(on bool) {
	c.mu.Lock()
	c.ui.EditMode = on
	c.mu.Unlock()
	c.publish(domain.EventUIStateChanged, "")
}

func (c *Coordinator) SetSettingsOpen(open bool) {
	c.mu.Lock()
	c.ui.SettingsOpen = open
	c.mu.Unlock()
	c.publish(domain.EventUIStateChanged, "")
}

func (c *Coordinator) SetSettingsTab(tab domain.SettingsTab) error {
	if !tab.Valid() {
		return domain.NewInputError(fmt.Sprintf("unknown settings tab %q", tab))
	}
	c.mu.Lock()
	c.ui.SettingsTab = tab
	c.mu.Unlock()
	c.publish(domain.EventUIStateChanged, "")
	return nil
}
