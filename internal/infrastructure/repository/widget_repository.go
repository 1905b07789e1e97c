package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"glance/internal/domain"
	"glance/internal/infrastructure/repository/entity"
	"glance/internal/ports"

	"github.com/rs/zerolog"
)

// KVWidgetRepository implements WidgetRepository over a single KV document
type KVWidgetRepository struct {
	store  ports.KVStore
	logger zerolog.Logger
}

// NewKVWidgetRepository creates a new widget repository
func NewKVWidgetRepository(store ports.KVStore, logger zerolog.Logger) ports.WidgetRepository {
	return &KVWidgetRepository{
		store:  store,
		logger: logger,
	}
}

// widgetSet is the decoded collection plus the records that could not be read.
// Unreadable records are written back verbatim after the readable ones.
type widgetSet struct {
	widgets    []domain.Widget
	unreadable []json.RawMessage
}

func (r *KVWidgetRepository) load(ctx context.Context) (widgetSet, error) {
	var doc entity.WidgetsDocument
	ok, err := loadDocument(ctx, r.store, r.logger, WidgetsKey, &doc)
	if err != nil {
		return widgetSet{}, err
	}
	set := widgetSet{widgets: []domain.Widget{}}
	if !ok {
		return set, nil
	}

	for _, rec := range doc.Widgets {
		var d entity.WidgetDoc
		if err := json.Unmarshal(rec, &d); err != nil {
			r.logger.Warn().Err(err).Msg("Keeping undecodable widget record as is")
			set.unreadable = append(set.unreadable, rec)
			continue
		}
		w, err := d.ToDomain()
		if err != nil {
			r.logger.Warn().
				Err(err).
				Str("widgetId", d.ID).
				Msg("Keeping unreadable widget record as is")
			set.unreadable = append(set.unreadable, rec)
			continue
		}
		set.widgets = append(set.widgets, w)
	}
	return set, nil
}

func (r *KVWidgetRepository) write(ctx context.Context, widgets []domain.Widget, unreadable []json.RawMessage) error {
	doc := entity.WidgetsDocument{Widgets: make([]json.RawMessage, 0, len(widgets)+len(unreadable))}
	for _, w := range widgets {
		d, err := entity.WidgetDocFromDomain(w)
		if err != nil {
			return err
		}
		rec, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("failed to encode widget %s: %w", w.ID, err)
		}
		doc.Widgets = append(doc.Widgets, rec)
	}
	doc.Widgets = append(doc.Widgets, unreadable...)
	return saveDocument(ctx, r.store, "widgets", WidgetsKey, doc)
}

// Save replaces the readable part of the widget collection
func (r *KVWidgetRepository) Save(ctx context.Context, widgets []domain.Widget) error {
	set, err := r.load(ctx)
	if err != nil {
		return err
	}
	return r.write(ctx, widgets, set.unreadable)
}

// List returns all stored widgets in stored order
func (r *KVWidgetRepository) List(ctx context.Context) ([]domain.Widget, error) {
	set, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return set.widgets, nil
}

// Get retrieves a widget by id
func (r *KVWidgetRepository) Get(ctx context.Context, id string) (domain.Widget, bool, error) {
	set, err := r.load(ctx)
	if err != nil {
		return domain.Widget{}, false, err
	}
	w, ok := domain.FindWidget(set.widgets, id)
	return w, ok, nil
}

// Add appends a widget
func (r *KVWidgetRepository) Add(ctx context.Context, widget domain.Widget) error {
	if err := widget.Validate(); err != nil {
		return err
	}
	set, err := r.load(ctx)
	if err != nil {
		return err
	}
	list := append(set.widgets, widget.Clone())
	if err := r.write(ctx, list, set.unreadable); err != nil {
		return fmt.Errorf("failed to add widget: %w", err)
	}
	return nil
}

// Update merges patch into the widget with id
func (r *KVWidgetRepository) Update(ctx context.Context, id string, patch domain.WidgetPatch) error {
	set, err := r.load(ctx)
	if err != nil {
		return err
	}
	list := set.widgets
	found := false
	for idx, w := range list {
		if w.ID != id {
			continue
		}
		updated, err := domain.ApplyWidgetPatch(w, patch)
		if err != nil {
			return err
		}
		list[idx] = updated
		found = true
		break
	}
	if !found {
		r.logger.Debug().Str("widgetId", id).Msg("Update of unknown widget ignored")
		return nil
	}
	if err := r.write(ctx, list, set.unreadable); err != nil {
		return fmt.Errorf("failed to update widget: %w", err)
	}
	return nil
}

// Remove deletes the widget with id
func (r *KVWidgetRepository) Remove(ctx context.Context, id string) error {
	set, err := r.load(ctx)
	if err != nil {
		return err
	}
	list := set.widgets
	kept := make([]domain.Widget, 0, len(list))
	for _, w := range list {
		if w.ID != id {
			kept = append(kept, w)
		}
	}
	if len(kept) == len(list) {
		return nil
	}
	if err := r.write(ctx, kept, set.unreadable); err != nil {
		return fmt.Errorf("failed to remove widget: %w", err)
	}
	return nil
}

// Reorder rewrites positions to follow ids
func (r *KVWidgetRepository) Reorder(ctx context.Context, ids []string) error {
	set, err := r.load(ctx)
	if err != nil {
		return err
	}
	if err := r.write(ctx, domain.ReorderWidgets(set.widgets, ids), set.unreadable); err != nil {
		return fmt.Errorf("failed to reorder widgets: %w", err)
	}
	return nil
}
