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

// KVIntegrationRepository implements IntegrationRepository over a single KV document
type KVIntegrationRepository struct {
	store  ports.KVStore
	logger zerolog.Logger
}

// NewKVIntegrationRepository creates a new integration repository
func NewKVIntegrationRepository(store ports.KVStore, logger zerolog.Logger) ports.IntegrationRepository {
	return &KVIntegrationRepository{
		store:  store,
		logger: logger,
	}
}

// integrationSet mirrors widgetSet for the integrations collection
type integrationSet struct {
	integrations []domain.Integration
	unreadable   []json.RawMessage
}

func (r *KVIntegrationRepository) load(ctx context.Context) (integrationSet, error) {
	var doc entity.IntegrationsDocument
	ok, err := loadDocument(ctx, r.store, r.logger, IntegrationsKey, &doc)
	if err != nil {
		return integrationSet{}, err
	}
	set := integrationSet{integrations: []domain.Integration{}}
	if !ok {
		return set, nil
	}

	for _, rec := range doc.Integrations {
		var d entity.IntegrationDoc
		if err := json.Unmarshal(rec, &d); err != nil {
			r.logger.Warn().Err(err).Msg("Keeping undecodable integration record as is")
			set.unreadable = append(set.unreadable, rec)
			continue
		}
		i, err := d.ToDomain()
		if err != nil {
			r.logger.Warn().
				Err(err).
				Str("integrationId", d.ID).
				Msg("Keeping unreadable integration record as is")
			set.unreadable = append(set.unreadable, rec)
			continue
		}
		set.integrations = append(set.integrations, i)
	}
	return set, nil
}

func (r *KVIntegrationRepository) save(ctx context.Context, integrations []domain.Integration, unreadable []json.RawMessage) error {
	doc := entity.IntegrationsDocument{Integrations: make([]json.RawMessage, 0, len(integrations)+len(unreadable))}
	for _, i := range integrations {
		rec, err := json.Marshal(entity.IntegrationDocFromDomain(i))
		if err != nil {
			return fmt.Errorf("failed to encode integration %s: %w", i.ID, err)
		}
		doc.Integrations = append(doc.Integrations, rec)
	}
	doc.Integrations = append(doc.Integrations, unreadable...)
	return saveDocument(ctx, r.store, "integrations", IntegrationsKey, doc)
}

// List returns all stored integrations
func (r *KVIntegrationRepository) List(ctx context.Context) ([]domain.Integration, error) {
	set, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return set.integrations, nil
}

// Get retrieves an integration by id
func (r *KVIntegrationRepository) Get(ctx context.Context, id string) (domain.Integration, bool, error) {
	set, err := r.load(ctx)
	if err != nil {
		return domain.Integration{}, false, err
	}
	i, ok := domain.FindIntegration(set.integrations, id)
	return i, ok, nil
}

// Add appends an integration
func (r *KVIntegrationRepository) Add(ctx context.Context, integration domain.Integration) error {
	if err := integration.Validate(); err != nil {
		return err
	}
	set, err := r.load(ctx)
	if err != nil {
		return err
	}
	list := append(set.integrations, integration.Clone())
	if err := r.save(ctx, list, set.unreadable); err != nil {
		return fmt.Errorf("failed to add integration: %w", err)
	}
	return nil
}

// Update merges patch into the integration with id
func (r *KVIntegrationRepository) Update(ctx context.Context, id string, patch domain.IntegrationPatch) error {
	set, err := r.load(ctx)
	if err != nil {
		return err
	}
	list := set.integrations
	found := false
	for idx, i := range list {
		if i.ID != id {
			continue
		}
		updated, err := domain.ApplyIntegrationPatch(i, patch)
		if err != nil {
			return err
		}
		list[idx] = updated
		found = true
		break
	}
	if !found {
		r.logger.Debug().Str("integrationId", id).Msg("Update of unknown integration ignored")
		return nil
	}
	if err := r.save(ctx, list, set.unreadable); err != nil {
		return fmt.Errorf("failed to update integration: %w", err)
	}
	return nil
}

// Remove deletes the integration with id
func (r *KVIntegrationRepository) Remove(ctx context.Context, id string) error {
	set, err := r.load(ctx)
	if err != nil {
		return err
	}
	list := set.integrations
	kept := make([]domain.Integration, 0, len(list))
	for _, i := range list {
		if i.ID != id {
			kept = append(kept, i)
		}
	}
	if len(kept) == len(list) {
		return nil
	}
	if err := r.save(ctx, kept, set.unreadable); err != nil {
		return fmt.Errorf("failed to remove integration: %w", err)
	}
	return nil
}
