package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"glance/internal/infrastructure/metrics"
	"glance/internal/ports"

	"github.com/rs/zerolog"
)

// Storage keys of the persisted collections
const (
	WidgetsKey      = "glance_widgets"
	IntegrationsKey = "glance_integrations"
)

// loadDocument reads the envelope under key into out and reports whether out holds it.
// A missing key or a malformed envelope reports false and out must be ignored.
func loadDocument(ctx context.Context, store ports.KVStore, logger zerolog.Logger, key string, out any) (bool, error) {
	raw, found, err := store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logger.Warn().
			Err(err).
			Str("key", key).
			Msg("Stored document is malformed, treating collection as empty")
		return false, nil
	}
	return true, nil
}

func saveDocument(ctx context.Context, store ports.KVStore, collection, key string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, raw); err != nil {
		metrics.StoreWrites.WithLabelValues(collection, "error").Inc()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	metrics.StoreWrites.WithLabelValues(collection, "ok").Inc()
	return nil
}
