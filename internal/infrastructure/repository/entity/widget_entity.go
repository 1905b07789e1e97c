package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"glance/internal/domain"
)

// WidgetsDocument is the value stored under the widgets key.
// Records stay raw so one unreadable record cannot spoil the others.
type WidgetsDocument struct {
	Widgets []json.RawMessage `json:"widgets"`
}

// WidgetDoc is the persisted shape of a widget. Settings stay raw until the type is known.
type WidgetDoc struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Name      string          `json:"name"`
	Position  domain.Position `json:"position"`
	Size      domain.Size     `json:"size"`
	Enabled   bool            `json:"enabled"`
	Collapsed bool            `json:"collapsed"`
	CreatedAt time.Time       `json:"createdAt"`
	Settings  json.RawMessage `json:"settings"`
}

// DecodeSettings parses a raw settings payload for widget type t
func DecodeSettings(t domain.WidgetType, raw []byte) (domain.WidgetSettings, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = []byte("{}")
	}
	switch t {
	case domain.WidgetTypeGitHubPRs:
		var s domain.GitHubPRSettings
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("failed to decode github-prs settings: %w", err)
		}
		return domain.CloneSettings(s), nil
	case domain.WidgetTypeBookmark:
		var s domain.BookmarkSettings
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("failed to decode bookmark settings: %w", err)
		}
		return s, nil
	case domain.WidgetTypeTabGroups:
		var s domain.TabGroupsSettings
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("failed to decode tab-groups settings: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownWidgetType, t)
	}
}

// ToDomain converts the document to a domain entity
func (d WidgetDoc) ToDomain() (domain.Widget, error) {
	t := domain.WidgetType(d.Type)
	settings, err := DecodeSettings(t, d.Settings)
	if err != nil {
		return domain.Widget{}, fmt.Errorf("widget %s: %w", d.ID, err)
	}
	return domain.Widget{
		ID:        d.ID,
		Type:      t,
		Name:      d.Name,
		Position:  d.Position,
		Size:      d.Size,
		Enabled:   d.Enabled,
		Collapsed: d.Collapsed,
		CreatedAt: d.CreatedAt,
		Settings:  settings,
	}, nil
}

// WidgetDocFromDomain converts a domain entity to its persisted document
func WidgetDocFromDomain(w domain.Widget) (WidgetDoc, error) {
	raw, err := json.Marshal(w.Settings)
	if err != nil {
		return WidgetDoc{}, fmt.Errorf("failed to encode settings of widget %s: %w", w.ID, err)
	}
	return WidgetDoc{
		ID:        w.ID,
		Type:      string(w.Type),
		Name:      w.Name,
		Position:  w.Position,
		Size:      w.Size,
		Enabled:   w.Enabled,
		Collapsed: w.Collapsed,
		CreatedAt: w.CreatedAt,
		Settings:  raw,
	}, nil
}
