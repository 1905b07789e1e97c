package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"glance/internal/domain"
)

// IntegrationsDocument is the value stored under the integrations key.
// Records stay raw so one unreadable record cannot spoil the others.
type IntegrationsDocument struct {
	Integrations []json.RawMessage `json:"integrations"`
}

// IntegrationDoc is the flat persisted shape of an integration.
// Variant fields sit next to the base fields, keyed by Type.
type IntegrationDoc struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`

	// github
	APIBaseURL      string     `json:"apiBaseUrl,omitempty"`
	Token           string     `json:"token,omitempty"`
	Username        string     `json:"username,omitempty"`
	AvatarURL       string     `json:"avatarUrl,omitempty"`
	LastValidated   *time.Time `json:"lastValidated,omitempty"`
	ValidationError string     `json:"validationError,omitempty"`
}

// ToDomain converts the document to a domain entity
func (d IntegrationDoc) ToDomain() (domain.Integration, error) {
	i := domain.Integration{
		ID:        d.ID,
		Type:      domain.IntegrationType(d.Type),
		Name:      d.Name,
		Enabled:   d.Enabled,
		CreatedAt: d.CreatedAt,
	}
	switch i.Type {
	case domain.IntegrationTypeGitHub:
		i.GitHub = &domain.GitHubAccount{
			APIBaseURL:      d.APIBaseURL,
			Token:           d.Token,
			Username:        d.Username,
			AvatarURL:       d.AvatarURL,
			LastValidated:   d.LastValidated,
			ValidationError: d.ValidationError,
		}
	default:
		return domain.Integration{}, fmt.Errorf("%w: %q", domain.ErrUnknownIntegrationType, d.Type)
	}
	return i, nil
}

// IntegrationDocFromDomain converts a domain entity to its persisted document
func IntegrationDocFromDomain(i domain.Integration) IntegrationDoc {
	doc := IntegrationDoc{
		ID:        i.ID,
		Type:      string(i.Type),
		Name:      i.Name,
		Enabled:   i.Enabled,
		CreatedAt: i.CreatedAt,
	}
	if gh := i.GitHub; gh != nil {
		doc.APIBaseURL = gh.APIBaseURL
		doc.Token = gh.Token
		doc.Username = gh.Username
		doc.AvatarURL = gh.AvatarURL
		doc.LastValidated = gh.LastValidated
		doc.ValidationError = gh.ValidationError
	}
	return doc
}
