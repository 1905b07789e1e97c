package api

import (
	"encoding/json"
	"time"

	"glance/internal/domain"
	"glance/internal/infrastructure/repository/entity"
)

// accountResponse is an integration as exposed over HTTP. The token never leaves the server.
type accountResponse struct {
	ID              string     `json:"id"`
	Type            string     `json:"type"`
	Name            string     `json:"name"`
	Enabled         bool       `json:"enabled"`
	CreatedAt       time.Time  `json:"createdAt"`
	APIBaseURL      string     `json:"apiBaseUrl,omitempty"`
	Username        string     `json:"username,omitempty"`
	AvatarURL       string     `json:"avatarUrl,omitempty"`
	LastValidated   *time.Time `json:"lastValidated,omitempty"`
	ValidationError string     `json:"validationError,omitempty"`
	HasToken        bool       `json:"hasToken"`
}

func toAccountResponse(i domain.Integration) accountResponse {
	doc := entity.IntegrationDocFromDomain(i)
	return accountResponse{
		ID:              doc.ID,
		Type:            doc.Type,
		Name:            doc.Name,
		Enabled:         doc.Enabled,
		CreatedAt:       doc.CreatedAt,
		APIBaseURL:      doc.APIBaseURL,
		Username:        doc.Username,
		AvatarURL:       doc.AvatarURL,
		LastValidated:   doc.LastValidated,
		ValidationError: doc.ValidationError,
		HasToken:        doc.Token != "",
	}
}

type accountRequest struct {
	Name       string `json:"name"`
	APIBaseURL string `json:"apiBaseUrl"`
	Token      string `json:"token"`
}

type accountPatchRequest struct {
	Enabled *bool `json:"enabled"`
}

type createWidgetRequest struct {
	Type domain.WidgetType `json:"type"`
}

type widgetPatchRequest struct {
	Name      *string          `json:"name"`
	Position  *domain.Position `json:"position"`
	Size      *domain.Size     `json:"size"`
	Enabled   *bool            `json:"enabled"`
	Collapsed *bool            `json:"collapsed"`
	Settings  json.RawMessage  `json:"settings"`
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

type uiPatchRequest struct {
	EditMode     *bool               `json:"editMode"`
	SettingsOpen *bool               `json:"settingsOpen"`
	SettingsTab  *domain.SettingsTab `json:"settingsTab"`
}

type openTabRequest struct {
	URL string `json:"url"`
}

type tabSnapshotRequest struct {
	Tabs []domain.Tab `json:"tabs"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Reason     string `json:"reason,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
}
