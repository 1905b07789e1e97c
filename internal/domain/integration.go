package domain

import (
	"fmt"
	"strings"
	"time"
)

// IntegrationType is the closed tag of external services an account can belong to
type IntegrationType string

const (
	IntegrationTypeGitHub IntegrationType = "github"
)

// DefaultGitHubAPIURL is the public GitHub REST endpoint
const DefaultGitHubAPIURL = "https://api.github.com"

// Integration represents a stored external-account credential.
// The variant pointer matching Type carries the service specific fields;
// exactly one variant is set for a valid record.
type Integration struct {
	ID        string          `json:"id"`
	Type      IntegrationType `json:"type"`
	Name      string          `json:"name"`    // User supplied label, e.g. "Work"
	Enabled   bool            `json:"enabled"`
	CreatedAt time.Time       `json:"createdAt"`

	GitHub *GitHubAccount `json:"-"`
}

// GitHubAccount holds the GitHub specific part of an integration.
// Token is stored in plaintext.
type GitHubAccount struct {
	APIBaseURL      string     // "https://api.github.com" or a GHE ".../api/v3" URL
	Token           string
	Username        string     // Populated from /user after validation
	AvatarURL       string
	LastValidated   *time.Time
	ValidationError string     // Last re-validation failure, empty when healthy
}

// Validate checks the tag/variant pairing and required fields
func (i Integration) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidIntegration)
	}
	switch i.Type {
	case IntegrationTypeGitHub:
		if i.GitHub == nil {
			return fmt.Errorf("%w: github integration %s has no account data", ErrInvalidIntegration, i.ID)
		}
		if strings.TrimSpace(i.GitHub.APIBaseURL) == "" {
			return fmt.Errorf("%w: github integration %s has no api base url", ErrInvalidIntegration, i.ID)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownIntegrationType, i.Type)
	}
}

// Clone returns a deep copy so projections never share variant pointers
func (i Integration) Clone() Integration {
	out := i
	if i.GitHub != nil {
		gh := *i.GitHub
		if i.GitHub.LastValidated != nil {
			t := *i.GitHub.LastValidated
			gh.LastValidated = &t
		}
		out.GitHub = &gh
	}
	return out
}

// Usable reports whether widgets may query this integration
func (i Integration) Usable() bool {
	return i.Enabled && i.Validate() == nil
}

// IntegrationPatch is a partial update; nil fields are left untouched
type IntegrationPatch struct {
	Name    *string
	Enabled *bool
	GitHub  *GitHubAccountPatch
}

// GitHubAccountPatch is the GitHub variant part of an IntegrationPatch.
// A pointer to "" clears an optional string field.
type GitHubAccountPatch struct {
	APIBaseURL      *string
	Token           *string
	Username        *string
	AvatarURL       *string
	LastValidated   *time.Time
	ValidationError *string
}

// ApplyIntegrationPatch merges p into i. The id, type and creation time are immutable.
// A variant patch that does not match the integration type is rejected.
func ApplyIntegrationPatch(i Integration, p IntegrationPatch) (Integration, error) {
	out := i.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Enabled != nil {
		out.Enabled = *p.Enabled
	}
	if p.GitHub != nil {
		if out.Type != IntegrationTypeGitHub {
			return i, fmt.Errorf("%w: github patch for %s integration", ErrInvalidIntegration, out.Type)
		}
		if out.GitHub == nil {
			out.GitHub = &GitHubAccount{}
		}
		gh := out.GitHub
		if p.GitHub.APIBaseURL != nil {
			gh.APIBaseURL = *p.GitHub.APIBaseURL
		}
		if p.GitHub.Token != nil {
			gh.Token = *p.GitHub.Token
		}
		if p.GitHub.Username != nil {
			gh.Username = *p.GitHub.Username
		}
		if p.GitHub.AvatarURL != nil {
			gh.AvatarURL = *p.GitHub.AvatarURL
		}
		if p.GitHub.LastValidated != nil {
			t := *p.GitHub.LastValidated
			gh.LastValidated = &t
		}
		if p.GitHub.ValidationError != nil {
			gh.ValidationError = *p.GitHub.ValidationError
		}
	}
	return out, nil
}

// FindIntegration returns the integration with id from list
func FindIntegration(list []Integration, id string) (Integration, bool) {
	for _, i := range list {
		if i.ID == id {
			return i, true
		}
	}
	return Integration{}, false
}
