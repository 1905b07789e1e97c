package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"glance/internal/domain"
	"glance/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AccountService manages GitHub accounts: validate first, persist only on success
type AccountService struct {
	state         *Coordinator
	github        ports.GitHubClient
	defaultAPIURL string
	now           func() time.Time
	logger        zerolog.Logger
}

// NewAccountService creates a new account service
func NewAccountService(
	state *Coordinator,
	github ports.GitHubClient,
	defaultAPIURL string,
	logger zerolog.Logger,
) *AccountService {
	if defaultAPIURL == "" {
		defaultAPIURL = domain.DefaultGitHubAPIURL
	}
	return &AccountService{
		state:         state,
		github:        github,
		defaultAPIURL: defaultAPIURL,
		now:           time.Now,
		logger:        logger,
	}
}

// GitHubAccountInput is the account form
type GitHubAccountInput struct {
	Name       string
	APIBaseURL string // Empty selects the public GitHub API
	Token      string
}

func (s *AccountService) normalize(input GitHubAccountInput) (GitHubAccountInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Token = strings.TrimSpace(input.Token)
	input.APIBaseURL = strings.TrimRight(strings.TrimSpace(input.APIBaseURL), "/")

	if input.Name == "" {
		return input, domain.NewInputError("Name is required")
	}
	if input.Token == "" {
		return input, domain.NewInputError("Token is required")
	}
	if input.APIBaseURL == "" {
		input.APIBaseURL = s.defaultAPIURL
	}
	if !strings.HasPrefix(input.APIBaseURL, "http://") && !strings.HasPrefix(input.APIBaseURL, "https://") {
		return input, domain.NewInputError("API URL is required for GitHub Enterprise")
	}
	return input, nil
}

// List returns every stored account
func (s *AccountService) List() []domain.Integration {
	return s.state.Integrations()
}

// AddGitHubAccount validates the token and stores a new enabled account
func (s *AccountService) AddGitHubAccount(ctx context.Context, input GitHubAccountInput) (domain.Integration, error) {
	input, err := s.normalize(input)
	if err != nil {
		return domain.Integration{}, err
	}

	user, err := s.github.ValidateToken(ctx, input.APIBaseURL, input.Token)
	if err != nil {
		return domain.Integration{}, err
	}

	now := s.now().UTC()
	account := domain.Integration{
		ID:        "github-" + uuid.NewString(),
		Type:      domain.IntegrationTypeGitHub,
		Name:      input.Name,
		Enabled:   true,
		CreatedAt: now,
		GitHub: &domain.GitHubAccount{
			APIBaseURL:    input.APIBaseURL,
			Token:         input.Token,
			Username:      user.Login,
			AvatarURL:     user.AvatarURL,
			LastValidated: &now,
		},
	}
	if err := s.state.AddIntegration(ctx, account); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save GitHub account")
		return domain.Integration{}, err
	}

	s.logger.Info().
		Str("integrationId", account.ID).
		Str("login", user.Login).
		Msg("GitHub account connected")
	return account, nil
}

// EditGitHubAccount re-validates and replaces the editable fields of an account
func (s *AccountService) EditGitHubAccount(ctx context.Context, id string, input GitHubAccountInput) (domain.Integration, error) {
	existing, ok := s.state.Integration(id)
	if !ok {
		return domain.Integration{}, fmt.Errorf("integration %s: %w", id, domain.ErrNotFound)
	}
	input, err := s.normalize(input)
	if err != nil {
		return domain.Integration{}, err
	}

	user, err := s.github.ValidateToken(ctx, input.APIBaseURL, input.Token)
	if err != nil {
		return domain.Integration{}, err
	}

	now := s.now().UTC()
	cleared := ""
	patch := domain.IntegrationPatch{
		Name: &input.Name,
		GitHub: &domain.GitHubAccountPatch{
			APIBaseURL:      &input.APIBaseURL,
			Token:           &input.Token,
			Username:        &user.Login,
			AvatarURL:       &user.AvatarURL,
			LastValidated:   &now,
			ValidationError: &cleared,
		},
	}
	if err := s.state.UpdateIntegration(ctx, id, patch); err != nil {
		return domain.Integration{}, err
	}

	updated, err := domain.ApplyIntegrationPatch(existing, patch)
	if err != nil {
		return domain.Integration{}, err
	}
	s.logger.Info().Str("integrationId", id).Msg("GitHub account updated")
	return updated, nil
}

// SetEnabled toggles whether widgets may use the account
func (s *AccountService) SetEnabled(ctx context.Context, id string, enabled bool) error {
	if _, ok := s.state.Integration(id); !ok {
		return fmt.Errorf("integration %s: %w", id, domain.ErrNotFound)
	}
	return s.state.UpdateIntegration(ctx, id, domain.IntegrationPatch{Enabled: &enabled})
}

// DeleteAccount removes the account. Widgets keep the dangling id.
func (s *AccountService) DeleteAccount(ctx context.Context, id string) error {
	if err := s.state.RemoveIntegration(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("integrationId", id).Msg("GitHub account removed")
	return nil
}

// RevalidateAccount re-checks a stored token. A failure is recorded on the account
// rather than deleting it; the validation error is also returned.
func (s *AccountService) RevalidateAccount(ctx context.Context, id string) (domain.Integration, error) {
	existing, ok := s.state.Integration(id)
	if !ok {
		return domain.Integration{}, fmt.Errorf("integration %s: %w", id, domain.ErrNotFound)
	}
	if existing.GitHub == nil {
		return domain.Integration{}, fmt.Errorf("%w: integration %s is not a github account", domain.ErrInvalidIntegration, id)
	}

	var patch domain.IntegrationPatch
	user, verr := s.github.ValidateToken(ctx, existing.GitHub.APIBaseURL, existing.GitHub.Token)
	if verr != nil {
		msg := verr.Error()
		patch.GitHub = &domain.GitHubAccountPatch{ValidationError: &msg}
		s.logger.Warn().Err(verr).Str("integrationId", id).Msg("GitHub account failed re-validation")
	} else {
		now := s.now().UTC()
		cleared := ""
		patch.GitHub = &domain.GitHubAccountPatch{
			Username:        &user.Login,
			AvatarURL:       &user.AvatarURL,
			LastValidated:   &now,
			ValidationError: &cleared,
		}
	}

	if err := s.state.UpdateIntegration(ctx, id, patch); err != nil {
		return domain.Integration{}, err
	}
	updated, err := domain.ApplyIntegrationPatch(existing, patch)
	if err != nil {
		return domain.Integration{}, err
	}
	return updated, verr
}
