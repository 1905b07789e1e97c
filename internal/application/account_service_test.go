package application

import (
	"context"
	"strings"
	"testing"

	"glance/internal/domain"
	"glance/internal/infrastructure/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddGitHubAccount(t *testing.T) {
	fx := newFixture(t)
	gh := &fakeGitHub{user: &domain.GitHubUser{Login: "octocat", AvatarURL: "https://a/1"}}
	svc := NewAccountService(fx.state, gh, "", zerolog.Nop())

	acct, err := svc.AddGitHubAccount(context.Background(), GitHubAccountInput{
		Name:  "  Work ",
		Token: " ghp_abc ",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(acct.ID, "github-"))
	assert.Equal(t, "Work", acct.Name)
	assert.True(t, acct.Enabled)
	require.NotNil(t, acct.GitHub)
	assert.Equal(t, domain.DefaultGitHubAPIURL, acct.GitHub.APIBaseURL)
	assert.Equal(t, "ghp_abc", acct.GitHub.Token)
	assert.Equal(t, "octocat", acct.GitHub.Username)
	assert.NotNil(t, acct.GitHub.LastValidated)

	stored, ok, err := repository.NewKVIntegrationRepository(fx.store, zerolog.Nop()).Get(context.Background(), acct.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, acct, stored)
}

func TestAddGitHubAccountInvalidTokenPersistsNothing(t *testing.T) {
	fx := newFixture(t)
	gh := &fakeGitHub{err: &domain.ValidationError{Reason: domain.ReasonInvalidCredential, StatusCode: 401}}
	svc := NewAccountService(fx.state, gh, "", zerolog.Nop())

	_, err := svc.AddGitHubAccount(context.Background(), GitHubAccountInput{Name: "Work", Token: "bad"})
	ve, ok := domain.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ReasonInvalidCredential, ve.Reason)

	assert.Empty(t, svc.List())
	list, err := repository.NewKVIntegrationRepository(fx.store, zerolog.Nop()).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAddGitHubAccountRequiresFields(t *testing.T) {
	fx := newFixture(t)
	svc := NewAccountService(fx.state, &fakeGitHub{user: &domain.GitHubUser{}}, "", zerolog.Nop())

	cases := []struct {
		input GitHubAccountInput
		msg   string
	}{
		{GitHubAccountInput{Token: "t"}, "Name is required"},
		{GitHubAccountInput{Name: "n"}, "Token is required"},
		{GitHubAccountInput{Name: "n", Token: "t", APIBaseURL: "ghe.local"}, "API URL is required for GitHub Enterprise"},
	}
	for _, tc := range cases {
		_, err := svc.AddGitHubAccount(context.Background(), tc.input)
		ve, ok := domain.IsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, domain.ReasonInvalidInput, ve.Reason)
		assert.Equal(t, tc.msg, ve.Error())
	}
	assert.Empty(t, svc.List())
}

func TestEditGitHubAccountKeepsIdentity(t *testing.T) {
	fx := newFixture(t)
	gh := &fakeGitHub{user: &domain.GitHubUser{Login: "octocat"}}
	svc := NewAccountService(fx.state, gh, "", zerolog.Nop())
	ctx := context.Background()

	acct, err := svc.AddGitHubAccount(ctx, GitHubAccountInput{Name: "Work", Token: "ghp_1"})
	require.NoError(t, err)

	gh.user = &domain.GitHubUser{Login: "hubot"}
	edited, err := svc.EditGitHubAccount(ctx, acct.ID, GitHubAccountInput{
		Name:       "Enterprise",
		Token:      "ghp_2",
		APIBaseURL: "https://ghe.example.com/api/v3/",
	})
	require.NoError(t, err)
	assert.Equal(t, acct.ID, edited.ID)
	assert.Equal(t, acct.CreatedAt, edited.CreatedAt)
	assert.Equal(t, "Enterprise", edited.Name)
	assert.Equal(t, "https://ghe.example.com/api/v3", edited.GitHub.APIBaseURL)
	assert.Equal(t, "hubot", edited.GitHub.Username)

	got, ok := fx.state.Integration(acct.ID)
	require.True(t, ok)
	assert.Equal(t, edited, got)

	_, err = svc.EditGitHubAccount(ctx, "missing", GitHubAccountInput{Name: "x", Token: "y"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEditGitHubAccountInvalidTokenPersistsNothing(t *testing.T) {
	fx := newFixture(t)
	gh := &fakeGitHub{user: &domain.GitHubUser{Login: "octocat"}}
	svc := NewAccountService(fx.state, gh, "", zerolog.Nop())
	ctx := context.Background()

	acct, err := svc.AddGitHubAccount(ctx, GitHubAccountInput{Name: "Work", Token: "ghp_1"})
	require.NoError(t, err)
	before := len(fx.events.kinds())

	gh.err = &domain.ValidationError{Reason: domain.ReasonInvalidCredential, StatusCode: 401}
	_, err = svc.EditGitHubAccount(ctx, acct.ID, GitHubAccountInput{Name: "Personal", Token: "ghp_bad"})
	ve, ok := domain.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ReasonInvalidCredential, ve.Reason)

	got, ok := fx.state.Integration(acct.ID)
	require.True(t, ok)
	assert.Equal(t, acct, got)

	stored, ok, err := repository.NewKVIntegrationRepository(fx.store, zerolog.Nop()).Get(ctx, acct.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Work", stored.Name)
	assert.Equal(t, "ghp_1", stored.GitHub.Token)
	assert.Equal(t, "octocat", stored.GitHub.Username)
	assert.Len(t, fx.events.kinds(), before)
}

func TestRevalidateAccountRecordsFailure(t *testing.T) {
	fx := newFixture(t)
	gh := &fakeGitHub{user: &domain.GitHubUser{Login: "octocat"}}
	svc := NewAccountService(fx.state, gh, "", zerolog.Nop())
	ctx := context.Background()

	acct, err := svc.AddGitHubAccount(ctx, GitHubAccountInput{Name: "Work", Token: "ghp_1"})
	require.NoError(t, err)

	gh.err = &domain.ValidationError{Reason: domain.ReasonInvalidCredential}
	updated, err := svc.RevalidateAccount(ctx, acct.ID)
	require.Error(t, err)
	assert.Equal(t, "Invalid token", updated.GitHub.ValidationError)

	got, ok := fx.state.Integration(acct.ID)
	require.True(t, ok, "a failed re-validation must not delete the account")
	assert.Equal(t, "Invalid token", got.GitHub.ValidationError)

	gh.err = nil
	updated, err = svc.RevalidateAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Empty(t, updated.GitHub.ValidationError)
}

func TestDeleteAndDisableAccount(t *testing.T) {
	fx := newFixture(t)
	svc := NewAccountService(fx.state, &fakeGitHub{user: &domain.GitHubUser{Login: "o"}}, "", zerolog.Nop())
	ctx := context.Background()

	acct, err := svc.AddGitHubAccount(ctx, GitHubAccountInput{Name: "Work", Token: "ghp_1"})
	require.NoError(t, err)

	require.NoError(t, svc.SetEnabled(ctx, acct.ID, false))
	got, _ := fx.state.Integration(acct.ID)
	assert.False(t, got.Enabled)
	assert.ErrorIs(t, svc.SetEnabled(ctx, "missing", true), domain.ErrNotFound)

	require.NoError(t, svc.DeleteAccount(ctx, acct.ID))
	require.NoError(t, svc.DeleteAccount(ctx, acct.ID))
	assert.Empty(t, svc.List())
}
