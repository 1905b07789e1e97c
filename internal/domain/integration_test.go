package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func account() Integration {
	return Integration{
		ID:      "github-1",
		Type:    IntegrationTypeGitHub,
		Name:    "Work",
		Enabled: true,
		GitHub:  &GitHubAccount{APIBaseURL: DefaultGitHubAPIURL, Token: "t"},
	}
}

func TestIntegrationValidate(t *testing.T) {
	assert.NoError(t, account().Validate())

	i := account()
	i.GitHub = nil
	assert.ErrorIs(t, i.Validate(), ErrInvalidIntegration)

	i = account()
	i.Type = "gitlab"
	assert.ErrorIs(t, i.Validate(), ErrUnknownIntegrationType)

	i = account()
	i.GitHub.APIBaseURL = " "
	assert.ErrorIs(t, i.Validate(), ErrInvalidIntegration)
}

func TestIntegrationUsable(t *testing.T) {
	assert.True(t, account().Usable())

	i := account()
	i.Enabled = false
	assert.False(t, i.Usable())
}

func TestApplyIntegrationPatch(t *testing.T) {
	i := account()
	i.GitHub.ValidationError = "Invalid token"
	now := time.Now()
	name := "Personal"
	user := "octocat"
	cleared := ""

	got, err := ApplyIntegrationPatch(i, IntegrationPatch{
		Name: &name,
		GitHub: &GitHubAccountPatch{
			Username:        &user,
			LastValidated:   &now,
			ValidationError: &cleared,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Personal", got.Name)
	assert.Equal(t, "octocat", got.GitHub.Username)
	assert.Empty(t, got.GitHub.ValidationError)
	assert.Equal(t, "t", got.GitHub.Token)
	require.NotNil(t, got.GitHub.LastValidated)

	// the original keeps its own variant
	assert.Equal(t, "Work", i.Name)
	assert.Equal(t, "Invalid token", i.GitHub.ValidationError)
}

func TestApplyIntegrationPatchRejectsForeignVariant(t *testing.T) {
	i := account()
	i.Type = "gitlab"
	_, err := ApplyIntegrationPatch(i, IntegrationPatch{GitHub: &GitHubAccountPatch{}})
	assert.ErrorIs(t, err, ErrInvalidIntegration)
}

func TestValidationErrorMessages(t *testing.T) {
	assert.Equal(t, "Invalid token", (&ValidationError{Reason: ReasonInvalidCredential}).Error())
	assert.Equal(t, "API error: 502", (&ValidationError{Reason: ReasonRemoteError, StatusCode: 502}).Error())
	assert.Equal(t, "Failed to connect to GitHub", (&ValidationError{Reason: ReasonUnreachable}).Error())
	assert.Equal(t, "Name is required", NewInputError("Name is required").Error())

	cause := errors.New("dial tcp: refused")
	wrapped := &ValidationError{Reason: ReasonUnreachable, Err: cause}
	assert.ErrorIs(t, wrapped, cause)

	ve, ok := IsValidationError(errors.Join(errors.New("other"), wrapped))
	require.True(t, ok)
	assert.Equal(t, ReasonUnreachable, ve.Reason)
}

func TestPullRequestStatus(t *testing.T) {
	cases := []struct {
		pr    PullRequest
		label string
	}{
		{PullRequest{State: "open", BuildStatus: BuildStatusSuccess}, "passing"},
		{PullRequest{State: "open", BuildStatus: BuildStatusPending}, "pending"},
		{PullRequest{State: "open", BuildStatus: BuildStatusError}, "failing"},
		{PullRequest{State: "open", Draft: true}, "draft"},
		{PullRequest{State: "closed"}, "closed"},
		{PullRequest{State: "open"}, "open"},
	}
	for _, tc := range cases {
		label, color := tc.pr.Status()
		assert.Equal(t, tc.label, label)
		assert.NotEmpty(t, color)
	}
}
