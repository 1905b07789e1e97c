package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"glance/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addPRWidget(t *testing.T, fx *fixture, accountIDs ...string) domain.Widget {
	t.Helper()
	def, _ := domain.LookupDefinition(domain.WidgetTypeGitHubPRs)
	settings := def.DefaultSettings.(domain.GitHubPRSettings)
	settings.AccountIDs = accountIDs
	settings.ShowBuildStatus = false
	w := domain.Widget{
		ID: "prs", Type: domain.WidgetTypeGitHubPRs, Name: def.Name, Enabled: true,
		Size: def.DefaultSize, CreatedAt: time.Now().UTC(), Settings: settings,
	}
	require.NoError(t, fx.state.AddWidget(context.Background(), w))
	return w
}

func TestBuildQueries(t *testing.T) {
	settings := domain.GitHubPRSettings{
		FilterMode: domain.PRFilterModeForm,
		FormFilters: domain.GitHubFormFilters{
			PRTypes: []domain.PRType{domain.PRTypeReviewRequested, domain.PRTypeDraft, domain.PRTypeTeamReview},
			States:  []string{"open"},
			Teams:   []string{"acme/core", "acme/core"},
			Repos:   []string{"acme/api"},
			Labels:  []string{"needs review"},
		},
	}
	assert.Equal(t, []string{
		`is:pr review-requested:@me state:open repo:acme/api label:"needs review"`,
		`is:pr author:@me draft:true state:open repo:acme/api label:"needs review"`,
		`is:pr team-review-requested:acme/core state:open repo:acme/api label:"needs review"`,
	}, BuildQueries(settings))

	settings.FormFilters = domain.GitHubFormFilters{
		PRTypes: []domain.PRType{domain.PRTypeAuthored},
		States:  []string{"open", "closed"},
	}
	assert.Equal(t, []string{"is:pr author:@me"}, BuildQueries(settings))

	raw := domain.GitHubPRSettings{FilterMode: domain.PRFilterModeRaw, RawQuery: " type:pr state:open "}
	assert.Equal(t, []string{"type:pr state:open"}, BuildQueries(raw))
	raw.RawQuery = ""
	assert.Empty(t, BuildQueries(raw))
}

func TestViewStates(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	svc := NewPullRequestService(fx.state, &fakeGitHub{}, zerolog.Nop())
	addPRWidget(t, fx)

	view, err := svc.View("prs")
	require.NoError(t, err)
	assert.Equal(t, PRViewNoAccounts, view.State)

	require.NoError(t, fx.state.AddIntegration(ctx, githubAccount("github-1", true)))
	view, _ = svc.View("prs")
	assert.Equal(t, PRViewNoAccountsSelected, view.State)

	ids := []string{"github-1"}
	settings := domain.GitHubPRSettings{AccountIDs: ids, FilterMode: domain.PRFilterModeForm}
	require.NoError(t, fx.state.UpdateWidget(ctx, "prs", domain.WidgetPatch{Settings: settings}))
	view, _ = svc.View("prs")
	assert.Equal(t, PRViewEmpty, view.State)

	fx.state.SetLoading("prs", true)
	view, _ = svc.View("prs")
	assert.Equal(t, PRViewLoading, view.State)

	fx.state.SetError("prs", "boom")
	view, _ = svc.View("prs")
	assert.Equal(t, PRViewError, view.State)
	assert.Equal(t, "boom", view.Error)

	fx.state.SetWidgetData("prs", domain.WidgetData{Items: []domain.WidgetDataItem{{ID: "x"}}})
	view, _ = svc.View("prs")
	assert.Equal(t, PRViewItems, view.State)

	_, err = svc.View("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestViewWithDanglingAccount(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.state.AddIntegration(ctx, githubAccount("github-1", true)))
	require.NoError(t, fx.state.AddIntegration(ctx, githubAccount("github-2", true)))
	addPRWidget(t, fx, "github-1")
	svc := NewPullRequestService(fx.state, &fakeGitHub{}, zerolog.Nop())

	require.NoError(t, fx.state.RemoveIntegration(ctx, "github-1"))

	view, err := svc.View("prs")
	require.NoError(t, err)
	assert.Equal(t, PRViewAccountsUnavailable, view.State)
	assert.Equal(t, []string{"github-1"}, view.UnavailableAccountIDs)

	// Refreshing with only dangling ids is a quiet no-op
	require.NoError(t, svc.Refresh(ctx, "prs"))
	_, ok := fx.state.WidgetData("prs")
	assert.False(t, ok)
}

func TestViewIgnoresDisabledAccounts(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.state.AddIntegration(ctx, githubAccount("github-1", false)))
	addPRWidget(t, fx, "github-1")
	svc := NewPullRequestService(fx.state, &fakeGitHub{}, zerolog.Nop())

	view, err := svc.View("prs")
	require.NoError(t, err)
	assert.Equal(t, PRViewAccountsUnavailable, view.State)
}

func TestRefreshMergesDedupesAndSorts(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.state.AddIntegration(ctx, githubAccount("github-1", true)))
	w := addPRWidget(t, fx, "github-1", "ghost")

	settings, _ := w.GitHubPRSettings()
	settings.FormFilters.PRTypes = []domain.PRType{domain.PRTypeReviewRequested, domain.PRTypeAuthored}
	settings.FormFilters.States = []string{"open"}
	settings.ShowBuildStatus = true
	require.NoError(t, fx.state.UpdateWidget(ctx, w.ID, domain.WidgetPatch{Settings: settings}))

	older := domain.PullRequest{Number: 1, Title: "Older", HTMLURL: "https://github.com/o/r/pull/1", Owner: "o", Repo: "r", State: "open",
		UpdatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := domain.PullRequest{Number: 2, Title: "Newer", HTMLURL: "https://github.com/o/r/pull/2", Owner: "o", Repo: "r", State: "open", Author: "octocat",
		UpdatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)}
	gh := &fakeGitHub{
		results: map[string][]domain.PullRequest{
			"is:pr review-requested:@me state:open": {older, newer},
			"is:pr author:@me state:open":           {newer},
		},
		statuses: map[int]domain.BuildStatus{2: domain.BuildStatusSuccess},
	}
	svc := NewPullRequestService(fx.state, gh, zerolog.Nop())

	require.NoError(t, svc.Refresh(ctx, w.ID))

	d, ok := fx.state.WidgetData(w.ID)
	require.True(t, ok)
	assert.False(t, d.Loading)
	assert.Empty(t, d.Error)
	assert.NotNil(t, d.LastUpdated)
	require.Len(t, d.Items, 2)
	assert.Equal(t, "Newer", d.Items[0].Title)
	assert.Equal(t, "o/r #2 by octocat", d.Items[0].Subtitle)
	assert.Equal(t, "passing", d.Items[0].Status)
	assert.Equal(t, "Older", d.Items[1].Title)
	assert.Equal(t, "open", d.Items[1].Status)

	view, err := svc.View(w.ID)
	require.NoError(t, err)
	assert.Equal(t, PRViewItems, view.State)
	assert.Equal(t, []string{"ghost"}, view.UnavailableAccountIDs)
}

func TestRefreshFailureKeepsItems(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.state.AddIntegration(ctx, githubAccount("github-1", true)))
	w := addPRWidget(t, fx, "github-1")
	item := domain.WidgetDataItem{ID: "x", Title: "stale"}
	fx.state.SetWidgetData(w.ID, domain.WidgetData{Items: []domain.WidgetDataItem{item}})

	gh := &fakeGitHub{searchErr: &domain.ValidationError{Reason: domain.ReasonRemoteError, StatusCode: 502}}
	svc := NewPullRequestService(fx.state, gh, zerolog.Nop())

	err := svc.Refresh(ctx, w.ID)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))

	d, _ := fx.state.WidgetData(w.ID)
	assert.False(t, d.Loading)
	assert.Equal(t, "github-1: API error: 502", d.Error)
	assert.Equal(t, []domain.WidgetDataItem{item}, d.Items)
}

func TestRefreshAllSkipsDisabledAndOtherTypes(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.state.AddIntegration(ctx, githubAccount("github-1", true)))
	addPRWidget(t, fx, "github-1")
	require.NoError(t, fx.state.AddWidget(ctx, bookmarkWidget("bm", 1)))

	gh := &fakeGitHub{}
	svc := NewPullRequestService(fx.state, gh, zerolog.Nop())
	require.NoError(t, svc.RefreshAll(ctx))
	assert.Equal(t, []string{"is:pr review-requested:@me state:open"}, gh.queries)

	disabled := false
	require.NoError(t, fx.state.UpdateWidget(ctx, "prs", domain.WidgetPatch{Enabled: &disabled}))
	gh.queries = nil
	require.NoError(t, svc.RefreshAll(ctx))
	assert.Empty(t, gh.queries)

	assert.ErrorIs(t, svc.Refresh(ctx, "bm"), domain.ErrInvalidWidget)
}
