package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"glance/internal/domain"
	"glance/internal/infrastructure/kvstore"
	"glance/internal/infrastructure/repository"
	"glance/internal/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var errQuota = errors.New("quota exceeded")

// flakyStore fails every write once failing is set
type flakyStore struct {
	*kvstore.MemoryStore
	mu      sync.Mutex
	failing bool
}

func (s *flakyStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	failing := s.failing
	s.mu.Unlock()
	if failing {
		return errQuota
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func (s *flakyStore) fail(on bool) {
	s.mu.Lock()
	s.failing = on
	s.mu.Unlock()
}

type recordedEvents struct {
	mu     sync.Mutex
	events []domain.StateEvent
}

func (r *recordedEvents) Publish(ev domain.StateEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordedEvents) kinds() []domain.StateEventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.StateEventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

type fakeGitHub struct {
	mu        sync.Mutex
	user      *domain.GitHubUser
	err       error
	searchErr error
	results   map[string][]domain.PullRequest // keyed by query
	statuses  map[int]domain.BuildStatus
	queries   []string
}

var _ ports.GitHubClient = (*fakeGitHub)(nil)

func (f *fakeGitHub) ValidateToken(_ context.Context, _, _ string) (*domain.GitHubUser, error) {
	if f.err != nil {
		return nil, f.err
	}
	u := *f.user
	return &u, nil
}

func (f *fakeGitHub) SearchPullRequests(_ context.Context, account domain.Integration, opts ports.SearchOptions) ([]domain.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, opts.Query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	out := []domain.PullRequest{}
	for _, pr := range f.results[opts.Query] {
		pr.AccountID = account.ID
		out = append(out, pr)
	}
	return out, nil
}

func (f *fakeGitHub) CombinedStatus(_ context.Context, _ domain.Integration, pr domain.PullRequest) (domain.BuildStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses[pr.Number], nil
}

type fixture struct {
	store  *flakyStore
	events *recordedEvents
	state  *Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &flakyStore{MemoryStore: kvstore.NewMemoryStore()}
	events := &recordedEvents{}
	logger := zerolog.Nop()
	state := NewCoordinator(
		repository.NewKVWidgetRepository(store, logger),
		repository.NewKVIntegrationRepository(store, logger),
		events,
		logger,
	)
	require.NoError(t, state.Init(context.Background()))
	return &fixture{store: store, events: events, state: state}
}

func githubAccount(id string, enabled bool) domain.Integration {
	return domain.Integration{
		ID:        id,
		Type:      domain.IntegrationTypeGitHub,
		Name:      id,
		Enabled:   enabled,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		GitHub: &domain.GitHubAccount{
			APIBaseURL: domain.DefaultGitHubAPIURL,
			Token:      "ghp_" + id,
		},
	}
}

func bookmarkWidget(id string, y int) domain.Widget {
	return domain.Widget{
		ID:        id,
		Type:      domain.WidgetTypeBookmark,
		Name:      id,
		Position:  domain.Position{Y: y},
		Size:      domain.Size{Width: 1, Height: 1},
		Enabled:   true,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, y, 0, time.UTC),
		Settings:  domain.BookmarkSettings{URL: "https://" + id + ".dev"},
	}
}
