package application

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"glance/internal/domain"
	"glance/internal/infrastructure/metrics"
	"glance/internal/ports"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// PRViewState is what a github-prs tile shows
type PRViewState string

const (
	PRViewNoAccounts          PRViewState = "no-accounts"
	PRViewNoAccountsSelected  PRViewState = "no-accounts-selected"
	PRViewAccountsUnavailable PRViewState = "accounts-unavailable"
	PRViewLoading             PRViewState = "loading"
	PRViewError               PRViewState = "error"
	PRViewEmpty               PRViewState = "empty"
	PRViewItems               PRViewState = "items"
)

// PRView is the render state of a github-prs widget. Items are kept under loading and error.
type PRView struct {
	WidgetID              string                  `json:"widgetId"`
	State                 PRViewState             `json:"state"`
	Items                 []domain.WidgetDataItem `json:"items"`
	Error                 string                  `json:"error,omitempty"`
	UnavailableAccountIDs []string                `json:"unavailableAccountIds"`
	LastUpdated           *time.Time              `json:"lastUpdated,omitempty"`
}

// PullRequestService fetches pull requests for github-prs widgets into the runtime cache
type PullRequestService struct {
	state   *Coordinator
	github  ports.GitHubClient
	perPage int
	now     func() time.Time
	logger  zerolog.Logger
}

// NewPullRequestService creates a new pull request service
func NewPullRequestService(state *Coordinator, github ports.GitHubClient, logger zerolog.Logger) *PullRequestService {
	return &PullRequestService{
		state:   state,
		github:  github,
		perPage: 30,
		now:     time.Now,
		logger:  logger,
	}
}

func (s *PullRequestService) prWidget(id string) (domain.Widget, domain.GitHubPRSettings, error) {
	w, ok := s.state.Widget(id)
	if !ok {
		return domain.Widget{}, domain.GitHubPRSettings{}, fmt.Errorf("widget %s: %w", id, domain.ErrNotFound)
	}
	settings, ok := w.GitHubPRSettings()
	if !ok {
		return domain.Widget{}, domain.GitHubPRSettings{}, fmt.Errorf("%w: widget %s is %s, not github-prs", domain.ErrInvalidWidget, id, w.Type)
	}
	return w, settings, nil
}

// resolveAccounts splits the selected ids into usable accounts and ids that are
// dangling, disabled or not GitHub accounts.
func (s *PullRequestService) resolveAccounts(ids []string) (usable []domain.Integration, unavailable []string) {
	unavailable = []string{}
	for _, id := range ids {
		i, ok := s.state.Integration(id)
		if !ok || i.Type != domain.IntegrationTypeGitHub || !i.Usable() {
			unavailable = append(unavailable, id)
			continue
		}
		usable = append(usable, i)
	}
	return usable, unavailable
}

func (s *PullRequestService) hasGitHubAccounts() bool {
	for _, i := range s.state.Integrations() {
		if i.Type == domain.IntegrationTypeGitHub {
			return true
		}
	}
	return false
}

// View derives the render state of a github-prs widget. Dangling account ids never fail it.
func (s *PullRequestService) View(widgetID string) (PRView, error) {
	_, settings, err := s.prWidget(widgetID)
	if err != nil {
		return PRView{}, err
	}

	view := PRView{
		WidgetID:              widgetID,
		Items:                 []domain.WidgetDataItem{},
		UnavailableAccountIDs: []string{},
	}
	if !s.hasGitHubAccounts() {
		view.State = PRViewNoAccounts
		return view, nil
	}
	if len(settings.AccountIDs) == 0 {
		view.State = PRViewNoAccountsSelected
		return view, nil
	}
	usable, unavailable := s.resolveAccounts(settings.AccountIDs)
	view.UnavailableAccountIDs = unavailable
	if len(usable) == 0 {
		view.State = PRViewAccountsUnavailable
		return view, nil
	}

	data, _ := s.state.WidgetData(widgetID)
	view.Items = data.Items
	view.Error = data.Error
	view.LastUpdated = data.LastUpdated
	switch {
	case data.Loading:
		view.State = PRViewLoading
	case data.Error != "":
		view.State = PRViewError
	case len(data.Items) == 0:
		view.State = PRViewEmpty
	default:
		view.State = PRViewItems
	}
	return view, nil
}

// Refresh runs one fetch cycle for a github-prs widget
func (s *PullRequestService) Refresh(ctx context.Context, widgetID string) error {
	_, settings, err := s.prWidget(widgetID)
	if err != nil {
		return err
	}
	accounts, unavailable := s.resolveAccounts(settings.AccountIDs)
	if len(unavailable) > 0 {
		s.logger.Debug().
			Str("widgetId", widgetID).
			Strs("accountIds", unavailable).
			Msg("Skipping unavailable accounts")
	}
	if len(accounts) == 0 {
		metrics.FetchCycles.WithLabelValues(string(domain.WidgetTypeGitHubPRs), "skipped").Inc()
		return nil
	}

	s.state.SetLoading(widgetID, true)

	prs, err := s.fetch(ctx, accounts, settings)
	if err != nil {
		metrics.FetchCycles.WithLabelValues(string(domain.WidgetTypeGitHubPRs), "error").Inc()
		s.logger.Warn().Err(err).Str("widgetId", widgetID).Msg("Pull request fetch failed")
		s.state.SetError(widgetID, err.Error())
		return err
	}

	now := s.now().UTC()
	s.state.SetWidgetData(widgetID, domain.WidgetData{
		Items:       toItems(prs),
		LastUpdated: &now,
	})
	metrics.FetchCycles.WithLabelValues(string(domain.WidgetTypeGitHubPRs), "ok").Inc()
	return nil
}

// RefreshAll refreshes every enabled github-prs widget concurrently.
// Per-widget failures land in that widget's error state and do not stop the others.
func (s *PullRequestService) RefreshAll(ctx context.Context) error {
	var g errgroup.Group
	for _, w := range s.state.Widgets() {
		if !w.Enabled || w.Type != domain.WidgetTypeGitHubPRs {
			continue
		}
		id := w.ID
		g.Go(func() error {
			if err := s.Refresh(ctx, id); err != nil {
				s.logger.Debug().Err(err).Str("widgetId", id).Msg("Widget refresh failed")
			}
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

func (s *PullRequestService) fetch(ctx context.Context, accounts []domain.Integration, settings domain.GitHubPRSettings) ([]domain.PullRequest, error) {
	queries := BuildQueries(settings)
	if len(queries) == 0 {
		return []domain.PullRequest{}, nil
	}

	var (
		mu  sync.Mutex
		all []domain.PullRequest
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, account := range accounts {
		for _, q := range queries {
			g.Go(func() error {
				prs, err := s.github.SearchPullRequests(gctx, account, ports.SearchOptions{
					Query:   q,
					Sort:    settings.SortBy,
					PerPage: s.perPage,
				})
				if err != nil {
					return fmt.Errorf("%s: %w", account.Name, err)
				}
				mu.Lock()
				all = append(all, prs...)
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	prs := dedupeAndSort(all, settings.SortBy)
	if settings.ShowBuildStatus {
		s.attachBuildStatus(ctx, accounts, prs)
	}
	return prs, nil
}

// attachBuildStatus fills BuildStatus in place; lookup failures leave it unknown
func (s *PullRequestService) attachBuildStatus(ctx context.Context, accounts []domain.Integration, prs []domain.PullRequest) {
	byID := make(map[string]domain.Integration, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	var g errgroup.Group
	g.SetLimit(4)
	for i := range prs {
		if prs[i].State != "open" {
			continue
		}
		g.Go(func() error {
			status, err := s.github.CombinedStatus(ctx, byID[prs[i].AccountID], prs[i])
			if err != nil {
				s.logger.Debug().Err(err).Str("pr", prs[i].HTMLURL).Msg("Build status lookup failed")
				return nil
			}
			prs[i].BuildStatus = status
			return nil
		})
	}
	_ = g.Wait()
}

// BuildQueries turns widget settings into GitHub search queries.
// Raw mode uses the query verbatim; form mode emits one query per PR type.
func BuildQueries(settings domain.GitHubPRSettings) []string {
	if settings.FilterMode == domain.PRFilterModeRaw {
		q := strings.TrimSpace(settings.RawQuery)
		if q == "" {
			return []string{}
		}
		return []string{q}
	}

	f := settings.FormFilters
	var qualifiers []string
	if states := distinct(f.States); len(states) == 1 {
		qualifiers = append(qualifiers, "state:"+states[0])
	}
	for _, r := range distinct(f.Repos) {
		qualifiers = append(qualifiers, "repo:"+r)
	}
	for _, l := range distinct(f.Labels) {
		qualifiers = append(qualifiers, "label:"+quoteQualifier(l))
	}
	suffix := ""
	if len(qualifiers) > 0 {
		suffix = " " + strings.Join(qualifiers, " ")
	}

	queries := []string{}
	for _, t := range f.PRTypes {
		switch t {
		case domain.PRTypeReviewRequested:
			queries = append(queries, "is:pr review-requested:@me"+suffix)
		case domain.PRTypeAuthored:
			queries = append(queries, "is:pr author:@me"+suffix)
		case domain.PRTypeDraft:
			queries = append(queries, "is:pr author:@me draft:true"+suffix)
		case domain.PRTypeTeamReview:
			for _, team := range distinct(f.Teams) {
				queries = append(queries, "is:pr team-review-requested:"+team+suffix)
			}
		}
	}
	return queries
}

func distinct(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func quoteQualifier(v string) string {
	if strings.ContainsAny(v, " \t") {
		return strconv.Quote(v)
	}
	return v
}

// dedupeAndSort drops repeated URLs (first wins) and orders newest first
func dedupeAndSort(prs []domain.PullRequest, by domain.PRSortBy) []domain.PullRequest {
	seen := make(map[string]bool, len(prs))
	out := make([]domain.PullRequest, 0, len(prs))
	for _, pr := range prs {
		if seen[pr.HTMLURL] {
			continue
		}
		seen[pr.HTMLURL] = true
		out = append(out, pr)
	}

	key := func(pr domain.PullRequest) time.Time {
		if by == domain.PRSortCreated {
			return pr.CreatedAt
		}
		return pr.UpdatedAt
	}
	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := key(out[i]), key(out[j])
		if !ki.Equal(kj) {
			return ki.After(kj)
		}
		return out[i].HTMLURL < out[j].HTMLURL
	})
	return out
}

func toItems(prs []domain.PullRequest) []domain.WidgetDataItem {
	items := make([]domain.WidgetDataItem, 0, len(prs))
	for _, pr := range prs {
		status, color := pr.Status()
		subtitle := fmt.Sprintf("%s/%s #%d", pr.Owner, pr.Repo, pr.Number)
		if pr.Author != "" {
			subtitle += " by " + pr.Author
		}
		items = append(items, domain.WidgetDataItem{
			ID:          pr.HTMLURL,
			Title:       pr.Title,
			URL:         pr.HTMLURL,
			Subtitle:    subtitle,
			Status:      status,
			StatusColor: color,
			UpdatedAt:   pr.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return items
}
