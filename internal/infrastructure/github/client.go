package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"glance/internal/domain"
	"glance/internal/infrastructure/metrics"
	"glance/internal/ports"

	"github.com/rs/zerolog"
)

const defaultPerPage = 30

// Client implements ports.GitHubClient over the GitHub REST v3 API
type Client struct {
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a GitHub client whose requests time out after timeout
func NewClient(timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

var _ ports.GitHubClient = (*Client)(nil)

// ValidateToken confirms a token by fetching the authenticated user
func (c *Client) ValidateToken(ctx context.Context, apiBaseURL, token string) (*domain.GitHubUser, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.NewInputError("Token is required")
	}
	if strings.TrimSpace(apiBaseURL) == "" {
		return nil, domain.NewInputError("API URL is required")
	}

	var user domain.GitHubUser
	if err := c.getJSON(ctx, apiBaseURL, token, "/user", nil, &user); err != nil {
		ve, _ := domain.IsValidationError(err)
		reason := domain.ReasonUnreachable
		if ve != nil {
			reason = ve.Reason
		}
		metrics.Validations.WithLabelValues(string(reason)).Inc()
		c.logger.Warn().
			Err(err).
			Str("apiBaseUrl", apiBaseURL).
			Str("reason", string(reason)).
			Msg("GitHub token validation failed")
		return nil, err
	}

	metrics.Validations.WithLabelValues("ok").Inc()
	c.logger.Debug().
		Str("apiBaseUrl", apiBaseURL).
		Str("login", user.Login).
		Msg("GitHub token validation successful")
	return &user, nil
}

type searchResponse struct {
	TotalCount int          `json:"total_count"`
	Items      []searchItem `json:"items"`
}

type searchItem struct {
	Number        int               `json:"number"`
	Title         string            `json:"title"`
	HTMLURL       string            `json:"html_url"`
	RepositoryURL string            `json:"repository_url"`
	State         string            `json:"state"`
	Draft         bool              `json:"draft"`
	User          domain.GitHubUser `json:"user"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	PullRequest   *struct {
		URL string `json:"url"`
	} `json:"pull_request"`
}

// SearchPullRequests runs one search/issues query and keeps only pull requests
func (c *Client) SearchPullRequests(ctx context.Context, account domain.Integration, opts ports.SearchOptions) ([]domain.PullRequest, error) {
	if account.GitHub == nil {
		return nil, fmt.Errorf("%w: integration %s is not a github account", domain.ErrInvalidIntegration, account.ID)
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	sort := opts.Sort
	if sort == "" {
		sort = domain.PRSortUpdated
	}

	q := url.Values{}
	q.Set("q", opts.Query)
	q.Set("sort", string(sort))
	q.Set("order", "desc")
	q.Set("per_page", strconv.Itoa(perPage))

	var resp searchResponse
	if err := c.getJSON(ctx, account.GitHub.APIBaseURL, account.GitHub.Token, "/search/issues", q, &resp); err != nil {
		return nil, err
	}

	prs := make([]domain.PullRequest, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.PullRequest == nil {
			continue
		}
		owner, repo := splitRepositoryURL(item.RepositoryURL)
		prs = append(prs, domain.PullRequest{
			AccountID: account.ID,
			Number:    item.Number,
			Title:     item.Title,
			HTMLURL:   item.HTMLURL,
			APIURL:    item.PullRequest.URL,
			Owner:     owner,
			Repo:      repo,
			Author:    item.User.Login,
			State:     item.State,
			Draft:     item.Draft,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		})
	}
	return prs, nil
}

// CombinedStatus resolves the head commit of pr and returns its combined status
func (c *Client) CombinedStatus(ctx context.Context, account domain.Integration, pr domain.PullRequest) (domain.BuildStatus, error) {
	if account.GitHub == nil {
		return domain.BuildStatusUnknown, fmt.Errorf("%w: integration %s is not a github account", domain.ErrInvalidIntegration, account.ID)
	}
	base, token := account.GitHub.APIBaseURL, account.GitHub.Token

	var pull struct {
		Head struct {
			SHA string `json:"sha"`
		} `json:"head"`
	}
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", url.PathEscape(pr.Owner), url.PathEscape(pr.Repo), pr.Number)
	if err := c.getJSON(ctx, base, token, path, nil, &pull); err != nil {
		return domain.BuildStatusUnknown, err
	}
	if pull.Head.SHA == "" {
		return domain.BuildStatusUnknown, nil
	}

	var status struct {
		State      string `json:"state"`
		TotalCount int    `json:"total_count"`
	}
	path = fmt.Sprintf("/repos/%s/%s/commits/%s/status", url.PathEscape(pr.Owner), url.PathEscape(pr.Repo), pull.Head.SHA)
	if err := c.getJSON(ctx, base, token, path, nil, &status); err != nil {
		return domain.BuildStatusUnknown, err
	}
	// A commit without any status contexts reports "pending"; show nothing instead
	if status.TotalCount == 0 {
		return domain.BuildStatusUnknown, nil
	}
	switch domain.BuildStatus(status.State) {
	case domain.BuildStatusSuccess, domain.BuildStatusPending, domain.BuildStatusFailure, domain.BuildStatusError:
		return domain.BuildStatus(status.State), nil
	default:
		return domain.BuildStatusUnknown, nil
	}
}

// getJSON performs an authenticated GET and decodes a 2xx body into out.
// Failures come back as *domain.ValidationError.
func (c *Client) getJSON(ctx context.Context, apiBaseURL, token, path string, query url.Values, out any) error {
	endpoint := strings.TrimRight(apiBaseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &domain.ValidationError{Reason: domain.ReasonUnreachable, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Authorization", "token "+token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.ValidationError{Reason: domain.ReasonUnreachable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return &domain.ValidationError{Reason: domain.ReasonInvalidCredential, StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &domain.ValidationError{
			Reason:     domain.ReasonRemoteError,
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.ValidationError{
			Reason:     domain.ReasonRemoteError,
			StatusCode: resp.StatusCode,
			Message:    "Unexpected response from GitHub",
			Err:        err,
		}
	}
	return nil
}

// splitRepositoryURL turns ".../repos/{owner}/{repo}" into its parts
func splitRepositoryURL(repositoryURL string) (owner, repo string) {
	parts := strings.Split(strings.TrimRight(repositoryURL, "/"), "/")
	if len(parts) < 2 {
		return "", ""
	}
	return parts[len(parts)-2], parts[len(parts)-1]
}
