package ports

import (
	"context"

	"glance/internal/domain"
)

// SearchOptions narrows a pull request search
type SearchOptions struct {
	Query   string
	Sort    domain.PRSortBy
	PerPage int
}

// GitHubClient defines the GitHub API operations Glance needs.
// Failures are reported as *domain.ValidationError carrying the reason taxonomy.
type GitHubClient interface {
	// ValidateToken confirms the token against GET {apiBaseURL}/user
	ValidateToken(ctx context.Context, apiBaseURL, token string) (*domain.GitHubUser, error)

	// SearchPullRequests runs a search/issues query for one account
	SearchPullRequests(ctx context.Context, account domain.Integration, opts SearchOptions) ([]domain.PullRequest, error)

	// CombinedStatus resolves the build status of a pull request head commit
	CombinedStatus(ctx context.Context, account domain.Integration, pr domain.PullRequest) (domain.BuildStatus, error)
}
