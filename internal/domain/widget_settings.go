package domain

import (
	"net/url"
	"slices"
)

// WidgetSettings is the type specific payload of a widget.
// The set of implementations is closed: GitHubPRSettings, BookmarkSettings, TabGroupsSettings.
type WidgetSettings interface {
	WidgetType() WidgetType
	cloneSettings() WidgetSettings
}

// PRFilterMode selects between the structured filter form and a raw search query
type PRFilterMode string

const (
	PRFilterModeForm PRFilterMode = "form"
	PRFilterModeRaw  PRFilterMode = "raw"
)

// PRType is one of the pull request categories a widget can track
type PRType string

const (
	PRTypeReviewRequested PRType = "review-requested" // PRs requesting my review
	PRTypeAuthored        PRType = "authored"         // PRs I created
	PRTypeDraft           PRType = "draft"            // My draft PRs
	PRTypeTeamReview      PRType = "team-review"      // PRs requesting team review
)

// PRSortBy is the timestamp pull requests are ordered by
type PRSortBy string

const (
	PRSortUpdated PRSortBy = "updated"
	PRSortCreated PRSortBy = "created"
)

// GitHubFormFilters are the structured filters of a github-prs widget
type GitHubFormFilters struct {
	PRTypes []PRType `json:"prTypes" yaml:"prTypes"`
	States  []string `json:"states" yaml:"states"` // "open" | "closed"
	Teams   []string `json:"teams" yaml:"teams"`
	Repos   []string `json:"repos" yaml:"repos"`
	Labels  []string `json:"labels" yaml:"labels"`
}

// GitHubPRSettings configures a github-prs widget
type GitHubPRSettings struct {
	AccountIDs      []string          `json:"accountIds" yaml:"accountIds"` // Integration ids to query
	FilterMode      PRFilterMode      `json:"filterMode" yaml:"filterMode"`
	FormFilters     GitHubFormFilters `json:"formFilters" yaml:"formFilters"`
	RawQuery        string            `json:"rawQuery" yaml:"rawQuery"`
	ShowBuildStatus bool              `json:"showBuildStatus" yaml:"showBuildStatus"`
	SortBy          PRSortBy          `json:"sortBy" yaml:"sortBy"`
}

func (GitHubPRSettings) WidgetType() WidgetType { return WidgetTypeGitHubPRs }

func (s GitHubPRSettings) cloneSettings() WidgetSettings {
	out := s
	out.AccountIDs = cloneStrings(s.AccountIDs)
	out.FormFilters = GitHubFormFilters{
		PRTypes: slices.Clone(s.FormFilters.PRTypes),
		States:  cloneStrings(s.FormFilters.States),
		Teams:   cloneStrings(s.FormFilters.Teams),
		Repos:   cloneStrings(s.FormFilters.Repos),
		Labels:  cloneStrings(s.FormFilters.Labels),
	}
	if out.FormFilters.PRTypes == nil {
		out.FormFilters.PRTypes = []PRType{}
	}
	return out
}

// BookmarkSettings configures a bookmark widget
type BookmarkSettings struct {
	URL     string `json:"url" yaml:"url"`
	IconURL string `json:"iconUrl,omitempty" yaml:"iconUrl,omitempty"`
}

func (BookmarkSettings) WidgetType() WidgetType { return WidgetTypeBookmark }

func (s BookmarkSettings) cloneSettings() WidgetSettings { return s }

// DisplayHost returns the hostname shown on the tile, or the raw URL when it does not parse
func (s BookmarkSettings) DisplayHost() string {
	u, err := url.Parse(s.URL)
	if err != nil || u.Hostname() == "" {
		return s.URL
	}
	return u.Hostname()
}

// TabGroupsSettings configures a tab-groups widget
type TabGroupsSettings struct {
	ShowBookmarks bool `json:"showBookmarks" yaml:"showBookmarks"`
	GroupByDomain bool `json:"groupByDomain" yaml:"groupByDomain"`
}

func (TabGroupsSettings) WidgetType() WidgetType { return WidgetTypeTabGroups }

func (s TabGroupsSettings) cloneSettings() WidgetSettings { return s }

// CloneSettings deep copies a settings value; nil stays nil
func CloneSettings(s WidgetSettings) WidgetSettings {
	if s == nil {
		return nil
	}
	return s.cloneSettings()
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return slices.Clone(in)
}
