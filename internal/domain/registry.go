package domain

// WidgetDefinition is the gallery metadata of a widget type
type WidgetDefinition struct {
	Type            WidgetType     `json:"type"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	Icon            string         `json:"icon"`
	DefaultSize     Size           `json:"defaultSize"`
	DefaultSettings WidgetSettings `json:"defaultSettings"`
}

// definitions is built once and never mutated; Lookup and AllDefinitions hand out copies.
var definitions = []WidgetDefinition{
	{
		Type:        WidgetTypeGitHubPRs,
		Name:        "GitHub PRs",
		Description: "Track pull requests, review requests, and drafts",
		Icon:        "🔔",
		DefaultSize: Size{Width: 2, Height: 2},
		DefaultSettings: GitHubPRSettings{
			AccountIDs: []string{},
			FilterMode: PRFilterModeForm,
			FormFilters: GitHubFormFilters{
				PRTypes: []PRType{PRTypeReviewRequested},
				States:  []string{"open"},
				Teams:   []string{},
				Repos:   []string{},
				Labels:  []string{},
			},
			RawQuery:        "type:pr state:open review-requested:@me",
			ShowBuildStatus: true,
			SortBy:          PRSortUpdated,
		},
	},
	{
		Type:            WidgetTypeBookmark,
		Name:            "Bookmark",
		Description:     "Quick link to any URL",
		Icon:            "🔗",
		DefaultSize:     Size{Width: 1, Height: 1},
		DefaultSettings: BookmarkSettings{},
	},
	{
		Type:        WidgetTypeTabGroups,
		Name:        "Tab Groups",
		Description: "View and manage tabs grouped by domain",
		Icon:        "📑",
		DefaultSize: Size{Width: 2, Height: 2},
		DefaultSettings: TabGroupsSettings{
			ShowBookmarks: true,
			GroupByDomain: true,
		},
	},
}

// LookupDefinition returns the definition of t. ok is false only for a type outside the closed set.
func LookupDefinition(t WidgetType) (WidgetDefinition, bool) {
	for _, d := range definitions {
		if d.Type == t {
			return d.clone(), true
		}
	}
	return WidgetDefinition{}, false
}

// AllDefinitions lists every widget type in declaration order for the gallery
func AllDefinitions() []WidgetDefinition {
	out := make([]WidgetDefinition, 0, len(definitions))
	for _, d := range definitions {
		out = append(out, d.clone())
	}
	return out
}

func (d WidgetDefinition) clone() WidgetDefinition {
	d.DefaultSettings = CloneSettings(d.DefaultSettings)
	return d
}
