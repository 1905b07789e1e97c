package domain

import (
	"net/url"
	"sort"
)

// FallbackTabGroup collects tabs whose URL has no parseable hostname
// (about:blank, data: URLs, malformed strings). It always sorts last.
const FallbackTabGroup = "other"

// Tab is an open browser tab as reported by the extension
type Tab struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	FavIconURL string `json:"favIconUrl,omitempty"`
}

// TabGroup is the set of open tabs sharing a hostname
type TabGroup struct {
	Domain string `json:"domain"`
	Tabs   []Tab  `json:"tabs"`
}

// TabEventKind names the browser tab notifications that trigger regrouping
type TabEventKind string

const (
	TabCreated TabEventKind = "created"
	TabRemoved TabEventKind = "removed"
	TabUpdated TabEventKind = "updated"
)

// TabEvent is a single tab notification
type TabEvent struct {
	Kind TabEventKind `json:"kind"`
	Tab  Tab          `json:"tab"`
}

// TabHostname extracts the grouping key of a tab URL
func TabHostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return FallbackTabGroup
	}
	return u.Hostname()
}

// GroupTabsByHostname groups tabs by hostname, sorted ascending with the fallback group last.
// Tabs without a URL or id are skipped; untitled tabs get "Untitled".
func GroupTabsByHostname(tabs []Tab) []TabGroup {
	index := map[string]int{}
	var groups []TabGroup
	for _, t := range tabs {
		if t.URL == "" || t.ID == 0 {
			continue
		}
		if t.Title == "" {
			t.Title = "Untitled"
		}
		host := TabHostname(t.URL)
		i, ok := index[host]
		if !ok {
			i = len(groups)
			index[host] = i
			groups = append(groups, TabGroup{Domain: host})
		}
		groups[i].Tabs = append(groups[i].Tabs, t)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		ga, gb := groups[a].Domain, groups[b].Domain
		if ga == FallbackTabGroup || gb == FallbackTabGroup {
			return gb == FallbackTabGroup && ga != FallbackTabGroup
		}
		return ga < gb
	})
	if groups == nil {
		groups = []TabGroup{}
	}
	return groups
}
