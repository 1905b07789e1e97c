package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// WidgetType is the closed set of tiles the dashboard can show
type WidgetType string

const (
	WidgetTypeGitHubPRs WidgetType = "github-prs"
	WidgetTypeBookmark  WidgetType = "bookmark"
	WidgetTypeTabGroups WidgetType = "tab-groups"
)

// WidgetTypes lists the closed set in declaration order
var WidgetTypes = []WidgetType{WidgetTypeGitHubPRs, WidgetTypeBookmark, WidgetTypeTabGroups}

// Valid reports whether t belongs to the closed set
func (t WidgetType) Valid() bool {
	switch t {
	case WidgetTypeGitHubPRs, WidgetTypeBookmark, WidgetTypeTabGroups:
		return true
	default:
		return false
	}
}

// Position is a 0-based grid coordinate; Y is the primary ordering key
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Size is measured in grid units (1-4 each way)
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Widget is a configured dashboard tile
type Widget struct {
	ID        string
	Type      WidgetType
	Name      string
	Position  Position
	Size      Size
	Enabled   bool
	Collapsed bool
	CreatedAt time.Time
	Settings  WidgetSettings
}

// Validate enforces the closed type set and the type/settings pairing
func (w Widget) Validate() error {
	if strings.TrimSpace(w.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidWidget)
	}
	if !w.Type.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidWidget, ErrUnknownWidgetType, w.Type)
	}
	if w.Settings == nil {
		return fmt.Errorf("%w: widget %s has no settings", ErrInvalidWidget, w.ID)
	}
	if w.Settings.WidgetType() != w.Type {
		return fmt.Errorf("%w: %w: %s widget carries %s settings", ErrInvalidWidget, ErrSettingsMismatch, w.Type, w.Settings.WidgetType())
	}
	return nil
}

// Clone returns a deep copy of the widget
func (w Widget) Clone() Widget {
	out := w
	out.Settings = CloneSettings(w.Settings)
	return out
}

// GitHubPRSettings returns the github-prs payload when the widget has that type
func (w Widget) GitHubPRSettings() (GitHubPRSettings, bool) {
	s, ok := w.Settings.(GitHubPRSettings)
	return s, ok && w.Type == WidgetTypeGitHubPRs
}

// BookmarkSettings returns the bookmark payload when the widget has that type
func (w Widget) BookmarkSettings() (BookmarkSettings, bool) {
	s, ok := w.Settings.(BookmarkSettings)
	return s, ok && w.Type == WidgetTypeBookmark
}

// TabGroupsSettings returns the tab-groups payload when the widget has that type
func (w Widget) TabGroupsSettings() (TabGroupsSettings, bool) {
	s, ok := w.Settings.(TabGroupsSettings)
	return s, ok && w.Type == WidgetTypeTabGroups
}

// WidgetPatch is a partial update; nil fields are left untouched.
// The widget type is immutable so there is no Type field.
type WidgetPatch struct {
	Name      *string
	Position  *Position
	Size      *Size
	Enabled   *bool
	Collapsed *bool
	Settings  WidgetSettings
}

// ApplyWidgetPatch merges p into w. Both the store and the in-memory projection use it.
func ApplyWidgetPatch(w Widget, p WidgetPatch) (Widget, error) {
	out := w.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Position != nil {
		out.Position = *p.Position
	}
	if p.Size != nil {
		out.Size = *p.Size
	}
	if p.Enabled != nil {
		out.Enabled = *p.Enabled
	}
	if p.Collapsed != nil {
		out.Collapsed = *p.Collapsed
	}
	if p.Settings != nil {
		if p.Settings.WidgetType() != w.Type {
			return w, fmt.Errorf("%w: %s widget cannot take %s settings", ErrSettingsMismatch, w.Type, p.Settings.WidgetType())
		}
		out.Settings = CloneSettings(p.Settings)
	}
	return out, nil
}

// ReorderWidgets returns widgets in the order of ids with Y set to the index and X reset to 0.
// Unknown ids are skipped and widgets missing from ids are dropped, so callers
// must pass the complete id set.
func ReorderWidgets(widgets []Widget, ids []string) []Widget {
	byID := make(map[string]Widget, len(widgets))
	for _, w := range widgets {
		byID[w.ID] = w
	}
	out := make([]Widget, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		w, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		w = w.Clone()
		w.Position = Position{X: 0, Y: len(out)}
		out = append(out, w)
	}
	return out
}

// SortByPosition orders widgets for display: by Y, then X, then creation time
func SortByPosition(widgets []Widget) {
	sort.SliceStable(widgets, func(a, b int) bool {
		pa, pb := widgets[a].Position, widgets[b].Position
		if pa.Y != pb.Y {
			return pa.Y < pb.Y
		}
		if pa.X != pb.X {
			return pa.X < pb.X
		}
		return widgets[a].CreatedAt.Before(widgets[b].CreatedAt)
	})
}

// FindWidget returns the widget with id from list
func FindWidget(list []Widget, id string) (Widget, bool) {
	for _, w := range list {
		if w.ID == id {
			return w, true
		}
	}
	return Widget{}, false
}
