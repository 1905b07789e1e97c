package domain

import (
	"slices"
	"time"
)

// WidgetDataItem is one display row of a widget (a pull request, a link, ...)
type WidgetDataItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Subtitle    string `json:"subtitle,omitempty"`
	Status      string `json:"status,omitempty"`
	StatusColor string `json:"statusColor,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// WidgetData is the runtime content of a widget. It is never persisted.
type WidgetData struct {
	Items       []WidgetDataItem `json:"items"`
	Loading     bool             `json:"loading"`
	Error       string           `json:"error,omitempty"`
	LastUpdated *time.Time       `json:"lastUpdated,omitempty"`
}

// Clone returns a copy that does not share the items slice
func (d WidgetData) Clone() WidgetData {
	out := d
	out.Items = slices.Clone(d.Items)
	if out.Items == nil {
		out.Items = []WidgetDataItem{}
	}
	if d.LastUpdated != nil {
		t := *d.LastUpdated
		out.LastUpdated = &t
	}
	return out
}
