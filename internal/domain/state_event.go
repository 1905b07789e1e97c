package domain

// StateEventKind names a change of the in-memory application state
type StateEventKind string

const (
	EventWidgetsLoaded      StateEventKind = "widgets.loaded"
	EventWidgetAdded        StateEventKind = "widget.added"
	EventWidgetUpdated      StateEventKind = "widget.updated"
	EventWidgetRemoved      StateEventKind = "widget.removed"
	EventWidgetsReordered   StateEventKind = "widgets.reordered"
	EventIntegrationsLoaded StateEventKind = "integrations.loaded"
	EventIntegrationAdded   StateEventKind = "integration.added"
	EventIntegrationUpdated StateEventKind = "integration.updated"
	EventIntegrationRemoved StateEventKind = "integration.removed"
	EventWidgetDataChanged  StateEventKind = "widget-data.changed"
	EventUIStateChanged     StateEventKind = "ui.changed"
	EventTabGroupsChanged   StateEventKind = "tab-groups.changed"
)

// StateEvent tells subscribers what changed; they re-read the state they need.
// ID is the widget or integration id when the change concerns one record.
type StateEvent struct {
	Kind StateEventKind `json:"kind"`
	ID   string         `json:"id,omitempty"`
}
