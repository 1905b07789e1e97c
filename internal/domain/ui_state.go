package domain

// SettingsTab identifies the open page of the settings panel
type SettingsTab string

const (
	SettingsTabGeneral      SettingsTab = "general"
	SettingsTabIntegrations SettingsTab = "integrations"
)

// Valid reports whether t is a known settings tab
func (t SettingsTab) Valid() bool {
	return t == SettingsTabGeneral || t == SettingsTabIntegrations
}

// UIState holds presentation flags. It lives in memory only.
type UIState struct {
	EditMode     bool        `json:"editMode"`
	SettingsOpen bool        `json:"settingsOpen"`
	SettingsTab  SettingsTab `json:"settingsTab"`
}

// DefaultUIState is the state of a freshly opened panel
func DefaultUIState() UIState {
	return UIState{SettingsTab: SettingsTabGeneral}
}
