package domain

import "time"

// GitHubUser is the normalized /user response
type GitHubUser struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// BuildStatus is the combined commit status of a pull request head
type BuildStatus string

const (
	BuildStatusUnknown BuildStatus = ""
	BuildStatusSuccess BuildStatus = "success"
	BuildStatusPending BuildStatus = "pending"
	BuildStatusFailure BuildStatus = "failure"
	BuildStatusError   BuildStatus = "error"
)

// PullRequest is a search hit normalized for display
type PullRequest struct {
	AccountID   string
	Number      int
	Title       string
	HTMLURL     string
	APIURL      string
	Owner       string
	Repo        string
	Author      string
	State       string // open | closed
	Draft       bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	BuildStatus BuildStatus
}

// Status is the short label rendered on the right of a row
func (p PullRequest) Status() (label, color string) {
	switch p.BuildStatus {
	case BuildStatusSuccess:
		return "passing", "#1a7f37"
	case BuildStatusPending:
		return "pending", "#9a6700"
	case BuildStatusFailure, BuildStatusError:
		return "failing", "#cf222e"
	}
	if p.Draft {
		return "draft", "#6e7781"
	}
	if p.State == "closed" {
		return "closed", "#8250df"
	}
	return "open", "#1a7f37"
}
