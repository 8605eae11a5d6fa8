// Package replay converts one issue's raw lifecycle history into the signed
// count deltas that drive daily open-issue and per-label series.
package replay

import "time"

// EventType is the lifecycle event kind as reported by the issue tracker.
type EventType string

const (
	// EventLabeled records a label being added to the issue
	EventLabeled EventType = "labeled"
	// EventUnlabeled records a label being removed from the issue
	EventUnlabeled EventType = "unlabeled"
	// EventClosed records the issue being closed
	EventClosed EventType = "closed"
	// EventReopened records a closed issue being reopened
	EventReopened EventType = "reopened"
)

// RawEvent is one lifecycle event. Label is set iff Type is labeled or
// unlabeled. Event types other than the four above pass through here and are
// ignored by Extract.
type RawEvent struct {
	Type      EventType `json:"event"`
	CreatedAt time.Time `json:"created_at"`
	Label     string    `json:"label,omitempty"`
}

// RawIssue is the immutable input record for one issue or pull request, as
// fetched from the tracker API (and round-tripped through the disk cache).
// Labels holds the issue's current label set; Events holds the recorded
// lifecycle history, assumed chronological but not guaranteed complete.
type RawIssue struct {
	Number      int        `json:"number"`
	State       string     `json:"state"` // "open" or "closed"
	CreatedAt   time.Time  `json:"created_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	Labels      []string   `json:"labels"`
	Events      []RawEvent `json:"events"`
	PullRequest bool       `json:"pull_request,omitempty"`
}
