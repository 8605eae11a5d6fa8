// Package series defines the count-series value types shared by the event
// replay, timeline and persistence layers: scopes, signed deltas, daily
// series and the backfill wire payload.
package series

import "time"

// ScopeKind identifies which metric a count belongs to.
type ScopeKind int

const (
	// KindAllIssues counts every open issue regardless of label
	KindAllIssues ScopeKind = iota
	// KindPullRequests counts open pull requests
	KindPullRequests
	// KindStars counts stargazers
	KindStars
	// KindLabel counts open issues carrying one specific label
	KindLabel
)

// Scope tags a count with the metric it belongs to. Labels are carried
// explicitly rather than as sentinel strings so a label literally named
// "all issues" cannot collide with the aggregate metric.
type Scope struct {
	Kind  ScopeKind
	Label string // set iff Kind == KindLabel
}

// AllIssues is the scope of the aggregate open-issue count.
func AllIssues() Scope { return Scope{Kind: KindAllIssues} }

// PullRequests is the scope of the open-pull-request count.
func PullRequests() Scope { return Scope{Kind: KindPullRequests} }

// Stars is the scope of the stargazer count.
func Stars() Scope { return Scope{Kind: KindStars} }

// ForLabel is the scope of the open-issue count for one label.
func ForLabel(name string) Scope { return Scope{Kind: KindLabel, Label: name} }

// Delta is a single signed change to one scope's count at a point in time.
type Delta struct {
	Time  time.Time
	Scope Scope
	Delta int // +1 or -1
}

// Point is one day of a daily series. Date is YYYY-MM-DD.
type Point struct {
	Date  string
	Count int
}

// Daily is a gap-free, date-ordered daily series for one scope.
type Daily []Point
