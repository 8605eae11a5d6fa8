package replay

import (
	"log/slog"
	"sort"

	"github.com/alan/repo-tracker/internal/series"
)

// Options controls extraction for one issue.
type Options struct {
	// TrackLabels emits per-label deltas in addition to the aggregate count.
	TrackLabels bool
	// Renames maps historical label names to their current name. The tracker
	// does not record label renames as events, so without this map old
	// labeled/unlabeled events attribute to a name that no longer exists.
	Renames map[string]string
}

// Extract replays an issue's lifecycle history and returns the chronological
// list of signed count deltas it implies. The first delta is always the
// creation (+1 on the aggregate scope). Extract is metric-agnostic: it does
// not care whether the issue is a pull request, callers split those upstream.
//
// Events are stably sorted by timestamp before replay. The upstream API
// delivers them in order, but that is an assumption, not a guarantee.
func Extract(issue RawIssue, opts Options) []series.Delta {
	deltas := []series.Delta{{Time: issue.CreatedAt, Scope: series.AllIssues(), Delta: +1}}

	events := make([]RawEvent, len(issue.Events))
	copy(events, issue.Events)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})

	if ev, ok := syntheticClose(issue, events); ok {
		events = append(events, ev)
	}

	labels := newLabelSet()
	isOpen := true

	for _, ev := range events {
		switch ev.Type {
		case EventLabeled:
			label := renamed(ev.Label, opts.Renames)
			labels.add(label)
			if isOpen && opts.TrackLabels {
				deltas = append(deltas, series.Delta{Time: ev.CreatedAt, Scope: series.ForLabel(label), Delta: +1})
			}
		case EventUnlabeled:
			label := renamed(ev.Label, opts.Renames)
			if !labels.remove(label) {
				slog.Warn("Unlabeled event for a label never added",
					"issue", issue.Number, "label", label)
			}
			if isOpen && opts.TrackLabels {
				deltas = append(deltas, series.Delta{Time: ev.CreatedAt, Scope: series.ForLabel(label), Delta: -1})
			}
		case EventClosed:
			isOpen = false
			// Most-recently-added labels come off first, with the aggregate
			// last: the exact mirror of the open ordering, which keeps
			// same-timestamp deltas deterministic downstream.
			if opts.TrackLabels {
				for _, label := range labels.reversed() {
					deltas = append(deltas, series.Delta{Time: ev.CreatedAt, Scope: series.ForLabel(label), Delta: -1})
				}
			}
			deltas = append(deltas, series.Delta{Time: ev.CreatedAt, Scope: series.AllIssues(), Delta: -1})
		case EventReopened:
			isOpen = true
			deltas = append(deltas, series.Delta{Time: ev.CreatedAt, Scope: series.AllIssues(), Delta: +1})
			if opts.TrackLabels {
				for _, label := range labels.ordered() {
					deltas = append(deltas, series.Delta{Time: ev.CreatedAt, Scope: series.ForLabel(label), Delta: +1})
				}
			}
		}
	}

	if opts.TrackLabels {
		checkLabelConsistency(issue, labels)
	}

	return deltas
}

// syntheticClose detects issues whose final state is closed but whose event
// log never says so. Closing predates the tracker's event log, so old issues
// are missing the event; fabricate one at the recorded close time.
func syntheticClose(issue RawIssue, events []RawEvent) (RawEvent, bool) {
	isOpen := true
	for _, ev := range events {
		switch ev.Type {
		case EventClosed:
			isOpen = false
		case EventReopened:
			isOpen = true
		}
	}
	if !isOpen || issue.State != "closed" {
		return RawEvent{}, false
	}

	closedAt := issue.CreatedAt
	if issue.ClosedAt != nil {
		closedAt = *issue.ClosedAt
	}
	return RawEvent{Type: EventClosed, CreatedAt: closedAt}, true
}

// checkLabelConsistency compares the replayed label set against the issue's
// current labels. A mismatch usually means the rename map is incomplete; it
// is logged and otherwise ignored.
func checkLabelConsistency(issue RawIssue, labels *labelSet) {
	computed := labels.ordered()
	if len(computed) != len(issue.Labels) {
		logMismatch(issue, computed)
		return
	}
	current := make(map[string]bool, len(issue.Labels))
	for _, l := range issue.Labels {
		current[l] = true
	}
	for _, l := range computed {
		if !current[l] {
			logMismatch(issue, computed)
			return
		}
	}
}

func logMismatch(issue RawIssue, computed []string) {
	slog.Warn("Label mismatch after replay; the label rename map may be incomplete",
		"issue", issue.Number, "computed", computed, "current", issue.Labels)
}

func renamed(label string, renames map[string]string) string {
	if current, ok := renames[label]; ok {
		return current
	}
	return label
}

// labelSet is a string set that remembers insertion order, so close/reopen
// events can emit per-label deltas deterministically.
type labelSet struct {
	order   []string
	present map[string]bool
}

func newLabelSet() *labelSet {
	return &labelSet{present: make(map[string]bool)}
}

func (s *labelSet) add(label string) {
	if s.present[label] {
		return
	}
	s.present[label] = true
	s.order = append(s.order, label)
}

// remove drops a label and reports whether it was present.
func (s *labelSet) remove(label string) bool {
	if !s.present[label] {
		return false
	}
	delete(s.present, label)
	for i, l := range s.order {
		if l == label {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *labelSet) ordered() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *labelSet) reversed() []string {
	out := make([]string, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.order[i])
	}
	return out
}
