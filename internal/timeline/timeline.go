// Package timeline turns merged count deltas into gap-free daily series, one
// cumulative value per calendar day from the earliest event to a cutoff.
package timeline

import (
	"time"

	"github.com/alan/repo-tracker/internal/series"
)

// dateFormat is the YYYY-MM-DD layout used for all series dates.
const dateFormat = "2006-01-02"

// Result groups the built series: the aggregate scope separately from the
// per-label scopes, which is how every caller wants them.
type Result struct {
	All     series.Daily
	ByLabel map[string]series.Daily
}

// Build buckets deltas by effective date and accumulates them into one daily
// series per scope, covering every calendar day from the earliest delta's
// date through the date of asOf, with no gaps.
//
// The effective date of a delta is the day after the event: an event during
// day D must not change the count reported for D, because D may still be in
// progress. For the same reason, deltas whose effective date has not yet
// passed relative to asOf are dropped rather than applied to the cutoff day.
//
// Counts are not clamped. A running total below zero means the input data is
// inconsistent (typically an unlabeled event whose labeled counterpart was
// renamed away) and the negative value is the operator's signal to fix the
// rename map.
func Build(deltas []series.Delta, asOf time.Time) Result {
	result := Result{ByLabel: make(map[string]series.Daily)}
	if len(deltas) == 0 {
		return result
	}

	first := FindFirstDate(deltas)
	lastDate := asOf.UTC().Format(dateFormat)
	dates := AllDates(first.UTC().Format(dateFormat), asOf)

	// Bucket by scope and effective date. Scopes whose deltas all fall
	// outside the window still get a (flat zero) series, matching what a
	// caller replacing old rows expects.
	buckets := make(map[series.Scope]map[string]int)
	for _, d := range deltas {
		if buckets[d.Scope] == nil {
			buckets[d.Scope] = make(map[string]int)
		}
		effective := NextDate(d.Time)
		if effective >= lastDate {
			continue
		}
		buckets[d.Scope][effective] += d.Delta
	}

	for scope, byDate := range buckets {
		daily := make(series.Daily, 0, len(dates))
		total := 0
		for _, date := range dates {
			total += byDate[date]
			daily = append(daily, series.Point{Date: date, Count: total})
		}
		if scope.Kind == series.KindLabel {
			result.ByLabel[scope.Label] = daily
		} else {
			result.All = daily
		}
	}

	return result
}

// FindFirstDate returns the timestamp of the earliest delta.
func FindFirstDate(deltas []series.Delta) time.Time {
	first := deltas[0].Time
	for _, d := range deltas[1:] {
		if d.Time.Before(first) {
			first = d.Time
		}
	}
	return first
}

// NextDate returns the calendar date (YYYY-MM-DD, UTC) of the day after the
// given instant. This is the effective date of a delta occurring at t.
func NextDate(t time.Time) string {
	return t.UTC().AddDate(0, 0, 1).Format(dateFormat)
}

// AllDates returns every calendar date from start (YYYY-MM-DD) through the
// date of last, inclusive and consecutive.
func AllDates(start string, last time.Time) []string {
	day, err := time.Parse(dateFormat, start)
	if err != nil {
		return nil
	}
	lastDate := last.UTC().Format(dateFormat)

	var dates []string
	for {
		d := day.Format(dateFormat)
		if d > lastDate {
			break
		}
		dates = append(dates, d)
		day = day.AddDate(0, 0, 1)
	}
	return dates
}
