package algo

import (
	"slices"
	"time"

	"github.com/huangsam/repopulse/schema"
)

// ClassifyDrift counts contributors per as-of date into Active, Drifting and
// Away. Each contributor is represented by its latest contribution on or
// before the date. A contribution on or after d - driftMonths is Active, one
// strictly between d - awayMonths and d - driftMonths is Drifting, and the
// rest are Away. The caller guarantees driftMonths < awayMonths.
func ClassifyDrift(events []schema.ContributionEvent, axis []time.Time, driftMonths, awayMonths int) []schema.StatusRow {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b schema.ContributionEvent) int {
		return a.Created.Compare(b.Created)
	})

	latest := make(map[string]time.Time)
	rows := make([]schema.StatusRow, 0, len(axis))
	next := 0
	for _, d := range axis {
		for next < len(sorted) && !sorted[next].Created.After(d) {
			latest[sorted[next].ContributorID] = sorted[next].Created
			next++
		}

		driftCut := SubMonths(d, driftMonths)
		awayCut := SubMonths(d, awayMonths)
		var active, drifting int
		for _, created := range latest {
			switch {
			case !created.Before(driftCut):
				active++
			case created.After(awayCut):
				drifting++
			}
		}
		away := len(latest) - active - drifting
		rows = append(rows, schema.StatusRow{Date: d, Counts: []int{active, drifting, away}})
	}
	return rows
}

// ClassifyStaleness counts issues still open on each as-of date into New,
// Staling and Stale. An issue is open on d when it was created on or before d
// and is unclosed or closed after d. An issue created on or after
// d - stalingDays is New, one strictly between d - staleDays and
// d - stalingDays is Staling, and the rest are Stale. The caller guarantees
// stalingDays < staleDays.
func ClassifyStaleness(events []schema.IssueEvent, axis []time.Time, stalingDays, staleDays int) []schema.StatusRow {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b schema.IssueEvent) int {
		return a.Created.Compare(b.Created)
	})

	rows := make([]schema.StatusRow, 0, len(axis))
	for _, d := range axis {
		stalingCut := SubDays(d, stalingDays)
		staleCut := SubDays(d, staleDays)
		var total, fresh, staling int
		for _, e := range sorted {
			if e.Created.After(d) {
				break
			}
			if e.Closed != nil && !e.Closed.After(d) {
				continue
			}
			total++
			switch {
			case !e.Created.Before(stalingCut):
				fresh++
			case e.Created.After(staleCut):
				staling++
			}
		}
		stale := total - fresh - staling
		rows = append(rows, schema.StatusRow{Date: d, Counts: []int{fresh, staling, stale}})
	}
	return rows
}

// ClassifyResponse counts, per as-of date, the issues open on that date and
// the subset of those whose first response arrived strictly within
// responseDays of creation.
func ClassifyResponse(issues []schema.IssueFirstResponse, axis []time.Time, responseDays int) []schema.StatusRow {
	rows := make([]schema.StatusRow, 0, len(axis))
	for _, d := range axis {
		var open, responded int
		for _, is := range issues {
			if is.Created.After(d) {
				continue
			}
			if is.Closed != nil && !is.Closed.After(d) {
				continue
			}
			open++
			if is.FirstResponse != nil && is.FirstResponse.Before(is.Created.AddDate(0, 0, responseDays)) {
				responded++
			}
		}
		rows = append(rows, schema.StatusRow{Date: d, Counts: []int{open, responded}})
	}
	return rows
}

// issueKey identifies an issue across repositories.
type issueKey struct {
	repo, issue string
}

// FirstResponses collapses issue/message rows into one row per issue of a
// repository, keeping the earliest message not written by the issue author.
// Issues keep the order of their first appearance. Issues whose only
// messages are self-responses keep a nil FirstResponse.
func FirstResponses(events []schema.IssueResponseEvent) []schema.IssueFirstResponse {
	index := make(map[issueKey]int)
	var out []schema.IssueFirstResponse
	for _, e := range events {
		key := issueKey{repo: e.RepoID, issue: e.IssueID}
		i, seen := index[key]
		if !seen {
			i = len(out)
			index[key] = i
			out = append(out, schema.IssueFirstResponse{
				RepoID:  e.RepoID,
				IssueID: e.IssueID,
				Created: e.Created,
				Closed:  e.Closed,
			})
		}
		if e.MessageTime == nil {
			continue
		}
		if e.MessageAuthorID != nil && *e.MessageAuthorID == e.AuthorID {
			continue
		}
		if cur := out[i].FirstResponse; cur == nil || e.MessageTime.Before(*cur) {
			t := *e.MessageTime
			out[i].FirstResponse = &t
		}
	}
	return out
}

// DriftBounds returns the earliest and latest contribution times. ok is false
// for an empty slice.
func DriftBounds(events []schema.ContributionEvent) (earliest, latest time.Time, ok bool) {
	for i, e := range events {
		if i == 0 || e.Created.Before(earliest) {
			earliest = e.Created
		}
		if i == 0 || e.Created.After(latest) {
			latest = e.Created
		}
	}
	return earliest, latest, len(events) > 0
}

// StalenessBounds returns the earliest creation time and the latest of all
// creation and close times.
func StalenessBounds(events []schema.IssueEvent) (earliest, latest time.Time, ok bool) {
	for i, e := range events {
		earliest, latest = widen(i == 0, earliest, latest, e.Created, e.Closed)
	}
	return earliest, latest, len(events) > 0
}

// ResponseBounds returns the earliest creation time and the latest of all
// creation and close times.
func ResponseBounds(issues []schema.IssueFirstResponse) (earliest, latest time.Time, ok bool) {
	for i, is := range issues {
		earliest, latest = widen(i == 0, earliest, latest, is.Created, is.Closed)
	}
	return earliest, latest, len(issues) > 0
}

func widen(first bool, earliest, latest, created time.Time, closed *time.Time) (time.Time, time.Time) {
	if first || created.Before(earliest) {
		earliest = created
	}
	if first || created.After(latest) {
		latest = created
	}
	if closed != nil && closed.After(latest) {
		latest = *closed
	}
	return earliest, latest
}
