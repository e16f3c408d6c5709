// Package algo holds the cohort classification algorithms: the as-of date
// axis, calendar-aware window arithmetic and the per-date bucket counters.
package algo

import (
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/repopulse/schema"
)

// ErrInvalidAxis is returned when an axis is requested with earliest > latest
// or with an unknown granularity.
var ErrInvalidAxis = errors.New("invalid axis")

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths shifts t by n calendar months. Unlike time.AddDate it clamps the
// day to the end of the target month, so Mar 31 - 1 month is Feb 28 (or 29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + n
	year := y + total/12
	month := total % 12
	if month < 0 {
		month += 12
		year--
	}
	target := time.Month(month + 1)
	if last := daysIn(year, target); d > last {
		d = last
	}
	return time.Date(year, target, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// SubMonths returns t minus n calendar months with month-end clamping.
func SubMonths(t time.Time, n int) time.Time {
	return AddMonths(t, -n)
}

// SubDays returns t minus n days.
func SubDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, -n)
}

// step returns the k-th axis point after anchor for granularity g.
func step(anchor time.Time, k int, g schema.Granularity) time.Time {
	switch g {
	case schema.Daily:
		return anchor.AddDate(0, 0, k)
	case schema.Yearly:
		return AddMonths(anchor, 12*k)
	default:
		return AddMonths(anchor, k)
	}
}

// BuildAxis returns the as-of dates earliest, earliest+1 unit, ... and ends on
// latest. When latest falls in the same period as the last step, it takes
// that step's place, unless the step is earliest itself. Points are in UTC.
// Each step is computed from the anchor, never from the previous point, so
// month-end anchors survive short months.
func BuildAxis(earliest, latest time.Time, g schema.Granularity) ([]time.Time, error) {
	if _, ok := schema.ValidGranularities[g]; !ok {
		return nil, fmt.Errorf("%w: unknown granularity %q", ErrInvalidAxis, g)
	}
	anchor := earliest.UTC()
	end := latest.UTC()
	if anchor.After(end) {
		return nil, fmt.Errorf("%w: earliest %s is after latest %s", ErrInvalidAxis,
			earliest.Format(time.RFC3339), latest.Format(time.RFC3339))
	}

	var axis []time.Time
	for k := 0; ; k++ {
		p := step(anchor, k, g)
		if p.After(end) {
			break
		}
		axis = append(axis, p)
	}

	last := len(axis) - 1
	switch {
	case axis[last].Equal(end):
	case FormatLabel(axis[last], g).String() != FormatLabel(end, g).String():
		axis = append(axis, end)
	case last > 0:
		axis[last] = end
	}
	return axis, nil
}
