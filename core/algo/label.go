package algo

import (
	"time"

	"github.com/huangsam/repopulse/schema"
)

// Label layouts per granularity.
const (
	dailyLayout   = "2006-01-02"
	monthlyLayout = "2006-01"
)

// FormatLabel renders an as-of date for granularity g: ISO date for daily,
// YYYY-MM for monthly and the integer year for yearly.
func FormatLabel(t time.Time, g schema.Granularity) schema.Label {
	switch g {
	case schema.Daily:
		return schema.Label{Text: t.Format(dailyLayout)}
	case schema.Yearly:
		return schema.Label{Year: t.Year(), IsYear: true}
	default:
		return schema.Label{Text: t.Format(monthlyLayout)}
	}
}

// Tabulate labels classified rows and wraps them in a status table for page p.
func Tabulate(p schema.Page, g schema.Granularity, rows []schema.StatusRow) schema.StatusTable {
	for i := range rows {
		rows[i].Label = FormatLabel(rows[i].Date, g)
	}
	return schema.StatusTable{
		Page:        p,
		Granularity: g,
		Buckets:     schema.PageBuckets[p],
		Rows:        rows,
	}
}
