package schema

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Label is a formatted as-of date label. Yearly labels hold an integer year
// and encode as a JSON number; other labels encode as strings.
type Label struct {
	Text   string
	Year   int
	IsYear bool
}

// String returns the label text.
func (l Label) String() string {
	if l.IsYear {
		return strconv.Itoa(l.Year)
	}
	return l.Text
}

// MarshalJSON encodes yearly labels as numbers.
func (l Label) MarshalJSON() ([]byte, error) {
	if l.IsYear {
		return []byte(strconv.Itoa(l.Year)), nil
	}
	return json.Marshal(l.Text)
}

// UnmarshalJSON decodes numbers as yearly labels and strings as text labels.
func (l *Label) UnmarshalJSON(data []byte) error {
	if year, err := strconv.Atoi(string(data)); err == nil {
		*l = Label{Year: year, IsYear: true}
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	*l = Label{Text: text}
	return nil
}

// StatusRow holds the bucket counts for one as-of date.
type StatusRow struct {
	Date   time.Time `json:"date"`
	Label  Label     `json:"label"`
	Counts []int     `json:"counts"`
}

// Count returns the count for bucket b, or 0 when the row lacks it.
func (r StatusRow) Count(buckets []Bucket, b Bucket) int {
	for i, name := range buckets {
		if name == b && i < len(r.Counts) {
			return r.Counts[i]
		}
	}
	return 0
}

// StatusTable is the time-bucketed result of one page.
type StatusTable struct {
	Page        Page        `json:"page"`
	Granularity Granularity `json:"granularity"`
	Buckets     []Bucket    `json:"buckets"`
	Rows        []StatusRow `json:"rows"`
}

// PageRequest carries the reactive inputs of one page invocation. Thresholds
// are nil until the caller supplies them.
type PageRequest struct {
	Repos       []string
	Granularity Granularity

	// ShortThreshold and LongThreshold hold the two interval thresholds of the
	// drift (months) and staleness (days) pages. The response page reads only
	// ShortThreshold (days).
	ShortThreshold *int
	LongThreshold  *int

	FilterBots bool
	Bots       []string
}

// PageResult is the outcome of one page invocation.
type PageResult struct {
	Outcome Outcome      `json:"outcome"`
	Table   *StatusTable `json:"table,omitempty"`
	Alert   bool         `json:"alert"`
}

// PollPolicy governs how the cache poller waits for data.
type PollPolicy struct {
	Interval    time.Duration // wait between checks
	MaxInterval time.Duration // cap when Multiplier > 1
	Multiplier  float64       // 1 keeps a constant interval
	Timeout     time.Duration // 0 waits until the context is cancelled
}

// CacheStatus represents the current status of the result cache.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// RunRecord describes one completed page invocation.
type RunRecord struct {
	ID          uuid.UUID     `json:"id"`
	Page        Page          `json:"page"`
	Repos       []string      `json:"repos"`
	Granularity Granularity   `json:"granularity"`
	Outcome     Outcome       `json:"outcome"`
	Rows        int           `json:"rows"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
}

// PageOutput pairs a page with its result for output writers.
type PageOutput struct {
	Page   Page       `json:"page"`
	Result PageResult `json:"result"`
}
