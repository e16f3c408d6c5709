// Package schema holds the shared data types for repopulse: raw cached tables,
// typed event rows, status tables and page results.
package schema

import "time"

// RawTable is a cached query result: ordered column names and rows of nullable
// string cells. It mirrors the dataframes the upstream query layer produces.
type RawTable struct {
	Columns []string    `json:"columns"`
	Rows    [][]*string `json:"rows"`
}

// Len returns the number of rows.
func (t RawTable) Len() int {
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t RawTable) Empty() bool {
	return len(t.Rows) == 0
}

// ColumnIndex returns the position of the first column matching any of the
// given names, or -1 when none is present.
func (t RawTable) ColumnIndex(names ...string) int {
	for _, name := range names {
		for i, c := range t.Columns {
			if c == name {
				return i
			}
		}
	}
	return -1
}

// Append concatenates other onto t. Columns of other are matched by name; cells
// for columns missing from other are null.
func (t RawTable) Append(other RawTable) RawTable {
	if len(t.Columns) == 0 {
		return other
	}
	mapping := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		mapping[i] = other.ColumnIndex(c)
	}
	out := RawTable{Columns: t.Columns, Rows: append([][]*string{}, t.Rows...)}
	for _, row := range other.Rows {
		merged := make([]*string, len(t.Columns))
		for i, j := range mapping {
			if j >= 0 && j < len(row) {
				merged[i] = row[j]
			}
		}
		out.Rows = append(out.Rows, merged)
	}
	return out
}

// Cell returns a pointer to s, for building RawTable rows.
func Cell(s string) *string {
	return &s
}

// ContributionEvent is one contribution by a contributor.
type ContributionEvent struct {
	ContributorID string
	Created       time.Time
}

// IssueEvent is the lifecycle of one issue. Closed is nil while the issue is open.
type IssueEvent struct {
	IssueID string
	Created time.Time
	Closed  *time.Time
}

// IssueResponseEvent is one issue joined with one of its messages. Message
// fields are nil for issues without messages.
type IssueResponseEvent struct {
	RepoID          string
	IssueID         string
	AuthorID        string
	Created         time.Time
	Closed          *time.Time
	MessageAuthorID *string
	MessageTime     *time.Time
}

// IssueFirstResponse is an issue with the time of its earliest message from
// someone other than its author. FirstResponse is nil when nobody responded.
type IssueFirstResponse struct {
	RepoID        string
	IssueID       string
	Created       time.Time
	Closed        *time.Time
	FirstResponse *time.Time
}
