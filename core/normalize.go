package core

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/huangsam/repopulse/schema"
)

// ErrSchema is returned when a cached table lacks a required column.
var ErrSchema = errors.New("cached table schema mismatch")

// timeLayouts are the timestamp layouts accepted in cached tables.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// nullTokens are cell values treated as null.
var nullTokens = []string{"", "NaT", "nan", "NaN", "null", "NULL", "None"}

// columns resolves the position of each required column, trying aliases in order.
type columns struct {
	table schema.RawTable
	idx   []int
}

func resolve(query schema.QueryName, table schema.RawTable, required ...[]string) (columns, error) {
	c := columns{table: table, idx: make([]int, len(required))}
	for i, aliases := range required {
		c.idx[i] = table.ColumnIndex(aliases...)
		if c.idx[i] < 0 {
			return c, fmt.Errorf("%w: %s has no %s column (have %v)", ErrSchema, query, aliases[0], table.Columns)
		}
	}
	return c, nil
}

// cell returns the value of column i in row, or nil when null.
func (c columns) cell(row []*string, i int) *string {
	return rawCell(row, c.idx[i])
}

// rawCell returns the value at position j of row, or nil when null or when
// the column is missing (j < 0).
func rawCell(row []*string, j int) *string {
	if j < 0 || j >= len(row) || row[j] == nil || slices.Contains(nullTokens, *row[j]) {
		return nil
	}
	return row[j]
}

// ParseTime parses a cached timestamp as UTC. Values without a zone are UTC.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("malformed timestamp %q", s)
}

func (c columns) requiredTime(rowNum int, row []*string, i int) (time.Time, error) {
	v := c.cell(row, i)
	if v == nil {
		return time.Time{}, fmt.Errorf("row %d: missing %s", rowNum, c.table.Columns[c.idx[i]])
	}
	t, err := ParseTime(*v)
	if err != nil {
		return time.Time{}, fmt.Errorf("row %d: %w", rowNum, err)
	}
	return t, nil
}

func (c columns) optionalTime(rowNum int, row []*string, i int) (*time.Time, error) {
	v := c.cell(row, i)
	if v == nil {
		return nil, nil
	}
	t, err := ParseTime(*v)
	if err != nil {
		return nil, fmt.Errorf("row %d: %w", rowNum, err)
	}
	return &t, nil
}

func (c columns) text(row []*string, i int) string {
	if v := c.cell(row, i); v != nil {
		return *v
	}
	return ""
}

// ContributionEvents converts a contributors_query table into typed rows.
func ContributionEvents(table schema.RawTable) ([]schema.ContributionEvent, error) {
	c, err := resolve(schema.ContributorsQuery, table,
		[]string{schema.ContributorIDColumn},
		[]string{schema.CreatedAtColumn, schema.CreatedColumn},
	)
	if err != nil {
		return nil, err
	}
	events := make([]schema.ContributionEvent, 0, table.Len())
	for n, row := range table.Rows {
		created, err := c.requiredTime(n, row, 1)
		if err != nil {
			return nil, fmt.Errorf("contributors_query %w", err)
		}
		events = append(events, schema.ContributionEvent{ContributorID: c.text(row, 0), Created: created})
	}
	return events, nil
}

// IssueEvents converts an issues_query table into typed rows.
func IssueEvents(table schema.RawTable) ([]schema.IssueEvent, error) {
	c, err := resolve(schema.IssuesQuery, table,
		[]string{schema.IssueIDColumn},
		[]string{schema.CreatedColumn, schema.CreatedAtColumn},
		[]string{schema.ClosedColumn, schema.ClosedAtColumn},
	)
	if err != nil {
		return nil, err
	}
	events := make([]schema.IssueEvent, 0, table.Len())
	for n, row := range table.Rows {
		created, err := c.requiredTime(n, row, 1)
		if err != nil {
			return nil, fmt.Errorf("issues_query %w", err)
		}
		closed, err := c.optionalTime(n, row, 2)
		if err != nil {
			return nil, fmt.Errorf("issues_query %w", err)
		}
		events = append(events, schema.IssueEvent{IssueID: c.text(row, 0), Created: created, Closed: closed})
	}
	return events, nil
}

// IssueResponseEvents converts an issue_response_query table into typed rows.
func IssueResponseEvents(table schema.RawTable) ([]schema.IssueResponseEvent, error) {
	c, err := resolve(schema.IssueResponseQuery, table,
		[]string{schema.IssueIDColumn},
		[]string{schema.ContributorIDColumn},
		[]string{schema.CreatedAtColumn, schema.CreatedColumn},
		[]string{schema.ClosedAtColumn, schema.ClosedColumn},
		[]string{schema.MessageAuthorColumn},
		[]string{schema.MessageTimeColumn},
	)
	if err != nil {
		return nil, err
	}
	// Issue ids are only unique within a repository for some sources.
	repoIdx := table.ColumnIndex(schema.RepoIDColumn)

	events := make([]schema.IssueResponseEvent, 0, table.Len())
	for n, row := range table.Rows {
		created, err := c.requiredTime(n, row, 2)
		if err != nil {
			return nil, fmt.Errorf("issue_response_query %w", err)
		}
		closed, err := c.optionalTime(n, row, 3)
		if err != nil {
			return nil, fmt.Errorf("issue_response_query %w", err)
		}
		msgTime, err := c.optionalTime(n, row, 5)
		if err != nil {
			return nil, fmt.Errorf("issue_response_query %w", err)
		}
		var repo string
		if v := rawCell(row, repoIdx); v != nil {
			repo = *v
		}
		events = append(events, schema.IssueResponseEvent{
			RepoID:          repo,
			IssueID:         c.text(row, 0),
			AuthorID:        c.text(row, 1),
			Created:         created,
			Closed:          closed,
			MessageAuthorID: c.cell(row, 4),
			MessageTime:     msgTime,
		})
	}
	return events, nil
}

// FilterBots drops issues opened by a bot and nulls out messages written by a
// bot, so bot replies never count as a first response.
func FilterBots(events []schema.IssueResponseEvent, bots []string) []schema.IssueResponseEvent {
	if len(bots) == 0 {
		return events
	}
	set := make(map[string]struct{}, len(bots))
	for _, b := range bots {
		set[b] = struct{}{}
	}
	out := make([]schema.IssueResponseEvent, 0, len(events))
	for _, e := range events {
		if _, bot := set[e.AuthorID]; bot {
			continue
		}
		if e.MessageAuthorID != nil {
			if _, bot := set[*e.MessageAuthorID]; bot {
				e.MessageAuthorID, e.MessageTime = nil, nil
			}
		}
		out = append(out, e)
	}
	return out
}
