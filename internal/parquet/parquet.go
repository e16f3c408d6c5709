// Package parquet provides data structures and functions for exporting
// repopulse status tables and run records to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"time"

	"github.com/huangsam/repopulse/schema"
	"github.com/parquet-go/parquet-go"
)

// StatusCount is one bucket count of one as-of date, in long format.
type StatusCount struct {
	// Page is the cohort page that produced the count
	Page string `parquet:"page,snappy"`

	// Granularity is the axis granularity (D, M or Y)
	Granularity string `parquet:"granularity,snappy"`

	// Date is the as-of date (stored as TIMESTAMP with nanosecond precision)
	Date time.Time `parquet:"date,snappy"`

	// Label is the formatted as-of date
	Label string `parquet:"label,snappy"`

	// Bucket is the status bucket name
	Bucket string `parquet:"bucket,snappy"`

	// Count is the number of entities in the bucket
	Count int64 `parquet:"count,snappy"`
}

// RunRow is one page run record.
type RunRow struct {
	RunID       string    `parquet:"run_id,snappy"`
	Page        string    `parquet:"page,snappy"`
	Repos       string    `parquet:"repos,snappy"`
	Granularity string    `parquet:"granularity,snappy"`
	Outcome     string    `parquet:"outcome,snappy"`
	RowCount    int32     `parquet:"row_count,snappy"`
	StartedAt   time.Time `parquet:"started_at,snappy"`

	// DurationMs is nullable for runs recorded without timing
	DurationMs *int64 `parquet:"duration_ms,optional,snappy"`
}

// StatusCounts flattens status tables into long-format rows.
func StatusCounts(tables []schema.StatusTable) []StatusCount {
	var out []StatusCount
	for _, t := range tables {
		for _, row := range t.Rows {
			for i, b := range t.Buckets {
				if i >= len(row.Counts) {
					break
				}
				out = append(out, StatusCount{
					Page:        string(t.Page),
					Granularity: string(t.Granularity),
					Date:        row.Date,
					Label:       row.Label.String(),
					Bucket:      string(b),
					Count:       int64(row.Counts[i]),
				})
			}
		}
	}
	return out
}

// RunRows converts run records into Parquet rows.
func RunRows(runs []schema.RunRecord, joinRepos func([]string) string) []RunRow {
	out := make([]RunRow, 0, len(runs))
	for _, r := range runs {
		row := RunRow{
			RunID:       r.ID.String(),
			Page:        string(r.Page),
			Repos:       joinRepos(r.Repos),
			Granularity: string(r.Granularity),
			Outcome:     string(r.Outcome),
			RowCount:    int32(r.Rows),
			StartedAt:   r.StartedAt,
		}
		if r.Duration > 0 {
			ms := r.Duration.Milliseconds()
			row.DurationMs = &ms
		}
		out = append(out, row)
	}
	return out
}

// WriteStatusCounts writes long-format status rows to w.
func WriteStatusCounts(w io.Writer, data []StatusCount) error {
	return write(w, data)
}

// WriteRunRows writes run rows to w.
func WriteRunRows(w io.Writer, data []RunRow) error {
	return write(w, data)
}

func write[T any](w io.Writer, data []T) error {
	// The schema is automatically derived from the struct tags
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}
