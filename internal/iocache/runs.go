package iocache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/repopulse/schema"
)

// repoSeparator joins repository ids in the runs table.
const repoSeparator = ","

// RecordRun appends a run record to the runs table.
func (ps *CacheStoreImpl) RecordRun(ctx context.Context, run schema.RunRecord) error {
	insertQuery, args, err := ps.builder.
		Insert(runsTable).
		Columns("run_id", "page", "repos", "granularity", "outcome", "row_count", "started_at", "duration_ms").
		Values(
			run.ID.String(),
			string(run.Page),
			strings.Join(run.Repos, repoSeparator),
			string(run.Granularity),
			string(run.Outcome),
			run.Rows,
			run.StartedAt.UnixMilli(),
			run.Duration.Milliseconds(),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build run insert: %w", err)
	}
	if _, err := ps.db.ExecContext(ctx, insertQuery, args...); err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first.
func (ps *CacheStoreImpl) ListRuns(ctx context.Context, limit int) ([]schema.RunRecord, error) {
	selectQuery, args, err := ps.builder.
		Select("run_id", "page", "repos", "granularity", "outcome", "row_count", "started_at", "duration_ms").
		From(runsTable).
		OrderBy("started_at DESC").
		Limit(uint64(max(limit, 0))).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build runs query: %w", err)
	}

	rows, err := ps.db.QueryContext(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []schema.RunRecord
	for rows.Next() {
		var (
			id, page, repos, granularity, outcome string
			rowCount                              int
			startedAt, durationMs                 int64
		)
		if err := rows.Scan(&id, &page, &repos, &granularity, &outcome, &rowCount, &startedAt, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid run id %q: %w", id, err)
		}
		run := schema.RunRecord{
			ID:          runID,
			Page:        schema.Page(page),
			Granularity: schema.Granularity(granularity),
			Outcome:     schema.Outcome(outcome),
			Rows:        rowCount,
			StartedAt:   time.UnixMilli(startedAt),
			Duration:    time.Duration(durationMs) * time.Millisecond,
		}
		if repos != "" {
			run.Repos = strings.Split(repos, repoSeparator)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read run rows: %w", err)
	}
	return runs, nil
}
