// Package source is the query layer that fills the result cache with raw
// query tables from Augur, GitHub, local git history or CSV files.
package source

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
	"go.uber.org/zap"
)

// ErrNoTables is returned when a source produces nothing for a repository.
var ErrNoTables = errors.New("source produced no tables")

// ErrUnknownQuery is returned for query names no page consumes.
var ErrUnknownQuery = errors.New("unknown query")

// LoadReport summarizes one Load call.
type LoadReport struct {
	Source string
	Repo   string
	Rows   map[schema.QueryName]int
}

// Load fetches every table src can produce for repo and stores them in cache.
// Tables are stored in query name order.
func Load(ctx context.Context, src contract.EventSource, cache contract.ResultCache, repo string, logger *zap.SugaredLogger) (LoadReport, error) {
	report := LoadReport{Source: src.Name(), Repo: repo, Rows: make(map[schema.QueryName]int)}

	start := time.Now()
	logger.Infow("LOAD - START", "source", src.Name(), "repo", repo)

	tables, err := src.Fetch(ctx, repo)
	if err != nil {
		return report, fmt.Errorf("failed to fetch %s tables for %s: %w", src.Name(), repo, err)
	}
	if len(tables) == 0 {
		return report, fmt.Errorf("%w: %s for %s", ErrNoTables, src.Name(), repo)
	}

	queries := make([]schema.QueryName, 0, len(tables))
	for query := range tables {
		queries = append(queries, query)
	}
	slices.Sort(queries)

	for _, query := range queries {
		table := tables[query]
		if err := cache.Set(ctx, query, repo, table); err != nil {
			return report, err
		}
		report.Rows[query] = table.Len()
		logger.Debugw("Stored table", "query", query, "repo", repo, "rows", table.Len())
	}

	logger.Infow("LOAD - END", "source", src.Name(), "repo", repo, "duration", time.Since(start))
	return report, nil
}

// newTable returns an empty table with the columns of query.
func newTable(query schema.QueryName) schema.RawTable {
	return schema.RawTable{Columns: slices.Clone(schema.QueryColumns[query])}
}

// timeCell formats t as an RFC 3339 UTC cell.
func timeCell(t time.Time) *string {
	return schema.Cell(t.UTC().Format(time.RFC3339Nano))
}

// optionalTimeCell formats t, or returns a null cell for nil and zero times.
func optionalTimeCell(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	return timeCell(*t)
}
