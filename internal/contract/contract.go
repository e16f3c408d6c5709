// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/repopulse/schema"
)

// ResultCache defines the store of raw query tables, keyed by query name and
// repository. This allows the pages to be tested without a real database.
type ResultCache interface {
	// Get returns the concatenated tables for repos in list order. ok is false
	// unless every repository has an entry for the query.
	Get(ctx context.Context, query schema.QueryName, repos []string) (table schema.RawTable, ok bool, err error)

	// Set stores the table of one repository, replacing any previous entry.
	Set(ctx context.Context, query schema.QueryName, repo string, table schema.RawTable) error

	// Clear removes every entry of the query. An empty query clears all entries.
	Clear(ctx context.Context, query schema.QueryName) error

	// GetStatus returns status information about the cache store.
	GetStatus(ctx context.Context) (schema.CacheStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// RunLog records completed page invocations.
type RunLog interface {
	// RecordRun appends a run record.
	RecordRun(ctx context.Context, run schema.RunRecord) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]schema.RunRecord, error)
}

// CacheManager defines the interface for managing the cache stores.
type CacheManager interface {
	GetResultCache() ResultCache
	GetRunLog() RunLog
}

// EventSource produces raw query tables for one repository. It is the query
// layer that populates the result cache.
type EventSource interface {
	// Name identifies the source in logs.
	Name() string

	// Fetch returns the tables this source can produce for repo.
	Fetch(ctx context.Context, repo string) (map[schema.QueryName]schema.RawTable, error)
}
