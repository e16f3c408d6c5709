package iocache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// CacheStoreImpl handles durable storage of raw query tables and run records
// using various database backends.
type CacheStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	connStr string
	builder sq.StatementBuilderType
	now     func() time.Time
}

var (
	_ contract.ResultCache = &CacheStoreImpl{} // Compile-time check
	_ contract.RunLog      = &CacheStoreImpl{} // Compile-time check
)

// NewCacheStore migrates the schema of a SQL backend to the latest version
// and returns a store connected to it.
func NewCacheStore(backend schema.DatabaseBackend, connStr string) (*CacheStoreImpl, error) {
	if _, err := Migrate(backend, connStr, -1); err != nil {
		return nil, fmt.Errorf("failed to prepare %s cache schema: %w", backend, err)
	}

	db, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}

	return &CacheStoreImpl{
		db:      db,
		backend: backend,
		connStr: connStr,
		builder: builderFor(backend),
		now:     time.Now,
	}, nil
}

// Get retrieves the tables of every repository and concatenates them in
// repository order. A missing repository or a stale payload version makes
// the whole result absent.
func (ps *CacheStoreImpl) Get(ctx context.Context, query schema.QueryName, repos []string) (schema.RawTable, bool, error) {
	if len(repos) == 0 {
		return schema.RawTable{}, true, nil
	}

	selectQuery, args, err := ps.builder.
		Select("repo_id", "cache_value", "cache_version").
		From(cacheTable).
		Where(sq.Eq{"query_name": string(query), "repo_id": repos}).
		ToSql()
	if err != nil {
		return schema.RawTable{}, false, fmt.Errorf("failed to build cache query: %w", err)
	}

	rows, err := ps.db.QueryContext(ctx, selectQuery, args...)
	if err != nil {
		return schema.RawTable{}, false, fmt.Errorf("failed to query cache: %w", err)
	}
	defer func() { _ = rows.Close() }()

	payloads := make(map[string][]byte, len(repos))
	for rows.Next() {
		var repo string
		var value []byte
		var version int
		if err := rows.Scan(&repo, &value, &version); err != nil {
			return schema.RawTable{}, false, fmt.Errorf("failed to scan cache row: %w", err)
		}
		if version != CacheVersion {
			continue
		}
		payloads[repo] = value
	}
	if err := rows.Err(); err != nil {
		return schema.RawTable{}, false, fmt.Errorf("failed to read cache rows: %w", err)
	}

	return concatPayloads(query, repos, payloads)
}

// Set inserts or replaces the table of one repository.
func (ps *CacheStoreImpl) Set(ctx context.Context, query schema.QueryName, repo string, table schema.RawTable) error {
	value, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to encode %s table for %s: %w", query, repo, err)
	}

	insert := ps.builder.
		Insert(cacheTable).
		Columns("query_name", "repo_id", "cache_value", "cache_version", "cache_timestamp").
		Values(string(query), repo, value, CacheVersion, ps.now().Unix())

	// Use backend-specific UPSERT
	switch ps.backend {
	case schema.MySQLBackend:
		insert = insert.Suffix("AS new ON DUPLICATE KEY UPDATE cache_value = new.cache_value, cache_version = new.cache_version, cache_timestamp = new.cache_timestamp")
	case schema.PostgreSQLBackend:
		insert = insert.Suffix("ON CONFLICT (query_name, repo_id) DO UPDATE SET cache_value = EXCLUDED.cache_value, cache_version = EXCLUDED.cache_version, cache_timestamp = EXCLUDED.cache_timestamp")
	default: // SQLite
		insert = insert.Options("OR REPLACE")
	}

	insertQuery, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build cache upsert: %w", err)
	}
	if _, err := ps.db.ExecContext(ctx, insertQuery, args...); err != nil {
		return fmt.Errorf("failed to store %s table for %s: %w", query, repo, err)
	}
	return nil
}

// Clear deletes the entries of query, or every entry when query is empty.
func (ps *CacheStoreImpl) Clear(ctx context.Context, query schema.QueryName) error {
	del := ps.builder.Delete(cacheTable)
	if query != "" {
		del = del.Where(sq.Eq{"query_name": string(query)})
	}
	deleteQuery, args, err := del.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build cache delete: %w", err)
	}
	if _, err := ps.db.ExecContext(ctx, deleteQuery, args...); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Close closes the underlying DB connection.
func (ps *CacheStoreImpl) Close() error {
	if ps.db != nil {
		return ps.db.Close()
	}
	return nil
}

// GetStatus returns status information about the cache store.
func (ps *CacheStoreImpl) GetStatus(ctx context.Context) (schema.CacheStatus, error) {
	status := schema.CacheStatus{
		Backend:   string(ps.backend),
		Connected: ps.db != nil,
	}
	if ps.db == nil {
		return status, nil
	}

	statsQuery, args, err := ps.builder.
		Select("COUNT(*)", "MAX(cache_timestamp)", "MIN(cache_timestamp)").
		From(cacheTable).
		ToSql()
	if err != nil {
		return status, fmt.Errorf("failed to build status query: %w", err)
	}

	var lastTs, oldestTs sql.NullInt64
	row := ps.db.QueryRowContext(ctx, statsQuery, args...)
	if err := row.Scan(&status.TotalEntries, &lastTs, &oldestTs); err != nil {
		return status, fmt.Errorf("failed to get cache statistics: %w", err)
	}
	if status.TotalEntries == 0 {
		return status, nil
	}
	status.LastEntryTime = time.Unix(lastTs.Int64, 0)
	status.OldestEntryTime = time.Unix(oldestTs.Int64, 0)

	// Fallback rough estimate if a size query fails
	estimate := int64(status.TotalEntries) * 1000

	switch ps.backend {
	case schema.SQLiteBackend:
		row = ps.db.QueryRowContext(ctx, "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
		if err := row.Scan(&status.TableSizeBytes); err != nil {
			status.TableSizeBytes = 0
		}
	case schema.MySQLBackend:
		status.TableSizeBytes = estimate
		cfg, err := mysql.ParseDSN(ps.connStr)
		if err != nil || cfg.DBName == "" {
			break
		}
		row = ps.db.QueryRowContext(ctx, "SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?", cfg.DBName, cacheTable)
		if err := row.Scan(&status.TableSizeBytes); err != nil {
			status.TableSizeBytes = estimate
		}
	case schema.PostgreSQLBackend:
		row = ps.db.QueryRowContext(ctx, "SELECT pg_total_relation_size($1)", cacheTable)
		if err := row.Scan(&status.TableSizeBytes); err != nil {
			status.TableSizeBytes = estimate
		}
	default:
		status.TableSizeBytes = estimate
	}

	return status, nil
}

// concatPayloads decodes per-repository payloads and concatenates them in
// repos order. ok is false when any repository is missing.
func concatPayloads(query schema.QueryName, repos []string, payloads map[string][]byte) (schema.RawTable, bool, error) {
	var out schema.RawTable
	for _, repo := range repos {
		value, ok := payloads[repo]
		if !ok {
			return schema.RawTable{}, false, nil
		}
		var table schema.RawTable
		if err := json.Unmarshal(value, &table); err != nil {
			return schema.RawTable{}, false, fmt.Errorf("failed to decode %s table for %s: %w", query, repo, err)
		}
		out = out.Append(table)
	}
	return out, true, nil
}
