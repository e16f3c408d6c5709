package source

import (
	"context"
	"fmt"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// augurQuerier is the subset of pgxpool.Pool used by AugurSource.
type augurQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// AugurSource runs the three upstream queries against an Augur database.
type AugurSource struct {
	db      augurQuerier
	builder sq.StatementBuilderType
}

var _ contract.EventSource = &AugurSource{} // Compile-time check

// AugurConnString builds a keyword/value connection string for cfg.
func AugurConnString(cfg contract.AugurConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database)
}

// NewAugurSource connects to the Augur database of cfg with the configured
// schema on the search path.
func NewAugurSource(ctx context.Context, cfg contract.AugurConfig) (*AugurSource, error) {
	if cfg.Host == "" || cfg.User == "" || cfg.Database == "" {
		return nil, fmt.Errorf("augur credentials incomplete: host, username and database are required")
	}

	poolCfg, err := pgxpool.ParseConfig(AugurConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("invalid augur connection settings: %w", err)
	}
	poolCfg.ConnConfig.RuntimeParams["search_path"] = cfg.Schema

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create augur pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("augur database couldn't connect: %w", err)
	}
	return newAugurSource(pool), nil
}

func newAugurSource(db augurQuerier) *AugurSource {
	return &AugurSource{db: db, builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

// Name implements contract.EventSource.
func (as *AugurSource) Name() string { return "augur" }

// Close releases the pool.
func (as *AugurSource) Close() { as.db.Close() }

// Fetch implements contract.EventSource. repo is a numeric Augur repo id.
func (as *AugurSource) Fetch(ctx context.Context, repo string) (map[schema.QueryName]schema.RawTable, error) {
	repoID, err := strconv.ParseInt(repo, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("augur repo id must be numeric, got %q", repo)
	}

	tables := make(map[schema.QueryName]schema.RawTable, len(schema.QueryColumns))
	for _, query := range []schema.QueryName{schema.ContributorsQuery, schema.IssuesQuery, schema.IssueResponseQuery} {
		stmt, args, err := as.statement(query, repoID)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s: %w", query, err)
		}
		table, err := as.run(ctx, stmt, args)
		if err != nil {
			return nil, fmt.Errorf("failed to run %s: %w", query, err)
		}
		tables[query] = table
	}
	return tables, nil
}

// statement returns the SQL of query for one repository.
func (as *AugurSource) statement(query schema.QueryName, repoID int64) (string, []any, error) {
	switch query {
	case schema.ContributorsQuery:
		return as.builder.
			Select("repo_id::text AS id", "cntrb_id::text AS cntrb_id", "created_at").
			From("explorer_contributor_actions").
			Where(sq.Eq{"repo_id": repoID}).
			OrderBy("created_at").
			ToSql()
	case schema.IssuesQuery:
		return as.builder.
			Select("repo_id::text AS id", "issue_id::text AS issue_id", "created_at AS created", "closed_at AS closed").
			From("issues").
			Where(sq.Eq{"repo_id": repoID}).
			Where(sq.Eq{"pull_request_id": nil}).
			OrderBy("created_at").
			ToSql()
	case schema.IssueResponseQuery:
		return as.builder.
			Select(
				"i.repo_id::text AS id",
				"i.issue_id::text AS issue_id",
				"i.cntrb_id::text AS cntrb_id",
				"i.created_at",
				"i.closed_at",
				"m.msg_timestamp",
				"m.cntrb_id::text AS msg_cntrb_id",
			).
			From("issues i").
			LeftJoin("issue_message_ref imr ON i.issue_id = imr.issue_id").
			LeftJoin("message m ON imr.msg_id = m.msg_id").
			Where(sq.Eq{"i.repo_id": repoID}).
			Where(sq.Eq{"i.pull_request_id": nil}).
			OrderBy("i.created_at").
			ToSql()
	default:
		return "", nil, fmt.Errorf("%w %q", ErrUnknownQuery, query)
	}
}

// run executes stmt and converts the result set into a raw table.
func (as *AugurSource) run(ctx context.Context, stmt string, args []any) (schema.RawTable, error) {
	rows, err := as.db.Query(ctx, stmt, args...)
	if err != nil {
		return schema.RawTable{}, err
	}
	defer rows.Close()

	var table schema.RawTable
	for _, fd := range rows.FieldDescriptions() {
		table.Columns = append(table.Columns, fd.Name)
	}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return schema.RawTable{}, err
		}
		row := make([]*string, len(values))
		for i, v := range values {
			row[i] = valueCell(v)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, rows.Err()
}

// valueCell renders a decoded postgres value as a cell.
func valueCell(v any) *string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return schema.Cell(val)
	case time.Time:
		return timeCell(val)
	case int64:
		return schema.Cell(strconv.FormatInt(val, 10))
	case int32:
		return schema.Cell(strconv.FormatInt(int64(val), 10))
	default:
		return schema.Cell(fmt.Sprint(val))
	}
}
