package source

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/google/go-github/v68/github"
	"github.com/huangsam/repopulse/internal/iocache"
	"github.com/huangsam/repopulse/schema"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()
	cache := iocache.NewMemoryStore()
	tables := map[schema.QueryName]schema.RawTable{
		schema.IssuesQuery:        {Columns: []string{"issue_id"}, Rows: [][]*string{{schema.Cell("1")}, {schema.Cell("2")}}},
		schema.IssueResponseQuery: {Columns: []string{"issue_id"}, Rows: [][]*string{{schema.Cell("1")}}},
	}

	src := &MockEventSource{}
	src.On("Name").Return("fake")
	src.On("Fetch", mock.Anything, "42").Return(tables, nil).Once()

	report, err := Load(ctx, src, cache, "42", zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, "fake", report.Source)
	assert.Equal(t, map[schema.QueryName]int{schema.IssuesQuery: 2, schema.IssueResponseQuery: 1}, report.Rows)

	got, ok, err := cache.Get(ctx, schema.IssuesQuery, []string{"42"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, got.Len())
	src.AssertExpectations(t)
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop().Sugar()

	t.Run("fetch error", func(t *testing.T) {
		src := &MockEventSource{}
		src.On("Name").Return("fake")
		src.On("Fetch", mock.Anything, "1").Return(nil, errors.New("boom"))
		_, err := Load(ctx, src, iocache.NewMemoryStore(), "1", logger)
		assert.ErrorContains(t, err, "boom")
	})

	t.Run("no tables", func(t *testing.T) {
		src := &MockEventSource{}
		src.On("Name").Return("fake")
		src.On("Fetch", mock.Anything, "1").Return(map[schema.QueryName]schema.RawTable{}, nil)
		_, err := Load(ctx, src, iocache.NewMemoryStore(), "1", logger)
		assert.ErrorIs(t, err, ErrNoTables)
	})

	t.Run("store error", func(t *testing.T) {
		src := &MockEventSource{}
		src.On("Name").Return("fake")
		src.On("Fetch", mock.Anything, "1").Return(map[schema.QueryName]schema.RawTable{schema.IssuesQuery: {}}, nil)
		cache := &iocache.MockResultCache{}
		cache.On("Set", mock.Anything, schema.IssuesQuery, "1", schema.RawTable{}).Return(errors.New("disk full"))
		_, err := Load(ctx, src, cache, "1", logger)
		assert.ErrorContains(t, err, "disk full")
		cache.AssertExpectations(t)
	})
}

func TestReadCSV(t *testing.T) {
	input := "issue_id,created,closed\n1,2024-01-01,\n2,2024-01-02,2024-01-05\n"
	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"issue_id", "created", "closed"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Nil(t, table.Rows[0][2])
	assert.Equal(t, "2024-01-05", *table.Rows[1][2])

	_, err = ReadCSV(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("a,b\n1\n"))
	assert.ErrorContains(t, err, "row 2")
}

func TestCSVSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "issues.csv")
	require.NoError(t, os.WriteFile(path, []byte("issue_id,created,closed\n7,2024-03-01,\n"), 0o600))

	src := &CSVSource{Path: path, Query: schema.IssuesQuery}
	assert.Equal(t, "csv", src.Name())
	tables, err := src.Fetch(context.Background(), "r")
	require.NoError(t, err)
	assert.Equal(t, 1, tables[schema.IssuesQuery].Len())

	_, err = (&CSVSource{Path: path, Query: "bogus"}).Fetch(context.Background(), "r")
	assert.ErrorIs(t, err, ErrUnknownQuery)

	_, err = (&CSVSource{Path: filepath.Join(t.TempDir(), "missing.csv"), Query: schema.IssuesQuery}).Fetch(context.Background(), "r")
	assert.Error(t, err)
}

func TestGitSource(t *testing.T) {
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	commit := func(email string, when time.Time) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte(email+when.String()), 0o600))
		_, err := wt.Add("f.txt")
		require.NoError(t, err)
		sig := &object.Signature{Name: "x", Email: email, When: when}
		_, err = wt.Commit("change", &gogit.CommitOptions{Author: sig, Committer: sig})
		require.NoError(t, err)
	}
	first := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	commit("Alice@Example.com", first)
	commit("bob@example.com", first.Add(24*time.Hour))

	src := &GitSource{Path: dir}
	assert.Equal(t, "git", src.Name())
	tables, err := src.Fetch(context.Background(), "local")
	require.NoError(t, err)

	table := tables[schema.ContributorsQuery]
	assert.Equal(t, schema.QueryColumns[schema.ContributorsQuery], table.Columns)
	require.Equal(t, 2, table.Len())
	// Newest first by committer time.
	assert.Equal(t, "bob@example.com", *table.Rows[0][1])
	assert.Equal(t, "alice@example.com", *table.Rows[1][1])
	assert.Equal(t, "2024-01-01T10:00:00Z", *table.Rows[1][2])
	assert.Equal(t, "local", *table.Rows[0][0])
}

func TestGitSourceEmptyAndMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	tables, err := (&GitSource{Path: dir}).Fetch(context.Background(), "r")
	require.NoError(t, err)
	assert.True(t, tables[schema.ContributorsQuery].Empty())

	_, err = (&GitSource{Path: t.TempDir()}).Fetch(context.Background(), "r")
	assert.Error(t, err)
}

// fakeGitHubAPI serves fixed pages of issues and comments.
type fakeGitHubAPI struct {
	issuePages   [][]*github.Issue
	commentPages [][]*github.IssueComment
	issueOpts    []github.IssueListByRepoOptions
}

func page(i, total int) *github.Response {
	resp := &github.Response{Response: &http.Response{StatusCode: http.StatusOK}}
	if i+1 < total {
		resp.NextPage = i + 2
	}
	return resp
}

func (f *fakeGitHubAPI) ListIssues(_ context.Context, _, _ string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error) {
	f.issueOpts = append(f.issueOpts, *opts)
	i := max(opts.Page-1, 0)
	return f.issuePages[i], page(i, len(f.issuePages)), nil
}

func (f *fakeGitHubAPI) ListComments(_ context.Context, _, _ string, opts *github.IssueListCommentsOptions) ([]*github.IssueComment, *github.Response, error) {
	i := max(opts.Page-1, 0)
	if len(f.commentPages) == 0 {
		return nil, page(0, 1), nil
	}
	return f.commentPages[i], page(i, len(f.commentPages)), nil
}

func ts(t time.Time) *github.Timestamp {
	return &github.Timestamp{Time: t}
}

func TestGitHubSource(t *testing.T) {
	created := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	api := &fakeGitHubAPI{
		issuePages: [][]*github.Issue{
			{
				{Number: github.Ptr(1), CreatedAt: ts(created), User: &github.User{Login: github.Ptr("alice")}},
				{Number: github.Ptr(2), CreatedAt: ts(created), PullRequestLinks: &github.PullRequestLinks{}},
			},
			{
				{Number: github.Ptr(3), CreatedAt: ts(created), ClosedAt: ts(created.Add(time.Hour)), User: &github.User{Login: github.Ptr("bob")}},
			},
		},
		commentPages: [][]*github.IssueComment{{
			{IssueURL: github.Ptr("https://api.github.com/repos/o/r/issues/1"), CreatedAt: ts(created.Add(time.Minute)), User: &github.User{Login: github.Ptr("carol")}},
			{IssueURL: github.Ptr("https://api.github.com/repos/o/r/issues/1"), CreatedAt: ts(created.Add(2 * time.Minute))},
			{IssueURL: github.Ptr("https://api.github.com/repos/o/r/issues/2"), CreatedAt: ts(created)},
		}},
	}
	src := &GitHubSource{api: api}
	assert.Equal(t, "github", src.Name())

	tables, err := src.Fetch(context.Background(), "o/r")
	require.NoError(t, err)

	issues := tables[schema.IssuesQuery]
	require.Equal(t, 2, issues.Len(), "pull requests are skipped")
	assert.Equal(t, "1", *issues.Rows[0][1])
	assert.Nil(t, issues.Rows[0][3])
	assert.Equal(t, "2024-02-01T01:00:00Z", *issues.Rows[1][3])

	responses := tables[schema.IssueResponseQuery]
	require.Equal(t, 3, responses.Len())
	assert.Equal(t, "carol", *responses.Rows[0][6])
	assert.Nil(t, responses.Rows[1][6], "comment without a user keeps a null author")
	assert.Equal(t, "3", *responses.Rows[2][1])
	assert.Nil(t, responses.Rows[2][5], "issue without comments has a null message")

	require.Len(t, api.issueOpts, 2)
	assert.Equal(t, "all", api.issueOpts[0].State)
	assert.Equal(t, 2, api.issueOpts[1].Page)
}

func TestOptionalTimeCell(t *testing.T) {
	assert.Nil(t, optionalTimeCell(nil))
	assert.Nil(t, optionalTimeCell(&time.Time{}))
	closed := time.Date(2024, 2, 1, 3, 0, 0, 0, time.FixedZone("X", 3600))
	assert.Equal(t, "2024-02-01T02:00:00Z", *optionalTimeCell(&closed))
}

func TestGitHubSourceBadSlug(t *testing.T) {
	_, err := (&GitHubSource{api: &fakeGitHubAPI{}}).Fetch(context.Background(), "no-slash")
	assert.Error(t, err)
}

func TestParseRepoSlug(t *testing.T) {
	tests := []struct {
		slug        string
		owner, repo string
		wantErr     bool
	}{
		{"huangsam/hotspot", "huangsam", "hotspot", false},
		{"/owner/repo.git/", "owner", "repo", false},
		{"owner", "", "", true},
		{"a/b/c", "", "", true},
		{"/repo", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			owner, repo, err := ParseRepoSlug(tt.slug)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.repo, repo)
		})
	}
}

// fakeRows is an in-memory pgx.Rows.
type fakeRows struct {
	fields []string
	values [][]any
	i      int
}

func (r *fakeRows) Close()                        {}
func (r *fakeRows) Err() error                    { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	out := make([]pgconn.FieldDescription, len(r.fields))
	for i, f := range r.fields {
		out[i] = pgconn.FieldDescription{Name: f}
	}
	return out
}
func (r *fakeRows) Next() bool {
	r.i++
	return r.i <= len(r.values)
}
func (r *fakeRows) Scan(...any) error      { return errors.New("not supported") }
func (r *fakeRows) Values() ([]any, error) { return r.values[r.i-1], nil }
func (r *fakeRows) RawValues() [][]byte    { return nil }
func (r *fakeRows) Conn() *pgx.Conn        { return nil }

// fakeQuerier records statements and answers with one row per query.
type fakeQuerier struct {
	statements []string
	args       [][]any
	closed     bool
}

func (q *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.statements = append(q.statements, sql)
	q.args = append(q.args, args)
	when := time.Date(2024, 1, 1, 0, 0, 0, 0, time.FixedZone("EST", -5*3600))
	return &fakeRows{
		fields: []string{"id", "cntrb_id", "created_at", "closed_at"},
		values: [][]any{{"7", "abc", when, nil}},
	}, nil
}

func (q *fakeQuerier) Close() { q.closed = true }

func TestAugurSource(t *testing.T) {
	db := &fakeQuerier{}
	src := newAugurSource(db)
	assert.Equal(t, "augur", src.Name())

	tables, err := src.Fetch(context.Background(), "7")
	require.NoError(t, err)
	require.Len(t, tables, 3)
	require.Len(t, db.statements, 3)

	assert.Contains(t, db.statements[0], "FROM explorer_contributor_actions WHERE repo_id = $1")
	assert.Contains(t, db.statements[1], "pull_request_id IS NULL")
	assert.Contains(t, db.statements[2], "LEFT JOIN issue_message_ref imr ON i.issue_id = imr.issue_id")
	for _, args := range db.args {
		assert.Equal(t, []any{int64(7)}, args)
	}

	table := tables[schema.ContributorsQuery]
	assert.Equal(t, []string{"id", "cntrb_id", "created_at", "closed_at"}, table.Columns)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "2024-01-01T05:00:00Z", *table.Rows[0][2])
	assert.Nil(t, table.Rows[0][3])

	src.Close()
	assert.True(t, db.closed)
}

func TestAugurSourceRejectsNonNumericRepo(t *testing.T) {
	_, err := newAugurSource(&fakeQuerier{}).Fetch(context.Background(), "owner/repo")
	assert.Error(t, err)
}

func TestValueCell(t *testing.T) {
	assert.Nil(t, valueCell(nil))
	assert.Equal(t, "x", *valueCell("x"))
	assert.Equal(t, "12", *valueCell(int64(12)))
	assert.Equal(t, "3", *valueCell(int32(3)))
	assert.Equal(t, "true", *valueCell(true))
}
