package source

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/google/go-github/v68/github"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// githubPageSize is the page size of every list call.
const githubPageSize = 100

// githubAPI abstracts the GitHub API for testing.
type githubAPI interface {
	ListIssues(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error)
	ListComments(ctx context.Context, owner, repo string, opts *github.IssueListCommentsOptions) ([]*github.IssueComment, *github.Response, error)
}

// realGitHubAPI wraps the real go-github client to implement githubAPI.
type realGitHubAPI struct {
	client *github.Client
}

func (r *realGitHubAPI) ListIssues(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error) {
	return r.client.Issues.ListByRepo(ctx, owner, repo, opts)
}

// ListComments lists the comments of every issue in the repository.
func (r *realGitHubAPI) ListComments(ctx context.Context, owner, repo string, opts *github.IssueListCommentsOptions) ([]*github.IssueComment, *github.Response, error) {
	return r.client.Issues.ListComments(ctx, owner, repo, 0, opts)
}

// GitHubSource builds the issue tables from the GitHub REST API. Issue
// numbers are the issue ids and user logins are the contributor ids.
type GitHubSource struct {
	api githubAPI
}

var _ contract.EventSource = &GitHubSource{} // Compile-time check

// NewGitHubSource returns a source authenticated with token. An empty token
// uses anonymous access with its lower rate limit.
func NewGitHubSource(token string) *GitHubSource {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &GitHubSource{api: &realGitHubAPI{client: client}}
}

// Name implements contract.EventSource.
func (gs *GitHubSource) Name() string { return "github" }

// Fetch implements contract.EventSource. repo is an owner/name slug.
func (gs *GitHubSource) Fetch(ctx context.Context, repo string) (map[schema.QueryName]schema.RawTable, error) {
	owner, name, err := ParseRepoSlug(repo)
	if err != nil {
		return nil, err
	}

	issues, err := gs.fetchIssues(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	comments, err := gs.fetchComments(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}

	byIssue := make(map[int][]*github.IssueComment)
	for _, c := range comments {
		number, ok := commentIssueNumber(c)
		if !ok {
			continue
		}
		byIssue[number] = append(byIssue[number], c)
	}

	issueTable := newTable(schema.IssuesQuery)
	responseTable := newTable(schema.IssueResponseQuery)
	repoCell := schema.Cell(repo)
	for _, issue := range issues {
		id := schema.Cell(strconv.Itoa(issue.GetNumber()))
		created := timeCell(issue.GetCreatedAt().Time)
		closed := optionalTimeCell(issue.ClosedAt.GetTime())
		author := schema.Cell(issue.GetUser().GetLogin())

		issueTable.Rows = append(issueTable.Rows, []*string{repoCell, id, created, closed})

		messages := byIssue[issue.GetNumber()]
		if len(messages) == 0 {
			responseTable.Rows = append(responseTable.Rows, []*string{repoCell, id, author, created, closed, nil, nil})
			continue
		}
		for _, c := range messages {
			var msgAuthor *string
			if c.User != nil {
				msgAuthor = schema.Cell(c.GetUser().GetLogin())
			}
			responseTable.Rows = append(responseTable.Rows,
				[]*string{repoCell, id, author, created, closed, timeCell(c.GetCreatedAt().Time), msgAuthor})
		}
	}

	return map[schema.QueryName]schema.RawTable{
		schema.IssuesQuery:        issueTable,
		schema.IssueResponseQuery: responseTable,
	}, nil
}

// fetchIssues lists every issue of the repository, skipping pull requests.
func (gs *GitHubSource) fetchIssues(ctx context.Context, owner, repo string) ([]*github.Issue, error) {
	var out []*github.Issue
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "asc",
		ListOptions: github.ListOptions{PerPage: githubPageSize},
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		issues, resp, err := gs.api.ListIssues(ctx, owner, repo, opts)
		if err != nil {
			return nil, err
		}
		for _, issue := range issues {
			// GitHub API returns PRs as issues.
			if issue.IsPullRequest() {
				continue
			}
			out = append(out, issue)
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

// fetchComments lists every issue comment of the repository.
func (gs *GitHubSource) fetchComments(ctx context.Context, owner, repo string) ([]*github.IssueComment, error) {
	var out []*github.IssueComment
	sort, direction := "created", "asc"
	opts := &github.IssueListCommentsOptions{
		Sort:        &sort,
		Direction:   &direction,
		ListOptions: github.ListOptions{PerPage: githubPageSize},
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		comments, resp, err := gs.api.ListComments(ctx, owner, repo, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, comments...)
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

// commentIssueNumber extracts the issue number from the issue URL of c.
func commentIssueNumber(c *github.IssueComment) (int, bool) {
	number, err := strconv.Atoi(path.Base(c.GetIssueURL()))
	if err != nil {
		return 0, false
	}
	return number, true
}

// ParseRepoSlug splits an owner/name repository slug.
func ParseRepoSlug(slug string) (owner, repo string, err error) {
	parts := strings.Split(strings.Trim(slug, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q: expected owner/name", slug)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}
