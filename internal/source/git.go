package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// GitSource builds the contributors table from the commit history of a local
// checkout. Author emails are the contributor ids.
type GitSource struct {
	Path string
}

var _ contract.EventSource = &GitSource{} // Compile-time check

// Name implements contract.EventSource.
func (gs *GitSource) Name() string { return "git" }

// Fetch implements contract.EventSource. repo labels the rows; history is
// read from Path.
func (gs *GitSource) Fetch(ctx context.Context, repo string) (map[schema.QueryName]schema.RawTable, error) {
	r, err := git.PlainOpenWithOptions(gs.Path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repo %s: %w", gs.Path, err)
	}

	table := newTable(schema.ContributorsQuery)
	tables := map[schema.QueryName]schema.RawTable{schema.ContributorsQuery: table}

	head, err := r.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		// No commits yet
		return tables, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}

	iter, err := r.Log(&git.LogOptions{From: head.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("creating log iterator: %w", err)
	}
	defer iter.Close()

	repoCell := schema.Cell(repo)
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		author := strings.ToLower(strings.TrimSpace(c.Author.Email))
		if author == "" {
			author = c.Author.Name
		}
		table.Rows = append(table.Rows, []*string{repoCell, schema.Cell(author), timeCell(c.Author.When)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking commits: %w", err)
	}

	tables[schema.ContributorsQuery] = table
	return tables, nil
}
