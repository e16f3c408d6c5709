package cmd

import (
	"errors"
	"fmt"

	"github.com/huangsam/repopulse/core"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/source"
	"github.com/huangsam/repopulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// singleRepoID returns the --repo-id value for sources bound to one repository.
func singleRepoID() ([]string, error) {
	repoID := viper.GetString("repo-id")
	if repoID == "" {
		return nil, errors.New("--repo-id is required")
	}
	return []string{repoID}, nil
}

// loadCmd focused on filling the result cache.
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Fill the result cache with contributor and issue activity",
	Long: `Fetch raw activity tables and store them in the result cache.

The pages never query upstream systems themselves; they wait until the cache
holds a table for every requested repository. The load subcommands are the
query layer that writes those tables.

Subcommands:
  augur  - Query an Augur database (all three tables)
  github - Query the GitHub API (issue tables)
  git    - Walk a local checkout (contributor table)
  csv    - Import one table from a CSV file

Examples:
  # Load two Augur repositories
  AUGUR_HOST=localhost AUGUR_DATABASE=augur repopulse load augur --repos 25430,25431

  # Load a GitHub repository, then run a page on it
  GITHUB_TOKEN=... repopulse load github --repos huangsam/repopulse
  repopulse response --repos huangsam/repopulse`,
}

// loadAugurCmd loads every query table from Augur.
var loadAugurCmd = &cobra.Command{
	Use:   "augur",
	Short: "Load all query tables of repositories from an Augur database",
	Long: `Query an Augur database for contributor actions, issues and issue
messages of each repository id in --repos.

Connection settings come from the augur-* config keys or the AUGUR_USERNAME,
AUGUR_PASSWORD, AUGUR_HOST, AUGUR_PORT, AUGUR_DATABASE and AUGUR_SCHEMA
environment variables.

Examples:
  repopulse load augur --repos 25430`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		defer Sync()
		src, err := source.NewAugurSource(rootCtx, cfg.Augur)
		if err != nil {
			contract.LogFatal("Cannot connect to Augur", err)
		}
		defer src.Close()
		if err := core.ExecuteLoad(rootCtx, src, cacheManager, cfg.Repos, logger); err != nil {
			contract.LogFatal("Cannot load Augur tables", err)
		}
	},
}

// loadGitHubCmd loads issue tables from GitHub.
var loadGitHubCmd = &cobra.Command{
	Use:   "github",
	Short: "Load issue tables of owner/name repositories from GitHub",
	Long: `List every issue and issue comment of each owner/name repository in
--repos. Pull requests are skipped. The repository slug is the repository id
in the cache.

Set GITHUB_TOKEN (or github-token in the config) to raise the rate limit.

Examples:
  repopulse load github --repos huangsam/hotspot,huangsam/repopulse`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		defer Sync()
		src := source.NewGitHubSource(cfg.GitHubToken)
		if err := core.ExecuteLoad(rootCtx, src, cacheManager, cfg.Repos, logger); err != nil {
			contract.LogFatal("Cannot load GitHub tables", err)
		}
	},
}

// loadGitCmd loads the contributor table of a local checkout.
var loadGitCmd = &cobra.Command{
	Use:   "git [repo-path]",
	Short: "Load the contributor table of a local Git checkout",
	Long: `Walk the commit history of a local checkout and store one contribution
per commit, keyed by the lowercased author email.

Examples:
  # Current directory, stored as repository "local"
  repopulse load git --repo-id local
  repopulse drift --repos local`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		defer Sync()
		path := "."
		if len(args) == 1 {
			path = args[0]
		}
		repos, err := singleRepoID()
		if err != nil {
			contract.LogFatal("Cannot load git history", err)
		}
		if err := core.ExecuteLoad(rootCtx, &source.GitSource{Path: path}, cacheManager, repos, logger); err != nil {
			contract.LogFatal("Cannot load git history", err)
		}
	},
}

// loadCSVCmd imports one query table from a CSV file.
var loadCSVCmd = &cobra.Command{
	Use:   "csv <file>",
	Short: "Import one query table from a CSV file",
	Long: fmt.Sprintf(`Import a CSV file with a header row as the table of one query.
Empty cells are null.

Expected columns:
  %s: %v
  %s: %v
  %s: %v

Examples:
  repopulse load csv issues.csv --query issues_query --repo-id 25430`,
		schema.ContributorsQuery, schema.QueryColumns[schema.ContributorsQuery],
		schema.IssuesQuery, schema.QueryColumns[schema.IssuesQuery],
		schema.IssueResponseQuery, schema.QueryColumns[schema.IssueResponseQuery]),
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		defer Sync()
		repos, err := singleRepoID()
		if err != nil {
			contract.LogFatal("Cannot import CSV", err)
		}
		src := &source.CSVSource{Path: args[0], Query: schema.QueryName(viper.GetString("query"))}
		if err := core.ExecuteLoad(rootCtx, src, cacheManager, repos, logger); err != nil {
			contract.LogFatal("Cannot import CSV", err)
		}
	},
}
