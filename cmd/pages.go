package cmd

import (
	"github.com/huangsam/repopulse/core"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
	"github.com/spf13/cobra"
)

// pageRun returns the Run function of a page command.
func pageRun(page schema.Page) func(*cobra.Command, []string) {
	exec := core.ExecutePageFunc(page)
	return func(_ *cobra.Command, _ []string) {
		defer Sync()
		if err := exec(rootCtx, cfg, cacheManager, logger); err != nil {
			contract.LogFatal("Cannot run "+string(page)+" page", err)
		}
	}
}

// driftCmd classifies contributors by time since their last contribution.
var driftCmd = &cobra.Command{
	Use:   "drift",
	Short: "Show contributors by engagement: Active, Drifting, Away.",
	Long: `Classify every contributor on each date of the axis by the time since
their latest contribution on or before that date.

- Active:   contributed within --drift-months
- Drifting: last contributed between --drift-months and --away-months ago
- Away:     last contributed --away-months ago or earlier

The thresholds must be increasing. Contributions are read from the
contributors_query tables of the cache; the command waits until every
repository has been loaded.

Examples:
  # Monthly engagement for two Augur repositories
  repopulse drift --repos 25430,25431

  # Yearly, with a stricter notion of drifting
  repopulse drift --repos 25430 --interval Y --drift-months 3 --away-months 9

  # Export for a spreadsheet
  repopulse drift --repos 25430 --output csv --output-file drift.csv`,
	PreRunE: sharedSetupWrapper,
	Run:     pageRun(schema.DriftPage),
}

// stalenessCmd classifies open issues by age.
var stalenessCmd = &cobra.Command{
	Use:   "staleness",
	Short: "Show open issues by age: New, Staling, Stale.",
	Long: `Classify the issues still open on each date of the axis by age.

- New:     opened within --staling-days
- Staling: opened between --staling-days and --stale-days ago
- Stale:   opened --stale-days ago or earlier

An issue is open on a date when it was created on or before it and closed
after it, or not at all. Issues are read from the issues_query tables.

Examples:
  # Monthly issue staleness
  repopulse staleness --repos 25430

  # Daily, as JSON
  repopulse staleness --repos 25430 --interval D --output json`,
	PreRunE: sharedSetupWrapper,
	Run:     pageRun(schema.StalenessPage),
}

// responseCmd counts open issues and those answered promptly.
var responseCmd = &cobra.Command{
	Use:   "response",
	Short: "Show open issues and those with a first response in time.",
	Long: `Count the issues open on each date of the axis (Open) and those whose
first response by someone other than the author arrived within
--response-days of creation (Response).

Replies by the author never count. With --filter-bots, issues opened by a bot
are ignored and bot replies do not count as a response. Bots come from --bots
and --bots-file.

Uses --response-interval for the axis, daily by default.

Examples:
  # Two-day response rate
  repopulse response --repos 25430

  # Ignore dependabot
  repopulse response --repos 25430 --bots 'dependabot[bot]'`,
	PreRunE: sharedSetupWrapper,
	Run:     pageRun(schema.ResponsePage),
}

// dashboardCmd runs every page.
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Run every page concurrently and print them together.",
	Long: `Run the drift, staleness and response pages at once.

The pages run concurrently and print in that order once all of them finish.
A failing page stops the others. Multi-page CSV output uses the long layout
(page, date, bucket, count).

Examples:
  # Full dashboard
  repopulse dashboard --repos 25430,25431

  # Give up if the cache is still empty after five minutes
  repopulse dashboard --repos 25430 --poll-timeout 5m`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		defer Sync()
		if err := core.ExecuteDashboard(rootCtx, cfg, cacheManager, logger); err != nil {
			contract.LogFatal("Cannot run dashboard", err)
		}
	},
}
