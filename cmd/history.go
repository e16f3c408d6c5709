package cmd

import (
	"github.com/huangsam/repopulse/core"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/spf13/cobra"
)

// historyCmd lists recent page runs.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent page runs",
	Long: `List the most recent page runs, newest first.

Each row shows the run id, start time, page, repositories, interval, outcome,
number of table rows and duration.

Examples:
  # Last 20 runs
  repopulse history

  # Export the last 500 runs
  repopulse history --limit 500 --output parquet --output-file runs.parquet`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteHistory(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot list run history", err)
		}
	},
}
