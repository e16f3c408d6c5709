// Package cmd defines the command-line interface for repopulse.
package cmd

import (
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(driftCmd)
	rootCmd.AddCommand(stalenessCmd)
	rootCmd.AddCommand(responseCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the load subcommands to the parent load command
	loadCmd.AddCommand(loadAugurCmd)
	loadCmd.AddCommand(loadGitHubCmd)
	loadCmd.AddCommand(loadGitCmd)
	loadCmd.AddCommand(loadCSVCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringSliceP("repos", "r", nil, "Comma-separated list of repository ids")
	rootCmd.PersistentFlags().StringP("interval", "i", string(contract.DefaultAggregateInterval), "Axis granularity: D or M or Y")
	rootCmd.PersistentFlags().String("response-interval", string(contract.DefaultResponseInterval), "Axis granularity of the response page: D or M or Y")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or memory")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("poll-interval", contract.DefaultPollInterval.String(), "Wait between cache checks")
	rootCmd.PersistentFlags().String("poll-max-interval", contract.DefaultPollMaxInterval.String(), "Longest wait between cache checks")
	rootCmd.PersistentFlags().Float64("poll-multiplier", contract.DefaultPollMultiplier, "Growth factor of the wait between cache checks (1 keeps it constant)")
	rootCmd.PersistentFlags().String("poll-timeout", "", "Give up waiting for cached data after this long (empty waits until interrupted)")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", contract.DefaultLogFormat, "Log format: console or json")
	rootCmd.PersistentFlags().StringSlice("bots", nil, "Comma-separated list of bot contributor ids")
	rootCmd.PersistentFlags().String("bots-file", "", "Path to a YAML file listing bot contributor ids")
	rootCmd.PersistentFlags().String("filter-bots", "yes", "Ignore bot issues and replies on the response page (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored headers in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("drift-months", contract.DefaultDriftMonths, "Months without contributions until a contributor is drifting (-1 = unset)")
	rootCmd.PersistentFlags().Int("away-months", contract.DefaultAwayMonths, "Months without contributions until a contributor is away (-1 = unset)")
	rootCmd.PersistentFlags().Int("staling-days", contract.DefaultStalingDays, "Days open until an issue is staling (-1 = unset)")
	rootCmd.PersistentFlags().Int("stale-days", contract.DefaultStaleDays, "Days open until an issue is stale (-1 = unset)")
	rootCmd.PersistentFlags().Int("response-days", contract.DefaultResponseDays, "Days within which a first response counts (-1 = unset)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all persistent flags of loadCmd to Viper
	loadCmd.PersistentFlags().String("repo-id", "", "Repository id to store git or csv tables under")
	if err := viper.BindPFlags(loadCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding load flags", err)
	}

	// Bind all flags of loadCSVCmd to Viper
	loadCSVCmd.Flags().String("query", "", "Query the CSV file holds: contributors_query or issues_query or issue_response_query")
	if err := viper.BindPFlags(loadCSVCmd.Flags()); err != nil {
		contract.LogFatal("Error binding load csv flags", err)
	}

	// Bind all flags of historyCmd to Viper
	historyCmd.Flags().IntP("limit", "l", contract.DefaultHistoryLimit, "Number of runs to display")
	if err := viper.BindPFlags(historyCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history flags", err)
	}

	// Bind all flags of cacheMigrateCmd to Viper
	cacheMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(cacheMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding cache migrate flags", err)
	}
}
