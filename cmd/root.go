package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/iocache"
	"github.com/huangsam/repopulse/internal/logging"
	"github.com/huangsam/repopulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// logger is replaced by the configured logger in sharedSetup.
var logger = logging.Nop()

// cacheManager is the global persistence manager instance.
var cacheManager contract.CacheManager

// legacyEnv maps config keys to the unprefixed variables used by Augur
// deployments and the GitHub CLI.
var legacyEnv = map[string]string{
	"augur-username": "AUGUR_USERNAME",
	"augur-password": "AUGUR_PASSWORD",
	"augur-host":     "AUGUR_HOST",
	"augur-port":     "AUGUR_PORT",
	"augur-database": "AUGUR_DATABASE",
	"augur-schema":   "AUGUR_SCHEMA",
	"github-token":   "GITHUB_TOKEN",
}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "repopulse",
	Short:              "Track contributor drift and issue health of repositories.",
	Long:               `Repopulse turns cached contributor and issue activity into cohort tables over time.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Check if a specific config file is provided
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		// Set config file name and paths
		viper.SetConfigName(".repopulse") // Name of config file (without extension)
		viper.SetConfigType("yaml")       // We'll use YAML format
		viper.AddConfigPath(".")          // Look in the current directory
		viper.AddConfigPath("$HOME")      // Look in the home directory
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("REPOPULSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	for key, env := range legacyEnv {
		prefixed := "REPOPULSE_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		_ = viper.BindEnv(key, prefixed, env)
	}

	// Set defaults in Viper
	viper.SetDefault("interval", contract.DefaultAggregateInterval)
	viper.SetDefault("response-interval", contract.DefaultResponseInterval)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("cache-backend", schema.SQLiteBackend)
	viper.SetDefault("cache-db-connect", "")
	viper.SetDefault("poll-interval", contract.DefaultPollInterval.String())
	viper.SetDefault("poll-max-interval", contract.DefaultPollMaxInterval.String())
	viper.SetDefault("poll-multiplier", contract.DefaultPollMultiplier)
	viper.SetDefault("log-level", contract.DefaultLogLevel)
	viper.SetDefault("log-format", contract.DefaultLogFormat)
	viper.SetDefault("filter-bots", "yes")
	viper.SetDefault("color", "yes")
	viper.SetDefault("drift-months", contract.DefaultDriftMonths)
	viper.SetDefault("away-months", contract.DefaultAwayMonths)
	viper.SetDefault("staling-days", contract.DefaultStalingDays)
	viper.SetDefault("stale-days", contract.DefaultStaleDays)
	viper.SetDefault("response-days", contract.DefaultResponseDays)
	viper.SetDefault("limit", contract.DefaultHistoryLimit)
	viper.SetDefault("augur-port", contract.DefaultAugurPort)
	viper.SetDefault("augur-schema", contract.DefaultAugurSchema)
}

// sharedSetup unmarshals config, runs validation and opens the stores.
func sharedSetup(_ context.Context, _ *cobra.Command, _ []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Run all validation and complex parsing.
	// This function populates the global 'cfg' from 'input'.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	// 4. Build the logger now that level and format are known.
	built, err := logging.New(logging.LoggerConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = built

	// 5. Initialize persistence layer with validated config
	if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}

	logger.Debugw("Configuration loaded", "repos", cfg.Repos, "backend", cfg.CacheBackend, "output", cfg.Output)
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// Execute runs the root command with ctx as the root context.
func Execute(ctx context.Context) error {
	rootCtx = ctx
	return rootCmd.ExecuteContext(ctx)
}

// SetCacheManager sets the global cache manager.
func SetCacheManager(mgr contract.CacheManager) {
	cacheManager = mgr
}

// Sync flushes buffered log entries.
func Sync() {
	_ = logger.Sync()
}
