package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/iocache"
	"github.com/huangsam/repopulse/internal/source"
	"github.com/huangsam/repopulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheBackendConfig reads and validates the cache backend settings.
func cacheBackendConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	// Get cache-related config values
	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, memory", backend)
	}

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	backend, connStr, err := cacheBackendConfig()
	if err != nil {
		return err
	}

	// Initialize caching with the loaded config
	if err := iocache.InitStores(backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheMigrateSetup loads the backend settings without opening the stores,
// so migrations can run on any schema version.
func cacheMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := cacheBackendConfig()
	if err != nil {
		return err
	}
	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by page commands. This avoids threshold and
// output validation for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the result cache of raw query tables",
	Long: `Manage the result cache that the load commands fill and the pages read.

Each entry is the table of one query for one repository, stored as a
versioned JSON payload. Entries written by an older payload version are
treated as absent. Page runs are recorded next to the cache.

Supported backends: SQLite (default), MySQL, PostgreSQL, or Memory

Subcommands:
  status  - Show cache statistics and connection info
  clear   - Remove cached tables
  migrate - Run database schema migrations

Examples:
  # Check cache status
  repopulse cache status

  # Drop all issue tables before reloading them
  repopulse cache clear issues_query`,
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the result cache.

Displays:
- Backend type and connection status
- Total number of cached tables
- Last and oldest entry timestamps
- Cache table size

Examples:
  # Check cache status
  repopulse cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetResultCache().GetStatus(rootCtx)
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear [query]",
	Short: "Remove cached tables of one query or all of them",
	Long: `Delete cached tables from the configured backend. With a query name,
only that query's tables are removed. Run history is kept.

Use this when:
- Upstream data was corrected and must be reloaded
- The cache holds repositories you no longer track

Examples:
  # Clear everything
  repopulse cache clear

  # Clear only the contributor tables
  repopulse cache clear contributors_query`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		var query schema.QueryName
		if len(args) == 1 {
			query = schema.QueryName(args[0])
			if _, ok := schema.ValidQueryNames[query]; !ok {
				contract.LogFatal("Failed to clear cache", fmt.Errorf("%w %q", source.ErrUnknownQuery, query))
			}
		}
		if err := iocache.Manager.GetResultCache().Clear(rootCtx, query); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheMigrateCmd runs database migrations for the cache store.
var cacheMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions of the cache and run history tables.

Opening the cache always migrates to the latest version. Use this command to
inspect or roll back the schema explicitly.

Examples:
  # Migrate to latest version (default)
  repopulse cache migrate

  # Drop the run history table
  repopulse cache migrate --target-version 1

  # Rollback everything
  repopulse cache migrate --target-version 0`,
	PreRunE: cacheMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		result, err := iocache.Migrate(cfg.CacheBackend, cfg.CacheDBConnect, targetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		if !result.Changed {
			fmt.Printf("Schema already at version %d.\n", result.ToVersion)
			return
		}
		fmt.Printf("Migrated schema from version %d to %d.\n", result.FromVersion, result.ToVersion)
	},
}
