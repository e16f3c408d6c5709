package contract

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/repopulse/schema"
	"gopkg.in/yaml.v3"
)

// Default values for configuration.
const (
	DefaultDriftMonths       = 6
	DefaultAwayMonths        = 12
	DefaultStalingDays       = 7
	DefaultStaleDays         = 30
	DefaultResponseDays      = 2
	UnsetThreshold           = -1
	DefaultPollInterval      = time.Second
	DefaultPollMaxInterval   = 30 * time.Second
	DefaultPollMultiplier    = 1.0
	DefaultHistoryLimit      = 20
	DefaultLoadWorkers       = 4
	MaxHistoryLimit          = 1000
	DefaultAugurPort         = 5432
	DefaultAugurSchema       = "augur_data"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "console"
	DefaultResponseInterval  = schema.Daily
	DefaultAggregateInterval = schema.Monthly
)

// AugurConfig holds the connection settings of an Augur database.
type AugurConfig struct {
	User     string
	Password string // Please use env var as this is plaintext
	Host     string
	Port     int
	Database string
	Schema   string
}

// Config holds the runtime configuration for the pages.
// This struct remains the "final, validated" config.
type Config struct {
	Repos               []string
	Granularity         schema.Granularity
	ResponseGranularity schema.Granularity
	Output              schema.OutputMode
	OutputFile          string

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	Poll schema.PollPolicy

	LogLevel  string
	LogFormat string

	FilterBots bool
	Bots       []string
	UseColors  bool

	// Nil thresholds mean the input is not ready yet.
	DriftMonths  *int
	AwayMonths   *int
	StalingDays  *int
	StaleDays    *int
	ResponseDays *int

	HistoryLimit int

	Augur       AugurConfig
	GitHubToken string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Repos           []string `mapstructure:"repos"`
	Interval        string   `mapstructure:"interval"`
	Output          string   `mapstructure:"output"`
	OutputFile      string   `mapstructure:"output-file"`
	CacheBackend    string   `mapstructure:"cache-backend"`
	CacheDBConnect  string   `mapstructure:"cache-db-connect"`
	PollInterval    string   `mapstructure:"poll-interval"`
	PollMaxInterval string   `mapstructure:"poll-max-interval"`
	PollMultiplier  float64  `mapstructure:"poll-multiplier"`
	PollTimeout     string   `mapstructure:"poll-timeout"`
	LogLevel        string   `mapstructure:"log-level"`
	LogFormat       string   `mapstructure:"log-format"`
	Bots            []string `mapstructure:"bots"`
	BotsFile        string   `mapstructure:"bots-file"`
	FilterBots      string   `mapstructure:"filter-bots"`
	Color           string   `mapstructure:"color"`

	// --- Page thresholds; UnsetThreshold leaves a page not ready ---
	DriftMonths      int    `mapstructure:"drift-months"`
	AwayMonths       int    `mapstructure:"away-months"`
	StalingDays      int    `mapstructure:"staling-days"`
	StaleDays        int    `mapstructure:"stale-days"`
	ResponseDays     int    `mapstructure:"response-days"`
	ResponseInterval string `mapstructure:"response-interval"`

	// --- Fields from historyCmd.Flags() ---
	HistoryLimit int `mapstructure:"limit"`

	// --- Source credentials, usually from env ---
	AugurUser     string `mapstructure:"augur-username"`
	AugurPassword string `mapstructure:"augur-password"`
	AugurHost     string `mapstructure:"augur-host"`
	AugurPort     int    `mapstructure:"augur-port"`
	AugurDatabase string `mapstructure:"augur-database"`
	AugurSchema   string `mapstructure:"augur-schema"`
	GitHubToken   string `mapstructure:"github-token"`
}

// botsFile is the YAML layout of a bot list file.
type botsFile struct {
	Bots []string `yaml:"bots"`
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processThresholds(cfg, input); err != nil {
		return err
	}
	if err := processPollPolicy(cfg, input); err != nil {
		return err
	}
	if err := processBots(cfg, input); err != nil {
		return err
	}
	processSources(cfg, input)
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.MemoryBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseGranularity parses an axis granularity, case-insensitively.
func ParseGranularity(s string) (schema.Granularity, error) {
	g := schema.Granularity(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := schema.ValidGranularities[g]; !ok {
		return "", fmt.Errorf("invalid interval '%s'. must be D, M, Y", s)
	}
	return g, nil
}

// LoadBotsFile reads bot identifiers from a YAML file. The file is either a
// plain list or a mapping with a "bots" list.
func LoadBotsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bots file %s: %w", path, err)
	}

	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var doc botsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse bots file %s: %w", path, err)
	}
	return doc.Bots, nil
}

// validateSimpleInputs processes and validates the non-threshold fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile

	// --- 1. Repositories ---
	cfg.Repos = ParseRepos(input.Repos)

	// --- 2. Intervals ---
	g, err := ParseGranularity(input.Interval)
	if err != nil {
		return err
	}
	cfg.Granularity = g

	responseInterval := input.ResponseInterval
	if responseInterval == "" {
		responseInterval = string(DefaultResponseInterval)
	}
	if cfg.ResponseGranularity, err = ParseGranularity(responseInterval); err != nil {
		return fmt.Errorf("invalid --response-interval value: %w", err)
	}

	// --- 3. Output ---
	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	// --- 4. Backend ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, memory", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- 5. Logging ---
	cfg.LogLevel = strings.ToLower(input.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	cfg.LogFormat = strings.ToLower(input.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}

	// --- 6. Flags ---
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	cfg.HistoryLimit = input.HistoryLimit
	if cfg.HistoryLimit == 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.HistoryLimit < 0 || cfg.HistoryLimit > MaxHistoryLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxHistoryLimit, input.HistoryLimit)
	}

	return nil
}

// processThresholds maps UnsetThreshold to nil and rejects other negative values.
// Zero is a valid threshold.
func processThresholds(cfg *Config, input *ConfigRawInput) error {
	fields := []struct {
		name  string
		value int
		dst   **int
	}{
		{"drift-months", input.DriftMonths, &cfg.DriftMonths},
		{"away-months", input.AwayMonths, &cfg.AwayMonths},
		{"staling-days", input.StalingDays, &cfg.StalingDays},
		{"stale-days", input.StaleDays, &cfg.StaleDays},
		{"response-days", input.ResponseDays, &cfg.ResponseDays},
	}
	for _, f := range fields {
		if f.value < UnsetThreshold {
			return fmt.Errorf("--%s cannot be negative (received %d, use %d to unset)", f.name, f.value, UnsetThreshold)
		}
		*f.dst = thresholdOrNil(f.value)
	}
	return nil
}

// processPollPolicy parses the cache poll durations.
func processPollPolicy(cfg *Config, input *ConfigRawInput) error {
	parse := func(name, value string, fallback time.Duration) (time.Duration, error) {
		if value == "" {
			return fallback, nil
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid --%s value: %w", name, err)
		}
		if d < 0 {
			return 0, fmt.Errorf("--%s cannot be negative (received %s)", name, value)
		}
		return d, nil
	}

	var err error
	if cfg.Poll.Interval, err = parse("poll-interval", input.PollInterval, DefaultPollInterval); err != nil {
		return err
	}
	if cfg.Poll.Interval == 0 {
		return fmt.Errorf("--poll-interval must be greater than 0")
	}
	if cfg.Poll.MaxInterval, err = parse("poll-max-interval", input.PollMaxInterval, DefaultPollMaxInterval); err != nil {
		return err
	}
	if cfg.Poll.Timeout, err = parse("poll-timeout", input.PollTimeout, 0); err != nil {
		return err
	}

	cfg.Poll.Multiplier = input.PollMultiplier
	if cfg.Poll.Multiplier == 0 {
		cfg.Poll.Multiplier = DefaultPollMultiplier
	}
	if cfg.Poll.Multiplier < 1 {
		return fmt.Errorf("--poll-multiplier must be at least 1 (received %g)", input.PollMultiplier)
	}
	return nil
}

// processBots resolves the bot list from config values and an optional file.
func processBots(cfg *Config, input *ConfigRawInput) error {
	filter, err := ParseBoolString(input.FilterBots)
	if err != nil {
		return fmt.Errorf("invalid --filter-bots value: %w", err)
	}
	cfg.FilterBots = filter

	cfg.Bots = nil
	for _, b := range input.Bots {
		if trimmed := strings.TrimSpace(b); trimmed != "" {
			cfg.Bots = append(cfg.Bots, trimmed)
		}
	}
	if input.BotsFile != "" {
		fromFile, err := LoadBotsFile(input.BotsFile)
		if err != nil {
			return err
		}
		cfg.Bots = append(cfg.Bots, fromFile...)
	}
	slices.Sort(cfg.Bots)
	cfg.Bots = slices.Compact(cfg.Bots)
	return nil
}

// processSources copies the query layer credentials.
func processSources(cfg *Config, input *ConfigRawInput) {
	cfg.Augur = AugurConfig{
		User:     input.AugurUser,
		Password: input.AugurPassword,
		Host:     input.AugurHost,
		Port:     input.AugurPort,
		Database: input.AugurDatabase,
		Schema:   input.AugurSchema,
	}
	if cfg.Augur.Port == 0 {
		cfg.Augur.Port = DefaultAugurPort
	}
	if cfg.Augur.Schema == "" {
		cfg.Augur.Schema = DefaultAugurSchema
	}
	cfg.GitHubToken = input.GitHubToken
}

func thresholdOrNil(v int) *int {
	if v == UnsetThreshold {
		return nil
	}
	return &v
}
