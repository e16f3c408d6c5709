package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/repopulse/schema"
)

// Color variables for bucket headers in console output.
var (
	GoodColor    = color.New(color.FgGreen, color.Bold) // GoodColor marks healthy buckets such as Active or New.
	WarnColor    = color.New(color.FgYellow)            // WarnColor marks buckets trending towards neglect.
	BadColor     = color.New(color.FgRed, color.Bold)   // BadColor marks Away and Stale buckets.
	NeutralColor = color.New(color.FgCyan)              // NeutralColor marks the response page buckets.
)

// bucketColors maps each bucket to its header color.
var bucketColors = map[schema.Bucket]*color.Color{
	schema.ActiveBucket:   GoodColor,
	schema.NewBucket:      GoodColor,
	schema.DriftingBucket: WarnColor,
	schema.StalingBucket:  WarnColor,
	schema.AwayBucket:     BadColor,
	schema.StaleBucket:    BadColor,
	schema.OpenBucket:     NeutralColor,
	schema.ResponseBucket: NeutralColor,
}

// GetColorBucket returns a colored bucket name for console output.
func GetColorBucket(b schema.Bucket) string {
	if c, ok := bucketColors[b]; ok {
		return c.Sprint(string(b))
	}
	return string(b)
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".repopulse_cache.db"
	}
	return filepath.Join(homeDir, ".repopulse_cache.db")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// ParseRepos splits comma-separated repository arguments, dropping blanks
// and duplicates while keeping order.
func ParseRepos(args []string) []string {
	var repos []string
	seen := make(map[string]struct{})
	for _, arg := range args {
		for part := range strings.SplitSeq(arg, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if _, ok := seen[trimmed]; ok {
				continue
			}
			seen[trimmed] = struct{}{}
			repos = append(repos, trimmed)
		}
	}
	return repos
}
