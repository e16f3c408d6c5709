// Package outwriter has output and writer logic.
package outwriter

import (
	"os"
	"strings"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
	"golang.org/x/term"
)

// pageTitles are the headings of each page in text output.
var pageTitles = map[schema.Page]string{
	schema.DriftPage:     "Contributor Growth by Engagement",
	schema.StalenessPage: "Issue Activity - Staleness",
	schema.ResponsePage:  "Issue First Response",
}

// pageAlerts are shown when the thresholds of a page are out of order.
var pageAlerts = map[schema.Page]string{
	schema.DriftPage:     "Please ensure that 'Months Until Drifting' is less than 'Months Until Away'",
	schema.StalenessPage: "Please ensure that 'Days Until Staling' is less than 'Days Until Stale'",
}

// noDataText replaces a table when the cached dataset is empty.
const noDataText = "No data available"

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WritePages prints page results using the configured output format.
func (ow *OutWriter) WritePages(outputs []schema.PageOutput, cfg *contract.Config) error {
	return PrintPageResults(outputs, cfg)
}

// WriteRuns prints run records using the configured output format.
func (ow *OutWriter) WriteRuns(runs []schema.RunRecord, cfg *contract.Config) error {
	return PrintRuns(runs, cfg)
}

// PageTitle returns the heading of page.
func PageTitle(page schema.Page) string {
	if title, ok := pageTitles[page]; ok {
		return title
	}
	return string(page)
}

// AlertText returns the threshold alert of page.
func AlertText(page schema.Page) string {
	if text, ok := pageAlerts[page]; ok {
		return text
	}
	return "Please ensure that the thresholds are in increasing order"
}

// shouldColor reports whether text output to outputFile gets colored headers.
func shouldColor(cfg *contract.Config) bool {
	return cfg.UseColors && cfg.OutputFile == "" && term.IsTerminal(int(os.Stdout.Fd()))
}

// joinRepos renders a repository list for tables.
func joinRepos(repos []string) string {
	return strings.Join(repos, ",")
}
