package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/parquet"
	"github.com/huangsam/repopulse/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// runTimeFormat is the layout of run start times.
const runTimeFormat = "2006-01-02 15:04:05"

// PrintRuns outputs run records, dispatching based on the output format configured.
func PrintRuns(runs []schema.RunRecord, cfg *contract.Config) error {
	var err error
	switch cfg.Output {
	case schema.JSONOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, runs)
		}, "Wrote JSON run history")
	case schema.CSVOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteRunsCSV(w, runs)
		}, "Wrote CSV run history")
	case schema.ParquetOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WriteRunRows(w, parquet.RunRows(runs, joinRepos))
		}, "Wrote Parquet run history")
	default:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteRunsText(w, runs)
		}, "Wrote run history")
	}
	if err != nil {
		return fmt.Errorf("error writing run history: %w", err)
	}
	return nil
}

// runHeader is shared by the text and CSV layouts.
var runHeader = []string{"Run ID", "Started", "Page", "Repos", "Interval", "Outcome", "Rows", "Duration"}

func runRow(r schema.RunRecord) []string {
	return []string{
		r.ID.String(),
		r.StartedAt.Local().Format(runTimeFormat),
		string(r.Page),
		joinRepos(r.Repos),
		string(r.Granularity),
		string(r.Outcome),
		strconv.Itoa(r.Rows),
		r.Duration.String(),
	}
}

// WriteRunsText prints run records as a table.
func WriteRunsText(w io.Writer, runs []schema.RunRecord) error {
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(w, "No runs recorded")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header(runHeader)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	data := make([][]string, 0, len(runs))
	for _, r := range runs {
		data = append(data, runRow(r))
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// WriteRunsCSV writes run records as CSV.
func WriteRunsCSV(w io.Writer, runs []schema.RunRecord) error {
	header := []string{"run_id", "started_at", "page", "repos", "granularity", "outcome", "rows", "duration_ms"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range runs {
			row := []string{
				r.ID.String(),
				r.StartedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
				string(r.Page),
				joinRepos(r.Repos),
				string(r.Granularity),
				string(r.Outcome),
				strconv.Itoa(r.Rows),
				strconv.FormatInt(r.Duration.Milliseconds(), 10),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
