package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/parquet"
	"github.com/huangsam/repopulse/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintPageResults outputs page results, dispatching based on the output format configured.
// When no page has data to show, nothing is written and an existing output
// file is left untouched.
func PrintPageResults(outputs []schema.PageOutput, cfg *contract.Config) error {
	if !hasRenderable(outputs) {
		printAlerts(outputs)
		return nil
	}

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WritePagesJSON(w, outputs)
		}, "Wrote JSON page results"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WritePagesCSV(w, outputs)
		}, "Wrote CSV page results"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WritePagesParquet(w, outputs)
		}, "Wrote Parquet page results"); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		// Default to human-readable table
		useColors := shouldColor(cfg)
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WritePagesText(w, outputs, useColors)
		}, "Wrote page tables"); err != nil {
			return fmt.Errorf("error writing table output: %w", err)
		}
		return nil
	}

	// Machine formats keep alerts out of the data stream
	printAlerts(outputs)
	return nil
}

// hasRenderable reports whether any page is ready or has an empty dataset.
func hasRenderable(outputs []schema.PageOutput) bool {
	for _, out := range outputs {
		switch out.Result.Outcome {
		case schema.OutcomeReady, schema.OutcomeNoData:
			return true
		}
	}
	return false
}

// printAlerts writes the alert of every page with invalid thresholds to stderr.
func printAlerts(outputs []schema.PageOutput) {
	for _, out := range outputs {
		if out.Result.Alert {
			_, _ = fmt.Fprintf(os.Stderr, "⚠️  %s: %s\n", PageTitle(out.Page), AlertText(out.Page))
		}
	}
}

// WritePagesText renders each page as a titled table. Pages that are not
// ready print nothing; invalid thresholds print the alert and empty datasets
// print a placeholder.
func WritePagesText(w io.Writer, outputs []schema.PageOutput, useColors bool) error {
	for _, out := range outputs {
		title := PageTitle(out.Page)
		switch out.Result.Outcome {
		case schema.OutcomeNotReady:
			continue
		case schema.OutcomeInvalidThresholds:
			_, _ = fmt.Fprintf(w, "⚠️  %s: %s\n", title, AlertText(out.Page))
			continue
		case schema.OutcomeNoData:
			_, _ = fmt.Fprintf(w, "%s: %s\n", title, noDataText)
			continue
		}
		if out.Result.Table == nil {
			continue
		}

		_, _ = fmt.Fprintf(w, "%s\n", title)
		if err := writeStatusTable(w, *out.Result.Table, useColors); err != nil {
			return err
		}
	}
	return nil
}

// writeStatusTable prints one status table with a date column and one column per bucket.
func writeStatusTable(w io.Writer, st schema.StatusTable, useColors bool) error {
	table := tablewriter.NewWriter(w)

	// --- 1. Define Headers ---
	headers := []string{"Date"}
	for _, b := range st.Buckets {
		if useColors {
			headers = append(headers, contract.GetColorBucket(b))
		} else {
			headers = append(headers, string(b))
		}
	}
	table.Header(headers)

	// 2. Configure Alignment
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// --- 3. Prepare Data Rows ---
	data := make([][]string, 0, len(st.Rows))
	for _, r := range st.Rows {
		data = append(data, countRow(r.Label.String(), r.Counts))
	}

	// --- 4. Render the table ---
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// countRow renders a label followed by its counts.
func countRow(label string, counts []int) []string {
	row := make([]string, 0, len(counts)+1)
	row = append(row, label)
	for _, c := range counts {
		row = append(row, strconv.Itoa(c))
	}
	return row
}

// WritePagesJSON writes a single page result as an object and several as an array.
func WritePagesJSON(w io.Writer, outputs []schema.PageOutput) error {
	if len(outputs) == 1 {
		return writeJSON(w, outputs[0])
	}
	return writeJSON(w, outputs)
}

// WritePagesCSV writes a single page in wide format (date plus one column per
// bucket) and several pages in long format (page, date, bucket, count).
func WritePagesCSV(w io.Writer, outputs []schema.PageOutput) error {
	if len(outputs) == 1 {
		out := outputs[0]
		header := []string{"date"}
		for _, b := range schema.PageBuckets[out.Page] {
			header = append(header, string(b))
		}
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			if out.Result.Table == nil {
				return nil
			}
			for _, r := range out.Result.Table.Rows {
				if err := cw.Write(countRow(r.Label.String(), r.Counts)); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return writeCSVWithHeader(w, []string{"page", "date", "bucket", "count"}, func(cw *csv.Writer) error {
		for _, c := range parquet.StatusCounts(readyTables(outputs)) {
			if err := cw.Write([]string{c.Page, c.Label, c.Bucket, strconv.FormatInt(c.Count, 10)}); err != nil {
				return err
			}
		}
		return nil
	})
}

// WritePagesParquet writes the ready pages in long format.
func WritePagesParquet(w io.Writer, outputs []schema.PageOutput) error {
	return parquet.WriteStatusCounts(w, parquet.StatusCounts(readyTables(outputs)))
}

// readyTables returns the tables of ready pages in input order.
func readyTables(outputs []schema.PageOutput) []schema.StatusTable {
	var tables []schema.StatusTable
	for _, out := range outputs {
		if out.Result.Outcome == schema.OutcomeReady && out.Result.Table != nil {
			tables = append(tables, *out.Result.Table)
		}
	}
	return tables
}
