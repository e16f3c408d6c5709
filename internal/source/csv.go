package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// CSVSource reads the table of one query from a CSV file with a header row.
// Empty cells are null.
type CSVSource struct {
	Path  string
	Query schema.QueryName
}

var _ contract.EventSource = &CSVSource{} // Compile-time check

// Name implements contract.EventSource.
func (cs *CSVSource) Name() string { return "csv" }

// Fetch implements contract.EventSource.
func (cs *CSVSource) Fetch(_ context.Context, _ string) (map[schema.QueryName]schema.RawTable, error) {
	if _, ok := schema.ValidQueryNames[cs.Query]; !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownQuery, cs.Query)
	}

	file, err := os.Open(cs.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cs.Path, err)
	}
	defer func() { _ = file.Close() }()

	table, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", cs.Path, err)
	}
	return map[schema.QueryName]schema.RawTable{cs.Query: table}, nil
}

// ReadCSV parses a CSV stream with a header row into a raw table.
func ReadCSV(r io.Reader) (schema.RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return schema.RawTable{}, fmt.Errorf("missing header row")
	}
	if err != nil {
		return schema.RawTable{}, err
	}

	table := schema.RawTable{Columns: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return schema.RawTable{}, err
		}
		if len(record) != len(header) {
			return schema.RawTable{}, fmt.Errorf("row %d has %d fields, want %d", len(table.Rows)+2, len(record), len(header))
		}
		row := make([]*string, len(record))
		for i, v := range record {
			if v != "" {
				row[i] = schema.Cell(v)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
