package outwriter

import (
	"io"
	"slices"
	"strconv"

	"github.com/huangsam/repopulse/internal/source"
	"github.com/huangsam/repopulse/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteLoadReports prints one row per stored table.
func WriteLoadReports(w io.Writer, reports []source.LoadReport) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Source", "Repo", "Query", "Rows"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	var data [][]string
	for _, r := range reports {
		queries := make([]schema.QueryName, 0, len(r.Rows))
		for q := range r.Rows {
			queries = append(queries, q)
		}
		slices.Sort(queries)
		for _, q := range queries {
			data = append(data, []string{r.Source, r.Repo, string(q), strconv.Itoa(r.Rows[q])})
		}
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
