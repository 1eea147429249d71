package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"agtrace/internal/analysis"
)

// WriteReport writes one analysis report to w in the requested format.
func WriteReport(w io.Writer, report *analysis.Report, format string) error {
	switch strings.ToLower(format) {
	case "", "table":
		return writeReportTable(w, report)
	case "json":
		return writeJSON(w, report)
	case "jsonl":
		return writeJSONL(w, []*analysis.Report{report})
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// WriteReports writes many reports, one table or JSON line each.
func WriteReports(w io.Writer, reports []*analysis.Report, format string) error {
	switch strings.ToLower(format) {
	case "", "table":
		for i, r := range reports {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if err := writeReportTable(w, r); err != nil {
				return err
			}
		}
		return nil
	case "json":
		return writeJSON(w, reports)
	case "jsonl":
		return writeJSONL(w, reports)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeReportTable(w io.Writer, report *analysis.Report) error {
	if _, err := fmt.Fprintf(w, "Session %s: score %d/100\n", report.SessionID, report.Score); err != nil {
		return err
	}
	if len(report.Insights) == 0 {
		_, err := fmt.Fprintln(w, "No findings.")
		return err
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateHeader = true

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 5, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 80},
	})

	tw.AppendHeader(table.Row{"Turn", "Lens", "Severity", "Count", "Detail"})
	for _, in := range report.Insights {
		tw.AppendRow(table.Row{in.TurnIndex, in.Lens, string(in.Severity), in.Count, in.Message})
	}

	_ = tw.Render()
	return nil
}
