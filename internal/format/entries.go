// Package format renders session listings and analysis reports in the
// output modes the CLI exposes: table, plain, json, jsonl.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"agtrace/internal/provider"
)

// entryRecord is the export shape of one discovered session.
type entryRecord struct {
	Provider  string    `json:"provider"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
	ModTime   time.Time `json:"mod_time"`
	Path      string    `json:"path"`
	Snippet   string    `json:"snippet,omitempty"`
	Synthetic bool      `json:"synthetic,omitempty"`
}

func toRecord(e provider.SessionIndex) entryRecord {
	return entryRecord{
		Provider:  e.Provider,
		SessionID: e.SessionID,
		Timestamp: e.Timestamp,
		ModTime:   e.ModTime,
		Path:      e.MainFile,
		Snippet:   e.Snippet,
		Synthetic: e.Synthetic,
	}
}

// WriteEntries writes discovered sessions to w in the requested format.
func WriteEntries(w io.Writer, entries []provider.SessionIndex, includeHeader bool, format string) error {
	switch strings.ToLower(format) {
	case "", "table":
		return writeEntriesTable(w, entries, includeHeader)
	case "plain":
		return writeEntriesPlain(w, entries, includeHeader)
	case "json":
		return writeJSON(w, records(entries))
	case "jsonl":
		return writeJSONL(w, records(entries))
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func records(entries []provider.SessionIndex) []entryRecord {
	out := make([]entryRecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, toRecord(e))
	}
	return out
}

func writeEntriesPlain(w io.Writer, entries []provider.SessionIndex, includeHeader bool) error {
	if includeHeader {
		if _, err := fmt.Fprintln(w, "modified\tprovider\tsession_id\tsnippet"); err != nil {
			return err
		}
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s\t%s\t%s\t%s",
			e.ModTime.Format(time.RFC3339),
			e.Provider,
			e.SessionID,
			escapeNewlines(e.Snippet),
		)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeEntriesTable(w io.Writer, entries []provider.SessionIndex, includeHeader bool) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = true
	tw.Style().Options.SeparateHeader = true
	tw.Style().Options.DrawBorder = true

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 4, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 80},
	})

	if includeHeader {
		tw.AppendHeader(table.Row{"Modified", "Provider", "Session ID", "Snippet"})
	}

	for _, e := range entries {
		id := e.SessionID
		if e.Synthetic {
			id += " *"
		}
		tw.AppendRow(table.Row{
			e.ModTime.Format(time.RFC3339),
			e.Provider,
			id,
			escapeNewlines(e.Snippet),
		})
	}
	if len(entries) == 0 {
		tw.AppendRow(table.Row{"-", "-", "(no sessions)", "-"})
	}

	_ = tw.Render()
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSONL[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

func escapeNewlines(s string) string {
	return strings.ReplaceAll(s, "\n", "\\n")
}
