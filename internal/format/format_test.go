package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"agtrace/internal/analysis"
	"agtrace/internal/provider"
)

func sampleEntries() []provider.SessionIndex {
	return []provider.SessionIndex{
		{
			Provider:  "claude",
			SessionID: "11111111-2222-3333-4444-555555555555",
			ModTime:   time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC),
			MainFile:  "/logs/a.jsonl",
			Snippet:   "fix the failing\ntest",
		},
		{
			Provider:  "codex",
			SessionID: "synthetic-id",
			ModTime:   time.Date(2026, 3, 4, 13, 0, 0, 0, time.UTC),
			MainFile:  "/logs/b.jsonl",
			Synthetic: true,
		},
	}
}

func TestWriteEntriesPlain(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEntries(&buf, sampleEntries(), true, "plain"); err != nil {
		t.Fatalf("WriteEntries: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "modified\t") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "fix the failing\\ntest") {
		t.Errorf("newlines must be escaped: %q", lines[1])
	}
}

func TestWriteEntriesJSONL(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEntries(&buf, sampleEntries(), false, "jsonl"); err != nil {
		t.Fatalf("WriteEntries: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	var rec entryRecord
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatalf("line 2 not valid JSON: %v", err)
	}
	if rec.Provider != "codex" || !rec.Synthetic {
		t.Errorf("record = %+v", rec)
	}
}

func TestWriteEntriesTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEntries(&buf, nil, true, "table"); err != nil {
		t.Fatalf("WriteEntries: %v", err)
	}
	if !strings.Contains(buf.String(), "(no sessions)") {
		t.Errorf("empty table = %q", buf.String())
	}
}

func TestWriteEntriesUnsupportedFormat(t *testing.T) {
	if err := WriteEntries(&bytes.Buffer{}, nil, false, "xml"); err == nil {
		t.Error("unsupported format must error")
	}
}

func TestWriteReportTable(t *testing.T) {
	report := &analysis.Report{
		SessionID: uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		Score:     85,
		Insights: []analysis.Insight{
			{Lens: "loop", Severity: analysis.SeverityWarning, TurnIndex: 2, Count: 3, Message: "shell:make test repeated 3 times in a row"},
		},
	}

	var buf bytes.Buffer
	if err := WriteReport(&buf, report, "table"); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "score 85/100") || !strings.Contains(out, "loop") {
		t.Errorf("output = %q", out)
	}
}

func TestWriteReportCleanSession(t *testing.T) {
	report := &analysis.Report{SessionID: uuid.New(), Score: 100}
	var buf bytes.Buffer
	if err := WriteReport(&buf, report, ""); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if !strings.Contains(buf.String(), "No findings.") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWriteReportJSONRoundtrip(t *testing.T) {
	report := &analysis.Report{
		SessionID: uuid.New(),
		Score:     70,
		Insights: []analysis.Insight{
			{Lens: "failure", Severity: analysis.SeverityCritical, TurnIndex: 1, Count: 4, Message: "4 failed tool executions"},
		},
	}

	var buf bytes.Buffer
	if err := WriteReport(&buf, report, "json"); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	var decoded analysis.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Score != 70 || len(decoded.Insights) != 1 {
		t.Errorf("decoded = %+v", decoded)
	}
}
