package claude

import (
	"path/filepath"
	"testing"

	"agtrace/internal/event"
	"agtrace/internal/provider"
)

func fixturePath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join("testdata", name)
}

func fixtureIndex(t *testing.T) provider.SessionIndex {
	t.Helper()
	return provider.SessionIndex{
		Provider:  "claude",
		SessionID: "11111111-2222-3333-4444-555555555555",
		MainFile:  fixturePath(t, "session.jsonl"),
	}
}

func TestParseSessionEvents(t *testing.T) {
	events, diag, err := parseSession(fixtureIndex(t))
	if err != nil {
		t.Fatalf("parseSession: %v", err)
	}

	// user, reasoning, call, usage, result, message, usage, slash command
	if len(events) != 8 {
		t.Fatalf("got %d events, want 8", len(events))
	}
	if diag.Malformed != 1 {
		t.Errorf("malformed = %d, want 1 (the broken line)", diag.Malformed)
	}
	if diag.Orphaned != 0 {
		t.Errorf("orphaned = %d, want 0", diag.Orphaned)
	}

	if _, ok := events[0].Payload.(event.UserPayload); !ok {
		t.Errorf("event 0 payload = %T, want UserPayload", events[0].Payload)
	}
	if _, ok := events[1].Payload.(event.ReasoningPayload); !ok {
		t.Errorf("event 1 payload = %T, want ReasoningPayload", events[1].Payload)
	}

	call, ok := events[2].Payload.(event.ToolCallPayload)
	if !ok {
		t.Fatalf("event 2 payload = %T, want ToolCallPayload", events[2].Payload)
	}
	if call.Name != "Read" || call.Kind != event.ToolKindRead {
		t.Errorf("call = %s/%s, want Read/read", call.Name, call.Kind)
	}
	read, ok := call.Args.(event.FileReadArgs)
	if !ok || read.FilePath != "store_test.go" {
		t.Errorf("call args = %#v, want FileReadArgs{store_test.go}", call.Args)
	}

	result, ok := events[4].Payload.(event.ToolResultPayload)
	if !ok {
		t.Fatalf("event 4 payload = %T, want ToolResultPayload", events[4].Payload)
	}
	if result.Orphaned {
		t.Error("result should resolve against toolu_01")
	}
	if result.CallID != events[2].ID {
		t.Errorf("result call id = %s, want %s", result.CallID, events[2].ID)
	}

	if events[1].Model != "claude-sonnet-4-5-20250929" {
		t.Errorf("model = %q, want claude-sonnet-4-5-20250929", events[1].Model)
	}

	cmd, ok := events[7].Payload.(event.SlashCommandPayload)
	if !ok {
		t.Fatalf("event 7 payload = %T, want SlashCommandPayload", events[7].Payload)
	}
	if cmd.Command != "/review" || cmd.Args != "store" {
		t.Errorf("slash command = %q %q", cmd.Command, cmd.Args)
	}
}

func TestParseSessionUsageSidecar(t *testing.T) {
	events, _, err := parseSession(fixtureIndex(t))
	if err != nil {
		t.Fatalf("parseSession: %v", err)
	}

	usage, ok := events[3].Payload.(event.TokenUsagePayload)
	if !ok {
		t.Fatalf("event 3 payload = %T, want TokenUsagePayload", events[3].Payload)
	}
	if usage.Input.Cached != 910 || usage.Input.Uncached != 120 {
		t.Errorf("input = %+v, want cached 910 uncached 120", usage.Input)
	}
	if usage.Output.Generated != 40 {
		t.Errorf("output generated = %d, want 40", usage.Output.Generated)
	}
	// Sidecar is parented to the generation event before it.
	if events[3].ParentID != events[2].ID {
		t.Errorf("usage parent = %s, want %s", events[3].ParentID, events[2].ID)
	}
}

func TestParseSessionIdempotent(t *testing.T) {
	first, _, err := parseSession(fixtureIndex(t))
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}
	second, _, err := parseSession(fixtureIndex(t))
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("event counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].ParentID != second[i].ParentID {
			t.Errorf("event %d differs between runs", i)
		}
	}
}

func TestExtractHeader(t *testing.T) {
	// The first line (a summary record) carries no session id; extraction
	// must keep scanning.
	header, err := extractHeader(fixturePath(t, "session.jsonl"))
	if err != nil {
		t.Fatalf("extractHeader: %v", err)
	}
	if header.sessionID != "11111111-2222-3333-4444-555555555555" {
		t.Errorf("session id = %q", header.sessionID)
	}
	if header.snippet != "fix the failing test" {
		t.Errorf("snippet = %q", header.snippet)
	}
}
