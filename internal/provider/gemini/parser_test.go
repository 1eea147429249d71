package gemini

import (
	"path/filepath"
	"testing"

	"agtrace/internal/event"
	"agtrace/internal/provider"
)

const fixtureFile = "session-2026-02-03T11-20-05.json"

func fixturePath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join("testdata", name)
}

func fixtureIndex(t *testing.T) provider.SessionIndex {
	t.Helper()
	return provider.SessionIndex{
		Provider:  "gemini",
		SessionID: "6f9c2a84-1d35-4e7b-9a20-c3d4e5f60718",
		MainFile:  fixturePath(t, fixtureFile),
	}
}

func TestParseSessionEvents(t *testing.T) {
	events, diag, err := parseSession(fixtureIndex(t))
	if err != nil {
		t.Fatalf("parseSession: %v", err)
	}

	// user, reasoning, call, result, message, usage, notification; the
	// numeric-id user row is bookkeeping and dropped.
	if len(events) != 7 {
		t.Fatalf("got %d events, want 7", len(events))
	}
	if diag.Orphaned != 0 {
		t.Errorf("orphaned = %d, want 0", diag.Orphaned)
	}

	user, ok := events[0].Payload.(event.UserPayload)
	if !ok {
		t.Fatalf("event 0 payload = %T, want UserPayload", events[0].Payload)
	}
	if user.Text != "rename the config loader" {
		t.Errorf("user text = %q", user.Text)
	}

	reasoning, ok := events[1].Payload.(event.ReasoningPayload)
	if !ok {
		t.Fatalf("event 1 payload = %T, want ReasoningPayload", events[1].Payload)
	}
	if reasoning.Text != "Locating the loader: The config package exposes a single entry point." {
		t.Errorf("reasoning text = %q", reasoning.Text)
	}

	call, ok := events[2].Payload.(event.ToolCallPayload)
	if !ok {
		t.Fatalf("event 2 payload = %T, want ToolCallPayload", events[2].Payload)
	}
	if call.Name != "read_file" || call.Kind != event.ToolKindRead {
		t.Errorf("call = %s/%s, want read_file/read", call.Name, call.Kind)
	}
	read, ok := call.Args.(event.FileReadArgs)
	if !ok || read.FilePath != "internal/config/config.go" {
		t.Errorf("call args = %#v", call.Args)
	}

	result, ok := events[3].Payload.(event.ToolResultPayload)
	if !ok {
		t.Fatalf("event 3 payload = %T, want ToolResultPayload", events[3].Payload)
	}
	if result.CallID != events[2].ID {
		t.Errorf("result call id = %s, want %s", result.CallID, events[2].ID)
	}
	if result.Output != "package config" || result.IsError {
		t.Errorf("result = %+v", result)
	}

	if events[4].Model != "gemini-2.5-pro" {
		t.Errorf("model = %q, want gemini-2.5-pro", events[4].Model)
	}

	notif, ok := events[6].Payload.(event.NotificationPayload)
	if !ok {
		t.Fatalf("event 6 payload = %T, want NotificationPayload", events[6].Payload)
	}
	if notif.Level != "info" {
		t.Errorf("notification level = %q", notif.Level)
	}
}

func TestParseSessionUsageSidecar(t *testing.T) {
	events, _, err := parseSession(fixtureIndex(t))
	if err != nil {
		t.Fatalf("parseSession: %v", err)
	}

	usage, ok := events[5].Payload.(event.TokenUsagePayload)
	if !ok {
		t.Fatalf("event 5 payload = %T, want TokenUsagePayload", events[5].Payload)
	}
	if usage.Input.Cached != 400 || usage.Input.Uncached != 500 {
		t.Errorf("input = %+v, want cached 400 uncached 500", usage.Input)
	}
	if usage.Output.Generated != 120 || usage.Output.Reasoning != 30 || usage.Output.Tool != 15 {
		t.Errorf("output = %+v", usage.Output)
	}
	// Turn totals ride on the assistant message.
	if events[5].ParentID != events[4].ID {
		t.Errorf("usage parent = %s, want %s", events[5].ParentID, events[4].ID)
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
	header, err := extractHeader(fixturePath(t, fixtureFile))
	if err != nil {
		t.Fatalf("extractHeader: %v", err)
	}
	if header.sessionID != "6f9c2a84-1d35-4e7b-9a20-c3d4e5f60718" {
		t.Errorf("session id = %q", header.sessionID)
	}
	if header.snippet != "rename the config loader" {
		t.Errorf("snippet = %q; the numeric-id row should not become the snippet", header.snippet)
	}
}

func TestSessionFromLegacy(t *testing.T) {
	legacy := []legacyMessage{
		{SessionID: "legacy-session", MessageID: 1, Type: "user", Message: "first", Timestamp: "2025-05-01T10:00:00Z"},
		{SessionID: "legacy-session", MessageID: 2, Type: "user", Message: "second", Timestamp: "2025-05-01T10:05:00Z"},
	}
	s := sessionFromLegacy(legacy)
	if s.SessionID != "legacy-session" {
		t.Errorf("session id = %q", s.SessionID)
	}
	if len(s.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(s.Messages))
	}

	// Legacy rows keep numeric ids, so normalization yields no events but
	// the header is still usable for discovery.
	diag := &provider.Diagnostics{}
	n := newNormalizer(s.SessionID, diag)
	var events []event.Event
	n.appendSession(&events, s)
	if len(events) != 0 {
		t.Errorf("legacy rows should not produce events, got %d", len(events))
	}
}
