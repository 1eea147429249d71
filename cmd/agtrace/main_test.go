package main

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"agtrace/internal/config"
	"agtrace/internal/event"
	"agtrace/internal/provider"
)

func TestParseTimeFlag(t *testing.T) {
	got, err := parseTimeFlag("after", "2026-03-04T12:00:00Z")
	if err != nil || got == nil {
		t.Fatalf("RFC3339: %v %v", got, err)
	}

	got, err = parseTimeFlag("after", "2026-03-04")
	if err != nil {
		t.Fatalf("date-only: %v", err)
	}
	want := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if got, err := parseTimeFlag("after", ""); err != nil || got != nil {
		t.Errorf("empty must yield nil, nil")
	}
	if _, err := parseTimeFlag("after", "yesterday"); err == nil {
		t.Error("invalid value must error")
	}
}

func TestBuildRegistryAppliesOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.Models = []config.ModelOverride{{Prefix: "gpt-5", ContextWindow: 500_000}}

	reg := buildRegistry(nil, cfg)
	if w, ok := reg.Window("gpt-5"); !ok || w != 500_000 {
		t.Errorf("window = %d, %v", w, ok)
	}
}

func TestSessionUUIDFallbacks(t *testing.T) {
	id := uuid.New()
	events := []event.Event{{SessionID: id}}
	if got := sessionUUID(provider.SessionIndex{}, events); got != id {
		t.Errorf("events present: got %s", got)
	}

	idx := provider.SessionIndex{SessionID: id.String()}
	if got := sessionUUID(idx, nil); got != id {
		t.Errorf("parseable id: got %s", got)
	}

	idx = provider.SessionIndex{SessionID: "not-a-uuid", MainFile: "/logs/a.jsonl"}
	got := sessionUUID(idx, nil)
	if got == uuid.Nil {
		t.Error("synthetic id must not be nil")
	}
	if again := sessionUUID(idx, nil); again != got {
		t.Error("synthetic id must be stable")
	}
}

func TestRootCommandWiring(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"list", "view", "events", "analyze", "info", "providers"} {
		if !names[want] {
			t.Errorf("missing subcommand %s", want)
		}
	}
}
