package codex

import (
	"encoding/json"
	"testing"

	"agtrace/internal/event"
	"agtrace/internal/provider"
)

func TestNormalizeShellV2ThenV1(t *testing.T) {
	v2 := normalizeToolCall("shell", json.RawMessage(`{"command":["ls","-la"],"timeout_ms":5000}`), "c1")
	exec, ok := v2.Args.(event.ExecuteArgs)
	if !ok || exec.Command != "ls -la" || exec.TimeoutMS != 5000 {
		t.Errorf("v2 args = %#v", v2.Args)
	}

	v1 := normalizeToolCall("shell", json.RawMessage(`{"cmd":["git","status"]}`), "c2")
	exec, ok = v1.Args.(event.ExecuteArgs)
	if !ok || exec.Command != "git status" {
		t.Errorf("v1 args = %#v", v1.Args)
	}
}

func TestNormalizeApplyPatch(t *testing.T) {
	patch := "*** Begin Patch\n*** Update File: internal/fetch.go\n@@\n-old\n+new\n*** End Patch"
	raw, _ := json.Marshal(map[string]string{"input": patch})

	call := normalizeToolCall("apply_patch", raw, "c3")
	if call.Kind != event.ToolKindWrite {
		t.Errorf("kind = %s, want write", call.Kind)
	}
	edit, ok := call.Args.(event.FileEditArgs)
	if !ok || edit.FilePath != "internal/fetch.go" {
		t.Errorf("args = %#v", call.Args)
	}

	add := "*** Begin Patch\n*** Add File: internal/retry.go\n+package internal\n*** End Patch"
	raw, _ = json.Marshal(map[string]string{"input": add})
	call = normalizeToolCall("apply_patch", raw, "c4")
	write, ok := call.Args.(event.FileWriteArgs)
	if !ok || write.FilePath != "internal/retry.go" {
		t.Errorf("args = %#v", call.Args)
	}
}

func TestNormalizeUnknownToolFallsBack(t *testing.T) {
	call := normalizeToolCall("mystery_widget", json.RawMessage(`{"x":1}`), "c5")
	if call.Kind != event.ToolKindOther {
		t.Errorf("kind = %s, want other", call.Kind)
	}
	generic, ok := call.Args.(event.GenericArgs)
	if !ok || string(generic.Raw) != `{"x":1}` {
		t.Errorf("args = %#v", call.Args)
	}
}

func TestNormalizeMcpTool(t *testing.T) {
	call := normalizeToolCall("mcp__github__create_issue", json.RawMessage(`{"title":"bug"}`), "c6")
	if call.Origin != event.ToolOriginMCP {
		t.Errorf("origin = %s, want mcp", call.Origin)
	}
	mcp, ok := call.Args.(event.McpArgs)
	if !ok || mcp.Server != "github" || mcp.Tool != "create_issue" {
		t.Errorf("args = %#v", call.Args)
	}
}

func TestParseArgumentsFallback(t *testing.T) {
	if got := string(parseArguments(`{"ok":true}`)); got != `{"ok":true}` {
		t.Errorf("valid JSON should pass through, got %s", got)
	}

	wrapped := parseArguments(`not json {`)
	var m map[string]string
	if err := json.Unmarshal(wrapped, &m); err != nil {
		t.Fatalf("wrapped form invalid: %v", err)
	}
	if m["raw"] != "not json {" {
		t.Errorf("raw = %q", m["raw"])
	}
}

func TestOutputIsError(t *testing.T) {
	cases := []struct {
		output string
		want   bool
	}{
		{"Exit Code: 0\nall good", false},
		{"Exit Code: 1\nfailure", true},
		{"Exit Code: 127\ncommand not found", true},
		{"no marker at all", false},
	}
	for _, tc := range cases {
		if got := outputIsError(tc.output); got != tc.want {
			t.Errorf("outputIsError(%q) = %v, want %v", tc.output, got, tc.want)
		}
	}
}

func TestSubagentSessionStream(t *testing.T) {
	diag := &provider.Diagnostics{}
	n := newNormalizer("sub-session", diag)

	var events []event.Event
	n.appendLine(&events, &record{
		Timestamp: "2026-01-10T10:00:00.000Z",
		Type:      lineSessionMeta,
		Payload:   json.RawMessage(`{"id":"abc","timestamp":"2026-01-10T10:00:00.000Z","source":{"subagent":"review"}}`),
	})
	n.appendLine(&events, &record{
		Timestamp: "2026-01-10T10:00:01.000Z",
		Type:      lineResponseItem,
		Payload:   json.RawMessage(`{"type":"message","role":"user","content":[{"type":"input_text","text":"review the diff"}]}`),
	})

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Stream.String() != "subagent:review" {
		t.Errorf("stream = %s, want subagent:review", events[0].Stream)
	}
}

func TestReasoningWithoutSummarySkipped(t *testing.T) {
	diag := &provider.Diagnostics{}
	n := newNormalizer("s", diag)

	var events []event.Event
	n.appendLine(&events, &record{
		Timestamp: "2026-01-10T10:00:00.000Z",
		Type:      lineResponseItem,
		Payload:   json.RawMessage(`{"type":"reasoning","summary":[]}`),
	})
	if len(events) != 0 {
		t.Errorf("encrypted reasoning with no summary should emit nothing, got %d events", len(events))
	}
}

func TestProbe(t *testing.T) {
	a := &adapter{}
	if a.Probe("sessions/2026/01/10/"+fixtureFile) != provider.ProbeHigh {
		t.Error("rollout file should probe high")
	}
	if a.Probe("sessions/history.jsonl") != provider.ProbeNoMatch {
		t.Error("non-rollout jsonl should not match")
	}
}
