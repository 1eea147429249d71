package claude

import (
	"encoding/json"
	"testing"

	"agtrace/internal/event"
	"agtrace/internal/provider"
)

func TestNormalizeToolCallKnownShapes(t *testing.T) {
	call := normalizeToolCall("Edit", json.RawMessage(`{"file_path":"a.go","old_string":"x","new_string":"y","replace_all":true}`), "toolu_1")
	edit, ok := call.Args.(event.FileEditArgs)
	if !ok {
		t.Fatalf("args = %T, want FileEditArgs", call.Args)
	}
	if edit.FilePath != "a.go" || !edit.ReplaceAll {
		t.Errorf("edit = %+v", edit)
	}
	if call.Kind != event.ToolKindWrite {
		t.Errorf("kind = %s, want write", call.Kind)
	}

	call = normalizeToolCall("Bash", json.RawMessage(`{"command":"go test ./...","description":"run tests","timeout":120000}`), "toolu_2")
	exec, ok := call.Args.(event.ExecuteArgs)
	if !ok {
		t.Fatalf("args = %T, want ExecuteArgs", call.Args)
	}
	if exec.Command != "go test ./..." || exec.TimeoutMS != 120000 {
		t.Errorf("exec = %+v", exec)
	}
}

func TestNormalizeToolCallNullRequiredField(t *testing.T) {
	// A Read-family tool with a null required field must fall back to
	// Generic with the original JSON retained, never fail.
	raw := json.RawMessage(`{"file_path":null}`)
	call := normalizeToolCall("Read", raw, "toolu_3")

	generic, ok := call.Args.(event.GenericArgs)
	if !ok {
		t.Fatalf("args = %T, want GenericArgs", call.Args)
	}
	if string(generic.Raw) != `{"file_path":null}` {
		t.Errorf("raw = %s, original payload not retained", generic.Raw)
	}
	// Name-heuristic fallback still classifies it.
	if call.Kind != event.ToolKindRead {
		t.Errorf("kind = %s, want read", call.Kind)
	}
}

func TestNormalizeToolCallMcp(t *testing.T) {
	call := normalizeToolCall("mcp__github__create_issue", json.RawMessage(`{"title":"bug"}`), "toolu_4")
	if call.Origin != event.ToolOriginMCP {
		t.Errorf("origin = %s, want mcp", call.Origin)
	}
	mcp, ok := call.Args.(event.McpArgs)
	if !ok {
		t.Fatalf("args = %T, want McpArgs", call.Args)
	}
	if mcp.Server != "github" || mcp.Tool != "create_issue" {
		t.Errorf("mcp = %+v", mcp)
	}
}

func TestNormalizeToolCallUnknownTool(t *testing.T) {
	call := normalizeToolCall("SomethingNew", json.RawMessage(`{"foo":1}`), "")
	if _, ok := call.Args.(event.GenericArgs); !ok {
		t.Fatalf("args = %T, want GenericArgs", call.Args)
	}
	if call.Kind != event.ToolKindOther {
		t.Errorf("kind = %s, want other", call.Kind)
	}
}

func TestNormalizeTodoWritePlanKind(t *testing.T) {
	raw := json.RawMessage(`{"todos":[{"content":"write tests","status":"pending"}]}`)
	call := normalizeToolCall("TodoWrite", raw, "toolu_5")
	if call.Kind != event.ToolKindPlan {
		t.Errorf("kind = %s, want plan", call.Kind)
	}
	if _, ok := call.Args.(event.GenericArgs); !ok {
		t.Fatalf("args = %T, want GenericArgs (raw todos kept)", call.Args)
	}
}

func TestNormalizeSystemLocalCommand(t *testing.T) {
	n := newNormalizer("system-records", &provider.Diagnostics{})
	var events []event.Event

	// Older logs carry slash commands as system records.
	n.appendRecord(&events, &record{
		Type:      recordTypeSystem,
		UUID:      "rec_cmd",
		Subtype:   "local_command",
		Content:   "/clear keep decisions",
		Timestamp: "2026-01-05T10:00:00Z",
	})
	// Other subtypes stay out of the timeline.
	n.appendRecord(&events, &record{
		Type:      recordTypeSystem,
		UUID:      "rec_other",
		Subtype:   "turn_duration",
		Content:   "12s",
		Timestamp: "2026-01-05T10:00:01Z",
	})

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	slash, ok := events[0].Payload.(event.SlashCommandPayload)
	if !ok {
		t.Fatalf("payload = %T, want SlashCommandPayload", events[0].Payload)
	}
	if slash.Command != "/clear" || slash.Args != "keep decisions" {
		t.Errorf("slash = %+v", slash)
	}
}

func TestNormalizeProgressHook(t *testing.T) {
	n := newNormalizer("progress-records", &provider.Diagnostics{})
	var events []event.Event

	n.appendRecord(&events, &record{
		Type:      recordTypeProgress,
		UUID:      "rec_hook",
		Timestamp: "2026-01-05T10:00:02Z",
		Data:      json.RawMessage(`{"type":"hook_progress","hookEvent":"PostToolUse","hookName":"format","command":"gofmt -w ."}`),
	})
	// Bash/mcp/agent progress is covered elsewhere and must not be emitted.
	n.appendRecord(&events, &record{
		Type:      recordTypeProgress,
		UUID:      "rec_bash",
		Timestamp: "2026-01-05T10:00:03Z",
		Data:      json.RawMessage(`{"type":"bash_progress","output":"compiling"}`),
	})

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	notify, ok := events[0].Payload.(event.NotificationPayload)
	if !ok {
		t.Fatalf("payload = %T, want NotificationPayload", events[0].Payload)
	}
	if notify.Text != "Hook: format (PostToolUse)" || notify.Level != "info" {
		t.Errorf("notify = %+v", notify)
	}
}

func TestParseSlashCommand(t *testing.T) {
	cmd, args, ok := parseSlashCommand("<command-name>/compact</command-name>\n<command-args>keep decisions</command-args>")
	if !ok || cmd != "/compact" || args != "keep decisions" {
		t.Fatalf("got (%q, %q, %v)", cmd, args, ok)
	}
	// Non-slash command names are plain text.
	if _, _, ok := parseSlashCommand("<command-name>clear</command-name>"); ok {
		t.Error("command without leading / should not match")
	}
	if _, _, ok := parseSlashCommand("just some text"); ok {
		t.Error("plain text should not match")
	}
}
