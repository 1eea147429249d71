package codex

import (
	"encoding/json"
	"regexp"
	"strings"

	"agtrace/internal/event"
	"agtrace/internal/provider"
)

// shellArgsV2 is the current shell tool shape (argv list).
type shellArgsV2 struct {
	Command   []string `json:"command"`
	TimeoutMS int64    `json:"timeout_ms"`
	Workdir   string   `json:"workdir"`
}

// shellArgsV1 is the pre-0.3x shape ("cmd" instead of "command").
type shellArgsV1 struct {
	Cmd       []string `json:"cmd"`
	TimeoutMS int64    `json:"timeout_ms"`
}

var (
	patchUpdateRe = regexp.MustCompile(`\*\*\* Update File: (.+)`)
	patchAddRe    = regexp.MustCompile(`\*\*\* Add File: (.+)`)
)

// parseArguments decodes the JSON-string arguments of a function call.
// Unparseable strings are wrapped as {"raw": ...} so the payload survives
// verbatim.
func parseArguments(arguments string) json.RawMessage {
	trimmed := strings.TrimSpace(arguments)
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	wrapped, err := json.Marshal(map[string]string{"raw": arguments})
	if err != nil {
		return json.RawMessage(`{"raw":""}`)
	}
	return wrapped
}

// normalizeToolCall maps a Codex function call onto the canonical payload.
// Shell shapes are tried newest first; apply_patch is classified from the
// patch header; everything else falls back to Generic.
func normalizeToolCall(name string, args json.RawMessage, callID string) event.ToolCallPayload {
	payload := event.ToolCallPayload{Name: name, ProviderCallID: callID}

	switch name {
	case "shell", "local_shell", "container.exec":
		var v2 shellArgsV2
		if json.Unmarshal(args, &v2) == nil && len(v2.Command) > 0 {
			payload.Origin = event.ToolOriginSystem
			payload.Kind = event.ToolKindExecute
			payload.Args = event.ExecuteArgs{
				Command:   strings.Join(v2.Command, " "),
				TimeoutMS: v2.TimeoutMS,
			}
			return payload
		}
		var v1 shellArgsV1
		if json.Unmarshal(args, &v1) == nil && len(v1.Cmd) > 0 {
			payload.Origin = event.ToolOriginSystem
			payload.Kind = event.ToolKindExecute
			payload.Args = event.ExecuteArgs{
				Command:   strings.Join(v1.Cmd, " "),
				TimeoutMS: v1.TimeoutMS,
			}
			return payload
		}
	case "apply_patch":
		var a struct {
			Input *string `json:"input"`
			Patch *string `json:"patch"`
		}
		if json.Unmarshal(args, &a) == nil {
			patch := ""
			if a.Input != nil {
				patch = *a.Input
			} else if a.Patch != nil {
				patch = *a.Patch
			}
			if patch != "" {
				payload.Origin = event.ToolOriginSystem
				payload.Kind = event.ToolKindWrite
				if m := patchUpdateRe.FindStringSubmatch(patch); m != nil {
					payload.Args = event.FileEditArgs{FilePath: strings.TrimSpace(m[1]), NewString: patch}
					return payload
				}
				if m := patchAddRe.FindStringSubmatch(patch); m != nil {
					payload.Args = event.FileWriteArgs{FilePath: strings.TrimSpace(m[1]), Content: patch}
					return payload
				}
			}
		}
	case "update_plan":
		var a struct {
			Plan []json.RawMessage `json:"plan"`
		}
		if json.Unmarshal(args, &a) == nil && len(a.Plan) > 0 {
			payload.Origin = event.ToolOriginSystem
			payload.Kind = event.ToolKindPlan
			payload.Args = event.GenericArgs{Raw: cloneRaw(args)}
			return payload
		}
	case "web_search":
		var a struct {
			Query *string `json:"query"`
		}
		if json.Unmarshal(args, &a) == nil && a.Query != nil {
			payload.Origin = event.ToolOriginSystem
			payload.Kind = event.ToolKindSearch
			payload.Args = event.SearchArgs{Query: *a.Query}
			return payload
		}
	}

	if server, tool, ok := provider.SplitMcpName(name); ok {
		payload.Origin = event.ToolOriginMCP
		payload.Kind = event.ToolKindOther
		payload.Args = event.McpArgs{Server: server, Tool: tool, Inner: cloneRaw(args)}
		return payload
	}

	payload.Origin, payload.Kind = provider.Classify(name)
	payload.Args = event.GenericArgs{Raw: cloneRaw(args)}
	return payload
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}

var exitCodeRe = regexp.MustCompile(`Exit Code:\s*(\d+)`)

// outputIsError inspects shell output for a non-zero exit code marker.
func outputIsError(output string) bool {
	m := exitCodeRe.FindStringSubmatch(output)
	if m == nil {
		return false
	}
	return m[1] != "0"
}
