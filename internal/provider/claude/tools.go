package claude

import (
	"encoding/json"

	"agtrace/internal/event"
	"agtrace/internal/provider"
)

// Argument shapes for Claude Code's built-in tools. Required fields are
// pointers so a structurally wrong payload (missing or null field) falls
// through to Generic instead of silently producing an empty value.

type bashArgs struct {
	Command     *string `json:"command"`
	Description string  `json:"description"`
	Timeout     int64   `json:"timeout"`
}

type readArgs struct {
	FilePath *string `json:"file_path"`
}

type globArgs struct {
	Pattern *string `json:"pattern"`
	Path    string  `json:"path"`
}

type grepArgs struct {
	Pattern *string `json:"pattern"`
	Path    string  `json:"path"`
}

type editArgs struct {
	FilePath   *string `json:"file_path"`
	OldString  *string `json:"old_string"`
	NewString  *string `json:"new_string"`
	ReplaceAll bool    `json:"replace_all"`
}

type writeArgs struct {
	FilePath *string `json:"file_path"`
	Content  *string `json:"content"`
}

type todoWriteArgs struct {
	Todos []struct {
		Content string `json:"content"`
		Status  string `json:"status"`
	} `json:"todos"`
}

// normalizeToolCall maps a Claude Code tool invocation onto the canonical
// payload. Known tools are tried against their argument shape; anything
// that fails to match falls back to Generic with the raw arguments kept
// verbatim. This never fails.
func normalizeToolCall(name string, args json.RawMessage, callID string) event.ToolCallPayload {
	payload := event.ToolCallPayload{Name: name, ProviderCallID: callID}

	switch name {
	case "Bash", "BashOutput":
		var a bashArgs
		if json.Unmarshal(args, &a) == nil && a.Command != nil {
			payload.Origin = event.ToolOriginSystem
			payload.Kind = event.ToolKindExecute
			payload.Args = event.ExecuteArgs{
				Command:     *a.Command,
				Description: a.Description,
				TimeoutMS:   a.Timeout,
			}
			return payload
		}
	case "Read", "NotebookRead":
		var a readArgs
		if json.Unmarshal(args, &a) == nil && a.FilePath != nil {
			payload.Origin = event.ToolOriginSystem
			payload.Kind = event.ToolKindRead
			payload.Args = event.FileReadArgs{FilePath: *a.FilePath}
			return payload
		}
	case "Glob":
		var a globArgs
		if json.Unmarshal(args, &a) == nil && a.Pattern != nil {
			payload.Origin = event.ToolOriginSystem
			payload.Kind = event.ToolKindRead
			payload.Args = event.FileReadArgs{Pattern: *a.Pattern, Path: a.Path}
			return payload
		}
	case "Grep":
		var a grepArgs
		if json.Unmarshal(args, &a) == nil && a.Pattern != nil {
			payload.Origin = event.ToolOriginSystem
			payload.Kind = event.ToolKindSearch
			payload.Args = event.SearchArgs{Pattern: *a.Pattern, Path: a.Path}
			return payload
		}
	case "Edit", "MultiEdit", "NotebookEdit":
		var a editArgs
		if json.Unmarshal(args, &a) == nil && a.FilePath != nil && a.OldString != nil && a.NewString != nil {
			payload.Origin = event.ToolOriginSystem
			payload.Kind = event.ToolKindWrite
			payload.Args = event.FileEditArgs{
				FilePath:   *a.FilePath,
				OldString:  *a.OldString,
				NewString:  *a.NewString,
				ReplaceAll: a.ReplaceAll,
			}
			return payload
		}
	case "Write":
		var a writeArgs
		if json.Unmarshal(args, &a) == nil && a.FilePath != nil && a.Content != nil {
			payload.Origin = event.ToolOriginSystem
			payload.Kind = event.ToolKindWrite
			payload.Args = event.FileWriteArgs{FilePath: *a.FilePath, Content: *a.Content}
			return payload
		}
	case "TodoWrite":
		var a todoWriteArgs
		if json.Unmarshal(args, &a) == nil && len(a.Todos) > 0 {
			// No unified plan shape; keep the raw todos but tag the kind.
			payload.Origin = event.ToolOriginSystem
			payload.Kind = event.ToolKindPlan
			payload.Args = event.GenericArgs{Raw: cloneRaw(args)}
			return payload
		}
	case "WebSearch":
		var a struct {
			Query *string `json:"query"`
		}
		if json.Unmarshal(args, &a) == nil && a.Query != nil {
			payload.Origin = event.ToolOriginSystem
			payload.Kind = event.ToolKindSearch
			payload.Args = event.SearchArgs{Query: *a.Query}
			return payload
		}
	case "WebFetch":
		var a struct {
			URL *string `json:"url"`
		}
		if json.Unmarshal(args, &a) == nil && a.URL != nil {
			payload.Origin = event.ToolOriginSystem
			payload.Kind = event.ToolKindRead
			payload.Args = event.FileReadArgs{Path: *a.URL}
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

// cloneRaw copies a raw message so retained arguments do not alias the
// scanner's line buffer.
func cloneRaw(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
