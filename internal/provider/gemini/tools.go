package gemini

import (
	"encoding/json"

	"agtrace/internal/event"
	"agtrace/internal/provider"
)

// Known tool argument shapes. Required fields are pointers so a null or
// missing field fails validation and the call falls back to Generic with
// the raw arguments intact.
type readFileArgs struct {
	FilePath *string `json:"file_path"`
}

type writeFileArgs struct {
	FilePath *string `json:"file_path"`
	Content  *string `json:"content"`
}

type replaceArgs struct {
	FilePath  *string `json:"file_path"`
	OldString *string `json:"old_string"`
	NewString *string `json:"new_string"`
}

type runShellCommandArgs struct {
	Command     *string `json:"command"`
	Description string  `json:"description"`
}

type webSearchArgs struct {
	Query *string `json:"query"`
}

type writeTodosArgs struct {
	Todos []json.RawMessage `json:"todos"`
}

// normalizeToolCall maps a Gemini tool invocation onto the canonical
// payload.
func normalizeToolCall(name string, args json.RawMessage, callID string) event.ToolCallPayload {
	payload := event.ToolCallPayload{
		Name:           name,
		ProviderCallID: callID,
		Origin:         event.ToolOriginSystem,
	}

	switch name {
	case "read_file", "read_many_files":
		var a readFileArgs
		if json.Unmarshal(args, &a) == nil && a.FilePath != nil {
			payload.Kind = event.ToolKindRead
			payload.Args = event.FileReadArgs{FilePath: *a.FilePath}
			return payload
		}
	case "write_file":
		var a writeFileArgs
		if json.Unmarshal(args, &a) == nil && a.FilePath != nil && a.Content != nil {
			payload.Kind = event.ToolKindWrite
			payload.Args = event.FileWriteArgs{FilePath: *a.FilePath, Content: *a.Content}
			return payload
		}
	case "replace":
		var a replaceArgs
		if json.Unmarshal(args, &a) == nil && a.FilePath != nil && a.OldString != nil && a.NewString != nil {
			payload.Kind = event.ToolKindWrite
			payload.Args = event.FileEditArgs{
				FilePath:  *a.FilePath,
				OldString: *a.OldString,
				NewString: *a.NewString,
			}
			return payload
		}
	case "run_shell_command":
		var a runShellCommandArgs
		if json.Unmarshal(args, &a) == nil && a.Command != nil {
			payload.Kind = event.ToolKindExecute
			payload.Args = event.ExecuteArgs{Command: *a.Command, Description: a.Description}
			return payload
		}
	case "google_web_search":
		var a webSearchArgs
		if json.Unmarshal(args, &a) == nil && a.Query != nil {
			payload.Kind = event.ToolKindSearch
			payload.Args = event.SearchArgs{Query: *a.Query}
			return payload
		}
	case "write_todos":
		var a writeTodosArgs
		if json.Unmarshal(args, &a) == nil && len(a.Todos) > 0 {
			payload.Kind = event.ToolKindPlan
			payload.Args = event.GenericArgs{Raw: cloneRaw(args)}
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
