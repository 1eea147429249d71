// Package claude adapts Claude Code session logs (JSONL under
// ~/.claude/projects) to the canonical event model.
package claude

import "encoding/json"

// Record type values observed in Claude Code JSONL logs.
const (
	recordTypeUser      = "user"
	recordTypeAssistant = "assistant"
	recordTypeSystem    = "system"
	recordTypeProgress  = "progress"
	recordTypeSummary   = "summary"
)

// System record subtypes the pipeline interprets.
const systemSubtypeLocalCommand = "local_command"

// record is the envelope shared by all Claude Code log lines. Fields the
// pipeline does not interpret stay in Message/ToolUseResult as raw JSON;
// the vendor schema changes without notice, so nothing here is required
// beyond what normalization reads.
type record struct {
	Type          string          `json:"type"`
	UUID          string          `json:"uuid"`
	ParentUUID    string          `json:"parentUuid"`
	SessionID     string          `json:"sessionId"`
	Timestamp     string          `json:"timestamp"`
	IsSidechain   bool            `json:"isSidechain"`
	IsMeta        bool            `json:"isMeta"`
	AgentID       string          `json:"agentId"`
	CWD           string          `json:"cwd"`
	Message       json.RawMessage `json:"message"`
	ToolUseResult json.RawMessage `json:"toolUseResult"`
	// Subtype and Content are set on system records; Data on progress ones.
	Subtype string          `json:"subtype"`
	Content string          `json:"content"`
	Data    json.RawMessage `json:"data"`
}

// progressData is the payload of a progress record. Hook runs are the only
// type surfaced as notifications; agent/bash/mcp progress is covered by the
// sidechain files and tool events.
type progressData struct {
	Type      string `json:"type"`
	HookEvent string `json:"hookEvent"`
	HookName  string `json:"hookName"`
	Command   string `json:"command"`
}

// message covers both user and assistant message bodies. Content is a
// string in old logs and a block array in new ones.
type message struct {
	Role    string          `json:"role"`
	Model   string          `json:"model"`
	Content json.RawMessage `json:"content"`
	Usage   *tokenUsage     `json:"usage"`
}

// contentBlock is one element of a content array. The populated fields
// depend on Type (text, thinking, tool_use, tool_result, image).
type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	Thinking  string          `json:"thinking"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   bool            `json:"is_error"`
	AgentID   string          `json:"agentId"`
}

type tokenUsage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
}

// contentBlocks decodes a message content field, accepting both the legacy
// plain-string form and the block-array form.
func contentBlocks(raw json.RawMessage) []contentBlock {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []contentBlock{{Type: "text", Text: s}}
	}
	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil
	}
	return blocks
}

// flattenResultContent renders a tool_result content field as text. It is
// a string, a block array, or absent depending on the tool.
func flattenResultContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return string(raw)
	}
	var out string
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			if out != "" {
				out += "\n"
			}
			out += b.Text
		}
	}
	return out
}
