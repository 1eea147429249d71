// Package codex adapts Codex CLI rollout logs (JSONL under
// ~/.codex/sessions) to the canonical event model.
package codex

import "encoding/json"

// Top-level "type" values in rollout lines.
const (
	lineSessionMeta  = "session_meta"
	lineResponseItem = "response_item"
	lineEventMsg     = "event_msg"
	lineTurnContext  = "turn_context"
)

// record is the envelope of every rollout line.
type record struct {
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

// sessionMeta is the first (usually) line of a rollout file.
type sessionMeta struct {
	ID         string          `json:"id"`
	Timestamp  string          `json:"timestamp"`
	CWD        string          `json:"cwd"`
	Originator string          `json:"originator"`
	CLIVersion string          `json:"cli_version"`
	Source     json.RawMessage `json:"source"`
}

// subagentSource matches the {"subagent": "review"} form of the source
// field; regular CLI sessions carry the plain string "cli" instead.
type subagentSource struct {
	Subagent string `json:"subagent"`
}

// subagentName returns the subagent label when the session was spawned as
// one, or "" for a regular CLI session.
func (m *sessionMeta) subagentName() string {
	var s subagentSource
	if json.Unmarshal(m.Source, &s) == nil && s.Subagent != "" {
		return s.Subagent
	}
	return ""
}

// responseItem covers the payload.type variants of response_item lines.
type responseItem struct {
	Type string `json:"type"`

	// message
	Role    string           `json:"role"`
	Content []messageContent `json:"content"`

	// reasoning
	Summary []summaryText `json:"summary"`

	// function_call / custom_tool_call
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Input     string `json:"input"`
	CallID    string `json:"call_id"`

	// function_call_output / custom_tool_call_output
	Output string `json:"output"`
}

type messageContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type summaryText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// eventMsg covers the payload.type variants of event_msg lines. Most are
// duplicates of response_item content and are skipped; token_count is the
// one the pipeline consumes.
type eventMsg struct {
	Type string     `json:"type"`
	Info *tokenInfo `json:"info"`
}

type tokenInfo struct {
	TotalTokenUsage    rolloutUsage `json:"total_token_usage"`
	LastTokenUsage     rolloutUsage `json:"last_token_usage"`
	ModelContextWindow int          `json:"model_context_window"`
}

type rolloutUsage struct {
	InputTokens           int `json:"input_tokens"`
	CachedInputTokens     int `json:"cached_input_tokens"`
	OutputTokens          int `json:"output_tokens"`
	ReasoningOutputTokens int `json:"reasoning_output_tokens"`
	TotalTokens           int `json:"total_tokens"`
}

// turnContext announces the model and policies in effect for following
// items.
type turnContext struct {
	Model string `json:"model"`
	CWD   string `json:"cwd"`
}
