package event

import "github.com/google/uuid"

// Payload is the closed set of event payload variants. Exactly one concrete
// type implements each variant; consumers switch on the concrete type.
type Payload interface {
	payloadType() string
}

// UserPayload is a user-authored message.
type UserPayload struct {
	Text string
}

// ReasoningPayload is model thinking text not shown as a response.
type ReasoningPayload struct {
	Text string
}

// MessagePayload is an assistant response message.
type MessagePayload struct {
	Text string
}

// ToolResultPayload is the outcome of a prior tool call. CallID references
// the ToolCall event's id. Orphaned is set when no matching call exists in
// the session; the result is still emitted rather than dropped.
type ToolResultPayload struct {
	CallID   uuid.UUID
	Output   string
	IsError  bool
	Orphaned bool
}

// NotificationPayload is an informational system message.
type NotificationPayload struct {
	Text  string
	Level string
}

// SlashCommandPayload records a user-invoked slash command before expansion.
type SlashCommandPayload struct {
	Command string
	Args    string
}

// TokenInput splits prompt tokens by cache residency.
type TokenInput struct {
	Cached   int `json:"cached"`
	Uncached int `json:"uncached"`
}

// Total returns all input tokens.
func (t TokenInput) Total() int { return t.Cached + t.Uncached }

// TokenOutput splits completion tokens by purpose.
type TokenOutput struct {
	Generated int `json:"generated"`
	Reasoning int `json:"reasoning"`
	Tool      int `json:"tool"`
}

// Total returns all output tokens.
func (t TokenOutput) Total() int { return t.Generated + t.Reasoning + t.Tool }

// TokenUsagePayload is a sidecar reporting the tokens consumed by one
// generation. ContextWindow carries a runtime-reported window size when the
// vendor log includes one (0 otherwise).
type TokenUsagePayload struct {
	Input         TokenInput  `json:"input"`
	Output        TokenOutput `json:"output"`
	ContextWindow int         `json:"context_window,omitempty"`
}

// Total returns input plus output tokens.
func (t TokenUsagePayload) Total() int { return t.Input.Total() + t.Output.Total() }

// Add accumulates o into t field by field.
func (t *TokenUsagePayload) Add(o TokenUsagePayload) {
	t.Input.Cached += o.Input.Cached
	t.Input.Uncached += o.Input.Uncached
	t.Output.Generated += o.Output.Generated
	t.Output.Reasoning += o.Output.Reasoning
	t.Output.Tool += o.Output.Tool
	if o.ContextWindow > 0 {
		t.ContextWindow = o.ContextWindow
	}
}

func (UserPayload) payloadType() string         { return "user" }
func (ReasoningPayload) payloadType() string    { return "reasoning" }
func (MessagePayload) payloadType() string      { return "message" }
func (ToolCallPayload) payloadType() string     { return "tool_call" }
func (ToolResultPayload) payloadType() string   { return "tool_result" }
func (TokenUsagePayload) payloadType() string   { return "token_usage" }
func (NotificationPayload) payloadType() string { return "notification" }
func (SlashCommandPayload) payloadType() string { return "slash_command" }
