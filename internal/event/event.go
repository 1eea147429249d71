// Package event defines the canonical agent event model and the builder
// that assigns deterministic identity and causal links to normalized
// provider records.
package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Role is the normalized speaker of an event.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// Event is the canonical unit of the timeline. Events are immutable once
// built; identical raw input always yields an identical Event set.
type Event struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	// ParentID is the previous event in the same stream, or uuid.Nil for
	// the first event of a stream. Parents never cross streams.
	ParentID  uuid.UUID
	Timestamp time.Time
	Stream    StreamID
	Role      Role
	Payload   Payload
	// Model is the model in effect when the event was produced, when the
	// provider log records one.
	Model string
}

// roleFor derives the normalized role from a payload variant.
func roleFor(p Payload) Role {
	switch p.(type) {
	case UserPayload, SlashCommandPayload:
		return RoleUser
	case ReasoningPayload, MessagePayload, ToolCallPayload, TokenUsagePayload:
		return RoleAssistant
	case ToolResultPayload:
		return RoleTool
	default:
		return RoleSystem
	}
}

type eventJSON struct {
	ID        uuid.UUID       `json:"id"`
	SessionID uuid.UUID       `json:"session_id"`
	ParentID  *uuid.UUID      `json:"parent_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Stream    string          `json:"stream"`
	Role      Role            `json:"role"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Model     string          `json:"model,omitempty"`
}

// MarshalJSON renders the event with a type-discriminated payload, suitable
// for JSONL export.
func (e Event) MarshalJSON() ([]byte, error) {
	body, err := marshalPayload(e.Payload)
	if err != nil {
		return nil, err
	}
	out := eventJSON{
		ID:        e.ID,
		SessionID: e.SessionID,
		Timestamp: e.Timestamp,
		Stream:    e.Stream.String(),
		Role:      e.Role,
		Type:      e.Payload.payloadType(),
		Payload:   body,
		Model:     e.Model,
	}
	if e.ParentID != uuid.Nil {
		parent := e.ParentID
		out.ParentID = &parent
	}
	return json.Marshal(out)
}

func marshalPayload(p Payload) (json.RawMessage, error) {
	switch v := p.(type) {
	case UserPayload:
		return json.Marshal(struct {
			Text string `json:"text"`
		}{v.Text})
	case ReasoningPayload:
		return json.Marshal(struct {
			Text string `json:"text"`
		}{v.Text})
	case MessagePayload:
		return json.Marshal(struct {
			Text string `json:"text"`
		}{v.Text})
	case ToolCallPayload:
		args, err := json.Marshal(v.Args)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Name           string          `json:"name"`
			ProviderCallID string          `json:"provider_call_id,omitempty"`
			Origin         ToolOrigin      `json:"origin"`
			Kind           ToolKind        `json:"kind"`
			ArgsVariant    string          `json:"args_variant"`
			Args           json.RawMessage `json:"args"`
		}{v.Name, v.ProviderCallID, v.Origin, v.Kind, v.ArgsVariant(), args})
	case ToolResultPayload:
		return json.Marshal(struct {
			CallID   uuid.UUID `json:"call_id"`
			Output   string    `json:"output"`
			IsError  bool      `json:"is_error,omitempty"`
			Orphaned bool      `json:"orphaned,omitempty"`
		}{v.CallID, v.Output, v.IsError, v.Orphaned})
	case TokenUsagePayload:
		return json.Marshal(v)
	case NotificationPayload:
		return json.Marshal(struct {
			Text  string `json:"text"`
			Level string `json:"level,omitempty"`
		}{v.Text, v.Level})
	case SlashCommandPayload:
		return json.Marshal(struct {
			Command string `json:"command"`
			Args    string `json:"args,omitempty"`
		}{v.Command, v.Args})
	default:
		return json.Marshal(struct{}{})
	}
}
