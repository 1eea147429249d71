package codex

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"agtrace/internal/event"
	"agtrace/internal/provider"
)

// normalizer folds rollout lines into canonical events. Rollout lines have
// no provider record ids, so base ids are synthetic row_<n> keyed by line
// position — stable as long as the file only ever grows, which is how the
// CLI writes it.
type normalizer struct {
	builder *event.Builder
	diag    *provider.Diagnostics

	stream    event.StreamID
	row       int
	model     string
	lastUsage *rolloutUsage
}

func newNormalizer(sessionKey string, diag *provider.Diagnostics) *normalizer {
	return &normalizer{
		builder: event.NewBuilder(sessionKey),
		diag:    diag,
		stream:  event.MainStream(),
	}
}

func (n *normalizer) baseID() string {
	return fmt.Sprintf("row_%d", n.row)
}

func (n *normalizer) appendLine(events *[]event.Event, rec *record) {
	n.row++
	ts := parseTimestamp(rec.Timestamp)

	switch rec.Type {
	case lineSessionMeta:
		var meta sessionMeta
		if err := json.Unmarshal(rec.Payload, &meta); err != nil {
			n.diag.NoteMalformed(fmt.Sprintf("session_meta row %d: %v", n.row, err))
			return
		}
		if name := meta.subagentName(); name != "" {
			n.stream = event.SubagentStream(name)
		}
	case lineResponseItem:
		n.appendResponseItem(events, rec.Payload, ts)
	case lineEventMsg:
		n.appendEventMsg(events, rec.Payload, ts)
	case lineTurnContext:
		var tc turnContext
		if err := json.Unmarshal(rec.Payload, &tc); err != nil {
			n.diag.NoteMalformed(fmt.Sprintf("turn_context row %d: %v", n.row, err))
			return
		}
		if tc.Model != "" {
			n.model = tc.Model
		}
	}
}

func (n *normalizer) appendResponseItem(events *[]event.Event, payload json.RawMessage, ts time.Time) {
	var item responseItem
	if err := json.Unmarshal(payload, &item); err != nil {
		n.diag.NoteMalformed(fmt.Sprintf("response_item row %d: %v", n.row, err))
		return
	}

	switch item.Type {
	case "message":
		text := joinContent(item.Content)
		switch item.Role {
		case "user":
			// Session preamble blocks are instructions, not conversation.
			if strings.HasPrefix(text, "<user_instructions>") ||
				strings.HasPrefix(text, "<environment_context>") {
				return
			}
			n.append(events, event.SuffixUser, ts, event.UserPayload{Text: text})
		case "assistant":
			n.append(events, event.SuffixMessage, ts, event.MessagePayload{Text: text})
		}
	case "reasoning":
		var parts []string
		for _, s := range item.Summary {
			if s.Text != "" {
				parts = append(parts, s.Text)
			}
		}
		if len(parts) == 0 {
			return
		}
		n.append(events, event.SuffixReasoning, ts, event.ReasoningPayload{Text: strings.Join(parts, "\n")})
	case "function_call", "custom_tool_call":
		raw := item.Arguments
		if item.Type == "custom_tool_call" {
			raw = item.Input
		}
		call := normalizeToolCall(item.Name, parseArguments(raw), item.CallID)
		id := n.append(events, event.SuffixCall, ts, call)
		n.builder.RegisterCall(item.CallID, id)
	case "function_call_output", "custom_tool_call_output":
		callID, resolved := n.builder.ResolveCall(item.CallID)
		if !resolved {
			n.diag.Orphaned++
		}
		n.append(events, event.SuffixResult, ts, event.ToolResultPayload{
			CallID:   callID,
			Output:   item.Output,
			IsError:  outputIsError(item.Output),
			Orphaned: !resolved,
		})
	}
}

func (n *normalizer) appendEventMsg(events *[]event.Event, payload json.RawMessage, ts time.Time) {
	var msg eventMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		n.diag.NoteMalformed(fmt.Sprintf("event_msg row %d: %v", n.row, err))
		return
	}

	// user_message / agent_message / agent_reasoning duplicate
	// response_item content and are skipped. token_count restates
	// cumulative totals on a timer; identical repeats are deduped and the
	// per-turn slice is what gets emitted, keeping downstream delta
	// accounting additive.
	if msg.Type != "token_count" || msg.Info == nil {
		return
	}
	if n.lastUsage != nil && *n.lastUsage == msg.Info.TotalTokenUsage {
		return
	}
	total := msg.Info.TotalTokenUsage
	n.lastUsage = &total

	last := msg.Info.LastTokenUsage
	n.append(events, event.SuffixUsage, ts, event.TokenUsagePayload{
		Input: event.TokenInput{
			Cached:   last.CachedInputTokens,
			Uncached: last.InputTokens - last.CachedInputTokens,
		},
		Output: event.TokenOutput{
			Generated: last.OutputTokens - last.ReasoningOutputTokens,
			Reasoning: last.ReasoningOutputTokens,
		},
		ContextWindow: msg.Info.ModelContextWindow,
	})
}

func (n *normalizer) append(events *[]event.Event, suffix event.Suffix, ts time.Time, payload event.Payload) uuid.UUID {
	id := n.builder.Append(events, n.baseID(), suffix, ts, n.stream, payload)
	(*events)[len(*events)-1].Model = n.model
	return id
}

func joinContent(blocks []messageContent) string {
	var parts []string
	for _, b := range blocks {
		switch b.Type {
		case "input_text", "output_text", "text":
			if b.Text != "" {
				parts = append(parts, b.Text)
			}
		}
	}
	return strings.Join(parts, "\n")
}

func parseTimestamp(ts string) time.Time {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
