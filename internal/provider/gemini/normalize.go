package gemini

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"agtrace/internal/event"
	"agtrace/internal/provider"
)

// normalizer unfolds the nested session snapshot into a flat event
// timeline. Thoughts and tool calls nested inside one assistant message get
// indexed base ids so their event ids stay unique and deterministic.
type normalizer struct {
	builder *event.Builder
	diag    *provider.Diagnostics
}

func newNormalizer(sessionKey string, diag *provider.Diagnostics) *normalizer {
	return &normalizer{
		builder: event.NewBuilder(sessionKey),
		diag:    diag,
	}
}

func (n *normalizer) appendSession(events *[]event.Event, s *session) {
	for i := range s.Messages {
		n.appendMessage(events, &s.Messages[i])
	}
}

func (n *normalizer) appendMessage(events *[]event.Event, msg *message) {
	n.diag.Lines++
	ts := parseTimestamp(msg.Timestamp)

	switch msg.Type {
	case "user":
		// Numeric ids are legacy CLI bookkeeping rows, not prompts.
		if _, err := strconv.ParseUint(msg.ID, 10, 32); err == nil {
			return
		}
		n.append(events, msg.ID, event.SuffixUser, ts, event.UserPayload{Text: msg.Content}, "")
	case "gemini":
		n.appendAssistant(events, msg, ts)
	case "info":
		n.append(events, msg.ID, event.SuffixNotify, ts, event.NotificationPayload{
			Text:  msg.Content,
			Level: "info",
		}, "")
	default:
		n.diag.NoteMalformed(fmt.Sprintf("message %s: unknown type %q", msg.ID, msg.Type))
	}
}

func (n *normalizer) appendAssistant(events *[]event.Event, msg *message, ts time.Time) {
	for i, th := range msg.Thoughts {
		text := th.Description
		if th.Subject != "" {
			text = th.Subject + ": " + th.Description
		}
		baseID := fmt.Sprintf("%s-thought-%d", msg.ID, i)
		n.append(events, baseID, event.SuffixReasoning, ts, event.ReasoningPayload{Text: text}, msg.Model)
	}

	for i := range msg.ToolCalls {
		tc := &msg.ToolCalls[i]
		baseID := fmt.Sprintf("%s-tool-%d", msg.ID, i)

		call := normalizeToolCall(tc.Name, tc.Args, tc.ID)
		callEventID := n.append(events, baseID, event.SuffixCall, ts, call, msg.Model)
		n.builder.RegisterCall(tc.ID, callEventID)

		// The result rides inside the call record; emit it as a separate
		// event only when the call actually completed.
		if len(tc.Result) == 0 {
			continue
		}
		n.append(events, baseID, event.SuffixResult, ts, event.ToolResultPayload{
			CallID:  callEventID,
			Output:  resultOutput(tc),
			IsError: tc.Status == "error",
		}, msg.Model)
	}

	n.append(events, msg.ID, event.SuffixMessage, ts, event.MessagePayload{Text: msg.Content}, msg.Model)

	// Token totals are turn-level and ride as a sidecar on the message.
	if msg.Tokens == nil {
		return
	}
	t := msg.Tokens
	n.append(events, msg.ID, event.SuffixUsage, ts, event.TokenUsagePayload{
		Input: event.TokenInput{
			Cached:   t.Cached,
			Uncached: t.Input - t.Cached,
		},
		Output: event.TokenOutput{
			Generated: t.Output,
			Reasoning: t.Thoughts,
			Tool:      t.Tool,
		},
	}, msg.Model)
}

func (n *normalizer) append(events *[]event.Event, baseID string, suffix event.Suffix, ts time.Time, payload event.Payload, model string) uuid.UUID {
	id := n.builder.Append(events, baseID, suffix, ts, event.MainStream(), payload)
	(*events)[len(*events)-1].Model = model
	return id
}

// resultOutput prefers the human-readable display string; otherwise the raw
// function responses are re-encoded.
func resultOutput(tc *toolCall) string {
	if tc.ResultDisplay != "" {
		return tc.ResultDisplay
	}
	var parts []string
	for _, r := range tc.Result {
		if len(r.FunctionResponse.Response) > 0 {
			parts = append(parts, string(r.FunctionResponse.Response))
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
