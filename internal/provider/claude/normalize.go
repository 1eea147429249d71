package claude

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"agtrace/internal/event"
	"agtrace/internal/provider"
)

var (
	commandNameRe = regexp.MustCompile(`<command-name>([^<]*)</command-name>`)
	commandArgsRe = regexp.MustCompile(`<command-args>([^<]*)</command-args>`)
)

// normalizer folds Claude records into the canonical event stream using a
// shared builder, so ids and tool linkage stay consistent across a
// session's main and sidechain files.
type normalizer struct {
	builder *event.Builder
	diag    *provider.Diagnostics
}

func newNormalizer(sessionKey string, diag *provider.Diagnostics) *normalizer {
	return &normalizer{builder: event.NewBuilder(sessionKey), diag: diag}
}

func (n *normalizer) stream(rec *record) event.StreamID {
	if !rec.IsSidechain {
		return event.MainStream()
	}
	label := rec.AgentID
	if label == "" {
		label = "sidechain"
	}
	return event.SidechainStream(label)
}

// appendRecord normalizes one decoded record. Records the pipeline does
// not model (summaries, snapshots, queue operations) are ignored.
func (n *normalizer) appendRecord(events *[]event.Event, rec *record) {
	switch rec.Type {
	case recordTypeUser:
		n.appendUser(events, rec)
	case recordTypeAssistant:
		n.appendAssistant(events, rec)
	case recordTypeSystem:
		n.appendSystem(events, rec)
	case recordTypeProgress:
		n.appendProgress(events, rec)
	}
}

// appendSystem handles system records. Older logs report slash commands as
// a local_command subtype with "/command args" content instead of the
// command-name markup inside a user message.
func (n *normalizer) appendSystem(events *[]event.Event, rec *record) {
	if rec.Subtype != systemSubtypeLocalCommand || rec.Content == "" {
		return
	}
	command, args := rec.Content, ""
	if i := strings.IndexByte(rec.Content, ' '); i >= 0 {
		command, args = rec.Content[:i], rec.Content[i+1:]
	}
	n.builder.Append(events, rec.UUID, event.SuffixCommand, parseTimestamp(rec.Timestamp), n.stream(rec),
		event.SlashCommandPayload{Command: command, Args: args})
}

// appendProgress surfaces hook runs as notifications. Other progress types
// are skipped: agent progress lives in the sidechain files, bash and mcp
// progress in the tool call/result pair.
func (n *normalizer) appendProgress(events *[]event.Event, rec *record) {
	var data progressData
	if err := json.Unmarshal(rec.Data, &data); err != nil || data.Type != "hook_progress" {
		return
	}
	name := data.HookName
	if name == "" {
		name = "unknown"
	}
	level := "debug"
	if data.Command != "" {
		level = "info"
	}
	n.builder.Append(events, rec.UUID, event.SuffixNotify, parseTimestamp(rec.Timestamp), n.stream(rec),
		event.NotificationPayload{
			Text:  fmt.Sprintf("Hook: %s (%s)", name, data.HookEvent),
			Level: level,
		})
}

func (n *normalizer) appendUser(events *[]event.Event, rec *record) {
	if rec.IsMeta {
		return
	}
	var msg message
	if err := json.Unmarshal(rec.Message, &msg); err != nil {
		n.diag.NoteMalformed(fmt.Sprintf("user message %s: %v", rec.UUID, err))
		return
	}

	ts := parseTimestamp(rec.Timestamp)
	stream := n.stream(rec)

	for i, block := range contentBlocks(msg.Content) {
		baseID := blockBaseID(rec.UUID, i)
		switch block.Type {
		case "text":
			text := block.Text
			if strings.HasPrefix(text, "<local-command-stdout>") {
				continue
			}
			if cmd, args, ok := parseSlashCommand(text); ok {
				n.builder.Append(events, baseID, event.SuffixCommand, ts, stream,
					event.SlashCommandPayload{Command: cmd, Args: args})
				continue
			}
			n.builder.Append(events, baseID, event.SuffixUser, ts, stream,
				event.UserPayload{Text: text})
		case "tool_result":
			callID, resolved := n.builder.ResolveCall(block.ToolUseID)
			if !resolved {
				n.diag.Orphaned++
			}
			n.builder.Append(events, baseID, event.SuffixResult, ts, stream,
				event.ToolResultPayload{
					CallID:   callID,
					Output:   flattenResultContent(block.Content),
					IsError:  block.IsError,
					Orphaned: !resolved,
				})
		}
	}
}

func (n *normalizer) appendAssistant(events *[]event.Event, rec *record) {
	var msg message
	if err := json.Unmarshal(rec.Message, &msg); err != nil {
		n.diag.NoteMalformed(fmt.Sprintf("assistant message %s: %v", rec.UUID, err))
		return
	}

	ts := parseTimestamp(rec.Timestamp)
	stream := n.stream(rec)

	appendWithModel := func(baseID string, suffix event.Suffix, payload event.Payload) uuid.UUID {
		id := n.builder.Append(events, baseID, suffix, ts, stream, payload)
		(*events)[len(*events)-1].Model = msg.Model
		return id
	}

	for i, block := range contentBlocks(msg.Content) {
		baseID := blockBaseID(rec.UUID, i)
		switch block.Type {
		case "thinking":
			appendWithModel(baseID, event.SuffixReasoning, event.ReasoningPayload{Text: block.Thinking})
		case "text":
			appendWithModel(baseID, event.SuffixMessage, event.MessagePayload{Text: block.Text})
		case "tool_use":
			id := appendWithModel(baseID, event.SuffixCall,
				normalizeToolCall(block.Name, block.Input, block.ID))
			n.builder.RegisterCall(block.ID, id)
		case "tool_result":
			callID, resolved := n.builder.ResolveCall(block.ToolUseID)
			if !resolved {
				n.diag.Orphaned++
			}
			appendWithModel(baseID, event.SuffixResult, event.ToolResultPayload{
				CallID:   callID,
				Output:   flattenResultContent(block.Content),
				IsError:  block.IsError,
				Orphaned: !resolved,
			})
		}
	}

	// Usage is a sidecar attached after the record's generation events.
	if msg.Usage != nil {
		appendWithModel(rec.UUID, event.SuffixUsage, event.TokenUsagePayload{
			Input: event.TokenInput{
				Cached:   msg.Usage.CacheReadInputTokens + msg.Usage.CacheCreationInputTokens,
				Uncached: msg.Usage.InputTokens,
			},
			Output: event.TokenOutput{Generated: msg.Usage.OutputTokens},
		})
	}
}

// parseSlashCommand extracts a user-invoked slash command from the
// command-name markup Claude Code writes. The command must start with "/";
// anything else is plain text.
func parseSlashCommand(text string) (command, args string, ok bool) {
	m := commandNameRe.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	command = strings.TrimSpace(m[1])
	if !strings.HasPrefix(command, "/") {
		return "", "", false
	}
	if am := commandArgsRe.FindStringSubmatch(text); am != nil {
		args = strings.TrimSpace(am[1])
	}
	return command, args, true
}

func blockBaseID(recordUUID string, blockIdx int) string {
	if blockIdx == 0 {
		return recordUUID
	}
	return fmt.Sprintf("%s-%d", recordUUID, blockIdx)
}

func parseTimestamp(ts string) time.Time {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
