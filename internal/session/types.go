// Package session segments a canonical event timeline into turns and keeps
// incremental token and context-window accounting.
package session

import (
	"time"

	"github.com/google/uuid"

	"agtrace/internal/event"
)

// ToolExecution is one tool call paired with its result. Results may land
// in a later turn than the call; the execution stays with the turn that
// issued it.
type ToolExecution struct {
	CallID     uuid.UUID
	Name       string
	Kind       event.ToolKind
	Signature  string
	CalledAt   time.Time
	DurationMS int64
	IsError    bool
	Resolved   bool
}

// Turn is a contiguous span of the session starting at a main-stream user
// message. Turn 0 exists only when events precede the first user message;
// user turns are numbered from 1.
type Turn struct {
	Index       int
	StartedAt   time.Time
	UserText    string
	UserEventID uuid.UUID
	Events      []event.Event
	Tools       []ToolExecution
	// Usage is the additive token delta of this turn, not a restated
	// cumulative counter.
	Usage      event.TokenUsagePayload
	DurationMS int64
}

// ContextWindowState reports how full the model's context is. When no limit
// can be resolved, LimitKnown is false and the raw counts are still kept.
type ContextWindowState struct {
	InputTokens  int
	OutputTokens int
	UsedTokens   int
	Limit        int
	// EffectiveLimit is the share of the window usable before the runtime
	// compacts. It equals Limit when no compaction buffer is known.
	EffectiveLimit int
	Percent        float64
	LimitKnown     bool
}

// Session is the assembled view over one session's events. It is a snapshot
// sharing slices with the assembler that produced it; treat it as read-only.
type Session struct {
	ID         uuid.UUID
	Model      string
	StartedAt  time.Time
	EndedAt    time.Time
	Turns      []Turn
	Usage      event.TokenUsagePayload
	Window     ContextWindowState
	EventCount int
}

// TurnCount returns the number of user turns, excluding a preamble turn 0.
func (s *Session) TurnCount() int {
	n := 0
	for i := range s.Turns {
		if s.Turns[i].Index > 0 {
			n++
		}
	}
	return n
}
