package event

import (
	"time"

	"github.com/google/uuid"
)

// Suffix is the semantic discriminator appended to a record's base id when
// one raw record yields several events. The suffix keeps sibling events
// distinct while staying deterministic.
type Suffix string

const (
	SuffixUser      Suffix = "user"
	SuffixReasoning Suffix = "reasoning"
	SuffixMessage   Suffix = "message"
	SuffixCall      Suffix = "call"
	SuffixResult    Suffix = "result"
	SuffixUsage     Suffix = "usage"
	SuffixNotify    Suffix = "notify"
	SuffixCommand   Suffix = "command"
)

// SessionUUID derives the deterministic session UUID for a provider-native
// session identifier.
func SessionUUID(sessionKey string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(sessionKey))
}

// Builder converts normalized fragments into identity-stable, causally
// linked events. Identity is UUIDv5 over (session UUID, "baseID:suffix"),
// so re-normalizing identical input yields identical ids. A builder is
// scoped to one session; callers must not run two builders for the same
// session concurrently.
type Builder struct {
	sessionID uuid.UUID
	tips      map[StreamID]uuid.UUID
	calls     map[string]uuid.UUID
}

// NewBuilder returns a builder for the session identified by the
// provider-native session key.
func NewBuilder(sessionKey string) *Builder {
	return &Builder{
		sessionID: SessionUUID(sessionKey),
		tips:      make(map[StreamID]uuid.UUID),
		calls:     make(map[string]uuid.UUID),
	}
}

// SessionID returns the derived session UUID.
func (b *Builder) SessionID() uuid.UUID { return b.sessionID }

// EventID returns the deterministic id for a (baseID, suffix) pair without
// appending anything.
func (b *Builder) EventID(baseID string, suffix Suffix) uuid.UUID {
	return uuid.NewSHA1(b.sessionID, []byte(baseID+":"+string(suffix)))
}

// Append builds an event, links it to the current tip of its stream,
// advances the tip, and appends it to events. It returns the new event's id.
func (b *Builder) Append(events *[]Event, baseID string, suffix Suffix, ts time.Time, stream StreamID, payload Payload) uuid.UUID {
	id := b.EventID(baseID, suffix)
	ev := Event{
		ID:        id,
		SessionID: b.sessionID,
		ParentID:  b.tips[stream],
		Timestamp: ts,
		Stream:    stream,
		Role:      roleFor(payload),
		Payload:   payload,
	}
	b.tips[stream] = id
	*events = append(*events, ev)
	return id
}

// RegisterCall records the mapping from a provider-native tool-call id to
// the assigned event id, for O(1) result resolution.
func (b *Builder) RegisterCall(providerCallID string, id uuid.UUID) {
	if providerCallID == "" {
		return
	}
	b.calls[providerCallID] = id
}

// ResolveCall looks up the event id for a provider-native tool-call id.
// Callers count a miss in their Diagnostics.
func (b *Builder) ResolveCall(providerCallID string) (uuid.UUID, bool) {
	id, ok := b.calls[providerCallID]
	return id, ok
}
