package event

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestBuilderDeterministicIDs(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	build := func() []Event {
		b := NewBuilder("session-abc")
		var events []Event
		b.Append(&events, "rec-1", SuffixUser, ts, MainStream(), UserPayload{Text: "hi"})
		callID := b.Append(&events, "rec-2", SuffixCall, ts, MainStream(), ToolCallPayload{
			Name: "Read",
			Kind: ToolKindRead,
			Args: FileReadArgs{FilePath: "a.go"},
		})
		b.RegisterCall("call_1", callID)
		resolved, ok := b.ResolveCall("call_1")
		if !ok {
			t.Fatal("expected call_1 to resolve")
		}
		b.Append(&events, "rec-3", SuffixResult, ts, MainStream(), ToolResultPayload{
			CallID: resolved,
			Output: "contents",
		})
		return events
	}

	first := build()
	second := build()

	if len(first) != len(second) {
		t.Fatalf("event count mismatch: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("event %d: id %s != %s", i, first[i].ID, second[i].ID)
		}
		if first[i].ParentID != second[i].ParentID {
			t.Errorf("event %d: parent %s != %s", i, first[i].ParentID, second[i].ParentID)
		}
	}
}

func TestBuilderParentChain(t *testing.T) {
	b := NewBuilder("session-chain")
	ts := time.Now().UTC()
	var events []Event

	b.Append(&events, "r1", SuffixUser, ts, MainStream(), UserPayload{Text: "one"})
	b.Append(&events, "r2", SuffixMessage, ts, MainStream(), MessagePayload{Text: "two"})
	b.Append(&events, "r3", SuffixMessage, ts, MainStream(), MessagePayload{Text: "three"})

	if events[0].ParentID != uuid.Nil {
		t.Errorf("first event should have no parent, got %s", events[0].ParentID)
	}
	if events[1].ParentID != events[0].ID {
		t.Errorf("second event parent = %s, want %s", events[1].ParentID, events[0].ID)
	}
	if events[2].ParentID != events[1].ID {
		t.Errorf("third event parent = %s, want %s", events[2].ParentID, events[1].ID)
	}
}

func TestBuilderStreamIsolation(t *testing.T) {
	b := NewBuilder("session-streams")
	ts := time.Now().UTC()
	side := SidechainStream("be466c0a")
	var events []Event

	b.Append(&events, "m1", SuffixUser, ts, MainStream(), UserPayload{Text: "main"})
	b.Append(&events, "s1", SuffixMessage, ts, side, MessagePayload{Text: "fork"})
	b.Append(&events, "m2", SuffixMessage, ts, MainStream(), MessagePayload{Text: "reply"})
	b.Append(&events, "s2", SuffixMessage, ts, side, MessagePayload{Text: "fork 2"})

	if events[1].ParentID != uuid.Nil {
		t.Errorf("sidechain head should have no parent, got %s", events[1].ParentID)
	}
	if events[2].ParentID != events[0].ID {
		t.Errorf("main chain skipped sidechain: parent = %s, want %s", events[2].ParentID, events[0].ID)
	}
	if events[3].ParentID != events[1].ID {
		t.Errorf("sidechain chain broken: parent = %s, want %s", events[3].ParentID, events[1].ID)
	}

	byID := make(map[uuid.UUID]Event)
	for _, ev := range events {
		byID[ev.ID] = ev
	}
	for _, ev := range events {
		if ev.ParentID == uuid.Nil {
			continue
		}
		parent, ok := byID[ev.ParentID]
		if !ok {
			t.Fatalf("parent %s not found", ev.ParentID)
		}
		if parent.Stream != ev.Stream {
			t.Errorf("parent edge crosses streams: %s -> %s", ev.Stream, parent.Stream)
		}
	}
}

func TestBuilderUnresolvedCall(t *testing.T) {
	b := NewBuilder("session-orphan")
	if _, ok := b.ResolveCall("missing"); ok {
		t.Fatal("expected unresolved call")
	}
	b.RegisterCall("toolu_1", b.EventID("rec_1", SuffixCall))
	if id, ok := b.ResolveCall("toolu_1"); !ok || id != b.EventID("rec_1", SuffixCall) {
		t.Fatalf("registered call must resolve, got %s %v", id, ok)
	}
}

func TestSessionUUIDStable(t *testing.T) {
	a := SessionUUID("abc")
	b := SessionUUID("abc")
	c := SessionUUID("abd")
	if a != b {
		t.Errorf("same key produced different ids: %s vs %s", a, b)
	}
	if a == c {
		t.Error("different keys produced the same id")
	}
}
