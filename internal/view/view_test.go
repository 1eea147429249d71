package view

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"agtrace/internal/event"
	"agtrace/internal/session"
)

func sampleSession() *session.Session {
	start := time.Date(2026, 3, 5, 14, 2, 0, 0, time.UTC)
	userID := uuid.New()
	callID := uuid.New()
	failedID := uuid.New()

	turn := session.Turn{
		Index:       1,
		StartedAt:   start,
		UserText:    "run the test suite",
		UserEventID: userID,
		Events: []event.Event{
			{ID: userID, Timestamp: start, Payload: event.UserPayload{Text: "run the test suite"}},
			{ID: uuid.New(), Timestamp: start.Add(time.Second), Payload: event.ReasoningPayload{Text: "need to run make test first"}},
			{ID: callID, Timestamp: start.Add(2 * time.Second), Payload: event.ToolCallPayload{
				Name: "shell", Kind: event.ToolKindExecute,
				Args: event.ExecuteArgs{Command: "make test"},
			}},
			{ID: failedID, Timestamp: start.Add(5 * time.Second), Payload: event.ToolCallPayload{
				Name: "edit", Kind: event.ToolKindWrite,
				Args: event.FileEditArgs{FilePath: "internal/app/app.go"},
			}},
			{ID: uuid.New(), Timestamp: start.Add(6 * time.Second), Payload: event.MessagePayload{Text: "tests pass now"}},
		},
		Tools: []session.ToolExecution{
			{CallID: callID, Name: "shell", Resolved: true, DurationMS: 2000},
			{CallID: failedID, Name: "edit", Resolved: true, IsError: true, DurationMS: 300},
		},
		DurationMS: 6000,
	}

	return &session.Session{
		ID:        uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		Model:     "gpt-5.1-codex",
		StartedAt: start,
		Turns:     []session.Turn{turn},
		Usage: event.TokenUsagePayload{
			Input:  event.TokenInput{Cached: 300, Uncached: 200},
			Output: event.TokenOutput{Generated: 80, Reasoning: 20},
		},
		Window:     session.ContextWindowState{UsedTokens: 600, Limit: 400_000, Percent: 0.2, LimitKnown: true},
		EventCount: 5,
	}
}

func TestRenderTranscriptStructure(t *testing.T) {
	lines := renderTranscript(sampleSession(), 0, 100, false)
	text := strings.Join(lines, "\n")

	for _, want := range []string{
		"Session 11111111-2222-3333-4444-555555555555",
		"gpt-5.1-codex | 1 turns | 5 events",
		"turn 1",
		"run the test suite",
		"thinking",
		"need to run make test first",
		"shell make test [2.0s]",
		"✗ edit internal/app/app.go [failed, 300ms]",
		"assistant",
		"tests pass now",
		"tokens: 500 in (300 cached) / 100 out",
		"context 0.2% of 400000",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("transcript missing %q:\n%s", want, text)
		}
	}
}

func TestRenderTranscriptUserEventNotDoubled(t *testing.T) {
	lines := renderTranscript(sampleSession(), 0, 100, false)
	count := 0
	for _, line := range lines {
		if strings.Contains(line, "run the test suite") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("user text rendered %d times, want 1", count)
	}
}

func TestRenderFooterLimitUnknown(t *testing.T) {
	sess := sampleSession()
	sess.Window = session.ContextWindowState{UsedTokens: 600}
	line := renderFooter(sess, false)
	if !strings.Contains(line, "limit unknown") {
		t.Errorf("footer = %q", line)
	}
}

func TestLastTurnsKeepsPreamble(t *testing.T) {
	turns := []session.Turn{{Index: 0}, {Index: 1}, {Index: 2}, {Index: 3}}
	kept := lastTurns(turns, 2)
	if len(kept) != 3 || kept[0].Index != 0 || kept[1].Index != 2 || kept[2].Index != 3 {
		t.Errorf("kept = %+v", kept)
	}
}

func TestWrapTextCountsRuneWidth(t *testing.T) {
	lines := wrapText("日本語のテキスト", 6)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), lines)
	}
	for _, line := range lines {
		if visibleWidth(line) > 6 {
			t.Errorf("line %q exceeds width", line)
		}
	}
}

func TestTruncatePreservesColorCodes(t *testing.T) {
	in := colorize(true, ansiUser, "abcdef")
	out := truncateToWidth(in, 3)
	if !strings.HasPrefix(out, ansiUser) || strings.Contains(out, "d") {
		t.Errorf("out = %q", out)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[int64]string{
		250:    "250ms",
		2000:   "2.0s",
		90_000: "1m30s",
	}
	for ms, want := range cases {
		if got := formatDuration(ms); got != want {
			t.Errorf("formatDuration(%d) = %q, want %q", ms, got, want)
		}
	}
}
