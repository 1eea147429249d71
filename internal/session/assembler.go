package session

import (
	"strings"

	"github.com/google/uuid"

	"agtrace/internal/event"
	"agtrace/internal/modellimit"
)

// interruptedPrefix marks a turn cut short by the user. The marker closes
// the open turn without starting a new one; trailing events reattach to the
// interrupted turn.
const interruptedPrefix = "[Request interrupted"

// toolRef locates an execution inside the turns slice so results arriving
// in later turns can still resolve their call.
type toolRef struct {
	turn int
	idx  int
}

// Assembler folds events into turns incrementally: appending n events costs
// work proportional to n, never to the full history. At most one assembler
// may be active per session.
type Assembler struct {
	sessionID uuid.UUID
	limits    *modellimit.Registry

	turns        []Turn
	userTurns    int
	slashPending bool

	pending    map[uuid.UUID]toolRef
	cumulative event.TokenUsagePayload
	lastUsage  *event.TokenUsagePayload
	model      string
	eventCount int
}

func New(sessionID uuid.UUID, limits *modellimit.Registry) *Assembler {
	return &Assembler{
		sessionID: sessionID,
		limits:    limits,
		pending:   make(map[uuid.UUID]toolRef),
	}
}

// Append folds events into the assembler state.
func (a *Assembler) Append(events ...event.Event) {
	for i := range events {
		a.appendOne(&events[i])
	}
}

func (a *Assembler) appendOne(ev *event.Event) {
	if ev.Model != "" {
		a.model = ev.Model
	}

	if ev.Stream.IsMain() {
		switch p := ev.Payload.(type) {
		case event.UserPayload:
			a.appendUser(ev, p)
			return
		case event.SlashCommandPayload:
			a.startTurn(ev, strings.TrimSpace(p.Command+" "+p.Args))
			a.slashPending = true
			return
		}
	}
	a.addEvent(ev)
}

func (a *Assembler) appendUser(ev *event.Event, p event.UserPayload) {
	if strings.HasPrefix(p.Text, interruptedPrefix) {
		a.slashPending = false
		return
	}
	if a.slashPending {
		// Expansion of the slash command that opened this turn, not a new
		// turn of its own.
		a.slashPending = false
		turn := a.currentTurn()
		turn.UserText = p.Text
		a.addEvent(ev)
		return
	}
	a.startTurn(ev, p.Text)
}

// startTurn opens the next user turn. User turns are numbered 1..k by a
// counter that never moves backwards, so indexes stay unique even after an
// interrupted turn.
func (a *Assembler) startTurn(ev *event.Event, userText string) {
	a.slashPending = false
	a.userTurns++
	a.turns = append(a.turns, Turn{
		Index:       a.userTurns,
		StartedAt:   ev.Timestamp,
		UserText:    userText,
		UserEventID: ev.ID,
	})
	a.addEvent(ev)
}

// currentTurn returns the latest turn, opening a preamble turn 0 only when
// events arrive before any user message.
func (a *Assembler) currentTurn() *Turn {
	if len(a.turns) == 0 {
		a.turns = append(a.turns, Turn{Index: 0})
	}
	return &a.turns[len(a.turns)-1]
}

func (a *Assembler) addEvent(ev *event.Event) {
	turn := a.currentTurn()
	if turn.StartedAt.IsZero() {
		turn.StartedAt = ev.Timestamp
	}
	turn.Events = append(turn.Events, *ev)
	if !ev.Timestamp.IsZero() && ev.Timestamp.After(turn.StartedAt) {
		turn.DurationMS = ev.Timestamp.Sub(turn.StartedAt).Milliseconds()
	}
	a.eventCount++

	switch p := ev.Payload.(type) {
	case event.ToolCallPayload:
		turn.Tools = append(turn.Tools, ToolExecution{
			CallID:    ev.ID,
			Name:      p.Name,
			Kind:      p.Kind,
			Signature: signature(p),
			CalledAt:  ev.Timestamp,
		})
		a.pending[ev.ID] = toolRef{turn: len(a.turns) - 1, idx: len(turn.Tools) - 1}
	case event.ToolResultPayload:
		ref, ok := a.pending[p.CallID]
		if !ok {
			return
		}
		delete(a.pending, p.CallID)
		exec := &a.turns[ref.turn].Tools[ref.idx]
		exec.Resolved = true
		exec.IsError = p.IsError
		if !ev.Timestamp.IsZero() && !exec.CalledAt.IsZero() {
			exec.DurationMS = ev.Timestamp.Sub(exec.CalledAt).Milliseconds()
		}
	case event.TokenUsagePayload:
		turn.Usage.Add(p)
		a.cumulative.Add(p)
		usage := p
		a.lastUsage = &usage
	}
}

// Session returns the assembled snapshot. The snapshot shares turn slices
// with the assembler; callers must not mutate it.
func (a *Assembler) Session() *Session {
	s := &Session{
		ID:         a.sessionID,
		Model:      a.model,
		Turns:      a.turns[:len(a.turns):len(a.turns)],
		Usage:      a.cumulative,
		Window:     a.window(),
		EventCount: a.eventCount,
	}
	if len(a.turns) > 0 {
		s.StartedAt = a.turns[0].StartedAt
		last := &a.turns[len(a.turns)-1]
		if n := len(last.Events); n > 0 {
			s.EndedAt = last.Events[n-1].Timestamp
		}
	}
	return s
}

// window derives context fill from the most recent usage report. A
// runtime-reported window size wins over the registry table; an unknown
// model keeps the raw counts with LimitKnown false.
func (a *Assembler) window() ContextWindowState {
	var w ContextWindowState
	if a.lastUsage == nil {
		return w
	}
	w.InputTokens = a.lastUsage.Input.Total()
	w.OutputTokens = a.lastUsage.Output.Total()
	w.UsedTokens = w.InputTokens + w.OutputTokens

	if a.lastUsage.ContextWindow > 0 {
		w.Limit = a.lastUsage.ContextWindow
		w.EffectiveLimit = w.Limit
		w.LimitKnown = true
	} else if a.limits != nil {
		if spec, ok := a.limits.Resolve(a.model); ok {
			w.Limit = spec.ContextWindow
			w.EffectiveLimit = spec.ContextWindow
			if spec.CompactionBufferPct > 0 {
				w.EffectiveLimit = int(float64(spec.ContextWindow) * (1 - spec.CompactionBufferPct/100))
			}
			w.LimitKnown = true
		}
	}
	if w.LimitKnown && w.Limit > 0 {
		w.Percent = float64(w.UsedTokens) / float64(w.Limit) * 100
	}
	return w
}

// signature identifies a call for loop detection: the tool name plus the
// argument that distinguishes repeat invocations.
func signature(p event.ToolCallPayload) string {
	switch args := p.Args.(type) {
	case event.FileReadArgs:
		return p.Name + ":" + args.Target()
	case event.FileEditArgs:
		return p.Name + ":" + args.FilePath
	case event.FileWriteArgs:
		return p.Name + ":" + args.FilePath
	case event.ExecuteArgs:
		return p.Name + ":" + args.Command
	case event.SearchArgs:
		return p.Name + ":" + args.Term()
	case event.McpArgs:
		return p.Name + ":" + string(args.Inner)
	case event.GenericArgs:
		return p.Name + ":" + string(args.Raw)
	default:
		return p.Name
	}
}

// Assemble is the one-shot form: a full event slice in, a session out.
func Assemble(sessionID uuid.UUID, limits *modellimit.Registry, events []event.Event) *Session {
	a := New(sessionID, limits)
	a.Append(events...)
	return a.Session()
}
