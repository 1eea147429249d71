package event

import "fmt"

// StreamKind identifies which causal chain of a session an event belongs to.
type StreamKind string

const (
	// StreamMain is the primary user-facing conversation.
	StreamMain StreamKind = "main"
	// StreamSidechain is a forked side-branch identified by an agent id.
	StreamSidechain StreamKind = "sidechain"
	// StreamSubagent is a named sub-agent run.
	StreamSubagent StreamKind = "subagent"
)

// StreamID identifies one causal chain within a session. The zero value is
// not valid; use the constructors. StreamID is comparable and usable as a
// map key.
type StreamID struct {
	Kind  StreamKind
	Label string // agent id for sidechains, name for subagents, empty for main
}

// MainStream returns the main-stream identifier.
func MainStream() StreamID { return StreamID{Kind: StreamMain} }

// SidechainStream returns the stream identifier for a sidechain fork.
func SidechainStream(agentID string) StreamID {
	return StreamID{Kind: StreamSidechain, Label: agentID}
}

// SubagentStream returns the stream identifier for a named subagent run.
func SubagentStream(name string) StreamID {
	return StreamID{Kind: StreamSubagent, Label: name}
}

// IsMain reports whether s is the main stream.
func (s StreamID) IsMain() bool { return s.Kind == StreamMain }

func (s StreamID) String() string {
	if s.Kind == StreamMain {
		return "main"
	}
	return fmt.Sprintf("%s:%s", s.Kind, s.Label)
}
