package analysis

import (
	"fmt"

	"agtrace/internal/session"
)

// zombieLens flags turns where the agent grinds through a long tool chain
// with no user input. A turn contains at most one user event, so any run of
// executions inside it is uninterrupted; one insight covers the whole run.
type zombieLens struct {
	threshold int
}

func (zombieLens) Name() string { return "zombie" }

func (l zombieLens) Examine(s *session.Session) []Insight {
	if l.threshold <= 0 {
		return nil
	}
	var out []Insight
	for i := range s.Turns {
		turn := &s.Turns[i]
		n := len(turn.Tools)
		if n < l.threshold {
			continue
		}
		severity := SeverityWarning
		if n >= 2*l.threshold {
			severity = SeverityCritical
		}
		out = append(out, Insight{
			Lens:      "zombie",
			Severity:  severity,
			TurnIndex: turn.Index,
			Count:     n,
			Message:   fmt.Sprintf("%d tool executions without user input", n),
		})
	}
	return out
}

// loopLens flags runs of identical tool signatures (name plus the
// distinguishing argument), one insight per maximal run.
type loopLens struct {
	threshold int
}

func (loopLens) Name() string { return "loop" }

func (l loopLens) Examine(s *session.Session) []Insight {
	if l.threshold <= 0 {
		return nil
	}
	var out []Insight
	for i := range s.Turns {
		turn := &s.Turns[i]
		run := 0
		last := ""
		flush := func() {
			if run >= l.threshold {
				out = append(out, Insight{
					Lens:      "loop",
					Severity:  SeverityWarning,
					TurnIndex: turn.Index,
					Count:     run,
					Message:   fmt.Sprintf("%s repeated %d times in a row", last, run),
				})
			}
		}
		for _, exec := range turn.Tools {
			if exec.Signature == last {
				run++
				continue
			}
			flush()
			last = exec.Signature
			run = 1
		}
		flush()
	}
	return out
}

// failureLens counts error-flagged tool results per turn.
type failureLens struct{}

func (failureLens) Name() string { return "failure" }

func (failureLens) Examine(s *session.Session) []Insight {
	var out []Insight
	for i := range s.Turns {
		turn := &s.Turns[i]
		errors := 0
		for _, exec := range turn.Tools {
			if exec.IsError {
				errors++
			}
		}
		if errors == 0 {
			continue
		}
		severity := SeverityWarning
		if errors >= 3 {
			severity = SeverityCritical
		}
		out = append(out, Insight{
			Lens:      "failure",
			Severity:  severity,
			TurnIndex: turn.Index,
			Count:     errors,
			Message:   fmt.Sprintf("%d failed tool executions", errors),
		})
	}
	return out
}

// bottleneckLens flags individual tool executions slower than the
// threshold. Unresolved executions have no duration and are never flagged.
type bottleneckLens struct {
	thresholdMS int64
}

func (bottleneckLens) Name() string { return "bottleneck" }

func (l bottleneckLens) Examine(s *session.Session) []Insight {
	if l.thresholdMS <= 0 {
		return nil
	}
	var out []Insight
	for i := range s.Turns {
		turn := &s.Turns[i]
		for _, exec := range turn.Tools {
			if !exec.Resolved || exec.DurationMS <= l.thresholdMS {
				continue
			}
			out = append(out, Insight{
				Lens:      "bottleneck",
				Severity:  SeverityWarning,
				TurnIndex: turn.Index,
				Count:     1,
				Message:   fmt.Sprintf("%s took %.1fs", exec.Name, float64(exec.DurationMS)/1000),
			})
		}
	}
	return out
}
