// Package analysis provides stateless lenses over an assembled session and
// a composite health score.
package analysis

import (
	"sort"

	"github.com/google/uuid"

	"agtrace/internal/session"
)

// Severity tags an insight. Info costs nothing in the score.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Insight is one detected pattern, keyed by the turn it occurred in.
type Insight struct {
	Lens      string   `json:"lens"`
	Severity  Severity `json:"severity"`
	TurnIndex int      `json:"turn"`
	Count     int      `json:"count"`
	Message   string   `json:"message"`
}

// Lens is a pure detector. Lenses are independent and order-free: running
// them in any order yields the same insight set.
type Lens interface {
	Name() string
	Examine(s *session.Session) []Insight
}

// Config holds the detector thresholds.
type Config struct {
	// ZombieThreshold is the tool-execution count in one turn that flags a
	// stalled chain; twice the threshold escalates to critical.
	ZombieThreshold int `yaml:"zombie_threshold"`
	// LoopThreshold is the run length of identical tool signatures that
	// flags a loop.
	LoopThreshold int `yaml:"loop_threshold"`
	// BottleneckMS flags any single tool execution slower than this.
	BottleneckMS int64 `yaml:"bottleneck_ms"`
}

func DefaultConfig() Config {
	return Config{
		ZombieThreshold: 20,
		LoopThreshold:   3,
		BottleneckMS:    30_000,
	}
}

// Lenses returns the standard detector set for cfg.
func Lenses(cfg Config) []Lens {
	return []Lens{
		zombieLens{threshold: cfg.ZombieThreshold},
		loopLens{threshold: cfg.LoopThreshold},
		failureLens{},
		bottleneckLens{thresholdMS: cfg.BottleneckMS},
	}
}

// Report is the analysis outcome for one session.
type Report struct {
	SessionID uuid.UUID `json:"session_id"`
	Score     int       `json:"score"`
	Insights  []Insight `json:"insights"`
}

const (
	warningCost  = 5
	criticalCost = 10
)

// Analyze runs every lens and folds the insights into a 0-100 health score.
func Analyze(s *session.Session, cfg Config) *Report {
	var insights []Insight
	for _, lens := range Lenses(cfg) {
		insights = append(insights, lens.Examine(s)...)
	}
	sort.SliceStable(insights, func(i, j int) bool {
		if insights[i].TurnIndex != insights[j].TurnIndex {
			return insights[i].TurnIndex < insights[j].TurnIndex
		}
		return insights[i].Lens < insights[j].Lens
	})

	score := 100
	for _, in := range insights {
		switch in.Severity {
		case SeverityWarning:
			score -= warningCost
		case SeverityCritical:
			score -= criticalCost
		}
	}
	if score < 0 {
		score = 0
	}

	return &Report{SessionID: s.ID, Score: score, Insights: insights}
}
