// Package provider defines the adapter contract that each vendor log
// implementation satisfies, plus the shared classification fallbacks.
package provider

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"agtrace/internal/event"
	"agtrace/internal/modellimit"
)

// Probe is the confidence that a file belongs to a provider.
type Probe int

const (
	ProbeNoMatch Probe = iota
	ProbeMaybe
	ProbeHigh
)

// SessionIndex locates one session on disk. It carries pointers only —
// never event payloads.
type SessionIndex struct {
	Provider       string
	SessionID      string
	Timestamp      time.Time
	MainFile       string
	SidechainFiles []string
	ModTime        time.Time
	Snippet        string
	// Synthetic is set when no session id could be determined and the file
	// was registered under a path-derived id instead of being excluded.
	Synthetic bool
}

// Diagnostics accumulates fail-safe decoding counters for one parse run.
// Malformed records are skipped and counted, never fatal.
type Diagnostics struct {
	Lines     int
	Malformed int
	Orphaned  int
	Examples  []string
}

const maxDiagExamples = 3

// NoteMalformed records a skipped record, keeping a few representative
// examples for diagnostic tooling.
func (d *Diagnostics) NoteMalformed(detail string) {
	d.Malformed++
	if len(d.Examples) < maxDiagExamples {
		d.Examples = append(d.Examples, detail)
	}
}

// Adapter is the per-vendor implementation: discovery of session
// boundaries, fail-safe parsing into canonical events, and the provider's
// model-limit table.
type Adapter interface {
	// Name returns the provider identifier ("claude", "codex", "gemini").
	Name() string

	// DefaultRoot returns the conventional log root, with ~ unexpanded.
	DefaultRoot() string

	// Probe reports whether path looks like a session file of this provider.
	Probe(path string) Probe

	// Discover walks root and returns one index entry per session.
	Discover(root string) ([]SessionIndex, error)

	// ExtractSessionID determines the session id for a single file. Some
	// formats carry the id only on a later line, so this may scan the file.
	ExtractSessionID(path string) (string, error)

	// Events parses every file of the indexed session into the canonical
	// event timeline. Malformed records are absorbed into Diagnostics.
	Events(idx SessionIndex) ([]event.Event, *Diagnostics, error)

	// ModelSpecs returns the provider's built-in context-window table.
	ModelSpecs() []modellimit.Spec
}

// Factory creates an adapter. Provider packages register factories from
// init() to avoid circular dependencies, mirroring how parsers used to be
// registered.
type Factory func() Adapter

var factories = map[string]Factory{}

// Register installs a factory under the provider name.
func Register(name string, f Factory) {
	factories[name] = f
}

// New creates the adapter registered under name.
func New(name string) (Adapter, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	return f(), nil
}

// All creates one adapter per registered provider, in registry order.
func All() []Adapter {
	adapters := make([]Adapter, 0, len(Providers))
	for _, meta := range Providers {
		if f, ok := factories[meta.Name]; ok {
			adapters = append(adapters, f())
		}
	}
	return adapters
}

// SyntheticSessionID derives a stable session id from a file path, used
// when a file carries no determinable session id.
func SyntheticSessionID(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(filepath.ToSlash(path))).String()
}
