package gemini

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"agtrace/internal/event"
	"agtrace/internal/modellimit"
	"agtrace/internal/provider"
)

func init() {
	provider.Register("gemini", func() provider.Adapter { return &adapter{} })
}

type adapter struct{}

func (*adapter) Name() string        { return "gemini" }
func (*adapter) DefaultRoot() string { return "~/.gemini/tmp" }

func (*adapter) Probe(path string) provider.Probe {
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "session-") || !strings.HasSuffix(base, ".json") {
		return provider.ProbeNoMatch
	}
	// The CLI creates the file before writing the first snapshot.
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		return provider.ProbeNoMatch
	}
	return provider.ProbeHigh
}

func (a *adapter) Discover(root string) ([]provider.SessionIndex, error) {
	return discover(a, root)
}

func (*adapter) ExtractSessionID(path string) (string, error) {
	header, err := extractHeader(path)
	if err != nil {
		return "", err
	}
	if header.sessionID == "" {
		return "", fmt.Errorf("no session id in %s", path)
	}
	return header.sessionID, nil
}

func (*adapter) Events(idx provider.SessionIndex) ([]event.Event, *provider.Diagnostics, error) {
	return parseSession(idx)
}

func (*adapter) ModelSpecs() []modellimit.Spec { return modelSpecs }
