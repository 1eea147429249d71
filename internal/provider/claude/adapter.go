package claude

import (
	"fmt"
	"strings"

	"agtrace/internal/event"
	"agtrace/internal/modellimit"
	"agtrace/internal/provider"
)

func init() {
	provider.Register("claude", func() provider.Adapter { return &adapter{} })
}

type adapter struct{}

func (*adapter) Name() string        { return "claude" }
func (*adapter) DefaultRoot() string { return "~/.claude/projects" }

func (*adapter) Probe(path string) provider.Probe {
	if strings.HasSuffix(path, ".jsonl") {
		return provider.ProbeHigh
	}
	return provider.ProbeNoMatch
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
