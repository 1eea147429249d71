package provider

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Metadata describes a known provider independent of whether its adapter
// is registered.
type Metadata struct {
	Name        string
	Description string
	DefaultRoot string
}

// Providers lists every supported provider and its conventional log root.
var Providers = []Metadata{
	{Name: "claude", Description: "Claude Code", DefaultRoot: "~/.claude/projects"},
	{Name: "codex", Description: "Codex CLI", DefaultRoot: "~/.codex/sessions"},
	{Name: "gemini", Description: "Gemini CLI", DefaultRoot: "~/.gemini/tmp"},
}

// MetadataFor returns the metadata for a provider name.
func MetadataFor(name string) (Metadata, bool) {
	for _, m := range Providers {
		if m.Name == name {
			return m, true
		}
	}
	return Metadata{}, false
}

// ExpandRoot expands a leading ~/ against the user home directory.
func ExpandRoot(root string) string {
	if strings.HasPrefix(root, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, root[2:])
		}
	}
	return root
}

// DetectFromPath guesses the provider owning a log path from its location.
func DetectFromPath(path string) (string, error) {
	normalized := filepath.ToSlash(path)
	switch {
	case strings.Contains(normalized, ".claude/"):
		return "claude", nil
	case strings.Contains(normalized, ".codex/"):
		return "codex", nil
	case strings.Contains(normalized, ".gemini/"):
		return "gemini", nil
	default:
		return "", fmt.Errorf("cannot detect provider from path: %s", path)
	}
}
