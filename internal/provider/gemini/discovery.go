package gemini

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"agtrace/internal/provider"
)

type fileHeader struct {
	sessionID string
	timestamp string
	snippet   string
}

func extractHeader(path string) (fileHeader, error) {
	s, err := parseFile(path)
	if err != nil {
		return fileHeader{}, err
	}

	h := fileHeader{sessionID: s.SessionID, timestamp: s.StartTime}
	for _, msg := range s.Messages {
		if msg.Type != "user" || msg.Content == "" {
			continue
		}
		// Numeric ids are legacy bookkeeping rows, not prompts.
		if _, err := strconv.ParseUint(msg.ID, 10, 32); err == nil {
			continue
		}
		h.snippet = firstLine(msg.Content)
		break
	}
	return h, nil
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}

// Session files live at tmp/<project-hash>/chats/session-*.json, so the
// walk stays shallow.
const maxDiscoveryDepth = 3

func discover(a *adapter, root string) ([]provider.SessionIndex, error) {
	var out []provider.SessionIndex

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if depth(root, path) > maxDiscoveryDepth {
				return fs.SkipDir
			}
			return nil
		}
		if a.Probe(path) == provider.ProbeNoMatch {
			return nil
		}

		header, err := extractHeader(path)
		if err != nil || header.sessionID == "" {
			return nil
		}

		idx := provider.SessionIndex{
			Provider:  a.Name(),
			SessionID: header.sessionID,
			Timestamp: parseTimestamp(header.timestamp),
			MainFile:  path,
			Snippet:   header.snippet,
		}
		if info, err := d.Info(); err == nil {
			idx.ModTime = info.ModTime()
		}
		out = append(out, idx)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out, nil
}

func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
