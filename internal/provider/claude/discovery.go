package claude

import (
	"encoding/json"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"agtrace/internal/provider"
)

// fileHeader is what discovery needs from one log file: the session id
// (which may appear only on a later line, hence the full scan), the first
// timestamp, whether the file is a sidechain transcript, and a snippet.
type fileHeader struct {
	sessionID string
	timestamp string
	sidechain bool
	snippet   string
}

func extractHeader(path string) (fileHeader, error) {
	var h fileHeader
	diag := &provider.Diagnostics{}
	err := iterateRecords(path, diag, func(rec *record) {
		if h.sessionID == "" && rec.SessionID != "" {
			h.sessionID = rec.SessionID
			h.sidechain = rec.IsSidechain
		}
		if h.timestamp == "" && rec.Timestamp != "" {
			h.timestamp = rec.Timestamp
		}
		if h.snippet != "" || rec.Type != recordTypeUser || rec.IsMeta || rec.IsSidechain {
			return
		}
		var msg message
		if json.Unmarshal(rec.Message, &msg) != nil {
			return
		}
		for _, block := range contentBlocks(msg.Content) {
			if block.Type == "text" && block.Text != "" && !strings.HasPrefix(block.Text, "<") {
				h.snippet = firstLine(block.Text)
				break
			}
		}
	})
	return h, err
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}

// discover walks root for session logs and groups them by session id.
// Files with no determinable id are registered under a synthetic id rather
// than excluded.
func discover(a *adapter, root string) ([]provider.SessionIndex, error) {
	sessions := make(map[string]*provider.SessionIndex)
	var order []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() || a.Probe(path) == provider.ProbeNoMatch {
			return nil
		}

		header, err := extractHeader(path)
		if err != nil {
			return nil
		}

		id := header.sessionID
		synthetic := false
		if id == "" {
			id = provider.SyntheticSessionID(path)
			synthetic = true
		}

		idx, ok := sessions[id]
		if !ok {
			idx = &provider.SessionIndex{
				Provider:  a.Name(),
				SessionID: id,
				Timestamp: parseTimestamp(header.timestamp),
				Synthetic: synthetic,
			}
			sessions[id] = idx
			order = append(order, id)
		}

		if idx.MainFile == "" && !header.sidechain {
			idx.MainFile = path
			idx.Snippet = header.snippet
		} else if idx.MainFile == "" && header.sidechain {
			// No main transcript seen yet; fixed up after the walk.
			idx.SidechainFiles = append(idx.SidechainFiles, path)
		} else {
			idx.SidechainFiles = append(idx.SidechainFiles, path)
		}

		if info, err := d.Info(); err == nil && info.ModTime().After(idx.ModTime) {
			idx.ModTime = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(order)
	out := make([]provider.SessionIndex, 0, len(order))
	for _, id := range order {
		idx := sessions[id]
		if idx.MainFile == "" && len(idx.SidechainFiles) > 0 {
			idx.MainFile = idx.SidechainFiles[0]
			idx.SidechainFiles = idx.SidechainFiles[1:]
		}
		out = append(out, *idx)
	}
	return out, nil
}
