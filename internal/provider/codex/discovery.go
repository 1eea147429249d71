package codex

import (
	"encoding/json"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"agtrace/internal/provider"
)

// fileHeader carries what discovery needs from one rollout file. The
// session_meta line is usually first but not guaranteed to be, so the scan
// continues until every field is found or the file ends.
type fileHeader struct {
	sessionID string
	timestamp string
	snippet   string
}

func extractHeader(path string) (fileHeader, error) {
	var h fileHeader
	diag := &provider.Diagnostics{}
	err := iterateRecords(path, diag, func(rec *record) {
		switch rec.Type {
		case lineSessionMeta:
			if h.sessionID != "" {
				return
			}
			var meta sessionMeta
			if json.Unmarshal(rec.Payload, &meta) == nil {
				h.sessionID = meta.ID
				h.timestamp = meta.Timestamp
				if h.timestamp == "" {
					h.timestamp = rec.Timestamp
				}
			}
		case lineResponseItem:
			if h.snippet != "" {
				return
			}
			var item responseItem
			if json.Unmarshal(rec.Payload, &item) != nil {
				return
			}
			if item.Type != "message" || item.Role != "user" {
				return
			}
			text := joinContent(item.Content)
			if text == "" || strings.HasPrefix(text, "<") {
				return
			}
			h.snippet = firstLine(text)
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

func discover(a *adapter, root string) ([]provider.SessionIndex, error) {
	var out []provider.SessionIndex

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

		idx := provider.SessionIndex{
			Provider:  a.Name(),
			SessionID: header.sessionID,
			Timestamp: parseTimestamp(header.timestamp),
			MainFile:  path,
			Snippet:   header.snippet,
		}
		if idx.SessionID == "" {
			idx.SessionID = provider.SyntheticSessionID(path)
			idx.Synthetic = true
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
