package gemini

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"agtrace/internal/event"
	"agtrace/internal/provider"
)

// parseFile decodes a session snapshot. The current object format is tried
// first, then the legacy flat array of prompt-history rows. Legacy rows
// keep their numeric ids, so normalization treats them as bookkeeping and
// the file still yields a usable header for discovery.
func parseFile(path string) (*session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var s session
	if err := json.Unmarshal(data, &s); err == nil && s.SessionID != "" {
		return &s, nil
	}

	var legacy []legacyMessage
	if err := json.Unmarshal(data, &legacy); err == nil && len(legacy) > 0 {
		return sessionFromLegacy(legacy), nil
	}

	return nil, fmt.Errorf("%s: %w", path, errUnknownFormat)
}

var errUnknownFormat = fmt.Errorf("not a known session format")

func sessionFromLegacy(legacy []legacyMessage) *session {
	s := &session{
		SessionID:   legacy[0].SessionID,
		StartTime:   legacy[0].Timestamp,
		LastUpdated: legacy[len(legacy)-1].Timestamp,
	}
	for _, m := range legacy {
		s.Messages = append(s.Messages, message{
			Type:      "user",
			ID:        strconv.FormatUint(uint64(m.MessageID), 10),
			Timestamp: m.Timestamp,
			Content:   m.Message,
		})
	}
	return s
}

func parseSession(idx provider.SessionIndex) ([]event.Event, *provider.Diagnostics, error) {
	diag := &provider.Diagnostics{}

	s, err := parseFile(idx.MainFile)
	if err != nil {
		return nil, diag, err
	}

	n := newNormalizer(idx.SessionID, diag)
	var events []event.Event
	n.appendSession(&events, s)
	return events, diag, nil
}
