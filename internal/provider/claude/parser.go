package claude

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"agtrace/internal/event"
	"agtrace/internal/provider"
)

// newScanner creates a scanner sized for Claude Code logs, which can carry
// very long lines (large tool outputs, file contents).
func newScanner(f *os.File) *bufio.Scanner {
	scanner := bufio.NewScanner(f)
	const maxCapacity = 8 * 1024 * 1024
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxCapacity)
	return scanner
}

// iterateRecords decodes path line by line, invoking fn for each decodable
// record. Malformed lines are counted in diag and skipped; only I/O faults
// are returned as errors.
func iterateRecords(path string, diag *provider.Diagnostics, fn func(*record)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := newScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		diag.Lines++
		var rec record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			diag.NoteMalformed(fmt.Sprintf("%s:%d: %v", path, lineNo, err))
			continue
		}
		fn(&rec)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// parseSession normalizes every file of one session into the canonical
// timeline. The main file is read first so sidechain tool results can
// resolve against calls made on the main stream.
func parseSession(idx provider.SessionIndex) ([]event.Event, *provider.Diagnostics, error) {
	diag := &provider.Diagnostics{}
	n := newNormalizer(idx.SessionID, diag)

	var events []event.Event
	files := append([]string{idx.MainFile}, idx.SidechainFiles...)
	for _, path := range files {
		if err := iterateRecords(path, diag, func(rec *record) {
			n.appendRecord(&events, rec)
		}); err != nil {
			return nil, diag, err
		}
	}
	return events, diag, nil
}
