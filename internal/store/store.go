// Package store enumerates sessions across every configured provider. It
// deals in pointer records only; event payloads never pass through here.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"agtrace/internal/provider"
)

// ScanOptions controls session enumeration.
type ScanOptions struct {
	// Roots maps a provider name to its log root. Providers without an
	// entry use their default root; ~ is expanded either way.
	Roots map[string]string
	// Providers restricts the scan to the named providers; empty means all.
	Providers []string
	After     *time.Time
	Before    *time.Time
	Limit     int
}

// Result carries the discovered sessions plus non-fatal warnings. A
// provider root that cannot be walked is a warning, never an abort.
type Result struct {
	Entries  []provider.SessionIndex
	Warnings []error
}

// Scan walks every provider root in parallel and merges the per-provider
// indexes, newest first.
func Scan(ctx context.Context, adapters []provider.Adapter, opts ScanOptions) (Result, error) {
	var (
		mu     sync.Mutex
		result Result
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, a := range adapters {
		if !providerEnabled(a.Name(), opts.Providers) {
			continue
		}
		a := a
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			root := resolveRoot(a, opts.Roots)
			entries, err := a.Discover(root)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Errorf("%s: scan %s: %w", a.Name(), root, err))
				return nil
			}
			result.Entries = append(result.Entries, entries...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	result.Entries = filterEntries(result.Entries, opts)
	sort.Slice(result.Entries, func(i, j int) bool {
		return result.Entries[i].ModTime.After(result.Entries[j].ModTime)
	})
	if opts.Limit > 0 && len(result.Entries) > opts.Limit {
		result.Entries = result.Entries[:opts.Limit]
	}
	return result, nil
}

func providerEnabled(name string, enabled []string) bool {
	if len(enabled) == 0 {
		return true
	}
	for _, e := range enabled {
		if e == name {
			return true
		}
	}
	return false
}

func resolveRoot(a provider.Adapter, roots map[string]string) string {
	if root, ok := roots[a.Name()]; ok && root != "" {
		return provider.ExpandRoot(root)
	}
	return provider.ExpandRoot(a.DefaultRoot())
}

func filterEntries(entries []provider.SessionIndex, opts ScanOptions) []provider.SessionIndex {
	if opts.After == nil && opts.Before == nil {
		return entries
	}
	filtered := entries[:0]
	for _, e := range entries {
		if opts.After != nil && e.Timestamp.Before(*opts.After) {
			continue
		}
		if opts.Before != nil && e.Timestamp.After(*opts.Before) {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

// FindSession resolves ref, either a session id (full or unambiguous
// prefix) or a log file path, to one adapter and index entry.
func FindSession(ctx context.Context, adapters []provider.Adapter, opts ScanOptions, ref string) (provider.Adapter, provider.SessionIndex, error) {
	if ref == "" {
		return nil, provider.SessionIndex{}, errors.New("session id or path is required")
	}

	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return findByPath(adapters, ref, info.ModTime())
	}

	result, err := Scan(ctx, adapters, opts)
	if err != nil {
		return nil, provider.SessionIndex{}, err
	}

	var matches []provider.SessionIndex
	for _, e := range result.Entries {
		if e.SessionID == ref {
			matches = []provider.SessionIndex{e}
			break
		}
		if strings.HasPrefix(e.SessionID, ref) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return nil, provider.SessionIndex{}, fmt.Errorf("session %s not found", ref)
	case 1:
		for _, a := range adapters {
			if a.Name() == matches[0].Provider {
				return a, matches[0], nil
			}
		}
		return nil, provider.SessionIndex{}, fmt.Errorf("no adapter for provider %s", matches[0].Provider)
	default:
		return nil, provider.SessionIndex{}, fmt.Errorf("session id %s is ambiguous (%d matches)", ref, len(matches))
	}
}

func findByPath(adapters []provider.Adapter, path string, modTime time.Time) (provider.Adapter, provider.SessionIndex, error) {
	a := adapterForPath(adapters, path)
	if a == nil {
		return nil, provider.SessionIndex{}, fmt.Errorf("no provider recognizes %s", path)
	}

	idx := provider.SessionIndex{
		Provider: a.Name(),
		MainFile: path,
		ModTime:  modTime,
	}
	id, err := a.ExtractSessionID(path)
	if err != nil {
		idx.SessionID = provider.SyntheticSessionID(path)
		idx.Synthetic = true
	} else {
		idx.SessionID = id
	}
	return a, idx, nil
}

// adapterForPath picks the adapter for a file: a directory marker in the
// path wins, then the first adapter whose probe matches.
func adapterForPath(adapters []provider.Adapter, path string) provider.Adapter {
	if name, err := provider.DetectFromPath(path); err == nil {
		for _, a := range adapters {
			if a.Name() == name && a.Probe(path) != provider.ProbeNoMatch {
				return a
			}
		}
	}
	for _, a := range adapters {
		if a.Probe(path) != provider.ProbeNoMatch {
			return a
		}
	}
	return nil
}
