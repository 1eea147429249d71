// Package main provides the agtrace CLI for browsing and analyzing AI
// coding-agent session logs.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"agtrace/internal/analysis"
	"agtrace/internal/config"
	"agtrace/internal/event"
	"agtrace/internal/format"
	"agtrace/internal/modellimit"
	"agtrace/internal/provider"
	// Import the provider packages to trigger init() registration.
	_ "agtrace/internal/provider/claude"
	_ "agtrace/internal/provider/codex"
	_ "agtrace/internal/provider/gemini"
	"agtrace/internal/session"
	"agtrace/internal/store"
	"agtrace/internal/view"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:     "agtrace",
	Short:   "Browse, inspect, and analyze AI coding-agent session logs",
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file path (env: AGTRACE_CONFIG, default: ~/.agtrace/config.yaml)")

	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newViewCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newProvidersCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "agtrace: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("AGTRACE_CONFIG")
	}
	if path == "" {
		path = config.DefaultPath()
	}
	return config.LoadOrDefault(path)
}

// buildRegistry merges every adapter's built-in limit table with the user's
// overrides; overrides win on equal prefixes.
func buildRegistry(adapters []provider.Adapter, cfg *config.Config) *modellimit.Registry {
	groups := make([][]modellimit.Spec, 0, len(adapters)+1)
	for _, a := range adapters {
		groups = append(groups, a.ModelSpecs())
	}
	groups = append(groups, cfg.ModelSpecs())
	return modellimit.NewRegistry(groups...)
}

func scanOptions(cfg *config.Config, providers []string, afterStr, beforeStr string, limit int) (store.ScanOptions, error) {
	opts := store.ScanOptions{
		Roots:     cfg.Providers,
		Providers: providers,
		Limit:     limit,
	}
	var err error
	if opts.After, err = parseTimeFlag("after", afterStr); err != nil {
		return opts, err
	}
	if opts.Before, err = parseTimeFlag("before", beforeStr); err != nil {
		return opts, err
	}
	return opts, nil
}

func parseTimeFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid --%s value: %s (want RFC3339 or YYYY-MM-DD)", name, value)
}

// loadSession resolves ref to a session and assembles its event timeline.
func loadSession(ctx context.Context, cfg *config.Config, opts store.ScanOptions, ref string) (*session.Session, provider.SessionIndex, *provider.Diagnostics, error) {
	adapters := provider.All()
	adapter, idx, err := store.FindSession(ctx, adapters, opts, ref)
	if err != nil {
		return nil, provider.SessionIndex{}, nil, err
	}

	events, diag, err := adapter.Events(idx)
	if err != nil {
		return nil, idx, diag, fmt.Errorf("parse session %s: %w", idx.SessionID, err)
	}

	limits := buildRegistry(adapters, cfg)
	sess := session.Assemble(sessionUUID(idx, events), limits, events)
	return sess, idx, diag, nil
}

func sessionUUID(idx provider.SessionIndex, events []event.Event) uuid.UUID {
	if len(events) > 0 {
		return events[0].SessionID
	}
	if id, err := uuid.Parse(idx.SessionID); err == nil {
		return id
	}
	return uuid.MustParse(provider.SyntheticSessionID(idx.MainFile))
}

func printWarnings(errs io.Writer, warnings []error) {
	for _, warn := range warnings {
		fmt.Fprintf(errs, "warning: %v\n", warn) //nolint:errcheck
	}
}

func newListCmd() *cobra.Command {
	var (
		providers  []string
		afterStr   string
		beforeStr  string
		limit      int
		formatFlag string
		noHeader   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions across all providers, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opts, err := scanOptions(cfg, providers, afterStr, beforeStr, limit)
			if err != nil {
				return err
			}

			result, err := store.Scan(cmd.Context(), provider.All(), opts)
			if err != nil {
				return err
			}
			printWarnings(cmd.ErrOrStderr(), result.Warnings)

			return format.WriteEntries(cmd.OutOrStdout(), result.Entries, !noHeader, strings.ToLower(formatFlag))
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&providers, "provider", nil, "restrict to the named providers (repeatable)")
	flags.StringVar(&afterStr, "after", "", "include sessions starting on/after the given time")
	flags.StringVar(&beforeStr, "before", "", "include sessions starting on/before the given time")
	flags.IntVar(&limit, "limit", 0, "limit number of sessions returned (0 means no limit)")
	flags.StringVar(&formatFlag, "format", "table", "output format: table, plain, json, or jsonl")
	flags.BoolVar(&noHeader, "no-header", false, "omit the header row")

	return cmd
}

func newViewCmd() *cobra.Command {
	var (
		wrap         int
		maxTurns     int
		forceColor   bool
		forceNoColor bool
		noPager      bool
	)

	cmd := &cobra.Command{
		Use:   "view <session-id-or-path>",
		Short: "Render a session as a turn-structured transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if forceColor && forceNoColor {
				return errors.New("--color and --no-color cannot be used together")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opts, err := scanOptions(cfg, nil, "", "", 0)
			if err != nil {
				return err
			}

			sess, _, diag, err := loadSession(cmd.Context(), cfg, opts, args[0])
			if err != nil {
				return err
			}
			if diag != nil && diag.Malformed > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d malformed records skipped\n", diag.Malformed) //nolint:errcheck
			}

			out := cmd.OutOrStdout()
			outFile, _ := out.(*os.File)
			return view.Render(sess, view.Options{
				Wrap:         wrap,
				MaxTurns:     maxTurns,
				ForceColor:   forceColor,
				ForceNoColor: forceNoColor,
				NoPager:      noPager,
				Out:          out,
				OutFile:      outFile,
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&wrap, "wrap", 0, "wrap message text at the given column width")
	flags.IntVar(&maxTurns, "max-turns", 0, "show only the most recent N turns (0 means all)")
	flags.BoolVar(&forceColor, "color", false, "force-enable ANSI colors even when stdout is not a TTY")
	flags.BoolVar(&forceNoColor, "no-color", false, "disable ANSI colors regardless of terminal detection")
	flags.BoolVar(&noPager, "no-pager", false, "write directly to stdout instead of $PAGER")

	return cmd
}

func newEventsCmd() *cobra.Command {
	var diagnostics bool

	cmd := &cobra.Command{
		Use:   "events <session-id-or-path>",
		Short: "Dump a session's canonical events as JSONL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opts, err := scanOptions(cfg, nil, "", "", 0)
			if err != nil {
				return err
			}

			adapters := provider.All()
			adapter, idx, err := store.FindSession(cmd.Context(), adapters, opts, args[0])
			if err != nil {
				return err
			}
			events, diag, err := adapter.Events(idx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, ev := range events {
				if err := enc.Encode(ev); err != nil {
					return err
				}
			}

			if diagnostics && diag != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "lines=%d malformed=%d orphaned=%d\n", //nolint:errcheck
					diag.Lines, diag.Malformed, diag.Orphaned)
				for _, ex := range diag.Examples {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", ex) //nolint:errcheck
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&diagnostics, "diagnostics", false, "print decode diagnostics to stderr")

	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var (
		all        bool
		providers  []string
		limit      int
		formatFlag string
	)

	cmd := &cobra.Command{
		Use:   "analyze [session-id-or-path]",
		Short: "Run behavioral analysis over one session or every session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New("pass exactly one session id, or --all")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opts, err := scanOptions(cfg, providers, "", "", limit)
			if err != nil {
				return err
			}

			if !all {
				sess, _, _, err := loadSession(cmd.Context(), cfg, opts, args[0])
				if err != nil {
					return err
				}
				report := analysis.Analyze(sess, cfg.Analysis)
				return format.WriteReport(cmd.OutOrStdout(), report, strings.ToLower(formatFlag))
			}

			reports, warnings, err := analyzeAll(cmd.Context(), cfg, opts)
			if err != nil {
				return err
			}
			printWarnings(cmd.ErrOrStderr(), warnings)
			return format.WriteReports(cmd.OutOrStdout(), reports, strings.ToLower(formatFlag))
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&all, "all", false, "analyze every discovered session")
	flags.StringSliceVar(&providers, "provider", nil, "restrict --all to the named providers (repeatable)")
	flags.IntVar(&limit, "limit", 0, "with --all, analyze only the N most recent sessions")
	flags.StringVar(&formatFlag, "format", "table", "output format: table, json, or jsonl")

	return cmd
}

// analyzeAll scans every provider and analyzes the sessions in parallel. A
// session that fails to parse becomes a warning, not an abort.
func analyzeAll(ctx context.Context, cfg *config.Config, opts store.ScanOptions) ([]*analysis.Report, []error, error) {
	adapters := provider.All()
	result, err := store.Scan(ctx, adapters, opts)
	if err != nil {
		return nil, nil, err
	}
	warnings := result.Warnings

	byName := make(map[string]provider.Adapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}
	limits := buildRegistry(adapters, cfg)

	var (
		mu      sync.Mutex
		reports []*analysis.Report
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, idx := range result.Entries {
		idx := idx
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			adapter, ok := byName[idx.Provider]
			if !ok {
				return nil
			}
			events, _, err := adapter.Events(idx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				warnings = append(warnings, fmt.Errorf("%s: %w", idx.SessionID, err))
				return nil
			}
			sess := session.Assemble(sessionUUID(idx, events), limits, events)
			reports = append(reports, analysis.Analyze(sess, cfg.Analysis))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, warnings, err
	}

	sort.Slice(reports, func(i, j int) bool {
		if reports[i].Score != reports[j].Score {
			return reports[i].Score < reports[j].Score
		}
		return reports[i].SessionID.String() < reports[j].SessionID.String()
	})
	return reports, warnings, nil
}

type infoPayload struct {
	SessionID     string    `json:"session_id"`
	Provider      string    `json:"provider"`
	Path          string    `json:"path"`
	Model         string    `json:"model,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	EndedAt       time.Time `json:"ended_at"`
	TurnCount     int       `json:"turn_count"`
	EventCount    int       `json:"event_count"`
	InputTokens   int       `json:"input_tokens"`
	OutputTokens  int       `json:"output_tokens"`
	ContextUsed      int     `json:"context_used"`
	ContextLimit     int     `json:"context_limit,omitempty"`
	ContextEffective int     `json:"context_effective,omitempty"`
	ContextPct       float64 `json:"context_pct,omitempty"`
	LinesRead     int       `json:"lines_read"`
	MalformedRows int       `json:"malformed_rows"`
	OrphanedRows  int       `json:"orphaned_rows"`
}

func newInfoCmd() *cobra.Command {
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "info <session-id-or-path>",
		Short: "Show session metadata and decode diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opts, err := scanOptions(cfg, nil, "", "", 0)
			if err != nil {
				return err
			}

			sess, idx, diag, err := loadSession(cmd.Context(), cfg, opts, args[0])
			if err != nil {
				return err
			}

			payload := infoPayload{
				SessionID:    sess.ID.String(),
				Provider:     idx.Provider,
				Path:         idx.MainFile,
				Model:        sess.Model,
				StartedAt:    sess.StartedAt,
				EndedAt:      sess.EndedAt,
				TurnCount:    sess.TurnCount(),
				EventCount:   sess.EventCount,
				InputTokens:  sess.Usage.Input.Total(),
				OutputTokens: sess.Usage.Output.Total(),
				ContextUsed:  sess.Window.UsedTokens,
			}
			if sess.Window.LimitKnown {
				payload.ContextLimit = sess.Window.Limit
				payload.ContextEffective = sess.Window.EffectiveLimit
				payload.ContextPct = sess.Window.Percent
			}
			if diag != nil {
				payload.LinesRead = diag.Lines
				payload.MalformedRows = diag.Malformed
				payload.OrphanedRows = diag.Orphaned
			}

			switch strings.ToLower(formatFlag) {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			case "", "text":
				renderInfoText(cmd.OutOrStdout(), payload)
				return nil
			default:
				return fmt.Errorf("unsupported format: %s", formatFlag)
			}
		},
	}

	cmd.Flags().StringVar(&formatFlag, "format", "text", "output format: text or json")

	return cmd
}

func renderInfoText(out io.Writer, p infoPayload) {
	const labelWidth = 14
	writeKV(out, labelWidth, "Session ID", p.SessionID)
	writeKV(out, labelWidth, "Provider", p.Provider)
	writeKV(out, labelWidth, "Path", p.Path)
	writeKV(out, labelWidth, "Model", valueOr(p.Model, "unknown"))
	writeKV(out, labelWidth, "Started At", p.StartedAt.Format(time.RFC3339))
	writeKV(out, labelWidth, "Ended At", p.EndedAt.Format(time.RFC3339))
	writeKV(out, labelWidth, "Turns", fmt.Sprintf("%d", p.TurnCount))
	writeKV(out, labelWidth, "Events", fmt.Sprintf("%d", p.EventCount))
	writeKV(out, labelWidth, "Tokens", fmt.Sprintf("%d in / %d out", p.InputTokens, p.OutputTokens))
	if p.ContextLimit > 0 {
		writeKV(out, labelWidth, "Context", fmt.Sprintf("%d / %d (%.1f%%)", p.ContextUsed, p.ContextLimit, p.ContextPct))
		if p.ContextEffective > 0 && p.ContextEffective < p.ContextLimit {
			writeKV(out, labelWidth, "Compacts near", fmt.Sprintf("%d", p.ContextEffective))
		}
	} else {
		writeKV(out, labelWidth, "Context", fmt.Sprintf("%d used (limit unknown)", p.ContextUsed))
	}
	writeKV(out, labelWidth, "Decode", fmt.Sprintf("%d lines, %d malformed, %d orphaned", p.LinesRead, p.MalformedRows, p.OrphanedRows))
}

func writeKV(out io.Writer, width int, label string, value string) {
	fmt.Fprintf(out, "%-*s: %s\n", width, label, value) //nolint:errcheck
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List supported providers and their log roots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, meta := range provider.Providers {
				root := cfg.Root(meta.Name, meta.DefaultRoot)
				fmt.Fprintf(out, "%-8s %-14s %s\n", meta.Name, meta.Description, provider.ExpandRoot(root)) //nolint:errcheck
			}
			return nil
		},
	}
}
