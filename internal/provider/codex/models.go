package codex

import "agtrace/internal/modellimit"

// The CLI reports the live window in token_count lines, so this table only
// backstops sessions recorded before that field existed.
var modelSpecs = []modellimit.Spec{
	{Prefix: "gpt-5.2", ContextWindow: 400_000},
	{Prefix: "gpt-5.1-codex-max", ContextWindow: 400_000},
	{Prefix: "gpt-5.1-codex-mini", ContextWindow: 400_000},
	{Prefix: "gpt-5.1-codex", ContextWindow: 400_000},
	{Prefix: "gpt-5.1", ContextWindow: 400_000},
	{Prefix: "gpt-5-codex-mini", ContextWindow: 400_000},
	{Prefix: "gpt-5-codex", ContextWindow: 400_000},
	{Prefix: "gpt-5", ContextWindow: 400_000},
}
