package claude

import "agtrace/internal/modellimit"

// The runtime compacts the conversation well before the window fills; the
// buffer share is observed behavior, not documented.
const compactionBufferPct = 22.5

var modelSpecs = []modellimit.Spec{
	{Prefix: "claude-sonnet-4-5", ContextWindow: 200_000, CompactionBufferPct: compactionBufferPct},
	{Prefix: "claude-haiku-4-5", ContextWindow: 200_000, CompactionBufferPct: compactionBufferPct},
	{Prefix: "claude-opus-4-5", ContextWindow: 200_000, CompactionBufferPct: compactionBufferPct},
	{Prefix: "claude-sonnet-4", ContextWindow: 200_000, CompactionBufferPct: compactionBufferPct},
	{Prefix: "claude-haiku-4", ContextWindow: 200_000, CompactionBufferPct: compactionBufferPct},
	{Prefix: "claude-opus-4", ContextWindow: 200_000, CompactionBufferPct: compactionBufferPct},
	{Prefix: "claude-3-5", ContextWindow: 200_000, CompactionBufferPct: compactionBufferPct},
	{Prefix: "claude-3", ContextWindow: 200_000, CompactionBufferPct: compactionBufferPct},
}
