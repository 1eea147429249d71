package provider

import (
	"encoding/json"
	"strings"

	"agtrace/internal/event"
)

// Classify maps a tool name to its origin and capability class. Providers
// consult their own tables first; this shared cascade is the fallback for
// names no table knows. Rules are ordered and first-match-wins.
func Classify(name string) (event.ToolOrigin, event.ToolKind) {
	origin := event.ToolOriginSystem
	if strings.HasPrefix(name, "mcp__") {
		origin = event.ToolOriginMCP
	}
	return origin, classifyKind(strings.ToLower(name))
}

type kindRule struct {
	substrings []string
	kind       event.ToolKind
}

// Ordered cascade: plan before search so "todo_search_plan"-style names
// land on the more specific class, read before write so "read_update"
// variants stay reads.
var kindRules = []kindRule{
	{[]string{"todo", "plan"}, event.ToolKindPlan},
	{[]string{"search", "grep", "find"}, event.ToolKindSearch},
	{[]string{"ask", "prompt", "question"}, event.ToolKindAsk},
	{[]string{"read", "get", "fetch"}, event.ToolKindRead},
	{[]string{"write", "edit", "update", "patch"}, event.ToolKindWrite},
	{[]string{"shell", "bash", "exec", "run", "command"}, event.ToolKindExecute},
}

func classifyKind(lower string) event.ToolKind {
	for _, rule := range kindRules {
		for _, sub := range rule.substrings {
			if strings.Contains(lower, sub) {
				return rule.kind
			}
		}
	}
	return event.ToolKindOther
}

// ArgSummary extracts a short human-readable target from raw tool
// arguments: a command, then a file target, then a search term. Returns ""
// when nothing recognizable is present.
func ArgSummary(raw json.RawMessage) string {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ""
	}
	for _, key := range []string{"command", "cmd", "file_path", "path", "uri", "pattern", "query", "input"} {
		if v, ok := fields[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// SplitMcpName splits an mcp__server__tool name into its server and tool
// parts. ok is false when the name is not MCP-shaped.
func SplitMcpName(name string) (server, tool string, ok bool) {
	rest, found := strings.CutPrefix(name, "mcp__")
	if !found {
		return "", "", false
	}
	server, tool, found = strings.Cut(rest, "__")
	if !found {
		return rest, "", true
	}
	return server, tool, true
}
