package event

import "encoding/json"

// ToolKind is the coarse capability class of a tool.
type ToolKind string

const (
	ToolKindRead    ToolKind = "read"
	ToolKindWrite   ToolKind = "write"
	ToolKindExecute ToolKind = "execute"
	ToolKindPlan    ToolKind = "plan"
	ToolKindSearch  ToolKind = "search"
	ToolKindAsk     ToolKind = "ask"
	ToolKindOther   ToolKind = "other"
)

// ToolOrigin distinguishes built-in tools from MCP server tools.
type ToolOrigin string

const (
	ToolOriginSystem ToolOrigin = "system"
	ToolOriginMCP    ToolOrigin = "mcp"
)

// ToolArgs is the closed set of normalized tool-argument shapes. Arguments
// that match no known shape are carried verbatim as GenericArgs so no data
// is ever lost to schema drift.
type ToolArgs interface {
	isToolArgs()
}

// FileReadArgs covers file- and glob-style read tools. At most one of
// FilePath, Path, or Pattern is the primary target depending on the tool.
type FileReadArgs struct {
	FilePath string `json:"file_path,omitempty"`
	Path     string `json:"path,omitempty"`
	Pattern  string `json:"pattern,omitempty"`
}

// Target returns the most specific read target available.
func (a FileReadArgs) Target() string {
	if a.FilePath != "" {
		return a.FilePath
	}
	if a.Pattern != "" {
		return a.Pattern
	}
	return a.Path
}

// FileEditArgs is a targeted string replacement in one file.
type FileEditArgs struct {
	FilePath   string `json:"file_path"`
	OldString  string `json:"old_string"`
	NewString  string `json:"new_string"`
	ReplaceAll bool   `json:"replace_all,omitempty"`
}

// FileWriteArgs creates or overwrites one file.
type FileWriteArgs struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
}

// ExecuteArgs runs a command.
type ExecuteArgs struct {
	Command     string `json:"command,omitempty"`
	Description string `json:"description,omitempty"`
	TimeoutMS   int64  `json:"timeout_ms,omitempty"`
}

// SearchArgs covers grep/query style tools. The populated field depends on
// the provider's naming.
type SearchArgs struct {
	Pattern string `json:"pattern,omitempty"`
	Query   string `json:"query,omitempty"`
	Input   string `json:"input,omitempty"`
	Path    string `json:"path,omitempty"`
}

// Term returns whichever search term the provider supplied.
func (a SearchArgs) Term() string {
	if a.Pattern != "" {
		return a.Pattern
	}
	if a.Query != "" {
		return a.Query
	}
	return a.Input
}

// McpArgs is a call routed to an MCP server tool. Inner keeps the
// server-defined arguments untouched.
type McpArgs struct {
	Server string          `json:"server"`
	Tool   string          `json:"tool"`
	Inner  json.RawMessage `json:"inner,omitempty"`
}

// GenericArgs retains the original argument payload verbatim.
type GenericArgs struct {
	Raw json.RawMessage `json:"raw"`
}

func (FileReadArgs) isToolArgs()  {}
func (FileEditArgs) isToolArgs()  {}
func (FileWriteArgs) isToolArgs() {}
func (ExecuteArgs) isToolArgs()   {}
func (SearchArgs) isToolArgs()    {}
func (McpArgs) isToolArgs()       {}
func (GenericArgs) isToolArgs()   {}

// ToolCallPayload is an agent tool invocation with normalized arguments.
type ToolCallPayload struct {
	Name           string
	ProviderCallID string
	Origin         ToolOrigin
	Kind           ToolKind
	Args           ToolArgs
}

// ArgsVariant names the concrete argument shape, for display and export.
func (p ToolCallPayload) ArgsVariant() string {
	switch p.Args.(type) {
	case FileReadArgs:
		return "file_read"
	case FileEditArgs:
		return "file_edit"
	case FileWriteArgs:
		return "file_write"
	case ExecuteArgs:
		return "execute"
	case SearchArgs:
		return "search"
	case McpArgs:
		return "mcp"
	default:
		return "generic"
	}
}
