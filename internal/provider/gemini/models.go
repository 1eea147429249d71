package gemini

import "agtrace/internal/modellimit"

var modelSpecs = []modellimit.Spec{
	{Prefix: "gemini-2.5-pro", ContextWindow: 1_048_576},
	{Prefix: "gemini-2.5-flash-lite", ContextWindow: 1_048_576},
	{Prefix: "gemini-2.5-flash", ContextWindow: 1_048_576},
	{Prefix: "gemini-2.0-flash-lite", ContextWindow: 1_048_576},
	{Prefix: "gemini-2.0-flash", ContextWindow: 1_048_576},
}
