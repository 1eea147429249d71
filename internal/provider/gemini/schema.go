// Package gemini adapts Gemini CLI session snapshots (a single JSON file
// per session under ~/.gemini/tmp/<project-hash>) to the canonical event
// model.
package gemini

import "encoding/json"

// session is the current on-disk format: one JSON object holding the whole
// conversation, rewritten in place as the session grows.
type session struct {
	SessionID   string    `json:"sessionId"`
	ProjectHash string    `json:"projectHash"`
	StartTime   string    `json:"startTime"`
	LastUpdated string    `json:"lastUpdated"`
	Messages    []message `json:"messages"`
}

// message is tagged by "type": user, gemini, or info. The assistant fields
// are only populated for gemini messages.
type message struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Content   string `json:"content"`

	Model     string     `json:"model"`
	Thoughts  []thought  `json:"thoughts"`
	ToolCalls []toolCall `json:"toolCalls"`
	Tokens    *tokens    `json:"tokens"`
}

type thought struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

// toolCall embeds the result of the call; the CLI does not record separate
// result messages.
type toolCall struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Args          json.RawMessage    `json:"args"`
	Result        []functionResponse `json:"result"`
	Status        string             `json:"status"`
	ResultDisplay string             `json:"resultDisplay"`
}

type functionResponse struct {
	FunctionResponse struct {
		ID       string          `json:"id"`
		Name     string          `json:"name"`
		Response json.RawMessage `json:"response"`
	} `json:"functionResponse"`
}

type tokens struct {
	Input    int `json:"input"`
	Output   int `json:"output"`
	Cached   int `json:"cached"`
	Thoughts int `json:"thoughts"`
	Tool     int `json:"tool"`
	Total    int `json:"total"`
}

// legacyMessage is the pre-session flat format: a bare JSON array of user
// prompts with numeric ids.
type legacyMessage struct {
	SessionID string `json:"sessionId"`
	MessageID uint32 `json:"messageId"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}
