package types

import "ollamakit/pkg/ollama"

// PromptRequest is the body of POST /chat/stream.
type PromptRequest struct {
	// Required user message.
	// example: Explain goroutines in one paragraph.
	Prompt string `json:"prompt" example:"Explain goroutines in one paragraph."`
	// Optional preset to switch to before sending.
	// example: coder
	Preset string `json:"preset,omitempty" example:"coder"`
	// Optional system prompt for this message only.
	// example: Answer briefly.
	System string `json:"system,omitempty" example:"Answer briefly."`
	// Optional per-message model options, merged over the preset options.
	Options *ollama.Options `json:"options,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// SaveResponse is returned by POST /save_settings.
type SaveResponse struct {
	// example: success
	Status string `json:"status" example:"success"`
}

// HistoryResponse is returned by GET /api/history.
type HistoryResponse struct {
	// Conversation the messages belong to.
	// example: chat_001
	Conversation string `json:"conversation" example:"chat_001"`
	// Model the conversation talks to.
	// example: llama3:8b
	Model string `json:"model" example:"llama3:8b"`
	// Preset last selected, if any.
	// example: coder
	Preset string `json:"preset,omitempty" example:"coder"`
	// Error of the last failed exchange, cleared by the next success.
	LastError string `json:"last_error,omitempty"`
	// Messages in order.
	Messages []ollama.Message `json:"messages"`
}

// ConversationsResponse is returned by GET /api/conversations.
type ConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Model used for the next message.
	// example: llama3:8b
	Model string `json:"model" example:"llama3:8b"`
	// Preset last selected, if any.
	// example: coder
	Preset string `json:"preset,omitempty" example:"coder"`
	// Ollama server the web UI talks to.
	// example: http://localhost:11434
	BaseURL string `json:"base_url" example:"http://localhost:11434"`
	// Conversation currently loaded.
	// example: chat_001
	Conversation string `json:"conversation" example:"chat_001"`
	// Number of messages in the loaded conversation.
	// example: 4
	Messages int `json:"messages" example:"4"`
	// Number of saved conversations.
	// example: 12
	Conversations int `json:"conversations" example:"12"`
	// Version reported by the Ollama server, empty when unreachable.
	// example: 0.5.7
	OllamaVersion string `json:"ollama_version,omitempty" example:"0.5.7"`
	// Last error observed by the manager (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
	// Total messages sent since start.
	// example: 42
	MessagesTotal uint64 `json:"messages_total" example:"42"`
}
