// Package session keeps a chat history against one model and persists it
// as a JSON session file.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"ollamakit/internal/common/fsutil"
	"ollamakit/pkg/ollama"
)

// Session is a chat with one model. It is not safe for concurrent use.
//
// The exported fields are the session file: {base_url, model, history,
// last_request}. LastRequest holds the last reply as returned by the server.
type Session struct {
	BaseURL     string           `json:"base_url"`
	Model       string           `json:"model"`
	History     []ollama.Message `json:"history"`
	LastRequest json.RawMessage  `json:"last_request"`

	client     *ollama.Client
	clientBase string
	opts       []ollama.Option
	defaults   *ollama.Options
}

// PromptOptions tune a single prompt. Options are merged over the session
// defaults set with SetDefaultOptions.
type PromptOptions struct {
	Options   *ollama.Options
	System    string
	KeepAlive string
	Format    json.RawMessage
	Images    []ollama.ImageData
}

// New starts an empty session. opts configure the underlying client.
func New(baseURL, model string, opts ...ollama.Option) *Session {
	return &Session{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		History: []ollama.Message{},
		opts:    opts,
	}
}

// Load restores a session written by Export.
func Load(path string, opts ...ollama.Option) (*Session, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	s := &Session{opts: opts}
	if err := json.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", path, err)
	}
	s.BaseURL = strings.TrimRight(s.BaseURL, "/")
	if s.History == nil {
		s.History = []ollama.Message{}
	}
	return s, nil
}

// Client returns the client bound to BaseURL.
func (s *Session) Client() *ollama.Client {
	if s.client == nil || s.clientBase != s.BaseURL {
		s.client = ollama.New(s.BaseURL, s.opts...)
		s.clientBase = s.BaseURL
	}
	return s.client
}

// SetDefaultOptions sets options applied to every prompt of this session.
// They are not written to the session file.
func (s *Session) SetDefaultOptions(o *ollama.Options) { s.defaults = o }

func (s *Session) AddMessage(role, content string) {
	s.History = append(s.History, ollama.Message{Role: role, Content: content})
}

func (s *Session) ClearHistory() {
	s.History = []ollama.Message{}
	s.LastRequest = nil
}

// SendPrompt appends prompt to the history, asks the model for a reply in a
// single response and appends the reply. On failure the user message stays
// in the history.
func (s *Session) SendPrompt(ctx context.Context, prompt string, p *PromptOptions) (string, error) {
	return s.StreamPrompt(ctx, prompt, p, nil)
}

// StreamPrompt is SendPrompt with the reply streamed; fn sees every chunk.
// A nil fn requests a non-streamed reply.
func (s *Session) StreamPrompt(ctx context.Context, prompt string, p *PromptOptions, fn ollama.ChatResponseFunc) (string, error) {
	if p == nil {
		p = &PromptOptions{}
	}
	user := ollama.Message{Role: "user", Content: prompt}
	if len(p.Images) > 0 {
		user.Images = append([]ollama.ImageData(nil), p.Images...)
	}
	s.History = append(s.History, user)

	msgs, err := ollama.PrepareChatMessages(p.System, s.History, nil)
	if err != nil {
		return "", err
	}
	opts, err := s.defaults.Merge(p.Options)
	if err != nil {
		return "", err
	}
	req := &ollama.ChatRequest{
		Model:     s.Model,
		Messages:  msgs,
		Stream:    ollama.Ptr(fn != nil),
		Format:    p.Format,
		KeepAlive: p.KeepAlive,
	}
	if !opts.IsZero() {
		req.Options = opts
	}

	var acc ollama.ChatAccumulator
	err = s.Client().Chat(ctx, req, func(r ollama.ChatResponse) error {
		acc.Add(r)
		if fn != nil {
			return fn(r)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	reply := acc.Response()
	raw, err := json.Marshal(reply)
	if err != nil {
		return "", fmt.Errorf("encode reply: %w", err)
	}
	s.LastRequest = raw
	s.AddMessage("assistant", reply.Message.Content)
	return reply.Message.Content, nil
}

// LastReply decodes LastRequest, or returns nil when there is none.
func (s *Session) LastReply() (*ollama.ChatResponse, error) {
	if len(s.LastRequest) == 0 || string(s.LastRequest) == "null" {
		return nil, nil
	}
	var r ollama.ChatResponse
	if err := json.Unmarshal(s.LastRequest, &r); err != nil {
		return nil, fmt.Errorf("decode last reply: %w", err)
	}
	return &r, nil
}

// Marshal renders the session file: two-space indented JSON without HTML
// escaping, so text round-trips unchanged.
func (s *Session) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Export writes the session file to path atomically.
func (s *Session) Export(path string) error {
	b, err := s.Marshal()
	if err != nil {
		return err
	}
	return fsutil.AtomicWriteFile(path, b, 0o644)
}
