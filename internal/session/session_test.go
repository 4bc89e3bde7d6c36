package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ollamakit/pkg/ollama"
)

type chatServer struct {
	*httptest.Server
	mu   sync.Mutex
	last ollama.ChatRequest
}

func newChatServer(t *testing.T, reply string) *chatServer {
	t.Helper()
	cs := &chatServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		var req ollama.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		cs.mu.Lock()
		cs.last = req
		cs.mu.Unlock()
		enc := json.NewEncoder(w)
		if req.Stream != nil && !*req.Stream {
			_ = enc.Encode(map[string]any{"model": req.Model, "message": map[string]string{"role": "assistant", "content": reply}, "done": true, "eval_count": 3})
			return
		}
		for _, f := range strings.SplitAfter(reply, " ") {
			_ = enc.Encode(map[string]any{"model": req.Model, "message": map[string]string{"role": "assistant", "content": f}, "done": false})
		}
		_ = enc.Encode(map[string]any{"model": req.Model, "message": map[string]string{"role": "assistant", "content": ""}, "done": true, "eval_count": 3})
	}))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *chatServer) lastRequest() ollama.ChatRequest {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.last
}

func TestSendPrompt_AppendsBothTurns(t *testing.T) {
	srv := newChatServer(t, "Paris.")
	s := New(srv.URL+"/", "llama3")

	got, err := s.SendPrompt(context.Background(), "Capital of France?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Paris.", got)
	assert.Equal(t, []ollama.Message{
		{Role: "user", Content: "Capital of France?"},
		{Role: "assistant", Content: "Paris."},
	}, s.History)

	req := srv.lastRequest()
	assert.Equal(t, "llama3", req.Model)
	require.NotNil(t, req.Stream)
	assert.False(t, *req.Stream)
	assert.Nil(t, req.Options)

	last, err := s.LastReply()
	require.NoError(t, err)
	assert.Equal(t, 3, last.EvalCount)
}

func TestSendPrompt_OptionsAndSystem(t *testing.T) {
	srv := newChatServer(t, "ok")
	s := New(srv.URL, "m")
	s.SetDefaultOptions(&ollama.Options{Temperature: ollama.Ptr(0.1), TopK: ollama.Ptr(5)})

	_, err := s.SendPrompt(context.Background(), "hi", &PromptOptions{
		System:  "be brief",
		Options: &ollama.Options{Temperature: ollama.Ptr(0.9)},
		Images:  []ollama.ImageData{ollama.ImageData("png")},
	})
	require.NoError(t, err)

	req := srv.lastRequest()
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, []ollama.ImageData{ollama.ImageData("png")}, req.Messages[1].Images)
	require.NotNil(t, req.Options)
	assert.Equal(t, 0.9, *req.Options.Temperature)
	assert.Equal(t, 5, *req.Options.TopK)

	assert.Equal(t, "user", s.History[0].Role, "system prompt is not kept in history")
}

func TestStreamPrompt_AccumulatesChunks(t *testing.T) {
	srv := newChatServer(t, "one two three")
	s := New(srv.URL, "m")

	var chunks []string
	got, err := s.StreamPrompt(context.Background(), "count", nil, func(r ollama.ChatResponse) error {
		chunks = append(chunks, r.Message.Content)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "one two three", got)
	assert.Equal(t, got, strings.Join(chunks, ""))
	assert.Equal(t, "one two three", s.History[1].Content)
	assert.True(t, *srv.lastRequest().Stream)
}

func TestSendPrompt_FailureKeepsUserMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"model \"m\" not found, try pulling it first"}`)
	}))
	defer srv.Close()
	s := New(srv.URL, "m")

	_, err := s.SendPrompt(context.Background(), "hello", nil)
	require.Error(t, err)
	assert.True(t, ollama.IsModelNotFound(err))
	require.Len(t, s.History, 1)
	assert.Nil(t, s.LastRequest)
}

func TestExportLoad_RoundTripsByteForByte(t *testing.T) {
	srv := newChatServer(t, "Sure <b>bold</b> & \"quoted\" – ünïcode")
	s := New(srv.URL, "llama3")
	s.AddMessage("system", "setup")
	_, err := s.SendPrompt(context.Background(), "first", nil)
	require.NoError(t, err)
	s.History = append(s.History, ollama.Message{Role: "user", Content: "with image", Images: []ollama.ImageData{{0x89, 'P', 'N', 'G'}}})

	dir := t.TempDir()
	p1 := filepath.Join(dir, "one.json")
	p2 := filepath.Join(dir, "two.json")
	require.NoError(t, s.Export(p1))

	loaded, err := Load(p1)
	require.NoError(t, err)
	assert.Equal(t, s.History, loaded.History)
	assert.Equal(t, s.BaseURL, loaded.BaseURL)
	require.NoError(t, loaded.Export(p2))

	b1, err := os.ReadFile(p1)
	require.NoError(t, err)
	b2, err := os.ReadFile(p2)
	require.NoError(t, err)
	assert.Equal(t, string(b1), string(b2))
	assert.Contains(t, string(b1), "<b>bold</b> &", "text is stored unescaped")
	assert.True(t, strings.HasPrefix(string(b1), "{\n  \"base_url\": "))
}

func TestExportLoad_FreshSession(t *testing.T) {
	s := New("http://localhost:11434", "m")
	b, err := s.Marshal()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"base_url\": \"http://localhost:11434\",\n  \"model\": \"m\",\n  \"history\": [],\n  \"last_request\": null\n}", string(b))

	p := filepath.Join(t.TempDir(), "s.json")
	require.NoError(t, s.Export(p))
	loaded, err := Load(p)
	require.NoError(t, err)
	again, err := loaded.Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(b), string(again))
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	p := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(p, []byte("{"), 0o644))
	_, err = Load(p)
	assert.Error(t, err)
}

func TestClearHistory(t *testing.T) {
	s := New("h", "m")
	s.AddMessage("user", "x")
	s.LastRequest = json.RawMessage(`{}`)
	s.ClearHistory()
	assert.Empty(t, s.History)
	assert.Nil(t, s.LastRequest)
}
