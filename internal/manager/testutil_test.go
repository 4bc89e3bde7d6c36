package manager

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"ollamakit/pkg/ollama"
)

// fakeOllama answers /api/chat with reply, or with title when the last
// message is the title prompt.
type fakeOllama struct {
	*httptest.Server
	mu      sync.Mutex
	reply   string
	title   string
	fail    bool
	reqs    []ollama.ChatRequest
	version string
	// gate, when set before the first request, runs ahead of every chat call.
	gate func()
}

func newFakeOllama(t *testing.T) *fakeOllama {
	t.Helper()
	f := &fakeOllama{reply: "Hello there.", title: "Greeting Chat", version: "0.5.7"}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeOllama) serve(w http.ResponseWriter, r *http.Request) {
	if f.gate != nil && r.URL.Path == "/api/chat" {
		f.gate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.URL.Path {
	case "/":
		w.WriteHeader(http.StatusOK)
	case "/api/version":
		_ = json.NewEncoder(w).Encode(map[string]string{"version": f.version})
	case "/api/tags":
		_ = json.NewEncoder(w).Encode(map[string]any{"models": []map[string]string{{"name": "llama3:8b"}, {"name": "qwen2.5-coder:1.5b"}}})
	case "/api/chat":
		var req ollama.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.reqs = append(f.reqs, req)
		if f.fail {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"boom"}`))
			return
		}
		text := f.reply
		if n := len(req.Messages); n > 0 && req.Messages[n-1].Content == DefaultTitlePrompt {
			text = f.title
		}
		enc := json.NewEncoder(w)
		if req.Stream != nil && !*req.Stream {
			_ = enc.Encode(map[string]any{"model": req.Model, "message": map[string]string{"role": "assistant", "content": text}, "done": true})
			return
		}
		for _, part := range strings.SplitAfter(text, " ") {
			_ = enc.Encode(map[string]any{"model": req.Model, "message": map[string]string{"role": "assistant", "content": part}, "done": false})
		}
		_ = enc.Encode(map[string]any{"model": req.Model, "message": map[string]string{"role": "assistant", "content": ""}, "done": true, "eval_count": 2})
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeOllama) set(fn func(f *fakeOllama)) {
	f.mu.Lock()
	fn(f)
	f.mu.Unlock()
}

func (f *fakeOllama) requests() []ollama.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ollama.ChatRequest(nil), f.reqs...)
}

// newTestManager returns a manager on a fresh data dir talking to f.
func newTestManager(t *testing.T, f *fakeOllama) (*Manager, *MemoryPublisher, string) {
	t.Helper()
	dir := t.TempDir()
	pub := NewMemoryPublisher()
	m, err := NewWithConfig(ManagerConfig{
		BaseURL:          f.URL,
		Model:            "llama3:8b",
		ConversationsDir: filepath.Join(dir, "conversations"),
		DeletedDir:       filepath.Join(dir, "deleted"),
		Publisher:        pub,
	})
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	return m, pub, dir
}
