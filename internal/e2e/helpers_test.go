package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"ollamakit/internal/httpapi"
	"ollamakit/internal/manager"
	"ollamakit/internal/settings"
	"ollamakit/pkg/ollama"
)

// fakeOllama streams reply for chat requests and answers title prompts
// with title.
type fakeOllama struct {
	*httptest.Server
	mu    sync.Mutex
	reply string
	title string
	chats int
}

func newFakeOllama(t *testing.T, reply, title string) *fakeOllama {
	t.Helper()
	f := &fakeOllama{reply: reply, title: title}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeOllama) serve(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/":
		w.WriteHeader(http.StatusOK)
	case "/api/version":
		_ = json.NewEncoder(w).Encode(ollama.VersionResponse{Version: "0.5.7"})
	case "/api/tags":
		_ = json.NewEncoder(w).Encode(ollama.ListResponse{Models: []ollama.ListModelResponse{{Name: "llama3:8b"}}})
	case "/api/chat":
		var req ollama.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.chats++
		f.mu.Unlock()
		text := f.reply
		if n := len(req.Messages); n > 0 && req.Messages[n-1].Content == manager.DefaultTitlePrompt {
			text = f.title
		}
		enc := json.NewEncoder(w)
		if req.Stream != nil && !*req.Stream {
			_ = enc.Encode(ollama.ChatResponse{Model: req.Model, Message: ollama.Message{Role: "assistant", Content: text}, Done: true})
			return
		}
		for _, word := range strings.SplitAfter(text, " ") {
			_ = enc.Encode(ollama.ChatResponse{Model: req.Model, Message: ollama.Message{Role: "assistant", Content: word}})
		}
		_ = enc.Encode(ollama.ChatResponse{Model: req.Model, Done: true, DoneReason: "stop"})
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeOllama) chatCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chats
}

type app struct {
	srv      *httptest.Server
	mgr      *manager.Manager
	store    *settings.FileStore
	dataDir  string
	settings string
}

// newApp wires the web UI the way serve does, against upstream.
func newApp(t *testing.T, upstream string) *app {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	store, err := settings.NewFileStore(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	mgr, err := manager.NewWithConfig(manager.ManagerConfig{
		BaseURL:          upstream,
		Model:            "llama3:8b",
		ConversationsDir: filepath.Join(dir, "conversations"),
		DeletedDir:       filepath.Join(dir, "deleted"),
		ClientOptions:    []ollama.Option{ollama.WithHTTPClient(&http.Client{Transport: httpapi.InstrumentTransport(nil)})},
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(mgr, store))
	t.Cleanup(srv.Close)
	return &app{srv: srv, mgr: mgr, store: store, dataDir: dir, settings: path}
}

// noRedirect keeps 303s visible to the test.
var noRedirect = &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := noRedirect.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := noRedirect.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostForm(t *testing.T, u string, form url.Values) *http.Response {
	t.Helper()
	resp, err := noRedirect.PostForm(u, form)
	if err != nil {
		t.Fatalf("post form: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp
}
