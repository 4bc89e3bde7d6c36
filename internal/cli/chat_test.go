package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ollamakit/internal/session"
)

// scriptReader replays lines, then reports EOF like Ctrl+D.
type scriptReader struct {
	lines   []string
	history []string
}

func (s *scriptReader) Prompt(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	l := s.lines[0]
	s.lines = s.lines[1:]
	return l, nil
}

func (s *scriptReader) AppendHistory(item string) { s.history = append(s.history, item) }

func newRepl(t *testing.T, host string, lines ...string) (*repl, *bytes.Buffer, *scriptReader) {
	t.Helper()
	in := &scriptReader{lines: lines}
	var out bytes.Buffer
	r := &repl{sess: session.New(host, "llama3:8b"), in: in, out: &out, log: zerolog.Nop()}
	return r, &out, in
}

func TestRepl_SendsAndAutosaves(t *testing.T) {
	f := newFakeOllama(t)
	path := filepath.Join(t.TempDir(), "rust.json")
	r, out, in := newRepl(t, f.URL, "ping", "", "/quit", "never read")
	r.savePath = path
	if err := r.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "pong") {
		t.Fatalf("reply not printed: %q", out.String())
	}
	if len(in.lines) != 1 {
		t.Fatalf("loop did not stop at /quit, left %v", in.lines)
	}
	if len(in.history) != 2 {
		t.Fatalf("history=%v", in.history)
	}
	saved, err := session.Load(path)
	if err != nil {
		t.Fatalf("load saved session: %v", err)
	}
	if len(saved.History) != 2 || saved.History[1].Content != "pong" || saved.Model != "llama3:8b" {
		t.Fatalf("saved session=%+v", saved)
	}
}

func TestRepl_Commands(t *testing.T) {
	f := newFakeOllama(t)
	path := filepath.Join(t.TempDir(), "saved.json")
	r, out, _ := newRepl(t, f.URL,
		"/model mistral:7b",
		"/system Answer in French.",
		"ping",
		"/history",
		"/save "+path,
		"/clear",
		"/bogus",
	)
	if err := r.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	for _, want := range []string{"model: mistral:7b", "system: Answer in French.", "user:", "assistant:", "pong", "saved " + path, "conversation cleared", "unknown command /bogus"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in output:\n%s", want, got)
		}
	}
	if r.sess.Model != "mistral:7b" || len(r.sess.History) != 0 || r.savePath != path {
		t.Fatalf("state after commands: model=%s history=%d save=%s", r.sess.Model, len(r.sess.History), r.savePath)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("saved file: %v", err)
	}
	if body := f.body("/api/chat"); !bytes.Contains(body, []byte("Answer in French.")) {
		t.Fatalf("system prompt not sent: %s", body)
	}
}

func TestRepl_SaveWithoutPath(t *testing.T) {
	r, out, _ := newRepl(t, "http://127.0.0.1:1", "/save")
	if err := r.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "usage: /save PATH") {
		t.Fatalf("output=%q", out.String())
	}
}

func TestRepl_SendErrorKeepsLooping(t *testing.T) {
	r, out, in := newRepl(t, "http://127.0.0.1:1", "ping", "/help")
	if err := r.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "error:") || !strings.Contains(out.String(), "Commands:") {
		t.Fatalf("output=%q", out.String())
	}
	if len(in.lines) != 0 {
		t.Fatalf("lines left: %v", in.lines)
	}
}

func TestOpenSession_ResumesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	s := session.New("http://saved:11434", "phi3")
	s.AddMessage("user", "hello")
	if err := s.Export(path); err != nil {
		t.Fatal(err)
	}
	got, err := openSession(path, "http://other:11434", false, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got.Model != "phi3" || len(got.History) != 1 || got.BaseURL != "http://saved:11434" {
		t.Fatalf("resumed session=%+v", got)
	}
	got, err = openSession(path, "http://other:11434", true, nil)
	if err != nil {
		t.Fatalf("open with host: %v", err)
	}
	if got.BaseURL != "http://other:11434" || len(got.History) != 1 {
		t.Fatalf("--host not applied: %+v", got)
	}
	fresh, err := openSession(filepath.Join(t.TempDir(), "missing.json"), "http://other:11434", false, nil)
	if err != nil {
		t.Fatalf("open fresh: %v", err)
	}
	if fresh.Model != "" || len(fresh.History) != 0 || fresh.BaseURL != "http://other:11434" {
		t.Fatalf("fresh session=%+v", fresh)
	}
}

func TestClientOptions_CarryTimeout(t *testing.T) {
	o := &rootOptions{log: zerolog.Nop()}
	if n := len(o.clientOptions()); n != 1 {
		t.Fatalf("without --timeout: %d options", n)
	}
	o.timeout = time.Second
	if n := len(o.clientOptions()); n != 2 {
		t.Fatalf("with --timeout: %d options", n)
	}
}

func TestChatCmd_TimeoutAppliesToResumedSession(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer slow.Close()
	path := filepath.Join(t.TempDir(), "s.json")
	if err := session.New("http://saved.invalid:11434", "phi3").Export(path); err != nil {
		t.Fatal(err)
	}
	o := &rootOptions{host: slow.URL, timeout: 50 * time.Millisecond, log: zerolog.Nop()}
	sess, err := openSession(path, o.client().Host(), true, o.clientOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	start := time.Now()
	if _, err := sess.SendPrompt(context.Background(), "hi", nil); err == nil {
		t.Fatalf("expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("--timeout ignored: took %s", time.Since(start))
	}
}
