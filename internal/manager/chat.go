package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"ollamakit/internal/common/fsutil"
	"ollamakit/internal/registry"
	"ollamakit/internal/session"
	"ollamakit/internal/settings"
	"ollamakit/pkg/ollama"
	"ollamakit/pkg/types"
)

const (
	untitledPrefix = "chat_"
	maxTitleRunes  = 80
)

// Send posts input to the current conversation and returns the reply.
func (m *Manager) Send(ctx context.Context, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", ErrEmptyPrompt
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.useCurrentServer()
	if m.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.requestTimeout)
		defer cancel()
	}
	reply, err := m.sess.SendPrompt(ctx, input, nil)
	return reply, m.finishExchange(ctx, err)
}

// Stream is Send with the reply written to w as NDJSON chat chunks, the last
// one carrying "done": true. flusher, when set, runs after every line.
func (m *Manager) Stream(ctx context.Context, req types.PromptRequest, w io.Writer, flusher func()) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return ErrEmptyPrompt
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.useCurrentServer()
	p := &session.PromptOptions{System: req.System, Options: req.Options}
	_, err := m.sess.StreamPrompt(ctx, req.Prompt, p, func(r ollama.ChatResponse) error {
		b, err := json.Marshal(r)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(b, '\n')); err != nil {
			return err
		}
		if flusher != nil {
			flusher()
		}
		return nil
	})
	return m.finishExchange(ctx, err)
}

// finishExchange saves the conversation after a reply and titles it when it
// is still untitled. A failed exchange is not saved; the user message stays
// in memory only.
func (m *Manager) finishExchange(ctx context.Context, err error) error {
	defer m.snapshot()
	if err != nil {
		m.setErr(err)
		return err
	}
	file := m.currentFile()
	if err := m.sess.Export(file); err != nil {
		m.setErr(err)
		return fmt.Errorf("save conversation: %w", err)
	}
	m.messagesTotal.Add(1)
	m.setErr(nil)
	m.publish("chat_sent", map[string]any{"messages": len(m.sess.History), "model": m.sess.Model})
	if strings.HasPrefix(filepath.Base(file), untitledPrefix) {
		m.autoTitle(ctx)
	}
	return nil
}

// autoTitle asks the model to name the conversation and renames the file.
// The title exchange is not kept. Any failure keeps the current name.
func (m *Manager) autoTitle(ctx context.Context) {
	n := len(m.sess.History)
	last := m.sess.LastRequest
	title, err := m.sess.SendPrompt(ctx, m.titlePrompt, nil)
	m.sess.History = m.sess.History[:n]
	m.sess.LastRequest = last
	if err != nil {
		m.log.Warn().Err(err).Msg("conversation title")
		return
	}
	name := sanitizeTitle(title)
	if name == "" {
		return
	}
	old := m.currentFile()
	path := uniquePath(m.convDir, name)
	if err := m.sess.Export(path); err != nil {
		m.log.Warn().Err(err).Str("path", path).Msg("save titled conversation")
		return
	}
	if err := os.Remove(old); err != nil && !errors.Is(err, os.ErrNotExist) {
		m.log.Warn().Err(err).Str("path", old).Msg("remove untitled conversation")
	}
	m.setFile(path)
	m.publish("chat_renamed", map[string]any{"from": stem(old), "to": stem(path)})
}

// sanitizeTitle keeps letters, digits, spaces, '_' and '-', then joins
// words with '_'.
func sanitizeTitle(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	t := strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_")
	if r := []rune(t); len(r) > maxTitleRunes {
		t = strings.TrimRight(string(r[:maxTitleRunes]), "_-")
	}
	return t
}

func uniquePath(dir, name string) string {
	p := filepath.Join(dir, name+registry.Ext)
	for i := 2; fsutil.PathExists(p); i++ {
		p = filepath.Join(dir, fmt.Sprintf("%s_%d%s", name, i, registry.Ext))
	}
	return p
}

// UsePreset switches the model and default options for this and later
// conversations.
func (m *Manager) UsePreset(p settings.Preset) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.mu.Lock()
	m.preset = p.Name
	m.presetOpts = p.Options
	if p.Model != "" {
		m.model = p.Model
	}
	model := m.model
	m.mu.Unlock()
	m.sess.Model = model
	m.sess.SetDefaultOptions(p.Options)
	m.snapshot()
	m.publish("preset_selected", map[string]any{"preset": p.Name, "model": model})
}
