package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ollamakit/internal/common/fsutil"
	"ollamakit/internal/registry"
	"ollamakit/internal/session"
	"ollamakit/pkg/types"
)

// NewChat starts an empty conversation named chat_NNN. The file is written
// on the first message.
func (m *Manager) NewChat() error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	return m.newChatLocked()
}

func (m *Manager) newChatLocked() error {
	path, err := m.nextChatFile()
	if err != nil {
		return err
	}
	m.mu.RLock()
	model, opts := m.model, m.presetOpts
	m.mu.RUnlock()
	sess := session.New(m.BaseURL(), model, m.clientOpts...)
	sess.SetDefaultOptions(opts)
	m.sess = sess
	m.setFile(path)
	m.snapshot()
	m.publish("chat_created", map[string]any{"model": model})
	return nil
}

// nextChatFile numbers from the conversation count, skipping taken names.
func (m *Manager) nextChatFile() (string, error) {
	convs, err := registry.LoadDir(m.convDir)
	if err != nil {
		return "", err
	}
	for n := len(convs) + 1; ; n++ {
		p := filepath.Join(m.convDir, fmt.Sprintf("chat_%03d%s", n, registry.Ext))
		if !fsutil.PathExists(p) {
			return p, nil
		}
	}
}

// resolve maps a display name or file stem to a path in dir.
func (m *Manager) resolve(dir, name string) (string, error) {
	s := registry.FileStem(strings.TrimSuffix(name, registry.Ext))
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) || filepath.Base(s) != s {
		return "", invalidNameError{name: name}
	}
	return filepath.Join(dir, s+registry.Ext), nil
}

// LoadChat makes the named conversation current. Its model replaces the
// current one; the server stays the configured one.
func (m *Manager) LoadChat(name string) error {
	path, err := m.resolve(m.convDir, name)
	if err != nil {
		return err
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()
	if !fsutil.PathExists(path) {
		return conversationNotFoundError{name: name}
	}
	sess, err := session.Load(path, m.clientOpts...)
	if err != nil {
		return err
	}
	m.mu.RLock()
	model, opts := m.model, m.presetOpts
	m.mu.RUnlock()
	sess.BaseURL = m.BaseURL()
	if sess.Model == "" {
		sess.Model = model
	}
	sess.SetDefaultOptions(opts)
	m.sess = sess
	m.setFile(path)
	m.snapshot()
	m.publish("chat_loaded", map[string]any{"messages": len(sess.History), "model": sess.Model})
	return nil
}

// DeleteChat moves the named conversation into the deleted directory.
// Deleting the current conversation starts a new one.
func (m *Manager) DeleteChat(name string) error {
	path, err := m.resolve(m.convDir, name)
	if err != nil {
		return err
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()
	if !fsutil.PathExists(path) {
		return conversationNotFoundError{name: name}
	}
	dst := filepath.Join(m.deletedDir, filepath.Base(path))
	if err := os.Rename(path, dst); err != nil {
		return fmt.Errorf("move conversation: %w", err)
	}
	m.publish("chat_deleted", map[string]any{"name": stem(path), "moved_to": dst})
	if path == m.currentFile() {
		return m.newChatLocked()
	}
	return nil
}

// Conversations lists saved conversations, marking the current one.
func (m *Manager) Conversations() ([]types.Conversation, error) {
	convs, err := registry.LoadDir(m.convDir)
	if err != nil {
		return nil, err
	}
	cur := m.Conversation()
	for i := range convs {
		convs[i].Current = convs[i].ID == cur
	}
	return convs, nil
}
