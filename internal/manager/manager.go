package manager

import (
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"ollamakit/internal/session"
	"ollamakit/pkg/ollama"
)

type Manager struct {
	// opMu serializes every operation that touches sess.
	opMu sync.Mutex
	sess *session.Session

	// mu guards the snapshot read by Status, History and the getters.
	mu         sync.RWMutex
	file       string
	model      string
	preset     string
	presetOpts *ollama.Options
	baseURL    string
	api        *ollama.Client
	history    []ollama.Message
	lastErr    string

	convDir        string
	deletedDir     string
	titlePrompt    string
	requestTimeout time.Duration
	readyTimeout   time.Duration
	clientOpts     []ollama.Option
	log            zerolog.Logger
	publisher      EventPublisher
	startTime      time.Time
	messagesTotal  atomic.Uint64
}

// New keeps conversations under dataDir/conversations and dataDir/deleted.
func New(baseURL, model, dataDir string) (*Manager, error) {
	// Delegate to NewWithConfig to centralize defaults and option parsing
	return NewWithConfig(ManagerConfig{
		BaseURL:          baseURL,
		Model:            model,
		ConversationsDir: filepath.Join(dataDir, defaultConversationsDir),
		DeletedDir:       filepath.Join(dataDir, defaultDeletedDir),
	})
}

// SetEventPublisher installs p; nil restores the no-op publisher.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p == nil {
		m.publisher = noopPublisher{}
		return
	}
	m.publisher = p
}

func (m *Manager) publish(name string, fields map[string]any) {
	m.mu.RLock()
	pub, conv := m.publisher, stem(m.file)
	m.mu.RUnlock()
	pub.Publish(Event{Name: name, Conversation: conv, Fields: fields})
}

// SetBaseURL points the manager at another Ollama server. It does not wait
// for a chat in flight; the current conversation moves over on its next
// message.
func (m *Manager) SetBaseURL(u string) {
	m.setBaseURL(u)
	m.publish("base_url_changed", map[string]any{"base_url": m.BaseURL()})
}

// useCurrentServer moves sess to the configured server. Callers hold opMu.
func (m *Manager) useCurrentServer() {
	m.sess.BaseURL = m.BaseURL()
}

func (m *Manager) setBaseURL(u string) {
	api := ollama.New(u, m.clientOpts...)
	m.mu.Lock()
	m.api = api
	m.baseURL = api.Host()
	m.mu.Unlock()
}

func (m *Manager) BaseURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.baseURL
}

// Model is the model the next message goes to.
func (m *Manager) Model() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.model
}

// Conversation is the file stem of the current conversation.
func (m *Manager) Conversation() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return stem(m.file)
}

// Client returns a client for metadata calls. It never waits for a running
// chat.
func (m *Manager) Client() *ollama.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.api
}

// snapshot publishes the session state to readers. Callers hold opMu.
func (m *Manager) snapshot() {
	hist := make([]ollama.Message, len(m.sess.History))
	copy(hist, m.sess.History)
	m.mu.Lock()
	m.history = hist
	m.model = m.sess.Model
	m.mu.Unlock()
}

func (m *Manager) setFile(path string) {
	m.mu.Lock()
	m.file = path
	m.mu.Unlock()
}

func (m *Manager) currentFile() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.file
}

func (m *Manager) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		m.lastErr = ""
		return
	}
	m.lastErr = err.Error()
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
