package manager

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"ollamakit/internal/settings"
	"ollamakit/pkg/ollama"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultConversationsDir = "conversations"
	defaultDeletedDir       = "deleted"
	defaultReadyTimeout     = 2 * time.Second
	// DefaultTitlePrompt asks the model to name the conversation so far.
	DefaultTitlePrompt = "based on the conversation so far, what would be a good title for it?" +
		" Respond with a conversation title only;" +
		" use _ in place of a space;" +
		" keep the title under 10 words"
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	BaseURL          string
	Model            string
	ConversationsDir string
	DeletedDir       string
	TitlePrompt      string
	// RequestTimeout bounds non-streamed calls; 0 means no bound.
	RequestTimeout time.Duration
	ReadyTimeout   time.Duration
	// ClientOptions configure every Ollama client the manager builds.
	ClientOptions []ollama.Option
	Logger        *zerolog.Logger
	Publisher     EventPublisher
}

// NewWithConfig constructs a Manager from ManagerConfig. The conversation and
// deleted directories are created when missing.
func NewWithConfig(cfg ManagerConfig) (*Manager, error) {
	if cfg.ConversationsDir == "" {
		cfg.ConversationsDir = defaultConversationsDir
	}
	if cfg.DeletedDir == "" {
		cfg.DeletedDir = defaultDeletedDir
	}
	if cfg.TitlePrompt == "" {
		cfg.TitlePrompt = DefaultTitlePrompt
	}
	if cfg.Model == "" {
		cfg.Model = settings.FallbackModel
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = defaultReadyTimeout
	}
	for _, dir := range []string{cfg.ConversationsDir, cfg.DeletedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	m := &Manager{
		convDir:        cfg.ConversationsDir,
		deletedDir:     cfg.DeletedDir,
		titlePrompt:    cfg.TitlePrompt,
		requestTimeout: cfg.RequestTimeout,
		readyTimeout:   cfg.ReadyTimeout,
		clientOpts:     cfg.ClientOptions,
		log:            log.With().Str("component", "manager").Logger(),
		publisher:      noopPublisher{},
		startTime:      time.Now(),
	}
	m.SetEventPublisher(cfg.Publisher)
	m.setBaseURL(cfg.BaseURL)
	m.model = cfg.Model
	if err := m.NewChat(); err != nil {
		return nil, err
	}
	return m, nil
}
