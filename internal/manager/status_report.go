package manager

import (
	"context"
	"time"

	"ollamakit/pkg/ollama"
	"ollamakit/pkg/types"
)

// Status builds a detailed status response for /status. The Ollama version
// is fetched with the ready timeout and left empty when unreachable.
func (m *Manager) Status(ctx context.Context) types.StatusResponse {
	m.mu.RLock()
	resp := types.StatusResponse{
		Model:          m.model,
		Preset:         m.preset,
		BaseURL:        m.baseURL,
		Conversation:   stem(m.file),
		Messages:       len(m.history),
		LastError:      m.lastErr,
		UptimeSeconds:  int64(time.Since(m.startTime).Seconds()),
		ServerTimeUnix: time.Now().Unix(),
		MessagesTotal:  m.messagesTotal.Load(),
	}
	api := m.api
	m.mu.RUnlock()

	if convs, err := m.Conversations(); err == nil {
		resp.Conversations = len(convs)
	}
	vctx, cancel := context.WithTimeout(ctx, m.readyTimeout)
	defer cancel()
	if v, err := api.Version(vctx); err == nil {
		resp.OllamaVersion = v
	}
	return resp
}

// Ready reports whether the Ollama server answers within the ready timeout.
func (m *Manager) Ready(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.readyTimeout)
	defer cancel()
	return m.Client().Heartbeat(ctx) == nil
}

// History returns the messages of the current conversation.
func (m *Manager) History() types.HistoryResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := make([]ollama.Message, len(m.history))
	copy(msgs, m.history)
	return types.HistoryResponse{
		Conversation: stem(m.file),
		Model:        m.model,
		Preset:       m.preset,
		LastError:    m.lastErr,
		Messages:     msgs,
	}
}

// InstalledModels lists the models the Ollama server has pulled.
func (m *Manager) InstalledModels(ctx context.Context) ([]string, error) {
	list, err := m.Client().List(ctx)
	if err != nil {
		return nil, err
	}
	return list.Names(), nil
}
