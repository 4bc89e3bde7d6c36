package settings

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore keeps the settings object in memory. Saves are lost on exit.
type MemoryStore struct {
	mu  sync.RWMutex
	raw json.RawMessage
}

// NewMemoryStore returns a store seeded with raw, or DefaultRaw when raw is nil.
func NewMemoryStore(raw json.RawMessage) *MemoryStore {
	if raw == nil {
		raw = defaultRaw()
	}
	return &MemoryStore{raw: raw}
}

func (s *MemoryStore) Raw(context.Context) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(json.RawMessage(nil), s.raw...), nil
}

func (s *MemoryStore) Save(_ context.Context, raw json.RawMessage) error {
	if err := checkObject(raw); err != nil {
		return err
	}
	s.mu.Lock()
	s.raw = append(json.RawMessage(nil), raw...)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }
