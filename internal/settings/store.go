package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
)

// ErrNotObject is returned by Save when the body is not a JSON object.
var ErrNotObject = errors.New("settings must be a JSON object")

// Store persists the raw settings object.
type Store interface {
	// Raw returns the stored object, or DefaultRaw when nothing was saved.
	Raw(ctx context.Context) (json.RawMessage, error)
	// Save replaces the stored object wholesale.
	Save(ctx context.Context, raw json.RawMessage) error
	Close() error
}

// Load reads the store and decodes the typed view.
func Load(ctx context.Context, s Store) (Document, error) {
	raw, err := s.Raw(ctx)
	if err != nil {
		return Document{}, err
	}
	return Decode(raw)
}

// checkObject reports ErrNotObject unless raw is one valid JSON object.
func checkObject(raw json.RawMessage) error {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 || b[0] != '{' || !json.Valid(b) {
		return ErrNotObject
	}
	return nil
}

func defaultRaw() json.RawMessage {
	return append(json.RawMessage(nil), DefaultRaw...)
}
