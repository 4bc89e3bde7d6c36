package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"ollamakit/internal/common/fsutil"
)

const watchDebounce = 100 * time.Millisecond

// FileStore keeps the settings object in a JSON file, indented with four
// spaces.
type FileStore struct {
	path string
	log  zerolog.Logger
	mu   sync.RWMutex
}

func NewFileStore(path string, log zerolog.Logger) (*FileStore, error) {
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, fmt.Errorf("settings path: %w", err)
	}
	return &FileStore{path: abs, log: log}, nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Raw(ctx context.Context) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return defaultRaw(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := checkObject(b); err != nil {
		return nil, fmt.Errorf("settings file %s: %w", s.path, err)
	}
	return b, nil
}

func (s *FileStore) Save(ctx context.Context, raw json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkObject(raw); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(raw), "", "    "); err != nil {
		return fmt.Errorf("indent settings: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fsutil.AtomicWriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	s.log.Debug().Str("path", s.path).Int("bytes", buf.Len()).Msg("settings saved")
	return nil
}

func (s *FileStore) Close() error { return nil }

// Watch calls fn with the new object whenever the file changes on disk,
// including changes made by Save. Bursts of events are coalesced. The
// watcher stops when ctx is done; Watch itself returns once it is armed.
func (s *FileStore) Watch(ctx context.Context, fn func(json.RawMessage)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("settings watcher: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		_ = w.Close()
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	// The directory is watched because atomic saves replace the file.
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go func() {
		defer w.Close()
		var timer *time.Timer
		fire := func() {
			if ctx.Err() != nil {
				return
			}
			raw, err := s.Raw(ctx)
			if err != nil {
				s.log.Warn().Err(err).Msg("settings reload failed")
				return
			}
			fn(raw)
		}
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != s.path {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.AfterFunc(watchDebounce, fire)
				} else {
					timer.Reset(watchDebounce)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.log.Warn().Err(err).Msg("settings watcher")
			}
		}
	}()
	return nil
}
