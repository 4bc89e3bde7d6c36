// Package registry lists saved conversations on disk.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ollamakit/internal/common/fsutil"
	"ollamakit/pkg/types"
)

// Ext is the extension of conversation files.
const Ext = ".json"

// LoadDir scans a directory for *.json conversations, sorted by file name.
// ID is the file stem; Name is the stem with underscores shown as spaces.
// A missing directory yields an empty list.
func LoadDir(dir string) ([]types.Conversation, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if os.IsNotExist(err) {
		return []types.Conversation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	convs := []types.Conversation{}
	for _, e := range entries {
		if e.IsDir() { continue }
		name := e.Name()
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(strings.ToLower(name), Ext) { continue }
		info, err := e.Info()
		if err != nil { continue } // removed while scanning
		id := strings.TrimSuffix(name, filepath.Ext(name))
		convs = append(convs, types.Conversation{
			ID:      id,
			Name:    DisplayName(id),
			Path:    filepath.Join(abs, name),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(convs, func(i, j int) bool { return convs[i].ID < convs[j].ID })
	return convs, nil
}

// DisplayName turns a file stem into the name shown in the UI.
func DisplayName(id string) string { return strings.ReplaceAll(id, "_", " ") }

// FileStem is the inverse of DisplayName: the UI posts display names back.
func FileStem(name string) string { return strings.ReplaceAll(strings.TrimSpace(name), " ", "_") }
