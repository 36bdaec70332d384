package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileMirror keeps every key in one JSON object on disk. Writes go through a
// temp file and a rename so readers never see a partial document.
type FileMirror struct {
	mu   sync.Mutex
	path string
}

func NewFileMirror(path string) (*FileMirror, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, errors.New("storage: file path is required")
	}
	return &FileMirror{path: trimmed}, nil
}

func (m *FileMirror) Path() string {
	return m.path
}

func (m *FileMirror) Close() error { return nil }

func (m *FileMirror) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, err := m.read()
	if err != nil {
		return nil, err
	}
	value, ok := doc[key]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(value), nil
}

func (m *FileMirror) Put(_ context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	if !json.Valid(value) {
		return fmt.Errorf("%w: %s: value is not valid JSON", ErrStorageWrite, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, err := m.read()
	if err != nil {
		// An unreadable document is replaced rather than blocking every write.
		doc = make(map[string]json.RawMessage)
	}
	doc[key] = json.RawMessage(value)
	if err := m.write(doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrStorageWrite, key, err)
	}
	return nil
}

func (m *FileMirror) read() (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage)
	raw, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, err
	}
	if strings.TrimSpace(string(raw)) == "" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", m.path, err)
	}
	return out, nil
}

func (m *FileMirror) write(doc map[string]json.RawMessage) error {
	dir := filepath.Dir(m.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, m.path)
}
