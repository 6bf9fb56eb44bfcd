// Package chatlog provides interaction store adapters.
// Clean Architecture: Adapters implementing ports.InteractionStore.
package chatlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/0xcro3dile/faqbot-go/internal/domain/entities"
)

// JSONFileStore keeps the whole history as one indented JSON array.
// Every append rewrites the file; a partial write never replaces the
// previous contents.
type JSONFileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewJSONFileStore creates a store writing to path. The parent directory
// is created on first append.
func NewJSONFileStore(path string) *JSONFileStore {
	return &JSONFileStore{path: path, now: time.Now}
}

// Path returns the log file location.
func (s *JSONFileStore) Path() string { return s.path }

// Append adds entry to the history. History that does not parse is moved
// aside and reported as a warning; the entry is still written to a fresh log.
// If the file cannot be read at all nothing is written.
func (s *JSONFileStore) Append(ctx context.Context, entry entities.InteractionLogEntry) (*entities.LogCorruptionWarning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &entities.LogWriteError{Path: s.path, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, &entities.LogWriteError{Path: s.path, Err: err}
	}

	history, warning, err := s.read()
	if err != nil {
		return nil, &entities.LogWriteError{Path: s.path, Err: err}
	}
	history = append(history, entry)

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return warning, &entities.LogWriteError{Path: s.path, Err: err}
	}
	if err := s.write(data); err != nil {
		return warning, &entities.LogWriteError{Path: s.path, Err: err}
	}
	return warning, nil
}

// Entries returns the persisted history.
func (s *JSONFileStore) Entries() ([]entities.InteractionLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var history []entities.InteractionLogEntry
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// Close is a no-op; the file is not held open between appends.
func (s *JSONFileStore) Close() error { return nil }

// read loads the history. Content that fails to parse is moved aside and
// treated as empty; errors reading the file are returned unchanged.
func (s *JSONFileStore) read() ([]entities.InteractionLogEntry, *entities.LogCorruptionWarning, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, nil
	}

	var history []entities.InteractionLogEntry
	if err := json.Unmarshal(data, &history); err != nil {
		warning := &entities.LogCorruptionWarning{Path: s.path, Err: err}
		backup := fmt.Sprintf("%s.corrupt-%d", s.path, s.now().Unix())
		if renameErr := os.Rename(s.path, backup); renameErr == nil {
			warning.BackupPath = backup
		}
		return nil, warning, nil
	}
	return history, nil, nil
}

// write replaces the log atomically via a temp file in the same directory.
func (s *JSONFileStore) write(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
