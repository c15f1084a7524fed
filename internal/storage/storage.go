package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"groupchat/pkg/logger"

	"github.com/spf13/afero"
)

// Keys shared with every other client of the same data directory.
const (
	TranscriptKey = "gm:groupchat"
	FavoritesKey  = "gm:favorites"
)

var ErrNotFound = errors.New("storage: key not found")

// Store is a flat key/value store holding serialized JSON documents.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// FileStore keeps one file per key under dir.
//
// It remembers the last value it wrote for each key so that Watch can tell
// its own writes from those of other processes sharing dir.
type FileStore struct {
	fs     afero.Fs
	dir    string
	logger *slog.Logger

	mu      sync.Mutex
	written map[string][]byte
}

func NewFileStore(fs afero.Fs, dir string) *FileStore {
	return &FileStore{
		fs:      fs,
		dir:     dir,
		logger:  logger.With("component", "storage", "dir", dir),
		written: make(map[string][]byte),
	}
}

// NewOSFileStore is a FileStore on the real filesystem.
func NewOSFileStore(dir string) *FileStore {
	return NewFileStore(afero.NewOsFs(), dir)
}

func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the file backing key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, FileName(key))
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Set replaces the value atomically so readers never see a partial document.
func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	path := s.Path(key)
	tmp := path + tmpSuffix
	if err := afero.WriteFile(s.fs, tmp, value, 0644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	// Recorded before the rename so the watcher already knows the value when
	// the event arrives.
	s.mu.Lock()
	s.written[key] = append([]byte(nil), value...)
	s.mu.Unlock()

	if err := s.fs.Rename(tmp, path); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

// Delete removes key. A missing key is not an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	err := s.fs.Remove(s.Path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	s.mu.Lock()
	delete(s.written, key)
	s.mu.Unlock()
	return nil
}

// Keys lists the stored keys in order. File names are mapped back with
// KeyName, so a key that contained '_' comes back with ':' in its place.
func (s *FileStore) Keys(ctx context.Context) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		keys = append(keys, KeyName(entry.Name()))
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op; files need no release.
func (s *FileStore) Close() error {
	return nil
}

// ownWrite reports whether the file behind key still holds the last value
// this store wrote there.
func (s *FileStore) ownWrite(key string) bool {
	s.mu.Lock()
	last, ok := s.written[key]
	s.mu.Unlock()
	if !ok {
		return false
	}

	current, err := afero.ReadFile(s.fs, s.Path(key))
	return err == nil && bytes.Equal(current, last)
}

const tmpSuffix = ".tmp"

// FileName maps a key to a portable file name.
func FileName(key string) string {
	return strings.ReplaceAll(key, ":", "_") + ".json"
}

// KeyName is the inverse of FileName for keys without '_'.
func KeyName(file string) string {
	return strings.ReplaceAll(strings.TrimSuffix(file, ".json"), "_", ":")
}
