package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/harrisonrobin/tasks/pkg/logging"
)

// ErrCorrupt is returned by FileStore.Load when the state file is not a JSON
// object of strings.
var ErrCorrupt = errors.New("corrupt state file")

// FileStore keeps every key in one JSON object on disk. Each write rewrites
// the file through a temporary file and a rename.
type FileStore struct {
	Values map[string]string
	Path   string
	mu     sync.RWMutex
	log    *zap.SugaredLogger
}

// NewFileStore opens the state file at path. A corrupt file is moved aside
// to path+".corrupt" and the store starts empty, so its keys read as absent.
func NewFileStore(path string, log *zap.SugaredLogger) (*FileStore, error) {
	s := &FileStore{
		Values: make(map[string]string),
		Path:   path,
		log:    logging.OrNop(log),
	}

	if _, err := os.Stat(path); err == nil {
		err := s.Load()
		if errors.Is(err, ErrCorrupt) {
			aside := path + ".corrupt"
			if rerr := os.Rename(path, aside); rerr != nil {
				return nil, fmt.Errorf("move aside corrupt state file: %w", rerr)
			}
			s.log.Warnw("discarded corrupt state file", "path", path, "movedTo", aside, "error", err)
			return s, nil
		}
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *FileStore) Load() error {
	f, err := os.Open(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	var values map[string]string
	if err := json.NewDecoder(f).Decode(&values); err != nil {
		return fmt.Errorf("%w %s: %v", ErrCorrupt, s.Path, err)
	}
	if values == nil {
		values = make(map[string]string)
	}
	s.mu.Lock()
	s.Values = values
	s.mu.Unlock()
	return nil
}

func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.Values[key]
	return v, ok, nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, exists := s.Values[key]
	if exists && old == value {
		return nil
	}
	s.Values[key] = value
	if err := s.save(); err != nil {
		if exists {
			s.Values[key] = old
		} else {
			delete(s.Values, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, exists := s.Values[key]
	if !exists {
		return nil
	}
	delete(s.Values, key)
	if err := s.save(); err != nil {
		s.Values[key] = old
		return err
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

// save must be called with mu held.
func (s *FileStore) save() error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	payload, err := json.MarshalIndent(s.Values, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return os.Rename(tmp, s.Path)
}
