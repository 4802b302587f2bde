package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"sftp-gateway/internal/model"
)

// PreferenceFile keeps favorites and renames in a single JSON document on
// disk. The document is read once at open and rewritten on every change.
type PreferenceFile struct {
	path string

	mu   sync.RWMutex
	data model.Preferences
}

// OpenPreferenceFile loads path, creating it with empty maps if missing.
func OpenPreferenceFile(path string) (*PreferenceFile, error) {
	store := &PreferenceFile{path: path, data: model.NewPreferences()}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := store.persistLocked(); err != nil {
			return nil, err
		}
		return store, nil
	case err != nil:
		return nil, fmt.Errorf("read preferences file: %w", err)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &store.data); err != nil {
			return nil, fmt.Errorf("decode preferences file %q: %w", path, err)
		}
	}
	if store.data.Favorites == nil {
		store.data.Favorites = map[string]json.RawMessage{}
	}
	if store.data.Renames == nil {
		store.data.Renames = map[string]string{}
	}

	return store, nil
}

func (s *PreferenceFile) Load(_ context.Context) (model.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := model.NewPreferences()
	for id, value := range s.data.Favorites {
		out.Favorites[id] = append(json.RawMessage(nil), value...)
	}
	for id, name := range s.data.Renames {
		out.Renames[id] = name
	}
	return out, nil
}

func (s *PreferenceFile) SetFavorite(_ context.Context, id string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.data.Favorites[id]
	s.data.Favorites[id] = append(json.RawMessage(nil), value...)
	if err := s.persistLocked(); err != nil {
		if existed {
			s.data.Favorites[id] = previous
		} else {
			delete(s.data.Favorites, id)
		}
		return err
	}
	return nil
}

func (s *PreferenceFile) DeleteFavorite(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, ok := s.data.Favorites[id]
	if !ok {
		return model.ErrPreferenceNotFound
	}
	delete(s.data.Favorites, id)
	if err := s.persistLocked(); err != nil {
		s.data.Favorites[id] = previous
		return err
	}
	return nil
}

func (s *PreferenceFile) SetRename(_ context.Context, id string, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.data.Renames[id]
	s.data.Renames[id] = name
	if err := s.persistLocked(); err != nil {
		if existed {
			s.data.Renames[id] = previous
		} else {
			delete(s.data.Renames, id)
		}
		return err
	}
	return nil
}

func (s *PreferenceFile) DeleteRename(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, ok := s.data.Renames[id]
	if !ok {
		return model.ErrPreferenceNotFound
	}
	delete(s.data.Renames, id)
	if err := s.persistLocked(); err != nil {
		s.data.Renames[id] = previous
		return err
	}
	return nil
}

// persistLocked writes to a temp file and renames it over the document so a
// crash never leaves a truncated file behind.
func (s *PreferenceFile) persistLocked() error {
	encoded, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("prepare preferences directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.json")
	if err != nil {
		return fmt.Errorf("create temp preferences file: %w", err)
	}
	tmpName := tmp.Name()

	_, writeErr := tmp.Write(encoded)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write preferences: %w", errors.Join(writeErr, closeErr))
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace preferences file: %w", err)
	}

	return nil
}
