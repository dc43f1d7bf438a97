// Package file keeps badge state in a YAML preferences file on local disk,
// grouped by namespace so the file can hold other settings alongside it.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/tinywideclouds/go-notification-badge/pkg/badge"
)

type preferences map[string]map[string]int

// Store implements badge.Store over a single file.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save rewrites the file atomically, keeping unrelated namespaces.
func (s *Store) Save(_ context.Context, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.read()
	if err != nil {
		return err
	}
	if prefs[badge.Namespace] == nil {
		prefs[badge.Namespace] = make(map[string]int)
	}
	prefs[badge.Namespace][badge.Key] = count

	raw, err := yaml.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	return s.writeAtomic(raw)
}

func (s *Store) Load(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.read()
	if err != nil {
		return 0, err
	}
	return prefs[badge.Namespace][badge.Key], nil
}

func (s *Store) read() (preferences, error) {
	prefs := make(preferences)
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return prefs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences %s: %w", s.path, err)
	}
	if err := yaml.Unmarshal(raw, &prefs); err != nil {
		return nil, fmt.Errorf("failed to parse preferences %s: %w", s.path, err)
	}
	if prefs == nil {
		prefs = make(preferences)
	}
	return prefs, nil
}

func (s *Store) writeAtomic(raw []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create preferences dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".badge-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp preferences: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush preferences: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace preferences: %w", err)
	}
	return nil
}
