package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/riceify/riceify/internal/rice/storage"
)

// Service handles rice enumeration and the current-rice pointer.
type Service struct {
	storage     *storage.Storage
	ricesDir    string
	currentPath string
}

// New creates a new store Service.
func New(storage *storage.Storage, ricesDir, currentPath string) *Service {
	return &Service{
		storage:     storage,
		ricesDir:    ricesDir,
		currentPath: currentPath,
	}
}

// Current returns the trimmed contents of the pointer file. ok is false only
// when the file is absent or unreadable.
func (s *Service) Current() (name string, ok bool) {
	content, err := s.storage.ReadFile(s.currentPath)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(content)), true
}

// SetCurrent overwrites the pointer file with name verbatim.
func (s *Service) SetCurrent(name string) error {
	if err := s.storage.WriteFile(s.currentPath, []byte(name)); err != nil {
		return fmt.Errorf("failed to write current rice file: %w", err)
	}
	return nil
}

// List returns the names of all rices, sorted lexicographically.
//
// Only directories qualify; a symlink counts when it resolves to one. A
// missing store root yields an empty list rather than an error.
func (s *Service) List() ([]string, error) {
	entries, err := s.storage.ReadDir(s.ricesDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read rice store: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
			continue
		}
		if entry.Mode()&os.ModeSymlink != 0 {
			if ok, _ := s.storage.DirExists(s.RicePath(entry.Name())); ok {
				names = append(names, entry.Name())
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// RicePath returns the full path to a rice directory.
func (s *Service) RicePath(name string) string {
	return filepath.Join(s.ricesDir, name)
}

// Exists reports whether name is a rice directory.
func (s *Service) Exists(name string) (bool, error) {
	return s.storage.DirExists(s.RicePath(name))
}

// Occupied reports whether anything at all sits at the rice path.
func (s *Service) Occupied(name string) (bool, error) {
	return s.storage.Exists(s.RicePath(name))
}

// RicesDir returns the store root.
func (s *Service) RicesDir() string {
	return s.ricesDir
}
