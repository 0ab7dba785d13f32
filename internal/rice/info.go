package rice

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/riceify/riceify/internal/rice/domain"
	"github.com/riceify/riceify/internal/rice/paths"
)

// CreatedLayout is the format of RiceInfo.Created.
const CreatedLayout = "2006-01-02 15:04"

// UnknownCreated replaces Created when the rice directory cannot be stat'ed.
const UnknownCreated = "Unknown"

// RiceInfo describes a single rice.
type RiceInfo struct {
	Name           string    `json:"name" yaml:"name"`
	Path           string    `json:"path" yaml:"path"`
	ConfigExists   bool      `json:"config_exists" yaml:"config_exists"`
	HomeFilesExist bool      `json:"home_files_exist" yaml:"home_files_exist"`
	Created        string    `json:"created" yaml:"created"`
	Size           string    `json:"size" yaml:"size"`
	CreatedAt      time.Time `json:"-" yaml:"-"`
}

// Info reports on the named rice. A rice whose timestamp cannot be read
// still yields a RiceInfo, with Created set to UnknownCreated.
func (m *Manager) Info(name string) (*RiceInfo, error) {
	name, err := m.validator.NormalizeName(name)
	if err != nil {
		return nil, err
	}
	exists, err := m.store.Exists(name)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect rice: %w", err)
	}
	if !exists {
		return nil, &domain.RiceError{Name: name, Err: domain.ErrRiceNotFound}
	}

	ricePath := m.store.RicePath(name)
	if abs, err := filepath.Abs(ricePath); err == nil {
		ricePath = abs
	}

	info := &RiceInfo{
		Name:    name,
		Path:    ricePath,
		Created: UnknownCreated,
	}

	info.ConfigExists, _ = m.storage.Exists(filepath.Join(ricePath, paths.ConfigDirName))
	info.HomeFilesExist = m.hasDotEntries(ricePath)

	if stat, err := m.storage.Stat(ricePath); err == nil {
		info.CreatedAt = changeTime(stat)
		info.Created = info.CreatedAt.Local().Format(CreatedLayout)
	} else {
		m.logger.Debug("rice metadata unavailable", "rice", name, "error", err)
	}

	info.Size = m.treeSize(ricePath)
	return info, nil
}

func (m *Manager) hasDotEntries(dir string) bool {
	entries, err := m.storage.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			return true
		}
	}
	return false
}

// treeSize sums regular files below root. Unreadable entries are skipped.
func (m *Manager) treeSize(root string) string {
	var total uint64
	_ = m.storage.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			if fi != nil && fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if fi.Mode().IsRegular() {
			total += uint64(fi.Size())
		}
		return nil
	})
	return humanize.Bytes(total)
}
