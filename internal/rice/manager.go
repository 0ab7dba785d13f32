package rice

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/riceify/riceify/internal/rice/copier"
	"github.com/riceify/riceify/internal/rice/domain"
	"github.com/riceify/riceify/internal/rice/paths"
	"github.com/riceify/riceify/internal/rice/storage"
	"github.com/riceify/riceify/internal/rice/store"
	"github.com/riceify/riceify/internal/rice/validator"
)

// Default display settings for StatusLine and MenuText.
const (
	DefaultStatusIcon    = "🍚"
	DefaultCurrentMarker = "✓"
)

// Manager owns the rice store under ~/Riceify and the current-rice pointer.
//
// A Manager is meant to live for a single invocation. Nothing is cached
// between calls and no locking happens unless WithLock is set.
type Manager struct {
	fs      afero.Fs
	homeDir string
	logger  *slog.Logger

	paths     *paths.PathBuilder
	storage   *storage.Storage
	store     *store.Service
	validator *validator.Validator
	engine    copier.Engine

	strictAdd     bool
	useLock       bool
	statusIcon    string
	currentMarker string
}

// Option configures a Manager.
type Option func(*Manager)

// WithEngine replaces the default native copy engine.
func WithEngine(engine copier.Engine) Option {
	return func(m *Manager) {
		if engine != nil {
			m.engine = engine
		}
	}
}

// WithStrictAdd makes Add fail when copying the home dotfiles fails.
func WithStrictAdd(strict bool) Option {
	return func(m *Manager) { m.strictAdd = strict }
}

// WithLock guards Switch, Add and Remove with an advisory lock file.
func WithLock(lock bool) Option {
	return func(m *Manager) { m.useLock = lock }
}

// WithStatusIcon sets the prefix of StatusLine. An empty icon drops the prefix.
func WithStatusIcon(icon string) Option {
	return func(m *Manager) { m.statusIcon = icon }
}

// WithCurrentMarker sets the MenuText prefix of the current rice.
func WithCurrentMarker(marker string) Option {
	return func(m *Manager) {
		if marker != "" {
			m.currentMarker = marker
		}
	}
}

// NewManager constructs a Manager for the given filesystem and home directory.
func NewManager(fs afero.Fs, homeDir string, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p := paths.New(homeDir)
	st := storage.New(fs, logger)
	m := &Manager{
		fs:            fs,
		homeDir:       homeDir,
		logger:        logger,
		paths:         p,
		storage:       st,
		store:         store.New(st, p.RicesDir(), p.CurrentPath()),
		validator:     validator.New(),
		engine:        copier.NewNative(st),
		statusIcon:    DefaultStatusIcon,
		currentMarker: DefaultCurrentMarker,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetStrictAdd overrides the strictness chosen at construction.
func (m *Manager) SetStrictAdd(strict bool) {
	m.strictAdd = strict
}

// SetLock overrides the locking chosen at construction.
func (m *Manager) SetLock(lock bool) {
	m.useLock = lock
}

// FileSystem exposes the underlying filesystem.
func (m *Manager) FileSystem() afero.Fs {
	return m.fs
}

// HomeDir returns the home directory rices are captured from and applied to.
func (m *Manager) HomeDir() string {
	return m.homeDir
}

// RicesDir returns the store root.
func (m *Manager) RicesDir() string {
	return m.paths.RicesDir()
}

// CurrentPath returns the path of the current-rice state file.
func (m *Manager) CurrentPath() string {
	return m.paths.CurrentPath()
}

// LockPath returns the path of the advisory lock file.
func (m *Manager) LockPath() string {
	return m.paths.LockPath()
}

// RicePath returns the directory of a named rice after validating the name.
func (m *Manager) RicePath(name string) (string, error) {
	trimmed, err := m.validator.NormalizeName(name)
	if err != nil {
		return "", err
	}
	return m.store.RicePath(trimmed), nil
}

// ListRices returns the rice names in lexicographic order.
func (m *Manager) ListRices() ([]string, error) {
	return m.store.List()
}

// Current returns the current rice pointer. ok is false when no pointer file exists.
func (m *Manager) Current() (name string, ok bool) {
	return m.store.Current()
}

// SetCurrent records name as the current rice without checking that it exists.
func (m *Manager) SetCurrent(name string) error {
	return m.store.SetCurrent(name)
}

// Switch overlays the named rice onto the home directory and records it as
// current. The pointer is left untouched when the copy fails.
func (m *Manager) Switch(name string) error {
	name, err := m.validator.NormalizeName(name)
	if err != nil {
		return err
	}
	release, err := m.acquire()
	if err != nil {
		return err
	}
	defer release()

	exists, err := m.store.Exists(name)
	if err != nil {
		return fmt.Errorf("failed to inspect rice: %w", err)
	}
	if !exists {
		return &domain.RiceError{Name: name, Err: domain.ErrRiceNotFound}
	}

	// A rice may hold a .riceify_current of its own. The pointer must
	// survive a copy that fails after writing it.
	prev, hadPrev := m.snapshotCurrent()
	if err := m.engine.OverlayCopy(m.store.RicePath(name), m.homeDir); err != nil {
		m.logger.Warn("switch failed",
			"rice", name,
			"error", err)
		if restoreErr := m.restoreCurrent(prev, hadPrev); restoreErr != nil {
			err = errors.Join(err, restoreErr)
		}
		return fmt.Errorf("failed to switch rice: %w", err)
	}

	if err := m.store.SetCurrent(name); err != nil {
		return err
	}

	m.logger.Info("switched rice", "rice", name)
	return nil
}

func (m *Manager) snapshotCurrent() ([]byte, bool) {
	data, err := m.storage.ReadFile(m.paths.CurrentPath())
	if err != nil {
		return nil, false
	}
	return data, true
}

// restoreCurrent puts the pointer file back the way snapshotCurrent saw it.
func (m *Manager) restoreCurrent(prev []byte, had bool) error {
	path := m.paths.CurrentPath()
	if had {
		if err := m.storage.WriteFile(path, prev); err != nil {
			return fmt.Errorf("failed to restore %s: %w", path, err)
		}
		return nil
	}
	if err := m.storage.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to restore %s: %w", path, err)
	}
	return nil
}

// Add captures the home directory's .config tree and top-level dotfiles into
// a new rice.
//
// Only directory creation and the .config copy can fail the operation. The
// dotfile copy is best-effort unless strict add is enabled, and a failed add
// leaves the partially filled rice directory in place.
func (m *Manager) Add(name string) error {
	name, err := m.validator.NormalizeName(name)
	if err != nil {
		return err
	}
	release, err := m.acquire()
	if err != nil {
		return err
	}
	defer release()

	occupied, err := m.store.Occupied(name)
	if err != nil {
		return fmt.Errorf("failed to inspect rice: %w", err)
	}
	if occupied {
		return &domain.RiceError{Name: name, Err: domain.ErrRiceExists}
	}

	ricePath := m.store.RicePath(name)
	if err := m.storage.MkdirAll(ricePath); err != nil {
		return fmt.Errorf("failed to create rice directory: %w", err)
	}

	configSrc := m.paths.HomeConfigDir()
	if ok, err := m.storage.Exists(configSrc); err != nil {
		return fmt.Errorf("failed to inspect %s: %w", configSrc, err)
	} else if ok {
		if err := m.engine.OverlayCopy(configSrc, filepath.Join(ricePath, paths.ConfigDirName)); err != nil {
			return fmt.Errorf("failed to copy %s: %w", paths.ConfigDirName, err)
		}
	}

	if err := m.copyHomeDotfiles(ricePath); err != nil {
		if m.strictAdd {
			return fmt.Errorf("failed to copy home dotfiles: %w", err)
		}
		m.logger.Warn("best-effort dotfile copy failed",
			"rice", name,
			"error", err)
	}

	m.logger.Info("created rice", "rice", name, "path", ricePath)
	return nil
}

// skipDotfile reports whether a top-level home entry stays out of the
// dotfile step. .config is copied on its own and the pointer file belongs to
// the store, not to any rice.
func skipDotfile(name string) bool {
	switch name {
	case paths.ConfigDirName, paths.CurrentFileName:
		return true
	}
	return false
}

// copyHomeDotfiles copies every dot-prefixed entry at the top of the home
// directory into ricePath, except the ones skipDotfile names.
func (m *Manager) copyHomeDotfiles(ricePath string) error {
	entries, err := m.storage.ReadDir(m.homeDir)
	if err != nil {
		return fmt.Errorf("failed to read home directory: %w", err)
	}
	var errs []error
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, ".") || skipDotfile(name) {
			continue
		}
		src := filepath.Join(m.homeDir, name)
		if err := m.engine.OverlayCopy(src, filepath.Join(ricePath, name)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Remove deletes the named rice and everything in it.
func (m *Manager) Remove(name string) error {
	name, err := m.validator.NormalizeName(name)
	if err != nil {
		return err
	}
	release, err := m.acquire()
	if err != nil {
		return err
	}
	defer release()

	exists, err := m.store.Exists(name)
	if err != nil {
		return fmt.Errorf("failed to inspect rice: %w", err)
	}
	if !exists {
		return &domain.RiceError{Name: name, Err: domain.ErrRiceNotFound}
	}

	if err := m.storage.RemoveAll(m.store.RicePath(name)); err != nil {
		return fmt.Errorf("failed to remove rice: %w", err)
	}

	m.logger.Info("removed rice", "rice", name)
	return nil
}

func (m *Manager) acquire() (func(), error) {
	if !m.useLock {
		return func() {}, nil
	}
	release, err := m.storage.Lock(m.paths.LockPath())
	if err != nil {
		return nil, err
	}
	return func() {
		if err := release(); err != nil {
			m.logger.Warn("failed to release lock",
				"path", m.paths.LockPath(),
				"error", err)
		}
	}, nil
}
