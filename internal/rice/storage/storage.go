package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"

	"github.com/riceify/riceify/internal/rice/domain"
)

// Storage provides the low-level file operations used by the rice store.
type Storage struct {
	fs     afero.Fs
	logger *slog.Logger
}

// New creates a new Storage instance. A nil logger discards output.
func New(fs afero.Fs, logger *slog.Logger) *Storage {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Storage{fs: fs, logger: logger}
}

// FileSystem returns the underlying filesystem.
func (s *Storage) FileSystem() afero.Fs {
	return s.fs
}

// Lstat returns file information without following a trailing symlink when
// the filesystem supports it.
func (s *Storage) Lstat(path string) (os.FileInfo, error) {
	if lstater, ok := s.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		return info, err
	}
	return s.fs.Stat(path)
}

// IsSymlink reports whether path is a symlink. Missing paths are not symlinks.
func (s *Storage) IsSymlink(path string) (bool, error) {
	info, err := s.Lstat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check path: %w", err)
	}
	return info.Mode()&os.ModeSymlink != 0, nil
}

// CopyFile copies the regular file src to dst with the source's permissions.
//
// The destination is replaced through a temp file and rename. A destination
// that is a symlink is written through instead, so links managed by other
// dotfile tools keep pointing where they did.
func (s *Storage) CopyFile(src, dst string) (err error) {
	info, err := s.fs.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	perm := info.Mode().Perm()

	source, err := s.fs.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() {
		if cerr := source.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close source: %w", cerr)
		}
	}()

	if err := s.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	link, err := s.IsSymlink(dst)
	if err != nil {
		return err
	}
	if link {
		return s.writeThrough(source, dst)
	}

	// Create temp file in same directory (enables atomic rename)
	tmp := dst + ".riceify-tmp"
	dest, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	_, copyErr := io.Copy(dest, source)
	closeErr := dest.Close()

	if copyErr != nil || closeErr != nil {
		s.fs.Remove(tmp)
		if copyErr != nil {
			return fmt.Errorf("copy data: %w", copyErr)
		}
		return fmt.Errorf("close temp file: %w", closeErr)
	}

	if err := s.fs.Chmod(tmp, perm); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := s.fs.Rename(tmp, dst); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}

	return nil
}

func (s *Storage) writeThrough(source io.Reader, dst string) error {
	dest, err := s.fs.OpenFile(dst, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open destination: %w", err)
	}
	_, copyErr := io.Copy(dest, source)
	closeErr := dest.Close()
	if copyErr != nil {
		return fmt.Errorf("copy data: %w", copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close destination: %w", closeErr)
	}
	return nil
}

// CopySymlink recreates the symlink src at dst, replacing a non-directory
// entry already at dst.
func (s *Storage) CopySymlink(src, dst string) error {
	reader, ok := s.fs.(afero.LinkReader)
	if !ok {
		return fmt.Errorf("cannot read symlink %s: filesystem does not support symlinks", src)
	}
	linker, ok := s.fs.(afero.Linker)
	if !ok {
		return fmt.Errorf("cannot create symlink %s: filesystem does not support symlinks", dst)
	}

	target, err := reader.ReadlinkIfPossible(src)
	if err != nil {
		return fmt.Errorf("read symlink: %w", err)
	}

	if info, err := s.Lstat(dst); err == nil {
		if info.IsDir() {
			return fmt.Errorf("cannot overwrite directory '%s' with non-directory", dst)
		}
		if err := s.fs.Remove(dst); err != nil {
			return fmt.Errorf("remove existing destination: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat destination: %w", err)
	}

	if err := linker.SymlinkIfPossible(target, dst); err != nil {
		return fmt.Errorf("create symlink: %w", err)
	}
	return nil
}

// CopyTree copies src onto dst as an overlay: directories are merged, files
// present in src overwrite those in dst, and entries only present in dst are
// left alone. src may also be a single file or symlink.
//
// Copying continues past per-entry failures; all of them are returned joined.
func (s *Storage) CopyTree(src, dst string) error {
	info, err := s.Lstat(src)
	if err != nil {
		return fmt.Errorf("cannot stat '%s': %w", src, err)
	}
	return s.copyEntry(src, dst, info)
}

func (s *Storage) copyEntry(src, dst string, info os.FileInfo) error {
	mode := info.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		return s.CopySymlink(src, dst)
	case info.IsDir():
		return s.copyDir(src, dst, mode.Perm())
	case mode.IsRegular():
		if dstInfo, err := s.fs.Stat(dst); err == nil && dstInfo.IsDir() {
			return fmt.Errorf("cannot overwrite directory '%s' with non-directory", dst)
		}
		if err := s.CopyFile(src, dst); err != nil {
			return fmt.Errorf("cannot copy '%s': %w", src, err)
		}
		return nil
	default:
		s.logger.Debug("skipping special file", "path", src, "mode", mode.String())
		return nil
	}
}

func (s *Storage) copyDir(src, dst string, perm os.FileMode) error {
	if info, err := s.fs.Stat(dst); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("cannot overwrite non-directory '%s' with directory '%s'", dst, src)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := s.fs.MkdirAll(dst, perm|0o700); err != nil {
			return fmt.Errorf("cannot create directory '%s': %w", dst, err)
		}
	} else {
		return fmt.Errorf("cannot stat '%s': %w", dst, err)
	}

	entries, err := afero.ReadDir(s.fs, src)
	if err != nil {
		return fmt.Errorf("cannot read directory '%s': %w", src, err)
	}

	var errs []error
	for _, entry := range entries {
		from := filepath.Join(src, entry.Name())
		to := filepath.Join(dst, entry.Name())
		if err := s.copyEntry(from, to, entry); err != nil {
			s.logger.Debug("copy entry failed", "src", from, "dst", to, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Lock creates path exclusively and returns a function that releases it.
// An existing lock file yields domain.ErrLocked.
func (s *Storage) Lock(path string) (func() error, error) {
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w (remove %s if no riceify process is running)", domain.ErrLocked, path)
		}
		return nil, fmt.Errorf("create lock file: %w", err)
	}
	_, writeErr := f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	if closeErr := f.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		s.fs.Remove(path)
		return nil, fmt.Errorf("write lock file: %w", writeErr)
	}
	s.logger.Debug("lock acquired", "path", path)
	return func() error {
		return s.fs.Remove(path)
	}, nil
}

// ReadFile reads the entire file.
func (s *Storage) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(s.fs, path)
}

// WriteFile writes data to a file, replacing its contents.
func (s *Storage) WriteFile(path string, data []byte) error {
	return afero.WriteFile(s.fs, path, data, 0o644)
}

// Exists checks if a path exists.
func (s *Storage) Exists(path string) (bool, error) {
	return afero.Exists(s.fs, path)
}

// DirExists checks if a path exists and is a directory.
func (s *Storage) DirExists(path string) (bool, error) {
	return afero.DirExists(s.fs, path)
}

// Stat returns file information.
func (s *Storage) Stat(path string) (os.FileInfo, error) {
	return s.fs.Stat(path)
}

// MkdirAll creates a directory and any missing parents.
func (s *Storage) MkdirAll(path string) error {
	return s.fs.MkdirAll(path, 0o755)
}

// ReadDir reads directory contents sorted by name.
func (s *Storage) ReadDir(path string) ([]os.FileInfo, error) {
	return afero.ReadDir(s.fs, path)
}

// RemoveAll deletes path and everything below it.
func (s *Storage) RemoveAll(path string) error {
	return s.fs.RemoveAll(path)
}

// Walk walks the tree rooted at root.
func (s *Storage) Walk(root string, fn filepath.WalkFunc) error {
	return afero.Walk(s.fs, root, fn)
}
