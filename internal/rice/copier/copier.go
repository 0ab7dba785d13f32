// Package copier provides the overlay copy engines used to move files between
// the home directory and rice profiles.
package copier

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/spf13/afero"

	"github.com/riceify/riceify/internal/rice/domain"
	"github.com/riceify/riceify/internal/rice/storage"
)

// Engine names accepted by New.
const (
	EngineNative = "native"
	EngineExec   = "exec"
)

// Engine copies src onto dst without deleting entries that exist only in dst.
// Failures are reported as *domain.CopyError.
type Engine interface {
	OverlayCopy(src, dst string) error
}

// New returns the engine registered under name.
func New(name string, fs afero.Fs, logger *slog.Logger) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EngineNative:
		return NewNative(storage.New(fs, logger)), nil
	case EngineExec:
		return NewExec(), nil
	default:
		return nil, fmt.Errorf("unknown copy engine %q (want %q or %q)", name, EngineNative, EngineExec)
	}
}

// Native copies through the afero-backed storage layer.
type Native struct {
	storage *storage.Storage
}

// NewNative creates a Native engine on top of st.
func NewNative(st *storage.Storage) *Native {
	return &Native{storage: st}
}

func (n *Native) OverlayCopy(src, dst string) error {
	if err := n.storage.CopyTree(src, dst); err != nil {
		return &domain.CopyError{Src: src, Dst: dst, Detail: err.Error()}
	}
	return nil
}

// Runner executes a command and returns its stderr.
type Runner func(ctx context.Context, name string, args ...string) (stderr []byte, err error)

// Exec shells out to `cp -rT`, which has the same overlay semantics. It only
// makes sense against the real filesystem.
type Exec struct {
	run Runner
}

// NewExec creates an Exec engine that runs commands with os/exec.
func NewExec() *Exec {
	return &Exec{run: runCommand}
}

// NewExecWithRunner creates an Exec engine with a custom runner.
func NewExecWithRunner(run Runner) *Exec {
	return &Exec{run: run}
}

func (e *Exec) OverlayCopy(src, dst string) error {
	stderr, err := e.run(context.Background(), "cp", "-rT", src, dst)
	if err != nil {
		detail := strings.TrimSpace(string(stderr))
		if detail == "" {
			detail = err.Error()
		}
		return &domain.CopyError{Src: src, Dst: dst, Detail: detail}
	}
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}
