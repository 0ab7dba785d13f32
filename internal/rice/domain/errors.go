package domain

import (
	"errors"
	"fmt"
)

// Exported error variables allow callers to use errors.Is() for error checking.
var (
	ErrRiceNameEmpty        = errors.New("rice name cannot be empty")
	ErrRiceNameDot          = errors.New("rice name cannot be '.' or '..'")
	ErrRiceNameSeparator    = errors.New("rice name cannot contain path separators")
	ErrRiceNameNonPrintable = errors.New("rice name contains control characters")

	ErrRiceNotFound = errors.New("rice not found")
	ErrRiceExists   = errors.New("rice already exists")
	ErrCopyFailed   = errors.New("copy failed")
	ErrLocked       = errors.New("rice store is locked by another riceify process")
)

// RiceError ties a rice name to one of the sentinel errors above.
type RiceError struct {
	Name string
	Err  error
}

func (e *RiceError) Error() string {
	switch {
	case errors.Is(e.Err, ErrRiceNotFound):
		return fmt.Sprintf("rice '%s' not found", e.Name)
	case errors.Is(e.Err, ErrRiceExists):
		return fmt.Sprintf("rice '%s' already exists", e.Name)
	}
	return fmt.Sprintf("rice '%s': %v", e.Name, e.Err)
}

func (e *RiceError) Unwrap() error {
	return e.Err
}

// CopyError reports a failed overlay copy. Detail holds the copy engine's own
// error text and is returned unchanged by Error.
type CopyError struct {
	Src    string
	Dst    string
	Detail string
}

func (e *CopyError) Error() string {
	return e.Detail
}

// Is makes errors.Is(err, ErrCopyFailed) hold for every CopyError.
func (e *CopyError) Is(target error) bool {
	return target == ErrCopyFailed
}
