package validator

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/gosimple/slug"

	"github.com/riceify/riceify/internal/rice/domain"
)

// Validator validates rice names before they are joined onto the store root.
type Validator struct{}

// New creates a new Validator instance.
func New() *Validator {
	return &Validator{}
}

// ValidateName validates a rice name.
//
// The function checks for:
//   - Empty names or whitespace-only names
//   - Dot navigation (. or ..)
//   - Path separators (/ or \), which would escape the store root
//   - Control characters, including null bytes
//
// Returns (true, nil) if valid, or (false, error) with a descriptive error.
func (v *Validator) ValidateName(name string) (bool, error) {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) == 0 {
		return false, domain.ErrRiceNameEmpty
	}
	if trimmed == "." || trimmed == ".." {
		return false, domain.ErrRiceNameDot
	}
	if strings.ContainsAny(trimmed, `/\`) {
		return false, domain.ErrRiceNameSeparator
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return false, domain.ErrRiceNameNonPrintable
		}
	}
	return true, nil
}

// NormalizeName trims whitespace and validates the name. Invalid names are
// reported together with a slugged suggestion when one exists.
func (v *Validator) NormalizeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if ok, err := v.ValidateName(trimmed); !ok {
		if suggestion := Suggest(trimmed); suggestion != "" {
			return "", fmt.Errorf("invalid rice name %q: %w (try %q)", trimmed, err, suggestion)
		}
		return "", fmt.Errorf("invalid rice name %q: %w", trimmed, err)
	}
	return trimmed, nil
}

// Suggest returns a filesystem friendly variant of name, or "" if none can be derived.
func Suggest(name string) string {
	s := slug.Make(name)
	if s == "" || s == "." || s == ".." {
		return ""
	}
	return s
}
