package rice

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// MenuEntry is one line of the rice menu.
type MenuEntry struct {
	Name    string
	Current bool
}

// StatusLine returns the short text shown in the bar.
//
// The current rice is only named when the pointer matches an existing rice;
// a stale pointer falls back to the plain count.
func (m *Manager) StatusLine() (string, error) {
	rices, err := m.ListRices()
	if err != nil {
		return "", err
	}
	if len(rices) == 0 {
		return m.withIcon("No rices"), nil
	}
	if current, ok := m.Current(); ok && current != "" && slices.Contains(rices, current) {
		return m.withIcon(fmt.Sprintf("%s (%d)", current, len(rices))), nil
	}
	return m.withIcon(fmt.Sprintf("%d rices", len(rices))), nil
}

// MenuEntries returns every rice in sorted order, flagging the current one.
func (m *Manager) MenuEntries() ([]MenuEntry, error) {
	rices, err := m.ListRices()
	if err != nil {
		return nil, err
	}
	current, ok := m.Current()
	entries := make([]MenuEntry, 0, len(rices))
	for _, name := range rices {
		entries = append(entries, MenuEntry{Name: name, Current: ok && name == current})
	}
	return entries, nil
}

// MenuText renders MenuEntries one per line, prefixing the current rice with
// the marker and the others with blank padding of the same width.
func (m *Manager) MenuText() (string, error) {
	entries, err := m.MenuEntries()
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, m.MenuPrefix(entry.Current)+entry.Name)
	}
	return strings.Join(lines, "\n"), nil
}

// MenuPrefix returns the prefix MenuText puts in front of a rice name.
func (m *Manager) MenuPrefix(current bool) string {
	if current {
		return m.currentMarker + " "
	}
	return strings.Repeat(" ", utf8.RuneCountInString(m.currentMarker)+1)
}

func (m *Manager) withIcon(text string) string {
	if m.statusIcon == "" {
		return text
	}
	return m.statusIcon + " " + text
}
