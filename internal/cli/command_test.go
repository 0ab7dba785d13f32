package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/riceify/riceify/internal/rice"
	"github.com/riceify/riceify/internal/rice/copier"
	"github.com/riceify/riceify/internal/rice/domain"
)

const testHome = "/home/test"

type stubPrompter struct {
	selects  []selectResponse
	confirms []confirmResponse

	selectCalls  int
	confirmCalls int
	lastDefault  string
}

type selectResponse struct {
	index int
	value string
	err   error
}

type confirmResponse struct {
	value bool
	err   error
}

var errStubNoMore = errors.New("stub prompter: no more responses")

func (s *stubPrompter) Select(label string, items []string, defaultValue string) (int, string, error) {
	s.lastDefault = defaultValue
	if s.selectCalls >= len(s.selects) {
		return 0, "", errStubNoMore
	}
	resp := s.selects[s.selectCalls]
	s.selectCalls++
	return resp.index, resp.value, resp.err
}

func (s *stubPrompter) Confirm(label string, defaultYes bool) (bool, error) {
	if s.confirmCalls >= len(s.confirms) {
		return false, errStubNoMore
	}
	resp := s.confirms[s.confirmCalls]
	s.confirmCalls++
	return resp.value, resp.err
}

func newTestCommandManager(t *testing.T) *rice.Manager {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll(testHome, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	return rice.NewManager(fs, testHome, nil) // nil logger = discard logger for tests
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func makeRice(t *testing.T, mgr *rice.Manager, name string) string {
	t.Helper()
	path, err := mgr.RicePath(name)
	if err != nil {
		t.Fatalf("rice path: %v", err)
	}
	if err := mgr.FileSystem().MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir rice: %v", err)
	}
	return path
}

// run executes the root command with args and returns stdout, stderr and the exit code.
func run(t *testing.T, mgr *rice.Manager, prompter Prompter, args ...string) (string, string, int) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := NewRootCommand(mgr, prompter, stdout, stderr)
	cmd.SetArgs(args)
	code := Execute(cmd, stderr)
	return stdout.String(), stderr.String(), code
}

func TestEmptyStore(t *testing.T) {
	mgr := newTestCommandManager(t)

	for _, args := range [][]string{nil, {"--status"}} {
		out, _, code := run(t, mgr, &stubPrompter{}, args...)
		if code != ExitSuccess || out != "🍚 No rices\n" {
			t.Fatalf("args %v: unexpected (%q, %d)", args, out, code)
		}
	}

	out, _, code := run(t, mgr, &stubPrompter{}, "--list")
	if code != ExitSuccess || out != "No rices found\n" {
		t.Fatalf("unexpected list output (%q, %d)", out, code)
	}
}

func TestStatusAndMenuWithCurrent(t *testing.T) {
	mgr := newTestCommandManager(t)
	makeRice(t, mgr, "a")
	makeRice(t, mgr, "b")
	if err := mgr.SetCurrent("b"); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}

	out, _, code := run(t, mgr, &stubPrompter{}, "--status")
	if code != ExitSuccess || out != "🍚 b (2)\n" {
		t.Fatalf("unexpected status (%q, %d)", out, code)
	}

	out, _, code = run(t, mgr, &stubPrompter{}, "--menu")
	if code != ExitSuccess || out != "  a\n✓ b\n" {
		t.Fatalf("unexpected menu (%q, %d)", out, code)
	}

	out, _, code = run(t, mgr, &stubPrompter{}, "--list")
	if code != ExitSuccess || out != "a\nb\n" {
		t.Fatalf("unexpected list (%q, %d)", out, code)
	}
}

func TestFlagPriority(t *testing.T) {
	mgr := newTestCommandManager(t)
	makeRice(t, mgr, "a")

	out, _, code := run(t, mgr, &stubPrompter{}, "--list", "--status", "--remove", "a")
	if code != ExitSuccess || out != "🍚 1 rices\n" {
		t.Fatalf("status must win, got (%q, %d)", out, code)
	}
	if names, _ := mgr.ListRices(); len(names) != 1 {
		t.Fatal("remove must not run when --status is given")
	}

	out, _, _ = run(t, mgr, &stubPrompter{}, "--list", "--menu")
	if out != "  a\n" {
		t.Fatalf("menu must win over list, got %q", out)
	}
}

func TestEmptyNameFallsThrough(t *testing.T) {
	mgr := newTestCommandManager(t)
	makeRice(t, mgr, "a")

	out, _, code := run(t, mgr, &stubPrompter{}, "--switch", "")
	if code != ExitSuccess || out != "🍚 1 rices\n" {
		t.Fatalf("empty --switch must fall through to status, got (%q, %d)", out, code)
	}

	out, _, code = run(t, mgr, &stubPrompter{}, "--remove", "", "--list")
	if code != ExitSuccess || out != "a\n" {
		t.Fatalf("empty --remove must fall through to list, got (%q, %d)", out, code)
	}
}

func TestAddCommand(t *testing.T) {
	mgr := newTestCommandManager(t)
	fs := mgr.FileSystem()
	writeFile(t, fs, filepath.Join(testHome, ".config", "polybar", "config.ini"), "bar")
	writeFile(t, fs, filepath.Join(testHome, ".zshrc"), "zsh")

	out, _, code := run(t, mgr, &stubPrompter{}, "--add", "foo")
	if code != ExitSuccess || out != "Created rice 'foo'\n" {
		t.Fatalf("unexpected add (%q, %d)", out, code)
	}
	path, _ := mgr.RicePath("foo")
	if exists, _ := afero.Exists(fs, filepath.Join(path, ".config", "polybar", "config.ini")); !exists {
		t.Fatal("expected .config to be captured")
	}

	writeFile(t, fs, filepath.Join(testHome, ".zshrc"), "changed")
	out, _, code = run(t, mgr, &stubPrompter{}, "--add", "foo")
	if code != ExitFailure || out != "rice 'foo' already exists\n" {
		t.Fatalf("unexpected second add (%q, %d)", out, code)
	}
	data, _ := afero.ReadFile(fs, filepath.Join(path, ".zshrc"))
	if string(data) != "zsh" {
		t.Fatalf("existing rice must be untouched, got %q", data)
	}
}

func TestAddInvalidName(t *testing.T) {
	mgr := newTestCommandManager(t)

	out, _, code := run(t, mgr, &stubPrompter{}, "--add", "my/rice")
	if code != ExitFailure || !strings.Contains(out, "path separators") {
		t.Fatalf("unexpected output (%q, %d)", out, code)
	}
}

func TestSwitchCommand(t *testing.T) {
	mgr := newTestCommandManager(t)
	fs := mgr.FileSystem()
	path := makeRice(t, mgr, "foo")
	writeFile(t, fs, filepath.Join(path, ".Xresources"), "rice")
	writeFile(t, fs, filepath.Join(testHome, ".profile"), "mine")

	out, _, code := run(t, mgr, &stubPrompter{}, "--switch", "foo")
	if code != ExitSuccess || out != "Switched to rice 'foo'\n" {
		t.Fatalf("unexpected switch (%q, %d)", out, code)
	}
	if data, _ := afero.ReadFile(fs, filepath.Join(testHome, ".Xresources")); string(data) != "rice" {
		t.Fatalf("expected rice file in home, got %q", data)
	}
	if data, _ := afero.ReadFile(fs, filepath.Join(testHome, ".profile")); string(data) != "mine" {
		t.Fatalf("expected home-only file untouched, got %q", data)
	}
	if data, _ := afero.ReadFile(fs, mgr.CurrentPath()); string(data) != "foo" {
		t.Fatalf("expected pointer 'foo', got %q", data)
	}
}

func TestSwitchMissing(t *testing.T) {
	mgr := newTestCommandManager(t)
	if err := mgr.SetCurrent("foo"); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}

	out, _, code := run(t, mgr, &stubPrompter{}, "--switch", "bar")
	if code != ExitFailure || out != "rice 'bar' not found\n" {
		t.Fatalf("unexpected output (%q, %d)", out, code)
	}
	if name, _ := mgr.Current(); name != "foo" {
		t.Fatalf("pointer must be unchanged, got %q", name)
	}
}

func TestRemoveThenInfo(t *testing.T) {
	mgr := newTestCommandManager(t)
	makeRice(t, mgr, "foo")

	out, _, code := run(t, mgr, &stubPrompter{}, "--remove", "foo")
	if code != ExitSuccess || out != "Removed rice 'foo'\n" {
		t.Fatalf("unexpected remove (%q, %d)", out, code)
	}

	out, _, code = run(t, mgr, &stubPrompter{}, "--info", "foo")
	if code != ExitFailure || out != "rice 'foo' not found\n" {
		t.Fatalf("unexpected info (%q, %d)", out, code)
	}

	out, _, code = run(t, mgr, &stubPrompter{}, "--remove", "foo")
	if code != ExitFailure || out != "rice 'foo' not found\n" {
		t.Fatalf("unexpected second remove (%q, %d)", out, code)
	}
}

func TestRemoveInteractive(t *testing.T) {
	mgr := newTestCommandManager(t)
	makeRice(t, mgr, "foo")

	prompter := &stubPrompter{confirms: []confirmResponse{{value: false}}}
	out, _, code := run(t, mgr, prompter, "--remove", "foo", "--interactive")
	if code != ExitSuccess || out != "Aborted removing rice.\n" {
		t.Fatalf("unexpected output (%q, %d)", out, code)
	}
	if names, _ := mgr.ListRices(); len(names) != 1 {
		t.Fatal("declined remove must keep the rice")
	}

	prompter = &stubPrompter{confirms: []confirmResponse{{value: true}}}
	out, _, code = run(t, mgr, prompter, "--remove", "foo", "--interactive")
	if code != ExitSuccess || out != "Removed rice 'foo'\n" {
		t.Fatalf("unexpected output (%q, %d)", out, code)
	}
}

func TestInfoJSON(t *testing.T) {
	mgr := newTestCommandManager(t)
	path := makeRice(t, mgr, "foo")
	writeFile(t, mgr.FileSystem(), filepath.Join(path, ".config", "x"), "x")

	out, _, code := run(t, mgr, &stubPrompter{}, "--info", "foo")
	if code != ExitSuccess {
		t.Fatalf("unexpected exit %d: %s", code, out)
	}
	if !strings.Contains(out, "\n  \"name\": \"foo\",") {
		t.Fatalf("expected two-space indented JSON, got %s", out)
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"name", "path", "config_exists", "home_files_exist", "created"} {
		if _, ok := got[key]; !ok {
			t.Errorf("missing key %q in %v", key, got)
		}
	}
	if got["path"] != path || got["config_exists"] != true || got["home_files_exist"] != true {
		t.Fatalf("unexpected info %v", got)
	}
}

func TestInfoYAML(t *testing.T) {
	mgr := newTestCommandManager(t)
	makeRice(t, mgr, "foo")

	out, _, code := run(t, mgr, &stubPrompter{}, "--info", "foo", "--format", "yaml")
	if code != ExitSuccess {
		t.Fatalf("unexpected exit %d: %s", code, out)
	}
	var got rice.RiceInfo
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != "foo" || got.ConfigExists || got.Created == "" {
		t.Fatalf("unexpected info %+v", got)
	}

	out, _, code = run(t, mgr, &stubPrompter{}, "--info", "foo", "--format", "xml")
	if code != ExitFailure || !strings.Contains(out, "unsupported format") {
		t.Fatalf("unexpected output (%q, %d)", out, code)
	}
}

func TestPickCommand(t *testing.T) {
	mgr := newTestCommandManager(t)
	makeRice(t, mgr, "a")
	makeRice(t, mgr, "b")
	if err := mgr.SetCurrent("a"); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}

	prompter := &stubPrompter{selects: []selectResponse{{index: 1, value: "b"}}}
	out, _, code := run(t, mgr, prompter, "--pick")
	if code != ExitSuccess || out != "Switched to rice 'b'\n" {
		t.Fatalf("unexpected output (%q, %d)", out, code)
	}
	if prompter.lastDefault != "a" {
		t.Errorf("expected cursor on current rice, got %q", prompter.lastDefault)
	}
	if name, _ := mgr.Current(); name != "b" {
		t.Fatalf("expected current 'b', got %q", name)
	}
}

func TestPickCancelled(t *testing.T) {
	mgr := newTestCommandManager(t)
	makeRice(t, mgr, "a")

	prompter := &stubPrompter{selects: []selectResponse{{err: ErrPromptCancelled}}}
	out, _, code := run(t, mgr, prompter, "--pick")
	if code != ExitFailure || out != "prompt cancelled\n" {
		t.Fatalf("unexpected output (%q, %d)", out, code)
	}
}

// dotfileFailingEngine fails every copy except the .config tree.
type dotfileFailingEngine struct {
	inner copier.Engine
}

func (e *dotfileFailingEngine) OverlayCopy(src, dst string) error {
	if filepath.Base(src) != ".config" {
		return &domain.CopyError{Src: src, Dst: dst, Detail: "cp: cannot stat '" + src + "'"}
	}
	return e.inner.OverlayCopy(src, dst)
}

func TestStrictFlag(t *testing.T) {
	fs := afero.NewMemMapFs()
	inner, err := copier.New(copier.EngineNative, fs, nil)
	if err != nil {
		t.Fatalf("copier.New: %v", err)
	}
	mgr := rice.NewManager(fs, testHome, nil, rice.WithEngine(&dotfileFailingEngine{inner: inner}))
	writeFile(t, fs, filepath.Join(testHome, ".config", "i3", "config"), "i3")
	writeFile(t, fs, filepath.Join(testHome, ".bashrc"), "bash")

	out, _, code := run(t, mgr, &stubPrompter{}, "--add", "lenient")
	if code != ExitSuccess || out != "Created rice 'lenient'\n" {
		t.Fatalf("lenient add: unexpected (%q, %d)", out, code)
	}

	out, _, code = run(t, mgr, &stubPrompter{}, "--add", "strict", "--strict")
	if code != ExitFailure || !strings.HasPrefix(out, "failed to copy home dotfiles: cp: cannot stat") {
		t.Fatalf("strict add: unexpected (%q, %d)", out, code)
	}
}

func TestLockFlag(t *testing.T) {
	mgr := newTestCommandManager(t)
	makeRice(t, mgr, "foo")
	writeFile(t, mgr.FileSystem(), mgr.LockPath(), "4242")

	out, _, code := run(t, mgr, &stubPrompter{}, "--remove", "foo", "--lock")
	if code != ExitFailure || !strings.Contains(out, "locked") {
		t.Fatalf("unexpected (%q, %d)", out, code)
	}

	out, _, code = run(t, mgr, &stubPrompter{}, "--remove", "foo")
	if code != ExitSuccess {
		t.Fatalf("remove without lock must ignore the lock file, got (%q, %d)", out, code)
	}
}

func TestUnknownFlag(t *testing.T) {
	mgr := newTestCommandManager(t)

	_, stderr, code := run(t, mgr, &stubPrompter{}, "--bogus")
	if code != ExitFailure || !strings.HasPrefix(stderr, "Error: unknown flag") {
		t.Fatalf("unexpected (%q, %d)", stderr, code)
	}
}
