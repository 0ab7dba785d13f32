package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/riceify/riceify/internal/rice"
	"github.com/riceify/riceify/internal/ui"
)

// Output formats accepted by --format.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type rootFlags struct {
	status      bool
	menu        bool
	list        bool
	pick        bool
	interactive bool
	strict      bool
	lock        bool
	switchName  string
	addName     string
	removeName  string
	infoName    string
	format      string
}

// NewRootCommand constructs the root Cobra command for riceify.
//
// Exactly one action runs per invocation. When several action flags are
// given the first in the order status, menu, switch, add, remove, list,
// info, pick wins, and no flag at all behaves like --status. A name flag
// with an empty value counts as not given.
func NewRootCommand(mgr *rice.Manager, prompter Prompter, stdout, stderr io.Writer) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "riceify",
		Short: "Riceify polybar module",
		Long: "riceify manages named snapshots (rices) of your dotfiles and configuration, " +
			"switches between them and reports the active one for a status bar.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			if f.Changed("strict") {
				mgr.SetStrictAdd(flags.strict)
			}
			if f.Changed("lock") {
				mgr.SetLock(flags.lock)
			}

			out := ui.NewPrinter(stdout)
			switch {
			case flags.status:
				return runStatus(mgr, out)
			case flags.menu:
				return runMenu(mgr, out)
			case flags.switchName != "":
				return runSwitch(mgr, out, flags.switchName)
			case flags.addName != "":
				return runAdd(mgr, out, flags.addName)
			case flags.removeName != "":
				return runRemove(mgr, prompter, out, flags.removeName, flags.interactive)
			case flags.list:
				return runList(mgr, out)
			case flags.infoName != "":
				return runInfo(mgr, out, flags.infoName, flags.format)
			case flags.pick:
				return runPick(mgr, prompter, out)
			default:
				return runStatus(mgr, out)
			}
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.BoolVar(&flags.status, "status", false, "Display current rice status")
	f.BoolVar(&flags.menu, "menu", false, "Display rice menu")
	f.StringVar(&flags.switchName, "switch", "", "Switch to specified rice")
	f.StringVar(&flags.addName, "add", "", "Add new rice from the current home directory")
	f.StringVar(&flags.removeName, "remove", "", "Remove rice")
	f.BoolVar(&flags.list, "list", false, "List all rices")
	f.StringVar(&flags.infoName, "info", "", "Get rice information")
	f.BoolVar(&flags.pick, "pick", false, "Interactively pick a rice to switch to")
	f.StringVar(&flags.format, "format", FormatJSON, "Output format for --info (json or yaml)")
	f.BoolVar(&flags.interactive, "interactive", false, "Ask for confirmation before removing a rice")
	f.BoolVar(&flags.strict, "strict", false, "Fail --add when copying home dotfiles fails")
	f.BoolVar(&flags.lock, "lock", false, "Hold ~/Riceify/.lock while switching, adding or removing")

	for _, name := range []string{"switch", "add", "remove", "info"} {
		cmd.RegisterFlagCompletionFunc(name, completeRiceNames(mgr))
	}

	return cmd
}

// Execute runs cmd and returns the process exit code.
func Execute(cmd *cobra.Command, stderr io.Writer) int {
	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitFailure
}

// fail prints err as the command's message and marks the invocation failed.
func fail(out *ui.Printer, err error) error {
	out.Println(err.Error())
	return errFailed
}

func runStatus(mgr *rice.Manager, out *ui.Printer) error {
	line, err := mgr.StatusLine()
	if err != nil {
		return fail(out, err)
	}
	out.Println(line)
	return nil
}

func runMenu(mgr *rice.Manager, out *ui.Printer) error {
	if !out.Styled() {
		text, err := mgr.MenuText()
		if err != nil {
			return fail(out, err)
		}
		out.Println(text)
		return nil
	}
	entries, err := mgr.MenuEntries()
	if err != nil {
		return fail(out, err)
	}
	for _, entry := range entries {
		line := mgr.MenuPrefix(entry.Current) + entry.Name
		if entry.Current {
			line = out.Render(ui.Accent, line)
		}
		out.Println(line)
	}
	return nil
}

func runSwitch(mgr *rice.Manager, out *ui.Printer, name string) error {
	if err := mgr.Switch(name); err != nil {
		return fail(out, err)
	}
	out.Println(fmt.Sprintf("Switched to rice '%s'", strings.TrimSpace(name)))
	return nil
}

func runAdd(mgr *rice.Manager, out *ui.Printer, name string) error {
	if err := mgr.Add(name); err != nil {
		return fail(out, err)
	}
	out.Println(fmt.Sprintf("Created rice '%s'", strings.TrimSpace(name)))
	return nil
}

func runRemove(mgr *rice.Manager, prompter Prompter, out *ui.Printer, name string, interactive bool) error {
	name = strings.TrimSpace(name)
	if interactive {
		confirm, err := prompter.Confirm(fmt.Sprintf("Remove rice '%s'? This cannot be undone", name), false)
		if err != nil {
			return fail(out, err)
		}
		if !confirm {
			out.Println(out.Render(ui.Muted, "Aborted removing rice."))
			return nil
		}
	}
	if err := mgr.Remove(name); err != nil {
		return fail(out, err)
	}
	out.Println(fmt.Sprintf("Removed rice '%s'", name))
	return nil
}

func runList(mgr *rice.Manager, out *ui.Printer) error {
	names, err := mgr.ListRices()
	if err != nil {
		return fail(out, err)
	}
	if len(names) == 0 {
		out.Println(out.Render(ui.Muted, "No rices found"))
		return nil
	}
	current, ok := mgr.Current()
	for _, name := range names {
		if ok && name == current {
			out.Println(out.Render(ui.Accent, name))
			continue
		}
		out.Println(name)
	}
	return nil
}

func runInfo(mgr *rice.Manager, out *ui.Printer, name, format string) error {
	info, err := mgr.Info(name)
	if err != nil {
		return fail(out, err)
	}

	var data []byte
	switch strings.ToLower(format) {
	case FormatJSON:
		data, err = json.MarshalIndent(info, "", "  ")
	case FormatYAML:
		var sb strings.Builder
		enc := yaml.NewEncoder(&sb)
		enc.SetIndent(2)
		if err = enc.Encode(info); err == nil {
			err = enc.Close()
		}
		data = []byte(strings.TrimRight(sb.String(), "\n"))
	default:
		return fail(out, fmt.Errorf("unsupported format %q (want %s or %s)", format, FormatJSON, FormatYAML))
	}
	if err != nil {
		return fail(out, fmt.Errorf("failed to encode rice info: %w", err))
	}
	out.Println(string(data))
	return nil
}

func runPick(mgr *rice.Manager, prompter Prompter, out *ui.Printer) error {
	names, err := mgr.ListRices()
	if err != nil {
		return fail(out, err)
	}
	if len(names) == 0 {
		out.Println("No rices found")
		return errFailed
	}
	current, _ := mgr.Current()
	_, selected, err := prompter.Select("Select rice to switch to", names, current)
	if err != nil {
		return fail(out, err)
	}
	return runSwitch(mgr, out, selected)
}

func completeRiceNames(mgr *rice.Manager) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		names, err := mgr.ListRices()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		matches := make([]string, 0, len(names))
		for _, name := range names {
			if strings.HasPrefix(name, toComplete) {
				matches = append(matches, name)
			}
		}
		return matches, cobra.ShellCompDirectiveNoFileComp
	}
}
