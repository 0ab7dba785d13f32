package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/riceify/riceify/internal/cli"
	"github.com/riceify/riceify/internal/config"
	"github.com/riceify/riceify/internal/rice"
	"github.com/riceify/riceify/internal/rice/copier"
	"github.com/riceify/riceify/internal/rice/paths"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	mgr, err := newManager(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return cli.ExitFailure
	}

	root := cli.NewRootCommand(mgr, cli.NewPromptUI(), stdout, stderr)
	root.Version = version
	root.SetArgs(args)
	return cli.Execute(root, stderr)
}

func newManager(stderr io.Writer) (*rice.Manager, error) {
	home, err := config.ResolveHome()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	if err := config.LoadEnvFile(paths.New(home).EnvPath()); err != nil {
		return nil, err
	}
	cfg, err := config.Load(home)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	fs := afero.NewOsFs()
	engine, err := copier.New(cfg.CopyEngine, fs, logger)
	if err != nil {
		return nil, err
	}

	return rice.NewManager(fs, home, logger,
		rice.WithEngine(engine),
		rice.WithStrictAdd(cfg.StrictAdd),
		rice.WithLock(cfg.Lock),
		rice.WithStatusIcon(cfg.StatusIcon),
		rice.WithCurrentMarker(cfg.CurrentMarker),
	), nil
}
