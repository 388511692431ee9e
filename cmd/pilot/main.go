// Package main is the entry point for the pilot CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/runoshun/git-pilot/internal/app"
	"github.com/runoshun/git-pilot/internal/cli"
	"github.com/runoshun/git-pilot/internal/domain"
)

// version is set at build time using -ldflags.
var version = "dev"

// newRootCommand is a variable so tests can observe the fallback path.
var newRootCommand = cli.NewRootCommand

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	container, err := app.New(cwd)
	if err != nil {
		// A broken config must not hide help, version or the preset list
		if errors.Is(err, domain.ErrConfiguration) {
			return runWithoutContainer(err)
		}
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() { _ = container.Close() }()

	return newRootCommand(container, version).Execute()
}

// runWithoutContainer handles a configuration that cannot be loaded.
// Only commands that need no configuration are run; the rest report cfgErr.
func runWithoutContainer(cfgErr error) error {
	if !canRunWithoutConfig(os.Args[1:]) {
		return cfgErr
	}
	return newRootCommand(nil, version).Execute()
}

func canRunWithoutConfig(args []string) bool {
	if len(args) == 0 {
		return false
	}
	switch args[0] {
	case "help", "agents":
		return true
	}
	for _, arg := range args {
		if arg == "--version" || arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}
