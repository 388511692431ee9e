package cli

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/git-pilot/internal/app"
)

func TestNewRootCommand_NoArgs_LaunchesTUI(t *testing.T) {
	originalFunc := launchTUIFunc
	defer func() {
		launchTUIFunc = originalFunc
	}()

	called := false
	launchTUIFunc = func(c *app.Container) error {
		called = true
		return nil
	}

	// The container is not used by the mocked launcher
	root := NewRootCommand(nil, "test-version")
	root.SetArgs([]string{})

	assert.NoError(t, root.Execute())
	assert.True(t, called, "launchTUIFunc should be called when no arguments are provided")
}

func TestNewRootCommand_WithHelp_ShowsHelp(t *testing.T) {
	originalFunc := launchTUIFunc
	defer func() {
		launchTUIFunc = originalFunc
	}()

	called := false
	launchTUIFunc = func(c *app.Container) error {
		called = true
		return nil
	}

	root := NewRootCommand(nil, "test-version")
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"--help"})

	assert.NoError(t, root.Execute())
	assert.False(t, called, "launchTUIFunc should NOT be called when --help is provided")
	assert.Contains(t, buf.String(), "Task Management:")
	assert.Contains(t, buf.String(), "Workspace Commands:")
}

func TestNewRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand(nil, "test-version")

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}

	for _, want := range []string{
		"init", "config", "agents",
		"new", "list", "show", "close", "logs", "board",
		"apply", "test", "sync", "workspaces", "serve",
	} {
		assert.Contains(t, names, want)
	}
}

func TestNewRootCommand_Version(t *testing.T) {
	root := NewRootCommand(nil, "1.2.3")
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"--version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "1.2.3")
}

func TestNewRootCommand_PrintsConfigWarnings(t *testing.T) {
	f := newTestContainer(t)
	f.c.AppConfig.Warnings = []string{`[test] timeout: invalid value "soon"`}

	root := NewRootCommand(f.c, "test-version")
	var stderr bytes.Buffer
	root.SetOut(io.Discard)
	root.SetErr(&stderr)
	root.SetArgs([]string{"list"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "Warning: [test] timeout: invalid value \"soon\"\n", stderr.String())
}
