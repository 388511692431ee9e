package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/git-pilot/internal/app"
	"github.com/runoshun/git-pilot/internal/domain"
)

// newConfigTestContainer creates an app.Container with the real config
// infrastructure, isolated from the user's home and environment.
func newConfigTestContainer(t *testing.T) *app.Container {
	t.Helper()

	root := isolateConfigEnv(t)
	c, err := app.New(root)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// isolateConfigEnv points HOME and XDG_CONFIG_HOME at temp dirs, clears the
// repository environment overrides and returns a fresh project root.
func isolateConfigEnv(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, name := range []string{
		"PILOT_DATA_DIR", "PILOT_REPO_URL", "PILOT_REPO_BRANCH", "PILOT_REPO_PATH",
		"TARGET_REPO_URL", "TARGET_REPO_DEFAULT_BRANCH", "TARGET_REPO_LOCAL_PATH",
	} {
		t.Setenv(name, "")
	}
	return t.TempDir()
}

// =============================================================================
// Config Command Tests
// =============================================================================

func TestConfigCommand_NoSubcommand_ShowsHelp(t *testing.T) {
	c := newConfigTestContainer(t)

	cmd := newConfigCommand(c)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "show")
	assert.Contains(t, buf.String(), "init")
}

func TestConfigShow_Defaults(t *testing.T) {
	c := newConfigTestContainer(t)

	cmd := newConfigCommand(c)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"show"})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "[Loaded from]")
	assert.Contains(t, out, filepath.Join(c.Config.DataDir, domain.ConfigFileName)+" (not found)")
	assert.Contains(t, out, "[Effective Config]")
	assert.Contains(t, out, "[server]")
	assert.Contains(t, out, domain.DefaultServerAddr)
	assert.Contains(t, out, "[test]")
	assert.Contains(t, out, "timeout = ")
}

func TestConfigShow_RepoFileAndEnv(t *testing.T) {
	root := isolateConfigEnv(t)
	t.Setenv("PILOT_REPO_URL", "https://example.com/acme/from-env.git")

	dataDir := filepath.Join(root, domain.DataDirName)
	require.NoError(t, os.MkdirAll(dataDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, domain.ConfigFileName), []byte(`
[repo]
url = "https://example.com/acme/journal.git"
branch = "develop"

[resolve]
policy = "strict"
`), 0o644))

	c, err := app.New(root)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	cmd := newConfigCommand(c)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"show"})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "- "+filepath.Join(dataDir, domain.ConfigFileName)+"\n")
	assert.Contains(t, out, "from-env.git")
	assert.NotContains(t, out, "journal.git")
	assert.Contains(t, out, "develop")
	assert.Contains(t, out, "strict")
}

func TestConfigInit_RepoThenExisting(t *testing.T) {
	c := newConfigTestContainer(t)

	cmd := newConfigCommand(c)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"init"})

	require.NoError(t, cmd.Execute())
	path := filepath.Join(c.Config.DataDir, domain.ConfigFileName)
	assert.Equal(t, "Created config file: "+path+"\n", buf.String())
	assert.FileExists(t, path)

	cmd = newConfigCommand(c)
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"init"})
	assert.ErrorIs(t, cmd.Execute(), domain.ErrConfigExists)
}

func TestConfigInit_Global(t *testing.T) {
	c := newConfigTestContainer(t)

	cmd := newConfigCommand(c)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"init", "--global"})

	require.NoError(t, cmd.Execute())
	path := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "git-pilot", domain.ConfigFileName)
	assert.FileExists(t, path)
	assert.Contains(t, buf.String(), path)
}

// =============================================================================
// Init Command Tests
// =============================================================================

func TestInitCommand(t *testing.T) {
	c := newConfigTestContainer(t)

	cmd := newInitCommand(c)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Initialized git-pilot in "+c.Config.DataDir)
	assert.DirExists(t, c.AppConfig.Tasks.Dir)
	assert.FileExists(t, filepath.Join(c.Config.DataDir, domain.ConfigFileName))

	buf.Reset()
	cmd = newInitCommand(c)
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "git-pilot already initialized in "+c.Config.DataDir)
}
