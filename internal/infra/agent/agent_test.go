package agent

import (
	"context"
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/git-pilot/internal/domain"
	"github.com/runoshun/git-pilot/internal/testutil"
)

func newTestClient(exec *testutil.MockExecutor) *Client {
	return NewClient(exec, domain.AgentConfig{Command: "claude", Args: []string{"-p"}})
}

// =============================================================================
// Generate Tests
// =============================================================================

func TestClient_Generate(t *testing.T) {
	exec := &testutil.MockExecutor{Stdout: "```java\nclass App {\n  int x;\n}\n```\n"}
	client := newTestClient(exec)

	got, err := client.Generate(context.Background(), domain.GenerateRequest{
		Path:        "src/App.java",
		Content:     "class App {}\n",
		Instruction: "Add field x",
		Language:    "java",
	})

	require.NoError(t, err)
	assert.Equal(t, "class App {\n  int x;\n}\n", got)
	require.Len(t, exec.Commands, 1)
	cmd := exec.Commands[0]
	assert.Equal(t, "claude", cmd.Program)
	assert.Equal(t, []string{"-p"}, cmd.Args)
	assert.Contains(t, cmd.Stdin, DefaultSystemPrompt)
	assert.Contains(t, cmd.Stdin, "File: src/App.java")
	assert.Contains(t, cmd.Stdin, "Language: java")
	assert.Contains(t, cmd.Stdin, "Add field x")
	assert.Contains(t, cmd.Stdin, "class App {}")
}

func TestClient_Generate_NewFile(t *testing.T) {
	exec := &testutil.MockExecutor{Stdout: "# Notes"}
	client := newTestClient(exec)

	got, err := client.Generate(context.Background(), domain.GenerateRequest{Path: "NOTES.md", Instruction: "Create notes"})

	require.NoError(t, err)
	assert.Equal(t, "# Notes\n", got)
	assert.Contains(t, exec.Commands[0].Stdin, "does not exist yet")
}

func TestClient_Generate_KeepsMissingTrailingNewline(t *testing.T) {
	client := newTestClient(&testutil.MockExecutor{Stdout: "b\n"})

	got, err := client.Generate(context.Background(), domain.GenerateRequest{Path: "a.txt", Content: "a", Instruction: "b"})

	require.NoError(t, err)
	assert.Equal(t, "b", got)
}

func TestClient_Generate_EmptyOutput(t *testing.T) {
	client := newTestClient(&testutil.MockExecutor{Stdout: "```\n```\n"})

	_, err := client.Generate(context.Background(), domain.GenerateRequest{Path: "a.txt", Content: "a\n", Instruction: "x"})

	assert.ErrorIs(t, err, domain.ErrGeneration)
	assert.Contains(t, err.Error(), "a.txt")
}

func TestClient_Generate_CommandFails(t *testing.T) {
	cause := errors.New("exit status 2")
	client := newTestClient(&testutil.MockExecutor{Stderr: "rate limited", ExecuteErr: cause})

	_, err := client.Generate(context.Background(), domain.GenerateRequest{Path: "a.txt", Instruction: "x"})

	assert.ErrorIs(t, err, domain.ErrGeneration)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestClient_Generate_CustomSystemPrompt(t *testing.T) {
	exec := &testutil.MockExecutor{Stdout: "x"}
	client := NewClient(exec, domain.AgentConfig{Command: "agent", SystemPrompt: "Be brief."})

	_, err := client.Generate(context.Background(), domain.GenerateRequest{Path: "a", Instruction: "x"})

	require.NoError(t, err)
	assert.Contains(t, exec.Commands[0].Stdin, "Be brief.")
	assert.NotContains(t, exec.Commands[0].Stdin, DefaultSystemPrompt)
}

// =============================================================================
// GenerateSpec Tests
// =============================================================================

func TestClient_GenerateSpec(t *testing.T) {
	exec := &testutil.MockExecutor{Stdout: "Here you go:\n```json\n" + `{
  "title": "Add createdAt",
  "description": "Add a createdAt field",
  "affected_files": ["src/Entry.java"],
  "acceptance_criteria": ["field exists"],
  "priority": "high",
  "type": "CODE_CHANGE"
}` + "\n```"}
	client := newTestClient(exec)

	spec, err := client.GenerateSpec(context.Background(), domain.SpecRequest{
		Message: "entries need a creation date",
		Files:   []string{"README.md", "src/Entry.java"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Add createdAt", spec.Title)
	assert.Equal(t, []string{"src/Entry.java"}, spec.AffectedFiles)
	assert.Equal(t, []string{"field exists"}, spec.AcceptanceCriteria)
	assert.Equal(t, "high", spec.Priority)
	stdin := exec.Commands[0].Stdin
	assert.Contains(t, stdin, "entries need a creation date")
	assert.Contains(t, stdin, "README.md\nsrc/Entry.java\n")
}

func TestClient_GenerateSpec_Defaults(t *testing.T) {
	client := newTestClient(&testutil.MockExecutor{Stdout: `{"affected_files": []}`})

	spec, err := client.GenerateSpec(context.Background(), domain.SpecRequest{Message: "  fix the login bug  "})

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultTaskTitle, spec.Title)
	assert.Equal(t, "fix the login bug", spec.Description)
	assert.Empty(t, spec.AffectedFiles)
}

func TestClient_GenerateSpec_NotJSON(t *testing.T) {
	client := newTestClient(&testutil.MockExecutor{Stdout: "I cannot help with that."})

	_, err := client.GenerateSpec(context.Background(), domain.SpecRequest{Message: "x"})

	assert.ErrorIs(t, err, domain.ErrGeneration)
}

func TestParseSpec_InvalidJSON(t *testing.T) {
	_, err := ParseSpec(`{"title": }`)
	assert.Error(t, err)
}

func TestClient_Generate_KeepsLeadingIndentation(t *testing.T) {
	client := newTestClient(&testutil.MockExecutor{Stdout: "    indented: true\n  nested: 1\n"})

	got, err := client.Generate(context.Background(), domain.GenerateRequest{Path: "a.yaml", Content: "x\n", Instruction: "y"})

	require.NoError(t, err)
	assert.Equal(t, "    indented: true\n  nested: 1\n", got)
}

func TestClient_Generate_BlankOutput(t *testing.T) {
	client := newTestClient(&testutil.MockExecutor{Stdout: "   \n\t\n"})

	_, err := client.Generate(context.Background(), domain.GenerateRequest{Path: "a.txt", Content: "a\n", Instruction: "x"})

	assert.ErrorIs(t, err, domain.ErrGeneration)
}

func TestAbbreviate(t *testing.T) {
	assert.Equal(t, "short", abbreviate("  short  ", 10))
	assert.Equal(t, "abc...", abbreviate("abcdef", 3))

	got := abbreviate("ééé", 3)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "é...", got)
}
