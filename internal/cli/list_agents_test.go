package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/git-pilot/internal/domain"
)

func TestAgentsCommand(t *testing.T) {
	tests := []struct {
		name        string
		agent       domain.AgentConfig
		wantActive  string
		wantCommand string
	}{
		{
			name:       "preset marked active",
			agent:      domain.AgentConfig{Preset: "codex", Command: "codex"},
			wantActive: "codex",
		},
		{
			name:        "custom command shown",
			agent:       domain.AgentConfig{Command: "my-agent", Args: []string{"--stdin", "--quiet"}},
			wantCommand: "Configured command: my-agent --stdin --quiet",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestContainer(t)
			f.c.AppConfig.Agent = tt.agent

			cmd := newAgentsCommand(f.c)
			var buf bytes.Buffer
			cmd.SetOut(&buf)
			cmd.SetArgs([]string{})

			require.NoError(t, cmd.Execute())
			out := buf.String()

			lines := strings.Split(out, "\n")
			assert.Equal(t, []string{"NAME", "DESCRIPTION", "STATUS"}, strings.Fields(lines[0]))
			for _, name := range []string{"claude", "codex", "opencode"} {
				assert.Contains(t, out, name)
			}

			for _, line := range lines[1:] {
				fields := strings.Fields(line)
				if len(fields) == 0 {
					continue
				}
				if fields[0] == tt.wantActive {
					assert.Equal(t, "active", fields[len(fields)-1])
				} else {
					assert.NotEqual(t, "active", fields[len(fields)-1])
				}
			}

			if tt.wantCommand != "" {
				assert.Contains(t, out, tt.wantCommand)
			} else {
				assert.NotContains(t, out, "Configured command:")
			}
		})
	}
}

func TestAgentsCommand_NilContainer(t *testing.T) {
	cmd := newAgentsCommand(nil)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "claude")
	assert.NotContains(t, buf.String(), "active")
	assert.NotContains(t, buf.String(), "Configured command:")
}
