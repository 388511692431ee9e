// Package builtin provides built-in agent configurations for known CLI tools.
// This package is responsible for CLI-specific details that domain should not know about.
package builtin

import (
	"fmt"
	"slices"
	"strings"

	"github.com/runoshun/git-pilot/internal/domain"
)

// agentPreset defines how a known agent CLI is run non-interactively with
// the prompt on stdin.
type agentPreset struct {
	Command     string
	Description string
	Args        []string
}

// builtinAgents contains preset configurations for known agents.
var builtinAgents = map[string]agentPreset{
	"claude":   claudeAgent,
	"codex":    codexAgent,
	"opencode": opencodeAgent,
}

// Names returns the preset names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtinAgents))
	for name := range builtinAgents {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Describe returns the description of a preset, or "" if unknown.
func Describe(name string) string {
	return builtinAgents[name].Description
}

// Resolve returns the agent configuration with the preset applied.
// Without a preset cfg is returned unchanged.
func Resolve(cfg domain.AgentConfig) (domain.AgentConfig, error) {
	if cfg.Preset == "" {
		if cfg.Command == "" {
			return cfg, fmt.Errorf("%w: agent command is not set", domain.ErrConfiguration)
		}
		return cfg, nil
	}
	preset, ok := builtinAgents[cfg.Preset]
	if !ok {
		return cfg, fmt.Errorf("%w: unknown agent preset %q (available: %s)",
			domain.ErrConfiguration, cfg.Preset, strings.Join(Names(), ", "))
	}
	cfg.Command = preset.Command
	cfg.Args = slices.Clone(preset.Args)
	return cfg, nil
}
