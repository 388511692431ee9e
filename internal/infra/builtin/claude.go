package builtin

// claudeAgent runs the Claude CLI in print mode; the prompt is read from stdin.
var claudeAgent = agentPreset{
	Command:     "claude",
	Args:        []string{"-p", "--output-format", "text"},
	Description: "Claude model via Anthropic CLI",
}
