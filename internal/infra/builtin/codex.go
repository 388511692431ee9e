package builtin

// codexAgent runs Codex non-interactively; "-" makes it read the prompt from stdin.
var codexAgent = agentPreset{
	Command:     "codex",
	Args:        []string{"exec", "-"},
	Description: "Codex CLI in exec mode",
}
