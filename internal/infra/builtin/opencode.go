package builtin

// opencodeAgent runs a single opencode turn.
var opencodeAgent = agentPreset{
	Command:     "opencode",
	Args:        []string{"run"},
	Description: "General purpose coding agent via opencode CLI",
}
