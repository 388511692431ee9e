package domain

import "fmt"

// ResolvePolicy decides what happens when a declared file cannot be found
// anywhere in the workspace.
type ResolvePolicy string

const (
	// PolicyStrict rejects a declared path that does not exist.
	PolicyStrict ResolvePolicy = "strict"
	// PolicyCreate treats a declared path that does not exist as a new file.
	PolicyCreate ResolvePolicy = "create"
)

// ParseResolvePolicy parses a policy name. An empty string yields def.
func ParseResolvePolicy(s string, def ResolvePolicy) (ResolvePolicy, error) {
	switch ResolvePolicy(s) {
	case "":
		return def, nil
	case PolicyStrict, PolicyCreate:
		return ResolvePolicy(s), nil
	default:
		return "", fmt.Errorf("%w %q (want %q or %q)", ErrInvalidPolicy, s, PolicyStrict, PolicyCreate)
	}
}

// Resolution is the outcome of resolving one declared path.
type Resolution struct {
	Declared string // Path as written in the task
	RelPath  string // Path relative to the workspace root (slash separated)
	Path     string // Absolute path in the workspace
	Existed  bool   // False when the file is to be created
}
