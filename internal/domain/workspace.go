package domain

import "time"

// RepoConfig identifies the target repository and its local workspace.
type RepoConfig struct {
	URL    string `toml:"url,omitempty"`    // Clone URL
	Branch string `toml:"branch,omitempty"` // Baseline branch (default: main)
	Path   string `toml:"path,omitempty"`   // Local clone path
}

// Validate returns ErrConfiguration if the repository is not fully specified.
func (r RepoConfig) Validate() error {
	switch {
	case r.URL == "":
		return configError("repository URL is not set")
	case r.Path == "":
		return configError("workspace path is not set")
	case r.Branch == "":
		return configError("baseline branch is not set")
	}
	return nil
}

// WorkspaceEntry is one known workspace in the registry file.
// Fields are ordered to minimize memory padding.
//
//nolint:govet // Field order follows TOML convention for readability
type WorkspaceEntry struct {
	URL        string    `toml:"url"`              // Repository URL
	Path       string    `toml:"path"`             // Absolute path of the clone (registry key)
	Branch     string    `toml:"branch,omitempty"` // Baseline branch at last sync
	LastSynced time.Time `toml:"last_synced"`      // Last successful synchronization
}

// WorkspaceFile represents the workspaces.toml file structure.
type WorkspaceFile struct {
	Workspaces []WorkspaceEntry `toml:"workspaces"` // Known workspaces
	Version    int              `toml:"version"`    // File format version (currently 1)
}
