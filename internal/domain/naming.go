package domain

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// BranchPrefix is the fixed prefix of every feature branch.
const BranchPrefix = "cpai-"

// branchIDLength is the number of task id characters kept in a branch name.
const branchIDLength = 8

// BranchName returns the feature branch name for a task.
// Format: cpai-<first 8 id characters, dashes removed>
func BranchName(taskID string) string {
	id := strings.ToLower(strings.ReplaceAll(taskID, "-", ""))
	if len(id) > branchIDLength {
		id = id[:branchIDLength]
	}
	return BranchPrefix + id
}

var taskIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidTaskID reports whether id is safe to use as a task file name.
func ValidTaskID(id string) bool {
	return taskIDPattern.MatchString(id)
}

// ConfigFileName is the name of the configuration file.
const ConfigFileName = "config.toml"

// DataDirName is the name of the per-project data directory.
const DataDirName = ".pilot"

// RepoDataDir returns the data directory under the given project root.
func RepoDataDir(root string) string {
	return filepath.Join(root, DataDirName)
}

// GlobalConfigDir returns the global config directory under configHome.
func GlobalConfigDir(configHome string) string {
	return filepath.Join(configHome, "git-pilot")
}

// TasksDir returns the default task record directory.
func TasksDir(dataDir string) string {
	return filepath.Join(dataDir, "tasks")
}

// TaskFilePath returns the path of the record file for a task.
func TaskFilePath(tasksDir, taskID string) string {
	return filepath.Join(tasksDir, taskID+".json")
}

// LogsDir returns the log directory.
func LogsDir(dataDir string) string {
	return filepath.Join(dataDir, "logs")
}

// GlobalLogPath returns the path to the global log file.
func GlobalLogPath(dataDir string) string {
	return filepath.Join(LogsDir(dataDir), "pilot.log")
}

// TaskLogPath returns the path to the task log file.
func TaskLogPath(dataDir, taskID string) string {
	return filepath.Join(LogsDir(dataDir), "task-"+taskID+".log")
}

// WorkspacesFilePath returns the path of the workspace registry file.
func WorkspacesFilePath(dataDir string) string {
	return filepath.Join(dataDir, "workspaces.toml")
}

// DefaultWorkspacePath returns where the clone of repoURL lives when no
// explicit path is configured: <dataDir>/workspace/<repo name>.
func DefaultWorkspacePath(dataDir, repoURL string) string {
	return filepath.Join(dataDir, "workspace", RepoName(repoURL))
}

// RepoName derives a short directory name from a repository URL.
// "https://github.com/acme/journalApp.git" → "journalApp"
// "git@github.com:acme/journalApp.git" → "journalApp"
func RepoName(repoURL string) string {
	s := strings.TrimSpace(repoURL)
	if u, err := url.Parse(s); err == nil && u.Path != "" {
		s = u.Path
	}
	if idx := strings.LastIndex(s, ":"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimRight(s, "/")
	s = strings.TrimSuffix(s, ".git")
	if idx := strings.LastIndexAny(s, `/\`); idx >= 0 {
		s = s[idx+1:]
	}
	if s == "" || s == "." || s == ".." {
		return "repo"
	}
	return s
}
