package domain

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// TaskRepository manages task persistence.
type TaskRepository interface {
	// Get retrieves a task by ID. Returns nil if not found.
	Get(id string) (*Task, error)

	// List retrieves all readable tasks, newest first.
	List() ([]*Task, error)

	// Create stores a new task. Returns ErrTaskExists if the ID is taken.
	Create(task *Task) error

	// Save creates or replaces a task.
	Save(task *Task) error

	// Update runs fn on the stored task under an exclusive per-task lock
	// and saves the result if fn returns nil.
	Update(id string, fn func(*Task) error) (*Task, error)
}

// Git provides the git operations the workspace components need.
// Mutating commands run the git binary; inspection may read the repository directly.
type Git interface {
	// IsRepository reports whether dir is the root of a git working tree.
	IsRepository(dir string) bool

	// Clone clones url into dir.
	Clone(ctx context.Context, url, dir string) error

	// Fetch fetches from the remote.
	Fetch(ctx context.Context, dir, remote string) error

	// Checkout switches to an existing branch.
	Checkout(ctx context.Context, dir, branch string) error

	// CreateBranch creates branch from HEAD and switches to it.
	CreateBranch(ctx context.Context, dir, branch string) error

	// Pull fast-forwards branch from the remote.
	Pull(ctx context.Context, dir, remote, branch string) error

	// ResetHard discards tracked modifications.
	ResetHard(ctx context.Context, dir string) error

	// Clean removes untracked files and directories.
	Clean(ctx context.Context, dir string) error

	// AddAll stages every working-tree change.
	AddAll(ctx context.Context, dir string) error

	// Commit records staged changes.
	Commit(ctx context.Context, dir, message string) error

	// Push pushes branch to the remote and sets upstream tracking.
	Push(ctx context.Context, dir, remote, branch string) error

	// BranchExists checks if a local branch exists.
	BranchExists(dir, branch string) (bool, error)

	// CurrentBranch returns the checked-out branch name.
	CurrentBranch(dir string) (string, error)

	// HeadCommit returns the hash HEAD points to.
	HeadCommit(dir string) (string, error)

	// TrackedFiles lists the paths in the index, slash separated.
	TrackedFiles(dir string) ([]string, error)
}

// WorkspaceManager hands out exclusive access to workspaces and remembers them.
type WorkspaceManager interface {
	// Acquire blocks until the workspace at path is exclusively held.
	// The returned release function must be called on every exit path.
	Acquire(ctx context.Context, path string) (release func(), err error)

	// Touch records a successful synchronization.
	Touch(repo RepoConfig, at time.Time) error

	// List returns the known workspaces.
	List() ([]WorkspaceEntry, error)
}

// GenerateRequest is the input of the content generator.
type GenerateRequest struct {
	Content     string // Current file content ("" for a new file)
	Path        string // Repository-relative path
	Instruction string // Change request
	Language    string // Language hint ("" if unknown)
}

// ContentGenerator produces the full new content of one file.
type ContentGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// SpecRequest is the input of the spec generator.
type SpecRequest struct {
	Message string   // Free-text change request
	Files   []string // Tracked files the generator may choose from
}

// SpecResult is the task proposal returned by the spec generator.
// Fields are ordered to minimize memory padding.
type SpecResult struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Type               string   `json:"type,omitempty"`
	Priority           string   `json:"priority,omitempty"`
	AffectedFiles      []string `json:"affected_files"`
	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty"`
}

// SpecGenerator turns a free-text request into task fields.
type SpecGenerator interface {
	GenerateSpec(ctx context.Context, req SpecRequest) (*SpecResult, error)
}

// TestResult is the outcome of one test command run.
type TestResult struct {
	Command  string // Command line that was run
	Stdout   string // Tail of stdout
	Stderr   string // Tail of stderr
	ExitCode int
}

// Passed reports whether the test command exited 0.
func (r *TestResult) Passed() bool {
	return r.ExitCode == 0
}

// TestRunner runs the repository's test command in a checked-out workspace.
type TestRunner interface {
	Run(ctx context.Context, dir string) (*TestResult, error)
}

// CommandExecutor executes external commands.
type CommandExecutor interface {
	// Execute runs the command and returns its combined output.
	Execute(cmd *ExecCommand) ([]byte, error)

	// ExecuteWithContext runs the command with separate output writers.
	ExecuteWithContext(ctx context.Context, cmd *ExecCommand, stdout, stderr io.Writer) error
}

// Logger writes operational logs, optionally scoped to a task.
type Logger interface {
	Info(taskID, category, msg string)
	Debug(taskID, category, msg string)
	Warn(taskID, category, msg string)
	Error(taskID, category, msg string)
}

// ConfigLoader loads configuration from files.
type ConfigLoader interface {
	// Load returns the merged configuration (repo + global + environment).
	Load() (*Config, error)
}

// ConfigManager inspects and creates configuration files.
type ConfigManager interface {
	GetRepoConfigInfo() ConfigInfo
	GetGlobalConfigInfo() ConfigInfo
	InitRepoConfig() error
	InitGlobalConfig() error
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// IDGenerator creates task identifiers.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator creates random (v4) UUIDs.
type UUIDGenerator struct{}

// NewID returns a new random UUID string.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}
