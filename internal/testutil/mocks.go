// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/runoshun/git-pilot/internal/domain"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// MockIDGenerator returns IDs from a fixed list, then numbered fallbacks.
type MockIDGenerator struct {
	IDs []string
	n   int
}

// NewID returns the next configured ID.
func (m *MockIDGenerator) NewID() string {
	m.n++
	if m.n <= len(m.IDs) {
		return m.IDs[m.n-1]
	}
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", m.n)
}

// MockTaskRepository is a test double for domain.TaskRepository.
// Fields are ordered to minimize memory padding.
type MockTaskRepository struct {
	Tasks     map[string]*domain.Task
	SaveErr   error
	GetErr    error
	ListErr   error
	UpdateErr error
	Saves     int
	mu        sync.Mutex
}

// NewMockTaskRepository creates a new MockTaskRepository with initialized maps.
func NewMockTaskRepository() *MockTaskRepository {
	return &MockTaskRepository{
		Tasks: make(map[string]*domain.Task),
	}
}

// Ensure MockTaskRepository implements domain.TaskRepository interface.
var _ domain.TaskRepository = (*MockTaskRepository)(nil)

// Get retrieves a task by ID.
func (m *MockTaskRepository) Get(id string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	task, ok := m.Tasks[id]
	if !ok {
		return nil, nil
	}
	return task, nil
}

// List returns all tasks, newest first.
func (m *MockTaskRepository) List() ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	tasks := make([]*domain.Task, 0, len(m.Tasks))
	for _, t := range m.Tasks {
		tasks = append(tasks, t)
	}
	slices.SortFunc(tasks, func(a, b *domain.Task) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return tasks, nil
}

// Create stores a new task.
func (m *MockTaskRepository) Create(task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if _, ok := m.Tasks[task.ID]; ok {
		return domain.ErrTaskExists
	}
	m.Tasks[task.ID] = task
	m.Saves++
	return nil
}

// Save saves a task.
func (m *MockTaskRepository) Save(task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Tasks[task.ID] = task
	m.Saves++
	return nil
}

// Update applies fn to the stored task.
func (m *MockTaskRepository) Update(id string, fn func(*domain.Task) error) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	task, ok := m.Tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if err := fn(task); err != nil {
		return nil, err
	}
	m.Saves++
	return task, nil
}

// MockGit is a test double for domain.Git.
// Errors are consumed per method name in call order, so a test can make the
// first checkout fail and the retry succeed.
// Fields are ordered to minimize memory padding.
type MockGit struct {
	Errs        map[string][]error
	Branches    map[string]bool
	Repos       map[string]bool
	Head        string
	Current     string
	Tracked     []string
	Calls       []string
	TrackedErr  error
	HeadErr     error
	OnCheckout  func(dir, branch string)
	OnCommit    func(dir string) error
	mu          sync.Mutex
	CloneCalled bool
}

// NewMockGit creates a MockGit whose directories are all repositories.
func NewMockGit() *MockGit {
	return &MockGit{
		Errs:     make(map[string][]error),
		Branches: map[string]bool{"main": true},
		Repos:    make(map[string]bool),
		Head:     "0123456789abcdef0123456789abcdef01234567",
		Current:  "main",
	}
}

// Ensure MockGit implements domain.Git interface.
var _ domain.Git = (*MockGit)(nil)

// FailNext queues err for the next call of method.
func (m *MockGit) FailNext(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errs[method] = append(m.Errs[method], err)
}

// Called reports whether a call with the given description was recorded.
func (m *MockGit) Called(call string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Contains(m.Calls, call)
}

func (m *MockGit) record(method, call string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
	errs := m.Errs[method]
	if len(errs) == 0 {
		return nil
	}
	m.Errs[method] = errs[1:]
	return errs[0]
}

// IsRepository returns whether Clone ran for dir or dir was registered.
func (m *MockGit) IsRepository(dir string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Repos[dir]
}

// Clone records the call and marks dir as a repository.
func (m *MockGit) Clone(_ context.Context, url, dir string) error {
	if err := m.record("Clone", "clone "+url); err != nil {
		return err
	}
	m.mu.Lock()
	m.CloneCalled = true
	m.Repos[dir] = true
	m.mu.Unlock()
	return nil
}

// Fetch records the call.
func (m *MockGit) Fetch(_ context.Context, _, remote string) error {
	return m.record("Fetch", "fetch "+remote)
}

// Checkout records the call and switches the current branch.
func (m *MockGit) Checkout(_ context.Context, dir, branch string) error {
	if err := m.record("Checkout", "checkout "+branch); err != nil {
		return err
	}
	m.mu.Lock()
	m.Current = branch
	m.mu.Unlock()
	if m.OnCheckout != nil {
		m.OnCheckout(dir, branch)
	}
	return nil
}

// CreateBranch records the call and adds the branch.
func (m *MockGit) CreateBranch(_ context.Context, _, branch string) error {
	if err := m.record("CreateBranch", "checkout -b "+branch); err != nil {
		return err
	}
	m.mu.Lock()
	m.Branches[branch] = true
	m.Current = branch
	m.mu.Unlock()
	return nil
}

// Pull records the call.
func (m *MockGit) Pull(_ context.Context, _, remote, branch string) error {
	return m.record("Pull", "pull "+remote+" "+branch)
}

// ResetHard records the call.
func (m *MockGit) ResetHard(_ context.Context, _ string) error {
	return m.record("ResetHard", "reset --hard")
}

// Clean records the call.
func (m *MockGit) Clean(_ context.Context, _ string) error {
	return m.record("Clean", "clean -fd")
}

// AddAll records the call.
func (m *MockGit) AddAll(_ context.Context, _ string) error {
	return m.record("AddAll", "add -A")
}

// Commit records the call. OnCommit, when set, decides the result.
func (m *MockGit) Commit(_ context.Context, dir, message string) error {
	if err := m.record("Commit", "commit "+message); err != nil {
		return err
	}
	if m.OnCommit != nil {
		return m.OnCommit(dir)
	}
	return nil
}

// Push records the call.
func (m *MockGit) Push(_ context.Context, _, remote, branch string) error {
	return m.record("Push", "push "+remote+" "+branch)
}

// BranchExists returns whether the branch is known.
func (m *MockGit) BranchExists(_, branch string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Branches[branch], nil
}

// CurrentBranch returns the last checked-out branch.
func (m *MockGit) CurrentBranch(_ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Current, nil
}

// HeadCommit returns the configured hash or error.
func (m *MockGit) HeadCommit(_ string) (string, error) {
	if m.HeadErr != nil {
		return "", m.HeadErr
	}
	return m.Head, nil
}

// TrackedFiles returns the configured files or error.
func (m *MockGit) TrackedFiles(_ string) ([]string, error) {
	if m.TrackedErr != nil {
		return nil, m.TrackedErr
	}
	return m.Tracked, nil
}

// MockWorkspaceManager is a test double for domain.WorkspaceManager.
// Fields are ordered to minimize memory padding.
type MockWorkspaceManager struct {
	AcquireErr error
	TouchErr   error
	Touched    []domain.RepoConfig
	Entries    []domain.WorkspaceEntry
	Acquired   int
	Released   int
	mu         sync.Mutex
}

// Ensure MockWorkspaceManager implements domain.WorkspaceManager interface.
var _ domain.WorkspaceManager = (*MockWorkspaceManager)(nil)

// Acquire counts the lease.
func (m *MockWorkspaceManager) Acquire(_ context.Context, _ string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AcquireErr != nil {
		return nil, m.AcquireErr
	}
	m.Acquired++
	return func() {
		m.mu.Lock()
		m.Released++
		m.mu.Unlock()
	}, nil
}

// Touch records the repository.
func (m *MockWorkspaceManager) Touch(repo domain.RepoConfig, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TouchErr != nil {
		return m.TouchErr
	}
	m.Touched = append(m.Touched, repo)
	return nil
}

// List returns the configured entries.
func (m *MockWorkspaceManager) List() ([]domain.WorkspaceEntry, error) {
	return m.Entries, nil
}

// MockContentGenerator is a test double for domain.ContentGenerator.
// Outputs are keyed by repository-relative path; a path in Errs fails.
// Fields are ordered to minimize memory padding.
type MockContentGenerator struct {
	Outputs  map[string]string
	Errs     map[string]error
	Requests []domain.GenerateRequest
	mu       sync.Mutex
}

// Ensure MockContentGenerator implements domain.ContentGenerator interface.
var _ domain.ContentGenerator = (*MockContentGenerator)(nil)

// Generate returns the configured output for req.Path. Without one it
// appends a marker line to the current content.
func (m *MockContentGenerator) Generate(_ context.Context, req domain.GenerateRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	if err, ok := m.Errs[req.Path]; ok {
		return "", err
	}
	if out, ok := m.Outputs[req.Path]; ok {
		return out, nil
	}
	return req.Content + "// " + req.Instruction + "\n", nil
}

// MockSpecGenerator is a test double for domain.SpecGenerator.
type MockSpecGenerator struct {
	Result   *domain.SpecResult
	Err      error
	Requests []domain.SpecRequest
}

// Ensure MockSpecGenerator implements domain.SpecGenerator interface.
var _ domain.SpecGenerator = (*MockSpecGenerator)(nil)

// GenerateSpec returns the configured result or error.
func (m *MockSpecGenerator) GenerateSpec(_ context.Context, req domain.SpecRequest) (*domain.SpecResult, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	res := *m.Result
	return &res, nil
}

// MockTestRunner is a test double for domain.TestRunner.
type MockTestRunner struct {
	Result *domain.TestResult
	Err    error
	Dirs   []string
}

// Ensure MockTestRunner implements domain.TestRunner interface.
var _ domain.TestRunner = (*MockTestRunner)(nil)

// Run returns the configured result or error.
func (m *MockTestRunner) Run(_ context.Context, dir string) (*domain.TestResult, error) {
	m.Dirs = append(m.Dirs, dir)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

// LogEntry is one message captured by MockLogger.
type LogEntry struct {
	Level    string
	TaskID   string
	Category string
	Msg      string
}

// MockLogger is a test double for domain.Logger.
type MockLogger struct {
	Entries []LogEntry
	mu      sync.Mutex
}

// Ensure MockLogger implements domain.Logger interface.
var _ domain.Logger = (*MockLogger)(nil)

func (m *MockLogger) add(level, taskID, category, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, LogEntry{Level: level, TaskID: taskID, Category: category, Msg: msg})
}

// Info records an info message.
func (m *MockLogger) Info(taskID, category, msg string) { m.add("INFO", taskID, category, msg) }

// Debug records a debug message.
func (m *MockLogger) Debug(taskID, category, msg string) { m.add("DEBUG", taskID, category, msg) }

// Warn records a warning.
func (m *MockLogger) Warn(taskID, category, msg string) { m.add("WARN", taskID, category, msg) }

// Error records an error message.
func (m *MockLogger) Error(taskID, category, msg string) { m.add("ERROR", taskID, category, msg) }

// Contains reports whether any message at level contains fragment.
func (m *MockLogger) Contains(level, fragment string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Entries {
		if e.Level == level && strings.Contains(e.Msg, fragment) {
			return true
		}
	}
	return false
}

// MockConfigLoader is a test double for domain.ConfigLoader.
type MockConfigLoader struct {
	Config  *domain.Config
	LoadErr error
}

// NewMockConfigLoader creates a new MockConfigLoader with default config.
func NewMockConfigLoader() *MockConfigLoader {
	return &MockConfigLoader{
		Config: domain.NewDefaultConfig(),
	}
}

// Ensure MockConfigLoader implements domain.ConfigLoader interface.
var _ domain.ConfigLoader = (*MockConfigLoader)(nil)

// Load returns the configured config or error.
func (m *MockConfigLoader) Load() (*domain.Config, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.Config, nil
}

// MockConfigManager is a test double for domain.ConfigManager.
// Fields are ordered to minimize memory padding.
type MockConfigManager struct {
	InitRepoErr      error
	InitGlobalErr    error
	RepoConfigInfo   domain.ConfigInfo
	GlobalConfigInfo domain.ConfigInfo
	InitRepoCalled   bool
	InitGlobalCalled bool
}

// NewMockConfigManager creates a new MockConfigManager.
func NewMockConfigManager() *MockConfigManager {
	return &MockConfigManager{}
}

// Ensure MockConfigManager implements domain.ConfigManager interface.
var _ domain.ConfigManager = (*MockConfigManager)(nil)

// GetRepoConfigInfo returns the configured repository config info.
func (m *MockConfigManager) GetRepoConfigInfo() domain.ConfigInfo {
	return m.RepoConfigInfo
}

// GetGlobalConfigInfo returns the configured global config info.
func (m *MockConfigManager) GetGlobalConfigInfo() domain.ConfigInfo {
	return m.GlobalConfigInfo
}

// InitRepoConfig records the call. An existing file yields ErrConfigExists.
func (m *MockConfigManager) InitRepoConfig() error {
	m.InitRepoCalled = true
	if m.InitRepoErr != nil {
		return m.InitRepoErr
	}
	if m.RepoConfigInfo.Exists {
		return domain.ErrConfigExists
	}
	m.RepoConfigInfo.Exists = true
	return nil
}

// InitGlobalConfig records the call. An existing file yields ErrConfigExists.
func (m *MockConfigManager) InitGlobalConfig() error {
	m.InitGlobalCalled = true
	if m.InitGlobalErr != nil {
		return m.InitGlobalErr
	}
	if m.GlobalConfigInfo.Exists {
		return domain.ErrConfigExists
	}
	m.GlobalConfigInfo.Exists = true
	return nil
}

// MockExecutor is a test double for domain.CommandExecutor.
// Fields are ordered to minimize memory padding.
type MockExecutor struct {
	ExecuteErr   error
	Commands     []*domain.ExecCommand
	ExecuteOut   []byte
	Stdout       string
	Stderr       string
	ExecuteCalls int
}

// Ensure MockExecutor implements domain.CommandExecutor interface.
var _ domain.CommandExecutor = (*MockExecutor)(nil)

// Execute records the command and returns the configured output.
func (m *MockExecutor) Execute(cmd *domain.ExecCommand) ([]byte, error) {
	m.ExecuteCalls++
	m.Commands = append(m.Commands, cmd)
	return m.ExecuteOut, m.ExecuteErr
}

// ExecuteWithContext records the command and writes the configured streams.
func (m *MockExecutor) ExecuteWithContext(_ context.Context, cmd *domain.ExecCommand, stdout, stderr io.Writer) error {
	m.ExecuteCalls++
	m.Commands = append(m.Commands, cmd)
	if stdout != nil {
		_, _ = io.WriteString(stdout, m.Stdout)
	}
	if stderr != nil {
		_, _ = io.WriteString(stderr, m.Stderr)
	}
	return m.ExecuteErr
}
