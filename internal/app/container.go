// Package app provides the dependency injection container for the application.
package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/runoshun/git-pilot/internal/domain"
	"github.com/runoshun/git-pilot/internal/infra/agent"
	"github.com/runoshun/git-pilot/internal/infra/builtin"
	"github.com/runoshun/git-pilot/internal/infra/config"
	"github.com/runoshun/git-pilot/internal/infra/executor"
	"github.com/runoshun/git-pilot/internal/infra/git"
	"github.com/runoshun/git-pilot/internal/infra/logging"
	"github.com/runoshun/git-pilot/internal/infra/runner"
	"github.com/runoshun/git-pilot/internal/infra/taskstore"
	"github.com/runoshun/git-pilot/internal/infra/workspace"
	"github.com/runoshun/git-pilot/internal/usecase"
	"github.com/runoshun/git-pilot/internal/usecase/shared"
)

// Config holds the application paths.
type Config struct {
	Root    string // Project directory the tool was started in
	DataDir string // Path to the .pilot directory (or PILOT_DATA_DIR)
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
type Container struct {
	// Ports (interfaces bound to implementations)
	Tasks         domain.TaskRepository
	Git           domain.Git
	Workspaces    domain.WorkspaceManager
	Generator     domain.ContentGenerator
	Specs         domain.SpecGenerator
	Runner        domain.TestRunner
	Clock         domain.Clock
	IDs           domain.IDGenerator
	OpLog         domain.Logger
	ConfigLoader  domain.ConfigLoader
	ConfigManager domain.ConfigManager

	// Pointer fields
	Logger    *slog.Logger
	FS        afero.Fs
	AppConfig *domain.Config

	closer func() error

	// Configuration
	Config Config
}

// New creates a new Container for the project rooted at root.
// The configuration is loaded once; an invalid configuration is an error.
func New(root string) (*Container, error) {
	cfg := Config{Root: root, DataDir: config.DataDir(root)}

	loader := config.NewLoader(cfg.DataDir)
	appConfig, err := loader.Load()
	if err != nil {
		return nil, err
	}

	agentConfig, err := builtin.Resolve(appConfig.Agent)
	if err != nil {
		return nil, err
	}
	appConfig.Agent = agentConfig

	level := logging.ParseLevel(appConfig.Log.Level)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	opLog := logging.New(cfg.DataDir, level)

	exec := executor.NewClient()
	agentClient := agent.NewClient(exec, appConfig.Agent)

	return &Container{
		Tasks:         taskstore.New(appConfig.Tasks.Dir, opLog),
		Git:           git.NewClient(),
		Workspaces:    workspace.NewStore(cfg.DataDir),
		Generator:     agentClient,
		Specs:         agentClient,
		Runner:        runner.NewClient(exec, appConfig.Test),
		Clock:         domain.RealClock{},
		IDs:           domain.UUIDGenerator{},
		OpLog:         opLog,
		ConfigLoader:  loader,
		ConfigManager: config.NewManager(cfg.DataDir),
		Logger:        logger,
		FS:            afero.NewOsFs(),
		AppConfig:     appConfig,
		closer:        opLog.Close,
		Config:        cfg,
	}, nil
}

// NewWithDeps creates a new Container with custom dependencies for testing.
// Ports not given here stay nil and can be set on the returned container.
func NewWithDeps(cfg Config, appConfig *domain.Config, tasks domain.TaskRepository, clock domain.Clock, logger *slog.Logger) *Container {
	if appConfig == nil {
		appConfig = domain.NewDefaultConfig()
	}
	return &Container{
		Tasks:     tasks,
		Clock:     clock,
		IDs:       domain.UUIDGenerator{},
		Logger:    logger,
		FS:        afero.NewMemMapFs(),
		AppConfig: appConfig,
		Config:    cfg,
	}
}

// Close releases the open log files.
func (c *Container) Close() error {
	if c.closer == nil {
		return nil
	}
	if err := c.closer(); err != nil {
		return fmt.Errorf("close logs: %w", err)
	}
	return nil
}

// taskDefaults returns the values stamped on new tasks.
func (c *Container) taskDefaults() usecase.TaskDefaults {
	return usecase.TaskDefaults{
		Repo:   c.AppConfig.Repo,
		Source: c.AppConfig.Tasks.Source,
	}
}

// opener returns a workspace opener over the configured ports.
func (c *Container) opener() *shared.WorkspaceOpener {
	sync := shared.NewSynchronizer(c.Git, c.FS, c.OpLog)
	return shared.NewWorkspaceOpener(c.Workspaces, sync, c.Clock, c.OpLog)
}

// UseCase factory methods

// InitRepoUseCase returns a new InitRepo use case.
func (c *Container) InitRepoUseCase() *usecase.InitRepo {
	return usecase.NewInitRepo(c.ConfigManager)
}

// InitConfigUseCase returns a new InitConfig use case.
func (c *Container) InitConfigUseCase() *usecase.InitConfig {
	return usecase.NewInitConfig(c.ConfigManager)
}

// ShowConfigUseCase returns a new ShowConfig use case.
func (c *Container) ShowConfigUseCase() *usecase.ShowConfig {
	return usecase.NewShowConfig(c.ConfigManager, c.ConfigLoader)
}

// NewTaskUseCase returns a new NewTask use case.
func (c *Container) NewTaskUseCase() *usecase.NewTask {
	return usecase.NewNewTask(c.Tasks, c.IDs, c.Clock, c.OpLog, c.taskDefaults())
}

// NewTaskFromTextUseCase returns a new NewTaskFromText use case.
func (c *Container) NewTaskFromTextUseCase() *usecase.NewTaskFromText {
	return usecase.NewNewTaskFromText(c.Tasks, c.Git, c.Specs, c.opener(), c.IDs, c.Clock, c.OpLog, c.taskDefaults())
}

// CreateTasksFromFileUseCase returns a new CreateTasksFromFile use case.
func (c *Container) CreateTasksFromFileUseCase() *usecase.CreateTasksFromFile {
	return usecase.NewCreateTasksFromFile(c.Tasks, c.IDs, c.Clock, c.OpLog, c.taskDefaults())
}

// ListTasksUseCase returns a new ListTasks use case.
func (c *Container) ListTasksUseCase() *usecase.ListTasks {
	return usecase.NewListTasks(c.Tasks)
}

// ShowTaskUseCase returns a new ShowTask use case.
func (c *Container) ShowTaskUseCase() *usecase.ShowTask {
	return usecase.NewShowTask(c.Tasks)
}

// ApplyChangeUseCase returns a new ApplyChange use case.
func (c *Container) ApplyChangeUseCase() *usecase.ApplyChange {
	return usecase.NewApplyChange(
		c.Tasks,
		c.Git,
		c.opener(),
		shared.NewFileResolver(c.FS),
		shared.NewChangeApplier(c.FS, c.Generator, c.OpLog),
		c.Clock,
		c.OpLog,
		c.AppConfig.Repo,
		c.AppConfig.Resolve.Policy,
	)
}

// RunTestsUseCase returns a new RunTests use case.
func (c *Container) RunTestsUseCase() *usecase.RunTests {
	return usecase.NewRunTests(c.Tasks, c.Git, c.opener(), c.Runner, c.Clock, c.OpLog, c.AppConfig.Repo)
}

// CloseTaskUseCase returns a new CloseTask use case.
func (c *Container) CloseTaskUseCase() *usecase.CloseTask {
	return usecase.NewCloseTask(c.Tasks, c.Clock, c.OpLog)
}

// SyncWorkspaceUseCase returns a new SyncWorkspace use case.
func (c *Container) SyncWorkspaceUseCase() *usecase.SyncWorkspace {
	return usecase.NewSyncWorkspace(c.Git, c.opener(), c.Workspaces, c.AppConfig.Repo)
}

// ShowLogsUseCase returns a new ShowLogs use case.
func (c *Container) ShowLogsUseCase() *usecase.ShowLogs {
	return usecase.NewShowLogs(c.Tasks, c.Config.DataDir)
}
