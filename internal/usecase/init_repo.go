package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/runoshun/git-pilot/internal/domain"
)

// InitRepoInput contains the input parameters for InitRepo.
type InitRepoInput struct {
	DataDir  string // Path to the .pilot directory
	TasksDir string // Task record directory ("" = <data dir>/tasks)
	RepoRoot string // Project root holding .gitignore (optional)
}

// InitRepoOutput contains the output from InitRepo.
type InitRepoOutput struct {
	DataDir            string // Path to the data directory
	ConfigPath         string // Path to the repository config
	AlreadyInitialized bool   // True if the config file already existed
	GitignoreNeedsAdd  bool   // True if .pilot/ is not in .gitignore
}

// InitRepo prepares a project directory for git-pilot.
type InitRepo struct {
	configs domain.ConfigManager
}

// NewInitRepo creates a new InitRepo use case.
func NewInitRepo(configs domain.ConfigManager) *InitRepo {
	return &InitRepo{configs: configs}
}

// Execute creates the data, task and log directories and writes the
// config template. Running it again only recreates missing directories.
func (uc *InitRepo) Execute(_ context.Context, in InitRepoInput) (*InitRepoOutput, error) {
	tasksDir := in.TasksDir
	if tasksDir == "" {
		tasksDir = domain.TasksDir(in.DataDir)
	}
	for _, dir := range []string{in.DataDir, tasksDir, domain.LogsDir(in.DataDir)} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	already := false
	if err := uc.configs.InitRepoConfig(); err != nil {
		if !errors.Is(err, domain.ErrConfigExists) {
			return nil, fmt.Errorf("write config: %w", err)
		}
		already = true
	}

	needsAdd := false
	if in.RepoRoot != "" {
		needsAdd = !isIgnored(in.RepoRoot, domain.DataDirName)
	}

	return &InitRepoOutput{
		DataDir:            in.DataDir,
		ConfigPath:         uc.configs.GetRepoConfigInfo().Path,
		AlreadyInitialized: already,
		GitignoreNeedsAdd:  needsAdd,
	}, nil
}

// isIgnored checks if name is listed in the .gitignore of root.
func isIgnored(root, name string) bool {
	content, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "/")
		if line == name || line == name+"/" {
			return true
		}
	}
	return false
}
