package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/runoshun/git-pilot/internal/domain"
)

// Manager inspects and creates configuration files.
type Manager struct {
	dataDir       string // Path to the .pilot directory
	globalConfDir string // Path to global config directory (e.g., ~/.config/git-pilot)
}

// NewManager creates a new Manager.
func NewManager(dataDir string) *Manager {
	return &Manager{
		dataDir:       dataDir,
		globalConfDir: defaultGlobalConfigDir(),
	}
}

// NewManagerWithGlobalDir creates a new Manager with a custom global config directory.
// This is useful for testing.
func NewManagerWithGlobalDir(dataDir, globalConfDir string) *Manager {
	return &Manager{
		dataDir:       dataDir,
		globalConfDir: globalConfDir,
	}
}

// GetRepoConfigInfo returns information about the repository config file.
func (m *Manager) GetRepoConfigInfo() domain.ConfigInfo {
	return getConfigInfo(filepath.Join(m.dataDir, domain.ConfigFileName))
}

// GetGlobalConfigInfo returns information about the global config file.
func (m *Manager) GetGlobalConfigInfo() domain.ConfigInfo {
	if m.globalConfDir == "" {
		return domain.ConfigInfo{}
	}
	return getConfigInfo(filepath.Join(m.globalConfDir, domain.ConfigFileName))
}

func getConfigInfo(path string) domain.ConfigInfo {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.ConfigInfo{Path: path}
	}
	return domain.ConfigInfo{
		Path:    path,
		Content: string(content),
		Exists:  true,
	}
}

// InitRepoConfig writes the commented template to the data directory.
func (m *Manager) InitRepoConfig() error {
	if err := os.MkdirAll(m.dataDir, 0o750); err != nil {
		return err
	}
	return initConfig(filepath.Join(m.dataDir, domain.ConfigFileName))
}

// InitGlobalConfig writes the commented template to the global config directory.
func (m *Manager) InitGlobalConfig() error {
	if m.globalConfDir == "" {
		return errors.New("global config directory not available")
	}
	if err := os.MkdirAll(m.globalConfDir, 0o700); err != nil {
		return err
	}
	return initConfig(filepath.Join(m.globalConfDir, domain.ConfigFileName))
}

func initConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return domain.ErrConfigExists
	}
	return os.WriteFile(path, []byte(domain.ConfigTemplate()), 0o600)
}
