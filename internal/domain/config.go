package domain

import (
	_ "embed"
	"time"
)

//go:embed config_template.toml
var configTemplateContent string

// ConfigTemplate returns the commented configuration template written by 'pilot init'.
func ConfigTemplate() string {
	return configTemplateContent
}

// Default configuration values.
const (
	DefaultBaselineBranch = "main"
	DefaultTestTimeout    = 600 * time.Second
	DefaultTestTailLength = 4000
	DefaultServerAddr     = "127.0.0.1:8080"
	DefaultAgentCommand   = "claude"
	DefaultSpecFileLimit  = 3000
)

// Config represents the application configuration.
// Fields are ordered to minimize memory padding.
type Config struct {
	Warnings []string      `toml:"-"`
	Repo     RepoConfig    `toml:"repo"`
	Tasks    TasksConfig   `toml:"tasks"`
	Test     TestConfig    `toml:"test"`
	Agent    AgentConfig   `toml:"agent"`
	Resolve  ResolveConfig `toml:"resolve"`
	Log      LogConfig     `toml:"log"`
	Server   ServerConfig  `toml:"server"`
}

// TasksConfig holds settings for task storage from [tasks] section.
type TasksConfig struct {
	Dir    string `toml:"dir,omitempty"`    // Directory of task records (default: <data dir>/tasks)
	Source string `toml:"source,omitempty"` // Source label recorded on new tasks
}

// TestConfig holds test runner settings from [test] section.
// Fields are ordered to minimize memory padding.
type TestConfig struct {
	Wrappers   []string      `toml:"wrappers,omitempty"` // Wrapper scripts probed in the workspace root, in order
	Tools      []string      `toml:"tools,omitempty"`    // Tools looked up on PATH when no wrapper exists
	Args       []string      `toml:"args,omitempty"`     // Arguments passed to the selected command
	Timeout    time.Duration `toml:"-"`                  // Hard wall-clock limit
	TailLength int           `toml:"tail,omitempty"`     // Characters kept from the end of each stream
}

// AgentConfig holds settings of the external generator command from [agent] section.
// When Preset names a built-in agent, its command line replaces Command and Args.
type AgentConfig struct {
	Preset       string   `toml:"preset,omitempty"`        // Built-in agent: claude, codex, opencode
	Command      string   `toml:"command,omitempty"`       // Program invoked with the prompt on stdin
	SystemPrompt string   `toml:"system_prompt,omitempty"` // Overrides the built-in coding instructions
	Args         []string `toml:"args,omitempty"`          // Arguments passed to the program
}

// ResolveConfig holds file resolution settings from [resolve] section.
type ResolveConfig struct {
	Policy ResolvePolicy `toml:"policy,omitempty"` // Default policy when a caller does not choose one
}

// LogConfig holds logging settings from [log] section.
type LogConfig struct {
	Level string `toml:"level,omitempty"` // Log level: debug, info, warn, error
}

// ServerConfig holds HTTP settings from [server] section.
type ServerConfig struct {
	Addr string `toml:"addr,omitempty"` // Listen address
}

// NewDefaultConfig returns a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Repo: RepoConfig{
			Branch: DefaultBaselineBranch,
		},
		Test: TestConfig{
			Wrappers:   []string{"mvnw"},
			Tools:      []string{"mvn"},
			Args:       []string{"test"},
			Timeout:    DefaultTestTimeout,
			TailLength: DefaultTestTailLength,
		},
		Agent: AgentConfig{
			Command: DefaultAgentCommand,
			Args:    []string{"-p"},
		},
		Resolve: ResolveConfig{
			Policy: PolicyCreate,
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr: DefaultServerAddr,
		},
	}
}

// ConfigInfo describes one configuration file on disk.
type ConfigInfo struct {
	Path    string
	Content string
	Exists  bool
}
