// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/runoshun/git-pilot/internal/domain"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Environment variables overriding the [repo] section.
// The TARGET_REPO_* names are accepted for compatibility; PILOT_* wins.
const (
	EnvDataDir    = "PILOT_DATA_DIR"
	EnvRepoURL    = "PILOT_REPO_URL"
	EnvRepoBranch = "PILOT_REPO_BRANCH"
	EnvRepoPath   = "PILOT_REPO_PATH"

	legacyEnvRepoURL    = "TARGET_REPO_URL"
	legacyEnvRepoBranch = "TARGET_REPO_DEFAULT_BRANCH"
	legacyEnvRepoPath   = "TARGET_REPO_LOCAL_PATH"
)

// Loader loads configuration from TOML files and the environment.
type Loader struct {
	getenv        func(string) string
	dataDir       string // Path to the .pilot directory
	globalConfDir string // Path to global config directory (e.g., ~/.config/git-pilot)
}

// NewLoader creates a new Loader.
func NewLoader(dataDir string) *Loader {
	return &Loader{
		getenv:        os.Getenv,
		dataDir:       dataDir,
		globalConfDir: defaultGlobalConfigDir(),
	}
}

// NewLoaderWithGlobalDir creates a new Loader with a custom global config directory.
// This is useful for testing.
func NewLoaderWithGlobalDir(dataDir, globalConfDir string) *Loader {
	return &Loader{
		getenv:        os.Getenv,
		dataDir:       dataDir,
		globalConfDir: globalConfDir,
	}
}

// DataDir returns the data directory for a project rooted at root,
// honoring PILOT_DATA_DIR.
func DataDir(root string) string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir
	}
	return domain.RepoDataDir(root)
}

// defaultGlobalConfigDir returns the default global config directory.
func defaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return domain.GlobalConfigDir(configHome)
}

// Load returns the merged configuration.
// Precedence: default <- global <- repo <- environment.
// Derived paths (tasks dir, workspace path) are filled in afterwards.
func (l *Loader) Load() (*domain.Config, error) {
	base := domain.NewDefaultConfig()

	if l.globalConfDir != "" {
		global, err := l.loadFile(filepath.Join(l.globalConfDir, domain.ConfigFileName))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if global != nil {
			base = mergeConfigs(base, global)
		}
	}

	repo, err := l.loadFile(filepath.Join(l.dataDir, domain.ConfigFileName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if repo != nil {
		base = mergeConfigs(base, repo)
	}

	l.applyEnv(base)

	policy, err := domain.ParseResolvePolicy(string(base.Resolve.Policy), domain.PolicyCreate)
	if err != nil {
		return nil, fmt.Errorf("%w: [resolve] %w", domain.ErrConfiguration, err)
	}
	base.Resolve.Policy = policy

	if base.Tasks.Dir == "" {
		base.Tasks.Dir = domain.TasksDir(l.dataDir)
	}
	if base.Repo.Path == "" && base.Repo.URL != "" {
		base.Repo.Path = domain.DefaultWorkspacePath(l.dataDir, base.Repo.URL)
	}
	return base, nil
}

// applyEnv overrides the repository settings from the environment.
func (l *Loader) applyEnv(cfg *domain.Config) {
	pick := func(names ...string) string {
		for _, name := range names {
			if v := l.getenv(name); v != "" {
				return v
			}
		}
		return ""
	}
	if v := pick(EnvRepoURL, legacyEnvRepoURL); v != "" {
		cfg.Repo.URL = v
	}
	if v := pick(EnvRepoBranch, legacyEnvRepoBranch); v != "" {
		cfg.Repo.Branch = v
	}
	if v := pick(EnvRepoPath, legacyEnvRepoPath); v != "" {
		cfg.Repo.Path = v
	}
}

// loadFile loads a configuration from a file.
// Relative paths in the file are resolved against the file's directory.
func (l *Loader) loadFile(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrConfiguration, path, err)
	}

	cfg := convertRawToDomainConfig(raw)
	dir := filepath.Dir(path)
	for _, p := range []*string{&cfg.Repo.Path, &cfg.Tasks.Dir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	return cfg, nil
}

// convertRawToDomainConfig converts the raw map to domain config and collects warnings.
func convertRawToDomainConfig(raw map[string]any) *domain.Config {
	res := &domain.Config{}
	var warnings []string

	for section, value := range raw {
		m, ok := value.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown key: %s", section))
			continue
		}
		p := sectionParser{section: section, values: m}
		switch section {
		case "repo":
			p.str("url", &res.Repo.URL)
			p.str("branch", &res.Repo.Branch)
			p.str("path", &res.Repo.Path)
		case "tasks":
			p.str("dir", &res.Tasks.Dir)
			p.str("source", &res.Tasks.Source)
		case "test":
			p.strs("wrappers", &res.Test.Wrappers)
			p.strs("tools", &res.Test.Tools)
			p.strs("args", &res.Test.Args)
			p.duration("timeout", &res.Test.Timeout)
			p.integer("tail", &res.Test.TailLength)
		case "agent":
			p.str("preset", &res.Agent.Preset)
			p.str("command", &res.Agent.Command)
			p.str("system_prompt", &res.Agent.SystemPrompt)
			p.strs("args", &res.Agent.Args)
		case "resolve":
			var policy string
			p.str("policy", &policy)
			res.Resolve.Policy = domain.ResolvePolicy(policy)
		case "log":
			p.str("level", &res.Log.Level)
		case "server":
			p.str("addr", &res.Server.Addr)
		default:
			warnings = append(warnings, fmt.Sprintf("unknown section: %s", section))
			continue
		}
		warnings = append(warnings, p.warnings()...)
	}

	sort.Strings(warnings)
	res.Warnings = warnings
	return res
}

// sectionParser reads typed values from one TOML table and remembers
// which keys it consumed, so the rest can be reported.
type sectionParser struct {
	values  map[string]any
	seen    map[string]bool
	invalid []string
	section string
}

func (p *sectionParser) take(key string) (any, bool) {
	if p.seen == nil {
		p.seen = make(map[string]bool)
	}
	p.seen[key] = true
	v, ok := p.values[key]
	return v, ok
}

func (p *sectionParser) bad(key string, v any) {
	p.invalid = append(p.invalid, fmt.Sprintf("invalid value in [%s]: %s = %v", p.section, key, v))
}

func (p *sectionParser) str(key string, dst *string) {
	v, ok := p.take(key)
	if !ok {
		return
	}
	s, ok := v.(string)
	if !ok {
		p.bad(key, v)
		return
	}
	*dst = s
}

func (p *sectionParser) strs(key string, dst *[]string) {
	v, ok := p.take(key)
	if !ok {
		return
	}
	list, ok := v.([]any)
	if !ok {
		p.bad(key, v)
		return
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			p.bad(key, v)
			return
		}
		out = append(out, s)
	}
	*dst = out
}

func (p *sectionParser) integer(key string, dst *int) {
	v, ok := p.take(key)
	if !ok {
		return
	}
	n, ok := v.(int64)
	if !ok || n < 0 {
		p.bad(key, v)
		return
	}
	*dst = int(n)
}

// duration accepts a Go duration string ("10m") or a number of seconds.
func (p *sectionParser) duration(key string, dst *time.Duration) {
	v, ok := p.take(key)
	if !ok {
		return
	}
	switch t := v.(type) {
	case string:
		d, err := time.ParseDuration(t)
		if err != nil || d <= 0 {
			p.bad(key, v)
			return
		}
		*dst = d
	case int64:
		if t <= 0 {
			p.bad(key, v)
			return
		}
		*dst = time.Duration(t) * time.Second
	default:
		p.bad(key, v)
	}
}

func (p *sectionParser) warnings() []string {
	out := p.invalid
	for k := range p.values {
		if !p.seen[k] {
			out = append(out, fmt.Sprintf("unknown key in [%s]: %s", p.section, k))
		}
	}
	return out
}

// mergeConfigs merges two configs, with override taking precedence.
func mergeConfigs(base, override *domain.Config) *domain.Config {
	result := *base
	result.Warnings = append(append([]string{}, base.Warnings...), override.Warnings...)

	setString(&result.Repo.URL, override.Repo.URL)
	setString(&result.Repo.Branch, override.Repo.Branch)
	setString(&result.Repo.Path, override.Repo.Path)
	setString(&result.Tasks.Dir, override.Tasks.Dir)
	setString(&result.Tasks.Source, override.Tasks.Source)
	setString(&result.Agent.Preset, override.Agent.Preset)
	setString(&result.Agent.Command, override.Agent.Command)
	setString(&result.Agent.SystemPrompt, override.Agent.SystemPrompt)
	setString(&result.Log.Level, override.Log.Level)
	setString(&result.Server.Addr, override.Server.Addr)

	if override.Test.Wrappers != nil {
		result.Test.Wrappers = override.Test.Wrappers
	}
	if override.Test.Tools != nil {
		result.Test.Tools = override.Test.Tools
	}
	if override.Test.Args != nil {
		result.Test.Args = override.Test.Args
	}
	if override.Test.Timeout > 0 {
		result.Test.Timeout = override.Test.Timeout
	}
	if override.Test.TailLength > 0 {
		result.Test.TailLength = override.Test.TailLength
	}
	// A new command does not inherit the arguments of the one it replaces
	if override.Agent.Command != "" || override.Agent.Args != nil {
		result.Agent.Args = override.Agent.Args
	}
	if override.Resolve.Policy != "" {
		result.Resolve.Policy = override.Resolve.Policy
	}

	return &result
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
