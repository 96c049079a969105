package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigDir   = ".toolguard"
	DefaultConfigFile  = "config.yaml"
	ProjectConfigFile  = ".toolguard.yaml"
	DefaultLogDir      = "logs"
	DefaultLogFile     = "pre_tool_use.json"
	DefaultCommandsDir = ".claude/commands"
)

type Config struct {
	// ProjectRoot anchors root-structure checks. Empty means the working
	// directory.
	ProjectRoot string          `yaml:"project_root"`
	Audit       AuditConfig     `yaml:"audit"`
	Structure   StructureConfig `yaml:"structure"`
	Commands    CommandsConfig  `yaml:"commands"`
	Commit      CommitConfig    `yaml:"commit"`

	// Source is the file the config was read from, if any.
	Source string `yaml:"-"`
}

type AuditConfig struct {
	Backend         string        `yaml:"backend"`
	Path            string        `yaml:"path"`
	LookbackPaths   []string      `yaml:"lookback_paths"`
	LookbackEntries int           `yaml:"lookback_entries"`
	DateWindow      time.Duration `yaml:"date_window"`
}

type StructureConfig struct {
	AllowedMarkdown   []string `yaml:"allowed_markdown"`
	ForbiddenPatterns []string `yaml:"forbidden_patterns"`
}

type CommandsConfig struct {
	Dir                string   `yaml:"dir"`
	TemplateCandidates []string `yaml:"template_candidates"`
}

type CommitConfig struct {
	Types      []string `yaml:"types"`
	MaxScope   int      `yaml:"max_scope"`
	MaxSubject int      `yaml:"max_subject"`
}

// Default returns the built-in configuration rooted at cwd.
func Default(cwd string) *Config {
	cfg := &Config{}
	cfg.fill(cwd)
	return cfg
}

// Load reads the YAML config at path. With an empty path it looks for
// ./.toolguard.yaml, then ~/.toolguard/config.yaml, and falls back to
// Default when neither exists. An explicit path that does not exist is an
// error.
func Load(path, cwd string) (*Config, error) {
	if cwd == "" {
		cwd, _ = os.Getwd()
	}

	explicit := path != ""
	if !explicit {
		path = discover(cwd)
	}
	if path == "" {
		return Default(cwd), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(cwd), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Source = path
	cfg.fill(cwd)
	return &cfg, nil
}

func discover(cwd string) string {
	candidates := []string{filepath.Join(cwd, ProjectConfigFile)}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigDir, DefaultConfigFile))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// fill replaces zero values with defaults.
func (c *Config) fill(cwd string) {
	if c.ProjectRoot == "" {
		c.ProjectRoot = cwd
	}

	a := &c.Audit
	if a.Backend == "" {
		a.Backend = "json"
	}
	if a.Path == "" {
		name := DefaultLogFile
		if a.Backend == "sqlite" {
			name = "pre_tool_use.db"
		}
		a.Path = filepath.Join(cwd, DefaultLogDir, name)
	}
	if len(a.LookbackPaths) == 0 {
		a.LookbackPaths = defaultLookbackPaths(cwd)
	}
	if a.LookbackEntries <= 0 {
		a.LookbackEntries = 20
	}
	if a.DateWindow <= 0 {
		a.DateWindow = 5 * time.Minute
	}

	s := &c.Structure
	if len(s.AllowedMarkdown) == 0 {
		s.AllowedMarkdown = []string{
			"README.md", "CHANGELOG.md", "CLAUDE.md",
			"ROADMAP.md", "SECURITY.md", "LICENSE.md",
		}
	}

	if c.Commands.Dir == "" {
		c.Commands.Dir = DefaultCommandsDir
	}
	if len(c.Commands.TemplateCandidates) == 0 {
		c.Commands.TemplateCandidates = []string{
			"ai-docs/custom-command-template.md",
			"./ai-docs/custom-command-template.md",
			"../ai-docs/custom-command-template.md",
			"ai_docs/custom-command-template.md",
			"./ai_docs/custom-command-template.md",
		}
	}

	if len(c.Commit.Types) == 0 {
		c.Commit.Types = []string{"feat", "fix", "docs", "style", "refactor", "test", "chore"}
	}
	if c.Commit.MaxScope <= 0 {
		c.Commit.MaxScope = 20
	}
	if c.Commit.MaxSubject <= 0 {
		c.Commit.MaxSubject = 50
	}
}

// defaultLookbackPaths lists the log locations the date check scans:
// the user-wide log, the project log and the parent directory's log.
func defaultLookbackPaths(cwd string) []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".claude", DefaultLogDir, DefaultLogFile))
	}
	return append(paths,
		filepath.Join(cwd, DefaultLogDir, DefaultLogFile),
		filepath.Join(filepath.Dir(cwd), DefaultLogDir, DefaultLogFile),
	)
}
