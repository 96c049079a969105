package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default("/work/proj")

	assert.Equal(t, "/work/proj", cfg.ProjectRoot)
	assert.Equal(t, "json", cfg.Audit.Backend)
	assert.Equal(t, filepath.Join("/work/proj", "logs", "pre_tool_use.json"), cfg.Audit.Path)
	assert.Equal(t, 20, cfg.Audit.LookbackEntries)
	assert.Equal(t, 5*time.Minute, cfg.Audit.DateWindow)
	assert.Contains(t, cfg.Audit.LookbackPaths, filepath.Join("/work", "logs", "pre_tool_use.json"))
	assert.Contains(t, cfg.Structure.AllowedMarkdown, "CLAUDE.md")
	assert.Equal(t, ".claude/commands", cfg.Commands.Dir)
	assert.Equal(t, []string{"feat", "fix", "docs", "style", "refactor", "test", "chore"}, cfg.Commit.Types)
	assert.Equal(t, 20, cfg.Commit.MaxScope)
	assert.Equal(t, 50, cfg.Commit.MaxSubject)
}

func TestLoad_ProjectFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	yml := `
project_root: /srv/app
audit:
  backend: sqlite
  date_window: 2m
structure:
  allowed_markdown: [README.md, NOTES.md]
  forbidden_patterns: ['^scratch.*$']
commit:
  types: [feat, fix, perf]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigFile), []byte(yml), 0o600))

	cfg, err := Load("", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ProjectConfigFile), cfg.Source)
	assert.Equal(t, "/srv/app", cfg.ProjectRoot)
	assert.Equal(t, "sqlite", cfg.Audit.Backend)
	assert.Equal(t, filepath.Join(dir, "logs", "pre_tool_use.db"), cfg.Audit.Path)
	assert.Equal(t, 2*time.Minute, cfg.Audit.DateWindow)
	assert.Equal(t, []string{"README.md", "NOTES.md"}, cfg.Structure.AllowedMarkdown)
	assert.Equal(t, []string{"^scratch.*$"}, cfg.Structure.ForbiddenPatterns)
	assert.Equal(t, []string{"feat", "fix", "perf"}, cfg.Commit.Types)
	assert.Equal(t, 20, cfg.Commit.MaxScope, "unset fields keep their defaults")
}

func TestLoad_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("commit:\n  max_subject: 72\n"), 0o600))

	cfg, err := Load(path, dir)
	require.NoError(t, err)
	assert.Equal(t, 72, cfg.Commit.MaxSubject)

	_, err = Load(filepath.Join(dir, "missing.yaml"), dir)
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("audit: [unclosed"), 0o600))

	_, err := Load(path, dir)
	assert.Error(t, err)
}
