package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"knowhow-editor/pkg/config"

	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"EDITOR_CONFIG", "PORT", "REPO_PATH", "CONTENT_PATH", "UI_PATH",
	"GIT_USER_NAME", "GIT_USER_EMAIL", "GIT_USERNAME", "GITHUB_USERNAME",
	"GIT_TOKEN", "GITHUB_TOKEN", "GIT_REMOTE", "TOOL_NAME", "AUTH_TOKEN",
	"SESSION_SECRET", "TREE_CONCURRENCY", "TREE_IGNORE", "SYNC_TIMEOUT", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	r := require.New(t)
	clearEnv(t)

	cfg, err := config.Load("")
	r.NoError(err)
	r.Equal("3001", cfg.Port)
	r.Equal("./repo", cfg.RepoPath)
	r.Equal(filepath.Join("./repo", "content"), cfg.ContentPath)
	r.Equal("origin", cfg.GitRemote)
	r.Equal(16, cfg.TreeConcurrency)
	r.Equal([]string{".git"}, cfg.TreeIgnore)
	r.Equal(60*time.Second, cfg.SyncTimeout)
	r.False(cfg.HasPushCredentials())
}

func TestLoadEnvironment(t *testing.T) {
	r := require.New(t)
	clearEnv(t)
	t.Setenv("REPO_PATH", "/srv/pages")
	t.Setenv("GITHUB_USERNAME", "octocat")
	t.Setenv("GITHUB_TOKEN", "ghp_x")
	t.Setenv("TREE_CONCURRENCY", "4")
	t.Setenv("SYNC_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := config.Load("")
	r.NoError(err)
	r.Equal("/srv/pages", cfg.RepoPath)
	r.Equal(filepath.Join("/srv/pages", "content"), cfg.ContentPath)
	r.True(cfg.HasPushCredentials())
	r.Equal(4, cfg.TreeConcurrency)
	r.Equal(5*time.Second, cfg.SyncTimeout)
	r.Equal("debug", cfg.LogLevel)
}

func TestLoadYAMLFileWithEnvOverride(t *testing.T) {
	r := require.New(t)
	clearEnv(t)

	file := filepath.Join(t.TempDir(), "editor.yaml")
	r.NoError(os.WriteFile(file, []byte(`
port: "8080"
repo_path: /data/pages
content_path: /data/pages/docs
tool_name: Docs Editor
sync_timeout: 30s
tree_ignore: [".git", "node_modules"]
`), 0644))
	t.Setenv("PORT", "9090")

	cfg, err := config.Load(file)
	r.NoError(err)
	r.Equal("9090", cfg.Port)
	r.Equal("/data/pages/docs", cfg.ContentPath)
	r.Equal("Docs Editor", cfg.ToolName)
	r.Equal(30*time.Second, cfg.SyncTimeout)
	r.Equal([]string{".git", "node_modules"}, cfg.TreeIgnore)
}

func TestLoadTOMLFile(t *testing.T) {
	r := require.New(t)
	clearEnv(t)

	file := filepath.Join(t.TempDir(), "editor.toml")
	r.NoError(os.WriteFile(file, []byte("repo_path = \"/data/pages\"\ngit_remote = \"upstream\"\n"), 0644))
	t.Setenv("EDITOR_CONFIG", file)

	cfg, err := config.Load("")
	r.NoError(err)
	r.Equal("/data/pages", cfg.RepoPath)
	r.Equal("upstream", cfg.GitRemote)
}

func TestLoadJSONFile(t *testing.T) {
	r := require.New(t)
	clearEnv(t)

	file := filepath.Join(t.TempDir(), "editor.json")
	r.NoError(os.WriteFile(file, []byte(`{"auth_token": "shared", "tree_concurrency": 2}`), 0644))

	cfg, err := config.Load(file)
	r.NoError(err)
	r.Equal("shared", cfg.AuthToken)
	r.Equal(2, cfg.TreeConcurrency)
}

func TestLoadRejectsInvalid(t *testing.T) {
	r := require.New(t)
	clearEnv(t)

	t.Setenv("LOG_LEVEL", "verbose")
	_, err := config.Load("")
	r.Error(err)

	t.Setenv("LOG_LEVEL", "")
	t.Setenv("GIT_USER_EMAIL", "not-an-email")
	_, err = config.Load("")
	r.Error(err)

	t.Setenv("GIT_USER_EMAIL", "")
	_, err = config.Load(filepath.Join(t.TempDir(), "editor.ini"))
	r.Error(err)
}
