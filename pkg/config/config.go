package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	APIPrefix = "/knowhow-api"
	UIPrefix  = "/knowhow-editor"
)

type Config struct {
	Port        string `yaml:"port" toml:"port" json:"port" validate:"required,numeric"`
	RepoPath    string `yaml:"repo_path" toml:"repo_path" json:"repo_path" validate:"required"`
	ContentPath string `yaml:"content_path" toml:"content_path" json:"content_path"`
	UIPath      string `yaml:"ui_path" toml:"ui_path" json:"ui_path"`

	// Git settings
	GitUserName  string `yaml:"git_user_name" toml:"git_user_name" json:"git_user_name" validate:"required"`
	GitUserEmail string `yaml:"git_user_email" toml:"git_user_email" json:"git_user_email" validate:"required,email"`
	GitUsername  string `yaml:"git_username" toml:"git_username" json:"git_username"`
	GitToken     string `yaml:"git_token" toml:"git_token" json:"git_token"`
	GitRemote    string `yaml:"git_remote" toml:"git_remote" json:"git_remote" validate:"required"`
	ToolName     string `yaml:"tool_name" toml:"tool_name" json:"tool_name" validate:"required"`

	AuthToken     string `yaml:"auth_token" toml:"auth_token" json:"auth_token"`
	SessionSecret string `yaml:"session_secret" toml:"session_secret" json:"session_secret"`

	TreeConcurrency int      `yaml:"tree_concurrency" toml:"tree_concurrency" json:"tree_concurrency" validate:"min=1,max=256"`
	TreeIgnore      []string `yaml:"tree_ignore" toml:"tree_ignore" json:"tree_ignore"`

	SyncTimeout time.Duration `yaml:"sync_timeout" toml:"sync_timeout" json:"sync_timeout" validate:"min=0"`
	LogLevel    string        `yaml:"log_level" toml:"log_level" json:"log_level" validate:"oneof=debug info warn error"`
}

func Default() *Config {
	return &Config{
		Port:            "3001",
		RepoPath:        "./repo",
		GitUserName:     "KnowHow Editor Bot",
		GitUserEmail:    "bot@knowhow-editor.local",
		GitRemote:       "origin",
		ToolName:        "KnowHow Pages Editor",
		TreeConcurrency: 16,
		TreeIgnore:      []string{".git"},
		SyncTimeout:     60 * time.Second,
		LogLevel:        "info",
	}
}

// Load builds the configuration from defaults, an optional config file
// (EDITOR_CONFIG, or the file argument when non-empty), .env and the
// environment, in that order of precedence.
func Load(file string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if file == "" {
		file = os.Getenv("EDITOR_CONFIG")
	}
	if file != "" {
		if err := cfg.readFile(file); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if cfg.ContentPath == "" {
		cfg.ContentPath = filepath.Join(cfg.RepoPath, "content")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(file string) error {
	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, c)
	case ".toml":
		err = toml.Unmarshal(content, c)
	case ".json":
		err = json.Unmarshal(content, c)
	default:
		return fmt.Errorf("unsupported config format: %s", file)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", file, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	// Helper to get env with default
	getEnv := func(fallback string, keys ...string) string {
		for _, key := range keys {
			if v := os.Getenv(key); v != "" {
				return v
			}
		}
		return fallback
	}

	c.Port = getEnv(c.Port, "PORT")
	c.RepoPath = getEnv(c.RepoPath, "REPO_PATH")
	c.ContentPath = getEnv(c.ContentPath, "CONTENT_PATH")
	c.UIPath = getEnv(c.UIPath, "UI_PATH")

	c.GitUserName = getEnv(c.GitUserName, "GIT_USER_NAME")
	c.GitUserEmail = getEnv(c.GitUserEmail, "GIT_USER_EMAIL")
	c.GitUsername = getEnv(c.GitUsername, "GIT_USERNAME", "GITHUB_USERNAME")
	c.GitToken = getEnv(c.GitToken, "GIT_TOKEN", "GITHUB_TOKEN")
	c.GitRemote = getEnv(c.GitRemote, "GIT_REMOTE")
	c.ToolName = getEnv(c.ToolName, "TOOL_NAME")

	c.AuthToken = getEnv(c.AuthToken, "AUTH_TOKEN")
	c.SessionSecret = getEnv(c.SessionSecret, "SESSION_SECRET")
	c.LogLevel = strings.ToLower(getEnv(c.LogLevel, "LOG_LEVEL"))

	if tc := os.Getenv("TREE_CONCURRENCY"); tc != "" {
		if val, err := strconv.Atoi(tc); err == nil {
			c.TreeConcurrency = val
		}
	}
	if ti := os.Getenv("TREE_IGNORE"); ti != "" {
		c.TreeIgnore = strings.Split(ti, ",")
	}
	if st := os.Getenv("SYNC_TIMEOUT"); st != "" {
		if val, err := time.ParseDuration(st); err == nil {
			c.SyncTimeout = val
		}
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// HasPushCredentials reports whether both halves of the push credential are set.
func (c *Config) HasPushCredentials() bool {
	return c.GitUsername != "" && c.GitToken != ""
}
