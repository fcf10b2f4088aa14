package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ToolName names the per-user config directory.
const ToolName = "side-launcher"

type UserConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"passwordHash"` // bcrypt hash
}

type ShellConfig struct {
	// Interpreter overrides the platform command interpreter (/bin/sh, cmd.exe).
	Interpreter string   `yaml:"interpreter"`
	Args        []string `yaml:"args"`
}

type TerminalConfig struct {
	Backend string `yaml:"backend"`
	Session string `yaml:"session"`
}

type SourcesConfig struct {
	SettingsKey           string `yaml:"settingsKey"`
	ExternalTasksFile     string `yaml:"externalTasksFile"`
	UserSettingsFile      string `yaml:"userSettingsFile"`
	WorkspaceSettingsFile string `yaml:"workspaceSettingsFile"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type UIConfig struct {
	ShowCommandLog bool `yaml:"showCommandLog"`
	CommandLogMax  int  `yaml:"commandLogMax"`
}

type Config struct {
	Listen   string         `yaml:"listen"`
	Shell    ShellConfig    `yaml:"shell"`
	Terminal TerminalConfig `yaml:"terminal"`
	Sources  SourcesConfig  `yaml:"sources"`
	Users    []UserConfig   `yaml:"users"`
	Logging  LoggingConfig  `yaml:"logging"`
	UI       UIConfig       `yaml:"ui"`
	Watch    bool           `yaml:"watch"`
}

func Default() *Config {
	return &Config{
		Listen:   "127.0.0.1:8731",
		Terminal: TerminalConfig{Backend: "tmux", Session: ToolName},
		Sources: SourcesConfig{
			SettingsKey:           "sideLauncher",
			WorkspaceSettingsFile: ".side-launcher.yaml",
		},
		Users:   []UserConfig{},
		Logging: LoggingConfig{Level: "info"},
		UI:      UIConfig{ShowCommandLog: true, CommandLogMax: 200},
		Watch:   true,
	}
}

// UserDir is <user-config-dir>/side-launcher. Falls back to ~/.config when
// the platform config dir cannot be determined.
func UserDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, ToolName)
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".config", ToolName)
	}
	return filepath.Join(".config", ToolName)
}

// DefaultPath is where Load looks when no --config flag is given.
func DefaultPath() string { return filepath.Join(UserDir(), "config.yaml") }

func (c *Config) ExternalTasksPath() string {
	if c.Sources.ExternalTasksFile != "" {
		return c.Sources.ExternalTasksFile
	}
	return filepath.Join(UserDir(), "tasks.json")
}

func (c *Config) UserSettingsPath() string {
	if c.Sources.UserSettingsFile != "" {
		return c.Sources.UserSettingsFile
	}
	return filepath.Join(UserDir(), "settings.yaml")
}

// Load reads an optional YAML file. An empty path means DefaultPath; a
// missing file yields the defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SIDELAUNCHER_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("SIDELAUNCHER_SHELL"); v != "" {
		cfg.Shell.Interpreter = v
	}
	if v := os.Getenv("SIDELAUNCHER_TASKS_FILE"); v != "" {
		cfg.Sources.ExternalTasksFile = v
	}
	if v := os.Getenv("SIDELAUNCHER_TERMINAL_SESSION"); v != "" {
		cfg.Terminal.Session = v
	}
	if v := os.Getenv("SIDELAUNCHER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SIDELAUNCHER_UI_SHOW_CMDLOG"); v != "" {
		cfg.UI.ShowCommandLog = parseBool(v, cfg.UI.ShowCommandLog)
	}
	if v := os.Getenv("SIDELAUNCHER_CMDLOG_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.UI.CommandLogMax = n
		}
	}
}

func parseBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
