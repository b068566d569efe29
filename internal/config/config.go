package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opencode-htop/octop/internal/session"
)

// DefaultContextWindow is assumed for models with no configured window.
const DefaultContextWindow = 200000

type Config struct {
	RefreshIntervalMS int            `yaml:"refresh_interval_ms"`
	DBPath            string         `yaml:"db_path"`
	HostConfigPath    string         `yaml:"host_config_path"`
	NativeProbe       string         `yaml:"native_probe"` // auto | always | never
	View              ViewConfig     `yaml:"view"`
	Detail            DetailConfig   `yaml:"detail"`
	Serve             ServeConfig    `yaml:"serve"`
	Models            map[string]int `yaml:"models"`
}

type ViewConfig struct {
	SortKey            string `yaml:"sort_key"`
	SortDescending     bool   `yaml:"sort_descending"`
	ShowAll            bool   `yaml:"show_all"`
	ShowNonInteractive bool   `yaml:"show_noninteractive"`
}

type DetailConfig struct {
	HistoryLimit int `yaml:"history_limit"`
}

type ServeConfig struct {
	Addr           string        `yaml:"addr"`
	AuthToken      string        `yaml:"auth_token"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	Privacy        PrivacyConfig `yaml:"privacy"`
}

type PrivacyConfig struct {
	MaskDirectories bool     `yaml:"mask_directories"`
	MaskSessionIDs  bool     `yaml:"mask_session_ids"`
	MaskPIDs        bool     `yaml:"mask_pids"`
	MaskTTYs        bool     `yaml:"mask_ttys"`
	AllowedPaths    []string `yaml:"allowed_paths"`
	BlockedPaths    []string `yaml:"blocked_paths"`
}

// NewPrivacyFilter builds the session filter configured by this section.
func (p PrivacyConfig) NewPrivacyFilter() *session.PrivacyFilter {
	return &session.PrivacyFilter{
		MaskDirectories: p.MaskDirectories,
		MaskSessionIDs:  p.MaskSessionIDs,
		MaskPIDs:        p.MaskPIDs,
		MaskTTYs:        p.MaskTTYs,
		AllowedPaths:    p.AllowedPaths,
		BlockedPaths:    p.BlockedPaths,
	}
}

func defaultConfig() *Config {
	return &Config{
		RefreshIntervalMS: 2000,
		NativeProbe:       "auto",
		View: ViewConfig{
			SortKey: "status",
		},
		Detail: DetailConfig{
			HistoryLimit: 30,
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:7733",
		},
		Models: map[string]int{
			"default": DefaultContextWindow,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.clamp()
	return cfg, nil
}

// LoadOrDefault loads the config at path (or the default location when path
// is empty) and falls back to coded defaults when no file exists.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return defaultConfig(), nil
	}
	return cfg, err
}

func (c *Config) clamp() {
	if c.RefreshIntervalMS <= 0 {
		c.RefreshIntervalMS = 2000
	}
	if c.Detail.HistoryLimit <= 0 {
		c.Detail.HistoryLimit = 30
	}
	switch c.NativeProbe {
	case "auto", "always", "never":
	default:
		c.NativeProbe = "auto"
	}
}

// MaxContextTokens resolves the context window for a model name: exact
// match first, then the longest matching wildcard prefix ("claude-*"),
// then the "default" entry.
func (c *Config) MaxContextTokens(model string) int {
	if n, ok := c.Models[model]; ok {
		return n
	}
	best, bestLen := 0, -1
	for key, n := range c.Models {
		prefix, ok := strings.CutSuffix(key, "*")
		if !ok {
			continue
		}
		if strings.HasPrefix(model, prefix) && len(prefix) > bestLen {
			best, bestLen = n, len(prefix)
		}
	}
	if bestLen >= 0 {
		return best
	}
	if n, ok := c.Models["default"]; ok {
		return n
	}
	return DefaultContextWindow
}

// DefaultPath is octop's own config location, honoring XDG_CONFIG_HOME.
func DefaultPath() string {
	return filepath.Join(configHome(), "octop", "config.yaml")
}

// DefaultDBPath is the host tool's database location, honoring
// XDG_DATA_HOME.
func DefaultDBPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "opencode", "opencode.db")
}

// DefaultHostConfigPath is the host tool's global config location,
// honoring XDG_CONFIG_HOME.
func DefaultHostConfigPath() string {
	return filepath.Join(configHome(), "opencode", "opencode.json")
}

func configHome() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return configHome
}

// ResolvedDBPath prefers the configured path over the default location.
func (c *Config) ResolvedDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return DefaultDBPath()
}

// ResolvedHostConfigPath prefers the configured path over the default
// location.
func (c *Config) ResolvedHostConfigPath() string {
	if c.HostConfigPath != "" {
		return c.HostConfigPath
	}
	return DefaultHostConfigPath()
}

// GenerateToken returns a 32-character hex token for serve-mode auth.
func GenerateToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}
