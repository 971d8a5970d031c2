// Package config handles configuration loading and management for Forge.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/nxtg-ai/forge/pkg/models"
)

// Config holds all configuration for Forge.
type Config struct {
	Agents        AgentsConfig        `mapstructure:"agents"`
	Orchestration OrchestrationConfig `mapstructure:"orchestration"`
	Learning      LearningConfig      `mapstructure:"learning"`
}

// OrchestrationConfig holds parallel execution settings.
type OrchestrationConfig struct {
	// Enabled toggles parallel execution. When false, batches run
	// strictly sequentially in input order.
	Enabled bool `mapstructure:"enabled"`
	// MaxParallel is the concurrency ceiling for running tasks.
	MaxParallel int `mapstructure:"max_parallel"`
	// HandoffTimeout is the budget for a message-driven reassignment
	// to take effect.
	HandoffTimeout time.Duration `mapstructure:"handoff_timeout"`
	// LearningEnabled toggles interaction logging of completed tasks.
	LearningEnabled bool `mapstructure:"learning_enabled"`
}

// LearningConfig holds interaction log settings.
type LearningConfig struct {
	// DBPath is the SQLite interaction log location. Empty means the
	// project-local default.
	DBPath string `mapstructure:"db_path"`
}

// AgentsConfig holds the externally supplied capability pool table.
type AgentsConfig struct {
	Available []AgentEntry `mapstructure:"available"`
}

// AgentEntry is one capability pool as declared in configuration.
type AgentEntry struct {
	// Name is the pool identifier (e.g. "backend-master").
	Name string `mapstructure:"name"`
	// Role is the human-readable pool name.
	Role string `mapstructure:"role"`
	// Capabilities lists the pool's expertise tags.
	Capabilities []string `mapstructure:"capabilities"`
	// SkillFile is the locator of the pool's context resource.
	SkillFile string `mapstructure:"skill_file"`
}

// WarnLog receives non-fatal configuration diagnostics.
type WarnLog func(format string, args ...any)

func discard(string, ...any) {}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (FORGE_*)
// 2. Project config (.forge.yaml in current directory or parent)
// 3. User config (~/.config/forge/config.yaml)
// 4. Built-in defaults
//
// Malformed or missing configuration is never fatal: Load falls back to
// built-in defaults and reports a diagnostic through warn. A nil warn
// discards diagnostics.
func Load(warn WarnLog) (*Config, error) {
	if warn == nil {
		warn = discard
	}

	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			warn("user config unreadable, using defaults: %v", err)
			return Default(), nil
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				warn("project config unmergeable, ignoring: %v", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("FORGE")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		warn("config unmarshal failed, using defaults: %v", err)
		return Default(), nil
	}

	normalize(cfg)
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	normalize(cfg)
	return cfg, nil
}

// normalize clamps nonsense values back to the defaults.
func normalize(cfg *Config) {
	if cfg.Orchestration.MaxParallel <= 0 {
		cfg.Orchestration.MaxParallel = 3
	}
	if cfg.Orchestration.HandoffTimeout <= 0 {
		cfg.Orchestration.HandoffTimeout = 5 * time.Minute
	}
}

// AgentTable converts the configured pool entries into the routing table.
// Entries naming unknown pools are skipped and reported through warn;
// a nil warn discards the diagnostics. If nothing usable is configured,
// the built-in table is returned.
func (c *Config) AgentTable(warn WarnLog) map[models.AgentType]models.AgentInfo {
	if warn == nil {
		warn = discard
	}

	table := make(map[models.AgentType]models.AgentInfo)

	for _, entry := range c.Agents.Available {
		agent := models.AgentType(entry.Name)
		if !agent.Valid() {
			warn("skipping unknown agent pool %q", entry.Name)
			continue
		}
		info := models.AgentInfo{
			Name:      entry.Role,
			Expertise: entry.Capabilities,
			SkillFile: entry.SkillFile,
		}
		if info.Name == "" {
			info.Name = entry.Name
		}
		if info.SkillFile == "" {
			info.SkillFile = fmt.Sprintf(".forge/skills/agents/%s.md", entry.Name)
		}
		table[agent] = info
	}

	if len(table) == 0 {
		return models.DefaultAgents()
	}
	return table
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("orchestration.enabled", true)
	v.SetDefault("orchestration.max_parallel", 3)
	v.SetDefault("orchestration.handoff_timeout", "5m")
	v.SetDefault("orchestration.learning_enabled", false)
	v.SetDefault("learning.db_path", "")
}

// getUserConfigDir returns the XDG config directory for Forge.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "forge")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "forge")
	}
	return filepath.Join(home, ".config", "forge")
}

// findProjectConfig searches for .forge.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".forge.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with built-in default values.
func Default() *Config {
	return &Config{
		Orchestration: OrchestrationConfig{
			Enabled:         true,
			MaxParallel:     3,
			HandoffTimeout:  5 * time.Minute,
			LearningEnabled: false,
		},
	}
}
