// Package config defines the assistant's configuration and loads it from
// YAML with secrets taken from the OS keyring or the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jholhewres/nova/pkg/nova/agent"
	"github.com/jholhewres/nova/pkg/nova/apps"
	"github.com/jholhewres/nova/pkg/nova/desktop"
	"github.com/jholhewres/nova/pkg/nova/memory"
	"github.com/jholhewres/nova/pkg/nova/sandbox"
	"github.com/jholhewres/nova/pkg/nova/store"
)

// Config is the top-level configuration.
type Config struct {
	// Name is the assistant's display name.
	Name string `yaml:"name"`

	// UserName is how the assistant addresses its user.
	UserName string `yaml:"user_name"`

	// ProjectRoot bounds every file operation. Defaults to the working
	// directory at start.
	ProjectRoot string `yaml:"project_root"`

	Oracle  agent.OracleConfig `yaml:"oracle"`
	Shell   sandbox.Config     `yaml:"shell"`
	Apps    apps.Config        `yaml:"apps"`
	Web     WebConfig          `yaml:"web"`
	Memory  MemoryConfig       `yaml:"memory"`
	Audit   AuditConfig        `yaml:"audit"`
	Logging LoggingConfig      `yaml:"logging"`
}

// WebConfig adds search sites to the built-in set.
type WebConfig struct {
	SearchSites []desktop.SearchSite `yaml:"search_sites"`
}

// MemoryConfig configures conversation history.
type MemoryConfig struct {
	MaxEntries int    `yaml:"max_entries"`
	Persist    bool   `yaml:"persist"`
	Path       string `yaml:"path"`
}

// AuditConfig configures the action audit trail.
type AuditConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
	PruneSchedule string `yaml:"prune_schedule"`
}

// Retention returns the retention window.
func (a AuditConfig) Retention() time.Duration {
	return time.Duration(a.RetentionDays) * 24 * time.Hour
}

// LoggingConfig configures the root logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`

	// File additionally writes JSON records to this path.
	File string `yaml:"file"`
}

// DefaultConfig returns the defaults every loaded file is overlaid on.
func DefaultConfig() *Config {
	return &Config{
		Name:   "Nova",
		Oracle: agent.DefaultOracleConfig(),
		Shell:  sandbox.DefaultConfig(),
		Memory: MemoryConfig{
			MaxEntries: memory.DefaultMaxEntries,
			Path:       store.DefaultPath,
		},
		Audit: AuditConfig{
			Enabled:       true,
			Path:          store.DefaultPath,
			RetentionDays: 30,
			PruneSchedule: "@daily",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration and fills in derived values. The
// project root is made absolute.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		c.Name = "Nova"
	}
	if c.ProjectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determining project root: %w", err)
		}
		c.ProjectRoot = wd
	}
	abs, err := filepath.Abs(c.ProjectRoot)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}
	c.ProjectRoot = abs

	if err := c.Shell.Validate(); err != nil {
		return fmt.Errorf("shell: %w", err)
	}
	if c.Oracle.MaxToolRounds <= 0 {
		c.Oracle.MaxToolRounds = agent.DefaultOracleConfig().MaxToolRounds
	}
	switch strings.ToLower(c.Oracle.Provider) {
	case "", agent.ProviderGemini, agent.ProviderOpenAI, "google", "openai-compatible":
	default:
		return fmt.Errorf("oracle.provider: unknown provider %q", c.Oracle.Provider)
	}
	if c.Memory.MaxEntries <= 0 {
		c.Memory.MaxEntries = memory.DefaultMaxEntries
	}
	if c.Audit.RetentionDays < 0 {
		return fmt.Errorf("audit.retention_days must not be negative")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format: want text or json, got %q", c.Logging.Format)
	}
	return nil
}
