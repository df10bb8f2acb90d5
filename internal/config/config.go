// Package config loads taskflow settings from .taskflow/config.yaml and TASKFLOW_* variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/metalagman/taskflow/internal/advisor"
	"github.com/metalagman/taskflow/internal/board"
	"github.com/metalagman/taskflow/internal/task"
	"github.com/metalagman/taskflow/internal/view"
	"gopkg.in/yaml.v3"
)

// Dir is the per-project state directory.
const Dir = ".taskflow"

// DefaultPath is the config file used when --config is not given.
var DefaultPath = filepath.Join(Dir, "config.yaml")

// Config is the root configuration.
type Config struct {
	Store    StoreConfig    `json:"store"    mapstructure:"store"    yaml:"store"`
	AI       AIConfig       `json:"ai"       mapstructure:"ai"       yaml:"ai"`
	Server   ServerConfig   `json:"server"   mapstructure:"server"   yaml:"server"`
	Defaults DefaultsConfig `json:"defaults" mapstructure:"defaults" yaml:"defaults"`
	View     ViewConfig     `json:"view"     mapstructure:"view"     yaml:"view"`
	Log      LogConfig      `json:"log"      mapstructure:"log"      yaml:"log"`
}

// StoreConfig configures the sqlite task store.
type StoreConfig struct {
	Path    string        `json:"path"    mapstructure:"path"    yaml:"path"`
	Latency time.Duration `json:"latency" mapstructure:"latency" yaml:"latency"`
	Seed    bool          `json:"seed"    mapstructure:"seed"    yaml:"seed"`
}

// AIConfig selects and configures the advisor backend.
type AIConfig struct {
	Provider  string        `json:"provider"              mapstructure:"provider"    yaml:"provider"`
	Model     string        `json:"model,omitempty"       mapstructure:"model"       yaml:"model,omitempty"`
	BaseURL   string        `json:"base_url,omitempty"    mapstructure:"base_url"    yaml:"base_url,omitempty"`
	APIKey    string        `json:"api_key,omitempty"     mapstructure:"api_key"     yaml:"api_key,omitempty"`
	APIKeyEnv string        `json:"api_key_env,omitempty" mapstructure:"api_key_env" yaml:"api_key_env,omitempty"`
	Timeout   time.Duration `json:"timeout"               mapstructure:"timeout"     yaml:"timeout"`
}

// ServerConfig configures taskflow serve.
type ServerConfig struct {
	Addr string `json:"addr" mapstructure:"addr" yaml:"addr"`
}

// DefaultsConfig holds the values applied to new drafts.
type DefaultsConfig struct {
	Status   task.Status   `json:"status"   mapstructure:"status"   yaml:"status"`
	Priority task.Priority `json:"priority" mapstructure:"priority" yaml:"priority"`
}

// ViewConfig holds the initial sort of list views.
type ViewConfig struct {
	SortBy  view.SortKey   `json:"sort_by"  mapstructure:"sort_by"  yaml:"sort_by"`
	SortDir view.Direction `json:"sort_dir" mapstructure:"sort_dir" yaml:"sort_dir"`
}

// LogConfig configures log output.
type LogConfig struct {
	Format string `json:"format" mapstructure:"format" yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Path: filepath.Join(Dir, "taskflow.db"),
			Seed: true,
		},
		AI: AIConfig{
			Provider: advisor.ProviderGemini,
			Timeout:  20 * time.Second,
		},
		Server:   ServerConfig{Addr: "127.0.0.1:8080"},
		Defaults: DefaultsConfig{Status: task.StatusTodo, Priority: task.PriorityMedium},
		View:     ViewConfig{SortBy: view.SortCreatedAt, SortDir: view.Desc},
		Log:      LogConfig{Format: "console"},
	}
}

// Validate checks values the schema cannot express.
func (c Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("%w: store.path must not be empty", ErrInvalidConfig)
	}
	if c.Store.Latency < 0 {
		return fmt.Errorf("%w: store.latency must be >= 0", ErrInvalidConfig)
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("%w: ai.timeout must be > 0", ErrInvalidConfig)
	}
	if !c.Defaults.Status.Valid() {
		return fmt.Errorf("%w: defaults.status: unknown status %q", ErrInvalidConfig, c.Defaults.Status)
	}
	if !c.Defaults.Priority.Valid() {
		return fmt.Errorf("%w: defaults.priority: unknown priority %q", ErrInvalidConfig, c.Defaults.Priority)
	}
	return nil
}

// AdvisorConfig maps the ai section onto the advisor package.
func (c Config) AdvisorConfig() advisor.Config {
	return advisor.Config{
		Provider:  c.AI.Provider,
		Model:     c.AI.Model,
		BaseURL:   c.AI.BaseURL,
		APIKey:    c.AI.APIKey,
		APIKeyEnv: c.AI.APIKeyEnv,
		Timeout:   c.AI.Timeout,
	}
}

// BoardDefaults maps the defaults section onto the board package.
func (c Config) BoardDefaults() board.Defaults {
	return board.Defaults{Status: c.Defaults.Status, Priority: c.Defaults.Priority}
}

// Filter returns the initial list filter.
func (c Config) Filter() view.Filter {
	f := view.DefaultFilter()
	f.SortBy = c.View.SortBy
	f.SortDir = c.View.SortDir
	return f.WithDefaults()
}

// Write stores cfg as YAML at path, creating parent directories.
func Write(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
