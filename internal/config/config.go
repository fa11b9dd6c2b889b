package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	AI       AIConfig       `yaml:"ai"`
	News     NewsConfig     `yaml:"news"`
	Newscast NewscastConfig `yaml:"newscast"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AIConfig configures the model provider used for summarization and
// anchor-script generation.
type AIConfig struct {
	Provider string `yaml:"provider"` // "openai" or "anthropic"
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"` // custom endpoint (optional)
}

// NewsConfig configures feed aggregation.
type NewsConfig struct {
	DefaultRegion string `yaml:"default_region"` // 2-letter code, optional
}

// NewscastConfig configures scheduled newscast generation.
type NewscastConfig struct {
	OutputDir string `yaml:"output_dir"`
	Interval  string `yaml:"interval"`
}

// ParseInterval returns the generation interval as time.Duration.
func (n NewscastConfig) ParseInterval() time.Duration {
	d, err := time.ParseDuration(n.Interval)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./newscast.db"},
		AI: AIConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Newscast: NewscastConfig{
			OutputDir: "./newscasts",
			Interval:  "24h",
		},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NEWSCAST_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("NEWSCAST_OUTPUT_DIR"); v != "" {
		cfg.Newscast.OutputDir = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
		cfg.AI.Provider = "openai"
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.AI.APIKey = v
		cfg.AI.Provider = "anthropic"
	}
}
