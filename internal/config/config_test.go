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
	cfg := Default()

	assert.Equal(t, "./newscast.db", cfg.Database.Path)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, "./newscasts", cfg.Newscast.OutputDir)
	assert.Equal(t, 24*time.Hour, cfg.Newscast.ParseInterval())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
database:
  path: /var/lib/newscast/news.db
ai:
  provider: anthropic
  model: claude-sonnet-4-20250514
news:
  default_region: DE
newscast:
  output_dir: /srv/newscasts
  interval: 6h
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/newscast/news.db", cfg.Database.Path)
	assert.Equal(t, "anthropic", cfg.AI.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.AI.Model)
	assert.Equal(t, "DE", cfg.News.DefaultRegion)
	assert.Equal(t, "/srv/newscasts", cfg.Newscast.OutputDir)
	assert.Equal(t, 6*time.Hour, cfg.Newscast.ParseInterval())
}

func TestLoadPartialYAMLKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ai:\n  model: gpt-4o\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.AI.Model)
	assert.Equal(t, "./newscast.db", cfg.Database.Path, "unset keys keep their defaults")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "./newscast.db", cfg.Database.Path)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NEWSCAST_DB_PATH", "/tmp/override.db")
	t.Setenv("NEWSCAST_OUTPUT_DIR", "/tmp/out")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
	assert.Equal(t, "/tmp/out", cfg.Newscast.OutputDir)
	assert.Equal(t, "anthropic", cfg.AI.Provider, "an Anthropic key switches the provider")
	assert.Equal(t, "sk-ant-test", cfg.AI.APIKey)
}

func TestParseIntervalFallback(t *testing.T) {
	assert.Equal(t, 24*time.Hour, NewscastConfig{Interval: "often"}.ParseInterval())
	assert.Equal(t, 90*time.Minute, NewscastConfig{Interval: "90m"}.ParseInterval())
}
