package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  port: "9090"
  mode: debug
database:
  driver: sqlite
  dsn: "file::memory:"
jwt:
  secret: test-secret
  expire_hours: 2
ai:
  provider: mock
  max_attempts: 2
quiz:
  default_questions: 10
  max_questions: 60
  guest_ratio: 0.3
  guest_minimum: 10
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadConfig(t *testing.T) {
	dir := writeConfig(t, sampleConfig)
	t.Chdir(dir)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, "mock", cfg.AI.Provider)
	assert.Equal(t, 60, cfg.Quiz.MaxQuestions)
	assert.InDelta(t, 0.3, cfg.Quiz.GuestRatio, 1e-9)
	// 默认值
	assert.Equal(t, 360, cfg.Quiz.SessionTTLMinutes)
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout())
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	dir := writeConfig(t, sampleConfig)
	t.Chdir(dir)
	t.Setenv("AI_PROVIDER", "openai")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.AI.Provider)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:   ServerConfig{Mode: "debug"},
			Database: DatabaseConfig{Driver: "postgres"},
			AI:       AIConfig{MaxAttempts: 2},
			Quiz:     QuizConfig{DefaultQuestions: 10, MaxQuestions: 60, GuestRatio: 0.3},
		}
	}

	require.NoError(t, base().Validate())

	cfg := base()
	cfg.Server.Mode = "release"
	cfg.JWT.Secret = "short"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Database.Driver = "oracle"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.AI.MaxAttempts = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Quiz.GuestRatio = 1.5
	assert.Error(t, cfg.Validate())
}
