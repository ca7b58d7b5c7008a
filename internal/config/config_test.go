package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:      AppConfig{Environment: "development", DataDir: "/data"},
		Logger:   LoggerConfig{Level: "info"},
		Database: DatabaseConfig{Path: "/data/catalog.db"},
		Session:  SessionConfig{Path: "/data/sessions", TTL: time.Hour},
		Auth:     AuthConfig{LoginRate: 1, LoginBurst: 5},
		Catalog:  CatalogConfig{CounterWord: "Crime", GenreSuffix: " [Book with the most genres]"},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Environments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"PRODUCTION", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Logger.Level = "chatty" }},
		{"blank genre suffix", func(c *Config) { c.Catalog.GenreSuffix = "  " }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"empty session path", func(c *Config) { c.Session.Path = "" }},
		{"zero session ttl", func(c *Config) { c.Session.TTL = 0 }},
		{"zero login burst", func(c *Config) { c.Auth.LoginBurst = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_DerivesPathsFromDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DB_PATH", "")
	t.Setenv("SESSION_PATH", "")
	t.Setenv("SEARCH_INDEX_PATH", "")
	t.Setenv("AUTH_KEY_DIR", "")

	cfg, err := Load([]string{"-data-dir", dir, "-env-file", filepath.Join(dir, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "catalog.db"), cfg.Database.Path)
	assert.Equal(t, filepath.Join(dir, "sessions"), cfg.Session.Path)
	assert.Equal(t, filepath.Join(dir, "search"), cfg.Search.IndexPath)
	assert.Equal(t, dir, cfg.Auth.KeyDir)
	assert.Equal(t, 336*time.Hour, cfg.Session.TTL)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("LOGIN_BURST=9\nLOG_LEVEL=debug\n"), 0o600))

	// Registered so cleanup restores it after godotenv sets it.
	t.Setenv("LOGIN_BURST", "")
	require.NoError(t, os.Unsetenv("LOGIN_BURST"))

	// Environment beats .env, flags beat environment.
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("SERVER_ADDR", ":9100")

	cfg, err := Load([]string{"-data-dir", dir, "-env-file", envFile, "-addr", ":9200"})
	require.NoError(t, err)

	assert.Equal(t, ":9200", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.Equal(t, 9, cfg.Auth.LoginBurst)
}

func TestLoad_InvalidDuration(t *testing.T) {
	dir := t.TempDir()
	_, err := Load([]string{"-data-dir", dir, "-env-file", filepath.Join(dir, "none"), "-session-ttl", "forever"})
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/books", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "books"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"http://a", "http://b"}, splitList(" http://a ,, http://b"))
}
