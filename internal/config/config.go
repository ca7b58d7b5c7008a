// Package config loads catalog server configuration from flags, environment variables and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/NickLinnik/LocalLibrary/internal/logger"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	Auth     AuthConfig
	Search   SearchConfig
	Catalog  CatalogConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	// DataDir is the root for the database, session store, search index and auth key.
	DataDir string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr         string        // Listen address (default: :8000)
	ReadTimeout  time.Duration // default: 15s
	WriteTimeout time.Duration // default: 30s, PDF export can be slow
	IdleTimeout  time.Duration // default: 60s
	CORSOrigins  []string      // Allowed origins for /api/v1
}

// DatabaseConfig holds the SQLite catalog store configuration.
type DatabaseConfig struct {
	Path string // default: {data}/catalog.db
}

// SessionConfig holds the badger-backed session store configuration.
type SessionConfig struct {
	Path         string        // default: {data}/sessions
	TTL          time.Duration // default: 336h (two weeks)
	CookieName   string
	SecureCookie bool
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// KeyDir holds auth.key, the PASETO v4 symmetric key.
	KeyDir string
	// Login throttling per client IP.
	LoginRate  float64
	LoginBurst int
}

// SearchConfig holds the bleve index configuration.
type SearchConfig struct {
	IndexPath string // default: {data}/search
}

// CatalogConfig holds catalog presentation settings.
type CatalogConfig struct {
	// CounterWord is counted in book titles on the home page.
	CounterWord string
	// GenreSuffix is appended to the summaries of the books with the most genres.
	GenreSuffix string
}

// Load resolves configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("locallibrary", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataDir := fs.String("data-dir", "", "Directory for database, sessions and search index")
	addr := fs.String("addr", "", "Listen address (default: :8000)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	dbPath := fs.String("db", "", "SQLite database path")
	sessionTTL := fs.String("session-ttl", "", "Session lifetime (default: 336h)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// A missing .env is fine. godotenv.Load never overrides variables already set.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
			DataDir:     getConfigValue(*dataDir, "DATA_DIR", ""),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Addr:        getConfigValue(*addr, "SERVER_ADDR", ":8000"),
			CORSOrigins: splitList(getConfigValue("", "CORS_ORIGINS", "")),
		},
		Database: DatabaseConfig{
			Path: getConfigValue(*dbPath, "DB_PATH", ""),
		},
		Session: SessionConfig{
			Path:         getConfigValue("", "SESSION_PATH", ""),
			CookieName:   getConfigValue("", "SESSION_COOKIE", "locallibrary_session"),
			SecureCookie: getBoolConfigValue("", "SESSION_SECURE_COOKIE", false),
		},
		Auth: AuthConfig{
			KeyDir:     getConfigValue("", "AUTH_KEY_DIR", ""),
			LoginRate:  getFloatConfigValue("", "LOGIN_RATE", 0.2),
			LoginBurst: getIntConfigValue("", "LOGIN_BURST", 5),
		},
		Search: SearchConfig{
			IndexPath: getConfigValue("", "SEARCH_INDEX_PATH", ""),
		},
		Catalog: CatalogConfig{
			CounterWord: getConfigValue("", "CATALOG_COUNTER_WORD", "Crime"),
			GenreSuffix: getConfigValue("", "CATALOG_GENRE_SUFFIX", " [Book with the most genres]"),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = getDurationConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.Session.TTL, err = getDurationConfigValue(*sessionTTL, "SESSION_TTL", "336h"); err != nil {
		return nil, err
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	if !logger.ValidLevel(c.Logger.Level) {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Database.Path == "" {
		return errors.New("database path cannot be empty")
	}
	if c.Session.Path == "" {
		return errors.New("session path cannot be empty")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	if c.Auth.LoginRate <= 0 || c.Auth.LoginBurst <= 0 {
		return errors.New("login rate and burst must be positive")
	}
	if strings.TrimSpace(c.Catalog.GenreSuffix) == "" {
		return errors.New("catalog genre suffix cannot be blank")
	}

	return nil
}

// IsProduction reports whether the app runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// expandPaths derives every storage path from the data dir unless set explicitly.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	if c.App.DataDir, err = expandPath(c.App.DataDir, filepath.Join(homeDir, "LocalLibrary")); err != nil {
		return fmt.Errorf("invalid data dir: %w", err)
	}

	targets := []struct {
		path *string
		def  string
	}{
		{&c.Database.Path, filepath.Join(c.App.DataDir, "catalog.db")},
		{&c.Session.Path, filepath.Join(c.App.DataDir, "sessions")},
		{&c.Search.IndexPath, filepath.Join(c.App.DataDir, "search")},
		{&c.Auth.KeyDir, c.App.DataDir},
	}
	for _, t := range targets {
		expanded, err := expandPath(*t.path, t.def)
		if err != nil {
			return err
		}
		*t.path = expanded
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty the default is used as given.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue accepts "true", "1", "yes" (case-insensitive) as true.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	result, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return defaultValue
	}
	return result
}

func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return d, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
