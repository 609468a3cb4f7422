// Package config resolves taskboard settings.
//
// Sources, lowest to highest priority:
//  1. Defaults
//  2. User config file (~/.taskboard/config.toml)
//  3. Project config file (./taskboard.toml, or the file passed explicitly)
//  4. .env file and TASKBOARD_* environment variables
//  5. CLI flags (applied by the caller)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	dirName         = ".taskboard"
	userFileName    = "config.toml"
	projectFileName = "taskboard.toml"
	logFileName     = "taskboard.log"
	envPrefix       = "TASKBOARD_"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendFile   = "file"
)

// Config holds every setting for the client and the asset server.
type Config struct {
	APIURL          string        `toml:"api_url"`
	RefreshInterval time.Duration `toml:"refresh_interval"`
	Lang            string        `toml:"lang"`
	Theme           string        `toml:"theme"`
	LogLevel        string        `toml:"log_level"`
	LogFile         string        `toml:"log_file"`
	Server          ServerConfig  `toml:"server"`
}

// ServerConfig configures `taskboard serve`.
type ServerConfig struct {
	Addr     string `toml:"addr"`
	Dir      string `toml:"dir"`
	DevAPI   bool   `toml:"dev_api"`
	Backend  string `toml:"backend"`
	RedisURL string `toml:"redis_url"`
	DataFile string `toml:"data_file"`
}

// LoadOptions points Load at non-default locations. Zero values mean defaults.
type LoadOptions struct {
	// ConfigFile replaces the project file lookup; it must exist.
	ConfigFile string
	// UserDir replaces ~/.taskboard.
	UserDir string
	// EnvFile replaces ./.env.
	EnvFile string
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		RefreshInterval: 30 * time.Second,
		Lang:            "en",
		Theme:           "classic",
		LogLevel:        "info",
		Server: ServerConfig{
			Addr:     "0.0.0.0:8888",
			Dir:      ".",
			Backend:  BackendMemory,
			RedisURL: "redis://localhost:6379/0",
			DataFile: "tasks.json",
		},
	}
}

// Load merges every source into a Config.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	userDir := opts.UserDir
	if userDir == "" {
		d, err := Dir()
		if err == nil {
			userDir = d
		}
	}
	if userDir != "" {
		if err := loadFile(cfg, filepath.Join(userDir, userFileName), false); err != nil {
			return nil, err
		}
	}

	if opts.ConfigFile != "" {
		if err := loadFile(cfg, opts.ConfigFile, true); err != nil {
			return nil, err
		}
	} else if err := loadFile(cfg, projectFileName, false); err != nil {
		return nil, err
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// A missing .env is normal.
	_ = godotenv.Load(envFile)
	if err := loadEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Dir is where per-user files (config, logs) live.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// ResolveLogFile returns LogFile, or a file under Dir when unset.
func (c *Config) ResolveLogFile() (string, error) {
	if c.LogFile != "" {
		return c.LogFile, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	// ensure ~/.taskboard exists with 0700
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}
	return filepath.Join(dir, logFileName), nil
}

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be positive, got %s", c.RefreshInterval)
	}
	switch c.Server.Backend {
	case BackendMemory, BackendRedis, BackendFile:
	default:
		return fmt.Errorf("server.backend must be one of memory, redis, file; got %q", c.Server.Backend)
	}
	return nil
}

// RequireAPI reports a usable error when no endpoint is configured.
func (c *Config) RequireAPI() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return errors.New("no api url configured: set api_url in taskboard.toml, TASKBOARD_API_URL, or --api")
	}
	return nil
}

func loadFile(cfg *Config, path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("config file %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	str("API_URL", &cfg.APIURL)
	str("LANG", &cfg.Lang)
	str("THEME", &cfg.Theme)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FILE", &cfg.LogFile)
	str("ADDR", &cfg.Server.Addr)
	str("DIR", &cfg.Server.Dir)
	str("BACKEND", &cfg.Server.Backend)
	str("REDIS_URL", &cfg.Server.RedisURL)
	str("DATA_FILE", &cfg.Server.DataFile)

	if v, ok := os.LookupEnv(envPrefix + "REFRESH_INTERVAL"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sREFRESH_INTERVAL: %w", envPrefix, err)
		}
		cfg.RefreshInterval = d
	}
	if v, ok := os.LookupEnv(envPrefix + "DEV_API"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sDEV_API: %w", envPrefix, err)
		}
		cfg.Server.DevAPI = b
	}
	return nil
}
