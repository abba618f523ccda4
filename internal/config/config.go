// Package config loads ~/.corkboard/config.yml, .env files and CORKBOARD_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"corkboard-cli/internal/backup"
)

const (
	FileName     = "config.yml"
	DatabaseName = "corkboard.sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRemote   = "remote"
)

type StoreConfig struct {
	Driver    string `yaml:"driver"`
	DSN       string `yaml:"dsn,omitempty"`
	ServerURL string `yaml:"server_url,omitempty"`
	Token     string `yaml:"token,omitempty"`
}

type CacheConfig struct {
	RedisURL string        `yaml:"redis_url,omitempty"`
	TTL      time.Duration `yaml:"ttl,omitempty"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr,omitempty"`
	JWTSecret string `yaml:"jwt_secret,omitempty"`
}

type DragConfig struct {
	// Threshold is the pointer distance, in cells, a press must travel before a
	// drag starts.
	Threshold int `yaml:"threshold"`
}

type TUIConfig struct {
	// Refresh reloads the open board at this interval so edits made by other
	// members show up. Zero disables it.
	Refresh time.Duration `yaml:"refresh"`
}

type Config struct {
	Store    StoreConfig   `yaml:"store"`
	Cache    CacheConfig   `yaml:"cache,omitempty"`
	Server   ServerConfig  `yaml:"server,omitempty"`
	Drag     DragConfig    `yaml:"drag"`
	TUI      TUIConfig     `yaml:"tui"`
	S3       backup.Config `yaml:"s3,omitempty"`
	LogLevel string        `yaml:"log_level,omitempty"`
	LogFile  string        `yaml:"log_file,omitempty"`
}

func Default() Config {
	return Config{
		Store:  StoreConfig{Driver: DriverSQLite},
		Cache:  CacheConfig{TTL: 5 * time.Minute},
		Server: ServerConfig{Addr: ":8080"},
		Drag:   DragConfig{Threshold: 1},
		TUI:    TUIConfig{Refresh: 10 * time.Second},
	}
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.corkboard).
	if v := strings.TrimSpace(os.Getenv("CORKBOARD_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".corkboard"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// LoadDotEnv loads .env from dir when present. Variables already set in the
// environment win.
func LoadDotEnv(dir string) error {
	p := filepath.Join(dir, ".env")
	if err := godotenv.Load(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", p, err)
	}
	return nil
}

// Load reads the config file at path. A missing file yields Default().
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve is the usual startup sequence: .env from the working directory, the
// config file, then environment overrides.
func Resolve() (Config, error) {
	if wd, err := os.Getwd(); err == nil {
		if err := LoadDotEnv(wd); err != nil {
			return Default(), err
		}
	}
	path, err := ConfigPath()
	if err != nil {
		return Default(), err
	}
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg to path atomically.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ApplyEnv overlays CORKBOARD_* variables onto cfg.
func ApplyEnv(cfg *Config) error {
	str := map[string]*string{
		"CORKBOARD_STORE":         &cfg.Store.Driver,
		"CORKBOARD_DSN":           &cfg.Store.DSN,
		"CORKBOARD_SERVER":        &cfg.Store.ServerURL,
		"CORKBOARD_TOKEN":         &cfg.Store.Token,
		"CORKBOARD_REDIS_URL":     &cfg.Cache.RedisURL,
		"CORKBOARD_ADDR":          &cfg.Server.Addr,
		"CORKBOARD_JWT_SECRET":    &cfg.Server.JWTSecret,
		"CORKBOARD_LOG_LEVEL":     &cfg.LogLevel,
		"CORKBOARD_LOG_FILE":      &cfg.LogFile,
		"CORKBOARD_S3_ENDPOINT":   &cfg.S3.Endpoint,
		"CORKBOARD_S3_REGION":     &cfg.S3.Region,
		"CORKBOARD_S3_BUCKET":     &cfg.S3.Bucket,
		"CORKBOARD_S3_ACCESS_KEY": &cfg.S3.AccessKey,
		"CORKBOARD_S3_SECRET_KEY": &cfg.S3.SecretKey,
	}
	for k, dst := range str {
		if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	if v := strings.TrimSpace(os.Getenv("CORKBOARD_CACHE_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CORKBOARD_CACHE_TTL: %w", err)
		}
		cfg.Cache.TTL = d
	}
	if v := strings.TrimSpace(os.Getenv("CORKBOARD_TUI_REFRESH")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid CORKBOARD_TUI_REFRESH: %q", v)
		}
		cfg.TUI.Refresh = d
	}
	if v := strings.TrimSpace(os.Getenv("CORKBOARD_DRAG_THRESHOLD")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid CORKBOARD_DRAG_THRESHOLD: %q", v)
		}
		cfg.Drag.Threshold = n
	}
	if v := strings.TrimSpace(os.Getenv("CORKBOARD_S3_PATH_STYLE")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CORKBOARD_S3_PATH_STYLE: %w", err)
		}
		cfg.S3.UsePathStyle = b
	}
	return nil
}

// SQLitePath is the database file used when store.dsn is empty.
func (c Config) SQLitePath() (string, error) {
	if c.Store.DSN != "" {
		return c.Store.DSN, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DatabaseName), nil
}

// Logger builds the process logger. DEBUG=true forces debug level. With
// log_file set, output goes to that file (the TUI owns the terminal); the
// returned closer releases it.
func Logger(cfg Config, stderr io.Writer) (*log.Logger, io.Closer, error) {
	l := log.New()
	l.SetFormatter(&log.TextFormatter{FullTimestamp: true, DisableColors: cfg.LogFile != ""})
	l.SetOutput(stderr)
	l.SetLevel(log.WarnLevel)
	if cfg.LogLevel != "" {
		lvl, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("log_level: %w", err)
		}
		l.SetLevel(lvl)
	}
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		l.SetLevel(log.DebugLevel)
	}
	if cfg.LogFile == "" {
		return l, io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, err
	}
	l.SetOutput(f)
	return l, f, nil
}
