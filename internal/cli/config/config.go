package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL      = "http://127.0.0.1:8000/api"
	DefaultTimeout      = 10 * time.Second
	DefaultPollInterval = 2 * time.Second
	DefaultStoreDriver  = "file"
	DefaultRedisPrefix  = "ojclient:"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
)

// Config holds CLI configuration.
type Config struct {
	BaseURL     string        `yaml:"baseURL"`
	Timeout     time.Duration `yaml:"timeout"`
	PrettyJSON  *bool         `yaml:"prettyJSON"`
	Color       *bool         `yaml:"color"`
	HistoryFile string        `yaml:"historyFile"`

	// MaxRequestsPerSecond caps outgoing requests; 0 disables pacing.
	MaxRequestsPerSecond float64 `yaml:"maxRequestsPerSecond"`

	Store StoreConfig `yaml:"store"`
	Poll  PollConfig  `yaml:"poll"`
	Log   LogConfig   `yaml:"log"`
}

// StoreConfig selects the durable key-value backend for tokens and preferences.
type StoreConfig struct {
	Driver        string `yaml:"driver"` // file, sqlite, redis
	DSN           string `yaml:"dsn"`    // file path or sqlite dsn
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	Prefix        string `yaml:"prefix"`
}

type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
	MaxPolls int           `yaml:"maxPolls"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	OutputPath string `yaml:"outputPath"`
}

// Load reads path (missing file means defaults), applies OJ_* environment
// overrides and fills defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config file failed: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config file failed: %w", err)
			}
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from files into the process environment
// without overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s failed: %w", f, err)
		}
	}
	return nil
}

// HomeDir is where the CLI keeps its state, history and log files.
func HomeDir() string {
	if dir := os.Getenv("OJ_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ojclient"
	}
	return filepath.Join(home, ".ojclient")
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("OJ_BASE_URL"); ok {
		cfg.BaseURL = v
	}
	if v, ok := os.LookupEnv("OJ_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid OJ_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	if v, ok := os.LookupEnv("OJ_STORE_DRIVER"); ok {
		cfg.Store.Driver = v
	}
	if v, ok := os.LookupEnv("OJ_STORE_DSN"); ok {
		cfg.Store.DSN = v
	}
	if v, ok := os.LookupEnv("OJ_REDIS_ADDR"); ok {
		cfg.Store.RedisAddr = v
	}
	if v, ok := os.LookupEnv("OJ_REDIS_PASSWORD"); ok {
		cfg.Store.RedisPassword = v
	}
	if v, ok := os.LookupEnv("OJ_REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid OJ_REDIS_DB: %w", err)
		}
		cfg.Store.RedisDB = n
	}
	if v, ok := os.LookupEnv("OJ_LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := os.LookupEnv("OJ_POLL_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid OJ_POLL_INTERVAL: %w", err)
		}
		cfg.Poll.Interval = d
	}
	return nil
}

func applyDefaults(cfg *Config) {
	home := HomeDir()
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PrettyJSON == nil {
		value := true
		cfg.PrettyJSON = &value
	}
	if cfg.Color == nil {
		value := true
		cfg.Color = &value
	}
	if cfg.HistoryFile == "" {
		cfg.HistoryFile = filepath.Join(home, "history")
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DefaultStoreDriver
	}
	if cfg.Store.DSN == "" {
		switch cfg.Store.Driver {
		case "sqlite":
			cfg.Store.DSN = filepath.Join(home, "state.db")
		case "file":
			cfg.Store.DSN = filepath.Join(home, "state.json")
		}
	}
	if cfg.Store.Driver == "redis" {
		if cfg.Store.RedisAddr == "" {
			cfg.Store.RedisAddr = "127.0.0.1:6379"
		}
		if cfg.Store.Prefix == "" {
			cfg.Store.Prefix = DefaultRedisPrefix
		}
	}
	if cfg.Poll.Interval == 0 {
		cfg.Poll.Interval = DefaultPollInterval
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Log.OutputPath == "" {
		cfg.Log.OutputPath = filepath.Join(home, "cli.log")
	}
}
