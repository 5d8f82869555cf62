// Package config loads the corebot configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
	StoreBadger = "badger"
)

// Config is the full configuration.
type Config struct {
	CLU    CLUConfig    `yaml:"clu"`
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Locale LocaleConfig `yaml:"locale"`
	Log    LogConfig    `yaml:"log"`
}

// CLUConfig mirrors the four settings of the language service.
type CLUConfig struct {
	ProjectName    string        `yaml:"project_name"`
	DeploymentName string        `yaml:"deployment_name"`
	APIKey         string        `yaml:"api_key"`
	APIHostName    string        `yaml:"api_host_name"`
	Timeout        time.Duration `yaml:"timeout"`
}

// Configured reports whether every CLU setting is present.
func (c CLUConfig) Configured() bool {
	return c.ProjectName != "" && c.DeploymentName != "" && c.APIKey != "" && c.APIHostName != ""
}

// ServerConfig configures `corebot serve`.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	RateLimit       int           `yaml:"rate_limit"`
	RateWindow      time.Duration `yaml:"rate_window"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Welcome         bool          `yaml:"welcome"`
}

// StoreConfig selects and configures the stack store.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	// Path is the directory (file, badger) or database file (sqlite).
	Path string        `yaml:"path"`
	TTL  time.Duration `yaml:"ttl"`

	Redis RedisConfig `yaml:"redis"`

	// EncryptionKey is a base64 AES-256 key; empty disables encryption.
	EncryptionKey string   `yaml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys"`
	PIIKeys       []string `yaml:"pii_keys"`
}

// RedisConfig configures the Redis store and locker.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

// LocaleConfig selects the resource catalog.
type LocaleConfig struct {
	// Dir holds <tag>.yaml files; empty uses the embedded catalog.
	Dir      string `yaml:"dir"`
	Fallback string `yaml:"fallback"`
	Watch    bool   `yaml:"watch"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		CLU: CLUConfig{Timeout: 10 * time.Second},
		Server: ServerConfig{
			Addr:            ":8080",
			RateLimit:       600,
			RateWindow:      time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Backend: StoreMemory,
			Redis: RedisConfig{
				Addr:    "localhost:6379",
				Prefix:  "corebot:session:",
				LockTTL: 30 * time.Second,
			},
		},
		Locale: LocaleConfig{Fallback: "en-US"},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads path (when non-empty) over the defaults, then applies the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from environment variables. The CLU settings keep
// their historical names (CluProjectName, ...); everything else is COREBOT_*.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(dst *string, names ...string) {
		for _, name := range names {
			if v, ok := lookup(name); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	var errs []error
	dur := func(dst *time.Duration, name string) {
		if v, ok := lookup(name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = d
		}
	}
	integer := func(dst *int, name string) {
		if v, ok := lookup(name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(dst *bool, name string) {
		if v, ok := lookup(name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = b
		}
	}

	str(&c.CLU.ProjectName, "CluProjectName", "COREBOT_CLU_PROJECT_NAME")
	str(&c.CLU.DeploymentName, "CluDeploymentName", "COREBOT_CLU_DEPLOYMENT_NAME")
	str(&c.CLU.APIKey, "CluAPIKey", "COREBOT_CLU_API_KEY")
	str(&c.CLU.APIHostName, "CluAPIHostName", "COREBOT_CLU_API_HOST_NAME")
	dur(&c.CLU.Timeout, "COREBOT_CLU_TIMEOUT")

	str(&c.Server.Addr, "COREBOT_ADDR")
	integer(&c.Server.RateLimit, "COREBOT_RATE_LIMIT")
	boolean(&c.Server.Welcome, "COREBOT_WELCOME")

	str(&c.Store.Backend, "COREBOT_STORE")
	str(&c.Store.Path, "COREBOT_STORE_PATH")
	dur(&c.Store.TTL, "COREBOT_STORE_TTL")
	str(&c.Store.Redis.Addr, "COREBOT_REDIS_ADDR")
	str(&c.Store.Redis.Password, "COREBOT_REDIS_PASSWORD")
	integer(&c.Store.Redis.DB, "COREBOT_REDIS_DB")
	str(&c.Store.EncryptionKey, "COREBOT_ENCRYPTION_KEY")
	if v, ok := lookup("COREBOT_PII_KEYS"); ok && v != "" {
		c.Store.PIIKeys = splitList(v)
	}

	str(&c.Locale.Dir, "COREBOT_LOCALE_DIR")
	str(&c.Locale.Fallback, "COREBOT_LOCALE_FALLBACK")
	str(&c.Log.Level, "COREBOT_LOG_LEVEL")

	return errors.Join(errs...)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	switch c.Store.Backend {
	case StoreMemory, StoreRedis:
	case StoreFile, StoreSQLite, StoreBadger:
		if c.Store.Path == "" && c.Store.Backend == StoreSQLite {
			errs = append(errs, errors.New("store.path is required for sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	if c.Store.Backend == StoreRedis && c.Store.Redis.Addr == "" {
		errs = append(errs, errors.New("store.redis.addr is required for redis"))
	}
	if c.Store.TTL < 0 {
		errs = append(errs, errors.New("store.ttl must not be negative"))
	}
	for _, k := range c.Store.PIIKeys {
		if _, err := regexp.Compile(k); err != nil {
			errs = append(errs, fmt.Errorf("store.pii_keys: %w", err))
		}
	}

	cluSet := 0
	for _, v := range []string{c.CLU.ProjectName, c.CLU.DeploymentName, c.CLU.APIKey, c.CLU.APIHostName} {
		if v != "" {
			cluSet++
		}
	}
	if cluSet > 0 && cluSet < 4 {
		errs = append(errs, errors.New("clu: project_name, deployment_name, api_key and api_host_name must be set together"))
	}

	if c.Server.RateLimit < 0 {
		errs = append(errs, errors.New("server.rate_limit must not be negative"))
	}
	if c.Locale.Fallback == "" {
		errs = append(errs, errors.New("locale.fallback is required"))
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
