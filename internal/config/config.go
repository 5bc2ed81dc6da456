// ABOUTME: Configuration loader for the placement client
// ABOUTME: Merges defaults, config.yaml, .env and environment variables

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL        = "http://localhost:8000/api"
	DefaultPollInterval  = 30 * time.Second
	DefaultHTTPTimeout   = 30 * time.Second
	DefaultOfferCacheTTL = 60 * time.Second
	DefaultDevAddr       = "127.0.0.1:8000"

	// Session store backends
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"

	appName  = "placement"
	fileName = "config.yaml"
)

type Config struct {
	APIURL        string
	PollInterval  time.Duration
	HTTPTimeout   time.Duration
	OfferCacheTTL time.Duration

	// Session persistence
	SessionStore string // file, redis, memory (default: file)
	RedisURL     string
	Profile      string // namespaces the redis key (default: "default")

	AllProxy  string // ssh+socks5://user@host:port?private-key=/path
	ConfigDir string

	// Local development backend
	DevAddr   string
	DevSecret string
}

// fileConfig is the on-disk shape of config.yaml.
type fileConfig struct {
	APIURL        string `yaml:"api_url"`
	PollInterval  string `yaml:"poll_interval"`
	HTTPTimeout   string `yaml:"http_timeout"`
	OfferCacheTTL string `yaml:"offer_cache_ttl"`
	SessionStore  string `yaml:"session_store"`
	RedisURL      string `yaml:"redis_url"`
	Profile       string `yaml:"profile"`
	AllProxy      string `yaml:"all_proxy"`
	ConfigDir     string `yaml:"config_dir"`
	DevAddr       string `yaml:"dev_addr"`
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/placement, or ~/.config/placement.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// Load builds the configuration. Later sources win: defaults, the YAML file,
// then environment variables (including .env in the working directory, which
// never overrides variables already set). path names the YAML file; empty
// means config.yaml in the config directory, and a missing default file is
// not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{
		APIURL:        DefaultAPIURL,
		PollInterval:  DefaultPollInterval,
		HTTPTimeout:   DefaultHTTPTimeout,
		OfferCacheTTL: DefaultOfferCacheTTL,
		SessionStore:  StoreFile,
		Profile:       "default",
		ConfigDir:     getEnv("PLACEMENT_CONFIG_DIR", DefaultConfigDir()),
		DevAddr:       DefaultDevAddr,
	}

	explicit := path != ""
	if !explicit && cfg.ConfigDir != "" {
		path = filepath.Join(cfg.ConfigDir, fileName)
	}
	if path != "" {
		if err := cfg.loadFile(path, explicit); err != nil {
			return nil, err
		}
	}

	cfg.APIURL = getEnv("PLACEMENT_API_URL", cfg.APIURL)
	cfg.PollInterval = getEnvDuration("PLACEMENT_POLL_INTERVAL", cfg.PollInterval)
	cfg.HTTPTimeout = getEnvDuration("PLACEMENT_HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.OfferCacheTTL = getEnvDuration("PLACEMENT_OFFER_CACHE_TTL", cfg.OfferCacheTTL)
	cfg.SessionStore = strings.ToLower(getEnv("PLACEMENT_SESSION_STORE", cfg.SessionStore))
	cfg.RedisURL = getEnv("PLACEMENT_REDIS_URL", cfg.RedisURL)
	cfg.Profile = getEnv("PLACEMENT_PROFILE", cfg.Profile)
	cfg.AllProxy = getEnv("PLACEMENT_ALL_PROXY", cfg.AllProxy)
	cfg.DevAddr = getEnv("PLACEMENT_DEV_ADDR", cfg.DevAddr)
	cfg.DevSecret = os.Getenv("PLACEMENT_DEV_SECRET")
	if getEnvBool("PLACEMENT_EPHEMERAL", false) {
		cfg.SessionStore = StoreMemory
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	setString(&c.APIURL, fc.APIURL)
	setString(&c.SessionStore, fc.SessionStore)
	setString(&c.RedisURL, fc.RedisURL)
	setString(&c.Profile, fc.Profile)
	setString(&c.AllProxy, fc.AllProxy)
	setString(&c.ConfigDir, fc.ConfigDir)
	setString(&c.DevAddr, fc.DevAddr)

	for _, d := range []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"poll_interval", fc.PollInterval, &c.PollInterval},
		{"http_timeout", fc.HTTPTimeout, &c.HTTPTimeout},
		{"offer_cache_ttl", fc.OfferCacheTTL, &c.OfferCacheTTL},
	} {
		if d.value == "" {
			continue
		}
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("%s in %s: %w", d.key, path, err)
		}
		*d.dst = v
	}
	return nil
}

// Validate checks values that would otherwise fail later and less clearly.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url must be an http(s) URL, got %q", c.APIURL)
	}

	switch c.SessionStore {
	case StoreFile, StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("PLACEMENT_REDIS_URL is required when session_store is redis")
		}
	default:
		return fmt.Errorf("session_store must be file, redis or memory, got %q", c.SessionStore)
	}

	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"poll_interval", c.PollInterval},
		{"http_timeout", c.HTTPTimeout},
	} {
		if d.value < time.Second {
			return fmt.Errorf("%s must be at least 1s, got %s", d.name, d.value)
		}
	}
	if c.OfferCacheTTL < 0 {
		return fmt.Errorf("offer_cache_ttl must not be negative, got %s", c.OfferCacheTTL)
	}
	return nil
}

// Path returns the default location of config.yaml.
func (c *Config) Path() string {
	if c.ConfigDir == "" {
		return ""
	}
	return filepath.Join(c.ConfigDir, fileName)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts a Go duration ("45s") or a plain number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs := getEnvInt(key, -1); secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
