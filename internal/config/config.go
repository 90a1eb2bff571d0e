package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/villabioinfo/BLASTr/internal/domain"
)

// Config holds the blastr configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Tools   ToolsConfig   `yaml:"tools"`
	Search  SearchConfig  `yaml:"search"`
	Cache   CacheConfig   `yaml:"cache"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ToolsConfig holds package manager and environment settings.
type ToolsConfig struct {
	CondaBinary string   `yaml:"conda_binary"` // conda, mamba, micromamba
	Channels    []string `yaml:"channels"`
	BlastEnv    string   `yaml:"blast_env"`
	EntrezEnv   string   `yaml:"entrez_env"`
	TempDir     string   `yaml:"temp_dir"`
}

// SearchConfig holds default search parameters. Nil cutoffs take the
// built-in defaults so that 0 stays a valid explicit value.
type SearchConfig struct {
	Database        string   `yaml:"database"`
	PercentIdentity *float64 `yaml:"percent_identity"`
	QueryCoverage   *float64 `yaml:"query_coverage"`
	MaxAlignments   int      `yaml:"max_alignments"`
	Threads         int      `yaml:"threads"`
	Workers         int      `yaml:"workers"`
	TimeoutSec      int      `yaml:"timeout_sec"` // 0 = none
	Columns         string   `yaml:"columns"`
}

// CacheConfig holds aligner result cache settings. Empty addrs disables the cache.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // redis, valkey
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	TTLSec           int      `yaml:"ttl_sec"` // 0 = no expiry
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a cache store is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLSec) * time.Second }

// Timeout returns the per-search timeout.
func (s SearchConfig) Timeout() time.Duration { return time.Duration(s.TimeoutSec) * time.Second }

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from a YAML file.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault is Load that falls back to defaults when the file is missing.
func LoadOrDefault(env string) (Config, error) {
	cfg, err := Load(env)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Default returns a configuration with every field at its default.
func Default() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	d := domain.DefaultSearchConfig()

	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// searches answer synchronously
		c.HTTP.WriteTimeoutSec = 600
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Tools.CondaBinary == "" {
		c.Tools.CondaBinary = "conda"
	}
	if c.Tools.BlastEnv == "" {
		c.Tools.BlastEnv = d.EnvName
	}
	if c.Tools.EntrezEnv == "" {
		c.Tools.EntrezEnv = "entrez-env"
	}
	if c.Search.PercentIdentity == nil {
		v := d.PercentIdentity
		c.Search.PercentIdentity = &v
	}
	if c.Search.QueryCoverage == nil {
		v := d.QueryCoverage
		c.Search.QueryCoverage = &v
	}
	if c.Search.MaxAlignments <= 0 {
		c.Search.MaxAlignments = d.MaxAlignments
	}
	if c.Search.Threads <= 0 {
		c.Search.Threads = d.Threads
	}
	if c.Search.Workers <= 0 {
		c.Search.Workers = d.Workers
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "redis"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Tools.CondaBinary {
	case "conda", "mamba", "micromamba":
	default:
		if !filepath.IsAbs(c.Tools.CondaBinary) {
			return fmt.Errorf("tools.conda_binary must be conda, mamba, micromamba or an absolute path, got %q",
				c.Tools.CondaBinary)
		}
	}
	if p := *c.Search.PercentIdentity; p < 0 || p > 100 {
		return fmt.Errorf("search.percent_identity must be between 0 and 100, got %v", p)
	}
	if q := *c.Search.QueryCoverage; q < 0 || q > 100 {
		return fmt.Errorf("search.query_coverage must be between 0 and 100, got %v", q)
	}
	if c.Search.TimeoutSec < 0 {
		return fmt.Errorf("search.timeout_sec must be >= 0, got %d", c.Search.TimeoutSec)
	}
	switch c.Cache.Driver {
	case "redis", "valkey":
	default:
		return fmt.Errorf("cache.driver must be \"redis\" or \"valkey\", got %q", c.Cache.Driver)
	}
	if c.Cache.TTLSec < 0 {
		return fmt.Errorf("cache.ttl_sec must be >= 0, got %d", c.Cache.TTLSec)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
