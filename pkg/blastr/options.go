package blastr

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	condaBinary string
	channels    []string
	blastEnv    string
	entrezEnv   string
	tempDir     string

	driver   string // "valkey" or "redis", empty = no cache
	addrs    []string
	password string
	cacheTTL time.Duration

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithCondaBinary sets the package manager executable: conda, mamba,
// micromamba or an absolute path. Default: conda.
func WithCondaBinary(bin string) Option {
	return optionFunc(func(c *clientConfig) {
		c.condaBinary = bin
	})
}

// WithChannels sets channels searched before each package's own channel.
func WithChannels(channels ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.channels = channels
	})
}

// WithEnv sets the default environment the aligner runs in.
// Default: blast-env. RunOptions.EnvName overrides it per call.
func WithEnv(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.blastEnv = name
	})
}

// WithEntrezEnv sets the environment efetch runs in. Default: entrez-env.
func WithEntrezEnv(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.entrezEnv = name
	})
}

// WithTempDir sets where query and fetch files are staged.
func WithTempDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.tempDir = dir
	})
}

// WithValkey caches aligner output in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis caches aligner output in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithCacheTTL sets the lifetime of cached aligner output. Zero keeps entries
// until purged.
func WithCacheTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
	})
}

// WithLogger enables structured logging. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
