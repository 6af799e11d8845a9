package decode

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// Default values shared by every entry point that builds a Runner.
const (
	// DefaultWorkers is the number of sentences decoded concurrently.
	DefaultWorkers = 2

	// DefaultMaxHeads is the number of candidate heads the pruner keeps
	// per modifier.
	DefaultMaxHeads = 10

	// DefaultCacheTTLSeconds is how long cached pruning masks stay fresh.
	DefaultCacheTTLSeconds = 3600
)

// Cache backend names accepted in Options.CacheBackend.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
)

var validCacheBackends = map[string]bool{
	CacheNone:   true,
	CacheMemory: true,
	CacheFile:   true,
	CacheRedis:  true,
}

// RedisOptions configures the Redis mask cache backend.
type RedisOptions struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Options configures a Runner. The zero value plus ValidateAndSetDefaults
// gives a sequential-ish decoder with pruning at ten heads per modifier and
// caching disabled.
type Options struct {
	// SingleRoot restricts extracted trees to exactly one root attachment.
	SingleRoot bool `toml:"single_root"`

	// TrainMargin enables cost-augmented decoding: instances carrying a
	// gold vector get the margin added to their scores before decoding.
	TrainMargin bool `toml:"train_margin"`

	// Workers bounds the number of concurrently decoded sentences.
	Workers int `toml:"workers"`

	// MaxHeads caps the candidate heads the pruner keeps per modifier.
	MaxHeads int `toml:"max_heads"`

	// PruneThreshold drops candidates whose marginal falls below this
	// fraction of the modifier's best marginal. Must be in [0, 1).
	PruneThreshold float64 `toml:"prune_threshold"`

	// CacheBackend selects where pruning masks are stored: none, memory,
	// file or redis.
	CacheBackend string `toml:"cache_backend"`

	// CacheDir is the directory for the file backend.
	CacheDir string `toml:"cache_dir"`

	// CacheTTLSeconds is the freshness window for cached masks.
	CacheTTLSeconds int `toml:"cache_ttl_seconds"`

	// Redis configures the redis backend.
	Redis RedisOptions `toml:"redis"`

	// Logger receives decoding diagnostics. Defaults to the standard
	// logger.
	Logger *log.Logger `toml:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the options and fills in defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", o.Workers)
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.MaxHeads < 0 {
		return fmt.Errorf("max_heads must be non-negative, got %d", o.MaxHeads)
	}
	if o.MaxHeads == 0 {
		o.MaxHeads = DefaultMaxHeads
	}
	if o.PruneThreshold < 0 || o.PruneThreshold >= 1 {
		return fmt.Errorf("prune_threshold must be in [0, 1), got %v", o.PruneThreshold)
	}
	if o.CacheBackend == "" {
		o.CacheBackend = CacheNone
	}
	if !validCacheBackends[o.CacheBackend] {
		return fmt.Errorf("unknown cache backend %q", o.CacheBackend)
	}
	if o.CacheBackend == CacheFile && o.CacheDir == "" {
		return fmt.Errorf("cache_dir is required for the file backend")
	}
	if o.CacheBackend == CacheRedis && o.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required for the redis backend")
	}
	if o.CacheTTLSeconds == 0 {
		o.CacheTTLSeconds = DefaultCacheTTLSeconds
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	o.validated = true
	return nil
}

// CacheTTL returns the mask cache TTL as a duration.
func (o *Options) CacheTTL() time.Duration {
	return time.Duration(o.CacheTTLSeconds) * time.Second
}

// LoadOptions reads options from a TOML file and validates them.
func LoadOptions(path string) (Options, error) {
	var o Options
	data, err := os.ReadFile(path)
	if err != nil {
		return o, err
	}
	if err := toml.Unmarshal(data, &o); err != nil {
		return o, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := o.ValidateAndSetDefaults(); err != nil {
		return o, fmt.Errorf("invalid options in %s: %w", path, err)
	}
	return o, nil
}
