// Package config loads qflip settings from defaults, a YAML file, .env and QFLIP_* variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/qflip/pkg/domain"
	"github.com/aretw0/qflip/pkg/normalize"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no config path is given and the file exists.
const DefaultFile = "qflip.yaml"

// Store drivers.
const (
	StoreNone   = "none"
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config holds application configuration.
type Config struct {
	Shots     int    `mapstructure:"shots" yaml:"shots"`
	Real      bool   `mapstructure:"real" yaml:"real"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	Seed      uint64 `mapstructure:"seed" yaml:"seed"`
	Rounding  string `mapstructure:"rounding" yaml:"rounding"`
	Store     string `mapstructure:"store" yaml:"store"`
	StoreDir  string `mapstructure:"store_dir" yaml:"store_dir"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`

	Redis  RedisConfig  `mapstructure:"redis" yaml:"redis"`
	IBM    IBMConfig    `mapstructure:"ibm" yaml:"ibm"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
}

// RedisConfig configures the redis run store.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// IBMConfig configures the remote hardware gateway.
// The API token is read from QFLIP_IBM_TOKEN or the prompt, never from here.
type IBMConfig struct {
	Instance     string        `mapstructure:"instance" yaml:"instance"`
	Backend      string        `mapstructure:"backend" yaml:"backend"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	AuthURL      string        `mapstructure:"auth_url" yaml:"auth_url"`
	BaseURL      string        `mapstructure:"base_url" yaml:"base_url"`
}

// ServerConfig configures `qflip serve`.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Shots:     1000,
		OutputDir: "results",
		Rounding:  string(normalize.PolicyTruncate),
		Store:     StoreNone,
		LogLevel:  "warn",
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "qflip:run:",
		},
		IBM: IBMConfig{
			PollInterval: 2 * time.Second,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// envKeys maps environment variables to config paths.
var envKeys = map[string]string{
	"QFLIP_SHOTS":             "shots",
	"QFLIP_REAL":              "real",
	"QFLIP_OUTPUT_DIR":        "output_dir",
	"QFLIP_SEED":              "seed",
	"QFLIP_ROUNDING":          "rounding",
	"QFLIP_STORE":             "store",
	"QFLIP_STORE_DIR":         "store_dir",
	"QFLIP_LOG_LEVEL":         "log_level",
	"QFLIP_REDIS_ADDR":        "redis.addr",
	"QFLIP_REDIS_PASSWORD":    "redis.password",
	"QFLIP_REDIS_DB":          "redis.db",
	"QFLIP_REDIS_PREFIX":      "redis.prefix",
	"QFLIP_REDIS_TTL":         "redis.ttl",
	"QFLIP_IBM_INSTANCE":      "ibm.instance",
	"QFLIP_IBM_BACKEND":       "ibm.backend",
	"QFLIP_IBM_POLL_INTERVAL": "ibm.poll_interval",
	"QFLIP_IBM_AUTH_URL":      "ibm.auth_url",
	"QFLIP_IBM_BASE_URL":      "ibm.base_url",
	"QFLIP_SERVER_ADDR":       "server.addr",
}

type options struct {
	file     string
	envFiles []string
	lookup   func(string) (string, bool)
}

// Option configures Load.
type Option func(*options)

// WithFile sets the YAML file. A missing explicit file is an error.
func WithFile(path string) Option {
	return func(o *options) {
		o.file = path
	}
}

// WithEnvFiles sets the dotenv files to load (default ".env"). Missing files are ignored.
func WithEnvFiles(paths ...string) Option {
	return func(o *options) {
		o.envFiles = paths
	}
}

// WithLookup replaces os.LookupEnv, mostly for tests.
func WithLookup(lookup func(string) (string, bool)) Option {
	return func(o *options) {
		o.lookup = lookup
	}
}

// Load builds the configuration: defaults, then the YAML file, then .env and
// QFLIP_* variables. Flags are applied by the caller on top.
func Load(opts ...Option) (*Config, error) {
	o := options{
		envFiles: []string{".env"},
		lookup:   os.LookupEnv,
	}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := Default()

	path, required := o.file, o.file != ""
	if !required {
		path = DefaultFile
	}
	if err := cfg.loadFile(path, required); err != nil {
		return nil, err
	}

	for _, f := range o.envFiles {
		// godotenv never overrides variables that are already set.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	if err := cfg.decode(fromEnv(o.lookup)); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := c.decode(raw); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	return nil
}

// decode merges raw into c; keys absent from raw keep their current value.
func (c *Config) decode(raw map[string]any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			secondsToDuration,
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// secondsToDuration reads bare YAML numbers as seconds.
func secondsToDuration(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	}
	return data, nil
}

func fromEnv(lookup func(string) (string, bool)) map[string]any {
	raw := map[string]any{}
	for env, path := range envKeys {
		val, ok := lookup(env)
		if !ok || val == "" {
			continue
		}
		node := raw
		parts := strings.Split(path, ".")
		for _, p := range parts[:len(parts)-1] {
			next, ok := node[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				node[p] = next
			}
			node = next
		}
		node[parts[len(parts)-1]] = val
	}
	return raw
}

// Validate checks that enumerated settings hold known values.
func (c *Config) Validate() error {
	if c.Shots < 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidShots, c.Shots)
	}
	if _, err := normalize.ParsePolicy(c.Rounding); err != nil {
		return err
	}
	switch c.Store {
	case StoreNone, StoreMemory, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownStore, c.Store)
	}
	if c.IBM.PollInterval <= 0 {
		return fmt.Errorf("ibm.poll_interval must be positive, got %s", c.IBM.PollInterval)
	}
	return nil
}
