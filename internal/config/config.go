// Package config loads the optional turing.yaml configuration file.
package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no explicit path is given and it exists.
const DefaultFile = "turing.yaml"

// EnvEncryptionKey overrides encryption.key so the key can stay out of the file.
const EnvEncryptionKey = "TURING_ENCRYPTION_KEY"

// Config holds every tunable of the CLI and its adapters.
type Config struct {
	MemorySize    int        `mapstructure:"memsize" yaml:"memsize"`
	InitialSymbol string     `mapstructure:"initsymbol" yaml:"initsymbol"`
	MaxMemorySize int        `mapstructure:"max_memsize" yaml:"max_memsize"`
	Window        int        `mapstructure:"window" yaml:"window"`
	SessionDir    string     `mapstructure:"session_dir" yaml:"session_dir"`
	Redis         Redis      `mapstructure:"redis" yaml:"redis"`
	Encryption    Encryption `mapstructure:"encryption" yaml:"encryption"`
	Debug         bool       `mapstructure:"debug" yaml:"debug"`
}

// Redis configures the Redis snapshot store. An empty URL selects the file store.
type Redis struct {
	URL    string        `mapstructure:"url" yaml:"url"`
	Prefix string        `mapstructure:"prefix" yaml:"prefix"`
	TTL    time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// Encryption seals checkpoints with AES-256-GCM when Key is set.
// Keys are base64 encoded 32-byte values; FallbackKeys only decrypt.
type Encryption struct {
	Key          string   `mapstructure:"key" yaml:"key"`
	FallbackKeys []string `mapstructure:"fallback_keys" yaml:"fallback_keys"`
}

// Enabled reports whether checkpoints are encrypted.
func (e Encryption) Enabled() bool { return e.Key != "" }

// Keys decodes the active and fallback keys.
func (e Encryption) Keys() (active []byte, fallback [][]byte, err error) {
	if active, err = decodeKey(e.Key); err != nil {
		return nil, nil, fmt.Errorf("encryption.key: %w", err)
	}
	for i, k := range e.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("encryption.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MemorySize:    1000,
		InitialSymbol: "0",
		MaxMemorySize: 1 << 24,
		Window:        50,
		SessionDir:    ".turing/sessions",
		Redis: Redis{
			Prefix: "turing:session:",
		},
	}
}

// Load reads the file at path over the defaults. With an empty path, DefaultFile
// is used if present and the defaults otherwise. EnvEncryptionKey, when set,
// replaces encryption.key.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if cfg, err = Decode(bytes.NewReader(data)); err != nil {
			return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
		}
	case !explicit && errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if key := os.Getenv(EnvEncryptionKey); key != "" {
		cfg.Encryption.Key = key
		if err := cfg.Validate(); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// Decode parses YAML (or JSON) from r over the defaults. Values are weakly
// typed, so memsize: "1000" and ttl: 1h are both accepted.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()

	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return Config{}, err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.MemorySize <= 0 {
		errs = append(errs, fmt.Errorf("memsize must be positive, got %d", c.MemorySize))
	}
	if c.MaxMemorySize <= 0 {
		errs = append(errs, fmt.Errorf("max_memsize must be positive, got %d", c.MaxMemorySize))
	}
	if len([]rune(c.InitialSymbol)) != 1 {
		errs = append(errs, fmt.Errorf("initsymbol must be a single character, got %q", c.InitialSymbol))
	}
	if c.Window < 0 {
		errs = append(errs, fmt.Errorf("window cannot be negative, got %d", c.Window))
	}
	if c.Redis.TTL < 0 {
		errs = append(errs, fmt.Errorf("redis.ttl cannot be negative, got %s", c.Redis.TTL))
	}
	if c.Encryption.Enabled() {
		if _, _, err := c.Encryption.Keys(); err != nil {
			errs = append(errs, err)
		}
	} else if len(c.Encryption.FallbackKeys) > 0 {
		errs = append(errs, errors.New("encryption.fallback_keys requires encryption.key"))
	}
	return errors.Join(errs...)
}
