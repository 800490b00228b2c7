// Package config loads command line settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/zoobzio/faultline"
	"github.com/zoobzio/faultline/internal/logger"
)

// Codecs the command line can read and write.
var Codecs = []string{"json", "yaml", "msgpack", "bson"}

// Config is the root configuration.
type Config struct {
	Log             logger.LogConfig  `mapstructure:"log" yaml:"log"`
	Codec           string            `mapstructure:"codec" yaml:"codec"`
	MaxDepth        int               `mapstructure:"max_depth" yaml:"max_depth"`
	ReceiveMaxDepth int               `mapstructure:"receive_max_depth" yaml:"receive_max_depth"`
	Store           StoreConfig       `mapstructure:"store" yaml:"store"`
	Fingerprint     FingerprintConfig `mapstructure:"fingerprint" yaml:"fingerprint"`
	Send            SendConfig        `mapstructure:"send" yaml:"send"`
}

// StoreConfig locates the error journal.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"` // empty means ~/.faultline/journal.db
}

// FingerprintConfig picks the digest used to group errors.
type FingerprintConfig struct {
	Algorithm string `mapstructure:"algorithm" yaml:"algorithm"`
}

// SendConfig lists the masks and redactions applied to outgoing payloads.
// Rules are lists rather than maps because viper lowercases map keys.
type SendConfig struct {
	Mask   []MaskRule   `mapstructure:"mask" yaml:"mask"`
	Redact []RedactRule `mapstructure:"redact" yaml:"redact"`
}

// MaskRule masks the values of every key named Key.
type MaskRule struct {
	Key  string `mapstructure:"key" yaml:"key"`
	Type string `mapstructure:"type" yaml:"type"`
}

// RedactRule replaces the values of every key named Key.
type RedactRule struct {
	Key         string `mapstructure:"key" yaml:"key"`
	Replacement string `mapstructure:"replacement" yaml:"replacement"`
}

var (
	globalConfig *Config
	configPath   string
	mu           sync.RWMutex
)

// Load reads configuration with precedence ENV > file > defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	SetDefaults()

	viper.SetEnvPrefix("FAULTLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return nil, err
		}
		configPath = expanded

		viper.SetConfigFile(expanded)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			var pathErr *os.PathError
			if !errors.As(err, &pathErr) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", expanded, err)
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Validate checks names that only make sense from a fixed set.
func (c *Config) Validate() error {
	if !isCodec(c.Codec) {
		return fmt.Errorf("unknown codec %q (want one of %s)", c.Codec, strings.Join(Codecs, ", "))
	}
	if !faultline.IsValidHashAlgo(faultline.HashAlgo(c.Fingerprint.Algorithm)) {
		return fmt.Errorf("unknown fingerprint algorithm %q", c.Fingerprint.Algorithm)
	}
	for _, rule := range c.Send.Mask {
		if rule.Key == "" {
			return errors.New("mask rule without key")
		}
		if !faultline.IsValidMaskType(faultline.MaskType(rule.Type)) {
			return fmt.Errorf("unknown mask type %q for key %s", rule.Type, rule.Key)
		}
	}
	for _, rule := range c.Send.Redact {
		if rule.Key == "" {
			return errors.New("redact rule without key")
		}
	}
	return nil
}

// JournalPath returns the configured journal path with ~ expanded, or the
// default path when none is set.
func (c *Config) JournalPath() (string, error) {
	if c.Store.Path == "" {
		return DefaultJournalPath()
	}
	return ExpandPath(c.Store.Path)
}

func isCodec(name string) bool {
	for _, c := range Codecs {
		if c == name {
			return true
		}
	}
	return false
}

// GetConfig returns the last loaded configuration.
func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return globalConfig
}

// Set changes one key and persists it when a file was loaded.
func Set(key string, value any) error {
	mu.Lock()
	defer mu.Unlock()

	viper.Set(key, value)
	if configPath != "" {
		return save()
	}
	return nil
}

// Save writes the current settings to the loaded file.
func Save() error {
	mu.Lock()
	defer mu.Unlock()
	return save()
}

func save() error {
	if configPath == "" {
		return errors.New("config path not set")
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0600)
}

// SaveTo writes cfg to path as YAML.
func SaveTo(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Reset clears loaded state. Tests call it between cases.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	configPath = ""
	viper.Reset()
}
