// Package config loads the Name Server's and Storage Server's
// configuration from layered sources, grounded on the teacher's
// pkg/config: viper for flags/env/file/defaults layering, mapstructure
// tags for decoding, yaml.v3 for the on-disk format, and
// go-playground/validator/v10 struct tags for validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/wolverine07/langos/internal/bytesize"
)

const envPrefix = "LANGOS"

// LoggingConfig controls the structured logger, grounded on the teacher's
// LoggingConfig.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig controls the Prometheus /metrics HTTP endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// CompactionConfig controls the Storage Server's optional quiescence
// modification-log compactor (spec.md §9's invited, off-by-default
// truncation policy).
type CompactionConfig struct {
	Enabled    bool          `mapstructure:"enabled" yaml:"enabled"`
	IdleWindow time.Duration `mapstructure:"idle_window" yaml:"idle_window"`
}

// NameServerConfig is the Name Server's full configuration.
type NameServerConfig struct {
	// ListenAddr is the address clients and Storage Servers connect to.
	ListenAddr string `mapstructure:"listen_addr" validate:"required,hostname_port" yaml:"listen_addr"`

	// DataDir holds the badger-backed metadata store.
	DataDir string `mapstructure:"data_dir" validate:"required" yaml:"data_dir"`

	// InfoCacheSize bounds the number of cached INFO response bodies.
	InfoCacheSize int `mapstructure:"info_cache_size" validate:"omitempty,gt=0" yaml:"info_cache_size"`

	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// StorageServerConfig is a Storage Server's full configuration.
type StorageServerConfig struct {
	// ListenAddr is the address the Storage Server accepts client
	// connections on.
	ListenAddr string `mapstructure:"listen_addr" validate:"required,hostname_port" yaml:"listen_addr"`

	// ClientAddr is advertised to clients and the NM for READ/WRITE routing.
	ClientAddr string `mapstructure:"client_addr" validate:"required,hostname_port" yaml:"client_addr"`

	NMAddr  string `mapstructure:"nm_addr" validate:"required,hostname_port" yaml:"nm_addr"`
	DataDir string `mapstructure:"data_dir" validate:"required" yaml:"data_dir"`

	// MaxMessageSize overrides the wire protocol's frame-size bound.
	// Human-readable ("4Ki", "100Mi") via bytesize.ByteSize.
	MaxMessageSize bytesize.ByteSize `mapstructure:"max_message_size" yaml:"max_message_size,omitempty"`

	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
	Compaction CompactionConfig `mapstructure:"compaction" yaml:"compaction"`
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyCompactionDefaults(cfg *CompactionConfig) {
	if cfg.IdleWindow <= 0 {
		cfg.IdleWindow = 5 * time.Minute
	}
}

// DefaultNameServerConfig returns a NameServerConfig with defaults applied,
// used both for `langos-nm init` and as the fallback when no config file
// exists.
func DefaultNameServerConfig() *NameServerConfig {
	cfg := &NameServerConfig{
		ListenAddr:    "0.0.0.0:8888",
		DataDir:       "/var/lib/langos-nm",
		InfoCacheSize: 256,
	}
	ApplyNameServerDefaults(cfg)
	return cfg
}

// ApplyNameServerDefaults fills in any zero-valued fields.
func ApplyNameServerDefaults(cfg *NameServerConfig) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "0.0.0.0:8888"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "/var/lib/langos-nm"
	}
	if cfg.InfoCacheSize == 0 {
		cfg.InfoCacheSize = 256
	}
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
}

// DefaultStorageServerConfig returns a StorageServerConfig with defaults
// applied.
func DefaultStorageServerConfig() *StorageServerConfig {
	cfg := &StorageServerConfig{
		ListenAddr: "0.0.0.0:9999",
		ClientAddr: "0.0.0.0:9999",
		NMAddr:     "127.0.0.1:8888",
		DataDir:    "/var/lib/langos-ss",
	}
	ApplyStorageServerDefaults(cfg)
	return cfg
}

// ApplyStorageServerDefaults fills in any zero-valued fields.
func ApplyStorageServerDefaults(cfg *StorageServerConfig) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "0.0.0.0:9999"
	}
	if cfg.ClientAddr == "" {
		cfg.ClientAddr = cfg.ListenAddr
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "/var/lib/langos-ss"
	}
	if cfg.MaxMessageSize == 0 {
		cfg.MaxMessageSize = 4 * bytesize.KiB
	}
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
	applyCompactionDefaults(&cfg.Compaction)
}

// LoadNameServerConfig loads a NameServerConfig from configPath (or the
// default search path if empty), applying environment overrides and
// defaults, then validating the result.
func LoadNameServerConfig(configPath string) (*NameServerConfig, error) {
	cfg := DefaultNameServerConfig()
	found, err := loadInto(configPath, "langos-nm", cfg)
	if err != nil {
		return nil, err
	}
	if found {
		ApplyNameServerDefaults(cfg)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// LoadStorageServerConfig loads a StorageServerConfig the same way
// LoadNameServerConfig does.
func LoadStorageServerConfig(configPath string) (*StorageServerConfig, error) {
	cfg := DefaultStorageServerConfig()
	found, err := loadInto(configPath, "langos-ss", cfg)
	if err != nil {
		return nil, err
	}
	if found {
		ApplyStorageServerDefaults(cfg)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// loadInto reads configPath (or searches the default location for
// programName's config file) into dst via viper+mapstructure. Returns
// found=false (and dst untouched beyond its caller-supplied defaults) when
// no config file exists — that is not an error, matching the teacher's
// readConfigFile behavior.
func loadInto(configPath, programName string, dst any) (bool, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(ConfigDir())
		v.SetConfigName(programName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: read config file: %w", err)
	}

	if err := v.Unmarshal(dst, viper.DecodeHook(decodeHooks())); err != nil {
		return false, fmt.Errorf("config: unmarshal: %w", err)
	}
	return true, nil
}

func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// SaveConfig writes cfg to path as YAML, creating parent directories as
// needed. Grounded on the teacher's SaveConfig.
func SaveConfig(cfg any, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write config file: %w", err)
	}
	return nil
}

// ConfigDir returns the directory langos config files live in by default:
// $XDG_CONFIG_HOME/langos, or ~/.config/langos, or "." as a last resort.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "langos")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "langos")
}

// DefaultNameServerConfigPath returns the default path `langos-nm`
// searches for its config file.
func DefaultNameServerConfigPath() string {
	return filepath.Join(ConfigDir(), "langos-nm.yaml")
}

// DefaultStorageServerConfigPath returns the default path `langos-ss`
// searches for its config file.
func DefaultStorageServerConfigPath() string {
	return filepath.Join(ConfigDir(), "langos-ss.yaml")
}

// InitNameServerConfig writes a sample NM config to its default path,
// refusing to overwrite an existing file unless force is set. Grounded on
// the teacher's cmd/dittofs `init` subcommand / config.InitConfig.
func InitNameServerConfig(force bool) (string, error) {
	return InitNameServerConfigToPath(DefaultNameServerConfigPath(), force)
}

// InitNameServerConfigToPath is InitNameServerConfig against an explicit path.
func InitNameServerConfigToPath(path string, force bool) (string, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config: file already exists at %s (use --force to overwrite)", path)
		}
	}
	if err := SaveConfig(DefaultNameServerConfig(), path); err != nil {
		return "", err
	}
	return path, nil
}

// InitStorageServerConfig is InitNameServerConfig's Storage Server
// counterpart.
func InitStorageServerConfig(force bool) (string, error) {
	return InitStorageServerConfigToPath(DefaultStorageServerConfigPath(), force)
}

// InitStorageServerConfigToPath is InitStorageServerConfig against an
// explicit path.
func InitStorageServerConfigToPath(path string, force bool) (string, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config: file already exists at %s (use --force to overwrite)", path)
		}
	}
	if err := SaveConfig(DefaultStorageServerConfig(), path); err != nil {
		return "", err
	}
	return path, nil
}
