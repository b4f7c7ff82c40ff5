// Package config loads hbnb configuration from flags, environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hbnb/hbnb/internal/metrics"
	"github.com/hbnb/hbnb/internal/store"
	"github.com/hbnb/hbnb/internal/store/file"
	"github.com/hbnb/hbnb/pkg/hbnb"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment variable, e.g. HBNB_STORAGE_TYPE.
const EnvPrefix = "HBNB"

// Config keys.
const (
	KeyStorageType    = "storage.type"
	KeyStoragePath    = "storage.path"
	KeyStorageDir     = "storage.dir"
	KeyServerPort     = "server.port"
	KeyLogLevel       = "log.level"
	KeyTracingEnabled = "tracing.enabled"
)

// DefaultPort is the web server port.
const DefaultPort = 5000

// Config is the complete hbnb configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// StorageConfig selects the object store backend.
type StorageConfig struct {
	Type string `mapstructure:"type"`
	Path string `mapstructure:"path"`
	Dir  string `mapstructure:"dir"`
}

// ServerConfig configures the web server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// TracingConfig toggles OpenTelemetry export.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// New returns a viper instance with defaults and environment binding set.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyStorageType, store.TypeFile)
	v.SetDefault(KeyStoragePath, file.DefaultPath)
	v.SetDefault(KeyStorageDir, "")
	v.SetDefault(KeyServerPort, DefaultPort)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyTracingEnabled, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// AddStorageFlags registers the storage flags on flags and binds them to v.
func AddStorageFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.String("storage-type", store.TypeFile, "Storage backend (file, badger)")
	flags.String("storage-path", file.DefaultPath, "JSON file of the file backend")
	flags.String("storage-dir", "", "Data directory of the badger backend")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")

	_ = v.BindPFlag(KeyStorageType, flags.Lookup("storage-type"))
	_ = v.BindPFlag(KeyStoragePath, flags.Lookup("storage-path"))
	_ = v.BindPFlag(KeyStorageDir, flags.Lookup("storage-dir"))
	_ = v.BindPFlag(KeyLogLevel, flags.Lookup("log-level"))
}

// AddServerFlags registers the server flags on flags and binds them to v.
func AddServerFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.Int("port", DefaultPort, "Web server port")
	flags.Bool("tracing", false, "Export OpenTelemetry traces and metrics to stderr")

	_ = v.BindPFlag(KeyServerPort, flags.Lookup("port"))
	_ = v.BindPFlag(KeyTracingEnabled, flags.Lookup("tracing"))
}

// Load reads cfgFile, or hbnb.yaml from the working directory when cfgFile
// is empty, and returns the validated configuration. A missing default file
// is not an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("hbnb")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case store.TypeFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("%w: %s is required", hbnb.ErrInvalidInput, KeyStoragePath)
		}
	case store.TypeBadger:
		if c.Storage.Dir == "" {
			return fmt.Errorf("%w: %s is required for badger storage", hbnb.ErrInvalidInput, KeyStorageDir)
		}
	default:
		return fmt.Errorf("%w: unknown storage type %q", hbnb.ErrInvalidInput, c.Storage.Type)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid port %d", hbnb.ErrInvalidInput, c.Server.Port)
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", hbnb.ErrInvalidInput, err)
	}
	return nil
}

// Addr returns the web server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// StoreConfig returns the store settings for store.Open.
func (c *Config) StoreConfig(collector *metrics.Collector, logger *zap.Logger) store.Config {
	return store.Config{
		Type:    c.Storage.Type,
		Path:    c.Storage.Path,
		Dir:     c.Storage.Dir,
		Metrics: collector,
		Logger:  logger,
	}
}

// NewLogger builds a production zap logger at the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
