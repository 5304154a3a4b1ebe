/*
Package config loads the service configuration.

SOURCES (highest precedence first):
  1. Command-line flags that were set explicitly
  2. Environment variables, prefix VIAJANTE_ (dashes become underscores:
     max-upload-mb -> VIAJANTE_MAX_UPLOAD_MB)
  3. A .env file in the config directory (never overrides the real environment)
  4. viajante.yaml / viajante.json / viajante.toml in the config directory
  5. Defaults below

OPTIONAL INTEGRATIONS:
  An empty redis-addr disables the aggregation cache, an empty amqp-url
  disables import events and an empty watch-path disables the watcher.

SEE ALSO:
  - cmd/server/main.go: registers the flags and calls Load
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/op/go-logging"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/viajante/agency-analytics/api"
)

const (
	// EnvPrefix prefixes every environment variable.
	EnvPrefix = "VIAJANTE"

	configName = "viajante"
)

// Config represents the application's configuration structure.
type Config struct {
	Addr          string        `mapstructure:"addr"`
	DB            string        `mapstructure:"db"`
	LogLevel      string        `mapstructure:"log-level"`
	CORSOrigins   []string      `mapstructure:"cors-origins"`
	MaxUploadMB   int           `mapstructure:"max-upload-mb"`
	RedisAddr     string        `mapstructure:"redis-addr"`
	RedisPassword string        `mapstructure:"redis-password"`
	RedisDB       int           `mapstructure:"redis-db"`
	CacheTTL      time.Duration `mapstructure:"cache-ttl"`
	AMQPURL       string        `mapstructure:"amqp-url"`
	AMQPQueue     string        `mapstructure:"amqp-queue"`
	WatchPath     string        `mapstructure:"watch-path"`
	WatchInterval time.Duration `mapstructure:"watch-interval"`
}

// field: default value
var defaults = map[string]any{
	"addr":           ":8000",
	"db":             "viajante.db",
	"log-level":      "INFO",
	"cors-origins":   slices.Clone(api.DefaultOrigins),
	"max-upload-mb":  32,
	"redis-addr":     "",
	"redis-password": "",
	"redis-db":       0,
	"cache-ttl":      5 * time.Minute,
	"amqp-url":       "",
	"amqp-queue":     "viajante.importacoes",
	"watch-path":     "",
	"watch-interval": time.Minute,
}

// RegisterFlags defines the command-line flags Load understands.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("addr", defaults["addr"].(string), "HTTP listen address")
	fs.String("db", defaults["db"].(string), `SQLite database path (":memory:" for in-memory)`)
	fs.String("log-level", defaults["log-level"].(string), "log level (DEBUG, INFO, WARNING, ERROR)")
	fs.StringSlice("cors-origins", defaults["cors-origins"].([]string), "allowed CORS origins")
	fs.Int("max-upload-mb", defaults["max-upload-mb"].(int), "maximum workbook upload size in MiB")
	fs.String("redis-addr", "", "Redis address for the aggregation cache (empty disables it)")
	fs.Duration("cache-ttl", defaults["cache-ttl"].(time.Duration), "aggregation cache TTL")
	fs.String("amqp-url", "", "RabbitMQ URL for import events (empty disables them)")
	fs.String("amqp-queue", defaults["amqp-queue"].(string), "RabbitMQ queue for import events")
	fs.String("watch-path", "", "workbook file imported whenever it changes (empty disables it)")
	fs.Duration("watch-interval", defaults["watch-interval"].(time.Duration), "how often watch-path is checked")
}

// Load reads the configuration from the working directory.
func Load(flags *pflag.FlagSet) (*Config, error) {
	return LoadFrom(".", flags)
}

// LoadFrom reads the configuration with dir as the config directory.
// flags may be nil.
func LoadFrom(dir string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("could not read .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName(configName)
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("could not bind flags: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the values that have no usable zero value.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("missing required config field: addr")
	}
	if c.DB == "" {
		return fmt.Errorf("missing required config field: db")
	}
	if _, err := logging.LogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log-level %q: %w", c.LogLevel, err)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max-upload-mb must be positive, got %d", c.MaxUploadMB)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache-ttl must be positive, got %v", c.CacheTTL)
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf("watch-interval must be positive, got %v", c.WatchInterval)
	}
	return nil
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
