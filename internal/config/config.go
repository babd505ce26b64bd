// Package config loads runtime settings from an optional YAML file and the
// environment (a .env file in the working directory is honoured).
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// EnvConfigPath names the variable holding the optional YAML config path.
const EnvConfigPath = "CART_CONFIG_PATH"

// StoreConfig selects and configures the key-value backend.
type StoreConfig struct {
	Mode          string        `yaml:"mode" env:"CART_STORE_MODE" env-default:"auto"`
	URL           string        `yaml:"url" env:"CART_STORE_URL"`
	RedisAddr     string        `yaml:"redis_addr" env:"CART_REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"CART_REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"CART_REDIS_DB" env-default:"0"`
	RedisPrefix   string        `yaml:"redis_prefix" env:"CART_REDIS_PREFIX"`
	BoltPath      string        `yaml:"bolt_path" env:"CART_BOLT_PATH"`
	MockSeed      string        `yaml:"mock_seed" env:"CART_MOCK_SEED"`
	HTTPTimeout   time.Duration `yaml:"http_timeout" env:"CART_STORE_HTTP_TIMEOUT" env-default:"10s"`
	DialTimeout   time.Duration `yaml:"dial_timeout" env:"CART_STORE_DIAL_TIMEOUT" env-default:"5s"`
}

// CartConfig tunes the cart store.
type CartConfig struct {
	StorageKey     string        `yaml:"storage_key" env:"CART_STORAGE_KEY" env-default:"@GoMarketplace:products"`
	HydrateTimeout time.Duration `yaml:"hydrate_timeout" env:"CART_HYDRATE_TIMEOUT" env-default:"5s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"CART_WRITE_TIMEOUT" env-default:"5s"`
	WriteRetries   int           `yaml:"write_retries" env:"CART_WRITE_RETRIES" env-default:"0"`
}

// LoggerConfig mirrors logger.Config.
type LoggerConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Encoding   string `yaml:"encoding" env:"LOG_ENCODING" env-default:"json"`
	TimeFormat string `yaml:"time_format" env:"LOG_TIME_FORMAT" env-default:"2006-01-02T15:04:05.000Z07:00"`
}

// TracingConfig enables the OTLP exporter when Endpoint is set.
type TracingConfig struct {
	Endpoint    string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"OTEL_SERVICE_NAME" env-default:"cart-sdk"`
}

// SandboxConfig is only read by cmd/cart-sandbox.
type SandboxConfig struct {
	Addr string `yaml:"addr" env:"SANDBOX_ADDR" env-default:":8787"`
}

// Config is the full runtime configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Cart    CartConfig    `yaml:"cart"`
	Logger  LoggerConfig  `yaml:"logger"`
	Tracing TracingConfig `yaml:"tracing"`
	Sandbox SandboxConfig `yaml:"sandbox"`
}

// Load reads path (if non-empty and present) and then the environment.
// A missing file is not an error; the environment alone is used instead.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		cfg = Config{}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}
	return &cfg, nil
}

// LoadFromEnv loads using the path found in CART_CONFIG_PATH.
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv(EnvConfigPath))
}
