package cloudserver

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every server environment variable
const EnvPrefix = "FOODPIN_CLOUD_"

// MemoryDatabase selects the in-process repository instead of Postgres
const MemoryDatabase = "memory"

// Config holds the record server settings
type Config struct {
	Addr        string      `env:"ADDR" envDefault:":8080"`
	DatabaseURL string      `env:"DATABASE_URL" envDefault:"memory"`
	Tokens      []string    `env:"TOKENS" envSeparator:","`
	LogLevel    string      `env:"LOG_LEVEL" envDefault:"INFO"`
	MinIO       MinIOConfig `envPrefix:"MINIO_"`
}

// MinIOConfig locates the bucket holding record assets.
// An empty Endpoint disables asset URLs.
type MinIOConfig struct {
	Endpoint      string        `env:"ENDPOINT"`
	AccessKey     string        `env:"ACCESS_KEY"`
	SecretKey     string        `env:"SECRET_KEY"`
	Bucket        string        `env:"BUCKET" envDefault:"foodpin-assets"`
	UseSSL        bool          `env:"USE_SSL" envDefault:"false"`
	PresignExpiry time.Duration `env:"PRESIGN_EXPIRY" envDefault:"15m"`
}

// LoadConfig reads the configuration from the process environment
func LoadConfig() (Config, error) {
	return loadConfig(nil)
}

// loadConfig parses environ instead of the process environment when non-nil
func loadConfig(environ map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{Prefix: EnvPrefix, Environment: environ}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
