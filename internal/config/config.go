package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// devSecret signs session cookies when SECRET is unset outside production.
const devSecret = "wanderlust-dev-secret"

type Config struct {
	DatabaseURL string `env:"ATLASDB_URL"`
	Secret      string `env:"SECRET"`
	MapToken    string `env:"MAP_TOKEN"`
	Port        string `env:"PORT,default=8080"`
	Env         string `env:"NODE_ENV,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	LogFormat   string `env:"LOG_FORMAT,default=text"`
	DBName      string `env:"DB_NAME,default=wanderlust"`
	DBSchema    string `env:"DB_SCHEMA,default=wanderlust"`
	// Honour X-Forwarded-For / X-Real-IP only when a proxy sets them.
	TrustProxy bool `env:"TRUST_PROXY,default=false"`
	// Cron spec for purging expired sessions from relational stores.
	SweepSpec string `env:"SESSION_SWEEP_SPEC,default=@hourly"`
}

// Load reads .env (outside production) and then the process environment.
func Load() (Config, error) {
	if os.Getenv("NODE_ENV") != "production" {
		_ = godotenv.Load()
	}

	var c Config
	if err := envdecode.Decode(&c); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return c, fmt.Errorf("config: decode env: %w", err)
	}
	if c.Secret == "" && !c.IsProduction() {
		c.Secret = devSecret
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if c.Secret == "" {
		return errors.New("config: SECRET is required in production")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

func (c Config) IsProduction() bool { return c.Env == "production" }

func (c Config) Addr() string { return ":" + c.Port }
