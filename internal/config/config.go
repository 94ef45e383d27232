package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	ResetBackendDB    = "db"
	ResetBackendRedis = "redis"
)

type Config struct {
	Port string `env:"PORT,default=8080"`

	DBDriver    string `env:"DB_DRIVER,default=sqlite"`
	DatabaseURL string `env:"DB_DSN"`
	SQLitePath  string `env:"SQLITE_PATH,default=rewards.db"`

	JWTSecret     string        `env:"JWT_SECRET"`
	TokenTTL      time.Duration `env:"TOKEN_TTL,default=30m"`
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL,default=24h"`
	BcryptCost    int           `env:"BCRYPT_COST,default=10"`

	ResetTokenBackend  string `env:"RESET_TOKEN_BACKEND,default=db"`
	RedisAddr          string `env:"REDIS_ADDR"`
	RedisPassword      string `env:"REDIS_PASSWORD"`
	ResetNotifier      string `env:"RESET_NOTIFIER,default=noop"`
	ResetNotifierToken string `env:"RESET_NOTIFIER_TOKEN"`
	PurgeSchedule      string `env:"PURGE_SCHEDULE,default=@every 1h"`

	RateLimitPerMinute        int  `env:"RATE_LIMIT_PER_MIN,default=120"`
	RateLimitBurst            int  `env:"RATE_LIMIT_BURST,default=30"`
	AccountRateLimitPerMinute int  `env:"ACCOUNT_RATE_LIMIT_PER_MIN,default=10"`
	AccountRateLimitBurst     int  `env:"ACCOUNT_RATE_LIMIT_BURST,default=5"`
	TrustProxyHeaders         bool `env:"TRUST_PROXY_HEADERS,default=false"`

	CORSOrigins string `env:"CORS_ORIGINS"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `env:"OTEL_EXPORTER_OTLP_INSECURE,default=false"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.DBDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DB_DSN is required when DB_DRIVER=postgres")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when DB_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.ResetTokenBackend {
	case ResetBackendDB:
	case ResetBackendRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required when RESET_TOKEN_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unsupported RESET_TOKEN_BACKEND %q", c.ResetTokenBackend)
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.ResetTokenTTL <= 0 {
		return errors.New("RESET_TOKEN_TTL must be positive")
	}
	return nil
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
