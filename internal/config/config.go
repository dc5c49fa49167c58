package config

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/caarlos0/env/v10"
)

// Storage and cache driver names.
const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"accounts-service"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8000"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Storage  Storage
	Postgres Postgres
	Cache    Cache
	Security Security
	OAuth    OAuth
}

// Storage selects the user store backend.
type Storage struct {
	Driver string `env:"STORE_DRIVER" envDefault:"postgres"`
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST" envDefault:"localhost"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER" envDefault:""`
	Password string `env:"PG_PASSWORD" envDefault:""`
	Database string `env:"PG_DATABASE" envDefault:""`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// URL renders the connection settings as a postgres:// URL. Credentials
// are percent-encoded.
func (p Postgres) URL() *url.URL {
	q := url.Values{}
	if p.SSLMode != "" {
		q.Set("sslmode", p.SSLMode)
	}
	return &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.Database,
		RawQuery: q.Encode(),
	}
}

// DSN is the connection string for database/sql drivers.
func (p Postgres) DSN() string {
	return p.URL().String()
}

// PoolDSN extends DSN with pgxpool settings.
func (p Postgres) PoolDSN() string {
	u := p.URL()
	q := u.Query()
	if p.MaxConns > 0 {
		q.Set("pool_max_conns", strconv.Itoa(p.MaxConns))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Cache holds configuration for the short-lived key-value store (OAuth2 state).
type Cache struct {
	Driver   string `env:"CACHE_DRIVER" envDefault:"redis"`
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"2"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets and lifetimes for JWT signing.
type Security struct {
	JWTSecret        string        `env:"JWT_SECRET,notEmpty"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET" envDefault:""`
	AccessTTL        time.Duration `env:"JWT_ACCESS_TTL" envDefault:"5m"`
	RefreshTTL       time.Duration `env:"JWT_REFRESH_TTL" envDefault:"24h"`
	Issuer           string        `env:"JWT_ISSUER" envDefault:""`
}

// OAuth holds flow-level OAuth2 settings. Provider credentials are looked up
// live from the environment on every request and are not part of this struct.
type OAuth struct {
	StateTTL     time.Duration `env:"OAUTH2_STATE_TTL" envDefault:"10m"`
	HTTPTimeout  time.Duration `env:"OAUTH2_HTTP_TIMEOUT" envDefault:"10s"`
	RequireState bool          `env:"OAUTH2_REQUIRE_STATE" envDefault:"false"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that only matter for the selected drivers.
func (c *App) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Postgres.User == "" || c.Postgres.Database == "" {
			return fmt.Errorf("PG_USER and PG_DATABASE must be set when STORE_DRIVER=%s", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Storage.Driver)
	}

	switch c.Cache.Driver {
	case DriverRedis:
		if c.Cache.Addr == "" {
			return fmt.Errorf("REDIS_ADDR must be set when CACHE_DRIVER=%s", DriverRedis)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown CACHE_DRIVER %q", c.Cache.Driver)
	}

	if c.OAuth.StateTTL <= 0 {
		return fmt.Errorf("OAUTH2_STATE_TTL must be positive")
	}
	return nil
}
