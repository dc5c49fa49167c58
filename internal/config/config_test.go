package config

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", DriverMemory)
	t.Setenv("CACHE_DRIVER", DriverMemory)

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "accounts-service", cfg.Name)
	assert.Equal(t, 10*time.Minute, cfg.OAuth.StateTTL)
	assert.Equal(t, 10*time.Second, cfg.OAuth.HTTPTimeout)
	assert.False(t, cfg.OAuth.RequireState)
	assert.Equal(t, 5*time.Minute, cfg.Security.AccessTTL)
	assert.Equal(t, 24*time.Hour, cfg.Security.RefreshTTL)
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE_DRIVER", DriverMemory)
	t.Setenv("CACHE_DRIVER", DriverMemory)

	_, err := Load(context.Background())
	assert.Error(t, err)
}

func TestValidate_PostgresRequiresDatabase(t *testing.T) {
	cfg := &App{
		Storage: Storage{Driver: DriverPostgres},
		Cache:   Cache{Driver: DriverMemory},
		OAuth:   OAuth{StateTTL: time.Minute},
	}
	assert.Error(t, cfg.Validate())

	cfg.Postgres.User = "app"
	cfg.Postgres.Database = "accounts"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := &App{
		Storage: Storage{Driver: "sqlite"},
		Cache:   Cache{Driver: DriverMemory},
		OAuth:   OAuth{StateTTL: time.Minute},
	}
	assert.Error(t, cfg.Validate())
}

func TestPostgresDSN(t *testing.T) {
	p := Postgres{Host: "db", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable", MaxConns: 4}
	assert.Equal(t, "postgres://u:p@db:5432/d?sslmode=disable", p.DSN())
	assert.Equal(t, "postgres://u:p@db:5432/d?pool_max_conns=4&sslmode=disable", p.PoolDSN())
}

func TestPostgresDSN_EscapesCredentials(t *testing.T) {
	p := Postgres{
		Host:     "db.internal",
		Port:     6543,
		User:     "app user",
		Password: `p@ss word'"/:?=#`,
		Database: "accounts",
		SSLMode:  "disable",
		MaxConns: 7,
	}

	conn, err := pgx.ParseConfig(p.DSN())
	require.NoError(t, err)
	assert.Equal(t, "db.internal", conn.Host)
	assert.Equal(t, uint16(6543), conn.Port)
	assert.Equal(t, "app user", conn.User)
	assert.Equal(t, `p@ss word'"/:?=#`, conn.Password)
	assert.Equal(t, "accounts", conn.Database)

	pool, err := pgxpool.ParseConfig(p.PoolDSN())
	require.NoError(t, err)
	assert.Equal(t, int32(7), pool.MaxConns)
	assert.Equal(t, `p@ss word'"/:?=#`, pool.ConnConfig.Password)
}
