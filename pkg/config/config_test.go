package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "cotizador-api", cfg.App.Name)
	assert.Equal(t, 3, cfg.Quote.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.Outbox.InitialBackoff)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_Entorno(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("OUTBOX_POLL_INTERVAL", "250ms")
	t.Setenv("OUTBOX_LOCK_TIMEOUT", "45")
	t.Setenv("QUOTE_CURRENCY", "USD")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Outbox.PollInterval)
	assert.Equal(t, 45*time.Second, cfg.Outbox.LockTimeout)
	assert.Equal(t, "USD", cfg.Quote.DefaultCurrency)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_ProduccionSinSecreto(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestDSN_EscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:w/rd", DBName: "cotizador", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aw%2Frd@db:5432/cotizador?sslmode=disable", c.DSN())
}
