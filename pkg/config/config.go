package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App    AppConfig
	DB     DBConfig
	JWT    JWTConfig
	HTTP   HTTPConfig
	Redis  RedisConfig
	SMTP   SMTPConfig
	Push   PushConfig
	Outbox OutboxConfig
	Quote  QuoteConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env           string // development, staging, production
	Name          string
	LogLevel      string
	Language      string // BCP 47 para montos en plantillas y PDF
	PublicBaseURL string // base del enlace que recibe el cliente (…/<token>)
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
	MinConns    int
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN connection string con URL encoding para caracteres especiales en la contraseña.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     string
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig idempotencia de entregas y lock del barrido de vencimientos. Addr vacío = en memoria.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SMTPConfig canal email. Host vacío = canal email deshabilitado.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

// PushConfig canal push vía webhook. URL vacía = canal push deshabilitado.
type PushConfig struct {
	WebhookURL string
	Token      string
	Timeout    time.Duration
}

// OutboxConfig sondeo y reintentos del dispatcher de notificaciones.
type OutboxConfig struct {
	BatchSize      int
	PollInterval   time.Duration
	LockTimeout    time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// QuoteConfig reglas de negocio de cotizaciones.
type QuoteConfig struct {
	MaxRetries          int
	DefaultValidityDays int
	DefaultCurrency     string
	NumberPrefix        string
	ExpireBatch         int
	ExpireInterval      time.Duration // 0 = sin barrido automático en el API
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, JWT_SECRET, SMTP_HOST, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // opcional

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:           getString(v, "APP_ENV", "development"),
			Name:          getString(v, "APP_NAME", "cotizador-api"),
			LogLevel:      getString(v, "LOG_LEVEL", "info"),
			Language:      getString(v, "APP_LANGUAGE", "es-CO"),
			PublicBaseURL: getString(v, "PUBLIC_BASE_URL", "http://localhost:8080/public/quotations"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "cotizador"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 25),
			MinConns:    getInt(v, "DB_MIN_CONNS", 2),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "cotizador-api"),
		},
		HTTP: HTTPConfig{
			Host:            getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:            getInt(v, "HTTP_PORT", 8080),
			ReadTimeout:     getDuration(v, "HTTP_READ_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getDuration(v, "HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
			CORSOrigins:     getString(v, "CORS_ORIGINS", "*"),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", ""),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
		SMTP: SMTPConfig{
			Host:     getString(v, "SMTP_HOST", ""),
			Port:     getInt(v, "SMTP_PORT", 587),
			User:     getString(v, "SMTP_USER", ""),
			Password: getString(v, "SMTP_PASSWORD", ""),
			From:     getString(v, "SMTP_FROM", "cotizaciones@localhost"),
			FromName: getString(v, "SMTP_FROM_NAME", "Cotizador"),
		},
		Push: PushConfig{
			WebhookURL: getString(v, "PUSH_WEBHOOK_URL", ""),
			Token:      getString(v, "PUSH_TOKEN", ""),
			Timeout:    getDuration(v, "PUSH_TIMEOUT", 5*time.Second),
		},
		Outbox: OutboxConfig{
			BatchSize:      getInt(v, "OUTBOX_BATCH_SIZE", 50),
			PollInterval:   getDuration(v, "OUTBOX_POLL_INTERVAL", time.Second),
			LockTimeout:    getDuration(v, "OUTBOX_LOCK_TIMEOUT", 30*time.Second),
			MaxAttempts:    getInt(v, "OUTBOX_MAX_ATTEMPTS", 10),
			InitialBackoff: getDuration(v, "OUTBOX_INITIAL_BACKOFF", 5*time.Second),
			MaxBackoff:     getDuration(v, "OUTBOX_MAX_BACKOFF", 10*time.Minute),
		},
		Quote: QuoteConfig{
			MaxRetries:          getInt(v, "QUOTE_MAX_RETRIES", 3),
			DefaultValidityDays: getInt(v, "QUOTE_VALIDITY_DAYS", 30),
			DefaultCurrency:     getString(v, "QUOTE_CURRENCY", "COP"),
			NumberPrefix:        getString(v, "QUOTE_NUMBER_PREFIX", "COT"),
			ExpireBatch:         getInt(v, "QUOTE_EXPIRE_BATCH", 200),
			ExpireInterval:      getDuration(v, "QUOTE_EXPIRE_INTERVAL", 0),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate revisa combinaciones que harían fallar el arranque más adelante.
func (c *Config) Validate() error {
	var errs []error
	if c.App.Env == "production" && c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET es obligatorio en producción"))
	}
	if c.Quote.MaxRetries < 1 {
		errs = append(errs, errors.New("QUOTE_MAX_RETRIES debe ser >= 1"))
	}
	if c.Outbox.MaxAttempts < 1 {
		errs = append(errs, errors.New("OUTBOX_MAX_ATTEMPTS debe ser >= 1"))
	}
	if c.Outbox.InitialBackoff <= 0 || c.Outbox.MaxBackoff < c.Outbox.InitialBackoff {
		errs = append(errs, errors.New("OUTBOX_MAX_BACKOFF debe ser >= OUTBOX_INITIAL_BACKOFF > 0"))
	}
	if len(c.Quote.DefaultCurrency) != 3 {
		errs = append(errs, fmt.Errorf("QUOTE_CURRENCY %q no es un código ISO 4217", c.Quote.DefaultCurrency))
	}
	return errors.Join(errs...)
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if !v.IsSet(key) {
		return def
	}
	if s, ok := v.Get(key).(string); ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return def
		}
		return n
	}
	return v.GetInt(key)
}

// getDuration acepta "30s", "5m" o segundos enteros.
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	s := strings.TrimSpace(v.GetString(key))
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
