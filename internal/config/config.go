package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/database"
	"github.com/joho/godotenv"
)

type Config struct {
	Database     DatabaseConfig
	JWT          JWTConfig
	App          AppConfig
	Leave        LeaveConfig
	SMTP         SMTPConfig
	Notification NotificationConfig
	Storage      StorageConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int
	// ConnectTimeout bounds the startup ping.
	ConnectTimeout time.Duration
	// MigrateOnStart applies embedded migrations before serving.
	MigrateOnStart bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port          int
	Env           string
	LogLevel      string
	DefaultLocale string
	CORSOrigins   []string
	PublicURL     string
}

// LeaveConfig tunes the leave workflow.
type LeaveConfig struct {
	// SubmissionWindow is how long an identical submission is refused.
	SubmissionWindow time.Duration
	// NegotiationTTL bounds the life of an unpaid-leave offer token.
	NegotiationTTL  time.Duration
	AccrualInterval time.Duration
	Timezone        string
}

// Location resolves Timezone, falling back to UTC.
func (c LeaveConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		slog.Warn("unknown LEAVE_TIMEZONE, using UTC", "timezone", c.Timezone, "error", err)
		return time.UTC
	}
	return loc
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

type NotificationConfig struct {
	BatchSize     int
	FlushInterval time.Duration
	WorkerCount   int
	QueueSize     int
	// StreamMaxPerUser caps open push streams per user.
	StreamMaxPerUser int
	// Retention is how long read notifications are kept. Zero keeps them.
	Retention time.Duration
}

type StorageConfig struct {
	// Driver is "postgres" or "memory".
	Driver string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	config := &Config{}

	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}

	dbMaxConns, err := getEnvInt("DB_MAX_CONNS", 25)
	if err != nil {
		return nil, err
	}
	dbMinConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, err
	}
	dbConnectTimeout, err := getEnvDuration("DB_CONNECT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	config.Database = DatabaseConfig{
		Host:           getEnv("DB_HOST", "localhost"),
		Port:           dbPort,
		User:           getEnv("DB_USER", "postgres"),
		Password:       getEnv("DB_PASSWORD", ""),
		Name:           getEnv("DB_NAME", "leave"),
		SSLMode:        getEnv("DB_SSL_MODE", "disable"),
		MaxConns:       dbMaxConns,
		MinConns:       dbMinConns,
		ConnectTimeout: dbConnectTimeout,
		MigrateOnStart: getEnv("DB_MIGRATE_ON_START", "false") == "true",
	}

	appPort, err := getEnvInt("APP_PORT", 8080)
	if err != nil {
		return nil, err
	}

	config.App = AppConfig{
		Port:          appPort,
		Env:           getEnv("APP_ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DefaultLocale: getEnv("APP_DEFAULT_LOCALE", "en"),
		CORSOrigins:   getEnvSlice("CORS_ALLOWED_ORIGINS"),
		PublicURL:     strings.TrimRight(getEnv("APP_PUBLIC_URL", ""), "/"),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	window, err := getEnvDuration("LEAVE_SUBMISSION_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}
	negotiationTTL, err := getEnvDuration("LEAVE_NEGOTIATION_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	accrualInterval, err := getEnvDuration("LEAVE_ACCRUAL_INTERVAL", 6*time.Hour)
	if err != nil {
		return nil, err
	}

	config.Leave = LeaveConfig{
		SubmissionWindow: window,
		NegotiationTTL:   negotiationTTL,
		AccrualInterval:  accrualInterval,
		Timezone:         getEnv("LEAVE_TIMEZONE", "Asia/Manila"),
	}

	smtpPort, err := getEnvInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}

	config.SMTP = SMTPConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     smtpPort,
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", "no-reply@localhost"),
		FromName: getEnv("SMTP_FROM_NAME", "Leave Office"),
	}

	batchSize, err := getEnvInt("NOTIFICATION_BATCH_SIZE", 100)
	if err != nil {
		return nil, err
	}
	workers, err := getEnvInt("NOTIFICATION_WORKERS", 2)
	if err != nil {
		return nil, err
	}
	queueSize, err := getEnvInt("NOTIFICATION_QUEUE_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	flush, err := getEnvDuration("NOTIFICATION_FLUSH_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, err
	}

	streamMax, err := getEnvInt("NOTIFICATION_STREAM_MAX_PER_USER", 5)
	if err != nil {
		return nil, err
	}

	retention, err := getEnvDuration("NOTIFICATION_RETENTION", 90*24*time.Hour)
	if err != nil {
		return nil, err
	}

	config.Notification = NotificationConfig{
		BatchSize:        batchSize,
		FlushInterval:    flush,
		WorkerCount:      workers,
		QueueSize:        queueSize,
		StreamMaxPerUser: streamMax,
		Retention:        retention,
	}

	config.Storage = StorageConfig{
		Driver: getEnv("STORAGE_DRIVER", "postgres"),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres":
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case "memory":
	default:
		return fmt.Errorf("STORAGE_DRIVER must be postgres or memory, got %q", c.Storage.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Leave.SubmissionWindow <= 0 {
		return fmt.Errorf("LEAVE_SUBMISSION_WINDOW must be positive")
	}
	if c.Leave.NegotiationTTL <= 0 {
		return fmt.Errorf("LEAVE_NEGOTIATION_TTL must be positive")
	}
	if _, err := time.LoadLocation(c.Leave.Timezone); err != nil {
		return fmt.Errorf("invalid LEAVE_TIMEZONE: %w", err)
	}
	return nil
}

// PoolOptions returns the pool sizing for database.NewPostgreSQLDB.
func (c *Config) PoolOptions() database.PoolOptions {
	return database.PoolOptions{
		MaxConns:       int32(c.Database.MaxConns),
		MinConns:       int32(c.Database.MinConns),
		ConnectTimeout: c.Database.ConnectTimeout,
	}
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LogLevel onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, fallback.String()))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
