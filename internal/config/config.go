package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Discord  DiscordConfig
	Tickets  TicketsConfig
	NATS     NATSConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines operator API authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	OperatorUsername      string
	OperatorPasswordHash  string
	OperatorDiscordID     string
	OperatorIsAdmin       bool
}

// DiscordConfig holds platform credentials.
type DiscordConfig struct {
	BotToken              string
	PublicKey             string
	ApplicationID         string
	SyncCommands          bool
	RequestTimeoutSeconds int
}

// TicketsConfig tunes the ticket engine.
type TicketsConfig struct {
	ConfigFile            string
	CategoryName          string
	EntryChannelName      string
	LockTTLSeconds        int
	LockWaitSeconds       int
	ConfigCacheTTLSeconds int
	DeleteAdminOnly       bool
}

// NATSConfig enables the lifecycle event bridge when URL is set.
type NATSConfig struct {
	URL           string
	Token         string
	SubjectPrefix string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-bot"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			OperatorUsername:      os.Getenv("OPERATOR_USERNAME"),
			OperatorPasswordHash:  os.Getenv("OPERATOR_PASSWORD_HASH"),
			OperatorDiscordID:     os.Getenv("OPERATOR_DISCORD_ID"),
			OperatorIsAdmin:       getEnvAsBool("OPERATOR_IS_ADMIN", true),
		},
		Discord: DiscordConfig{
			BotToken:              os.Getenv("DISCORD_TOKEN"),
			PublicKey:             os.Getenv("DISCORD_PUBLIC_KEY"),
			ApplicationID:         os.Getenv("DISCORD_APPLICATION_ID"),
			SyncCommands:          getEnvAsBool("DISCORD_SYNC_COMMANDS", false),
			RequestTimeoutSeconds: getEnvAsInt("DISCORD_REQUEST_TIMEOUT_SECONDS", 15),
		},
		Tickets: TicketsConfig{
			ConfigFile:            getEnv("TICKET_CONFIG_FILE", "ticket_config.json"),
			CategoryName:          getEnv("TICKET_CATEGORY_NAME", "Tickets"),
			EntryChannelName:      getEnv("TICKET_ENTRY_CHANNEL_NAME", "create-ticket"),
			LockTTLSeconds:        getEnvAsInt("TICKET_LOCK_TTL_SECONDS", 30),
			LockWaitSeconds:       getEnvAsInt("TICKET_LOCK_WAIT_SECONDS", 10),
			ConfigCacheTTLSeconds: getEnvAsInt("TICKET_CONFIG_CACHE_TTL_SECONDS", 300),
			DeleteAdminOnly:       getEnvAsBool("ACCESS_DELETE_ADMIN_ONLY", false),
		},
		NATS: NATSConfig{
			URL:           os.Getenv("NATS_URL"),
			Token:         os.Getenv("NATS_TOKEN"),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "tickets"),
		},
	}

	if cfg.Discord.BotToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.Discord.PublicKey == "" {
		return nil, fmt.Errorf("DISCORD_PUBLIC_KEY is required")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	return seconds(a.RequestTimeoutSeconds)
}

// RequestTimeout bounds a single interaction's platform calls.
func (d DiscordConfig) RequestTimeout() time.Duration {
	return seconds(d.RequestTimeoutSeconds)
}

// LockTTL is how long a creation lock survives a crashed holder.
func (t TicketsConfig) LockTTL() time.Duration {
	return seconds(t.LockTTLSeconds)
}

// LockWait is how long a request waits for a creation lock.
func (t TicketsConfig) LockWait() time.Duration {
	return seconds(t.LockWaitSeconds)
}

// ConfigCacheTTL is the lifetime of a cached workspace config.
func (t TicketsConfig) ConfigCacheTTL() time.Duration {
	return seconds(t.ConfigCacheTTLSeconds)
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
