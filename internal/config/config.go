package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Store       StoreConfig       `mapstructure:"store"`
	Index       IndexConfig       `mapstructure:"index"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Queue       QueueConfig       `mapstructure:"queue"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Search      SearchConfig      `mapstructure:"search"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	Log         LogConfig         `mapstructure:"log"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string   `mapstructure:"host"`
	Port            string   `mapstructure:"port"`
	ReadTimeout     int      `mapstructure:"read_timeout"`
	WriteTimeout    int      `mapstructure:"write_timeout"`
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int      `mapstructure:"max_header_bytes"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	LegacyRoutes    bool     `mapstructure:"legacy_routes"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Name            string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	LogLevel        string `mapstructure:"log_level"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	Type     string `mapstructure:"type"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StoreConfig selects where users and swap requests live: "memory" or "postgres"
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

// IndexConfig selects the skill index backend: "memory" or "redis"
type IndexConfig struct {
	Driver         string `mapstructure:"driver"`
	Prefix         string `mapstructure:"prefix"`
	RebuildOnStart bool   `mapstructure:"rebuild_on_start"`
}

// IdempotencyConfig selects where Idempotency-Key outcomes are kept: "memory" or "redis"
type IdempotencyConfig struct {
	Driver string `mapstructure:"driver"`
	TTL    int    `mapstructure:"ttl_hours"`
}

// QueueConfig selects the index repair queue: "memory" or "redis"
type QueueConfig struct {
	Driver      string `mapstructure:"driver"`
	BufferSize  int    `mapstructure:"buffer_size"`
	Workers     int    `mapstructure:"workers"`
	MaxAttempts int    `mapstructure:"max_attempts"`
}

// AuthConfig holds token and password hashing settings
type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret"`
	Issuer        string `mapstructure:"issuer"`
	TokenTTLHours int    `mapstructure:"token_ttl_hours"`
	BcryptCost    int    `mapstructure:"bcrypt_cost"`
}

// SearchConfig holds pagination limits for skill search
type SearchConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

// RateLimitConfig holds the per-principal token bucket settings
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	CreatePerMinute   float64 `mapstructure:"create_per_minute"`
	CreateBurst       int     `mapstructure:"create_burst"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

// TokenTTL returns the lifetime of issued access tokens.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}

// TTLDuration returns how long an idempotency outcome is replayed.
func (i IdempotencyConfig) TTLDuration() time.Duration {
	return time.Duration(i.TTL) * time.Hour
}

var config *Config

// Init initializes the configuration
func Init() {
	config = &Config{}

	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	viper.SetEnvPrefix("SKILLSWAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	setDefaults()

	// Unmarshal configuration from viper
	if err := viper.Unmarshal(config); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}
}

// Get returns the global configuration
func Get() *Config {
	if config == nil {
		Init()
	}
	return config
}

// Set replaces the global configuration, used by tests.
func Set(c *Config) {
	config = c
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "skillswap")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", 15)
	viper.SetDefault("server.write_timeout", 15)
	viper.SetDefault("server.shutdown_timeout", 30)
	viper.SetDefault("server.max_header_bytes", 1048576)
	viper.SetDefault("server.allowed_origins", []string{"*"})
	viper.SetDefault("server.legacy_routes", true)

	// Database defaults
	viper.SetDefault("database.driver", "postgres")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.username", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.name", "skillswap")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.log_level", "warn")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 3600)
	viper.SetDefault("database.auto_migrate", true)

	// Cache defaults
	viper.SetDefault("cache.type", "redis")
	viper.SetDefault("cache.host", "localhost")
	viper.SetDefault("cache.port", 6379)
	viper.SetDefault("cache.password", "")
	viper.SetDefault("cache.db", 0)

	// Store, index and idempotency backends
	viper.SetDefault("store.driver", "memory")
	viper.SetDefault("queue.driver", "memory")
	viper.SetDefault("queue.buffer_size", 1000)
	viper.SetDefault("queue.workers", 2)
	viper.SetDefault("queue.max_attempts", 3)
	viper.SetDefault("index.driver", "memory")
	viper.SetDefault("index.prefix", "skillswap:")
	viper.SetDefault("index.rebuild_on_start", true)
	viper.SetDefault("idempotency.driver", "memory")
	viper.SetDefault("idempotency.ttl_hours", 24)

	// Auth defaults
	viper.SetDefault("auth.jwt_secret", "change-me")
	viper.SetDefault("auth.issuer", "skillswap")
	viper.SetDefault("auth.token_ttl_hours", 72)
	viper.SetDefault("auth.bcrypt_cost", 10)

	// Search defaults
	viper.SetDefault("search.default_limit", 20)
	viper.SetDefault("search.max_limit", 100)

	// Rate limit defaults
	viper.SetDefault("ratelimit.enabled", true)
	viper.SetDefault("ratelimit.requests_per_second", 10)
	viper.SetDefault("ratelimit.burst", 20)
	viper.SetDefault("ratelimit.create_per_minute", 30)
	viper.SetDefault("ratelimit.create_burst", 5)

	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file_path", "")
}
