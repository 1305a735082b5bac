package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLiteDSN  string

	// JWT issued by the identity provider, verified here
	JWTSecret string

	// Admin
	AdminEmails  string
	AdminUserIDs string
	AdminToken   string

	// Cache
	CacheBackend     string
	VerifiedCacheTTL time.Duration
	RedisAddr        string
	RedisPassword    string
	RedisDB          int

	// Realtime
	BroadcastBackend string
	NATSURL          string

	// Logging
	LogLevel     string
	LogRetention time.Duration

	// Server
	Port        string
	CORSOrigins string
}

func Load() *Config {
	return &Config{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "disaster_reports"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLiteDSN:  getEnv("SQLITE_DSN", "disaster_reports.db"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),

		CacheBackend:     getEnv("CACHE_BACKEND", "db"),
		VerifiedCacheTTL: parseDuration(getEnv("VERIFIED_CACHE_TTL", "5m"), 5*time.Minute),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          parseInt(getEnv("REDIS_DB", "0"), 0),

		BroadcastBackend: getEnv("BROADCAST_BACKEND", "redis"),
		NATSURL:          getEnv("NATS_URL", "nats://127.0.0.1:4222"),

		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogRetention: parseDuration(getEnv("LOG_RETENTION", "720h"), 30*24*time.Hour),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// UsesRedis reports whether any collaborator needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.CacheBackend == "redis" || c.BroadcastBackend == "redis"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
