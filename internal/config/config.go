package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Game Settings
	TickRate       int
	RecorderBuffer int

	// Security
	JWTSecret             string
	TokenTTLHours         int
	GuestRateLimitSeconds int

	// Logging
	LogFile  string
	LogLevel string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/eightball?sslmode=disable"),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", true),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Game Settings
		TickRate:       getEnvInt("TICK_RATE", 60),
		RecorderBuffer: getEnvInt("RECORDER_BUFFER", 256),

		// Security
		JWTSecret:             getEnv("JWT_SECRET", "change-me-in-production"),
		TokenTTLHours:         getEnvInt("TOKEN_TTL_HOURS", 72),
		GuestRateLimitSeconds: getEnvInt("GUEST_RATE_LIMIT_SECONDS", 5),

		// Logging
		LogFile:  getEnv("LOG_FILE", "logs/eightball.log"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
