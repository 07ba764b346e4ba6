package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application's configuration values.
type Config struct {
	HostIP           string        // Host IP for the server
	RESTPort         int           // Port for the REST API
	GinMode          string        // Mode for the Gin framework (e.g., release, debug, test)
	JWTSecret        string        // Secret key for JWT signing
	JWTIssuer        string        // Issuer claim for JWTs
	LogLevel         string        // Minimum log level (debug, info, warn, error)
	RedisAddr        string        // Address of the scoreboard Redis; empty disables the scoreboard
	RedisPassword    string        // Password for Redis
	MongoURI         string        // URI of the run-report MongoDB; empty disables reports
	DBName           string        // Name of the MongoDB database
	StepTimeout      time.Duration // Budget of a single step-program invocation
	MaxSessions      int           // Upper bound of live sessions
	SessionTTL       time.Duration // Idle time after which a session is reaped
	MaxMazeDimension int           // Largest accepted maze width or height
	SyncRunTimeout   time.Duration // Budget of a step or synchronous run served in one request
	ScoreboardTTL    time.Duration // Lifetime of a board after its first entry; zero keeps boards
}

// Load initializes and returns the application configuration.
// It loads environment variables from a .env file first when one exists.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("[APP] [INFO] .env file not found or could not be loaded: %v", err)
	}

	return Config{
		HostIP:           mustGetEnv("HOST_IP"),
		RESTPort:         mustGetEnvAsInt("REST_PORT"),
		GinMode:          getEnvWithDefault("GIN_MODE", "release"),
		JWTSecret:        mustGetEnv("JWT_SECRET"),
		JWTIssuer:        mustGetEnv("JWT_ISSUER"),
		LogLevel:         getEnvWithDefault("LOG_LEVEL", "info"),
		RedisAddr:        getEnvWithDefault("REDIS_ADDR", ""),
		RedisPassword:    getEnvWithDefault("REDIS_PASSWORD", ""),
		MongoURI:         getEnvWithDefault("MONGO_URI", ""),
		DBName:           getEnvWithDefault("DB_NAME", "vinom_sandbox"),
		StepTimeout:      time.Duration(getEnvAsIntWithDefault("STEP_TIMEOUT_MS", 1000)) * time.Millisecond,
		MaxSessions:      getEnvAsIntWithDefault("MAX_SESSIONS", 256),
		SessionTTL:       time.Duration(getEnvAsIntWithDefault("SESSION_TTL_MINUTES", 30)) * time.Minute,
		MaxMazeDimension: getEnvAsIntWithDefault("MAX_MAZE_DIMENSION", 101),
		SyncRunTimeout:   time.Duration(getEnvAsIntWithDefault("SYNC_RUN_TIMEOUT_MS", 30000)) * time.Millisecond,
		ScoreboardTTL:    time.Duration(getEnvAsIntWithDefault("SCOREBOARD_TTL_HOURS", 0)) * time.Hour,
	}
}

// mustGetEnv retrieves the value of an environment variable or logs a fatal error if not set.
func mustGetEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		log.Fatalf("[APP] [FATAL] Environment variable %s is not set", key)
	}
	return value
}

// mustGetEnvAsInt retrieves the value of an environment variable as an integer or logs a fatal error if not set or cannot be parsed.
func mustGetEnvAsInt(key string) int {
	valueStr := mustGetEnv(key)
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("[APP] [FATAL] Environment variable %s must be an integer: %v", key, err)
	}
	return value
}

// getEnvWithDefault retrieves the value of an environment variable or returns a default value if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsIntWithDefault is getEnvWithDefault for integers. A value that does not parse is fatal.
func getEnvAsIntWithDefault(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("[APP] [FATAL] Environment variable %s must be an integer: %v", key, err)
	}
	return value
}
