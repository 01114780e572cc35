package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver           string
	DBPath             string
	DBHost             string
	DBPort             string
	DBUser             string
	DBPassword         string
	DBName             string
	SessionStore       string
	RedisHost          string
	RedisPort          string
	SessionSecret      string
	GinMode            string
	ServerAddr         string
	LogLevel           string
	OpenAIAPIKey       string
	ImageProfile       string
	ThumbnailCacheSize int
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBDriver:           getEnv("DB_DRIVER", "sqlite"),
		DBPath:             getEnv("DB_PATH", "oppuss.db"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "oppuss"),
		DBPassword:         getEnv("DB_PASSWORD", "oppuss"),
		DBName:             getEnv("DB_NAME", "oppuss"),
		SessionStore:       getEnv("SESSION_STORE", "cookie"),
		RedisHost:          getEnv("REDIS_HOST", "localhost"),
		RedisPort:          getEnv("REDIS_PORT", "6379"),
		SessionSecret:      getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		GinMode:            getEnv("GIN_MODE", "debug"),
		ServerAddr:         getEnv("SERVER_ADDR", ":8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		ImageProfile:       getEnv("IMAGE_PROFILE", "medium"),
		ThumbnailCacheSize: getEnvInt("THUMBNAIL_CACHE_SIZE", 100),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
