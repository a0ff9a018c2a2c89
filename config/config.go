package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string

	// Database
	DatabaseURL string
	RedisURL    string

	// Extraction model
	OpenAIAPIKey   string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float64

	// Mail source (Gmail)
	GoogleClientID     string
	GoogleClientSecret string
	GoogleTokenFile    string
	GoogleSecretsFile  string

	// Pipeline
	FetchQuery string
	FetchLimit int64

	// Extraction rate limit (account-level ceiling at the model API)
	ExtractCallsPerWindow int
	ExtractWindow         time.Duration

	// HTTP trigger protection
	TriggerRateLimit  int
	TriggerRateWindow time.Duration
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 2048),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.2),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleTokenFile:    getEnv("GOOGLE_TOKEN_FILE", "token.json"),
		GoogleSecretsFile:  getEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),

		FetchQuery: getEnv("FETCH_QUERY", "label:inbox is:unread"),
		FetchLimit: int64(getEnvInt("FETCH_LIMIT", 10)),

		ExtractCallsPerWindow: getEnvInt("EXTRACT_CALLS_PER_WINDOW", 50),
		ExtractWindow:         time.Duration(getEnvInt("EXTRACT_WINDOW_SEC", 60)) * time.Second,

		TriggerRateLimit:  getEnvInt("TRIGGER_RATE_LIMIT", 30),
		TriggerRateWindow: time.Duration(getEnvInt("TRIGGER_RATE_WINDOW_SEC", 60)) * time.Second,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
