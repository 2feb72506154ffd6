package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration.
type Config struct {
	ServerPort          int
	MongoURI            string
	DBName              string
	CollectionName      string
	HFToken             string
	JWTSecret           string
	LLMBaseURL          string
	LLMModel            string
	HealthCheckSchedule string
}

// Load loads configuration from environment variables or sets defaults.
// The model token, store URI, database name, collection name and JWT
// secret have no sane defaults: a missing value is a startup error.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
	}

	cfg := &Config{
		ServerPort:          port,
		MongoURI:            os.Getenv("MONGO_URI"),
		DBName:              os.Getenv("DB_NAME"),
		CollectionName:      os.Getenv("COLLECTION_NAME"),
		HFToken:             os.Getenv("HF_TOKEN"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		LLMBaseURL:          getEnv("LLM_BASE_URL", "https://router.huggingface.co/v1"),
		LLMModel:            getEnv("LLM_MODEL", "meta-llama/Meta-Llama-3-8B-Instruct"),
		HealthCheckSchedule: getEnv("HEALTHCHECK_SCHEDULE", "@every 5m"),
	}

	var missing []string
	for _, required := range []struct {
		name  string
		value string
	}{
		{"MONGO_URI", cfg.MongoURI},
		{"DB_NAME", cfg.DBName},
		{"COLLECTION_NAME", cfg.CollectionName},
		{"HF_TOKEN", cfg.HFToken},
		{"JWT_SECRET", cfg.JWTSecret},
	} {
		if required.value == "" {
			missing = append(missing, required.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
