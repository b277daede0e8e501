// Package config loads runtime configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Environment string

	// Session store (capture backend, read-only)
	DatabaseURL string

	// World model store
	MongoDBURL  string
	MongoDBName string

	// Lookup cache
	RedisURL string

	// Graph projection
	GraphEnabled  bool
	Neo4jURL      string
	Neo4jUsername string
	Neo4jPassword string
	Neo4jDatabase string

	// Ingestion
	SessionBatchSize  int
	PollInterval      time.Duration
	LatencyWindowSize int
}

func Load() (*Config, error) {
	return &Config{
		Environment: getEnv("ENV", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "worldmodel"),

		RedisURL: getEnv("REDIS_URL", ""),

		GraphEnabled:  getEnvBool("GRAPH_ENABLED", false),
		Neo4jURL:      getEnv("NEO4J_URL", ""),
		Neo4jUsername: getEnv("NEO4J_USERNAME", "neo4j"),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", ""),
		Neo4jDatabase: getEnv("NEO4J_DATABASE", "neo4j"),

		SessionBatchSize:  getEnvInt("SESSION_BATCH_SIZE", 20),
		PollInterval:      time.Duration(getEnvInt("POLL_INTERVAL_SEC", 10)) * time.Second,
		LatencyWindowSize: getEnvInt("LATENCY_WINDOW_SIZE", 1000),
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
