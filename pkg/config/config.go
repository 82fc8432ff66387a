package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	// Kafka audit sink. Empty broker list disables publishing.
	KafkaBrokers []string

	// AllocationMaxRetries bounds the optimistic retry loop when a
	// concurrent write invalidates the aggregated view mid-allocation.
	AllocationMaxRetries int

	// RateLimit is a limiter format string such as "100-M" (100 per minute).
	RateLimit string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("ALLOCATION_MAX_RETRIES", 3)
	viper.SetDefault("RATE_LIMIT", "100-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080" // Default port
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	brokers := viper.GetString("KAFKA_BROKERS")
	if brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	} else {
		log.Println("Warning: KAFKA_BROKERS not set. Audit events will not be published.")
	}

	cfg.AllocationMaxRetries = viper.GetInt("ALLOCATION_MAX_RETRIES")
	if cfg.AllocationMaxRetries < 1 {
		cfg.AllocationMaxRetries = 3
		log.Printf("Warning: Invalid ALLOCATION_MAX_RETRIES. Defaulting to %d.\n", cfg.AllocationMaxRetries)
	}

	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	if cfg.RateLimit == "" {
		cfg.RateLimit = "100-M"
	}

	return cfg, nil
}
