package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Orders    OrdersConfig
	Jobs      JobsConfig
	Kafka     KafkaConfig
	Otel      OtelConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	Timezone       string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerWindow int
	WindowSeconds     int
}

type LogConfig struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type OrdersConfig struct {
	StrictWorkflow bool
	RecentLimit    int
}

type JobsConfig struct {
	LowStockSchedule string
}

type KafkaConfig struct {
	Brokers        []string
	OrdersTopic    string
	InventoryTopic string
}

type OtelConfig struct {
	Endpoint   string
	AuthHeader string
}

// IsDevelopment reports whether the server runs outside production
func (c *Config) IsDevelopment() bool {
	return c.Server.Env != "production"
}

func Load() *Config {
	// Populate the process environment first so libraries reading os.Getenv
	// see the same values as viper.
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env into environment: %v", err)
	}

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("SERVER_TIMEZONE", "Local")
	viper.SetDefault("CLIENT_URL", "")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_REQUESTS", 120)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("LOG_FILE", "")
	viper.SetDefault("LOG_FILE_MAX_SIZE_MB", 64)
	viper.SetDefault("LOG_FILE_MAX_BACKUPS", 7)
	viper.SetDefault("LOG_FILE_MAX_AGE_DAYS", 7)
	viper.SetDefault("ORDERS_STRICT_WORKFLOW", false)
	viper.SetDefault("ORDERS_RECENT_LIMIT", 6)
	viper.SetDefault("LOW_STOCK_SCHEDULE", "@every 15m")
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_ORDERS_TOPIC", "bakery.orders")
	viper.SetDefault("KAFKA_INVENTORY_TOPIC", "bakery.inventory")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	origins := []string{"http://localhost:3000"}
	if clientURL := viper.GetString("CLIENT_URL"); clientURL != "" {
		origins = append([]string{clientURL}, origins...)
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			Timezone:       viper.GetString("SERVER_TIMEZONE"),
			AllowedOrigins: origins,
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           viper.GetBool("RATE_LIMIT_ENABLED"),
			RequestsPerWindow: viper.GetInt("RATE_LIMIT_REQUESTS"),
			WindowSeconds:     viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Log: LogConfig{
			File:       viper.GetString("LOG_FILE"),
			MaxSizeMB:  viper.GetInt("LOG_FILE_MAX_SIZE_MB"),
			MaxBackups: viper.GetInt("LOG_FILE_MAX_BACKUPS"),
			MaxAgeDays: viper.GetInt("LOG_FILE_MAX_AGE_DAYS"),
		},
		Orders: OrdersConfig{
			StrictWorkflow: viper.GetBool("ORDERS_STRICT_WORKFLOW"),
			RecentLimit:    viper.GetInt("ORDERS_RECENT_LIMIT"),
		},
		Jobs: JobsConfig{
			LowStockSchedule: viper.GetString("LOW_STOCK_SCHEDULE"),
		},
		Kafka: KafkaConfig{
			Brokers:        splitList(viper.GetString("KAFKA_BROKERS")),
			OrdersTopic:    viper.GetString("KAFKA_ORDERS_TOPIC"),
			InventoryTopic: viper.GetString("KAFKA_INVENTORY_TOPIC"),
		},
		Otel: OtelConfig{
			Endpoint:   viper.GetString("OTEL_ENDPOINT"),
			AuthHeader: viper.GetString("OTEL_AUTH_HEADER"),
		},
	}
}

// splitList turns a comma separated value into its non-empty trimmed parts
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
