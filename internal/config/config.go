// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret                     string  `mapstructure:"JWT_SECRET"`
	JWTIssuer                     string  `mapstructure:"JWT_ISSUER"`
	JWTAudience                   string  `mapstructure:"JWT_AUDIENCE"`
	Port                          string  `mapstructure:"PORT"`
	DBHost                        string  `mapstructure:"DB_HOST"`
	DBPort                        string  `mapstructure:"DB_PORT"`
	DBUser                        string  `mapstructure:"DB_USER"`
	DBPassword                    string  `mapstructure:"DB_PASSWORD"`
	DBName                        string  `mapstructure:"DB_NAME"`
	DBSSLMode                     string  `mapstructure:"DB_SSLMODE"`
	DBReadHost                    string  `mapstructure:"DB_READ_HOST"`
	DBReadPort                    string  `mapstructure:"DB_READ_PORT"`
	DBReadUser                    string  `mapstructure:"DB_READ_USER"`
	DBReadPassword                string  `mapstructure:"DB_READ_PASSWORD"`
	DBSchemaMode                  string  `mapstructure:"DB_SCHEMA_MODE"`
	DBAutoMigrateAllowDestructive bool    `mapstructure:"DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE"`
	DBMaxOpenConns                int     `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns                int     `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes      int     `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	RedisURL                      string  `mapstructure:"REDIS_URL"`
	AllowedOrigins                string  `mapstructure:"ALLOWED_ORIGINS"`
	Env                           string  `mapstructure:"APP_ENV"`
	TopicStatsTTLSeconds          int     `mapstructure:"TOPIC_STATS_TTL_SECONDS"`
	TracingEnabled                bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter               string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint                  string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio           float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
	DevAdminUserID                string  `mapstructure:"DEV_ADMIN_USER_ID"`
	FeatureFlags                  string  `mapstructure:"FEATURE_FLAGS"`
}

// defaults are the development values for every key.
var defaults = map[string]any{
	"PORT":                             "8375",
	"APP_ENV":                          "development",
	"DB_HOST":                          "localhost",
	"DB_PORT":                          "5432",
	"DB_USER":                          "user",
	"DB_PASSWORD":                      "password",
	"DB_NAME":                          "murmur",
	"DB_SSLMODE":                       "disable",
	"DB_READ_HOST":                     "",
	"DB_READ_PORT":                     "5432",
	"DB_READ_USER":                     "user",
	"DB_READ_PASSWORD":                 "password",
	"DB_SCHEMA_MODE":                   "hybrid",
	"DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE": false,
	"DB_MAX_OPEN_CONNS":                25,
	"DB_MAX_IDLE_CONNS":                5,
	"DB_CONN_MAX_LIFETIME_MINUTES":     5,
	"REDIS_URL":                        "localhost:6379",
	"JWT_SECRET":                       defaultJWTSecret,
	"JWT_ISSUER":                       "murmur-auth",
	"JWT_AUDIENCE":                     "murmur-client",
	"ALLOWED_ORIGINS":                  "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173",
	"TOPIC_STATS_TTL_SECONDS":          30,
	"TRACING_ENABLED":                  false,
	"TRACING_EXPORTER":                 "stdout",
	"OTLP_ENDPOINT":                    "localhost:4318",
	"TRACING_SAMPLER_RATIO":            1.0,
	"DEV_ADMIN_USER_ID":                "",
	"FEATURE_FLAGS":                    "",
}

// LoadConfig reads config.yml (optional), then config.<APP_ENV>.yml (required
// outside development and test), then the environment, which wins.
func LoadConfig() (*Config, error) {
	v := viper.New()
	for _, dir := range []string{".", "..", "../.."} {
		v.AddConfigPath(dir)
	}
	v.SetConfigType("yml")
	v.SetConfigName("config")
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	_ = v.ReadInConfig()

	env := v.GetString("APP_ENV")
	if env != "development" && env != "test" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("config.%s.yml is required for APP_ENV=%s: %w", env, env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.DBSSLMode = strings.ToLower(strings.TrimSpace(cfg.DBSSLMode))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// IsProduction reports whether the configured environment is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate rejects missing or malformed values, and insecure ones in production.
func (c *Config) Validate() error {
	switch {
	case c.Port == "":
		return errors.New("PORT is required")
	case c.JWTSecret == "":
		return errors.New("JWT_SECRET is required")
	case c.TracingSamplerRatio < 0 || c.TracingSamplerRatio > 1:
		return errors.New("TRACING_SAMPLER_RATIO must be between 0 and 1")
	}
	if c.DevAdminUserID != "" {
		if _, err := uuid.Parse(c.DevAdminUserID); err != nil {
			return fmt.Errorf("DEV_ADMIN_USER_ID must be a UUID: %w", err)
		}
	}

	if !c.IsProduction() {
		if len(c.JWTSecret) < 32 {
			log.Println("WARNING: JWT_SECRET is shorter than 32 characters; production requires at least 32.")
		}
		return nil
	}

	switch {
	case c.JWTSecret == defaultJWTSecret:
		return errors.New("JWT_SECRET must be changed from the default value in production")
	case len(c.JWTSecret) < 32:
		return errors.New("JWT_SECRET must be at least 32 characters in production")
	case c.DBPassword == "" || c.DBPassword == "password":
		return errors.New("a strong DB_PASSWORD is required in production")
	case c.DBSSLMode == "" || c.DBSSLMode == "disable":
		return errors.New("DB_SSLMODE must enable SSL in production")
	}
	if c.AllowedOrigins == "*" {
		log.Println("WARNING: ALLOWED_ORIGINS is '*' in production.")
	}
	return nil
}
