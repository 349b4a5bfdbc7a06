package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                 "development",
		DBSSLMode:           "disable",
		JWTSecret:           "secure-secret-at-least-32-chars-long",
		DBPassword:          "secure-password",
		Port:                "8080",
		RedisURL:            "redis://localhost:6379",
		TracingSamplerRatio: 1,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with disable SSL mode", "prod", "disable", true},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"missing port", func(c *Config) { c.Port = "" }, "PORT is required"},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET is required"},
		{"sampler above one", func(c *Config) { c.TracingSamplerRatio = 1.5 }, "TRACING_SAMPLER_RATIO"},
		{"sampler negative", func(c *Config) { c.TracingSamplerRatio = -0.1 }, "TRACING_SAMPLER_RATIO"},
		{"dev admin not a uuid", func(c *Config) { c.DevAdminUserID = "42" }, "DEV_ADMIN_USER_ID"},
		{"production default secret", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
			c.JWTSecret = defaultJWTSecret
		}, "default value"},
		{"production short secret", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
			c.JWTSecret = "short"
		}, "at least 32"},
		{"production default password", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
			c.DBPassword = "password"
		}, "DB_PASSWORD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("dev admin uuid accepted", func(t *testing.T) {
		c := validConfig()
		c.DevAdminUserID = "5b0c7a0e-8d4f-4c57-9d0c-6a3f1f0e2b11"
		assert.NoError(t, c.Validate())
	})
}

func TestLoadConfig_SSLModeNormalization(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "murmur-auth", c.JWTIssuer)
	assert.Equal(t, 30, c.TopicStatsTTLSeconds)
	assert.Equal(t, 25, c.DBMaxOpenConns)
}

func TestLoadConfig_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("TOPIC_STATS_TTL_SECONDS", "90")
	t.Setenv("FEATURE_FLAGS", "topic_pulse=on")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 90, c.TopicStatsTTLSeconds)
	assert.Equal(t, "topic_pulse=on", c.FeatureFlags)
	assert.Equal(t, "hybrid", c.DBSchemaMode)
}

func TestLoadConfig_MissingProfile(t *testing.T) {
	t.Setenv("APP_ENV", "staging-nowhere")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config.staging-nowhere.yml")
}
