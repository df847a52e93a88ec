package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Port:       "8080",
			JWTSecret:  "secure-secret-at-least-32-chars-long",
			DBPassword: "secure-password",
			DBSSLMode:  "require",
			Env:        "development",
		}
	}

	t.Run("valid development config", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("missing port", func(t *testing.T) {
		c := base()
		c.Port = ""
		assert.Error(t, c.Validate())
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		c := base()
		c.JWTSecret = ""
		assert.Error(t, c.Validate())
	})

	t.Run("short secret is tolerated outside production", func(t *testing.T) {
		c := base()
		c.JWTSecret = "short"
		assert.NoError(t, c.Validate())
	})

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"production with strong settings", func(c *Config) {}, false},
		{"production with default secret", func(c *Config) { c.JWTSecret = "your-secret-key-change-in-production" }, true},
		{"production with short secret", func(c *Config) { c.JWTSecret = "short" }, true},
		{"production with default db password", func(c *Config) { c.DBPassword = "password" }, true},
		{"production with empty db password", func(c *Config) { c.DBPassword = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			c.Env = "production"
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("prod alias is treated as production", func(t *testing.T) {
		c := base()
		c.Env = "prod"
		c.JWTSecret = "short"
		assert.Error(t, c.Validate())
	})
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "inkwell", cfg.DBName)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("PORT", "9090")
	t.Setenv("DB_NAME", "inkwell_test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "inkwell_test", cfg.DBName)
}
