package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/internal/verification"
)

func validProduction() *Config {
	return &Config{
		Env:        "production",
		DBDriver:   "postgres",
		DBSSLMode:  "require",
		JWTSecret:  "secure-secret-at-least-32-chars-long",
		DBPassword: "secure-password",
		Port:       "8080",
		RedisURL:   "redis://localhost:6379",
	}
}

func TestConfig_ValidateProduction(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid production", func(c *Config) {}, false},
		{"prod alias with verify-full", func(c *Config) { c.Env = "prod"; c.DBSSLMode = "verify-full" }, false},
		{"production with empty SSL mode", func(c *Config) { c.DBSSLMode = "" }, true},
		{"production with disable SSL mode", func(c *Config) { c.DBSSLMode = "disable" }, true},
		{"default jwt secret", func(c *Config) { c.JWTSecret = defaultJWTSecret }, true},
		{"short jwt secret", func(c *Config) { c.JWTSecret = "short" }, true},
		{"weak db password", func(c *Config) { c.DBPassword = "password" }, true},
		{"sqlite in production", func(c *Config) { c.DBDriver = "sqlite" }, true},
		{"development with disable SSL mode", func(c *Config) { c.Env = "development"; c.DBSSLMode = "disable" }, false},
		{"test with sqlite", func(c *Config) { c.Env = "test"; c.DBDriver = "sqlite" }, false},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"negative window", func(c *Config) { c.VerifyExpiringSoonWindow = -1 }, true},
		{"sampler ratio out of range", func(c *Config) { c.TracingSamplerRatio = 1.5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validProduction()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvOverridesAndNormalization(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("VERIFY_DAYS_GOOD_FOR", "5")
	t.Setenv("VERIFY_EXPIRING_SOON_WINDOW", "10")
	t.Setenv("VERIFIED_MODES", "verified, professional")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "sqlite", c.DBDriver)

	p := c.Policy()
	assert.Equal(t, 5, p.DaysGoodFor)
	assert.Equal(t, 10, p.ExpiringSoonWindow)
	assert.True(t, p.RequiresVerification("professional"))
	assert.False(t, p.RequiresVerification("audit"))
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer viper.Reset()
	t.Setenv("APP_ENV", "test")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, verification.DefaultDaysGoodFor, c.VerifyDaysGoodFor)
	assert.Equal(t, verification.DefaultExpiringSoonWindow, c.VerifyExpiringSoonWindow)
	assert.Equal(t, "0 15 3 * * *", c.ExpirySweepSchedule)
	assert.Equal(t, "edX", c.PlatformName)
	assert.Equal(t, int64(10<<20), c.PhotoMaxUploadBytes())
}

func TestPolicy_EmptyModesFallBack(t *testing.T) {
	c := &Config{VerifiedModes: " , ", VerifyExpiringSoonWindow: 28}
	p := c.Policy()
	assert.Equal(t, verification.DefaultPolicy(), p)
}
