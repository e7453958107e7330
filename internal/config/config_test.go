package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadDefaults verifies the values used when nothing is configured.
func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "LOG_LEVEL", "GIN_LOGGING", "APP_ENV", "DATABASE", "DBHOST", "API_URL", "AUTH_SECRET"} {
		t.Setenv(key, "")
	}
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, logrus.InfoLevel, cfg.Server.LogLevel)
	assert.True(t, cfg.Server.GinLogging)
	assert.False(t, cfg.Server.Production)
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "localhost:3306", cfg.Database.Host)
	assert.False(t, cfg.Web.SecureCookie)
}

// TestLoadOverrides verifies that environment values are picked up.
func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("GIN_LOGGING", "OFF")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE", "Mongo")
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("API_URL", "http://api:8000/")
	t.Setenv("AUTH_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, logrus.DebugLevel, cfg.Server.LogLevel)
	assert.False(t, cfg.Server.GinLogging)
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, "mongodb://db:27017", cfg.Database.MongoURI)
	assert.Equal(t, "http://api:8000", cfg.Web.APIURL)
	assert.True(t, cfg.Web.SecureCookie)
	assert.NoError(t, cfg.Web.Validate())
}

// TestLoadInvalidValues verifies that malformed settings are rejected.
func TestLoadInvalidValues(t *testing.T) {
	invalid := map[string]string{
		"PORT":      "eighty",
		"LOG_LEVEL": "loud",
		"DATABASE":  "postgres",
	}
	for key, value := range invalid {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.ErrorContains(t, err, key)
		})
	}
}

// TestWebValidate verifies that the front-end settings are required.
func TestWebValidate(t *testing.T) {
	err := WebConfig{}.Validate()
	assert.ErrorContains(t, err, "API_URL is required")
	assert.ErrorContains(t, err, "AUTH_SECRET is required")

	err = WebConfig{APIURL: "not a url", AuthSecret: "x"}.Validate()
	assert.ErrorContains(t, err, "invalid API_URL")
}
