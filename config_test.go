package accesskit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfigDefaults tests defaults applied by envconfig
func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ACCESSKIT_JWT_SECRET", "0123456789abcdef")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "accesskit", cfg.JWTIssuer)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, 120, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, AuditDenied, cfg.AuditDecisions)
	assert.Equal(t, DefaultPoolConfig(), cfg.Pool)
	assert.False(t, cfg.IsProduction())
}

// TestLoadConfigOverrides tests reading values from the environment
func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("ACCESSKIT_JWT_SECRET", "0123456789abcdef")
	t.Setenv("ACCESSKIT_ENV", "production")
	t.Setenv("ACCESSKIT_AUDIT_DECISIONS", "all")
	t.Setenv("ACCESSKIT_RATE_LIMIT_REQUESTS", "10")
	t.Setenv("ACCESSKIT_POOL_MAX_OPEN_CONNECTIONS", "50")
	t.Setenv("ACCESSKIT_POOL_CONNECTION_MAX_LIFETIME", "1h")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, AuditAll, cfg.AuditDecisions)
	assert.Equal(t, 10, cfg.RateLimitRequests)
	assert.Equal(t, 50, cfg.Pool.MaxOpenConnections)
	assert.Equal(t, time.Hour, cfg.Pool.ConnectionMaxLifetime)
	assert.Equal(t, 5, cfg.Pool.MaxIdleConnections)
}

// TestLoadConfigErrors tests configuration failures
func TestLoadConfigErrors(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("ACCESSKIT_JWT_SECRET", "")
		os.Unsetenv("ACCESSKIT_JWT_SECRET")
		_, err := LoadConfig()
		assert.True(t, IsConfiguration(err))
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("ACCESSKIT_JWT_SECRET", "0123456789abcdef")
		t.Setenv("ACCESSKIT_TOKEN_TTL", "soon")
		_, err := LoadConfig()
		assert.True(t, IsConfiguration(err))
	})
}

// TestConfigValidate tests the checks envconfig cannot express
func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			JWTSecret:         "0123456789abcdef",
			TokenTTL:          time.Hour,
			RateLimitRequests: 1,
			RateLimitWindow:   time.Second,
			AuditDecisions:    AuditAll,
			Pool:              DefaultPoolConfig(),
		}
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(*Config){
		"short secret":     func(c *Config) { c.JWTSecret = "short" },
		"zero rate":        func(c *Config) { c.RateLimitRequests = 0 },
		"unknown audit":    func(c *Config) { c.AuditDecisions = "sometimes" },
		"zero ttl":         func(c *Config) { c.TokenTTL = 0 },
		"no connections":   func(c *Config) { c.Pool.MaxOpenConnections = 0 },
		"idle above limit": func(c *Config) { c.Pool.MaxIdleConnections = 100 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.True(t, IsConfiguration(c.Validate()))
		})
	}
}

// TestConfigCatalog tests choosing between the default and a file catalog
func TestConfigCatalog(t *testing.T) {
	cfg := &Config{}
	c, err := cfg.Catalog()
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalogVersion, c.Version())

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalogYAML), 0o600))
	cfg.CatalogPath = path
	c, err = cfg.Catalog()
	require.NoError(t, err)
	assert.Equal(t, "test-1", c.Version())
}
