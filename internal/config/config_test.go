package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("APP_MODE", "dev")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("LIBRARY_TIMEZONE", "UTC")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, int64(1000), cfg.Library.FineRatePerDay)
	assert.Equal(t, 10, cfg.Library.PatronCodeAttempts)
	assert.Equal(t, "UTC", cfg.Location().String())
	assert.True(t, cfg.Cron.Enabled)
	assert.Equal(t, HTTPConfig{RateLimitPerMinute: 100, LoginLimitPerMinute: 5}, cfg.HTTP)
	assert.True(t, cfg.Seed.SampleData)
	assert.Equal(t, "*", cfg.GetAllowedOrigins())
}

func TestFromEnvProdPrefixes(t *testing.T) {
	t.Setenv("APP_MODE", "prod")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("LIBRARY_TIMEZONE", "Asia/Bangkok")
	t.Setenv("PROD_DB_HOST", "db.internal")
	t.Setenv("PROD_JWT_SECRET", "prod-secret")
	t.Setenv("FINE_RATE_PER_DAY", "2500")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "prod-secret", cfg.JWT.Secret)
	assert.Equal(t, int64(2500), cfg.Library.FineRatePerDay)
	assert.False(t, cfg.Seed.SampleData)
	assert.Equal(t, "Asia/Bangkok", cfg.Location().String())
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"app mode", "APP_MODE", "staging"},
		{"driver", "DB_DRIVER", "oracle"},
		{"negative rate", "FINE_RATE_PER_DAY", "-5"},
		{"non numeric rate", "FINE_RATE_PER_DAY", "ten"},
		{"attempts", "PATRON_CODE_ATTEMPTS", "0"},
		{"timezone", "LIBRARY_TIMEZONE", "Mars/Olympus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_MODE", "dev")
			t.Setenv("DB_DRIVER", "sqlite")
			t.Setenv("LIBRARY_TIMEZONE", "UTC")
			t.Setenv(tt.key, tt.val)

			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestBuildDSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: "1", User: "u", Password: "p", DBName: "lib"}

	assert.Equal(t, "u:p@tcp(h:1)/lib?charset=utf8mb4&parseTime=True&loc=UTC", buildMySQLDSN(d))
	assert.Equal(t, "host=h port=1 user=u password=p dbname=lib sslmode=disable", buildPostgresDSN(d))
	assert.Equal(t, "file:data/lib.db?_busy_timeout=5000&_foreign_keys=1", buildSQLiteDSN("data/lib.db"))
}
