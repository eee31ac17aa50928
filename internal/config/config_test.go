package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_MODE", "dev")
	t.Setenv("DB_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 2*time.Second, cfg.Payment.MinDelay)
	assert.Equal(t, 3*time.Second, cfg.Payment.MaxDelay)
	assert.Equal(t, 20, cfg.Chat.RatePerMinute)
	assert.Same(t, cfg, AppConfig)
}

func TestLoadRejectsDefaultSecretsInProd(t *testing.T) {
	t.Setenv("APP_MODE", "prod")
	t.Setenv("PROD_JWT_SECRET", "")
	t.Setenv("PROD_DB_PASS", "pw")

	_, err := Load()
	assert.ErrorContains(t, err, "PROD_JWT_SECRET")
}

func TestLoadProd(t *testing.T) {
	t.Setenv("APP_MODE", "prod")
	t.Setenv("PROD_JWT_SECRET", "s1")
	t.Setenv("PROD_JWT_REFRESH_SECRET", "s2")
	t.Setenv("PROD_DB_DSN", "user:pw@tcp(db:3306)/aidmap")
	t.Setenv("ADMIN_EMAILS", " Admin@Example.com, ops@example.com ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsAdminEmail("admin@example.com"))
	assert.False(t, cfg.IsAdminEmail("someone@example.com"))
	assert.Equal(t, "user:pw@tcp(db:3306)/aidmap", buildDSN(cfg.Database))
}

func TestValidateDriver(t *testing.T) {
	t.Setenv("APP_MODE", "dev")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DEV_DB_DSN", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DB_DSN")

	t.Setenv("DB_DRIVER", "oracle")
	_, err = Load()
	assert.ErrorContains(t, err, "invalid DB_DRIVER")
}

func TestBuildDSNPostgres(t *testing.T) {
	dsn := buildDSN(DatabaseConfig{Driver: "postgres", Host: "h", Port: "5432", User: "u", Password: "p", DBName: "d"})
	assert.Contains(t, dsn, "host=h port=5432 user=u password=p dbname=d")
}
