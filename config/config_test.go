package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestValidate_Defaults(t *testing.T) {
	cfg := Defaults()
	cfg.DatabaseURL = "postgres://localhost/dive"

	assert.NoError(t, Validate(&cfg))
}

func TestValidate_MissingDatabase(t *testing.T) {
	cfg := Defaults()

	err := Validate(&cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.DatabaseURL = "postgres://localhost/dive"
	cfg.LogLevel = "loud"

	assert.Error(t, Validate(&cfg))
}

func TestApplyEnv_Overrides(t *testing.T) {
	cfg := Defaults()
	applyEnv(&cfg, envMap(map[string]string{
		"PORT":         "8080",
		"DATABASE_URL": "postgres://db/dive",
		"REDIS_ADDR":   "redis:6379",
		"LOG_LEVEL":    "debug",
	}))

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres://db/dive", cfg.DatabaseURL)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "BK", cfg.BasketPrefix)
}

func TestApplyEnv_DSNFromParts(t *testing.T) {
	cfg := Defaults()
	applyEnv(&cfg, envMap(map[string]string{
		"DB_HOST":     "db",
		"DB_USER":     "dive",
		"DB_PASSWORD": "secret",
		"DB_NAME":     "rental",
	}))

	assert.Equal(t, "host=db user=dive password=secret dbname=rental port=5432 sslmode=disable", cfg.DatabaseURL)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: production
port: "9000"
logLevel: warn
databaseURL: postgres://file/dive
webOrigin: https://dashboard.example.com
basketPrefix: DC
`), 0o644))
	for _, k := range []string{"ENV", "PORT", "LOG_LEVEL", "DATABASE_URL", "DB_HOST", "WEB_ORIGIN", "BASKET_PREFIX"} {
		t.Setenv(k, "")
	}

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "postgres://file/dive", cfg.DatabaseURL)
	assert.Equal(t, "DC", cfg.BasketPrefix)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
