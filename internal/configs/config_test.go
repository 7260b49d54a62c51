package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "DATA_SOURCE=memory\n" +
		"JWT_SECRET=test-secret\n" +
		"JWT_ACCESS_TTL=30m\n" +
		"CORS_ALLOWED_ORIGINS=http://a.example, ,http://b.example\n" +
		"PRICE_SLIDER_MAX=2500\n" +
		"RABBITMQ_ENABLED=true\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	// godotenv не перезаписывает уже заданные переменные, поэтому очищаем их
	for _, key := range []string{"DATA_SOURCE", "JWT_SECRET", "JWT_ACCESS_TTL", "CORS_ALLOWED_ORIGINS", "PRICE_SLIDER_MAX", "RABBITMQ_ENABLED", "RABBITMQ_URL", "APP_NAME"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)

	assert.Equal(t, "rentals-service", cfg.AppName)
	assert.Equal(t, DataSourceMemory, cfg.DataSource)
	assert.Equal(t, 30*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Rest.CORSAllowedOrigins)
	assert.Equal(t, 2500.0, cfg.Sliders.PriceMax)
	assert.Equal(t, 500.0, cfg.Sliders.AreaMax)
	// без RABBITMQ_URL события выключаются
	assert.False(t, cfg.RabbitMQ.Enabled)
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("DATA_SOURCE", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATA_SOURCE", "memory")
	t.Setenv("JWT_SECRET", "")
	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("DATA_SOURCE", "firestore")
	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "DATA_SOURCE")
}

func TestEnvHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	t.Setenv("SOME_BOOL", "maybe")
	t.Setenv("SOME_DURATION", "soon")
	assert.Equal(t, 7, getEnvAsInt("SOME_INT", 7))
	assert.True(t, getEnvAsBool("SOME_BOOL", true))
	assert.Equal(t, time.Second, getEnvAsDuration("SOME_DURATION", time.Second))
}
