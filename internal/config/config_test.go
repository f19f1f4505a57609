package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv сбрасывает переменные, влияющие на Load.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
	t.Setenv("SURFER_CONFIG", "")
	os.Unsetenv("SURFER_CONFIG")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Production)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, DefaultDBMaxRetries, cfg.DBMaxRetries)
	assert.Equal(t, DefaultDBRetryDelay, cfg.DBRetryDelay)
	assert.Equal(t, DefaultFallbackDBPath, cfg.FallbackDBPath)
	assert.Equal(t, ":8080", cfg.APIAddr())
	assert.Equal(t, ":8000", cfg.HealthAddr())
	assert.Zero(t, cfg.HealthWindow)
	assert.Equal(t, "chromedp", cfg.BrowserEngine)
	assert.Equal(t, 20, cfg.AgentMaxSteps)
}

func TestLoad_ProductionIndicators(t *testing.T) {
	for _, env := range []string{"RAILWAY_ENVIRONMENT", "PORT"} {
		t.Run(env, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(env, "1")

			cfg, err := Load()
			require.NoError(t, err)
			assert.True(t, cfg.Production)
		})
	}

	t.Run("SURFER_ENV", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SURFER_ENV", "Production")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Production)
	})
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@db/app")
	t.Setenv("DB_MAX_RETRIES", "3")
	t.Setenv("DB_RETRY_DELAY", "500ms")
	t.Setenv("HEALTH_PORT", "9001")
	t.Setenv("HEALTH_WINDOW", "2m")
	t.Setenv("BROWSER_ENGINE", "Playwright")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db/app", cfg.DatabaseURL)
	assert.Equal(t, 3, cfg.DBMaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.DBRetryDelay)
	assert.Equal(t, ":9001", cfg.HealthAddr())
	assert.Equal(t, 2*time.Minute, cfg.HealthWindow)
	assert.Equal(t, "playwright", cfg.BrowserEngine)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "surfer.yaml")
	content := "api:\n  port: 9090\nagent:\n  max_steps: 7\nrabbitmq:\n  url: amqp://guest:guest@mq:5672/\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("SURFER_CONFIG", path)
	t.Setenv("AGENT_MAX_STEPS", "9")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.APIPort)
	assert.Equal(t, 9, cfg.AgentMaxSteps, "env wins over file")
	assert.Equal(t, "amqp://guest:guest@mq:5672/", cfg.RabbitMQURL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown engine": {"BROWSER_ENGINE": "netscape"},
		"same ports":     {"API_PORT": "9000", "HEALTH_PORT": "9000"},
		"health on api":  {"HEALTH_PORT": "8080"},
		"zero retries":   {"DB_MAX_RETRIES": "0"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
