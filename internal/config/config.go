// Package config загружает настройки сервиса.
//
// Источники (по убыванию приоритета):
//   - переменные окружения (DATABASE_URL, HEALTH_PORT, ...)
//   - YAML файл, путь в SURFER_CONFIG (опционально)
//   - значения по умолчанию
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Значения по умолчанию.
const (
	DefaultAPIPort        = 8080
	DefaultHealthPort     = 8000
	DefaultDBMaxRetries   = 5
	DefaultDBRetryDelay   = 2 * time.Second
	DefaultFallbackDBPath = "./browser_agent_fallback.db"
	DefaultAgentMaxSteps  = 20
	DefaultBrowserEngine  = "chromedp"
	DefaultProvisionTries = 3
)

// Config — типизированные настройки сервиса.
type Config struct {
	// Production — признак production окружения.
	// Выставляется при наличии RAILWAY_ENVIRONMENT, PORT или SURFER_ENV=production.
	Production bool

	DatabaseURL    string
	DBMaxRetries   int
	DBRetryDelay   time.Duration
	FallbackDBPath string

	APIPort      int
	HealthPort   int
	HealthWindow time.Duration

	RabbitMQURL string

	BrowserEngine   string
	ProvisionTries  int
	AgentMaxSteps   int
	ScreenshotsRoot string
}

// envBindings — соответствие ключей viper переменным окружения.
var envBindings = map[string]string{
	"env":                  "SURFER_ENV",
	"railway_environment":  "RAILWAY_ENVIRONMENT",
	"port":                 "PORT",
	"database.url":         "DATABASE_URL",
	"database.max_retries": "DB_MAX_RETRIES",
	"database.retry_delay": "DB_RETRY_DELAY",
	"database.fallback":    "DB_FALLBACK_PATH",
	"api.port":             "API_PORT",
	"health.port":          "HEALTH_PORT",
	"health.window":        "HEALTH_WINDOW",
	"rabbitmq.url":         "RABBITMQ_URL",
	"browser.engine":       "BROWSER_ENGINE",
	"browser.provision":    "PROVISION_ATTEMPTS",
	"agent.max_steps":      "AGENT_MAX_STEPS",
	"agent.screenshots":    "SCREENSHOTS_DIR",
}

// Load читает конфигурацию из окружения и файла SURFER_CONFIG.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.BindEnv("config_file", "SURFER_CONFIG"); err != nil {
		return nil, fmt.Errorf("bind SURFER_CONFIG: %w", err)
	}
	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.max_retries", DefaultDBMaxRetries)
	v.SetDefault("database.retry_delay", DefaultDBRetryDelay)
	v.SetDefault("database.fallback", DefaultFallbackDBPath)
	v.SetDefault("api.port", DefaultAPIPort)
	v.SetDefault("health.port", DefaultHealthPort)
	v.SetDefault("health.window", time.Duration(0))
	v.SetDefault("browser.engine", DefaultBrowserEngine)
	v.SetDefault("browser.provision", DefaultProvisionTries)
	v.SetDefault("agent.max_steps", DefaultAgentMaxSteps)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Production: v.GetString("railway_environment") != "" ||
			v.GetString("port") != "" ||
			strings.EqualFold(v.GetString("env"), "production"),
		DatabaseURL:     strings.TrimSpace(v.GetString("database.url")),
		DBMaxRetries:    v.GetInt("database.max_retries"),
		DBRetryDelay:    v.GetDuration("database.retry_delay"),
		FallbackDBPath:  v.GetString("database.fallback"),
		APIPort:         v.GetInt("api.port"),
		HealthPort:      v.GetInt("health.port"),
		HealthWindow:    v.GetDuration("health.window"),
		RabbitMQURL:     v.GetString("rabbitmq.url"),
		BrowserEngine:   strings.ToLower(v.GetString("browser.engine")),
		ProvisionTries:  v.GetInt("browser.provision"),
		AgentMaxSteps:   v.GetInt("agent.max_steps"),
		ScreenshotsRoot: v.GetString("agent.screenshots"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ErrInvalidConfig — конфигурация содержит недопустимые значения.
var ErrInvalidConfig = errors.New("invalid config")

// Validate проверяет допустимость значений.
func (c *Config) Validate() error {
	if c.DBMaxRetries < 1 {
		return fmt.Errorf("%w: DB_MAX_RETRIES must be >= 1, got %d", ErrInvalidConfig, c.DBMaxRetries)
	}
	if c.DBRetryDelay < 0 {
		return fmt.Errorf("%w: DB_RETRY_DELAY must be >= 0", ErrInvalidConfig)
	}
	if c.APIPort <= 0 || c.HealthPort <= 0 {
		return fmt.Errorf("%w: ports must be positive", ErrInvalidConfig)
	}
	if c.APIPort == c.HealthPort {
		return fmt.Errorf("%w: API_PORT and HEALTH_PORT must differ, both are %d", ErrInvalidConfig, c.APIPort)
	}
	if c.HealthWindow < 0 {
		return fmt.Errorf("%w: HEALTH_WINDOW must be >= 0", ErrInvalidConfig)
	}
	if c.AgentMaxSteps < 1 {
		return fmt.Errorf("%w: AGENT_MAX_STEPS must be >= 1", ErrInvalidConfig)
	}
	switch c.BrowserEngine {
	case "chromedp", "playwright":
	default:
		return fmt.Errorf("%w: unknown BROWSER_ENGINE %q", ErrInvalidConfig, c.BrowserEngine)
	}
	return nil
}

// APIAddr возвращает адрес HTTP API.
func (c *Config) APIAddr() string {
	return fmt.Sprintf(":%d", c.APIPort)
}

// HealthAddr возвращает адрес health endpoint.
func (c *Config) HealthAddr() string {
	return fmt.Sprintf(":%d", c.HealthPort)
}
