package domain

import (
	"encoding/json"
	"fmt"
)

// BrowserConfigKey — зарезервированный ключ в api_keys,
// под которым хранятся сериализованные BrowserSettings.
const BrowserConfigKey = "browser_config"

// Значения по умолчанию для окна браузера.
const (
	DefaultWindowWidth  = 1280
	DefaultWindowHeight = 1100
)

// BrowserSettings — пользовательские настройки браузера.
//
// В production часть настроек переопределяется фабрикой сессий
// (headless и disable_security принудительно, ChromePath игнорируется).
type BrowserSettings struct {
	Headless          bool   `json:"headless"`
	DisableSecurity   bool   `json:"disable_security"`
	WindowWidth       int    `json:"browser_window_width"`
	WindowHeight      int    `json:"browser_window_height"`
	HighlightElements bool   `json:"highlight_elements"`
	ChromePath        string `json:"chrome_instance_path,omitempty"`
}

// DefaultBrowserSettings возвращает настройки по умолчанию для разработки.
func DefaultBrowserSettings() BrowserSettings {
	return BrowserSettings{
		Headless:          false,
		DisableSecurity:   true,
		WindowWidth:       DefaultWindowWidth,
		WindowHeight:      DefaultWindowHeight,
		HighlightElements: true,
	}
}

// Normalize подставляет размеры окна по умолчанию вместо неположительных.
func (s BrowserSettings) Normalize() BrowserSettings {
	if s.WindowWidth <= 0 {
		s.WindowWidth = DefaultWindowWidth
	}
	if s.WindowHeight <= 0 {
		s.WindowHeight = DefaultWindowHeight
	}
	return s
}

// ParseBrowserSettings разбирает JSON поверх значений по умолчанию.
// Отсутствующие поля сохраняют значения DefaultBrowserSettings.
func ParseBrowserSettings(raw string) (BrowserSettings, error) {
	settings := DefaultBrowserSettings()
	if raw == "" {
		return settings, nil
	}
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return DefaultBrowserSettings(), fmt.Errorf("parse browser settings: %w", err)
	}
	return settings.Normalize(), nil
}

// Marshal сериализует настройки для хранения под BrowserConfigKey.
func (s BrowserSettings) Marshal() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal browser settings: %w", err)
	}
	return string(data), nil
}

// APIKey — учётные данные провайдера LLM.
// Для Provider == BrowserConfigKey поле Value содержит JSON BrowserSettings.
type APIKey struct {
	Provider string `json:"provider"`
	Value    string `json:"api_key"`
}

// Masked возвращает значение ключа, пригодное для вывода.
func (k APIKey) Masked() string {
	if len(k.Value) <= 8 {
		return "********"
	}
	return k.Value[:4] + "..." + k.Value[len(k.Value)-4:]
}

// LLMConfig — параметры подключения к LLM для одного прогона.
type LLMConfig struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	APIKey   string `json:"-"`
	Endpoint string `json:"endpoint,omitempty"`
}
