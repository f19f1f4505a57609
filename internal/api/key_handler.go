package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shaiso/Surfer/internal/domain"
)

// ListKeys возвращает сохранённые ключи в замаскированном виде.
// GET /api/v1/keys
func (h *Handler) ListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.keys.List(r.Context())
	if HandleError(w, h.logger, err, "") {
		return
	}

	result := make([]KeyResponse, len(keys))
	for i, k := range keys {
		result[i] = KeyFromDomain(k)
	}
	List(w, result, len(result))
}

// SetKey сохраняет ключ провайдера (последняя запись побеждает).
// PUT /api/v1/keys/{provider}
func (h *Handler) SetKey(w http.ResponseWriter, r *http.Request) {
	provider, ok := keyProvider(w, r)
	if !ok {
		return
	}

	var req SetKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	req.APIKey = strings.TrimSpace(req.APIKey)
	if req.APIKey == "" {
		BadRequest(w, "api_key is required")
		return
	}

	key := domain.APIKey{Provider: provider, Value: req.APIKey}
	if HandleError(w, h.logger, h.keys.Upsert(r.Context(), key), "") {
		return
	}
	Success(w, KeyFromDomain(key))
}

// DeleteKey удаляет ключ провайдера.
// DELETE /api/v1/keys/{provider}
func (h *Handler) DeleteKey(w http.ResponseWriter, r *http.Request) {
	provider, ok := keyProvider(w, r)
	if !ok {
		return
	}
	if HandleError(w, h.logger, h.keys.Delete(r.Context(), provider), "key not found") {
		return
	}
	NoContent(w)
}

// keyProvider проверяет имя провайдера из пути.
// browser_config зарезервирован и через /keys недоступен.
func keyProvider(w http.ResponseWriter, r *http.Request) (string, bool) {
	p := domain.Provider(strings.ToLower(r.PathValue("provider")))
	if !p.IsKnown() {
		BadRequest(w, "unknown provider")
		return "", false
	}
	return p.String(), true
}

// GetBrowserConfig возвращает настройки браузера.
// GET /api/v1/browser-config
func (h *Handler) GetBrowserConfig(w http.ResponseWriter, r *http.Request) {
	settings, err := h.keys.BrowserSettings(r.Context())
	if HandleError(w, h.logger, err, "") {
		return
	}
	Success(w, settings)
}

// SetBrowserConfig сохраняет настройки браузера.
// Отсутствующие поля берут значения по умолчанию.
// PUT /api/v1/browser-config
func (h *Handler) SetBrowserConfig(w http.ResponseWriter, r *http.Request) {
	settings := domain.DefaultBrowserSettings()
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	settings = settings.Normalize()

	if HandleError(w, h.logger, h.keys.SaveBrowserSettings(r.Context(), settings), "") {
		return
	}
	Success(w, settings)
}
