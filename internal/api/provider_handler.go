package api

import (
	"net/http"

	"github.com/shaiso/Surfer/internal/domain"
	"github.com/shaiso/Surfer/internal/llm"
)

// ListProviders возвращает каталог провайдеров и моделей.
// GET /api/v1/providers
func (h *Handler) ListProviders(w http.ResponseWriter, _ *http.Request) {
	providers := domain.Providers()
	result := make([]ProviderResponse, len(providers))
	for i, p := range providers {
		result[i] = ProviderResponse{
			Name:         p.String(),
			DefaultModel: p.DefaultModel(),
			Models:       llm.Models(p.String()),
		}
	}
	List(w, result, len(result))
}

// Health возвращает состояние хранилища и движка.
// Всегда 200: доступность хранилища не влияет на liveness.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Store: "primary", Engine: h.engine}
	if h.caps != nil {
		resp.Capabilities = h.caps.Snapshot()
	}

	switch {
	case h.db.Degraded():
		resp.Status, resp.Store = "degraded", "degraded"
	case h.db.Fallback():
		resp.Status, resp.Store = "degraded", "fallback"
	}
	if !h.db.Degraded() {
		resp.Database = string(h.db.Kind())
		if err := h.db.Ping(r.Context()); err != nil {
			h.logger.Warn("database ping failed", "error", err)
			resp.Status = "degraded"
		}
	}
	Success(w, resp)
}
