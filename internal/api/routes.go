package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes регистрирует маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Tasks
	mux.Handle("GET /api/v1/tasks", chain(http.HandlerFunc(h.ListTasks)))
	mux.Handle("POST /api/v1/tasks", chain(http.HandlerFunc(h.CreateTask)))
	mux.Handle("GET /api/v1/tasks/{id}", chain(http.HandlerFunc(h.GetTask)))
	mux.Handle("POST /api/v1/tasks/{id}/stop", chain(http.HandlerFunc(h.StopTask)))

	// API keys
	mux.Handle("GET /api/v1/keys", chain(http.HandlerFunc(h.ListKeys)))
	mux.Handle("PUT /api/v1/keys/{provider}", chain(http.HandlerFunc(h.SetKey)))
	mux.Handle("DELETE /api/v1/keys/{provider}", chain(http.HandlerFunc(h.DeleteKey)))

	// Browser settings
	mux.Handle("GET /api/v1/browser-config", chain(http.HandlerFunc(h.GetBrowserConfig)))
	mux.Handle("PUT /api/v1/browser-config", chain(http.HandlerFunc(h.SetBrowserConfig)))

	// Catalog
	mux.Handle("GET /api/v1/providers", chain(http.HandlerFunc(h.ListProviders)))

	// Service
	mux.Handle("GET /healthz", chain(http.HandlerFunc(h.Health)))
	mux.Handle("GET /metrics", promhttp.Handler())
}
