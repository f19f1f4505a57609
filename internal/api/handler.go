package api

import (
	"context"
	"log/slog"

	"github.com/shaiso/Surfer/internal/domain"
	"github.com/shaiso/Surfer/internal/store"
	"github.com/shaiso/Surfer/internal/worker"
)

// TaskService запускает и останавливает задачи. Реализация: worker.Worker.
type TaskService interface {
	Submit(ctx context.Context, req worker.SubmitRequest) (*domain.Task, error)
	Stop(ctx context.Context, id string) (*domain.Task, error)
}

// CapabilityReporter сообщает доступность опциональных зависимостей.
// Реализация: provision.Registry.
type CapabilityReporter interface {
	Snapshot() map[string]bool
}

// Handler — обработчик API с зависимостями.
type Handler struct {
	db      *store.DB
	tasks   *store.TaskRepo
	history *store.HistoryRepo
	keys    *store.APIKeyRepo
	service TaskService
	caps    CapabilityReporter
	engine  string
	logger  *slog.Logger
}

// Config — конфигурация Handler.
type Config struct {
	DB      *store.DB
	Service TaskService

	// Engine — имя активного браузерного движка (для /healthz).
	Engine string

	// Capabilities (опционально) — состояние зависимостей для /healthz.
	Capabilities CapabilityReporter

	Logger *slog.Logger
}

// NewHandler создаёт Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		db:      cfg.DB,
		tasks:   store.NewTaskRepo(cfg.DB),
		history: store.NewHistoryRepo(cfg.DB),
		keys:    store.NewAPIKeyRepo(cfg.DB),
		service: cfg.Service,
		caps:    cfg.Capabilities,
		engine:  cfg.Engine,
		logger:  logger,
	}
}
