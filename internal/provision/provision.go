package provision

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/shaiso/Surfer/internal/telemetry"
)

// Значения по умолчанию.
const (
	defaultAttempts  = 3
	defaultBaseDelay = time.Second
)

// Capability — опциональная зависимость времени выполнения.
type Capability interface {
	// Name — имя зависимости ("playwright", "chromium").
	Name() string

	// Check проверяет, что зависимость доступна.
	Check(ctx context.Context) error

	// Install пытается установить зависимость.
	Install(ctx context.Context) error
}

// Config — конфигурация Registry.
type Config struct {
	// Attempts — число попыток установки (default: 3).
	Attempts int

	// BaseDelay — базовая задержка backoff: BaseDelay * 2^attempt (default: 1s).
	BaseDelay time.Duration

	Logger *slog.Logger
}

// Registry — реестр опциональных зависимостей.
//
// EnsureAvailable идемпотентен и безопасен для конкурентных вызовов:
// одновременные проверки одной зависимости схлопываются через singleflight,
// результат кешируется.
type Registry struct {
	mu    sync.Mutex
	caps  map[string]Capability
	state map[string]bool

	group     singleflight.Group
	attempts  int
	baseDelay time.Duration
	logger    *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// New создаёт пустой Registry.
func New(cfg Config) *Registry {
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	baseDelay := cfg.BaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		caps:      make(map[string]Capability),
		state:     make(map[string]bool),
		attempts:  attempts,
		baseDelay: baseDelay,
		logger:    telemetry.WithComponent(logger, "provision"),
		sleep:     sleepCtx,
	}
}

// Register добавляет зависимость. Повторная регистрация заменяет её и сбрасывает кеш.
func (r *Registry) Register(c Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caps[c.Name()] = c
	delete(r.state, c.Name())
}

// EnsureAvailable проверяет зависимость и при необходимости устанавливает её.
//
// Алгоритм: check → (install → recheck) × attempts с задержкой
// BaseDelay·2^attempt между попытками. Неизвестное имя → false.
func (r *Registry) EnsureAvailable(ctx context.Context, name string) bool {
	r.mu.Lock()
	if ok, cached := r.state[name]; cached {
		r.mu.Unlock()
		return ok
	}
	c, known := r.caps[name]
	r.mu.Unlock()

	if !known {
		r.logger.Warn("unknown capability", "capability", name)
		return false
	}

	v, _, _ := r.group.Do(name, func() (any, error) {
		ok := r.provision(ctx, c)

		r.mu.Lock()
		// Кеш не перезаписывается, если зависимость заменили во время проверки.
		if r.caps[name] == c {
			r.state[name] = ok
		}
		r.mu.Unlock()

		telemetry.SetCapability(name, ok)
		return ok, nil
	})
	return v.(bool)
}

func (r *Registry) provision(ctx context.Context, c Capability) bool {
	logger := r.logger.With("capability", c.Name())

	err := c.Check(ctx)
	if err == nil {
		logger.Debug("capability available")
		return true
	}
	logger.Info("capability missing, installing", "reason", err)

	for attempt := 0; attempt < r.attempts; attempt++ {
		err = c.Install(ctx)
		if err == nil {
			err = c.Check(ctx)
		}
		if err == nil {
			logger.Info("capability installed", "attempt", attempt+1)
			return true
		}

		logger.Warn("install attempt failed", "attempt", attempt+1, "error", err)
		if attempt == r.attempts-1 {
			break
		}
		delay := r.baseDelay * time.Duration(1<<attempt)
		if serr := r.sleep(ctx, delay); serr != nil {
			logger.Warn("provisioning cancelled", "error", serr)
			return false
		}
	}

	logger.Error("capability unavailable, using stub", "error", err)
	return false
}

// Available возвращает закешированный результат проверки.
// Второе значение false, если проверка ещё не выполнялась.
func (r *Registry) Available(name string) (available, checked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	available, checked = r.state[name]
	return available, checked
}

// Snapshot возвращает копию кеша результатов.
func (r *Registry) Snapshot() map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool, len(r.state))
	for k, v := range r.state {
		out[k] = v
	}
	return out
}

// Capability возвращает зарегистрированную зависимость по имени.
func (r *Registry) Capability(name string) (Capability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.caps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCapability, name)
	}
	return c, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
