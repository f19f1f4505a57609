package provision

import (
	"context"
	"fmt"

	"github.com/shaiso/Surfer/internal/browser"
)

// Имена браузерных движков.
const (
	EngineChromedp   = "chromedp"
	EnginePlaywright = "playwright"
	EngineStub       = "stub"
)

// engineCapability — зависимость, необходимая движку.
var engineCapability = map[string]string{
	EngineChromedp:   CapChromium,
	EnginePlaywright: CapPlaywright,
}

// SelectEngine выбирает браузерный движок.
//
// Порядок: preferred, затем остальные реальные движки,
// затем StubEngine. Выбор выполняется один раз при старте.
func (r *Registry) SelectEngine(ctx context.Context, preferred string) browser.Engine {
	order := []string{preferred}
	for _, name := range []string{EngineChromedp, EnginePlaywright} {
		if name != preferred {
			order = append(order, name)
		}
	}

	var tried []string
	for _, name := range order {
		capName, ok := engineCapability[name]
		if !ok {
			continue
		}
		tried = append(tried, name)
		if !r.EnsureAvailable(ctx, capName) {
			continue
		}
		r.logger.Info("browser engine selected", "engine", name)
		return r.newEngine(name)
	}

	r.logger.Warn("no browser engine available, using stub", "tried", tried)
	return &StubEngine{Cause: fmt.Errorf("no browser engine available (tried %v)", tried)}
}

func (r *Registry) newEngine(name string) browser.Engine {
	switch name {
	case EnginePlaywright:
		return &browser.PlaywrightEngine{}
	default:
		e := &browser.ChromedpEngine{}
		if c, err := r.Capability(CapChromium); err == nil {
			if cc, ok := c.(*ChromiumCapability); ok {
				e.ExecPath = cc.Resolved()
			}
		}
		return e
	}
}

// StubEngine — движок-заглушка: каждая операция возвращает ErrCapabilityUnavailable.
type StubEngine struct {
	Cause error
}

// Name возвращает имя движка.
func (e *StubEngine) Name() string { return EngineStub }

// Launch всегда завершается ошибкой.
func (e *StubEngine) Launch(context.Context, browser.Profile) (browser.Session, error) {
	return nil, e.err()
}

func (e *StubEngine) err() error {
	if e.Cause != nil {
		return fmt.Errorf("%w: %w", ErrCapabilityUnavailable, e.Cause)
	}
	return ErrCapabilityUnavailable
}
