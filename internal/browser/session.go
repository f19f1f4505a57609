package browser

import (
	"context"
	"fmt"
	"log/slog"
)

// Session — handle открытого браузера (одна вкладка).
//
// Все операции принимают context; отмена контекста прерывает
// текущую команду драйвера.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error
	Scroll(ctx context.Context, dy int) error
	Back(ctx context.Context) error
	HTML(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	CurrentURL(ctx context.Context) (string, error)

	// Screenshot сохраняет PNG снимок видимой области в path.
	Screenshot(ctx context.Context, path string) error

	// Close освобождает ресурсы браузера. Повторный вызов безопасен.
	Close() error
}

// Engine — движок автоматизации браузера (chromedp, playwright, stub).
type Engine interface {
	Name() string
	Launch(ctx context.Context, p Profile) (Session, error)
}

// Factory открывает сессии на выбранном движке.
// Движок выбирается один раз при старте (см. provision.SelectEngine).
type Factory struct {
	engine Engine
	logger *slog.Logger
}

// NewFactory создаёт фабрику сессий.
func NewFactory(engine Engine, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{engine: engine, logger: logger}
}

// Engine возвращает имя активного движка.
func (f *Factory) Engine() string {
	return f.engine.Name()
}

// Open запускает браузер по профилю.
func (f *Factory) Open(ctx context.Context, p Profile) (Session, error) {
	f.logger.Debug("launching browser",
		"engine", f.engine.Name(),
		"headless", p.Headless,
		"window", fmt.Sprintf("%dx%d", p.WindowWidth, p.WindowHeight),
		"args", len(p.Args()),
	)

	s, err := f.engine.Launch(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLaunch, f.engine.Name(), err)
	}
	return s, nil
}
