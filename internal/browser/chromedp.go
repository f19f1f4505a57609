package browser

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ChromedpEngine — движок на chromedp (Chrome DevTools Protocol).
type ChromedpEngine struct {
	// ExecPath — путь к Chrome, найденный провизионером.
	// Используется, если в профиле путь не задан.
	ExecPath string
}

// Name возвращает имя движка.
func (e *ChromedpEngine) Name() string { return "chromedp" }

// Launch запускает отдельный процесс Chrome для сессии.
func (e *ChromedpEngine) Launch(ctx context.Context, p Profile) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", p.Headless),
		chromedp.WindowSize(p.WindowWidth, p.WindowHeight),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	execPath := p.ExecPath
	if execPath == "" {
		execPath = e.ExecPath
	}
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}

	for _, arg := range p.Args() {
		name, value, ok := strings.Cut(arg, "=")
		if ok {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}

	// Процесс живёт до Close, а не до отмены ctx вызывающего.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// Первый Run запускает браузер.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	return &chromedpSession{
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
		highlight:   p.Highlight,
	}, nil
}

type chromedpSession struct {
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	highlight   bool

	closeOnce sync.Once
}

// run выполняет действия во вкладке с отменой по ctx вызывающего.
func (s *chromedpSession) run(ctx context.Context, actions ...chromedp.Action) error {
	if s.tabCtx.Err() != nil {
		return ErrSessionClosed
	}
	runCtx, cancel := context.WithCancel(s.tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (s *chromedpSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *chromedpSession) Click(ctx context.Context, selector string) error {
	if err := s.flash(ctx, selector); err != nil {
		return err
	}
	return s.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (s *chromedpSession) Type(ctx context.Context, selector, text string) error {
	if err := s.flash(ctx, selector); err != nil {
		return err
	}
	return s.run(ctx,
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
}

// flash подсвечивает элемент, если это включено в профиле.
func (s *chromedpSession) flash(ctx context.Context, selector string) error {
	if !s.highlight {
		return nil
	}
	var found bool
	if err := s.run(ctx, chromedp.Evaluate(highlightExpr(selector), &found)); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return nil
}

func (s *chromedpSession) Scroll(ctx context.Context, dy int) error {
	return s.run(ctx, chromedp.Evaluate(scrollExpr(dy), nil))
}

func (s *chromedpSession) Back(ctx context.Context) error {
	return s.run(ctx, chromedp.NavigateBack())
}

func (s *chromedpSession) HTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (s *chromedpSession) Title(ctx context.Context) (string, error) {
	var title string
	err := s.run(ctx, chromedp.Title(&title))
	return title, err
}

func (s *chromedpSession) CurrentURL(ctx context.Context) (string, error) {
	var url string
	err := s.run(ctx, chromedp.Location(&url))
	return url, err
}

func (s *chromedpSession) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().WithFormat(page.CaptureScreenshotFormatPng).Do(ctx)
		return err
	}))
	if err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}

func (s *chromedpSession) Close() error {
	s.closeOnce.Do(func() {
		s.tabCancel()
		s.allocCancel()
	})
	return nil
}
