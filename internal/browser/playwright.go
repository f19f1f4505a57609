package browser

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightEngine — движок на playwright-go (Chromium).
// Драйвер и браузер должны быть установлены провизионером.
type PlaywrightEngine struct{}

// Name возвращает имя движка.
func (e *PlaywrightEngine) Name() string { return "playwright" }

// Launch запускает драйвер playwright и Chromium для сессии.
func (e *PlaywrightEngine) Launch(ctx context.Context, p Profile) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run(&playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	args := make([]string, 0, len(p.Args()))
	for _, a := range p.Args() {
		args = append(args, "--"+a)
	}
	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(p.Headless),
		Args:     args,
	}
	if p.ExecPath != "" {
		launchOpts.ExecutablePath = playwright.String(p.ExecPath)
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  p.WindowWidth,
			Height: p.WindowHeight,
		},
		BypassCSP: playwright.Bool(p.DisableSecurity),
	})
	if err != nil {
		browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("create context: %w", err)
	}

	pg, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("create page: %w", err)
	}

	return &playwrightSession{
		pw:        pw,
		browser:   browser,
		page:      pg,
		highlight: p.Highlight,
	}, nil
}

type playwrightSession struct {
	pw        *playwright.Playwright
	browser   playwright.Browser
	page      playwright.Page
	highlight bool

	closeOnce sync.Once
}

func (s *playwrightSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Goto(url)
	return err
}

func (s *playwrightSession) Click(ctx context.Context, selector string) error {
	if err := s.flash(ctx, selector); err != nil {
		return err
	}
	return s.page.Click(selector)
}

func (s *playwrightSession) Type(ctx context.Context, selector, text string) error {
	if err := s.flash(ctx, selector); err != nil {
		return err
	}
	return s.page.Fill(selector, text)
}

func (s *playwrightSession) flash(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.highlight {
		return nil
	}
	found, err := s.page.Evaluate(highlightFunc, selector)
	if err != nil {
		return err
	}
	if ok, _ := found.(bool); !ok {
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return nil
}

func (s *playwrightSession) Scroll(ctx context.Context, dy int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Evaluate(scrollExpr(dy))
	return err
}

func (s *playwrightSession) Back(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.GoBack()
	return err
}

func (s *playwrightSession) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.page.Content()
}

func (s *playwrightSession) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.page.Title()
}

func (s *playwrightSession) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.page.URL(), nil
}

func (s *playwrightSession) Screenshot(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Path: playwright.String(path),
	})
	return err
}

func (s *playwrightSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if cerr := s.browser.Close(); cerr != nil {
			err = cerr
		}
		if serr := s.pw.Stop(); serr != nil && err == nil {
			err = serr
		}
	})
	return err
}
