package provision

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Имена зависимостей.
const (
	CapPlaywright = "playwright"
	CapChromium   = "chromium"
)

// --- Playwright ---

// PlaywrightCapability — драйвер playwright и Chromium для него.
type PlaywrightCapability struct{}

// Name возвращает имя зависимости.
func (PlaywrightCapability) Name() string { return CapPlaywright }

// Check запускает и останавливает драйвер playwright.
func (PlaywrightCapability) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pw, err := playwright.Run(runOptions())
	if err != nil {
		return fmt.Errorf("run playwright: %w", err)
	}
	return pw.Stop()
}

// Install скачивает драйвер и Chromium.
func (PlaywrightCapability) Install(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := runOptions()
	opts.Browsers = []string{"chromium"}
	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("install playwright: %w", err)
	}
	return nil
}

func runOptions() *playwright.RunOptions {
	return &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
}

// --- Chromium ---

// chromeNames — имена исполняемых файлов Chrome/Chromium в PATH.
var chromeNames = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
	"headless-shell",
}

// ChromiumCapability — установленный в системе Chrome/Chromium для chromedp.
// Автоматической установки нет: Install всегда возвращает ErrNoInstaller.
type ChromiumCapability struct {
	// Path — явно заданный путь к бинарнику (опционально).
	Path string

	// LookPath — поиск в PATH (default: exec.LookPath).
	LookPath func(file string) (string, error)

	mu       sync.Mutex
	resolved string
}

// Name возвращает имя зависимости.
func (c *ChromiumCapability) Name() string { return CapChromium }

// Check ищет бинарник Chrome.
func (c *ChromiumCapability) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if c.Path != "" {
		if _, err := os.Stat(c.Path); err != nil {
			return fmt.Errorf("%w: %s", ErrNotFound, c.Path)
		}
		c.setResolved(c.Path)
		return nil
	}

	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, name := range chromeNames {
		if p, err := lookPath(name); err == nil {
			c.setResolved(p)
			return nil
		}
	}
	return fmt.Errorf("%w: none of %v in PATH", ErrNotFound, chromeNames)
}

// Install не поддерживается.
func (c *ChromiumCapability) Install(context.Context) error {
	return ErrNoInstaller
}

// Resolved возвращает найденный путь после успешной Check.
func (c *ChromiumCapability) Resolved() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolved
}

func (c *ChromiumCapability) setResolved(p string) {
	c.mu.Lock()
	c.resolved = p
	c.mu.Unlock()
}
