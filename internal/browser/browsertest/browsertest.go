// Package browsertest предоставляет браузер в памяти для тестов.
package browsertest

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/shaiso/Surfer/internal/browser"
)

// Page — страница, которую отдаёт Session.
type Page struct {
	Title string
	HTML  string
}

// Session — browser.Session поверх набора страниц.
// Методы безопасны для конкурентного вызова.
type Session struct {
	Pages map[string]Page

	// ClickErr и TypeErr возвращаются соответствующими действиями.
	ClickErr error
	TypeErr  error

	// NoScreenshots заставляет Screenshot возвращать ошибку.
	NoScreenshots bool

	// CloseErr возвращается из Close (сессия всё равно считается закрытой).
	CloseErr error

	mu      sync.Mutex
	history []string
	calls   []string
	closed  int
}

// NewSession создаёт сессию с открытой about:blank.
func NewSession(pages map[string]Page) *Session {
	return &Session{Pages: pages, history: []string{"about:blank"}}
}

var _ browser.Session = (*Session)(nil)

func (s *Session) record(format string, args ...any) {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *Session) current() string {
	if len(s.history) == 0 {
		return "about:blank"
	}
	return s.history[len(s.history)-1]
}

func (s *Session) Navigate(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("navigate %s", url)
	if _, ok := s.Pages[url]; !ok {
		return fmt.Errorf("navigate %s: net::ERR_NAME_NOT_RESOLVED", url)
	}
	s.history = append(s.history, url)
	return nil
}

func (s *Session) Click(_ context.Context, selector string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("click %s", selector)
	return s.ClickErr
}

func (s *Session) Type(_ context.Context, selector, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("type %s %s", selector, text)
	return s.TypeErr
}

func (s *Session) Scroll(_ context.Context, dy int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("scroll %d", dy)
	return nil
}

func (s *Session) Back(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("back")
	if len(s.history) > 1 {
		s.history = s.history[:len(s.history)-1]
	}
	return nil
}

func (s *Session) HTML(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Pages[s.current()].HTML, nil
}

func (s *Session) Title(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Pages[s.current()].Title, nil
}

func (s *Session) CurrentURL(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current(), nil
}

// Screenshot пишет в path небольшой файл с URL страницы.
func (s *Session) Screenshot(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.NoScreenshots {
		return fmt.Errorf("screenshot: %w", browser.ErrSessionClosed)
	}
	return os.WriteFile(path, []byte("PNG "+s.current()), 0o644)
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return s.CloseErr
}

// Calls возвращает журнал действий.
func (s *Session) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Closed возвращает число вызовов Close.
func (s *Session) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Engine — browser.Engine, отдающий заранее созданную сессию.
type Engine struct {
	Session *Session
	Err     error

	mu       sync.Mutex
	profiles []browser.Profile
}

var _ browser.Engine = (*Engine)(nil)

func (e *Engine) Name() string { return "fake" }

func (e *Engine) Launch(_ context.Context, p browser.Profile) (browser.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profiles = append(e.profiles, p)
	if e.Err != nil {
		return nil, e.Err
	}
	return e.Session, nil
}

// Profiles возвращает профили всех запусков.
func (e *Engine) Profiles() []browser.Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]browser.Profile(nil), e.profiles...)
}
