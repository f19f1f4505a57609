package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/shaiso/Surfer/internal/browser"
	"github.com/shaiso/Surfer/internal/llm"
)

// Значения по умолчанию.
const (
	DefaultMaxSteps    = 20
	DefaultMaxFailures = 3
	DefaultScrollPx    = 600

	// historyWindow — сколько последних сообщений диалога отправлять модели
	// помимо системного промпта и задачи.
	historyWindow = 12
)

// Config — параметры агента.
type Config struct {
	MaxSteps    int
	MaxFailures int

	// ScratchDir — каталог для снимков экрана. Пустой отключает снимки.
	ScratchDir string

	Logger *slog.Logger
}

// Agent ведёт браузерную сессию по решениям модели.
type Agent struct {
	chat    llm.ChatCapability
	session browser.Session
	cfg     Config
	logger  *slog.Logger
}

// New создаёт агента.
func New(chat llm.ChatCapability, session browser.Session, cfg Config) *Agent {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultMaxFailures
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Agent{chat: chat, session: session, cfg: cfg, logger: cfg.Logger}
}

// Run выполняет задачу до действия done, исчерпания шагов или ошибки.
//
// История возвращается всегда, в том числе вместе с ошибкой.
// Ошибки действий записываются в историю и не прерывают цикл;
// ошибка модели, отмена контекста и stop прерывают.
func (a *Agent) Run(ctx context.Context, task string, stop *StopSignal) (*History, error) {
	h := &History{}
	head := []llm.Message{llm.System(systemPrompt), llm.User("TASK: " + task)}
	var dialog []llm.Message
	var lastResult string
	failures := 0

	for step := 0; step < a.cfg.MaxSteps; step++ {
		if stop.Stopped() {
			return h, ErrStopped
		}
		if err := ctx.Err(); err != nil {
			return h, err
		}

		state := a.observe(ctx, step, h)
		state.Result = lastResult
		dialog = append(dialog, llm.User(state.message()))

		reply, err := a.chat.Chat(ctx, slices.Concat(head, window(dialog)))
		if err != nil {
			return h, fmt.Errorf("step %d: %w", step, err)
		}
		dialog = append(dialog, llm.Assistant(reply))

		d, err := ParseDecision(reply)
		if err != nil {
			failures++
			h.Errors = append(h.Errors, fmt.Sprintf("step %d: %v", step, err))
			a.logger.Warn("invalid decision", "step", step, "error", err)
			if failures >= a.cfg.MaxFailures {
				return h, fmt.Errorf("%w: %w", ErrTooManyFailures, err)
			}
			lastResult = "your last reply was not a valid action JSON object: " + err.Error()
			continue
		}
		failures = 0

		rec := ActionRecord{
			Thought:  d.EvaluationPreviousGoal,
			NextGoal: d.NextGoal,
			Name:     d.Action.Name,
			Params:   d.Action.Params,
		}

		if d.Action.Name == ActionDone {
			rec.Result = d.Action.Params.Text
			h.Actions = append(h.Actions, rec)
			h.FinalResult = d.Action.Params.Text
			h.IsDone = true
			a.logger.Debug("task done", "step", step)
			return h, nil
		}

		result, err := a.execute(ctx, d.Action, h)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return h, err
			}
			rec.Error = err.Error()
			h.Errors = append(h.Errors, fmt.Sprintf("step %d: %s: %v", step, d.Action.Name, err))
			lastResult = "error: " + err.Error()
		} else {
			rec.Result = result
			lastResult = result
		}
		h.Actions = append(h.Actions, rec)

		a.logger.Debug("action executed",
			"step", step,
			"action", d.Action.Name,
			"error", rec.Error,
		)
	}

	return h, nil
}

// observe снимает состояние страницы. Ошибки наблюдения не фатальны.
func (a *Agent) observe(ctx context.Context, step int, h *History) pageState {
	s := pageState{Step: step}

	if u, err := a.session.CurrentURL(ctx); err == nil {
		s.URL = u
		h.visit(u)
	}
	if t, err := a.session.Title(ctx); err == nil {
		s.Title = t
	}
	if html, err := a.session.HTML(ctx); err == nil && s.URL != "" {
		if r, err := browser.ExtractReadable(html, s.URL); err == nil {
			s.Text = r.Text
		}
	}

	if a.cfg.ScratchDir != "" && s.URL != "" && s.URL != "about:blank" {
		path := filepath.Join(a.cfg.ScratchDir, fmt.Sprintf("step-%02d.png", step))
		if err := a.session.Screenshot(ctx, path); err != nil {
			a.logger.Debug("screenshot failed", "step", step, "error", err)
		} else {
			h.Screenshots = append(h.Screenshots, path)
		}
	}
	return s
}

// execute выполняет одно действие браузера.
func (a *Agent) execute(ctx context.Context, act Action, h *History) (string, error) {
	p := act.Params
	switch act.Name {
	case ActionGoToURL:
		if p.URL == "" {
			return "", fmt.Errorf("%s: url is required", act.Name)
		}
		if err := a.session.Navigate(ctx, p.URL); err != nil {
			return "", err
		}
		if u, err := a.session.CurrentURL(ctx); err == nil {
			h.visit(u)
		}
		return "navigated to " + p.URL, nil

	case ActionClick:
		if p.Selector == "" {
			return "", fmt.Errorf("%s: selector is required", act.Name)
		}
		if err := a.session.Click(ctx, p.Selector); err != nil {
			return "", err
		}
		return "clicked " + p.Selector, nil

	case ActionInputText:
		if p.Selector == "" {
			return "", fmt.Errorf("%s: selector is required", act.Name)
		}
		if err := a.session.Type(ctx, p.Selector, p.Text); err != nil {
			return "", err
		}
		return fmt.Sprintf("typed %q into %s", p.Text, p.Selector), nil

	case ActionScroll:
		dy := p.Amount
		if dy == 0 {
			dy = DefaultScrollPx
		}
		if err := a.session.Scroll(ctx, dy); err != nil {
			return "", err
		}
		return fmt.Sprintf("scrolled by %d px", dy), nil

	case ActionGoBack:
		if err := a.session.Back(ctx); err != nil {
			return "", err
		}
		return "went back", nil

	case ActionExtractContent:
		html, err := a.session.HTML(ctx)
		if err != nil {
			return "", err
		}
		u, _ := a.session.CurrentURL(ctx)
		r, err := browser.ExtractReadable(html, u)
		if err != nil {
			return "", err
		}
		content := r.String()
		h.ExtractedContent = append(h.ExtractedContent, content)
		return content, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownAction, act.Name)
}

// window возвращает хвост диалога. Окно начинается с сообщения пользователя.
func window(dialog []llm.Message) []llm.Message {
	if len(dialog) <= historyWindow {
		return dialog
	}
	tail := dialog[len(dialog)-historyWindow:]
	if tail[0].Role == llm.RoleAssistant {
		tail = tail[1:]
	}
	return tail
}
