package agent

import "sync/atomic"

// ActionRecord — одно выполненное действие.
type ActionRecord struct {
	Thought  string
	NextGoal string
	Name     string
	Params   Params
	Result   string
	Error    string
}

// History — сырой результат прогона агента.
type History struct {
	FinalResult      string
	Actions          []ActionRecord
	URLs             []string
	Screenshots      []string
	ExtractedContent []string
	Errors           []string
	IsDone           bool
}

// HasErrors возвращает true, если хотя бы одно действие завершилось ошибкой.
func (h *History) HasErrors() bool {
	return len(h.Errors) > 0
}

func (h *History) visit(url string) {
	if url == "" || url == "about:blank" {
		return
	}
	if n := len(h.URLs); n > 0 && h.URLs[n-1] == url {
		return
	}
	h.URLs = append(h.URLs, url)
}

// StopSignal — кооперативный сигнал остановки.
// Проверяется между шагами; текущий вызов LLM или браузера не прерывается.
type StopSignal struct {
	stopped atomic.Bool
}

// NewStopSignal создаёт сигнал в неподнятом состоянии.
func NewStopSignal() *StopSignal {
	return &StopSignal{}
}

// Stop поднимает сигнал. Повторный вызов безопасен.
func (s *StopSignal) Stop() {
	s.stopped.Store(true)
}

// Stopped сообщает, поднят ли сигнал. Для nil возвращает false.
func (s *StopSignal) Stopped() bool {
	return s != nil && s.stopped.Load()
}
