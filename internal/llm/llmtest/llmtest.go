// Package llmtest предоставляет управляемую реализацию llm.ChatCapability.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/shaiso/Surfer/internal/domain"
	"github.com/shaiso/Surfer/internal/llm"
)

// ErrExhausted — сценарий ответов закончился.
var ErrExhausted = errors.New("scripted replies exhausted")

// Scripted отдаёт ответы по порядку.
type Scripted struct {
	Replies []string

	// Err, если задан, возвращается вместо ответа с номером FailAt.
	Err    error
	FailAt int

	// Panic, если задан, вызывает panic на первом вызове.
	Panic any

	ProviderName domain.Provider
	ModelName    string

	mu    sync.Mutex
	calls [][]llm.Message
}

var _ llm.ChatCapability = (*Scripted)(nil)

func (s *Scripted) Chat(_ context.Context, messages []llm.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Panic != nil {
		panic(s.Panic)
	}
	n := len(s.calls)
	s.calls = append(s.calls, messages)
	if s.Err != nil && n == s.FailAt {
		return "", s.Err
	}
	if n >= len(s.Replies) {
		return "", ErrExhausted
	}
	return s.Replies[n], nil
}

func (s *Scripted) Provider() domain.Provider {
	if s.ProviderName == "" {
		return domain.ProviderOpenAI
	}
	return s.ProviderName
}

func (s *Scripted) Model() string {
	if s.ModelName == "" {
		return s.Provider().DefaultModel()
	}
	return s.ModelName
}

// Calls возвращает сообщения каждого вызова.
func (s *Scripted) Calls() [][]llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]llm.Message(nil), s.calls...)
}
