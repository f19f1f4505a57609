package llm

import (
	"context"
	"fmt"

	"github.com/shaiso/Surfer/internal/domain"
)

// Role — роль сообщения в диалоге с моделью.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message — одно сообщение диалога.
type Message struct {
	Role    Role
	Content string
}

// System создаёт системное сообщение.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User создаёт сообщение пользователя.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Assistant создаёт сообщение модели.
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// ChatCapability — узкий интерфейс chat-completion.
//
// Реализация не делает повторных попыток: retry — забота вызывающего.
type ChatCapability interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Provider() domain.Provider
	Model() string
}

// failedChat возвращается, когда адаптер не удалось создать.
// Каждый вызов Chat возвращает сохранённую ошибку создания.
type failedChat struct {
	provider domain.Provider
	model    string
	err      error
}

func (f *failedChat) Chat(context.Context, []Message) (string, error) {
	return "", f.err
}

func (f *failedChat) Provider() domain.Provider { return f.provider }
func (f *failedChat) Model() string             { return f.model }

func newFailed(p domain.Provider, model string, cause error) *failedChat {
	return &failedChat{
		provider: p,
		model:    model,
		err:      fmt.Errorf("%w: %s/%s: %w", ErrConstruction, p, model, cause),
	}
}
