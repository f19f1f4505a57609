package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/shaiso/Surfer/internal/domain"
)

// langchainChat — адаптер поверх llms.Model из langchaingo.
type langchainChat struct {
	provider domain.Provider
	model    string
	llm      llms.Model
	opts     []llms.CallOption
}

func (c *langchainChat) Provider() domain.Provider { return c.provider }
func (c *langchainChat) Model() string             { return c.model }

func (c *langchainChat) Chat(ctx context.Context, messages []Message) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.TextParts(chatMessageType(m.Role), m.Content))
	}

	resp, err := c.llm.GenerateContent(ctx, content, c.opts...)
	if err != nil {
		return "", fmt.Errorf("%s chat: %w", c.provider, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", fmt.Errorf("%s chat: %w", c.provider, ErrEmptyResponse)
	}
	return resp.Choices[0].Content, nil
}

func chatMessageType(r Role) llms.ChatMessageType {
	switch r {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

// --- Builders ---

func buildOpenAI(_ context.Context, cfg domain.LLMConfig) (ChatCapability, error) {
	return newOpenAICompatible(domain.ProviderOpenAI, cfg, "", llms.WithTemperature(0))
}

func buildDeepSeek(_ context.Context, cfg domain.LLMConfig) (ChatCapability, error) {
	return newOpenAICompatible(domain.ProviderDeepSeek, cfg, DeepSeekBaseURL)
}

// buildGemini использует OpenAI-совместимый endpoint Gemini API.
func buildGemini(_ context.Context, cfg domain.LLMConfig) (ChatCapability, error) {
	return newOpenAICompatible(domain.ProviderGemini, cfg, GeminiBaseURL)
}

func newOpenAICompatible(p domain.Provider, cfg domain.LLMConfig, baseURL string, callOpts ...llms.CallOption) (ChatCapability, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return &langchainChat{provider: p, model: cfg.Model, llm: model, opts: callOpts}, nil
}

func buildAnthropic(_ context.Context, cfg domain.LLMConfig) (ChatCapability, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	model, err := anthropic.New(
		anthropic.WithToken(cfg.APIKey),
		anthropic.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	return &langchainChat{
		provider: domain.ProviderAnthropic,
		model:    cfg.Model,
		llm:      model,
		opts:     []llms.CallOption{llms.WithTemperature(0)},
	}, nil
}

// buildOllama не требует ключа; endpoint задаёт адрес сервера Ollama.
func buildOllama(_ context.Context, cfg domain.LLMConfig) (ChatCapability, error) {
	opts := []ollama.Option{
		ollama.WithModel(cfg.Model),
		ollama.WithRunnerNumCtx(OllamaNumCtx),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, ollama.WithServerURL(cfg.Endpoint))
	}

	model, err := ollama.New(opts...)
	if err != nil {
		return nil, err
	}
	return &langchainChat{provider: domain.ProviderOllama, model: cfg.Model, llm: model}, nil
}
