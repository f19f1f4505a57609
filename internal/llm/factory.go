package llm

import (
	"context"
	"os"

	"github.com/shaiso/Surfer/internal/domain"
)

// Параметры провайдеров.
const (
	AzureAPIVersion = "2024-10-21"
	DeepSeekBaseURL = "https://api.deepseek.com/v1"
	GeminiBaseURL   = "https://generativelanguage.googleapis.com/v1beta/openai/"
	OllamaNumCtx    = 32000
)

// builder создаёт адаптер для одного провайдера.
type builder func(ctx context.Context, cfg domain.LLMConfig) (ChatCapability, error)

// Factory сопоставляет провайдеру конструктор адаптера.
type Factory struct {
	builders map[domain.Provider]builder
}

// NewFactory создаёт фабрику со всеми поддерживаемыми провайдерами.
func NewFactory() *Factory {
	return &Factory{builders: map[domain.Provider]builder{
		domain.ProviderOpenAI:    buildOpenAI,
		domain.ProviderAnthropic: buildAnthropic,
		domain.ProviderAzure:     buildAzure,
		domain.ProviderGemini:    buildGemini,
		domain.ProviderDeepSeek:  buildDeepSeek,
		domain.ProviderOllama:    buildOllama,
	}}
}

// Resolve возвращает адаптер для провайдера.
//
// Неизвестный или пустой провайдер приводится к openai, пустая модель —
// к первой модели каталога. Результат никогда не nil: если адаптер не удалось
// создать, возвращается адаптер, чей Chat всегда отдаёт ошибку ErrConstruction.
func (f *Factory) Resolve(ctx context.Context, cfg domain.LLMConfig) ChatCapability {
	p := domain.ParseProvider(cfg.Provider)
	cfg.Provider = p.String()
	if cfg.Model == "" {
		cfg.Model = p.DefaultModel()
	}

	build := f.builders[p]
	if build == nil {
		build = f.builders[domain.ProviderOpenAI]
	}

	c, err := build(ctx, cfg)
	if err != nil {
		return newFailed(p, cfg.Model, err)
	}
	return c
}

// Models возвращает каталог моделей провайдера.
func Models(provider string) []string {
	return domain.ParseProvider(provider).Models()
}

// azureEndpoint возвращает endpoint из конфигурации или AZURE_OPENAI_ENDPOINT.
func azureEndpoint(cfg domain.LLMConfig) string {
	if cfg.Endpoint != "" {
		return cfg.Endpoint
	}
	return os.Getenv("AZURE_OPENAI_ENDPOINT")
}
