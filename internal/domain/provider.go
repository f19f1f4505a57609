package domain

import "strings"

// Provider — поддерживаемый провайдер LLM.
// Набор закрытый: неизвестное значение приводится к ProviderOpenAI.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderAzure     Provider = "azure"
	ProviderGemini    Provider = "gemini"
	ProviderDeepSeek  Provider = "deepseek"
	ProviderOllama    Provider = "ollama"
)

// providerOrder фиксирует порядок вывода в каталоге.
var providerOrder = []Provider{
	ProviderOpenAI,
	ProviderAnthropic,
	ProviderAzure,
	ProviderGemini,
	ProviderDeepSeek,
	ProviderOllama,
}

// modelCatalog — модели, предлагаемые для каждого провайдера.
var modelCatalog = map[Provider][]string{
	ProviderOpenAI:    {"gpt-4o", "gpt-4o-mini", "gpt-4-turbo", "gpt-3.5-turbo"},
	ProviderAnthropic: {"claude-3-5-sonnet-20240620", "claude-3-opus-20240229", "claude-3-sonnet-20240229", "claude-3-haiku-20240307"},
	ProviderAzure:     {"gpt-4o", "gpt-4-turbo", "gpt-3.5-turbo"},
	ProviderGemini:    {"gemini-2.0-flash-exp", "gemini-1.5-pro-001", "gemini-1.5-flash-001"},
	ProviderDeepSeek:  {"deepseek-chat", "deepseek-reasoner"},
	ProviderOllama:    {"qwen2.5", "llama3", "mistral"},
}

// ParseProvider нормализует имя провайдера.
// Пустое или неизвестное имя даёт ProviderOpenAI.
func ParseProvider(s string) Provider {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := modelCatalog[p]; ok {
		return p
	}
	return ProviderOpenAI
}

// IsKnown возвращает true, если провайдер входит в закрытый набор.
func (p Provider) IsKnown() bool {
	_, ok := modelCatalog[p]
	return ok
}

// String возвращает строковое представление Provider.
func (p Provider) String() string {
	return string(p)
}

// Models возвращает копию списка моделей провайдера.
func (p Provider) Models() []string {
	return append([]string(nil), modelCatalog[p]...)
}

// DefaultModel возвращает первую модель каталога.
func (p Provider) DefaultModel() string {
	models := modelCatalog[p]
	if len(models) == 0 {
		return ""
	}
	return models[0]
}

// Providers возвращает все провайдеры в фиксированном порядке.
func Providers() []Provider {
	return append([]Provider(nil), providerOrder...)
}
