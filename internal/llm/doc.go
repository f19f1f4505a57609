// Package llm сопоставляет провайдеру LLM реализацию ChatCapability.
//
// Поддерживаемые провайдеры:
//   - openai, deepseek, gemini — langchaingo openai (OpenAI-совместимый API)
//   - anthropic                — langchaingo anthropic
//   - ollama                   — langchaingo ollama, ключ не нужен
//   - azure                    — openai-go с azure middleware
//
// Resolve никогда не возвращает nil и не паникует: ошибка создания адаптера
// откладывается до первого вызова Chat.
package llm
