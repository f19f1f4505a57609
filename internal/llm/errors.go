package llm

import "errors"

// Ошибки LLM адаптеров.
var (
	// ErrConstruction — адаптер провайдера не удалось создать.
	ErrConstruction = errors.New("llm adapter construction failed")

	// ErrEmptyResponse — модель вернула пустой ответ.
	ErrEmptyResponse = errors.New("llm returned empty response")

	// ErrMissingAPIKey — не задан ключ для провайдера, которому он нужен.
	ErrMissingAPIKey = errors.New("missing api key")

	// ErrMissingEndpoint — не задан endpoint Azure.
	ErrMissingEndpoint = errors.New("missing endpoint")
)
