package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Имена действий.
const (
	ActionGoToURL        = "go_to_url"
	ActionClick          = "click"
	ActionInputText      = "input_text"
	ActionScroll         = "scroll"
	ActionGoBack         = "go_back"
	ActionExtractContent = "extract_content"
	ActionDone           = "done"
)

var knownActions = map[string]bool{
	ActionGoToURL:        true,
	ActionClick:          true,
	ActionInputText:      true,
	ActionScroll:         true,
	ActionGoBack:         true,
	ActionExtractContent: true,
	ActionDone:           true,
}

// Params — аргументы действия. Набор полей зависит от действия.
type Params struct {
	URL      string `json:"url,omitempty"`
	Selector string `json:"selector,omitempty"`
	Text     string `json:"text,omitempty"`
	Amount   int    `json:"amount,omitempty"`
}

// Action — действие, выбранное моделью.
type Action struct {
	Name   string `json:"name"`
	Params Params `json:"params"`
}

// Decision — ответ модели на одном шаге.
type Decision struct {
	EvaluationPreviousGoal string `json:"evaluation_previous_goal"`
	NextGoal               string `json:"next_goal"`
	Action                 Action `json:"action"`
}

// ParseDecision разбирает ответ модели.
//
// Допускаются markdown-ограждения и текст вокруг JSON объекта.
// Невалидный JSON чинится через jsonrepair.
func ParseDecision(raw string) (Decision, error) {
	obj := extractObject(raw)
	if obj == "" {
		return Decision{}, fmt.Errorf("%w: no json object in response", ErrInvalidDecision)
	}

	var d Decision
	if err := json.Unmarshal([]byte(obj), &d); err != nil {
		fixed, repairErr := jsonrepair.JSONRepair(obj)
		if repairErr != nil {
			return Decision{}, fmt.Errorf("%w: %w", ErrInvalidDecision, err)
		}
		d = Decision{}
		if err := json.Unmarshal([]byte(fixed), &d); err != nil {
			return Decision{}, fmt.Errorf("%w: repaired json: %w", ErrInvalidDecision, err)
		}
	}

	d.Action.Name = strings.ToLower(strings.TrimSpace(d.Action.Name))
	if !knownActions[d.Action.Name] {
		return Decision{}, fmt.Errorf("%w: %q", ErrUnknownAction, d.Action.Name)
	}
	return d, nil
}

// extractObject вырезает JSON объект из ответа модели.
// Незакрытый объект возвращается до конца строки.
func extractObject(raw string) string {
	start := strings.Index(raw, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(raw, "}")
	if end < start {
		return strings.TrimSpace(strings.TrimRight(raw[start:], "`\n "))
	}
	return raw[start : end+1]
}
