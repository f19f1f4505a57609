package domain

import (
	"fmt"
	"time"
)

// Step — проекция одного действия агента в историю задачи.
type Step struct {
	// ID — идентификатор шага вида "step-<i>".
	ID string `json:"id"`

	// Step — порядковый номер шага, начиная с 0.
	Step int `json:"step"`

	// EvaluationPreviousGoal — оценка агентом предыдущей цели.
	EvaluationPreviousGoal string `json:"evaluation_previous_goal"`

	// NextGoal — следующая цель (имя выбранного действия).
	NextGoal string `json:"next_goal"`
}

// NewStep создаёт шаг с номером index.
func NewStep(index int, evaluation, nextGoal string) Step {
	return Step{
		ID:                     fmt.Sprintf("step-%d", index),
		Step:                   index,
		EvaluationPreviousGoal: evaluation,
		NextGoal:               nextGoal,
	}
}

// Result — нормализованный результат одного прогона задачи.
//
// Result формирует Executor; Worker записывает его в хранилище
// (строка tasks + строка task_history) одной транзакцией.
type Result struct {
	ID               string     `json:"id"`
	Task             string     `json:"task"`
	Status           TaskStatus `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	FinishedAt       time.Time  `json:"finished_at"`
	Output           string     `json:"output"`
	Steps            []Step     `json:"steps"`
	URLs             []string   `json:"urls"`
	Screenshots      []string   `json:"screenshots"`
	ExtractedContent []string   `json:"extracted_content"`
	Errors           []string   `json:"errors"`
	IsDone           bool       `json:"is_done"`
	HasErrors        bool       `json:"has_errors"`
}

// History возвращает историю задачи для записи в task_history.
func (r *Result) History() *TaskHistory {
	return &TaskHistory{
		TaskID:           r.ID,
		Steps:            r.Steps,
		URLs:             r.URLs,
		Screenshots:      r.Screenshots,
		ExtractedContent: r.ExtractedContent,
		Errors:           r.Errors,
	}
}

// TaskHistory — подробная история выполнения задачи.
// Связана с Task один-к-одному через TaskID и пишется один раз, при завершении.
type TaskHistory struct {
	TaskID           string   `json:"task_id"`
	Steps            []Step   `json:"steps"`
	URLs             []string `json:"urls"`
	Screenshots      []string `json:"screenshots"`
	ExtractedContent []string `json:"extracted_content"`
	Errors           []string `json:"errors"`
}
