package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// Финальные статусы задачи.
var terminalStatuses = map[string]bool{
	"finished": true,
	"failed":   true,
	"stopped":  true,
}

// NewTaskCmd создаёт группу команд для управления задачами.
func NewTaskCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage browser automation tasks",
	}

	cmd.AddCommand(
		newTaskRunCmd(clientFn, outputFn),
		newTaskListCmd(clientFn, outputFn),
		newTaskShowCmd(clientFn, outputFn),
		newTaskStopCmd(clientFn, outputFn),
	)

	return cmd
}

func taskRow(t TaskResponse) []string {
	return []string{t.ID, t.Status, t.LLMProvider, t.LLMModel, t.CreatedAt, truncate(t.Task, 48)}
}

var taskHeaders = []string{"ID", "STATUS", "PROVIDER", "MODEL", "CREATED", "TASK"}

func newTaskRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var req CreateTaskRequest
	var wait bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "run INSTRUCTIONS...",
		Short: "Start a new task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()
			ctx := cmd.Context()

			req.Task = strings.Join(args, " ")
			task, err := client.CreateTask(ctx, req)
			if err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Task started: %s", task.ID))

			if wait {
				if task, err = waitTask(ctx, client, task.ID, interval); err != nil {
					return err
				}
			}

			printTask(out, task)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.LLMProvider, "provider", "", "LLM provider (openai, anthropic, azure, gemini, deepseek, ollama)")
	cmd.Flags().StringVar(&req.LLMModel, "model", "", "Model name (provider default if not specified)")
	cmd.Flags().StringVar(&req.APIKey, "api-key", "", "API key (stored key if not specified)")
	cmd.Flags().StringVar(&req.Endpoint, "endpoint", "", "Provider endpoint (azure, ollama)")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the task finishes")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Polling interval for --wait")

	return cmd
}

// waitTask опрашивает задачу, пока она не перейдёт в финальный статус.
func waitTask(ctx context.Context, client *Client, id string, interval time.Duration) (*TaskResponse, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		task, err := client.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		if terminalStatuses[task.Status] {
			return task, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func newTaskListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListTasksOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			tasks, total, err := client.ListTasks(cmd.Context(), opts)
			if err != nil {
				return err
			}

			rows := make([][]string, len(tasks))
			for i, t := range tasks {
				rows[i] = taskRow(t)
			}

			out.Print(taskHeaders, rows, tasks)
			if !out.Structured() && total > len(tasks) {
				out.Success(fmt.Sprintf("Showing %d of %d tasks", len(tasks), total))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status (created, running, finished, failed, stopped)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of results")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Number of results to skip")

	return cmd
}

func newTaskShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show task details and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := clientFn().GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTask(outputFn(), task)
			return nil
		},
	}
}

func newTaskStopCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "stop ID",
		Short: "Stop a running task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := clientFn().StopTask(cmd.Context(), args[0])
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Code == "INVALID_STATE" {
				return fmt.Errorf("task %s is already finished", args[0])
			}
			if err != nil {
				return err
			}

			outputFn().Success(fmt.Sprintf("Task stopped: %s", task.ID))
			return nil
		},
	}
}

// printTask выводит задачу, а в табличном режиме — ещё историю и результат.
func printTask(out *Output, t *TaskResponse) {
	out.Print(taskHeaders, [][]string{taskRow(*t)}, t)
	if out.Structured() {
		return
	}

	if t.History != nil {
		if len(t.History.Steps) > 0 {
			out.Text("")
			rows := make([][]string, len(t.History.Steps))
			for i, s := range t.History.Steps {
				rows[i] = []string{strconv.Itoa(s.Step), s.NextGoal, truncate(s.EvaluationPreviousGoal, 60)}
			}
			out.Table([]string{"STEP", "ACTION", "EVALUATION"}, rows)
		}
		for _, u := range t.History.URLs {
			out.Text("url: " + u)
		}
		for _, s := range t.History.Screenshots {
			out.Text("screenshot: " + s)
		}
		for _, e := range t.History.Errors {
			out.Text("error: " + e)
		}
	}
	if t.Output != "" {
		out.Text("")
		out.Text(t.Output)
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
