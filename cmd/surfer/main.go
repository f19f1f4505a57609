// Surfer CLI — инструмент командной строки для управления
// задачами автоматизации браузера через HTTP API.
//
// Использование:
//
//	surfer [--api-url URL] [--json|--yaml] <command> <subcommand> [flags]
//
// Команды:
//
//	task       Запуск, просмотр и остановка задач
//	key        Ключи LLM провайдеров
//	providers  Каталог провайдеров и моделей
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/Surfer/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput, yamlOutput bool

	rootCmd := &cobra.Command{
		Use:           "surfer",
		Short:         "Surfer CLI — browser automation agent",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultURL := "http://localhost:8080"
	if v := os.Getenv("SURFER_API_URL"); v != "" {
		defaultURL = v
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&yamlOutput, "yaml", false, "Output in YAML format")
	rootCmd.MarkFlagsMutuallyExclusive("json", "yaml")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output {
		switch {
		case jsonOutput:
			return cli.NewOutput(cli.FormatJSON)
		case yamlOutput:
			return cli.NewOutput(cli.FormatYAML)
		default:
			return cli.NewOutput(cli.FormatTable)
		}
	}

	rootCmd.AddCommand(
		cli.NewTaskCmd(clientFn, outputFn),
		cli.NewKeyCmd(clientFn, outputFn),
		cli.NewProvidersCmd(clientFn, outputFn),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
