package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewProvidersCmd создаёт команду каталога провайдеров.
func NewProvidersCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List LLM providers and their models",
		RunE: func(cmd *cobra.Command, args []string) error {
			providers, err := clientFn().ListProviders(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, len(providers))
			for i, p := range providers {
				rows[i] = []string{p.Name, p.DefaultModel, strings.Join(p.Models, ", ")}
			}
			outputFn().Print([]string{"PROVIDER", "DEFAULT", "MODELS"}, rows, providers)
			return nil
		},
	}
}
