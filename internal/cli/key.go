package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewKeyCmd создаёт группу команд для управления ключами провайдеров.
func NewKeyCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage LLM provider API keys",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List stored keys (masked)",
			RunE: func(cmd *cobra.Command, args []string) error {
				keys, err := clientFn().ListKeys(cmd.Context())
				if err != nil {
					return err
				}

				rows := make([][]string, len(keys))
				for i, k := range keys {
					rows[i] = []string{k.Provider, k.APIKey}
				}
				outputFn().Print([]string{"PROVIDER", "API_KEY"}, rows, keys)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set PROVIDER KEY",
			Short: "Store an API key for a provider",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				key, err := clientFn().SetKey(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				outputFn().Success(fmt.Sprintf("Key saved: %s (%s)", key.Provider, key.APIKey))
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete PROVIDER",
			Short: "Delete a stored key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := clientFn().DeleteKey(cmd.Context(), args[0]); err != nil {
					return err
				}
				outputFn().Success(fmt.Sprintf("Key deleted: %s", args[0]))
				return nil
			},
		},
	)

	return cmd
}
