package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var engine engineFlags

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the configured provider is reachable",
		Long: `Constructs the configured backend and issues a minimal test call,
reporting the provider, model, and round-trip latency.`,
		Example: `  inkmark check
  LLM_PROVIDER=openai OPENAI_BASE_URL=http://localhost:1234/v1 inkmark check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, provider, model, err := engine.buildEngine(ctx)
			if err != nil {
				return err
			}

			start := time.Now()
			if err := eng.Provider().TestConnection(ctx); err != nil {
				return fmt.Errorf("connection check failed for %s (%s): %w", provider, model, err)
			}

			fmt.Printf("OK: %s (%s) responded in %s\n", provider, model, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	engine.register(cmd)
	return cmd
}
