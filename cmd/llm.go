package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cameronkuperman/deepdive/internal/llm"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect reasoning backend configuration and usage",
}

var llmModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show the configured model preference order",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := llm.ConfigFromEnv()
		if err := cfg.Validate(); err != nil {
			fmt.Printf("Configuration problem: %v\n\n", err)
		}
		for i, ref := range cfg.Models {
			role := "fallback"
			if i == 0 {
				role = "primary"
			}
			fmt.Printf("%d. %-40s %s\n", i+1, ref, role)
		}
		return nil
	},
}

var llmEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List recent backend requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		st, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		events, err := st.EventRepo().Recent(context.Background(), limit)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No backend requests recorded yet.")
			return nil
		}

		fmt.Printf("%-5s  %-16s  %-15s  %-28s  %-6s  %-6s  %-7s  %s\n",
			"ID", "Time", "Purpose", "Model", "In", "Out", "Ms", "OK")
		fmt.Println(strings.Repeat("─", 100))
		for _, e := range events {
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			model := e.Model
			if len(model) > 28 {
				model = model[:28]
			}
			fmt.Printf("%-5d  %-16s  %-15s  %-28s  %-6d  %-6d  %-7d  %s\n",
				e.ID,
				e.CreatedAt.Local().Format("01-02 15:04:05"),
				e.Purpose,
				model,
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var llmCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe each configured backend with a minimal request",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg := llm.ConfigFromEnv()
		catalog, err := llm.NewCatalog(ctx, cfg, nil)
		if err != nil {
			return fmt.Errorf("configure reasoning backends: %w", err)
		}

		probe := llm.Request{
			Messages:  []llm.Message{{Role: llm.RoleUser, Content: "Reply with the single word: ok"}},
			MaxTokens: 8,
		}

		failures := 0
		for _, cand := range catalog.All() {
			_, probeErr := cand.Provider.Generate(ctx, probe)
			if probeErr != nil {
				catalog.MarkUnhealthy(cand.Ref)
				failures++
				fmt.Printf("✗ %-40s %v\n", cand.Ref, probeErr)
				continue
			}
			fmt.Printf("✓ %-40s ok\n", cand.Ref)
		}

		if failures > 0 {
			return fmt.Errorf("%d of %d backends unreachable", failures, catalog.Len())
		}
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize backend usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		t, err := st.EventRepo().Totals(context.Background())
		if err != nil {
			return fmt.Errorf("aggregate events: %w", err)
		}

		fmt.Printf("Requests:       %d (%d failed)\n", t.Requests, t.Failures)
		fmt.Printf("Input tokens:   %d\n", t.InputTokens)
		fmt.Printf("Output tokens:  %d\n", t.OutputTokens)
		fmt.Printf("Estimated cost: $%.4f\n", t.CostUSD)
		return nil
	},
}

func init() {
	llmEventsCmd.Flags().Int("limit", 20, "Maximum number of events to show")

	llmCmd.AddCommand(llmModelsCmd)
	llmCmd.AddCommand(llmCheckCmd)
	llmCmd.AddCommand(llmEventsCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
