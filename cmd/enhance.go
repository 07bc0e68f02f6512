package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cameronkuperman/deepdive/internal/interview"
	"github.com/cameronkuperman/deepdive/internal/llm"
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance <session-id>",
	Short: "Re-run a completed session's assessment on a stronger model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		model, _ := cmd.Flags().GetString("model")
		if model == "" {
			return fmt.Errorf("--model is required, e.g. --model anthropic/claude-opus")
		}

		st, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		llmCfg := llm.ConfigFromEnv()
		if !containsRef(llmCfg.Models, model) {
			llmCfg.Models = append(llmCfg.Models, model)
		}
		catalog, err := llm.NewCatalog(ctx, llmCfg, st.EventRepo())
		if err != nil {
			return fmt.Errorf("configure reasoning backends: %w", err)
		}
		gateway := llm.NewGateway(catalog, llmCfg.Retry, llmCfg.Timeout)

		engine := interview.NewEngine(gateway, st.SessionRepo(), interview.DefaultConfig())
		res, err := engine.Enhance(ctx, args[0], model)
		if err != nil {
			return err
		}

		fmt.Printf("Enhanced with %s\n\n", res.ModelUsed)
		printAnalysis(res.Analysis)
		if res.Improvement > 0 {
			fmt.Printf("\nConfidence improved by %d points.\n", res.Improvement)
		} else if res.Improvement < 0 {
			fmt.Printf("\nConfidence dropped by %d points; the stronger model is less certain.\n", -res.Improvement)
		} else {
			fmt.Println("\nConfidence unchanged.")
		}
		return nil
	},
}

func init() {
	enhanceCmd.Flags().String("model", "", "Model ref to enhance with, e.g. anthropic/claude-opus")
}

func containsRef(refs []string, ref string) bool {
	for _, r := range refs {
		if r == ref {
			return true
		}
	}
	return false
}
