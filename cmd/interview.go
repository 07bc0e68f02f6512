package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cameronkuperman/deepdive/internal/app"
	"github.com/cameronkuperman/deepdive/internal/interview"
	"github.com/cameronkuperman/deepdive/internal/llm"
	interviewscreen "github.com/cameronkuperman/deepdive/internal/screens/interview"
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Start a new diagnostic interview",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInterview(cmd)
	},
}

func init() {
	for _, c := range []*cobra.Command{interviewCmd, rootCmd} {
		c.Flags().String("context", "", "Intake context as inline JSON, or @path to read a JSON file")
		c.Flags().Int("target", 0, "Target confidence (0-100, default 90)")
		c.Flags().Int("max-questions", 0, "Question cap for the base interview")
		c.Flags().String("models", "", "Comma-separated model preferences, e.g. anthropic/claude-haiku,openai/gpt-4o-mini")
	}
}

func runInterview(cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := openStore(cmd)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	llmCfg := llm.ConfigFromEnv()
	if models, _ := cmd.Flags().GetString("models"); models != "" {
		llmCfg.Models = splitCSV(models)
	}
	catalog, err := llm.NewCatalog(ctx, llmCfg, st.EventRepo())
	if err != nil {
		return fmt.Errorf("configure reasoning backends: %w", err)
	}
	gateway := llm.NewGateway(catalog, llmCfg.Retry, llmCfg.Timeout)

	engCfg := interview.DefaultConfig()
	if t, _ := cmd.Flags().GetInt("target"); t > 0 {
		engCfg.TargetConfidence = t
	}
	if mq, _ := cmd.Flags().GetInt("max-questions"); mq > 0 {
		engCfg.MaxQuestions = mq
	}

	subject, err := readSubjectContext(cmd)
	if err != nil {
		return err
	}

	engine := interview.NewEngine(gateway, st.SessionRepo(), engCfg)
	return app.Run(interviewscreen.New(engine, subject, engCfg))
}

// readSubjectContext parses --context: inline JSON, @file, or empty.
func readSubjectContext(cmd *cobra.Command) (json.RawMessage, error) {
	raw, _ := cmd.Flags().GetString("context")
	if raw == "" {
		return nil, nil
	}

	if strings.HasPrefix(raw, "@") {
		data, err := os.ReadFile(raw[1:])
		if err != nil {
			return nil, fmt.Errorf("read context file: %w", err)
		}
		raw = string(data)
	}

	if !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("--context must be valid JSON")
	}
	return json.RawMessage(raw), nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
