package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cameronkuperman/deepdive/internal/interview"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List saved interview sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		sessions, err := st.SessionRepo().List(context.Background())
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions yet.")
			return nil
		}

		fmt.Printf("%-36s  %-18s  %-5s  %-6s  %s\n",
			"ID", "Status", "Qs", "Conf", "Updated")
		fmt.Println(strings.Repeat("─", 90))
		for _, s := range sessions {
			s.Normalize()
			fmt.Printf("%-36s  %-18s  %-5d  %-6s  %s\n",
				s.ID,
				s.Status,
				s.Asked(),
				fmt.Sprintf("%d%%", s.CurrentConfidence),
				s.UpdatedAt.Local().Format("2006-01-02 15:04"),
			)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session's transcript and assessment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		st, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		s, err := st.SessionRepo().Get(context.Background(), args[0])
		if err != nil {
			return err
		}
		s.Normalize()

		if asJSON {
			out, err := json.MarshalIndent(s, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		printSession(s)
		return nil
	},
}

func init() {
	showCmd.Flags().Bool("json", false, "Print the raw session document")
}

func printSession(s *interview.Session) {
	fmt.Printf("Session:    %s\n", s.ID)
	fmt.Printf("Status:     %s\n", s.Status)
	fmt.Printf("Confidence: %d%% (target %d%%)\n", s.CurrentConfidence, s.TargetConfidence)
	fmt.Printf("Questions:  %d asked, ceiling %d\n", s.Asked(), s.LifetimeCeiling)
	if s.ActiveModel != "" {
		fmt.Printf("Model:      %s\n", s.ActiveModel)
	}

	if len(s.Questions) > 0 {
		fmt.Println("\nTranscript:")
		for i, q := range s.Questions {
			fmt.Printf("  Q%d: %s\n", q.Index, q.Text)
			if i < len(s.Answers) {
				fmt.Printf("  A%d: %s\n", q.Index, s.Answers[i].Text)
			}
		}
	}

	if s.FinalAnalysis != nil {
		fmt.Println("\nAssessment:")
		printAnalysis(s.FinalAnalysis)
	}
	if s.EnhancedAnalysis != nil {
		fmt.Println("\nEnhanced assessment:")
		printAnalysis(s.EnhancedAnalysis)
	}
}

func printAnalysis(a *interview.Analysis) {
	fmt.Printf("  %s (%d%% confidence)\n", a.PrimaryAssessment, a.Confidence)
	if a.ConfidenceNote != "" {
		fmt.Printf("  Note: %s\n", a.ConfidenceNote)
	}
	if len(a.RedFlags) > 0 {
		fmt.Println("  Red flags:")
		for _, f := range a.RedFlags {
			fmt.Printf("    - %s\n", f)
		}
	}
	if len(a.Recommendations) > 0 {
		fmt.Println("  Recommendations:")
		for _, r := range a.Recommendations {
			fmt.Printf("    - %s\n", r)
		}
	}
	if len(a.Differentials) > 0 {
		fmt.Println("  Differentials:")
		for _, d := range a.Differentials {
			fmt.Printf("    - %s (%d%%)\n", d.Condition, d.Likelihood)
		}
	}
	if a.Model != "" {
		fmt.Printf("  Produced by %s\n", a.Model)
	}
}
