package interview

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

const interviewerSystemPrompt = `You are an experienced clinician conducting a focused diagnostic intake interview. You ask one question at a time, each chosen to most reduce your uncertainty about the most likely explanation for the patient's complaint.

Instructions:
- Ask exactly ONE question per turn. Plain language, one sentence, no jargon.
- Never repeat or rephrase a question you have already asked.
- With every question, report your current confidence (0-100) in your working assessment. Confidence may go down if an answer contradicts your hypothesis.
- Respond with a single JSON object and nothing else.`

const analystSystemPrompt = `You are an experienced clinician writing up a focused diagnostic intake interview. Based on the intake context and the full question/answer transcript, produce your structured assessment.

Instructions:
- Commit to one primary assessment and give your confidence (0-100) in it.
- Always include concrete recommendations; never leave them empty.
- List differentials worth ruling out and any red flags needing urgent care.
- If your confidence falls short of what was asked of you, say so plainly in the confidence note.
- Respond with a single JSON object and nothing else.`

var firstQuestionTemplate = template.Must(template.New("first").Parse(`A patient has started an intake with the following context:

{{.Context}}

Ask your first question. Respond as JSON:
{"question": "...", "question_category": "...", "confidence": <0-100>, "reasoning": "..."}`))

var nextQuestionTemplate = template.Must(template.New("next").Parse(`A patient intake is in progress.

Intake context:
{{.Context}}

Transcript so far:
{{.Transcript}}

Questions already asked — do NOT repeat or rephrase any of these:
{{.Avoid}}
{{if .Rejected}}
Your previous suggestion was rejected as a near-duplicate of an earlier question:
{{.Rejected}}
Ask about something you have not covered yet.
{{end}}
Ask your next question. Respond as JSON:
{"question": "...", "question_category": "...", "confidence": <0-100>, "reasoning": "..."}`))

var analysisTemplate = template.Must(template.New("analysis").Parse(`A patient intake interview has finished.

Intake context:
{{.Context}}

Full transcript:
{{.Transcript}}

Target confidence for this interview: {{.Target}}. Confidence reported after the last answer: {{.Current}}.

Write your assessment. Respond as JSON:
{"primary_assessment": "...", "confidence": <0-100>, "differentials": [{"condition": "...", "likelihood": <0-100>}], "recommendations": ["..."], "red_flags": ["..."], "key_findings": ["..."], "confidence_note": "..."}`))

// renderContext formats the opaque subject context for a prompt. The
// engine never interprets the payload; it is passed through as indented
// JSON when possible, raw otherwise.
func renderContext(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "(no intake context provided)"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// renderTranscript formats the aligned question/answer logs.
func renderTranscript(s *Session) string {
	var b strings.Builder
	for i, q := range s.Questions {
		fmt.Fprintf(&b, "Q%d: %s\n", q.Index, q.Text)
		if i < len(s.Answers) {
			fmt.Fprintf(&b, "A%d: %s\n", q.Index, s.Answers[i].Text)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderAvoidList formats prior questions as a numbered list for the
// dedup instruction.
func renderAvoidList(questions []string) string {
	if len(questions) == 0 {
		return "None"
	}
	var b strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildFirstQuestionPrompt(s *Session) (string, error) {
	var buf bytes.Buffer
	err := firstQuestionTemplate.Execute(&buf, map[string]any{
		"Context": renderContext(s.SubjectContext),
	})
	if err != nil {
		return "", fmt.Errorf("build first-question prompt: %w", err)
	}
	return buf.String(), nil
}

// buildNextQuestionPrompt renders the next-question prompt. rejected is
// the near-duplicate candidate from the previous generation attempt, if
// any.
func buildNextQuestionPrompt(s *Session, rejected string) (string, error) {
	var buf bytes.Buffer
	err := nextQuestionTemplate.Execute(&buf, map[string]any{
		"Context":    renderContext(s.SubjectContext),
		"Transcript": renderTranscript(s),
		"Avoid":      renderAvoidList(s.QuestionTexts()),
		"Rejected":   rejected,
	})
	if err != nil {
		return "", fmt.Errorf("build next-question prompt: %w", err)
	}
	return buf.String(), nil
}

func buildAnalysisPrompt(s *Session) (string, error) {
	var buf bytes.Buffer
	err := analysisTemplate.Execute(&buf, map[string]any{
		"Context":    renderContext(s.SubjectContext),
		"Transcript": renderTranscript(s),
		"Target":     s.TargetConfidence,
		"Current":    s.CurrentConfidence,
	})
	if err != nil {
		return "", fmt.Errorf("build analysis prompt: %w", err)
	}
	return buf.String(), nil
}
