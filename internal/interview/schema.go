package interview

import "github.com/cameronkuperman/deepdive/internal/llm"

// questionOutput is the raw backend response for a question turn.
type questionOutput struct {
	Question         string `json:"question"`
	QuestionCategory string `json:"question_category"`
	Confidence       *int   `json:"confidence"`
	Reasoning        string `json:"reasoning"`
}

// questionRepairKeys whitelists the fields truncation repair may see in a
// question response.
var questionRepairKeys = []string{
	"question", "question_category", "confidence", "reasoning",
}

// QuestionSchema defines the JSON shape expected from question turns.
// Only "question" is strictly required: a response missing confidence
// keeps the previous value rather than failing the turn.
var QuestionSchema = &llm.Schema{
	Name:        "interview-question",
	Description: "The next targeted diagnostic question, with the interviewer's current confidence in its working assessment",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "The single next question to ask. One sentence, plain language, no medical jargon.",
			},
			"question_category": map[string]any{
				"type":        "string",
				"description": "Short category label, e.g. onset, location, severity, aggravating_factors, associated_symptoms, history",
			},
			"confidence": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     100,
				"description": "Self-reported confidence (0-100) in the current working assessment, given everything learned so far",
			},
			"reasoning": map[string]any{
				"type":        "string",
				"description": "One sentence on why this question is the most informative next step",
			},
		},
		"required":             []any{"question"},
		"additionalProperties": false,
	},
}

// analysisOutput is the raw backend response for a final analysis.
type analysisOutput struct {
	PrimaryAssessment string         `json:"primary_assessment"`
	Confidence        *int           `json:"confidence"`
	Differentials     []Differential `json:"differentials"`
	Recommendations   []string       `json:"recommendations"`
	RedFlags          []string       `json:"red_flags"`
	KeyFindings       []string       `json:"key_findings"`
	ConfidenceNote    string         `json:"confidence_note"`
}

// analysisRepairKeys whitelists the fields truncation repair may see in
// an analysis response.
var analysisRepairKeys = []string{
	"primary_assessment", "confidence", "differentials",
	"recommendations", "red_flags", "key_findings", "confidence_note",
}

// AnalysisSchema defines the JSON shape expected from final analysis
// turns. Required-field enforcement (and the refusal to default them)
// lives in validateAnalysis, so a malformed response fails loudly instead
// of becoming a hollow report.
var AnalysisSchema = &llm.Schema{
	Name:        "interview-analysis",
	Description: "The final structured assessment for a completed diagnostic interview",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"primary_assessment": map[string]any{
				"type":        "string",
				"description": "The single most likely explanation for the reported symptoms",
			},
			"confidence": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     100,
				"description": "Confidence (0-100) in the primary assessment",
			},
			"differentials": map[string]any{
				"type":        "array",
				"description": "Alternative explanations, most likely first",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"condition":  map[string]any{"type": "string"},
						"likelihood": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
					},
					"required": []any{"condition", "likelihood"},
				},
			},
			"recommendations": map[string]any{
				"type":        "array",
				"description": "Concrete next steps, ordered by urgency",
				"items":       map[string]any{"type": "string"},
			},
			"red_flags": map[string]any{
				"type":        "array",
				"description": "Findings that warrant urgent in-person care",
				"items":       map[string]any{"type": "string"},
			},
			"key_findings": map[string]any{
				"type":        "array",
				"description": "The answers that most shaped the assessment",
				"items":       map[string]any{"type": "string"},
			},
			"confidence_note": map[string]any{
				"type":        "string",
				"description": "Caveats about the confidence level, e.g. the question cap was hit before the target was reached",
			},
		},
		"required":             []any{"primary_assessment", "confidence", "recommendations"},
		"additionalProperties": false,
	},
}

// validateAnalysis enforces the mandatory analysis fields. Missing fields
// are reported, never defaulted.
func validateAnalysis(out *analysisOutput) error {
	var missing []string
	if out.PrimaryAssessment == "" {
		missing = append(missing, "primary_assessment")
	}
	if out.Confidence == nil {
		missing = append(missing, "confidence")
	}
	if len(out.Recommendations) == 0 {
		missing = append(missing, "recommendations")
	}
	if len(missing) > 0 {
		return &ErrAnalysisValidation{Missing: missing}
	}
	return nil
}
