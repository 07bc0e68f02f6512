package interview

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronkuperman/deepdive/internal/llm"
)

func TestQuestionSchemaAcceptsWellFormedOutput(t *testing.T) {
	raw := json.RawMessage(`{
		"question": "When did the pain start?",
		"question_category": "onset",
		"confidence": 45,
		"reasoning": "Onset narrows acute vs chronic causes."
	}`)
	require.NoError(t, llm.ValidateSchema(QuestionSchema, raw))
}

func TestQuestionSchemaRequiresQuestion(t *testing.T) {
	raw := json.RawMessage(`{"confidence": 45}`)
	assert.Error(t, llm.ValidateSchema(QuestionSchema, raw))
}

func TestQuestionSchemaToleratesMissingConfidence(t *testing.T) {
	// Confidence is advisory on question turns; the previous value is kept.
	raw := json.RawMessage(`{"question": "Any fever?"}`)
	assert.NoError(t, llm.ValidateSchema(QuestionSchema, raw))
}

func TestQuestionSchemaRejectsExtraKeys(t *testing.T) {
	raw := json.RawMessage(`{"question": "Any fever?", "diagnosis": "flu"}`)
	assert.Error(t, llm.ValidateSchema(QuestionSchema, raw))
}

func TestQuestionSchemaBoundsConfidence(t *testing.T) {
	raw := json.RawMessage(`{"question": "Any fever?", "confidence": 140}`)
	assert.Error(t, llm.ValidateSchema(QuestionSchema, raw))
}

func TestAnalysisSchemaAcceptsWellFormedOutput(t *testing.T) {
	raw := json.RawMessage(`{
		"primary_assessment": "tension headache",
		"confidence": 85,
		"differentials": [{"condition": "migraine", "likelihood": 30}],
		"recommendations": ["rest", "hydration"],
		"red_flags": [],
		"key_findings": ["gradual onset"],
		"confidence_note": ""
	}`)
	require.NoError(t, llm.ValidateSchema(AnalysisSchema, raw))
}

func TestAnalysisSchemaRequiresCoreFields(t *testing.T) {
	for name, raw := range map[string]string{
		"missing assessment":      `{"confidence": 80, "recommendations": ["rest"]}`,
		"missing confidence":      `{"primary_assessment": "x", "recommendations": ["rest"]}`,
		"missing recommendations": `{"primary_assessment": "x", "confidence": 80}`,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, llm.ValidateSchema(AnalysisSchema, json.RawMessage(raw)))
		})
	}
}

func TestValidateAnalysisReportsEmptyFields(t *testing.T) {
	conf := 80
	err := validateAnalysis(&analysisOutput{
		PrimaryAssessment: "tension headache",
		Confidence:        &conf,
		Recommendations:   nil, // schema-valid but semantically empty
	})
	var vErr *ErrAnalysisValidation
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{"recommendations"}, vErr.Missing)
}

func TestValidateAnalysisAcceptsComplete(t *testing.T) {
	conf := 80
	assert.NoError(t, validateAnalysis(&analysisOutput{
		PrimaryAssessment: "tension headache",
		Confidence:        &conf,
		Recommendations:   []string{"rest"},
	}))
}
