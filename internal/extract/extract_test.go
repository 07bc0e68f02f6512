package extract

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

const valid = `{"question": "Does the pain get worse when climbing stairs?", "confidence": 55, "question_category": "aggravating_factors"}`

func mustObject(t *testing.T, raw string, opts ...Option) json.RawMessage {
	t.Helper()
	obj, err := Object(raw, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return obj
}

func parse(t *testing.T, obj json.RawMessage) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(obj, &m); err != nil {
		t.Fatalf("extracted object is not valid JSON: %v", err)
	}
	return m
}

func TestObject_Direct(t *testing.T) {
	obj := mustObject(t, valid)
	if string(obj) != valid {
		t.Fatalf("direct extraction modified input: %s", obj)
	}
}

func TestObject_FencedBlock(t *testing.T) {
	for _, raw := range []string{
		"```json\n" + valid + "\n```",
		"```\n" + valid + "\n```",
	} {
		got := parse(t, mustObject(t, raw))
		want := parse(t, json.RawMessage(valid))
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("fenced extraction mismatch: got %v", got)
		}
	}
}

func TestObject_EmbeddedInProse(t *testing.T) {
	raw := "Sure! Here is the next question:\n\n" + valid + "\n\nLet me know if you need anything else}"
	got := parse(t, mustObject(t, raw))
	if got["confidence"].(float64) != 55 {
		t.Fatalf("embedded extraction lost fields: %v", got)
	}
}

func TestObject_BraceInsideString(t *testing.T) {
	raw := `Some prose {"note": "uses {braces} and a \"quote\"", "n": 1} trailing`
	got := parse(t, mustObject(t, raw))
	if got["n"].(float64) != 1 {
		t.Fatalf("brace counting broke on string contents: %v", got)
	}
}

func TestObject_TruncatedFailsByDefault(t *testing.T) {
	raw := valid[:len(valid)-10]
	_, err := Object(raw)
	if err == nil {
		t.Fatal("expected extraction error for truncated input")
	}
	var exErr *Error
	if !errors.As(err, &exErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if exErr.Snippet == "" {
		t.Fatal("error should carry a snippet")
	}
}

func TestObject_RepairWithWhitelist(t *testing.T) {
	raw := `{"question": "Any swelling around the knee?", "confidence": 4`
	obj, err := Object(raw, WithRepairKeys("question", "confidence", "question_category", "reasoning"))
	if err != nil {
		t.Fatalf("repair should succeed: %v", err)
	}
	got := parse(t, obj)
	if got["question"] != "Any swelling around the knee?" {
		t.Fatalf("repair lost the complete field: %v", got)
	}
}

func TestObject_RepairRejectsUnexpectedKeys(t *testing.T) {
	raw := `{"primary_assessment": "Patellofemoral pain syndrome", "recommendations": ["rest"`
	_, err := Object(raw, WithRepairKeys("question", "confidence"))
	if err == nil {
		t.Fatal("repair must not accept objects outside the key whitelist")
	}
}

func TestObject_RepairUnterminatedString(t *testing.T) {
	raw := `{"question": "Does the pain wake`
	obj, err := Object(raw, WithRepairKeys("question"))
	if err != nil {
		t.Fatalf("repair should close the string: %v", err)
	}
	got := parse(t, obj)
	if got["question"] == "" {
		t.Fatalf("expected partial question text, got %v", got)
	}
}

func TestObject_QuestionFallbackIsOptIn(t *testing.T) {
	raw := "I need a bit more information. How long have you had this pain?"

	// Off by default.
	if _, err := Object(raw); err == nil {
		t.Fatal("question synthesis must not run unless requested")
	}

	obj, err := Object(raw, WithQuestionFallback("question"))
	if err != nil {
		t.Fatalf("opt-in fallback failed: %v", err)
	}
	got := parse(t, obj)
	if got["question"] != "How long have you had this pain?" {
		t.Fatalf("wrong sentence extracted: %v", got)
	}
}

func TestObject_QuestionFallbackNoInterrogative(t *testing.T) {
	_, err := Object("The assessment is complete.", WithQuestionFallback("question"))
	if err == nil {
		t.Fatal("expected error when no interrogative sentence exists")
	}
}

func TestDecode_Typed(t *testing.T) {
	var out struct {
		Question   string `json:"question"`
		Confidence int    `json:"confidence"`
	}
	if err := Decode("```json\n"+valid+"\n```", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Confidence != 55 {
		t.Fatalf("decoded confidence = %d, want 55", out.Confidence)
	}
}

func TestObject_EmptyInput(t *testing.T) {
	if _, err := Object(""); err == nil {
		t.Fatal("expected error for empty input")
	}
}
