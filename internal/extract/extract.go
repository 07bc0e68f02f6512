// Package extract turns raw reasoning-backend text into structured JSON.
//
// Backend output is unreliable: the same prompt may come back as clean
// JSON, JSON inside a markdown fence, JSON buried in prose, or JSON
// truncated mid-object. Extraction tries a fixed ladder of strategies and
// returns the first success. It never substitutes a templated value on
// failure; callers get a typed *Error and decide what to do.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Stage identifies the extraction strategy that produced a result or the
// point where extraction gave up.
type Stage string

const (
	StageDirect   Stage = "direct"
	StageFence    Stage = "fence"
	StageBalanced Stage = "balanced"
	StageRepair   Stage = "repair"
	StageQuestion Stage = "question"
)

// Error reports that no strategy produced valid JSON.
type Error struct {
	// Stage is the last strategy attempted before giving up.
	Stage Stage

	// Snippet is a bounded prefix of the raw input, for diagnostics.
	Snippet string

	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extraction failed at %s stage: %v (input: %.80q)", e.Stage, e.Err, e.Snippet)
}

func (e *Error) Unwrap() error { return e.Err }

const snippetLen = 160

// Option configures a single extraction call.
type Option func(*options)

type options struct {
	repairKeys    []string
	questionField string
}

// WithRepairKeys enables best-effort repair of truncated objects, gated on
// the partially-parsed top-level keys all belonging to the given
// whitelist. Without this option truncated input always fails.
func WithRepairKeys(keys ...string) Option {
	return func(o *options) { o.repairKeys = keys }
}

// WithQuestionFallback enables the last-resort strategy that synthesizes
// {field: <sentence>} from an interrogative sentence in the text.
//
// This is deliberately opt-in per call site: applied as a blanket default
// it silently reinterprets unrelated response shapes (a final analysis,
// say) as a single free-text question.
func WithQuestionFallback(field string) Option {
	return func(o *options) { o.questionField = field }
}

// Object extracts one JSON object from raw text. Pure; no side effects.
func Object(raw string, opts ...Option) (json.RawMessage, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	trimmed := strings.TrimSpace(raw)
	stage := StageDirect

	// (a) Parse as-is.
	if isJSONObject(trimmed) {
		return json.RawMessage(trimmed), nil
	}

	// (b) Strip a fenced code block wrapper and retry.
	stage = StageFence
	if inner, ok := stripFence(trimmed); ok && isJSONObject(inner) {
		return json.RawMessage(inner), nil
	}

	// (c) Balanced-brace scan for an object embedded in prose.
	stage = StageBalanced
	if obj, ok := balancedObject(trimmed); ok && json.Valid([]byte(obj)) {
		return json.RawMessage(obj), nil
	}

	// (d) Bounded repair of truncated objects, key-whitelist gated.
	if len(o.repairKeys) > 0 {
		stage = StageRepair
		if obj, ok := repairTruncated(trimmed, o.repairKeys); ok {
			return json.RawMessage(obj), nil
		}
	}

	// (e) Opt-in question synthesis.
	if o.questionField != "" {
		stage = StageQuestion
		if q, ok := interrogativeSentence(trimmed); ok {
			obj, err := json.Marshal(map[string]string{o.questionField: q})
			if err == nil {
				return json.RawMessage(obj), nil
			}
		}
	}

	return nil, &Error{
		Stage:   stage,
		Snippet: snippet(raw),
		Err:     fmt.Errorf("no JSON object found"),
	}
}

// Decode extracts one JSON object from raw text and unmarshals it into out.
func Decode(raw string, out any, opts ...Option) error {
	obj, err := Object(raw, opts...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(obj, out); err != nil {
		return &Error{
			Stage:   StageDirect,
			Snippet: snippet(string(obj)),
			Err:     fmt.Errorf("unmarshal extracted object: %w", err),
		}
	}
	return nil
}

func isJSONObject(s string) bool {
	return strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}

// stripFence removes a surrounding markdown code fence, with or without a
// language tag.
func stripFence(s string) (string, bool) {
	if !strings.HasPrefix(s, "```") {
		return "", false
	}
	rest := s[3:]

	// Drop an optional language tag up to the first newline.
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return "", false
	}
	rest = rest[nl+1:]

	end := strings.LastIndex(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// balancedObject finds the first '{' and returns the substring through its
// matching close brace, counting depth and skipping string literals. A
// naive search for the last '}' breaks on trailing prose containing one.
func balancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

// repairTruncated closes unterminated strings, arrays, and objects in
// input that was cut off mid-object, then re-parses. The repaired result
// is accepted only when every top-level key belongs to the whitelist,
// so unrelated shapes are never "repaired" into something plausible.
func repairTruncated(s string, allowedKeys []string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	body := s[start:]

	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(body); i++ {
		c := body[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}':
			if len(stack) == 0 || stack[len(stack)-1] != '{' {
				return "", false
			}
			stack = stack[:len(stack)-1]
		case ']':
			if len(stack) == 0 || stack[len(stack)-1] != '[' {
				return "", false
			}
			stack = stack[:len(stack)-1]
		}
	}

	if len(stack) == 0 {
		// Not truncated; some other malformation.
		return "", false
	}

	var b strings.Builder
	b.WriteString(body)
	if inString {
		b.WriteByte('"')
	}

	// A dangling "key": with no value can't be closed into valid JSON;
	// drop back to the last complete element by trimming a trailing comma
	// or colon.
	repaired := strings.TrimRight(b.String(), " \t\n\r")
	repaired = strings.TrimRight(repaired, ",")
	if strings.HasSuffix(repaired, ":") {
		// Remove the orphaned key. Find the quote that opened it.
		repaired = strings.TrimSuffix(repaired, ":")
		repaired = strings.TrimRight(repaired, " \t\n\r")
		if strings.HasSuffix(repaired, `"`) {
			open := strings.LastIndex(repaired[:len(repaired)-1], `"`)
			if open < 0 {
				return "", false
			}
			repaired = strings.TrimRight(repaired[:open], " \t\n\r,")
		}
	}

	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			repaired += "}"
		} else {
			repaired += "]"
		}
	}

	if !json.Valid([]byte(repaired)) {
		return "", false
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		return "", false
	}
	if len(parsed) == 0 {
		return "", false
	}
	allowed := make(map[string]bool, len(allowedKeys))
	for _, k := range allowedKeys {
		allowed[k] = true
	}
	for k := range parsed {
		if !allowed[k] {
			return "", false
		}
	}

	return repaired, true
}

// interrogativeSentence returns the first sentence ending in '?'.
func interrogativeSentence(s string) (string, bool) {
	end := strings.IndexByte(s, '?')
	if end < 0 {
		return "", false
	}

	start := 0
	for i := end - 1; i >= 0; i-- {
		c := s[i]
		if c == '.' || c == '!' || c == '?' || c == '\n' {
			start = i + 1
			break
		}
	}

	q := strings.TrimSpace(s[start : end+1])
	if len(q) < 2 {
		return "", false
	}
	return q, true
}

func snippet(s string) string {
	if len(s) > snippetLen {
		return s[:snippetLen]
	}
	return s
}
