package llm

import "context"

// Provider is the core abstraction for a single reasoning backend.
// Consumers call Generate with a Request and receive the backend's raw
// text output. Providers never post-process the text: tolerant parsing
// of noisy output is the Gateway's job.
type Provider interface {
	// Generate sends a prompt to the backend and returns its raw output.
	// The request's Schema field, when set, instructs the provider to use
	// its native structured-output mechanism, but the returned Text is
	// still treated as untrusted free text by callers.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the reasoning backend.
type Request struct {
	// System is the system prompt. Sets the backend's role and constraints.
	System string

	// Messages is the conversation history in turn order.
	Messages []Message

	// Schema is the JSON structure the response should conform to.
	// When set, providers that support structured output use it natively.
	// Conformance is verified downstream, after extraction.
	Schema *Schema

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	// Default: 0.0 (deterministic) when not set.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the backend.
type Schema struct {
	// Name identifies this schema. Kebab-case, e.g. "interview-question".
	Name string

	// Description is sent to the backend to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds a backend's raw output.
type Response struct {
	// Text is the raw generated output. May be clean JSON, markdown-wrapped
	// JSON, JSON embedded in prose, or truncated mid-object.
	Text string

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "error"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
