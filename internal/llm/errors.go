package llm

import (
	"fmt"
	"strings"
	"time"
)

// ErrRateLimit indicates the backend returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the backend is down, unreachable, or
// timed out.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reasoning backend unavailable: %v", e.Err)
	}
	return "reasoning backend unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrBadRequest indicates the request itself was rejected by the backend
// (invalid parameters, authentication, content policy). Never retried.
type ErrBadRequest struct {
	Err error
}

func (e *ErrBadRequest) Error() string {
	return fmt.Sprintf("backend rejected request: %v", e.Err)
}

func (e *ErrBadRequest) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the backend produced output that could not
// be turned into the expected structure, even after tolerant extraction.
type ErrInvalidResponse struct {
	Text string
	Err  error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid backend response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrAllModelsExhausted is returned by the Gateway when every candidate
// model and every retry has failed. It carries the full attempt log so
// callers can report exactly what was tried.
type ErrAllModelsExhausted struct {
	Attempts []Attempt
}

func (e *ErrAllModelsExhausted) Error() string {
	models := make([]string, 0, len(e.Attempts))
	seen := map[string]bool{}
	for _, a := range e.Attempts {
		if !seen[a.Model] {
			seen[a.Model] = true
			models = append(models, a.Model)
		}
	}
	return fmt.Sprintf("all models exhausted after %d attempts (%s)",
		len(e.Attempts), strings.Join(models, ", "))
}
