package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// DecodeFunc turns a backend's raw text into the caller's expected
// structure. A non-nil error marks the attempt as a retryable extraction
// failure; the Gateway will retry the same model and then fall back.
type DecodeFunc func(text string) error

// Attempt records one backend call made while serving a Gateway request.
type Attempt struct {
	Model   string
	Err     string // empty on success
	Elapsed time.Duration
}

// Result is an accepted Gateway response.
type Result struct {
	// Model is the candidate that actually produced the accepted output.
	Model string

	// Text is the raw accepted output, already decoded by the caller's
	// DecodeFunc.
	Text string

	Usage    Usage
	Attempts []Attempt
}

// Gateway is the retry- and fallback-aware client of the reasoning
// backends. It walks a ModelCatalog in preference order, retrying each
// candidate on transient failures with exponential backoff before moving
// to the next. It never runs candidates in parallel and never fabricates
// output: when everything fails the caller gets *ErrAllModelsExhausted.
type Gateway struct {
	catalog *ModelCatalog
	retry   RetryConfig
	timeout time.Duration
}

// NewGateway creates a Gateway over the given catalog.
func NewGateway(catalog *ModelCatalog, retry RetryConfig, timeout time.Duration) *Gateway {
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 1
	}
	return &Gateway{catalog: catalog, retry: retry, timeout: timeout}
}

// Catalog returns the catalog this Gateway consults.
func (g *Gateway) Catalog() *ModelCatalog { return g.catalog }

// Generate sends req to the first candidate that produces output the
// decode function accepts. prefs narrows and orders the candidates; an
// empty prefs uses the full healthy catalog. A nil decode accepts any
// non-empty response.
func (g *Gateway) Generate(ctx context.Context, req Request, prefs []string, decode DecodeFunc) (*Result, error) {
	candidates := g.catalog.Select(prefs)
	if len(candidates) == 0 {
		return nil, &ErrAllModelsExhausted{}
	}

	var attempts []Attempt

	for _, cand := range candidates {
		for n := range g.retry.MaxAttempts {
			resp, elapsed, err := g.attempt(ctx, cand, req)

			if err == nil && decode != nil {
				if decErr := decode(resp.Text); decErr != nil {
					err = &ErrInvalidResponse{Text: resp.Text, Err: decErr}
				}
			}

			if err == nil {
				attempts = append(attempts, Attempt{Model: cand.Ref, Elapsed: elapsed})
				return &Result{
					Model:    cand.Ref,
					Text:     resp.Text,
					Usage:    resp.Usage,
					Attempts: attempts,
				}, nil
			}

			attempts = append(attempts, Attempt{Model: cand.Ref, Err: err.Error(), Elapsed: elapsed})

			if !retryable(err) {
				return nil, err
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			// Last attempt for this candidate, move on without sleeping.
			if n == g.retry.MaxAttempts-1 {
				break
			}

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(g.backoff(n, err)):
			}
		}
	}

	return nil, &ErrAllModelsExhausted{Attempts: attempts}
}

// attempt performs a single bounded backend call.
func (g *Gateway) attempt(ctx context.Context, cand Candidate, req Request) (*Response, time.Duration, error) {
	callCtx := ctx
	var cancel context.CancelFunc
	if g.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := cand.Provider.Generate(callCtx, req)
	elapsed := time.Since(start)

	// A per-attempt deadline hit is a backend timeout, not caller
	// cancellation, as long as the parent context is still live.
	if err != nil && callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		err = &ErrProviderUnavailable{Err: err}
	}

	return resp, elapsed, err
}

// retryable classifies an error as transient.
func retryable(err error) bool {
	// Caller cancellation is never retried.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Explicit client/validation rejection aborts immediately.
	var bad *ErrBadRequest
	if errors.As(err, &bad) {
		return false
	}

	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		return true
	}
	var unavail *ErrProviderUnavailable
	if errors.As(err, &unavail) {
		return true
	}
	var inv *ErrInvalidResponse
	if errors.As(err, &inv) {
		return true
	}

	// Other errors (network, etc.) are treated as transient.
	return true
}

// backoff computes the wait duration before retrying the same candidate.
func (g *Gateway) backoff(attempt int, err error) time.Duration {
	// Respect RetryAfter for rate limits.
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(g.retry.InitialWait) * math.Pow(g.retry.Multiplier, float64(attempt))
	if wait > float64(g.retry.MaxWait) {
		wait = float64(g.retry.MaxWait)
	}

	// Add ±20% jitter.
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
