package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cameronkuperman/deepdive/internal/llm"
)

// LLMRequestEvent is one row of the backend usage log.
type LLMRequestEvent struct {
	ID           int64
	CreatedAt    time.Time
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	CostUSD      float64
}

// UsageTotals aggregates the event log for reporting.
type UsageTotals struct {
	Requests     int
	Failures     int
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// EventRepo is the append-and-report store for LLM request events.
type EventRepo struct {
	db *sql.DB
}

var _ llm.EventRecorder = (*EventRepo)(nil)

// AppendLLMRequest records one backend call.
func (r *EventRepo) AppendLLMRequest(ctx context.Context, ev llm.RequestEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO llm_request_events
		 (created_at, provider, model, purpose, input_tokens, output_tokens,
		  latency_ms, success, error_message, cost_usd)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC(), ev.Provider, ev.Model, ev.Purpose,
		ev.InputTokens, ev.OutputTokens, ev.LatencyMs,
		boolToInt(ev.Success), ev.ErrorMessage, ev.CostUSD)
	if err != nil {
		return fmt.Errorf("insert LLM request event: %w", err)
	}
	return nil
}

// Recent returns the newest events, most recent first.
func (r *EventRepo) Recent(ctx context.Context, limit int) ([]LLMRequestEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at, provider, model, purpose, input_tokens,
		        output_tokens, latency_ms, success, error_message, cost_usd
		 FROM llm_request_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []LLMRequestEvent
	for rows.Next() {
		var ev LLMRequestEvent
		var success int
		if err := rows.Scan(&ev.ID, &ev.CreatedAt, &ev.Provider, &ev.Model,
			&ev.Purpose, &ev.InputTokens, &ev.OutputTokens, &ev.LatencyMs,
			&success, &ev.ErrorMessage, &ev.CostUSD); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Success = success != 0
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Totals aggregates the full event log.
func (r *EventRepo) Totals(ctx context.Context) (UsageTotals, error) {
	var t UsageTotals
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(input_tokens), 0),
		        COALESCE(SUM(output_tokens), 0),
		        COALESCE(SUM(cost_usd), 0)
		 FROM llm_request_events`).
		Scan(&t.Requests, &t.Failures, &t.InputTokens, &t.OutputTokens, &t.CostUSD)
	if err != nil {
		return UsageTotals{}, fmt.Errorf("aggregate events: %w", err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
