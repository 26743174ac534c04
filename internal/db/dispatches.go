package db

import (
	"context"
	"fmt"
	"time"

	"tcu-monitor/internal/models"
)

// DispatchRecord is one archived notification dispatch with its batch tally.
type DispatchRecord struct {
	RequestID string    `json:"request_id"`
	Kind      string    `json:"kind"`
	Body      string    `json:"body"`
	Emergency bool      `json:"emergency"`
	CreatedAt time.Time `json:"created_at"`
	Delivered int       `json:"delivered"`
	Failed    int       `json:"failed"`
}

// RecordDispatch archives one dispatch and its per-recipient outcomes.
func (d *DB) RecordDispatch(ctx context.Context, disp models.Dispatch, results []models.SendResult) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	delivered, failed := 0, 0
	for _, r := range results {
		if r.Success {
			delivered++
		} else {
			failed++
		}
	}

	query := `
        INSERT INTO dispatches (request_id, kind, body, emergency, created_at, delivered, failed)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.Exec(ctx, query,
		disp.RequestID, string(disp.Kind), disp.Body, disp.Emergency, disp.CreatedAt, delivered, failed); err != nil {
		return fmt.Errorf("failed to insert dispatch: %w", err)
	}

	for _, r := range results {
		query := `
            INSERT INTO dispatch_results (request_id, recipient, chat_id, success, error)
            VALUES ($1, $2, $3, $4, $5)`
		if _, err := tx.Exec(ctx, query,
			disp.RequestID, r.Recipient, r.ChatID, r.Success, r.Error); err != nil {
			return fmt.Errorf("failed to insert dispatch result: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit dispatch: %w", err)
	}
	return nil
}

// ListRecentDispatches returns the newest archived dispatches.
func (d *DB) ListRecentDispatches(ctx context.Context, limit int) ([]DispatchRecord, error) {
	query := `
        SELECT request_id, kind, body, emergency, created_at, delivered, failed
        FROM dispatches
        ORDER BY created_at DESC
        LIMIT $1`
	rows, err := d.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list dispatches: %w", err)
	}
	defer rows.Close()

	var records []DispatchRecord
	for rows.Next() {
		var r DispatchRecord
		if err := rows.Scan(&r.RequestID, &r.Kind, &r.Body, &r.Emergency, &r.CreatedAt, &r.Delivered, &r.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan dispatch: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
