package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ReportRow is a persisted analysis report. Timeline and Histogram are the
// pipeline output serialized as JSON.
type ReportRow struct {
	ID              string          `json:"id"`
	UserID          *int64          `json:"user_id,omitempty"`
	Transcript      string          `json:"transcript"`
	DominantEmotion string          `json:"dominant_emotion"`
	Histogram       json.RawMessage `json:"histogram"`
	Timeline        json.RawMessage `json:"timeline"`
	AudioKey        string          `json:"audio_key,omitempty"`
	PDFKey          string          `json:"pdf_key,omitempty"`
	XLSXKey         string          `json:"xlsx_key,omitempty"`
	Provider        string          `json:"provider,omitempty"`
	Model           string          `json:"model,omitempty"`
	Source          string          `json:"source"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ReportFilter narrows report listings.
type ReportFilter struct {
	UserID   *int64
	Dominant string
	Limit    int
	Offset   int
}

// InsertReport stores a completed report.
func (db *DB) InsertReport(ctx context.Context, row *ReportRow) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO reports (
			id, user_id, transcript, dominant_emotion, histogram, timeline,
			audio_key, pdf_key, xlsx_key, provider, model, source, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		row.ID, row.UserID, row.Transcript, row.DominantEmotion, row.Histogram,
		row.Timeline, row.AudioKey, row.PDFKey, row.XLSXKey, row.Provider,
		row.Model, row.Source, row.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetReport fetches one report by ID.
func (db *DB) GetReport(ctx context.Context, id string) (*ReportRow, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT id, user_id, transcript, dominant_emotion, histogram, timeline,
		       audio_key, pdf_key, xlsx_key, provider, model, source, created_at
		FROM reports WHERE id = $1
	`, id)

	var r ReportRow
	err := row.Scan(&r.ID, &r.UserID, &r.Transcript, &r.DominantEmotion,
		&r.Histogram, &r.Timeline, &r.AudioKey, &r.PDFKey, &r.XLSXKey,
		&r.Provider, &r.Model, &r.Source, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan report: %w", err)
	}
	return &r, nil
}

// ListReports returns reports newest-first, with optional user and
// dominant-emotion filters.
func (db *DB) ListReports(ctx context.Context, f ReportFilter) ([]ReportRow, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}

	query := `
		SELECT id, user_id, transcript, dominant_emotion, histogram, timeline,
		       audio_key, pdf_key, xlsx_key, provider, model, source, created_at
		FROM reports WHERE 1=1`
	args := []any{}
	n := 0
	if f.UserID != nil {
		n++
		query += fmt.Sprintf(" AND user_id = $%d", n)
		args = append(args, *f.UserID)
	}
	if f.Dominant != "" {
		n++
		query += fmt.Sprintf(" AND dominant_emotion = $%d", n)
		args = append(args, f.Dominant)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []ReportRow
	for rows.Next() {
		var r ReportRow
		if err := rows.Scan(&r.ID, &r.UserID, &r.Transcript, &r.DominantEmotion,
			&r.Histogram, &r.Timeline, &r.AudioKey, &r.PDFKey, &r.XLSXKey,
			&r.Provider, &r.Model, &r.Source, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
