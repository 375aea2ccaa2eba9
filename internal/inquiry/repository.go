// internal/inquiry/repository.go
//
// Inquiry table access.
//
// Each helper executes exactly one parameterised statement.  Errors are
// returned verbatim so the caller can wrap or log them using the project
// logger.
package inquiry

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	insertQuery = `INSERT INTO inquiry (reference, form_id, name, email, service, payload, ip, user_agent, country, referrer, utm_source, utm_medium, utm_campaign, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	recentQuery = `SELECT id, reference, form_id, name, email, service, payload, ip, user_agent, country, referrer, utm_source, utm_medium, utm_campaign, created_at FROM inquiry WHERE form_id = ? ORDER BY created_at DESC LIMIT ?`

	countQuery = `SELECT COUNT(*) FROM inquiry WHERE form_id = ?`
)

// Repository stores inquiries in MySQL.
type Repository struct {
	db *sqlx.DB
}

// NewRepository wraps db.
func NewRepository(db *sqlx.DB) *Repository { return &Repository{db: db} }

// Insert writes rec and returns its auto-increment id.
func (r *Repository) Insert(ctx context.Context, rec Record) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertQuery,
		rec.Reference, rec.FormID, rec.Name, rec.Email, rec.Service, rec.Payload,
		rec.IP, rec.UserAgent, rec.Country, rec.Referrer,
		rec.UTMSource, rec.UTMMedium, rec.UTMCampaign, rec.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("inquiry: insert: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit rows for formID, newest first.
func (r *Repository) Recent(ctx context.Context, formID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []Record
	if err := r.db.SelectContext(ctx, &rows, recentQuery, formID, limit); err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns how many rows exist for formID.
func (r *Repository) Count(ctx context.Context, formID string) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, countQuery, formID); err != nil {
		return 0, err
	}
	return n, nil
}
