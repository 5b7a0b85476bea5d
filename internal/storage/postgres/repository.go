package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ConvoCart/Conversational-Order-Assistant/internal/session"
)

// Repository wraps session and transcript persistence. All methods are
// nil-safe on the DB handle so the service keeps running when Postgres is
// down; callers fall back to the memory store in that case.
type Repository struct {
	DB *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

// Put upserts a session, preserving created_at on conflict.
func (r *Repository) Put(ctx context.Context, s session.Session) (session.Session, error) {
	if r == nil || r.DB == nil {
		return session.Session{}, sql.ErrConnDone
	}
	if s.ID == "" {
		s.ID = session.NewID()
	}
	now := time.Now().UTC()
	s.UpdatedAt = now
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO sessions (id, customer_id, email, thread_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			customer_id = EXCLUDED.customer_id,
			email       = EXCLUDED.email,
			thread_id   = EXCLUDED.thread_id,
			updated_at  = EXCLUDED.updated_at
	`, s.ID, s.CustomerID, s.Email, s.ThreadID, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return session.Session{}, fmt.Errorf("upsert session %s: %w", s.ID, err)
	}
	return s, nil
}

func (r *Repository) Get(ctx context.Context, id string) (session.Session, bool, error) {
	if r == nil || r.DB == nil {
		return session.Session{}, false, sql.ErrConnDone
	}
	var s session.Session
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, customer_id, email, thread_id, created_at, updated_at
		FROM sessions WHERE id = $1
	`, id).Scan(&s.ID, &s.CustomerID, &s.Email, &s.ThreadID, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return session.Session{}, false, nil
	}
	if err != nil {
		return session.Session{}, false, fmt.Errorf("get session %s: %w", id, err)
	}
	return s, true, nil
}

// AppendTranscript records one chat line; failures are the caller's to log,
// a lost transcript line never fails a turn.
func (r *Repository) AppendTranscript(ctx context.Context, sessionID, role, text string) error {
	if r == nil || r.DB == nil {
		return sql.ErrConnDone
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO transcript (session_id, role, text) VALUES ($1, $2, $3)
	`, sessionID, role, text)
	if err != nil {
		return fmt.Errorf("append transcript for %s: %w", sessionID, err)
	}
	return nil
}

// RecentTranscript returns up to limit lines for a session, oldest first.
func (r *Repository) RecentTranscript(ctx context.Context, sessionID string, limit int) ([]map[string]any, error) {
	if r == nil || r.DB == nil {
		return nil, sql.ErrConnDone
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT role, text, at FROM (
			SELECT role, text, at FROM transcript
			WHERE session_id = $1 ORDER BY at DESC LIMIT $2
		) latest ORDER BY at ASC
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("transcript for %s: %w", sessionID, err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var role, text string
		var at time.Time
		if err := rows.Scan(&role, &text, &at); err != nil {
			continue
		}
		out = append(out, map[string]any{"role": role, "text": text, "at": at})
	}
	return out, rows.Err()
}
