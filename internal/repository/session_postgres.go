package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/polytech/coursedesk/internal/model"
	"github.com/polytech/coursedesk/internal/session"
)

// PostgresSessionStore keeps sessions in the bff_sessions table
// (see migrations/000001_create_bff_sessions).
type PostgresSessionStore struct {
	pool *pgxpool.Pool
}

// NewPostgresSessionStore creates a PostgresSessionStore.
func NewPostgresSessionStore(pool *pgxpool.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

// Save upserts a session.
func (r *PostgresSessionStore) Save(ctx context.Context, s *session.Session) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO bff_sessions (id, state, access_token, user_id, role, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE
		 SET state = EXCLUDED.state, access_token = EXCLUDED.access_token,
		     user_id = EXCLUDED.user_id, role = EXCLUDED.role, expires_at = EXCLUDED.expires_at`,
		s.ID, string(s.State), s.AccessToken, s.UserID.String(), string(s.Role), s.CreatedAt, s.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Get loads a live session; expired rows read as session.ErrNotFound.
func (r *PostgresSessionStore) Get(ctx context.Context, id string) (*session.Session, error) {
	var (
		s           session.Session
		state, role string
		userID      string
		createdAt   time.Time
		expiresAt   time.Time
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, state, access_token, user_id, role, created_at, expires_at
		 FROM bff_sessions
		 WHERE id = $1 AND expires_at > NOW()`, id,
	).Scan(&s.ID, &state, &s.AccessToken, &userID, &role, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	s.State = session.State(state)
	s.UserID = model.ID(userID)
	s.Role = model.Role(role)
	s.CreatedAt = createdAt
	s.ExpiresAt = expiresAt
	return &s, nil
}

// Delete removes a session.
func (r *PostgresSessionStore) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM bff_sessions WHERE id = $1`, id)
	return err
}

// PurgeExpired deletes sessions past their expiry and returns their ids.
func (r *PostgresSessionStore) PurgeExpired(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `DELETE FROM bff_sessions WHERE expires_at <= NOW() RETURNING id`)
	if err != nil {
		return nil, fmt.Errorf("purge sessions: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("purge sessions: %w", err)
	}
	return ids, nil
}
