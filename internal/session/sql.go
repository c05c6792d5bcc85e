package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quizweb/internal/quiz"
)

// SQLStore keeps state in the quiz_sessions table. The queries run unchanged
// on sqlite and postgres.
type SQLStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewSQLStore(db *sql.DB, ttl time.Duration) *SQLStore {
	return &SQLStore{db: db, ttl: ttlOrDefault(ttl), now: time.Now}
}

func (s *SQLStore) Load(ctx context.Context, token string) (*quiz.State, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	cutoff := s.now().Add(-s.ttl).Unix()

	var raw string
	err := s.db.QueryRowContext(ctx, `
		SELECT state_json
		FROM quiz_sessions
		WHERE id = $1 AND updated_at > $2
	`, token, cutoff).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	var st quiz.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &st, nil
}

func (s *SQLStore) Save(ctx context.Context, st *quiz.State) (string, error) {
	if st == nil || st.ID == "" {
		return "", errors.New("session state requires an id")
	}
	data, err := json.Marshal(st)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	now := s.now()

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO quiz_sessions (id, state_json, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET state_json = excluded.state_json, updated_at = excluded.updated_at
	`, st.ID, string(data), now.Unix()); err != nil {
		return "", fmt.Errorf("upsert session: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM quiz_sessions WHERE updated_at <= $1`, now.Add(-s.ttl).Unix()); err != nil {
		return "", fmt.Errorf("prune sessions: %w", err)
	}
	return st.ID, nil
}

func (s *SQLStore) Delete(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM quiz_sessions WHERE id = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
