package session

import (
	"context"
	"time"

	"quizweb/internal/quiz"
)

var (
	// ErrNotFound is quiz.ErrSessionNotFound so handlers can match it without
	// importing this package.
	ErrNotFound      = quiz.ErrSessionNotFound
	ErrStateTooLarge = quiz.ErrSessionTooLarge
)

const DefaultTTL = 120 * time.Minute

// Store keeps quiz state between requests. The token returned by Save is
// what the client presents to Load and Delete.
type Store interface {
	Load(ctx context.Context, token string) (*quiz.State, error)
	Save(ctx context.Context, st *quiz.State) (string, error)
	Delete(ctx context.Context, token string) error
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
