package core

import (
	"context"
	"time"
)

type Session struct {
	UserID    int       `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AuthStore interface {
	NewSession(ctx context.Context, email, password string) (session *Session, err error)

	DestroySession(ctx context.Context, session Session) error

	// Session verifies a token and returns the session it represents.
	// Expired, malformed, or revoked tokens fail with ErrUnauthenticated.
	Session(ctx context.Context, token string) (session *Session, err error)
}
