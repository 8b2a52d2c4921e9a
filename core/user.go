package core

import (
	"context"
)

// User is a chat identity. Users are created by the registration endpoint
// and referenced, never mutated, by the chat core.
type User struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"-"`
}

type UserWithoutSecrets struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type UserCreateInput struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name"`
	Password string `json:"password" validate:"required,min=8"`
}

type UserStore interface {
	CreateUser(ctx context.Context, input UserCreateInput) (*UserWithoutSecrets, error)

	// GetUserByID returns nil when no user has the given id.
	GetUserByID(ctx context.Context, id int) (*UserWithoutSecrets, error)

	// GetUserByEmail matches case-insensitively and returns nil when no
	// user has the given email.
	GetUserByEmail(ctx context.Context, email string) (*UserWithoutSecrets, error)

	ComparePassword(ctx context.Context, email, password string) (*UserWithoutSecrets, bool, error)
}
