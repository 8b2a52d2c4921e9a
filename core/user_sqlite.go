package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

type SQLiteUserStore struct {
	db *sql.DB
}

func NewSQLiteUserStore(db *sql.DB) *SQLiteUserStore {
	return &SQLiteUserStore{
		db: db,
	}
}

func (s *SQLiteUserStore) CreateUser(ctx context.Context, input UserCreateInput) (*UserWithoutSecrets, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (email, name, password) VALUES (@email, @name, @password)",
		sql.Named("email", input.Email), sql.Named("name", input.Name),
		sql.Named("password", string(hashed)))
	if err != nil {
		return nil, storeError(fmt.Errorf("creating user: %w", err), ErrConflictedUser)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("LastInsertId: %w", err)
	}

	return &UserWithoutSecrets{ID: int(id), Email: input.Email, Name: input.Name}, nil
}

func (s *SQLiteUserStore) GetUserByID(ctx context.Context, id int) (*UserWithoutSecrets, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, name FROM users WHERE id = ? LIMIT 1", id)

	user := new(UserWithoutSecrets)
	if err := row.Scan(&user.ID, &user.Email, &user.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return user, nil
}

func (s *SQLiteUserStore) GetUserByEmail(ctx context.Context, email string) (*UserWithoutSecrets, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, name FROM users WHERE email = ? LIMIT 1", email)

	user := new(UserWithoutSecrets)
	if err := row.Scan(&user.ID, &user.Email, &user.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return user, nil
}

func (s *SQLiteUserStore) ComparePassword(ctx context.Context, email, password string) (*UserWithoutSecrets, bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, name, password FROM users WHERE email = ? LIMIT 1", email)

	var user UserWithoutSecrets
	var storedPassword string
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &storedPassword); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("scanning password: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedPassword), []byte(password)); err != nil {
		return nil, false, nil
	}
	return &user, true, nil
}
