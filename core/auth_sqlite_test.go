package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func TestNewSession(t *testing.T) {

	t.Run("valid credentials", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()
		users := seedUsers(f, userInput("alice@example.com", "Alice"))
		auth := NewSQLiteAuthStore(f.db, f.users, testSecret)

		session, err := auth.NewSession(f.ctx, "alice@example.com", "password123")
		require.Nil(t, err)
		require.NotNil(t, session)
		assert.Equal(t, users[0].ID, session.UserID)
		assert.Equal(t, users[0].Email, session.Email)
		assert.NotEmpty(t, session.Token)
		assert.True(t, session.ExpiresAt.After(time.Now()))
	})

	t.Run("bad credentials", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()
		seedUsers(f, userInput("alice@example.com", "Alice"))
		auth := NewSQLiteAuthStore(f.db, f.users, testSecret)

		session, err := auth.NewSession(f.ctx, "alice@example.com", "wrong")
		require.NotNil(t, err)
		assert.ErrorIs(t, err, ErrBadCredentials)
		assert.Nil(t, session)
	})
}

func TestSession(t *testing.T) {

	t.Run("valid token round-trips", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()
		users := seedUsers(f, userInput("alice@example.com", "Alice"))
		auth := NewSQLiteAuthStore(f.db, f.users, testSecret)

		session, err := auth.NewSession(f.ctx, "alice@example.com", "password123")
		require.Nil(t, err)

		got, err := auth.Session(f.ctx, session.Token)
		require.Nil(t, err)
		assert.Equal(t, users[0].ID, got.UserID)
		assert.Equal(t, users[0].Email, got.Email)
	})

	t.Run("garbage token", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()
		auth := NewSQLiteAuthStore(f.db, f.users, testSecret)

		got, err := auth.Session(f.ctx, "not-a-token")
		require.NotNil(t, err)
		assert.ErrorIs(t, err, ErrUnauthenticated)
		assert.Nil(t, got)
	})

	t.Run("token signed with a different secret", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()
		users := seedUsers(f, userInput("alice@example.com", "Alice"))
		auth := NewSQLiteAuthStore(f.db, f.users, testSecret)

		token, _, err := NewToken(users[0], time.Hour, []byte("other-secret"))
		require.Nil(t, err)

		got, err := auth.Session(f.ctx, token)
		require.NotNil(t, err)
		assert.ErrorIs(t, err, ErrUnauthenticated)
		assert.Nil(t, got)
	})

	t.Run("expired token", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()
		seedUsers(f, userInput("alice@example.com", "Alice"))
		auth := NewSQLiteAuthStore(f.db, f.users, testSecret, WithTokenExp(-time.Minute))

		session, err := auth.NewSession(f.ctx, "alice@example.com", "password123")
		require.Nil(t, err)

		got, err := auth.Session(f.ctx, session.Token)
		require.NotNil(t, err)
		assert.ErrorIs(t, err, ErrUnauthenticated)
		assert.Nil(t, got)
	})

	t.Run("destroyed session is revoked", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()
		seedUsers(f, userInput("alice@example.com", "Alice"))
		auth := NewSQLiteAuthStore(f.db, f.users, testSecret)

		session, err := auth.NewSession(f.ctx, "alice@example.com", "password123")
		require.Nil(t, err)
		require.Nil(t, auth.DestroySession(f.ctx, *session))

		got, err := auth.Session(f.ctx, session.Token)
		require.NotNil(t, err)
		assert.ErrorIs(t, err, ErrUnauthenticated)
		assert.Nil(t, got)
	})

	t.Run("signing in again lifts the revocation", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()
		seedUsers(f, userInput("alice@example.com", "Alice"))
		auth := NewSQLiteAuthStore(f.db, f.users, testSecret)

		session, err := auth.NewSession(f.ctx, "alice@example.com", "password123")
		require.Nil(t, err)
		require.Nil(t, auth.DestroySession(f.ctx, *session))

		session2, err := auth.NewSession(f.ctx, "alice@example.com", "password123")
		require.Nil(t, err)

		got, err := auth.Session(f.ctx, session2.Token)
		require.Nil(t, err)
		assert.NotNil(t, got)
	})
}

func TestToken(t *testing.T) {

	t.Run("round-trip", func(t *testing.T) {
		user := UserWithoutSecrets{ID: 7, Email: "alice@example.com", Name: "Alice"}
		token, exp, err := NewToken(user, time.Hour, testSecret)
		require.Nil(t, err)
		require.NotEmpty(t, token)
		assert.True(t, exp.After(time.Now()))

		claims, err := VerifyToken(token, testSecret)
		require.Nil(t, err)
		assert.Equal(t, user.Email, claims.Email)
		id, err := claims.UserID()
		require.Nil(t, err)
		assert.Equal(t, user.ID, id)
	})

	t.Run("expired", func(t *testing.T) {
		user := UserWithoutSecrets{ID: 7, Email: "alice@example.com"}
		token, _, err := NewToken(user, -time.Minute, testSecret)
		require.Nil(t, err)

		claims, err := VerifyToken(token, testSecret)
		require.NotNil(t, err)
		assert.ErrorIs(t, err, ErrTokenExpired)
		assert.Nil(t, claims)
	})

	t.Run("malformed", func(t *testing.T) {
		claims, err := VerifyToken("garbage", testSecret)
		require.NotNil(t, err)
		assert.ErrorIs(t, err, ErrTokenInvalid)
		assert.Nil(t, claims)
	})
}
