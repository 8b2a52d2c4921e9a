package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {

	t.Run("create user successfully", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()

		user, err := f.users.CreateUser(f.ctx, userInput("alice@example.com", "Alice"))
		require.Nil(t, err)
		require.NotNil(t, user)
		assert.NotZero(t, user.ID)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, "Alice", user.Name)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()
		seedUsers(f, userInput("alice@example.com", "Alice"))

		user, err := f.users.CreateUser(f.ctx, userInput("alice@example.com", "Other Alice"))
		require.NotNil(t, err)
		assert.ErrorIs(t, err, ErrConflictedUser)
		assert.Nil(t, user)
	})

	t.Run("email uniqueness is case-insensitive", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()
		seedUsers(f, userInput("alice@example.com", "Alice"))

		user, err := f.users.CreateUser(f.ctx, userInput("Alice@Example.com", "Alice"))
		require.NotNil(t, err)
		assert.ErrorIs(t, err, ErrConflictedUser)
		assert.Nil(t, user)
	})
}

func TestGetUser(t *testing.T) {
	f := NewStoreFixture(t)
	defer f.tearDown()
	users := seedUsers(f, userInput("alice@example.com", "Alice"))

	t.Run("by id", func(t *testing.T) {
		user, err := f.users.GetUserByID(f.ctx, users[0].ID)
		require.Nil(t, err)
		require.NotNil(t, user)
		assert.Equal(t, users[0], *user)
	})

	t.Run("by id not found", func(t *testing.T) {
		user, err := f.users.GetUserByID(f.ctx, 42)
		require.Nil(t, err)
		assert.Nil(t, user)
	})

	t.Run("by email", func(t *testing.T) {
		user, err := f.users.GetUserByEmail(f.ctx, "alice@example.com")
		require.Nil(t, err)
		require.NotNil(t, user)
		assert.Equal(t, users[0], *user)
	})

	t.Run("by email is case-insensitive", func(t *testing.T) {
		user, err := f.users.GetUserByEmail(f.ctx, "ALICE@example.com")
		require.Nil(t, err)
		require.NotNil(t, user)
		assert.Equal(t, users[0].ID, user.ID)
	})

	t.Run("by email not found", func(t *testing.T) {
		user, err := f.users.GetUserByEmail(f.ctx, "nobody@example.com")
		require.Nil(t, err)
		assert.Nil(t, user)
	})
}

func TestComparePassword(t *testing.T) {
	f := NewStoreFixture(t)
	defer f.tearDown()
	users := seedUsers(f, userInput("alice@example.com", "Alice"))

	t.Run("correct password", func(t *testing.T) {
		user, ok, err := f.users.ComparePassword(f.ctx, "alice@example.com", "password123")
		require.Nil(t, err)
		assert.True(t, ok)
		require.NotNil(t, user)
		assert.Equal(t, users[0].ID, user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		user, ok, err := f.users.ComparePassword(f.ctx, "alice@example.com", "not-the-password")
		require.Nil(t, err)
		assert.False(t, ok)
		assert.Nil(t, user)
	})

	t.Run("unknown email", func(t *testing.T) {
		user, ok, err := f.users.ComparePassword(f.ctx, "nobody@example.com", "password123")
		require.Nil(t, err)
		assert.False(t, ok)
		assert.Nil(t, user)
	})
}
