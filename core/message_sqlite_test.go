package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMessage(t *testing.T) {

	t.Run("member sends a message", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()
		users := seedUsers(f, userInput("owner@example.com", "Owner"))
		chat := seedChat(f, "Group chat", users[0])

		msg, err := f.messages.AddMessage(f.ctx, chat.ID, users[0].ID, "hello there")
		require.Nil(t, err)
		require.NotNil(t, msg)
		assert.NotZero(t, msg.ID)
		assert.Equal(t, chat.ID, msg.ChatID)
		assert.Equal(t, users[0].ID, msg.SenderID)
		assert.Equal(t, users[0].Email, msg.SenderEmail)
		assert.Equal(t, "hello there", msg.Content)
		assert.NotZero(t, msg.SentAt)
	})

	t.Run("non-member cannot send", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()
		users := seedUsers(f,
			userInput("owner@example.com", "Owner"),
			userInput("outsider@example.com", "Outsider"))
		chat := seedChat(f, "Group chat", users[0])

		msg, err := f.messages.AddMessage(f.ctx, chat.ID, users[1].ID, "let me in")
		require.NotNil(t, err)
		assert.ErrorIs(t, err, ErrNotChatMember)
		assert.Nil(t, msg)

		history, err := f.messages.GetMessages(f.ctx, chat.ID)
		require.Nil(t, err)
		assert.Len(t, history, 0)
	})

	t.Run("send to absent chat", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()
		users := seedUsers(f, userInput("owner@example.com", "Owner"))

		msg, err := f.messages.AddMessage(f.ctx, 42, users[0].ID, "hello?")
		require.NotNil(t, err)
		assert.ErrorIs(t, err, ErrChatNotFound)
		assert.Nil(t, msg)
	})
}

func TestEditMessage(t *testing.T) {

	t.Run("sender edits their message", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()
		users := seedUsers(f, userInput("owner@example.com", "Owner"))
		chat := seedChat(f, "Group chat", users[0])
		msg, err := f.messages.AddMessage(f.ctx, chat.ID, users[0].ID, "typo")
		require.Nil(t, err)

		edited, err := f.messages.EditMessage(f.ctx, msg.ID, users[0].ID, "fixed")
		require.Nil(t, err)
		assert.Equal(t, msg.ID, edited.ID)
		assert.Equal(t, "fixed", edited.Content)

		history, err := f.messages.GetMessages(f.ctx, chat.ID)
		require.Nil(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, "fixed", history[0].Content)
	})

	t.Run("only the sender may edit", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()
		users := seedUsers(f,
			userInput("owner@example.com", "Owner"),
			userInput("member@example.com", "Member"))
		chat := seedChat(f, "Group chat", users[0], users[1])
		msg, err := f.messages.AddMessage(f.ctx, chat.ID, users[1].ID, "mine")
		require.Nil(t, err)

		// not even the chat owner
		edited, err := f.messages.EditMessage(f.ctx, msg.ID, users[0].ID, "rewritten")
		require.NotNil(t, err)
		assert.ErrorIs(t, err, ErrNotMessageSender)
		assert.Nil(t, edited)
	})

	t.Run("edit absent message", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()
		users := seedUsers(f, userInput("owner@example.com", "Owner"))

		edited, err := f.messages.EditMessage(f.ctx, 42, users[0].ID, "ghost")
		require.NotNil(t, err)
		assert.ErrorIs(t, err, ErrMessageNotFound)
		assert.Nil(t, edited)
	})
}

func TestDeleteMessage(t *testing.T) {

	t.Run("sender deletes their message", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()
		users := seedUsers(f,
			userInput("owner@example.com", "Owner"),
			userInput("member@example.com", "Member"))
		chat := seedChat(f, "Group chat", users[0], users[1])
		msg, err := f.messages.AddMessage(f.ctx, chat.ID, users[1].ID, "oops")
		require.Nil(t, err)

		deleted, err := f.messages.DeleteMessage(f.ctx, msg.ID, users[1].ID)
		require.Nil(t, err)
		assert.Equal(t, msg.ID, deleted.ID)
		assert.Equal(t, chat.ID, deleted.ChatID)

		history, err := f.messages.GetMessages(f.ctx, chat.ID)
		require.Nil(t, err)
		assert.Len(t, history, 0)
	})

	t.Run("chat owner deletes another member's message", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()
		users := seedUsers(f,
			userInput("owner@example.com", "Owner"),
			userInput("member@example.com", "Member"))
		chat := seedChat(f, "Group chat", users[0], users[1])
		msg, err := f.messages.AddMessage(f.ctx, chat.ID, users[1].ID, "spam")
		require.Nil(t, err)

		deleted, err := f.messages.DeleteMessage(f.ctx, msg.ID, users[0].ID)
		require.Nil(t, err)
		assert.Equal(t, msg.ID, deleted.ID)
	})

	t.Run("regular member cannot delete another member's message", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()
		users := seedUsers(f,
			userInput("owner@example.com", "Owner"),
			userInput("m1@example.com", "M1"),
			userInput("m2@example.com", "M2"))
		chat := seedChat(f, "Group chat", users[0], users[1], users[2])
		msg, err := f.messages.AddMessage(f.ctx, chat.ID, users[1].ID, "mine")
		require.Nil(t, err)

		deleted, err := f.messages.DeleteMessage(f.ctx, msg.ID, users[2].ID)
		require.NotNil(t, err)
		assert.ErrorIs(t, err, ErrNotMessageSender)
		assert.Nil(t, deleted)
	})

	t.Run("delete absent message", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()
		users := seedUsers(f, userInput("owner@example.com", "Owner"))

		deleted, err := f.messages.DeleteMessage(f.ctx, 42, users[0].ID)
		require.NotNil(t, err)
		assert.ErrorIs(t, err, ErrMessageNotFound)
		assert.Nil(t, deleted)
	})
}

func TestGetMessages(t *testing.T) {
	f := NewStoreFixture(t)
	defer f.tearDown()
	users := seedUsers(f,
		userInput("owner@example.com", "Owner"),
		userInput("member@example.com", "Member"))
	chat := seedChat(f, "Group chat", users[0], users[1])

	contents := []string{"first", "second", "third", "fourth"}
	senders := []int{users[0].ID, users[1].ID, users[0].ID, users[1].ID}
	for i, c := range contents {
		_, err := f.messages.AddMessage(f.ctx, chat.ID, senders[i], c)
		require.Nil(t, err)
	}

	history, err := f.messages.GetMessages(f.ctx, chat.ID)
	require.Nil(t, err)
	require.Len(t, history, len(contents))
	for i, msg := range history {
		assert.Equal(t, contents[i], msg.Content)
		assert.Equal(t, senders[i], msg.SenderID)
	}

	empty, err := f.messages.GetMessages(f.ctx, 42)
	require.Nil(t, err)
	assert.Len(t, empty, 0)
}
