package core

import (
	"context"
	"time"
)

// ChatMember is a user's membership in a chat.
type ChatMember struct {
	ChatID   int       `json:"chat_id"`
	UserID   int       `json:"user_id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

// Chat is a group chat projection. The owner is always present in Members.
type Chat struct {
	ID      int          `json:"id"`
	Name    string       `json:"name"`
	OwnerID int          `json:"owner_id"`
	Members []ChatMember `json:"members"`
}

// IsMember reports whether userID belongs to the chat.
func (c *Chat) IsMember(userID int) bool {
	for _, m := range c.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// RemoveMemberResult describes what a removal did to the chat.
type RemoveMemberResult struct {
	// Chat is the post-removal projection. Nil when the chat dissolved.
	Chat *Chat `json:"chat"`
	// OwnerChanged is set when an owner departure promoted a successor.
	OwnerChanged bool `json:"owner_changed"`
	// Dissolved is set when the last member left and the chat was deleted
	// together with its messages, invitations, and preferences.
	Dissolved bool `json:"dissolved"`
}

type ChatStore interface {
	// CreateChat creates a chat owned by ownerID, with the owner as the
	// sole member. It fails with ErrUserNotFound when the owner is absent.
	CreateChat(ctx context.Context, name string, ownerID int) (*Chat, error)

	// RenameChat fails with ErrChatNotFound when the chat is absent.
	RenameChat(ctx context.Context, chatID int, name string) (*Chat, error)

	// AddMember fails with ErrChatNotFound, ErrUserNotFound, or
	// ErrAlreadyMember.
	AddMember(ctx context.Context, chatID, userID int) (*Chat, error)

	// RemoveMember removes userID from the chat on behalf of actorID.
	// Only the owner may remove another member; any member may remove
	// themselves. Removing the owner by another actor fails with
	// ErrOwnerCannotBeRemoved. When the owner removes themselves the
	// earliest-joined remaining member becomes the owner; when no member
	// remains the chat dissolves.
	RemoveMember(ctx context.Context, chatID, actorID, userID int) (*RemoveMemberResult, error)

	// GetChatByID fails with ErrChatNotFound when the chat is absent.
	GetChatByID(ctx context.Context, chatID int) (*Chat, error)

	GetChatsForUser(ctx context.Context, userID int) ([]Chat, error)

	GetMembers(ctx context.Context, chatID int) ([]ChatMember, error)
}
