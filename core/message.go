package core

import (
	"context"
	"time"
)

// Message is a chat message. SentAt is assigned server-side at persist
// time; history ordering is by (SentAt, ID), not by delivery order.
type Message struct {
	ID          int       `json:"id"`
	ChatID      int       `json:"chat_id"`
	SenderID    int       `json:"sender_id"`
	SenderEmail string    `json:"sender_email"`
	Content     string    `json:"content"`
	SentAt      time.Time `json:"sent_at"`
}

type MessageStore interface {
	// AddMessage persists a message with a server-assigned UTC timestamp.
	// It fails with ErrChatNotFound, and with ErrNotChatMember when the
	// sender does not belong to the chat.
	AddMessage(ctx context.Context, chatID, senderID int, content string) (*Message, error)

	// EditMessage replaces the content. Only the original sender may edit;
	// otherwise ErrNotMessageSender. Fails with ErrMessageNotFound.
	EditMessage(ctx context.Context, messageID, editorID int, content string) (*Message, error)

	// DeleteMessage removes a message. The original sender or the chat
	// owner may delete; otherwise ErrNotMessageSender. Fails with
	// ErrMessageNotFound. The deleted message is returned so callers can
	// address the affected chat.
	DeleteMessage(ctx context.Context, messageID, actorID int) (*Message, error)

	// GetMessages returns the chat history ascending by (sent_at, id).
	GetMessages(ctx context.Context, chatID int) ([]Message, error)
}
