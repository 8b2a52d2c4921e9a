package core

import (
	"context"
	"time"
)

// Invitation is identified by the (sender, receiver, chat) triple; at most
// one pending invitation exists per triple. Acceptance and rejection both
// consume the row.
type Invitation struct {
	SenderID    int       `json:"sender_id"`
	SenderEmail string    `json:"sender_email"`
	ReceiverID  int       `json:"receiver_id"`
	ChatID      int       `json:"chat_id"`
	ChatName    string    `json:"chat_name"`
	CreatedAt   time.Time `json:"created_at"`
}

type InvitationStore interface {
	// Invite fails with ErrChatNotFound, ErrUserNotFound (sender or
	// receiver), ErrAlreadyMember when the receiver already belongs to the
	// chat, and ErrAlreadyInvited when the triple is already pending.
	Invite(ctx context.Context, chatID, senderID, receiverID int) (*Invitation, error)

	// AcceptInvitation adds the receiver to the chat and consumes the
	// invitation within a single transaction. It fails with
	// ErrInvitationNotFound or ErrChatNotFound. The post-acceptance chat
	// projection is returned.
	AcceptInvitation(ctx context.Context, chatID, senderID, receiverID int) (*Chat, error)

	// RejectInvitation consumes the invitation. Rejecting an absent
	// invitation is a no-op.
	RejectInvitation(ctx context.Context, chatID, senderID, receiverID int) error

	// GetPendingForUser lists un-consumed invitations addressed to userID.
	GetPendingForUser(ctx context.Context, userID int) ([]Invitation, error)
}
