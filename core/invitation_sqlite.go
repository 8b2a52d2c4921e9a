package core

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type SQLiteInvitationStore struct {
	db        *sql.DB
	userStore UserStore
}

func NewSQLiteInvitationStore(db *sql.DB, userStore UserStore) *SQLiteInvitationStore {
	return &SQLiteInvitationStore{
		db:        db,
		userStore: userStore,
	}
}

func (s *SQLiteInvitationStore) Invite(ctx context.Context, chatID, senderID, receiverID int) (*Invitation, error) {
	sender, err := s.userStore.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("GetUserByID(sender): %w", err)
	}
	if sender == nil {
		return nil, ErrUserNotFound
	}
	receiver, err := s.userStore.GetUserByID(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("GetUserByID(receiver): %w", err)
	}
	if receiver == nil {
		return nil, ErrUserNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeError(fmt.Errorf("BeginTx: %w", err), nil)
	}
	defer tx.Rollback()

	var chatName string
	row := tx.QueryRowContext(ctx, "SELECT name FROM chats WHERE id = @id", sql.Named("id", chatID))
	if err := row.Scan(&chatName); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("scanning chat: %w", err)
	}

	var isMember int
	row = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chat_members WHERE chat_id = @chat_id AND user_id = @user_id",
		sql.Named("chat_id", chatID), sql.Named("user_id", receiverID))
	if err := row.Scan(&isMember); err != nil {
		return nil, fmt.Errorf("scanning membership: %w", err)
	}
	if isMember > 0 {
		return nil, ErrAlreadyMember
	}

	createdAt := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		"INSERT INTO invitations (sender_id, receiver_id, chat_id, created_at) VALUES (@sender_id, @receiver_id, @chat_id, @created_at)",
		sql.Named("sender_id", senderID), sql.Named("receiver_id", receiverID),
		sql.Named("chat_id", chatID), sql.Named("created_at", createdAt))
	if err != nil {
		return nil, storeError(fmt.Errorf("ExecContext(insert invitation): %w", err), ErrAlreadyInvited)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError(fmt.Errorf("Commit: %w", err), nil)
	}

	return &Invitation{
		SenderID:    senderID,
		SenderEmail: sender.Email,
		ReceiverID:  receiverID,
		ChatID:      chatID,
		ChatName:    chatName,
		CreatedAt:   createdAt,
	}, nil
}

func (s *SQLiteInvitationStore) AcceptInvitation(ctx context.Context, chatID, senderID, receiverID int) (*Chat, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeError(fmt.Errorf("BeginTx: %w", err), nil)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM invitations WHERE sender_id = @sender_id AND receiver_id = @receiver_id AND chat_id = @chat_id",
		sql.Named("sender_id", senderID), sql.Named("receiver_id", receiverID), sql.Named("chat_id", chatID))
	if err != nil {
		return nil, storeError(fmt.Errorf("ExecContext(delete invitation): %w", err), nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("RowsAffected: %w", err)
	}
	if n == 0 {
		return nil, ErrInvitationNotFound
	}

	// Member addition and invitation consumption commit together; a crash
	// between the two is never observable.
	if err := addMemberTx(ctx, tx, chatID, receiverID); err != nil {
		return nil, err
	}

	chat, err := getChat(ctx, tx, chatID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError(fmt.Errorf("Commit: %w", err), nil)
	}
	return chat, nil
}

func (s *SQLiteInvitationStore) RejectInvitation(ctx context.Context, chatID, senderID, receiverID int) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM invitations WHERE sender_id = @sender_id AND receiver_id = @receiver_id AND chat_id = @chat_id",
		sql.Named("sender_id", senderID), sql.Named("receiver_id", receiverID), sql.Named("chat_id", chatID))
	if err != nil {
		return storeError(fmt.Errorf("ExecContext(delete invitation): %w", err), nil)
	}
	return nil
}

func (s *SQLiteInvitationStore) GetPendingForUser(ctx context.Context, userID int) ([]Invitation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.sender_id, u.email, i.receiver_id, i.chat_id, c.name, i.created_at
		FROM invitations AS i
		INNER JOIN users AS u ON i.sender_id = u.id
		INNER JOIN chats AS c ON i.chat_id = c.id
		WHERE i.receiver_id = @receiver_id
		ORDER BY i.created_at ASC, i.rowid ASC`,
		sql.Named("receiver_id", userID))
	if err != nil {
		return nil, fmt.Errorf("QueryContext: %w", err)
	}
	defer rows.Close()

	var invitations []Invitation
	for rows.Next() {
		var inv Invitation
		if err := rows.Scan(&inv.SenderID, &inv.SenderEmail, &inv.ReceiverID,
			&inv.ChatID, &inv.ChatName, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		invitations = append(invitations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}
	return invitations, nil
}
