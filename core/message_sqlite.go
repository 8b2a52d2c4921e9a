package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type SQLiteMessageStore struct {
	db *sql.DB
}

func NewSQLiteMessageStore(db *sql.DB) *SQLiteMessageStore {
	return &SQLiteMessageStore{db: db}
}

func (s *SQLiteMessageStore) AddMessage(ctx context.Context, chatID, senderID int, content string) (*Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeError(fmt.Errorf("BeginTx: %w", err), nil)
	}
	defer tx.Rollback()

	var chatExists int
	row := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM chats WHERE id = @id", sql.Named("id", chatID))
	if err := row.Scan(&chatExists); err != nil {
		return nil, fmt.Errorf("scanning chat count: %w", err)
	}
	if chatExists == 0 {
		return nil, ErrChatNotFound
	}

	var senderEmail string
	row = tx.QueryRowContext(ctx, `
		SELECT u.email FROM chat_members AS m
		INNER JOIN users AS u ON m.user_id = u.id
		WHERE m.chat_id = @chat_id AND m.user_id = @user_id`,
		sql.Named("chat_id", chatID), sql.Named("user_id", senderID))
	if err := row.Scan(&senderEmail); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotChatMember
		}
		return nil, fmt.Errorf("scanning sender: %w", err)
	}

	sentAt := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO messages (chat_id, sender_id, content, sent_at) VALUES (@chat_id, @sender_id, @content, @sent_at)",
		sql.Named("chat_id", chatID), sql.Named("sender_id", senderID),
		sql.Named("content", content), sql.Named("sent_at", sentAt))
	if err != nil {
		return nil, storeError(fmt.Errorf("ExecContext(insert message): %w", err), nil)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("LastInsertId: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError(fmt.Errorf("Commit: %w", err), nil)
	}

	return &Message{
		ID:          int(id),
		ChatID:      chatID,
		SenderID:    senderID,
		SenderEmail: senderEmail,
		Content:     content,
		SentAt:      sentAt,
	}, nil
}

func (s *SQLiteMessageStore) EditMessage(ctx context.Context, messageID, editorID int, content string) (*Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeError(fmt.Errorf("BeginTx: %w", err), nil)
	}
	defer tx.Rollback()

	msg, err := getMessage(ctx, tx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != editorID {
		return nil, ErrNotMessageSender
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE messages SET content = @content WHERE id = @id",
		sql.Named("content", content), sql.Named("id", messageID))
	if err != nil {
		return nil, storeError(fmt.Errorf("ExecContext(update message): %w", err), nil)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError(fmt.Errorf("Commit: %w", err), nil)
	}

	msg.Content = content
	return msg, nil
}

func (s *SQLiteMessageStore) DeleteMessage(ctx context.Context, messageID, actorID int) (*Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeError(fmt.Errorf("BeginTx: %w", err), nil)
	}
	defer tx.Rollback()

	msg, err := getMessage(ctx, tx, messageID)
	if err != nil {
		return nil, err
	}

	if msg.SenderID != actorID {
		var ownerID int
		row := tx.QueryRowContext(ctx, "SELECT owner_id FROM chats WHERE id = @id", sql.Named("id", msg.ChatID))
		if err := row.Scan(&ownerID); err != nil {
			return nil, fmt.Errorf("scanning owner: %w", err)
		}
		if ownerID != actorID {
			return nil, ErrNotMessageSender
		}
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM messages WHERE id = @id", sql.Named("id", messageID))
	if err != nil {
		return nil, storeError(fmt.Errorf("ExecContext(delete message): %w", err), nil)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError(fmt.Errorf("Commit: %w", err), nil)
	}
	return msg, nil
}

func getMessage(ctx context.Context, q querier, messageID int) (*Message, error) {
	row := q.QueryRowContext(ctx, `
		SELECT m.id, m.chat_id, m.sender_id, u.email, m.content, m.sent_at
		FROM messages AS m
		INNER JOIN users AS u ON m.sender_id = u.id
		WHERE m.id = @id`,
		sql.Named("id", messageID))

	msg := new(Message)
	if err := row.Scan(&msg.ID, &msg.ChatID, &msg.SenderID, &msg.SenderEmail,
		&msg.Content, &msg.SentAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("scanning message: %w", err)
	}
	return msg, nil
}

func (s *SQLiteMessageStore) GetMessages(ctx context.Context, chatID int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.chat_id, m.sender_id, u.email, m.content, m.sent_at
		FROM messages AS m
		INNER JOIN users AS u ON m.sender_id = u.id
		WHERE m.chat_id = @chat_id
		ORDER BY m.sent_at ASC, m.id ASC`,
		sql.Named("chat_id", chatID))
	if err != nil {
		return nil, fmt.Errorf("QueryContext: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.SenderID, &msg.SenderEmail,
			&msg.Content, &msg.SentAt); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}
	return messages, nil
}
