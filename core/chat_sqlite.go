package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// querier is satisfied by both *sql.DB and *sql.Tx so projections can be
// loaded inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type SQLiteChatStore struct {
	db        *sql.DB
	userStore UserStore
}

func NewSQLiteChatStore(db *sql.DB, userStore UserStore) *SQLiteChatStore {
	return &SQLiteChatStore{
		db:        db,
		userStore: userStore,
	}
}

func (s *SQLiteChatStore) CreateChat(ctx context.Context, name string, ownerID int) (*Chat, error) {
	owner, err := s.userStore.GetUserByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("GetUserByID: %w", err)
	}
	if owner == nil {
		return nil, ErrUserNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeError(fmt.Errorf("BeginTx: %w", err), nil)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO chats (name, owner_id) VALUES (@name, @owner_id)",
		sql.Named("name", name), sql.Named("owner_id", ownerID))
	if err != nil {
		return nil, storeError(fmt.Errorf("ExecContext(insert chat): %w", err), nil)
	}
	chatID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("LastInsertId: %w", err)
	}

	joinedAt := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		"INSERT INTO chat_members (chat_id, user_id, joined_at) VALUES (@chat_id, @user_id, @joined_at)",
		sql.Named("chat_id", chatID), sql.Named("user_id", ownerID), sql.Named("joined_at", joinedAt))
	if err != nil {
		return nil, storeError(fmt.Errorf("ExecContext(insert chat_members): %w", err), nil)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError(fmt.Errorf("Commit: %w", err), nil)
	}

	return &Chat{
		ID:      int(chatID),
		Name:    name,
		OwnerID: ownerID,
		Members: []ChatMember{{
			ChatID:   int(chatID),
			UserID:   ownerID,
			Email:    owner.Email,
			Name:     owner.Name,
			JoinedAt: joinedAt,
		}},
	}, nil
}

func (s *SQLiteChatStore) RenameChat(ctx context.Context, chatID int, name string) (*Chat, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE chats SET name = @name WHERE id = @id",
		sql.Named("name", name), sql.Named("id", chatID))
	if err != nil {
		return nil, storeError(fmt.Errorf("ExecContext(update chat): %w", err), nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("RowsAffected: %w", err)
	}
	if n == 0 {
		return nil, ErrChatNotFound
	}
	return s.GetChatByID(ctx, chatID)
}

func (s *SQLiteChatStore) AddMember(ctx context.Context, chatID, userID int) (*Chat, error) {
	user, err := s.userStore.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("GetUserByID: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeError(fmt.Errorf("BeginTx: %w", err), nil)
	}
	defer tx.Rollback()

	if err := addMemberTx(ctx, tx, chatID, userID); err != nil {
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

// addMemberTx inserts a membership row, failing with ErrChatNotFound when
// the chat is absent and ErrAlreadyMember on a duplicate row.
func addMemberTx(ctx context.Context, tx querier, chatID, userID int) error {
	var exists int
	row := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM chats WHERE id = @id", sql.Named("id", chatID))
	if err := row.Scan(&exists); err != nil {
		return fmt.Errorf("scanning chat count: %w", err)
	}
	if exists == 0 {
		return ErrChatNotFound
	}

	_, err := tx.ExecContext(ctx,
		"INSERT INTO chat_members (chat_id, user_id, joined_at) VALUES (@chat_id, @user_id, @joined_at)",
		sql.Named("chat_id", chatID), sql.Named("user_id", userID),
		sql.Named("joined_at", time.Now().UTC()))
	if err != nil {
		return storeError(fmt.Errorf("ExecContext(insert chat_members): %w", err), ErrAlreadyMember)
	}
	return nil
}

func (s *SQLiteChatStore) RemoveMember(ctx context.Context, chatID, actorID, userID int) (*RemoveMemberResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeError(fmt.Errorf("BeginTx: %w", err), nil)
	}
	defer tx.Rollback()

	chat, err := getChat(ctx, tx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsMember(userID) {
		return nil, ErrNotChatMember
	}

	// Only the owner removes others; anyone may remove themselves. The
	// owner can only leave, never be removed.
	if userID == chat.OwnerID && actorID != userID {
		return nil, ErrOwnerCannotBeRemoved
	}
	if actorID != userID && actorID != chat.OwnerID {
		return nil, ErrNotChatOwner
	}

	_, err = tx.ExecContext(ctx,
		"DELETE FROM chat_members WHERE chat_id = @chat_id AND user_id = @user_id",
		sql.Named("chat_id", chatID), sql.Named("user_id", userID))
	if err != nil {
		return nil, storeError(fmt.Errorf("ExecContext(delete chat_members): %w", err), nil)
	}

	result := &RemoveMemberResult{}

	if userID == chat.OwnerID {
		// Owner departure: promote the earliest-joined remaining member,
		// or dissolve the chat when nobody is left. The cascade wipes
		// messages, invitations, and preferences.
		row := tx.QueryRowContext(ctx,
			"SELECT user_id FROM chat_members WHERE chat_id = @chat_id ORDER BY joined_at ASC, rowid ASC LIMIT 1",
			sql.Named("chat_id", chatID))
		var successorID int
		err = row.Scan(&successorID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx, "DELETE FROM chats WHERE id = @id", sql.Named("id", chatID)); err != nil {
				return nil, storeError(fmt.Errorf("ExecContext(delete chat): %w", err), nil)
			}
			result.Dissolved = true
		case err != nil:
			return nil, fmt.Errorf("scanning successor: %w", err)
		default:
			if _, err := tx.ExecContext(ctx,
				"UPDATE chats SET owner_id = @owner_id WHERE id = @id",
				sql.Named("owner_id", successorID), sql.Named("id", chatID)); err != nil {
				return nil, storeError(fmt.Errorf("ExecContext(update owner): %w", err), nil)
			}
			result.OwnerChanged = true
		}
	}

	if !result.Dissolved {
		chat, err := getChat(ctx, tx, chatID)
		if err != nil {
			return nil, err
		}
		result.Chat = chat
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError(fmt.Errorf("Commit: %w", err), nil)
	}
	return result, nil
}

func (s *SQLiteChatStore) GetChatByID(ctx context.Context, chatID int) (*Chat, error) {
	return getChat(ctx, s.db, chatID)
}

func getChat(ctx context.Context, q querier, chatID int) (*Chat, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT c.id, c.name, c.owner_id, m.user_id, u.email, u.name, m.joined_at
		FROM chats AS c
		LEFT JOIN chat_members AS m ON c.id = m.chat_id
		LEFT JOIN users AS u ON m.user_id = u.id
		WHERE c.id = @id
		ORDER BY m.joined_at ASC, m.rowid ASC`,
		sql.Named("id", chatID))
	if err != nil {
		return nil, fmt.Errorf("QueryContext: %w", err)
	}
	defer rows.Close()

	chat := Chat{Members: make([]ChatMember, 0, 2)}
	found := false
	for rows.Next() {
		found = true
		var member ChatMember
		var memberID sql.NullInt64
		var email, name sql.NullString
		var joinedAt sql.NullTime
		if err := rows.Scan(&chat.ID, &chat.Name, &chat.OwnerID,
			&memberID, &email, &name, &joinedAt); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		if !memberID.Valid {
			continue
		}
		member.ChatID = chat.ID
		member.UserID = int(memberID.Int64)
		member.Email = email.String
		member.Name = name.String
		member.JoinedAt = joinedAt.Time
		chat.Members = append(chat.Members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}
	if !found {
		return nil, ErrChatNotFound
	}
	return &chat, nil
}

func (s *SQLiteChatStore) GetChatsForUser(ctx context.Context, userID int) ([]Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		WITH c AS (
		    SELECT c.id, c.name, c.owner_id
		    FROM chat_members AS cm
		    INNER JOIN chats AS c ON cm.chat_id = c.id
		    WHERE cm.user_id = @user_id
		)
		SELECT c.id, c.name, c.owner_id, m.user_id, u.email, u.name, m.joined_at
		FROM c
		INNER JOIN chat_members AS m ON c.id = m.chat_id
		INNER JOIN users AS u ON m.user_id = u.id
		ORDER BY c.id ASC, m.joined_at ASC, m.rowid ASC`,
		sql.Named("user_id", userID))
	if err != nil {
		return nil, fmt.Errorf("QueryContext: %w", err)
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		var chatID int
		var name string
		var ownerID int
		var member ChatMember
		if err := rows.Scan(&chatID, &name, &ownerID,
			&member.UserID, &member.Email, &member.Name, &member.JoinedAt); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		member.ChatID = chatID
		if len(chats) == 0 || chats[len(chats)-1].ID != chatID {
			chats = append(chats, Chat{ID: chatID, Name: name, OwnerID: ownerID})
		}
		last := &chats[len(chats)-1]
		last.Members = append(last.Members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}
	return chats, nil
}

func (s *SQLiteChatStore) GetMembers(ctx context.Context, chatID int) ([]ChatMember, error) {
	chat, err := getChat(ctx, s.db, chatID)
	if err != nil {
		return nil, err
	}
	return chat.Members, nil
}
