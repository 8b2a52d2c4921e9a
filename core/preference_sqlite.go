package core

import (
	"context"
	"database/sql"
	"fmt"
)

type SQLitePreferenceStore struct {
	db *sql.DB
}

func NewSQLitePreferenceStore(db *sql.DB) *SQLitePreferenceStore {
	return &SQLitePreferenceStore{db: db}
}

func (s *SQLitePreferenceStore) SavePreference(ctx context.Context, pref Preference) error {
	if pref.Color == "" {
		pref.Color = DefaultMemberColor
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, chat_id, member_id, color)
		VALUES (@user_id, @chat_id, @member_id, @color)
		ON CONFLICT (user_id, chat_id, member_id) DO UPDATE SET color = @color`,
		sql.Named("user_id", pref.UserID), sql.Named("chat_id", pref.ChatID),
		sql.Named("member_id", pref.MemberID), sql.Named("color", pref.Color))
	if err != nil {
		return storeError(fmt.Errorf("ExecContext(upsert preference): %w", err), nil)
	}
	return nil
}

func (s *SQLitePreferenceStore) GetPreferences(ctx context.Context, userID, chatID int) (map[int]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT member_id, color FROM user_preferences WHERE user_id = @user_id AND chat_id = @chat_id",
		sql.Named("user_id", userID), sql.Named("chat_id", chatID))
	if err != nil {
		return nil, fmt.Errorf("QueryContext: %w", err)
	}
	defer rows.Close()

	prefs := make(map[int]string)
	for rows.Next() {
		var memberID int
		var color string
		if err := rows.Scan(&memberID, &color); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		prefs[memberID] = color
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}
	return prefs, nil
}
