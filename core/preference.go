package core

import "context"

// DefaultMemberColor is the color assigned to a member when the viewer has
// not picked one.
const DefaultMemberColor = "#6e8cfb"

// Preference is a per-viewer display color for a member of a chat.
type Preference struct {
	UserID   int    `json:"user_id"`
	ChatID   int    `json:"chat_id"`
	MemberID int    `json:"member_id"`
	Color    string `json:"color"`
}

type PreferenceStore interface {
	// SavePreference upserts the color for the (user, chat, member) triple.
	SavePreference(ctx context.Context, pref Preference) error

	// GetPreferences returns the viewer's colors for a chat keyed by
	// member id. Members without a stored preference are absent.
	GetPreferences(ctx context.Context, userID, chatID int) (map[int]string, error)
}
