package sockim

import (
	"context"
	"fmt"

	"github.com/sockim-chat/sockim/core"
)

func (g *Gateway) RetrieveChats(ctx context.Context, e *core.Event) error {
	chats, err := g.chats.GetChatsForUser(ctx, e.Sender)
	if err != nil {
		return g.fail(e, fmt.Errorf("GetChatsForUser: %w", err))
	}
	return g.router.EmitToConn(e.ConnID, RetrievedChatsEvent, chats)
}

func (g *Gateway) GetChatMembers(ctx context.Context, e *core.Event) error {
	var payload ChatRefPayload
	if !g.decode(e, &payload) {
		return nil
	}

	members, err := g.chats.GetMembers(ctx, payload.ChatID)
	if err != nil {
		return g.fail(e, fmt.Errorf("GetMembers: %w", err))
	}
	return g.router.EmitToConn(e.ConnID, ChatMembersEvent, members)
}

func (g *Gateway) GetPreferences(ctx context.Context, e *core.Event) error {
	var payload ChatRefPayload
	if !g.decode(e, &payload) {
		return nil
	}

	colors, err := g.preferences.GetPreferences(ctx, e.Sender, payload.ChatID)
	if err != nil {
		return g.fail(e, fmt.Errorf("GetPreferences: %w", err))
	}
	return g.router.EmitToConn(e.ConnID, PreferencesEvent,
		PreferencesPayload{ChatID: payload.ChatID, Colors: colors})
}

func (g *Gateway) SavePreference(ctx context.Context, e *core.Event) error {
	var payload SavePreferencePayload
	if !g.decode(e, &payload) {
		return nil
	}

	pref := core.Preference{
		UserID:   e.Sender,
		ChatID:   payload.ChatID,
		MemberID: payload.MemberID,
		Color:    payload.Color,
	}
	if err := g.preferences.SavePreference(ctx, pref); err != nil {
		return g.fail(e, fmt.Errorf("SavePreference: %w", err))
	}
	return g.router.EmitToConn(e.ConnID, PreferenceSavedEvent, pref)
}
