package sockim

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/sockim-chat/sockim/core"
)

func (g *Gateway) CreateChat(ctx context.Context, e *core.Event) error {
	var payload CreateChatPayload
	if !g.decode(e, &payload) {
		return nil
	}

	chat, err := g.chats.CreateChat(ctx, payload.Name, e.Sender)
	if err != nil {
		return g.fail(e, fmt.Errorf("CreateChat: %w", err))
	}

	return g.router.EmitToConn(e.ConnID, ChatCreatedEvent, chat)
}

// RenameChat renames a chat on behalf of one of its members.
func (g *Gateway) RenameChat(ctx context.Context, e *core.Event) error {
	var payload RenameChatPayload
	if !g.decode(e, &payload) {
		return nil
	}

	current, err := g.chats.GetChatByID(ctx, payload.ChatID)
	if err != nil {
		return g.fail(e, fmt.Errorf("GetChatByID: %w", err))
	}
	if !current.IsMember(e.Sender) {
		return g.fail(e, core.ErrNotChatMember)
	}

	chat, err := g.chats.RenameChat(ctx, payload.ChatID, payload.Name)
	if err != nil {
		return g.fail(e, fmt.Errorf("RenameChat: %w", err))
	}

	group := core.ChatGroup(chat.ID)
	if err := g.router.EmitToGroup(group, ChatUpdatedEvent, chat); err != nil {
		return err
	}

	// Members without a connection in the chat group still learn about the
	// rename through their user group.
	inRoom := g.router.Registry().Connections(group)
	for _, member := range chat.Members {
		if lo.Some(inRoom, g.conns.ConnIDs(member.UserID)) {
			continue
		}
		if err := g.router.EmitToGroup(core.UserGroup(member.UserID), ChatUpdatedEvent, chat); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gateway) RemoveMember(ctx context.Context, e *core.Event) error {
	var payload RemoveMemberPayload
	if !g.decode(e, &payload) {
		return nil
	}

	result, err := g.chats.RemoveMember(ctx, payload.ChatID, e.Sender, payload.UserID)
	if err != nil {
		return g.fail(e, fmt.Errorf("RemoveMember: %w", err))
	}

	// The removed user's connections stop hearing room traffic now, not
	// when they get around to leaving the group themselves.
	g.evictFromChat(payload.ChatID, payload.UserID)

	change := MemberChangePayload{ChatID: payload.ChatID, UserID: payload.UserID}
	if err := g.router.EmitToGroup(core.UserGroup(payload.UserID), RemovedFromChatEvent, change); err != nil {
		return err
	}
	if err := g.router.EmitToGroup(core.ChatGroup(payload.ChatID), MemberRemovedEvent, change); err != nil {
		return err
	}
	if result.OwnerChanged {
		if err := g.router.EmitToGroup(core.ChatGroup(payload.ChatID), ChatUpdatedEvent, result.Chat); err != nil {
			return err
		}
	}
	return nil
}

// JoinChat subscribes the calling connection to a chat's broadcast group.
// Group membership is ephemeral: reconnecting clients must join again.
// Only current chat members may listen in.
func (g *Gateway) JoinChat(ctx context.Context, e *core.Event) error {
	var payload ChatRefPayload
	if !g.decode(e, &payload) {
		return nil
	}

	chat, err := g.chats.GetChatByID(ctx, payload.ChatID)
	if err != nil {
		return g.fail(e, fmt.Errorf("GetChatByID: %w", err))
	}
	if !chat.IsMember(e.Sender) {
		return g.fail(e, core.ErrNotChatMember)
	}

	group := core.ChatGroup(payload.ChatID)
	g.router.Registry().Join(group, e.ConnID)

	return g.router.EmitToGroup(group, UserJoinedEvent,
		MemberChangePayload{ChatID: payload.ChatID, UserID: e.Sender})
}

func (g *Gateway) LeaveChat(ctx context.Context, e *core.Event) error {
	var payload ChatRefPayload
	if !g.decode(e, &payload) {
		return nil
	}

	group := core.ChatGroup(payload.ChatID)
	g.router.Registry().Leave(group, e.ConnID)

	return g.router.EmitToGroup(group, UserLeftEvent,
		MemberChangePayload{ChatID: payload.ChatID, UserID: e.Sender})
}

// JoinUser subscribes the calling connection to its own user group, the
// address for direct notifications such as incoming invitations. A
// connection can only join the group of the user it authenticated as.
func (g *Gateway) JoinUser(ctx context.Context, e *core.Event) error {
	var payload UserGroupPayload
	if !g.decode(e, &payload) {
		return nil
	}
	if payload.UserID != e.Sender {
		return g.fail(e, core.NewError(core.KindValidation, "cannot join another user's group"))
	}
	g.router.Registry().Join(core.UserGroup(payload.UserID), e.ConnID)
	return nil
}

func (g *Gateway) LeaveUser(ctx context.Context, e *core.Event) error {
	var payload UserGroupPayload
	if !g.decode(e, &payload) {
		return nil
	}
	if payload.UserID != e.Sender {
		return g.fail(e, core.NewError(core.KindValidation, "cannot leave another user's group"))
	}
	g.router.Registry().Leave(core.UserGroup(payload.UserID), e.ConnID)
	return nil
}
