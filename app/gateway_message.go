package sockim

import (
	"context"
	"fmt"

	"github.com/sockim-chat/sockim/core"
)

func (g *Gateway) SendMessage(ctx context.Context, e *core.Event) error {
	var payload SendMessagePayload
	if !g.decode(e, &payload) {
		return nil
	}

	msg, err := g.messages.AddMessage(ctx, payload.ChatID, e.Sender, payload.Content)
	if err != nil {
		return g.fail(e, fmt.Errorf("AddMessage: %w", err))
	}

	return g.router.EmitToGroup(core.ChatGroup(payload.ChatID), ReceiveMessageEvent, msg)
}

func (g *Gateway) EditMessage(ctx context.Context, e *core.Event) error {
	var payload EditMessagePayload
	if !g.decode(e, &payload) {
		return nil
	}

	msg, err := g.messages.EditMessage(ctx, payload.MessageID, e.Sender, payload.Content)
	if err != nil {
		return g.fail(e, fmt.Errorf("EditMessage: %w", err))
	}

	return g.router.EmitToGroup(core.ChatGroup(msg.ChatID), MessageUpdatedEvent, msg)
}

func (g *Gateway) DeleteMessage(ctx context.Context, e *core.Event) error {
	var payload MessageRefPayload
	if !g.decode(e, &payload) {
		return nil
	}

	msg, err := g.messages.DeleteMessage(ctx, payload.MessageID, e.Sender)
	if err != nil {
		return g.fail(e, fmt.Errorf("DeleteMessage: %w", err))
	}

	return g.router.EmitToGroup(core.ChatGroup(msg.ChatID), MessageDeletedEvent,
		MessageDeletedPayload{ChatID: msg.ChatID, MessageID: msg.ID})
}

func (g *Gateway) GetChatHistory(ctx context.Context, e *core.Event) error {
	var payload ChatRefPayload
	if !g.decode(e, &payload) {
		return nil
	}

	messages, err := g.messages.GetMessages(ctx, payload.ChatID)
	if err != nil {
		return g.fail(e, fmt.Errorf("GetMessages: %w", err))
	}

	return g.router.EmitToConn(e.ConnID, ChatHistoryEvent,
		ChatHistoryPayload{ChatID: payload.ChatID, Messages: messages})
}

// UserTyping relays a typing signal to everyone else in the room. Nothing
// is persisted; a dropped signal is harmless.
func (g *Gateway) UserTyping(ctx context.Context, e *core.Event) error {
	return g.relayTyping(e, UserTypingEvent)
}

func (g *Gateway) UserStoppedTyping(ctx context.Context, e *core.Event) error {
	return g.relayTyping(e, StoppedTypingEvent)
}

func (g *Gateway) relayTyping(e *core.Event, eventType string) error {
	var payload TypingPayload
	if !g.decode(e, &payload) {
		return nil
	}
	payload.UserID = e.Sender

	return g.router.EmitToGroupExcept(core.ChatGroup(payload.ChatID), e.ConnID, eventType, payload)
}
