package sockim

import (
	"context"
	"fmt"
	"time"

	"github.com/sockim-chat/sockim/core"
)

// SendInvitation invites a user to a chat, addressed either by id or by
// email. The receiver's user group gets the invitation; the caller gets a
// confirmation.
func (g *Gateway) SendInvitation(ctx context.Context, e *core.Event) error {
	var payload InvitationPayload
	if !g.decode(e, &payload) {
		return nil
	}

	receiverID := payload.ReceiverID
	if receiverID == 0 {
		if payload.ReceiverEmail == "" {
			return g.fail(e, core.NewError(core.KindValidation, "receiver id or email required"))
		}
		receiver, err := g.users.GetUserByEmail(ctx, payload.ReceiverEmail)
		if err != nil {
			return g.fail(e, fmt.Errorf("GetUserByEmail: %w", err))
		}
		if receiver == nil {
			return g.fail(e, core.ErrUserNotFound)
		}
		receiverID = receiver.ID
	}

	invitation, err := g.invitations.Invite(ctx, payload.ChatID, e.Sender, receiverID)
	if err != nil {
		return g.fail(e, fmt.Errorf("Invite: %w", err))
	}

	if err := g.router.EmitToGroup(core.UserGroup(receiverID), IncomingInvitationEvent, invitation); err != nil {
		return err
	}
	return g.router.EmitToConn(e.ConnID, InvitationSentEvent, invitation)
}

// AcceptInvitation consumes the invitation and adds the caller to the
// chat. The accepting user's group learns about the new chat; the chat
// room learns about the new member.
func (g *Gateway) AcceptInvitation(ctx context.Context, e *core.Event) error {
	var payload InvitationRefPayload
	if !g.decode(e, &payload) {
		return nil
	}

	chat, err := g.invitations.AcceptInvitation(ctx, payload.ChatID, payload.SenderID, e.Sender)
	if err != nil {
		return g.fail(e, fmt.Errorf("AcceptInvitation: %w", err))
	}

	accepted := InvitationAcceptedPayload{
		Chat:       chat,
		ReceiverID: e.Sender,
		AcceptedAt: time.Now().UTC(),
	}
	if err := g.router.EmitToGroup(core.UserGroup(e.Sender), InvitationAcceptedEvent, accepted); err != nil {
		return err
	}
	return g.router.EmitToGroup(core.ChatGroup(payload.ChatID), MemberJoinedEvent,
		MemberChangePayload{ChatID: payload.ChatID, UserID: e.Sender})
}

// RejectInvitation consumes the invitation without joining. Rejecting an
// already-absent invitation is a silent no-op. The inviter is notified.
func (g *Gateway) RejectInvitation(ctx context.Context, e *core.Event) error {
	var payload InvitationRefPayload
	if !g.decode(e, &payload) {
		return nil
	}

	if err := g.invitations.RejectInvitation(ctx, payload.ChatID, payload.SenderID, e.Sender); err != nil {
		return g.fail(e, fmt.Errorf("RejectInvitation: %w", err))
	}

	return g.router.EmitToGroup(core.UserGroup(payload.SenderID), InvitationRejectedEvent,
		InvitationRejectedPayload{ChatID: payload.ChatID, ReceiverID: e.Sender})
}

func (g *Gateway) RetrieveInvitations(ctx context.Context, e *core.Event) error {
	invitations, err := g.invitations.GetPendingForUser(ctx, e.Sender)
	if err != nil {
		return g.fail(e, fmt.Errorf("GetPendingForUser: %w", err))
	}
	return g.router.EmitToConn(e.ConnID, RetrievedInvitationsEvent, invitations)
}
