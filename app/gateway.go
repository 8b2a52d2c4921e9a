package sockim

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sockim-chat/sockim/core"
)

// connDirectory resolves a user's live connection ids. Satisfied by
// core.ConnManager; faked in tests.
type connDirectory interface {
	ConnIDs(userID int) []string
}

// Gateway is the per-connection command surface. Every handler follows the
// same template: decode and validate the payload, invoke the domain store,
// and only after the store committed fan the resulting events out to the
// affected groups. A failed domain call produces exactly one error event
// addressed to the calling connection and nothing else.
type Gateway struct {
	users       core.UserStore
	chats       core.ChatStore
	invitations core.InvitationStore
	messages    core.MessageStore
	preferences core.PreferenceStore

	conns  connDirectory
	router *core.EventRouter
	logger *slog.Logger
}

func NewGateway(
	router *core.EventRouter,
	conns connDirectory,
	logger *slog.Logger,
	users core.UserStore,
	chats core.ChatStore,
	invitations core.InvitationStore,
	messages core.MessageStore,
	preferences core.PreferenceStore,
) *Gateway {
	return &Gateway{
		users:       users,
		chats:       chats,
		invitations: invitations,
		messages:    messages,
		preferences: preferences,
		conns:       conns,
		router:      router,
		logger:      logger,
	}
}

// Register binds every command to its handler.
func (g *Gateway) Register() {
	g.router.On(JoinChatCommand, g.JoinChat)
	g.router.On(LeaveChatCommand, g.LeaveChat)
	g.router.On(JoinUserCommand, g.JoinUser)
	g.router.On(LeaveUserCommand, g.LeaveUser)
	g.router.On(CreateChatCommand, g.CreateChat)
	g.router.On(RenameChatCommand, g.RenameChat)
	g.router.On(SendInvitationCommand, g.SendInvitation)
	g.router.On(AcceptInvitationCommand, g.AcceptInvitation)
	g.router.On(RejectInvitationCommand, g.RejectInvitation)
	g.router.On(RemoveMemberCommand, g.RemoveMember)
	g.router.On(SendMessageCommand, g.SendMessage)
	g.router.On(EditMessageCommand, g.EditMessage)
	g.router.On(DeleteMessageCommand, g.DeleteMessage)
	g.router.On(UserTypingCommand, g.UserTyping)
	g.router.On(StoppedTypingCommand, g.UserStoppedTyping)
	g.router.On(RetrieveChatsCommand, g.RetrieveChats)
	g.router.On(GetChatMembersCommand, g.GetChatMembers)
	g.router.On(RetrieveInvitationsCommand, g.RetrieveInvitations)
	g.router.On(GetChatHistoryCommand, g.GetChatHistory)
	g.router.On(GetPreferencesCommand, g.GetPreferences)
	g.router.On(SavePreferenceCommand, g.SavePreference)
}

// fail sends a sanitized error event to the calling connection. Domain
// errors surface their stable message and are logged at debug; everything
// else becomes a generic internal error and is logged at error.
func (g *Gateway) fail(e *core.Event, err error) error {
	payload := ErrorPayload{Kind: core.KindInternal, Message: "internal error"}
	if domainErr, ok := core.AsDomainError(err); ok {
		payload.Kind = domainErr.Kind
		payload.Message = domainErr.Error()
		g.logger.Debug(fmt.Sprintf("%s: %v", e.Type, err))
	} else {
		g.logger.Error(fmt.Sprintf("%s: %v", e.Type, err))
	}
	if emitErr := g.router.EmitToConn(e.ConnID, ErrorEvent, payload); emitErr != nil {
		return emitErr
	}
	return nil
}

// decode unmarshals and validates a command payload. A failure is reported
// to the caller as a validation error event.
func (g *Gateway) decode(e *core.Event, v interface{}) bool {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		g.fail(e, core.NewError(core.KindValidation, "malformed payload"))
		return false
	}
	if err := validate.Struct(v); err != nil {
		g.fail(e, core.NewError(core.KindValidation, "invalid payload"))
		return false
	}
	return true
}

// evictFromChat removes every live connection of the user from the chat
// group. Called when a member is removed so ex-members stop receiving room
// broadcasts immediately instead of lingering until they leave explicitly.
func (g *Gateway) evictFromChat(chatID, userID int) {
	group := core.ChatGroup(chatID)
	for _, connID := range g.conns.ConnIDs(userID) {
		g.router.Registry().Leave(group, connID)
	}
}
