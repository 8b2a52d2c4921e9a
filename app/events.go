package sockim

import (
	"time"

	"github.com/sockim-chat/sockim/core"
)

// Client-invoked commands.
const (
	JoinChatCommand         = "JoinChat"
	LeaveChatCommand        = "LeaveChat"
	JoinUserCommand         = "JoinUser"
	LeaveUserCommand        = "LeaveUser"
	CreateChatCommand       = "CreateChat"
	RenameChatCommand       = "RenameChat"
	SendInvitationCommand   = "SendInvitation"
	AcceptInvitationCommand = "AcceptInvitation"
	RejectInvitationCommand = "RejectInvitation"
	RemoveMemberCommand     = "RemoveMember"
	SendMessageCommand      = "SendMessage"
	EditMessageCommand      = "EditMessage"
	DeleteMessageCommand    = "DeleteMessage"
	UserTypingCommand       = "UserTyping"
	StoppedTypingCommand    = "UserStoppedTyping"

	RetrieveChatsCommand       = "RetrieveChats"
	GetChatMembersCommand      = "GetChatMembers"
	RetrieveInvitationsCommand = "RetrieveInvitations"
	GetChatHistoryCommand      = "GetChatHistory"
	GetPreferencesCommand      = "GetPreferences"
	SavePreferenceCommand      = "SavePreference"
)

// Server-emitted events.
const (
	ChatCreatedEvent        = "ChatCreated"
	ChatUpdatedEvent        = "ChatUpdated"
	IncomingInvitationEvent = "IncomingInvitation"
	InvitationSentEvent     = "InvitationSent"
	InvitationAcceptedEvent = "InvitationAccepted"
	InvitationRejectedEvent = "InvitationRejected"
	MemberJoinedEvent       = "MemberJoined"
	MemberRemovedEvent      = "MemberRemoved"
	RemovedFromChatEvent    = "RemovedFromChat"
	ReceiveMessageEvent     = "ReceiveMessage"
	MessageUpdatedEvent     = "MessageUpdated"
	MessageDeletedEvent     = "MessageDeleted"
	UserTypingEvent         = "UserTyping"
	StoppedTypingEvent      = "UserStoppedTyping"
	UserJoinedEvent         = "UserJoined"
	UserLeftEvent           = "UserLeft"

	RetrievedChatsEvent       = "RetrievedChats"
	ChatMembersEvent          = "ChatMembers"
	RetrievedInvitationsEvent = "RetrievedInvitations"
	ChatHistoryEvent          = "ChatHistory"
	PreferencesEvent          = "Preferences"
	PreferenceSavedEvent      = "PreferenceSaved"
	ErrorEvent                = "Error"
)

// ErrorPayload is the sanitized error surface. Message carries only the
// stable domain message; internals never leave the server.
type ErrorPayload struct {
	Kind    core.ErrorKind `json:"kind"`
	Message string         `json:"message"`
}

type ChatRefPayload struct {
	ChatID int `json:"chat_id" validate:"required"`
}

type CreateChatPayload struct {
	Name string `json:"name" validate:"required"`
}

type RenameChatPayload struct {
	ChatID int    `json:"chat_id" validate:"required"`
	Name   string `json:"name" validate:"required"`
}

type UserGroupPayload struct {
	UserID int `json:"user_id" validate:"required"`
}

type InvitationPayload struct {
	ChatID        int    `json:"chat_id" validate:"required"`
	ReceiverID    int    `json:"receiver_id"`
	ReceiverEmail string `json:"receiver_email"`
}

type InvitationRefPayload struct {
	ChatID   int `json:"chat_id" validate:"required"`
	SenderID int `json:"sender_id" validate:"required"`
}

type RemoveMemberPayload struct {
	ChatID int `json:"chat_id" validate:"required"`
	UserID int `json:"user_id" validate:"required"`
}

type SendMessagePayload struct {
	ChatID  int    `json:"chat_id" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type EditMessagePayload struct {
	MessageID int    `json:"message_id" validate:"required"`
	Content   string `json:"content" validate:"required"`
}

type MessageRefPayload struct {
	MessageID int `json:"message_id" validate:"required"`
}

type TypingPayload struct {
	ChatID      int    `json:"chat_id" validate:"required"`
	UserID      int    `json:"user_id"`
	SenderEmail string `json:"sender_email"`
}

type SavePreferencePayload struct {
	ChatID   int    `json:"chat_id" validate:"required"`
	MemberID int    `json:"member_id" validate:"required"`
	Color    string `json:"color" validate:"required,hexcolor7"`
}

type MemberChangePayload struct {
	ChatID int `json:"chat_id"`
	UserID int `json:"user_id"`
}

type MessageDeletedPayload struct {
	ChatID    int `json:"chat_id"`
	MessageID int `json:"message_id"`
}

type InvitationRejectedPayload struct {
	ChatID     int `json:"chat_id"`
	ReceiverID int `json:"receiver_id"`
}

type PreferencesPayload struct {
	ChatID int            `json:"chat_id"`
	Colors map[int]string `json:"colors"`
}

type ChatHistoryPayload struct {
	ChatID   int            `json:"chat_id"`
	Messages []core.Message `json:"messages"`
}

type InvitationAcceptedPayload struct {
	Chat       *core.Chat `json:"chat"`
	ReceiverID int        `json:"receiver_id"`
	AcceptedAt time.Time  `json:"accepted_at"`
}
