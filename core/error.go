package core

import "errors"

// ErrorKind classifies a domain failure so callers can react to the class
// of failure without matching on individual sentinels.
type ErrorKind string

const (
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindValidation ErrorKind = "validation"
	KindInternal   ErrorKind = "internal"
)

// Error is a domain error with a stable, client-safe message.
// Anything that is not an *Error must be treated as internal and never
// surfaced to clients verbatim.
type Error struct {
	Kind ErrorKind
	msg  string
}

func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

// Is makes sentinel comparison with errors.Is work through wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.msg == e.msg
}

var (
	ErrUserNotFound       = NewError(KindNotFound, "user not found")
	ErrChatNotFound       = NewError(KindNotFound, "chat not found")
	ErrMessageNotFound    = NewError(KindNotFound, "message not found")
	ErrInvitationNotFound = NewError(KindNotFound, "invitation not found")

	ErrAlreadyMember        = NewError(KindConflict, "user is already a member of the chat")
	ErrAlreadyInvited       = NewError(KindConflict, "user is already invited to the chat")
	ErrOwnerCannotBeRemoved = NewError(KindConflict, "chat owner cannot be removed by another member")
	ErrNotChatOwner         = NewError(KindConflict, "operation requires chat ownership")
	ErrNotChatMember        = NewError(KindConflict, "user is not a member of the chat")
	ErrNotMessageSender     = NewError(KindConflict, "message can only be modified by its sender")
	ErrConflictedUser       = NewError(KindConflict, "user already exists")
	ErrConcurrentUpdate     = NewError(KindConflict, "concurrent update, retry")

	ErrBadCredentials  = NewError(KindValidation, "invalid credentials")
	ErrUnauthenticated = NewError(KindValidation, "unauthenticated")
)

// AsDomainError extracts the domain error from err's chain, if any.
func AsDomainError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf reports the kind of err, or KindInternal for non-domain errors.
func KindOf(err error) ErrorKind {
	if e, ok := AsDomainError(err); ok {
		return e.Kind
	}
	return KindInternal
}
