package errcode

import "fmt"

// Error represents a business error
type Error struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("errcode: %d, msg: %s", e.Code, e.Msg)
}

// New creates a new error with code and message
func New(code int, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Wrap wraps an error with additional context
func (e *Error) Wrap(err error) *Error {
	if err == nil {
		return e
	}
	return &Error{
		Code: e.Code,
		Msg:  fmt.Sprintf("%s: %v", e.Msg, err),
	}
}

// Common error codes
var (
	// Success
	ErrSuccess = New(0, "success")

	// Common errors (1xxx)
	ErrInvalidParam     = New(1001, "invalid parameter")
	ErrInternalServer   = New(1002, "internal server error")
	ErrUnauthorized     = New(1003, "unauthorized")
	ErrForbidden        = New(1004, "forbidden")
	ErrNotFound         = New(1005, "not found")
	ErrNoPermission     = New(1006, "no permission to access this resource")
	ErrStoreUnavailable = New(1007, "store unavailable")

	// Auth errors (2xxx)
	ErrTokenInvalid  = New(2001, "token invalid")
	ErrTokenExpired  = New(2002, "token expired")
	ErrTokenMissing  = New(2003, "token missing")
	ErrLoginFailed   = New(2004, "login failed")
	ErrUserNotFound  = New(2005, "user not found")
	ErrUserExists    = New(2006, "user already exists")
	ErrPasswordWrong = New(2007, "password wrong")
	ErrUserPending   = New(2008, "account pending approval")

	// Conversation errors (3xxx)
	ErrConvNotFound       = New(3001, "conversation not found")
	ErrBadParticipants    = New(3002, "direct conversation requires exactly two distinct participants")
	ErrEmptyParticipants  = New(3003, "participant list is empty")
	ErrNotParticipant     = New(3004, "not a conversation participant")

	// Message errors (4xxx)
	ErrMessageNotFound = New(4001, "message not found")
	ErrEmptyContent    = New(4002, "message content is empty")
	ErrContentTooLong  = New(4003, "message content too long")
	ErrSendFailed      = New(4004, "message send failed")
	ErrFanoutFailed    = New(4005, "notification fan-out incomplete")

	// Notification errors (5xxx)
	ErrNotifyNotFound = New(5001, "notification not found")

	// Quote errors (6xxx)
	ErrRfqNotFound   = New(6001, "rfq not found")
	ErrQuoteNotFound = New(6002, "quote not found")

	// Subscription errors (7xxx)
	ErrSubscribeClosed = New(7001, "subscription closed")
	ErrWatchFailed     = New(7002, "change stream watch failed")

	// WebSocket errors (8xxx)
	ErrConnOverLimit   = New(8001, "connection over max limit")
	ErrConnClosed      = New(8002, "connection closed")
	ErrInvalidProtocol = New(8003, "invalid protocol")
	ErrPushFailed      = New(8004, "push message failed")
)
