package core

import (
	"errors"
	"fmt"
)

// Error codes the server attaches to application errors.
const (
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeAccessDenied = "access_denied"
	ErrCodeChatNotFound = "chat_not_found"
	ErrCodeBadRequest   = "bad_request"
)

var (
	// ErrNotConnected is returned when an intent is issued without a
	// connected socket. The intent is dropped, not queued.
	ErrNotConnected = errors.New("not connected")
	// ErrAuthentication marks a rejected handshake. Callers re-authenticate.
	ErrAuthentication = errors.New("authentication failed")
	// ErrTransport marks a network failure of an established or dialing connection.
	ErrTransport = errors.New("transport failure")
	// ErrNoSession is returned when connecting without a session.
	ErrNoSession = errors.New("no session")
	// ErrSuperseded is returned to a Connect caller whose attempt was torn
	// down before it completed.
	ErrSuperseded = errors.New("connection attempt superseded")
)

// ApplicationError is an operation the server rejected, forwarded verbatim.
type ApplicationError struct {
	Code    string
	Message string
	// ChatID is set when the rejected operation targeted a room.
	ChatID string
}

func (e *ApplicationError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
