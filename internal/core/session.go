package core

// Session is the authenticated identity a connection is opened for.
type Session struct {
	UserID string
	Token  string
}

// Valid reports whether the session carries both an identity and a token.
func (s Session) Valid() bool {
	return s.UserID != "" && s.Token != ""
}

// Status is the state of the session's connection.
type Status int

const (
	// StatusDisconnected means no live connection exists.
	StatusDisconnected Status = iota
	// StatusConnecting means the socket is dialing or authenticating.
	StatusConnecting
	// StatusConnected means the handshake succeeded and intents reach the wire.
	StatusConnected
	// StatusError means the last attempt failed. A new attempt is required.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// StatusChange describes one transition of the connection state machine.
type StatusChange struct {
	Old Status
	New Status
	// Err is set when the transition was caused by a failure.
	Err error

	gen uint64
}
