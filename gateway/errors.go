package gateway

import (
	"errors"
	"fmt"
)

// Close codes sent by the platform.
const (
	CloseInvalidSession = 4006
	CloseInvalidSeq     = 4007
	CloseSessionTimeout = 4009
	CloseInvalidToken   = 4004
	CloseBotOffline     = 4914
	CloseBotBanned      = 4915
)

// FatalCloseError ends Run: reconnecting cannot succeed.
type FatalCloseError struct {
	Code   int
	Reason string
}

func (e *FatalCloseError) Error() string {
	return fmt.Sprintf("gateway closed the connection with fatal code %d: %s", e.Code, e.Reason)
}

func isFatal(code int) bool {
	switch code {
	case CloseInvalidToken, CloseBotOffline, CloseBotBanned:
		return true
	}
	return false
}

func invalidatesSession(code int) bool {
	switch code {
	case CloseInvalidSession, CloseInvalidSeq, CloseSessionTimeout:
		return true
	}
	return false
}

// Reasons a connection ended; they decide how Run reconnects.
var (
	errReconnectRequested = errors.New("gateway requested reconnect")
	errInvalidSession     = errors.New("gateway invalidated the session")
	errZombie             = errors.New("heartbeat not acknowledged")
)
