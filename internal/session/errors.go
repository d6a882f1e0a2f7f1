package session

import (
	"errors"
	"fmt"
)

// ErrAuthenticationRequired is returned by Do when no usable access token
// could be obtained. No request is sent in that case.
var ErrAuthenticationRequired = errors.New("authentication required")

// ErrorKind classifies authentication failures
type ErrorKind int

const (
	// NetworkFailure means the request could not be sent or its response read
	NetworkFailure ErrorKind = iota + 1
	// AuthRejected means the server answered with a non-2xx status
	AuthRejected
	// TokenInvalid means a token could not be decoded or lacks a claim
	TokenInvalid
	// SessionExpired means the refresh token is expired or was rejected
	SessionExpired
)

func (k ErrorKind) String() string {
	switch k {
	case NetworkFailure:
		return "network_failure"
	case AuthRejected:
		return "auth_rejected"
	case TokenInvalid:
		return "token_invalid"
	case SessionExpired:
		return "session_expired"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// AuthError is the typed failure returned by Login. Message is meant to be
// shown to the user as-is.
type AuthError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Err        error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *AuthError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.Kind == kind
}
