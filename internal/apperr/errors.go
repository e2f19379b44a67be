package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a gateway failure.
type Kind string

const (
	KindInvalidRequest     Kind = "INVALID_REQUEST"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindDeliveryFailed     Kind = "DELIVERY_FAILED"
	KindUnknownSession     Kind = "UNKNOWN_SESSION"
	KindPasswordRequired   Kind = "PASSWORD_REQUIRED"
	KindBadPassword        Kind = "BAD_PASSWORD"
	KindNoSuitableAnchor   Kind = "NO_SUITABLE_ANCHOR"
	KindAuthExpired        Kind = "AUTH_EXPIRED"
	KindConnectionFailed   Kind = "CONNECTION_FAILED"
	KindThreadUnreadable   Kind = "THREAD_UNREADABLE"
	KindUnexpected         Kind = "UNEXPECTED"
)

// Sentinels for errors.Is checks. Any *Error of the same kind matches.
var (
	ErrInvalidRequest     = &Error{Kind: KindInvalidRequest}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrDeliveryFailed     = &Error{Kind: KindDeliveryFailed}
	ErrUnknownSession     = &Error{Kind: KindUnknownSession}
	ErrPasswordRequired   = &Error{Kind: KindPasswordRequired}
	ErrBadPassword        = &Error{Kind: KindBadPassword}
	ErrNoSuitableAnchor   = &Error{Kind: KindNoSuitableAnchor}
	ErrAuthExpired        = &Error{Kind: KindAuthExpired}
	ErrConnectionFailed   = &Error{Kind: KindConnectionFailed}
	ErrThreadUnreadable   = &Error{Kind: KindThreadUnreadable}
)

// Error carries a Kind together with the operation that failed and the
// underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// New builds an *Error. err may be nil.
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindUnexpected when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// Message returns the text shown to callers. Password outcomes are reported
// by kind alone so clients can match on them.
func Message(err error) string {
	switch kind := KindOf(err); kind {
	case KindPasswordRequired, KindBadPassword:
		return string(kind)
	}
	var e *Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	return err.Error()
}

// HTTPStatus maps an error to the status code the front door responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidRequest, KindInvalidCredentials, KindNoSuitableAnchor, KindUnknownSession:
		return http.StatusBadRequest
	case KindPasswordRequired, KindBadPassword, KindAuthExpired:
		return http.StatusUnauthorized
	case KindDeliveryFailed, KindConnectionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
