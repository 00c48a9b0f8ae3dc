package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can decide how to react without
// inspecting message text.
type Kind int

const (
	// Validation is a local input failure that never reached the network.
	Validation Kind = iota
	// Auth means the credential was rejected or has expired.
	Auth
	// Conflict means a mutating call was issued while another one was
	// already in flight for the same entity.
	Conflict
	// Transport is a network or timeout failure. The operation may be
	// retried at the user's request; underlying state is preserved.
	Transport
	// Definition means the input data itself is malformed (e.g. a quiz
	// with no questions) and no attempt can be started from it.
	Definition
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Auth:
		return "auth"
	case Conflict:
		return "conflict"
	case Transport:
		return "transport"
	case Definition:
		return "definition"
	default:
		return "unknown"
	}
}

// Error is the single error type crossing component boundaries.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error with the given kind and message.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf is New with formatting.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap annotates an underlying error with a kind and message.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf reports the kind of err, if it carries one.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func IsValidation(err error) bool { return is(err, Validation) }
func IsAuth(err error) bool       { return is(err, Auth) }
func IsConflict(err error) bool   { return is(err, Conflict) }
func IsTransport(err error) bool  { return is(err, Transport) }
func IsDefinition(err error) bool { return is(err, Definition) }
