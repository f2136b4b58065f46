package errs

import "errors"

// Kind classifies a request-level failure so the HTTP boundary can pick a
// status code without inspecting messages.
type Kind int

const (
	KindMalformed Kind = iota // missing or invalid input
	KindAuth                  // credential or session invalid
	KindNotAllowed            // authenticated but forbidden
	KindNotFound              // referenced entity absent or expired
	KindConflict              // duplicate creation
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func Malformed(msg string) error  { return &Error{Kind: KindMalformed, Message: msg} }
func Auth(msg string) error       { return &Error{Kind: KindAuth, Message: msg} }
func NotAllowed(msg string) error { return &Error{Kind: KindNotAllowed, Message: msg} }
func NotFound(msg string) error   { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) error   { return &Error{Kind: KindConflict, Message: msg} }

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
