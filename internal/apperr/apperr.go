// Package apperr defines the closed set of failure kinds surfaced by the storefront core.
// Callers branch on Kind, never on message text.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind uint8

const (
	Internal Kind = iota
	Unauthenticated
	InvalidCredential
	Forbidden
	InvalidInput
	ProductNotFound
	AlreadyInWishlist
	NotFound
	InvalidReorder
	StoreTimeout
	AggregationFailed
	Conflict
)

var kindNames = map[Kind]string{
	Internal:          "Internal",
	Unauthenticated:   "Unauthenticated",
	InvalidCredential: "InvalidCredential",
	Forbidden:         "Forbidden",
	InvalidInput:      "InvalidInput",
	ProductNotFound:   "ProductNotFound",
	AlreadyInWishlist: "AlreadyInWishlist",
	NotFound:          "NotFound",
	InvalidReorder:    "InvalidReorder",
	StoreTimeout:      "StoreTimeout",
	AggregationFailed: "AggregationFailed",
	Conflict:          "Conflict",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return Internal, false
}

// Error is a typed failure carrying a user-facing message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error of the given kind without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and message to err. A nil err yields nil.
func Wrap(kind Kind, message string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of the outermost *Error in err's chain.
// Errors that carry no kind are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the user-facing message for err. Untyped errors get a generic message so
// that driver details never reach the presentation layer.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// Retryable reports whether a caller may safely retry after a failure of this kind.
func Retryable(kind Kind) bool {
	return kind == StoreTimeout
}
