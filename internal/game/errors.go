package game

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error for the transport boundary.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindUnauthenticated
	KindUpstream
	KindInvalid
)

// Error is a classified engine error. Every error the engine reports
// to a connection carries one of the Kind values above.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf reports a missing game, player, card or round.
func NotFoundf(format string, args ...interface{}) *Error {
	return newError(KindNotFound, format, args...)
}

// Conflictf reports a precondition failure such as a full game, an
// already-open card or an exhausted flip allowance.
func Conflictf(format string, args ...interface{}) *Error {
	return newError(KindConflict, format, args...)
}

// Upstreamf reports a persistence or content-provider failure.
func Upstreamf(format string, args ...interface{}) *Error {
	return newError(KindUpstream, format, args...)
}

// Invalidf reports a malformed request.
func Invalidf(format string, args ...interface{}) *Error {
	return newError(KindInvalid, format, args...)
}

// KindOf extracts the classification from err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
