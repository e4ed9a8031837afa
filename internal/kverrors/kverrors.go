// Package kverrors defines the error taxonomy shared by every layer of the
// storage engine: pager, page codecs, the B+tree core, and the file lock.
package kverrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure so callers can branch on it without parsing
// error strings. See spec §7.
type Kind int

const (
	// InvalidFormat: magic mismatch, bad checksum, inconsistent
	// header-declared parameters.
	InvalidFormat Kind = iota
	// InvalidArgument: building a page with an impossible configuration.
	InvalidArgument
	// InvalidTransition: a derivation attempt that would change an
	// immutable field of an existing entity.
	InvalidTransition
	// Overflow: adding beyond a node/page capacity.
	Overflow
	// OutOfRange: index-based access outside container bounds.
	OutOfRange
	// Length: data too large for the surrounding container.
	Length
	// Io: file read/write/sync/lock failure surfaced from the OS.
	Io
	// NotFound: no record/entry for a key.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case InvalidFormat:
		return "InvalidFormat"
	case InvalidArgument:
		return "InvalidArgument"
	case InvalidTransition:
		return "InvalidTransition"
	case Overflow:
		return "Overflow"
	case OutOfRange:
		return "OutOfRange"
	case Length:
		return "Length"
	case Io:
		return "Io"
	case NotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// Error pairs a Kind with a wrapped, stack-carrying cause.
type Error struct {
	kind  Kind
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.kind, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// Kind reports the taxonomy member this error belongs to.
func (e *Error) Kind() Kind { return e.kind }

// New builds a Kind-tagged error from a message, attaching a stack trace.
func New(kind Kind, msg string) error {
	return &Error{kind: kind, cause: errors.New(msg)}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{kind: kind, cause: errors.Errorf(format, args...)}
}

// Wrap attaches kind and call-site context to an existing error. Returns
// nil if err is nil.
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, cause: errors.Wrap(err, msg)}
}

// Wrapf is Wrap with fmt.Sprintf-style formatting.
func Wrapf(err error, kind Kind, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, cause: errors.Wrapf(err, format, args...)}
}

// Is reports whether err is a *Error of the given Kind, unwrapping along
// the chain.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ke, ok := err.(*Error); ok {
			e = ke
			break
		}
		err = errors.Unwrap(err)
	}
	return e != nil && e.kind == kind
}
