// Package errors provides the structured error taxonomy for tomosona.
//
// Every error surfaced by the core carries a stable Kind alongside the
// standard Go error chain, so callers (the CLI, the MCP server, tests)
// can branch on category without string matching.
package errors

import "fmt"

// Kind identifies one of the error categories from the design's error
// handling taxonomy. Kinds are not exhaustive Go types on purpose: the
// taxonomy is a classification, not a type hierarchy.
type Kind string

const (
	// InvalidPath covers empty paths, paths that don't exist when
	// existence is required, and paths outside the active root after
	// canonicalization.
	InvalidPath Kind = "InvalidPath"

	// InvalidName covers entry names rejected by validation: empty,
	// ".", "..", path separators, reserved characters, trailing
	// dot/space, length over 255, or a reserved device name.
	InvalidName Kind = "InvalidName"

	// AlreadyExists covers a destination occupied under a "fail"
	// conflict policy.
	AlreadyExists Kind = "AlreadyExists"

	// ReservedRoot covers an attempted workspace root that resolves to
	// the user's home directory or a recognized standard directory.
	ReservedRoot Kind = "ReservedRoot"

	// NoWorkspace covers index/search/graph operations attempted with
	// no active workspace root set.
	NoWorkspace Kind = "NoWorkspace"

	// IoError wraps filesystem failures from collaborators.
	IoError Kind = "IoError"

	// StoreError wraps index-store failures from collaborators.
	StoreError Kind = "StoreError"

	// EmbedderUnavailable marks a latched embedding-model
	// initialization failure. Pipelines degrade rather than fail.
	EmbedderUnavailable Kind = "EmbedderUnavailable"

	// OperationFailed is the catch-all for unexpected internal errors.
	OperationFailed Kind = "OperationFailed"
)

// Error is the structured error type returned by the core packages.
type Error struct {
	Kind    Kind
	Message string
	Path    string // optional: the path involved, if any
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, enabling
// errors.Is(err, errors.New(SomeKind, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == "" {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given kind around an existing cause.
// Returns nil if cause is nil, so call sites can write
// `return errors.Wrap(errors.IoError, err)` unconditionally.
func Wrap(kind Kind, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: cause.Error(), Cause: cause}
}

// WithPath attaches a path to the error for user-facing context. It never
// leaks more of the filesystem than the path itself.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var ae *Error
	if asError(err, &ae) {
		return ae.Kind, true
	}
	return "", false
}

// asError is a small local errors.As to avoid importing the standard
// library package under the same name inside this package.
func asError(err error, target **Error) bool {
	for err != nil {
		if ae, ok := err.(*Error); ok {
			*target = ae
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
