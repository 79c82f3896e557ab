// Package perr defines the typed error kinds of §7: everything that is not
// a warning aborts the stream and propagates to the file facade, which may
// translate it into a structured CLI record.
package perr

import (
	"fmt"

	"github.com/ratos/gcode-postprocessor/metadata"
)

// Kind classifies an error for the facade's recovery/translation logic.
type Kind string

const (
	KindInvalidInput     Kind = "invalid_input"
	KindAlreadyProcessed Kind = "already_processed"
	KindInternal         Kind = "internal"
	KindResource         Kind = "resource"
	KindCancelled        Kind = "cancelled"
)

// Error is the common shape for every non-warning condition in §7. Line and
// Text are optional — they are populated whenever the error can be pinned
// to a specific input line.
type Error struct {
	Kind Kind
	Msg  string
	Line int    // 0 if unknown
	Text string // original line text, if known

	Wrapped error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d: %q)", e.Kind, e.Msg, e.Line, e.Text)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// Is lets errors.Is(err, perr.InvalidInput("")) match any *Error of the same
// Kind: a target with an empty Msg and no Line acts as a bare-kind sentinel.
func (e *Error) Is(target error) bool {
	k, ok := target.(*Error)
	if !ok {
		return false
	}
	return k.Kind == e.Kind && k.Msg == "" && k.Line == 0
}

func newErr(kind Kind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

// Internal marks a dispatcher/invariant violation — a programmer error that
// must never be silently suppressed.
func Internal(msg string) *Error { return newErr(KindInternal, msg) }

// InvalidInput marks a malformed or unsupported G-code input.
func InvalidInput(msg string) *Error { return newErr(KindInvalidInput, msg) }

// AtLine attaches a line number and text to an existing error, returning a
// new *Error (the original is left untouched).
func AtLine(base *Error, line int, text string) *Error {
	cp := *base
	cp.Line = line
	cp.Text = text
	return &cp
}

// AlreadyProcessedError marks a header that already carries a "processed by"
// line. It is a distinct kind: the facade turns it into a printability
// verdict rather than aborting with a user-facing error.
type AlreadyProcessedError struct {
	Identification *metadata.Identification
}

func (e *AlreadyProcessedError) Error() string { return "already processed by RatOS.PostProcessor" }

// Resource marks an output/filesystem precondition failure: unwritable
// path, existing output without overwrite, or a retro-patch replacement
// that doesn't fit its reserved extent.
func Resource(msg string) *Error { return newErr(KindResource, msg) }

// Cancelled marks a user- or timeout-triggered abort.
func Cancelled(msg string) *Error { return newErr(KindCancelled, msg) }

// InspectionComplete is a control-signal error: it unwinds the stream once
// a quick inspection has gathered the minimal fields it needs. It is
// caught exclusively by the file facade, never treated as a real failure.
type InspectionComplete struct{}

func (InspectionComplete) Error() string { return "inspection complete" }
