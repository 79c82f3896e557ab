// Package warnings carries the two non-fatal kinds of §7: heuristic smells
// (a scan terminated without its expected sentinel) and metadata problems
// (an analysis trailer that failed its length/base64 checks). Neither
// aborts the stream.
package warnings

import "fmt"

// Kind distinguishes the two warning categories.
type Kind string

const (
	KindHeuristicSmell Kind = "heuristic_smell"
	KindMetadata       Kind = "metadata"
)

// Warning is one recorded non-fatal condition.
type Warning struct {
	Kind Kind
	Msg  string
	Line int // 0 if not tied to a specific line
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d)", w.Kind, w.Msg, w.Line)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Msg)
}

// Sink receives warnings as they're raised. Inspect collects trailer
// warnings in a Buffer (below); the CLI uses one that streams JSON records
// immediately.
type Sink interface {
	Warn(kind Kind, msg string, line int)
}

// Buffer is a Sink that simply accumulates warnings in order, for callers
// that want them as part of a returned result rather than streamed live.
type Buffer struct {
	items []Warning
}

func (b *Buffer) Warn(kind Kind, msg string, line int) {
	b.items = append(b.items, Warning{Kind: kind, Msg: msg, Line: line})
}

// Items returns the warnings recorded so far, in order.
func (b *Buffer) Items() []Warning { return b.items }

// Func adapts a plain function to the Sink interface.
type Func func(kind Kind, msg string, line int)

func (f Func) Warn(kind Kind, msg string, line int) { f(kind, msg, line) }

// Discard is a Sink that drops every warning.
var Discard Sink = Func(func(Kind, string, int) {})
