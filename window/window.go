// Package window implements the sliding-window line processor (C4): it
// presents each input line to a callback with bounded forward/backward
// context, emits lines in order to a sink, and pushes bookmarked lines as
// they leave the window.
package window

import (
	"context"

	"github.com/ratos/gcode-postprocessor/bookmark"
)

// DefaultLinesBehind and DefaultLinesAhead match the spec's defaults.
const (
	DefaultLinesBehind = 20
	DefaultLinesAhead  = 100
)

// Sink receives lines as they leave the window, in stream order.
type Sink interface {
	Emit(ctx context.Context, item bookmark.Item) error
}

// Callback is invoked once per input line, with bounded neighbour access
// via the Context it receives.
type Callback func(c *Context) error

type entry struct {
	text        string
	removed     bool
	bookmarkKey *bookmark.Key
}

// Processor is the sliding window itself. It is not safe for concurrent
// use; the pipeline is single-threaded by design.
type Processor struct {
	behind, ahead int
	size          int
	buf           []entry
	sink          Sink

	started bool // true once the buffer has reached size and the initial burst ran
	step    int  // incremented once per callback invocation; invalidates prior Contexts
	lineNo  int  // 1-based count of lines fed so far
}

// New constructs a Processor with the given backward/forward bounds.
func New(linesBehind, linesAhead int, sink Sink) *Processor {
	return &Processor{
		behind: linesBehind,
		ahead:  linesAhead,
		size:   linesBehind + linesAhead + 1,
		sink:   sink,
	}
}

// LineNumber reports the 1-based input line number of the most recently
// fed line — useful for error messages raised from within a callback.
func (p *Processor) LineNumber() int { return p.lineNo }

// Feed presents one more input line to the window, invoking cb as the
// design in §4.4 dictates: callbacks are withheld until the buffer fills to
// its full size, at which point a burst covers the first lines_behind+1
// positions; thereafter, exactly one callback fires per fed line, and the
// slot about to be evicted is pushed to the sink before the new line is
// appended.
func (p *Processor) Feed(ctx context.Context, line string, cb Callback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.lineNo++

	if !p.started {
		p.buf = append(p.buf, entry{text: line})
		if len(p.buf) < p.size {
			return nil
		}
		// Buffer just reached full size: burst through the first
		// lines_behind+1 positions so the caller sees the stream from its
		// start with full forward context.
		p.started = true
		for i := 0; i <= p.behind; i++ {
			if err := p.invoke(ctx, i, cb); err != nil {
				return err
			}
		}
		return nil
	}

	// Steady state: evict slot 0 to the sink before appending the new line.
	evicted := p.buf[0]
	if err := p.emit(ctx, evicted); err != nil {
		return err
	}
	p.buf = append(p.buf[1:], entry{text: line})
	return p.invoke(ctx, p.behind, cb)
}

// Flush must be called once after the final Feed. It invokes cb on every
// buffered position that has not yet been processed, then pushes all
// remaining buffered slots to the sink in order.
func (p *Processor) Flush(ctx context.Context, cb Callback) error {
	start := 0
	if p.started {
		start = p.behind + 1
	}
	for i := start; i < len(p.buf); i++ {
		if err := p.invoke(ctx, i, cb); err != nil {
			return err
		}
	}
	for _, e := range p.buf {
		if err := p.emit(ctx, e); err != nil {
			return err
		}
	}
	p.buf = nil
	return nil
}

func (p *Processor) emit(ctx context.Context, e entry) error {
	if e.removed {
		return nil
	}
	return p.sink.Emit(ctx, bookmark.Item{Text: e.text, Key: e.bookmarkKey})
}

func (p *Processor) invoke(ctx context.Context, idx int, cb Callback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.step++
	c := &Context{proc: p, idx: idx, step: p.step}
	return cb(c)
}

// staleContextError marks access to a Context after its callback
// invocation has returned — an internal-consistency programmer error per
// §7, never silently suppressed.
type staleContextError struct{}

func (staleContextError) Error() string {
	return "window: context accessed after its callback invocation returned"
}

// DuplicateBookmarkError is returned by Context.SetBookmarkKey when a
// bookmark key has already been assigned to the line that Context refers to.
type DuplicateBookmarkError struct{}

func (DuplicateBookmarkError) Error() string {
	return "window: bookmark key already set for this line"
}

