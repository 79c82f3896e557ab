package bookmark

import (
	"context"
	"fmt"
	"io"
)

// Item is one line handed from the sliding window to the encoder: either
// plain text, or text that must be recorded against a bookmark key because
// the action layer padded it for a later in-place rewrite.
type Item struct {
	Text string
	Key  *Key // nil if this line carries no bookmark
}

// Encoder consumes Items in stream order, writes `<line>\n` to the
// underlying sink, and records (offset, length) for bookmarked lines. It
// owns the running byte offset — bookmark offsets are the offsets at which
// a line is actually written, not a logical line count.
type Encoder struct {
	sink     io.Writer
	registry *Registry
	offset   int64
}

// NewEncoder wraps sink, recording bookmarks into registry as lines are
// written.
func NewEncoder(sink io.Writer, registry *Registry) *Encoder {
	return &Encoder{sink: sink, registry: registry}
}

// Offset reports the current running byte offset (the offset the next
// Write call will land at).
func (e *Encoder) Offset() int64 { return e.offset }

// Write encodes item.Text plus a trailing newline, records a bookmark if
// requested, and pushes the bytes to the sink. ctx is polled before the
// write so cancellation takes effect at this stage's chunk boundary, per
// §5.
func (e *Encoder) Write(ctx context.Context, item Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	encoded := append([]byte(item.Text), '\n')

	if item.Key != nil {
		if err := e.registry.Record(*item.Key, item.Text, e.offset, int64(len(encoded))); err != nil {
			return err
		}
	}

	n, err := e.sink.Write(encoded)
	if err != nil {
		return fmt.Errorf("bookmark encoder: write: %w", err)
	}
	e.offset += int64(n)
	return nil
}
