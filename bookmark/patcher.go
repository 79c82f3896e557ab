package bookmark

import (
	"fmt"
	"io"
	"strings"
)

// CannotFitError is returned when a replacement's encoded length would
// exceed the bookmark's reserved extent.
type CannotFitError struct {
	Key      Key
	Want     int
	Reserved int64
}

func (e *CannotFitError) Error() string {
	return fmt.Sprintf("bookmark: replacement for key %d needs %d bytes, only %d reserved",
		e.Key, e.Want, e.Reserved)
}

// Patcher performs the deterministic retro-patch writes at finalisation,
// once the forward streaming pass has ended and the output file descriptor
// has been handed over to random access.
type Patcher struct {
	out      io.WriterAt
	registry *Registry
}

// NewPatcher wraps an output handle capable of positional writes.
func NewPatcher(out io.WriterAt, registry *Registry) *Patcher {
	return &Patcher{out: out, registry: registry}
}

// Patch overwrites the bookmarked extent for key with replacement, padding
// with spaces up to the reserved length minus the trailing newline. It
// never changes the byte length of the extent.
func (p *Patcher) Patch(key Key, replacement string) error {
	bm, err := p.registry.Lookup(key)
	if err != nil {
		return err
	}

	available := bm.Length - 1 // reserve one byte for the newline
	if int64(len(replacement)) > available {
		return &CannotFitError{Key: key, Want: len(replacement) + 1, Reserved: bm.Length}
	}

	padding := available - int64(len(replacement))
	var b strings.Builder
	b.Grow(int(bm.Length))
	b.WriteString(replacement)
	b.WriteString(strings.Repeat(" ", int(padding)))
	b.WriteByte('\n')

	if _, err := p.out.WriteAt([]byte(b.String()), bm.Offset); err != nil {
		return fmt.Errorf("bookmark: patching key %d at offset %d: %w", key, bm.Offset, err)
	}
	return nil
}

// Bookmark exposes the recorded extent for key, for callers (e.g. the
// START_PRINT flags and other-layer temperature patches) that need to know
// the original text before deciding on a replacement.
func (p *Patcher) Bookmark(key Key) (Bookmark, error) {
	return p.registry.Lookup(key)
}
