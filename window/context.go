package window

import "github.com/ratos/gcode-postprocessor/bookmark"

// Context gives a callback bounded access to the current line and any of
// its still-buffered neighbours: both may be mutated, since neither has
// been handed to the sink yet. A Context obtained via
// GetLine/ScanForward/ScanBack is valid only for the duration of the
// callback invocation that produced it — storing one past that point and
// dereferencing it later is a detected internal-consistency error.
type Context struct {
	proc *Processor
	idx  int
	step int
}

func (c *Context) valid() bool { return c.proc != nil && c.step == c.proc.step }

func (c *Context) entry() *entry {
	if !c.valid() {
		panic(staleContextError{})
	}
	return &c.proc.buf[c.idx]
}

// Text returns the current text of the line this Context refers to.
func (c *Context) Text() string { return c.entry().text }

// LineNumber returns the 1-based input line number this Context refers to,
// useful for constructing actionable error messages.
func (c *Context) LineNumber() int {
	if !c.valid() {
		panic(staleContextError{})
	}
	// lineNo tracks the most recently fed line; the current line sits
	// however many positions behind the newest buffered slot.
	offsetFromNewest := (len(c.proc.buf) - 1) - c.idx
	return c.proc.lineNo - offsetFromNewest
}

// SetText replaces the line's text — the current line's or any buffered
// neighbour's, as long as it has not yet been pushed to the sink.
func (c *Context) SetText(text string) error {
	c.entry().text = text
	return nil
}

// Remove marks the line for removal: the encoder will skip emitting it
// entirely.
func (c *Context) Remove() error {
	c.entry().removed = true
	return nil
}

// SetBookmarkKey attaches a bookmark key to the line this Context refers
// to, write-once regardless of how many separate Context values have
// pointed at the same buffered slot.
func (c *Context) SetBookmarkKey(key bookmark.Key) error {
	e := c.entry()
	if e.bookmarkKey != nil {
		return DuplicateBookmarkError{}
	}
	e.bookmarkKey = &key
	return nil
}

// GetLine returns a Context over the neighbour at the given offset from
// the current line (negative for behind, positive for ahead). ok is false
// if the neighbour lies outside the buffered window.
func (c *Context) GetLine(offset int) (*Context, bool) {
	if !c.valid() {
		panic(staleContextError{})
	}
	idx := c.idx + offset
	if idx < 0 || idx >= len(c.proc.buf) {
		return nil, false
	}
	return &Context{proc: c.proc, idx: idx, step: c.step}, true
}

// ScanForward returns Contexts for up to n lines ahead of the current
// line, stopping early at the edge of the buffered window.
func (c *Context) ScanForward(n int) []*Context {
	return c.scan(1, n)
}

// ScanBack returns Contexts for up to n lines behind the current line,
// stopping early at the edge of the buffered window.
func (c *Context) ScanBack(n int) []*Context {
	return c.scan(-1, n)
}

func (c *Context) scan(dir, n int) []*Context {
	out := make([]*Context, 0, n)
	for i := 1; i <= n; i++ {
		neighbour, ok := c.GetLine(dir * i)
		if !ok {
			break
		}
		out = append(out, neighbour)
	}
	return out
}
