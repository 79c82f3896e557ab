package pipeline

import (
	"github.com/ratos/gcode-postprocessor/window"
)

// Sequence is an ordered, mutable list of dispatch items (§4.5). Dispatcher
// owns the top-level sequence; SubSequence.Inner is dispatched the same way
// via runSequence.
type Sequence struct {
	items []Item
}

// NewSequence builds a Sequence from the given items, in dispatch order.
func NewSequence(items ...Item) *Sequence {
	return &Sequence{items: items}
}

// Dispatcher runs a Sequence against one line at a time.
type Dispatcher struct {
	seq *Sequence
}

// NewDispatcher constructs a Dispatcher over seq.
func NewDispatcher(seq *Sequence) *Dispatcher {
	return &Dispatcher{seq: seq}
}

// Run dispatches ctx's line through the sequence, per §4.5: the sequence is
// ordered, removal uses in-place deletion (index shifts down, not
// incremented), replacement retains index, and a sub-sequence's inner items
// run recursively unless the entry's outcome carries SkipSubSequence. An
// error from any action bubbles up immediately and terminates streaming for
// the file facade to decide recovery.
func (d *Dispatcher) Run(ctx *window.Context, st *State) error {
	return runSequence(&d.seq.items, ctx, st)
}

// runSequence walks items in order, mutating the slice in place for removal
// and replacement, recursing into sub-sequences. It stops early once an
// outcome at this level carries a stopping verdict.
func runSequence(items *[]Item, ctx *window.Context, st *State) error {
	i := 0
	for i < len(*items) {
		item := (*items)[i]

		var action Action
		var inner *[]Item
		if item.Sub != nil {
			action = item.Sub.Entry
			inner = &item.Sub.Inner
		} else {
			action = item.Action
		}

		outcome, err := action.Run(ctx, st)
		if err != nil {
			return err
		}

		if outcome.Replacement != nil {
			if item.Sub != nil {
				item.Sub.Entry = outcome.Replacement
			} else {
				item.Action = outcome.Replacement
			}
			(*items)[i] = item
		}

		if inner != nil && !outcome.SkipSubSequence {
			if err := runSequence(inner, ctx, st); err != nil {
				return err
			}
		}

		if outcome.Verdict.removes() {
			*items = append((*items)[:i], (*items)[i+1:]...)
			// index i now refers to the next item; do not advance.
		} else {
			i++
		}

		if outcome.Verdict.stops() {
			return nil
		}
	}
	return nil
}
