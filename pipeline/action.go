package pipeline

import (
	"github.com/Masterminds/semver/v3"

	"github.com/ratos/gcode-postprocessor/metadata"
	"github.com/ratos/gcode-postprocessor/perr"
	"github.com/ratos/gcode-postprocessor/window"
)

// Action is a single step of the dispatch sequence.
type Action interface {
	Run(ctx *window.Context, st *State) (Outcome, error)
}

// ActionFunc adapts a plain function to the Action interface.
type ActionFunc func(ctx *window.Context, st *State) (Outcome, error)

func (f ActionFunc) Run(ctx *window.Context, st *State) (Outcome, error) { return f(ctx, st) }

// SubSequence is a (entry, inner-actions) pair: the dispatcher runs Entry
// first, and — unless Entry's outcome carries SkipSubSequence — runs Inner
// as a nested sequence before applying Entry's own outcome to the parent
// sequence.
type SubSequence struct {
	Entry Action
	Inner []Item
}

func (s *SubSequence) Run(ctx *window.Context, st *State) (Outcome, error) {
	return s.Entry.Run(ctx, st)
}

// Item is one slot of a Sequence: either a plain Action or a SubSequence.
type Item struct {
	Action Action
	Sub    *SubSequence
}

// Of wraps a plain action as a sequence item.
func Of(a Action) Item { return Item{Action: a} }

// SubOf wraps an (entry, inner) pair as a sequence item.
func SubOf(entry Action, inner ...Item) Item {
	return Item{Sub: &SubSequence{Entry: entry, Inner: inner}}
}

// Filtered wraps an action so it only runs for matching generator flavours
// and (optionally) a matching generator-version constraint. Before
// identification is known it must never be invoked — that is an internal
// inconsistency, not a recoverable condition. Once identification is known
// and the filter doesn't match, the dispatcher pays the filter-check cost
// exactly once: the wrapped action reports itself for removal immediately.
type Filtered struct {
	Flavours   metadata.Flavour
	VersionCST *semver.Constraints
	Inner      Action
}

func (f *Filtered) Run(ctx *window.Context, st *State) (Outcome, error) {
	if st.Identification == nil {
		return Outcome{}, perr.Internal("filtered action invoked before generator identification is known")
	}
	if !f.matches(st.Identification) {
		return RemoveAndContinueOutcome(), nil
	}
	return f.Inner.Run(ctx, st)
}

func (f *Filtered) matches(id *metadata.Identification) bool {
	if !id.Flavour.Is(f.Flavours) {
		return false
	}
	if f.VersionCST != nil {
		if id.GeneratorVersion == nil {
			return false
		}
		return f.VersionCST.Check(id.GeneratorVersion)
	}
	return true
}
