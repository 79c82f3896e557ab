// Package pipeline implements the action dispatcher (C5) and the per-stream
// processing state (C6) that every transform action reads and mutates.
package pipeline

// Verdict is what an action decided to do with the rest of the sequence.
type Verdict int

const (
	// Continue proceeds to the next action in the sequence.
	Continue Verdict = iota
	// Stop aborts the rest of the sequence for this line.
	Stop
	// RemoveAndContinue drops this action from the sequence, then continues.
	RemoveAndContinue
	// RemoveAndStop drops this action from the sequence, then stops.
	RemoveAndStop
)

func (v Verdict) removes() bool {
	return v == RemoveAndContinue || v == RemoveAndStop
}

func (v Verdict) stops() bool {
	return v == Stop || v == RemoveAndStop
}

// Outcome is what an action's Run returns: a verdict, optionally composed
// with a sub-sequence skip flag and/or a self-replacement.
type Outcome struct {
	Verdict         Verdict
	SkipSubSequence bool
	Replacement     Action
}

func ContinueOutcome() Outcome          { return Outcome{Verdict: Continue} }
func StopOutcome() Outcome              { return Outcome{Verdict: Stop} }
func RemoveAndContinueOutcome() Outcome { return Outcome{Verdict: RemoveAndContinue} }
func RemoveAndStopOutcome() Outcome     { return Outcome{Verdict: RemoveAndStop} }

// SkippingSubSequence composes the SkipSubSequence flag onto o.
func (o Outcome) SkippingSubSequence() Outcome {
	o.SkipSubSequence = true
	return o
}

// ReplacedBy composes a self-replacement onto o: the dispatcher substitutes
// repl for the action that produced o before applying o's verdict.
func (o Outcome) ReplacedBy(repl Action) Outcome {
	o.Replacement = repl
	return o
}
