package transform

import (
	"strconv"

	"github.com/ratos/gcode-postprocessor/gcode"
	"github.com/ratos/gcode-postprocessor/perr"
	"github.com/ratos/gcode-postprocessor/pipeline"
	"github.com/ratos/gcode-postprocessor/window"
)

// commonCommandsEntry is the sub-sequence entry of §4.7 item 3: it parses
// the line once, stores the result on state for the inner actions to
// share, and gates the inner sequence entirely for lines that don't parse.
type commonCommandsEntry struct{}

func (commonCommandsEntry) Run(ctx *window.Context, st *pipeline.State) (pipeline.Outcome, error) {
	cmd, ok := gcode.Parse(ctx.Text())
	st.Current = cmd
	st.CurrentOK = ok
	if ok {
		return pipeline.StopOutcome(), nil
	}
	return pipeline.ContinueOutcome().SkippingSubSequence(), nil
}

// firstMoveCaptureAction implements the first bullet of §4.7 item 3: latch
// the first G1 XY move, and in quick-inspection-only mode treat that as the
// end of the inspection.
type firstMoveCaptureAction struct{}

func (firstMoveCaptureAction) Run(ctx *window.Context, st *pipeline.State) (pipeline.Outcome, error) {
	if !st.CurrentOK || !st.Current.IsLinearMove() || !st.Current.HasXY() || st.FirstMoveX != nil {
		return pipeline.ContinueOutcome(), nil
	}

	x, errX := strconv.ParseFloat(st.Current.X, 64)
	y, errY := strconv.ParseFloat(st.Current.Y, 64)
	if errX != nil || errY != nil {
		return pipeline.ContinueOutcome(), nil
	}
	st.FirstMoveX, st.FirstMoveY = &x, &y

	if st.QuickInspectionOnly {
		return pipeline.Outcome{}, perr.InspectionComplete{}
	}
	return pipeline.ContinueOutcome(), nil
}

// extentTrackingAction implements the second bullet of §4.7 item 3: update
// the running X extent on G1, reject arcs outright.
type extentTrackingAction struct{}

func (extentTrackingAction) Run(ctx *window.Context, st *pipeline.State) (pipeline.Outcome, error) {
	if !st.CurrentOK {
		return pipeline.ContinueOutcome(), nil
	}
	if st.Current.IsArc() {
		return pipeline.Outcome{}, perr.AtLine(
			perr.InvalidInput("arcs (G2/G3) are not supported"), ctx.LineNumber(), ctx.Text())
	}
	if st.Current.IsLinearMove() && st.Current.HasX() {
		if x, err := strconv.ParseFloat(st.Current.X, 64); err == nil {
			st.ObserveX(x)
		}
	}
	return pipeline.ContinueOutcome(), nil
}
