package transform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ratos/gcode-postprocessor/gcode"
	"github.com/ratos/gcode-postprocessor/perr"
	"github.com/ratos/gcode-postprocessor/pipeline"
	"github.com/ratos/gcode-postprocessor/warnings"
	"github.com/ratos/gcode-postprocessor/window"
)

// toolchangeRewriteAction implements §4.7.x: collapse a slicer's
// multi-line tool-change block into a single T<n> X<x> Y<y>[ Z<z>]
// instruction, redacting the retract/Z-hop commands around it.
type toolchangeRewriteAction struct {
	deps      Dependencies
	firstSeen bool
}

func (a *toolchangeRewriteAction) Run(ctx *window.Context, st *pipeline.State) (pipeline.Outcome, error) {
	if !st.CurrentOK || !st.Current.IsToolChange() {
		return pipeline.ContinueOutcome(), nil
	}

	toolIdx, err := strconv.Atoi(st.Current.Value)
	if err != nil {
		return pipeline.Outcome{}, perr.Internal("tool change command carries a non-numeric index")
	}
	st.ToolChangeCount++

	if !a.firstSeen {
		a.firstSeen = true
		if err := ctx.SetText(removedBy(ctx.Text())); err != nil {
			return pipeline.Outcome{}, err
		}
		return pipeline.StopOutcome(), nil
	}
	st.AddUsedTool(toolIdx)

	if st.HasPurgeTower == nil {
		found := scanBackForMarker(ctx, a.deps.Tunables.ToolchangeScanBack, "CP TOOLCHANGE START")
		st.HasPurgeTower = &found
	}
	hasPurgeTower := *st.HasPurgeTower

	if !hasPurgeTower {
		if err := redactBackward(ctx, st, a.deps.Tunables.ToolchangeWalkBack); err != nil {
			return pipeline.Outcome{}, err
		}
	}

	forward := ctx.ScanForward(a.deps.Tunables.ToolchangeWalkForward)
	firstX, firstY, zMoves := scanForwardForXYAndZ(forward)
	if len(zMoves) > 2 {
		st.Warnings.Warn(warnings.KindHeuristicSmell,
			fmt.Sprintf("%d Z moves found after toolchange, expected at most 2", len(zMoves)),
			ctx.LineNumber())
	}
	if firstX == "" {
		return pipeline.Outcome{}, perr.AtLine(
			perr.InvalidInput("no XY move found within the toolchange scan window"),
			ctx.LineNumber(), ctx.Text())
	}

	if !hasPurgeTower {
		if err := redactForward(forward, zMoves); err != nil {
			return pipeline.Outcome{}, err
		}
	}

	var zVal string
	if len(zMoves) > 0 {
		if cmd, ok := gcode.Parse(zMoves[len(zMoves)-1].Text()); ok {
			zVal = cmd.Z
		}
	}

	out := fmt.Sprintf("T%d X%s Y%s", toolIdx, firstX, firstY)
	if zVal != "" {
		out += " Z" + zVal
	}
	if err := ctx.SetText(out); err != nil {
		return pipeline.Outcome{}, err
	}

	return pipeline.StopOutcome(), nil
}

func scanBackForMarker(ctx *window.Context, n int, marker string) bool {
	for _, neighbour := range ctx.ScanBack(n) {
		if strings.Contains(neighbour.Text(), marker) {
			return true
		}
	}
	return false
}

// redactBackward walks up to n lines behind the toolchange, stopping at the
// first XY move, commenting out retract/Z-hop lines along the way unless
// they sit within two lines of a ;WIPE_END comment. It warns (a heuristic
// smell) if the walk exhausts its budget without ever finding an XY move.
func redactBackward(ctx *window.Context, st *pipeline.State, n int) error {
	back := ctx.ScanBack(n)

	exhausted := true
	for i, neighbour := range back {
		cmd, ok := gcode.Parse(neighbour.Text())
		if ok && cmd.IsLinearMove() && cmd.HasXY() {
			exhausted = false
			break
		}
		if !ok || !isRetractOrZHop(cmd) {
			continue
		}
		if nearWipeEnd(back, i) {
			continue
		}
		if err := neighbour.SetText(removedBy(neighbour.Text())); err != nil {
			return err
		}
	}
	if exhausted {
		st.Warnings.Warn(warnings.KindHeuristicSmell,
			"toolchange backward scan exhausted without finding an XY move", ctx.LineNumber())
	}
	return nil
}

func isRetractOrZHop(cmd gcode.Command) bool {
	return cmd.IsLinearMove() && !cmd.HasXY() && (cmd.E != "" || cmd.Z != "")
}

func nearWipeEnd(back []*window.Context, idx int) bool {
	lo, hi := idx-2, idx+2
	if lo < 0 {
		lo = 0
	}
	if hi >= len(back) {
		hi = len(back) - 1
	}
	for i := lo; i <= hi; i++ {
		if strings.Contains(strings.ToUpper(back[i].Text()), ";WIPE_END") {
			return true
		}
	}
	return false
}

// scanForwardForXYAndZ finds the first XY-bearing G1 (returned as its text
// X/Y parameters) and every Z move within the already-scanned neighbours.
func scanForwardForXYAndZ(forward []*window.Context) (firstX, firstY string, zMoves []*window.Context) {
	for _, neighbour := range forward {
		cmd, ok := gcode.Parse(neighbour.Text())
		if !ok || !cmd.IsLinearMove() {
			continue
		}
		if firstX == "" && cmd.HasXY() {
			firstX, firstY = cmd.X, cmd.Y
		}
		if cmd.Z != "" {
			zMoves = append(zMoves, neighbour)
		}
	}
	return firstX, firstY, zMoves
}

// redactForward comments out every E move in the scanned window and every
// Z move but the last (the slicer's true landing height) when no purge
// tower absorbs them.
func redactForward(forward []*window.Context, zMoves []*window.Context) error {
	for _, neighbour := range forward {
		cmd, ok := gcode.Parse(neighbour.Text())
		if !ok || !cmd.IsLinearMove() {
			continue
		}
		if cmd.E != "" {
			if err := neighbour.SetText(removedBy(neighbour.Text())); err != nil {
				return err
			}
		}
	}
	if len(zMoves) > 1 {
		for _, neighbour := range zMoves[:len(zMoves)-1] {
			if err := neighbour.SetText(removedBy(neighbour.Text())); err != nil {
				return err
			}
		}
	}
	return nil
}
