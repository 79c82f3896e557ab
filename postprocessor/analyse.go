package postprocessor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/ratos/gcode-postprocessor/bookmark"
	"github.com/ratos/gcode-postprocessor/metadata"
	"github.com/ratos/gcode-postprocessor/perr"
	"github.com/ratos/gcode-postprocessor/pipeline"
	"github.com/ratos/gcode-postprocessor/transform"
	"github.com/ratos/gcode-postprocessor/window"
)

// discardSink is the "discarding sink" §4.8 asks Analyse to stream into:
// every line is dropped as it leaves the window, since Analyse only cares
// about the accumulated pipeline.State, not the rewritten text.
type discardSink struct{}

func (discardSink) Emit(context.Context, bookmark.Item) error { return nil }

// Analyse runs a full stream pass (or, with opts.QuickInspectionOnly, a
// pass that stops at the first move) and finalises the accumulated state
// into an Analysis result.
func Analyse(ctx context.Context, path string, opts Options) (*metadata.Analysis, error) {
	opts, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, perr.Cancelled("analyse cancelled before it began")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("postprocessor: opening %s: %w", path, err)
	}
	defer f.Close()

	reg := bookmark.NewRegistry()
	deps := transform.Dependencies{Registry: reg, Versions: opts.Versions, Tunables: opts.Tunables}
	d := pipeline.NewDispatcher(transform.BuildSequence(deps))
	st := pipeline.NewState(opts.IDEX, opts.QuickInspectionOnly, opts.AllowUnsupportedSlicers, opts.Warnings)
	proc := window.New(opts.Tunables.LinesBehind, opts.Tunables.LinesAhead, discardSink{})

	cb := func(c *window.Context) error {
		st.ResetLine()
		return d.Run(c, st)
	}

	runErr := streamLines(ctx, f, proc, cb, opts.OnProgress)

	var complete perr.InspectionComplete
	if runErr != nil && !errors.As(runErr, &complete) {
		return nil, runErr
	}

	return buildAnalysis(st, opts.QuickInspectionOnly), nil
}

// progressInterval is how often (in fed lines) streamLines calls the
// caller's progress hook. Fine enough for a CLI to feel responsive on large
// files without flooding stdout with one record per line.
const progressInterval = 2000

// streamLines feeds every line of r through proc, calling cb, then flushes.
// onProgress may be nil.
func streamLines(ctx context.Context, r *os.File, proc *window.Processor, cb window.Callback, onProgress func(int)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lines := 0
	for scanner.Scan() {
		if err := proc.Feed(ctx, scanner.Text(), cb); err != nil {
			return err
		}
		lines++
		if onProgress != nil && lines%progressInterval == 0 {
			onProgress(lines)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("postprocessor: reading input: %w", err)
	}
	if err := proc.Flush(ctx, cb); err != nil {
		return err
	}
	if onProgress != nil {
		onProgress(lines)
	}
	return nil
}

func buildAnalysis(st *pipeline.State, quick bool) *metadata.Analysis {
	var a *metadata.Analysis
	if quick {
		a = metadata.NewQuick()
	} else {
		a = metadata.NewFull()
	}

	a.ExtruderTemps = st.ExtruderTemps
	a.FirstMoveX = st.FirstMoveX
	a.FirstMoveY = st.FirstMoveY
	a.HasPurgeTower = st.HasPurgeTower
	a.SlicerConfig = st.SlicerConfig

	if !quick {
		tcc := st.ToolChangeCount
		a.ToolChangeCount = &tcc
		a.UsedTools = st.UsedTools
		if !math.IsInf(st.MinX, 0) {
			minX, maxX := st.MinX, st.MaxX
			a.MinX, a.MaxX = &minX, &maxX
		}
	}
	return a
}
