package postprocessor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ratos/gcode-postprocessor/bookmark"
	"github.com/ratos/gcode-postprocessor/metadata"
	"github.com/ratos/gcode-postprocessor/perr"
	"github.com/ratos/gcode-postprocessor/pipeline"
	"github.com/ratos/gcode-postprocessor/transform"
	"github.com/ratos/gcode-postprocessor/warnings"
	"github.com/ratos/gcode-postprocessor/window"
)

// TransformResult is returned once a rewritten file has been streamed,
// retro-patched, and had its analysis trailer appended.
type TransformResult struct {
	Analysis     *metadata.Analysis
	BytesWritten int64
	Warnings     []warnings.Warning
}

// encoderSink adapts a *bookmark.Encoder to window.Sink.
type encoderSink struct{ enc *bookmark.Encoder }

func (s encoderSink) Emit(ctx context.Context, item bookmark.Item) error {
	return s.enc.Write(ctx, item)
}

// Transform streams inputPath through the full action sequence into
// outputPath, then applies the finalisation retro-patches of §4.8.
func Transform(ctx context.Context, inputPath, outputPath string, opts Options) (*TransformResult, error) {
	opts, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, perr.Cancelled("transform cancelled before it began")
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("postprocessor: opening %s: %w", inputPath, err)
	}
	defer in.Close()

	flags := os.O_WRONLY | os.O_CREATE
	if opts.Overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	out, err := os.OpenFile(outputPath, flags, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, perr.Resource(fmt.Sprintf("output %s already exists (use overwrite)", outputPath))
		}
		return nil, perr.Resource(fmt.Sprintf("opening output %s: %v", outputPath, err))
	}
	defer out.Close()

	reg := bookmark.NewRegistry()
	deps := transform.Dependencies{Registry: reg, Versions: opts.Versions, Tunables: opts.Tunables}
	d := pipeline.NewDispatcher(transform.BuildSequence(deps))
	st := pipeline.NewState(opts.IDEX, false, opts.AllowUnsupportedSlicers, opts.Warnings)

	bw := bufio.NewWriter(out)
	enc := bookmark.NewEncoder(bw, reg)
	proc := window.New(opts.Tunables.LinesBehind, opts.Tunables.LinesAhead, encoderSink{enc: enc})

	cb := func(c *window.Context) error {
		st.ResetLine()
		return d.Run(c, st)
	}

	if err := streamLines(ctx, in, proc, cb, opts.OnProgress); err != nil {
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("postprocessor: flushing output: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, perr.Cancelled("transform aborted before finalisation")
	}

	analysis := buildAnalysis(st, false)
	if err := finalise(ctx, out, reg, st, opts, enc.Offset(), analysis); err != nil {
		return nil, err
	}

	info, err := out.Stat()
	if err != nil {
		return nil, fmt.Errorf("postprocessor: statting output: %w", err)
	}

	var warnItems []warnings.Warning
	if buf, ok := opts.Warnings.(*warnings.Buffer); ok {
		warnItems = buf.Items()
	}

	return &TransformResult{Analysis: analysis, BytesWritten: info.Size(), Warnings: warnItems}, nil
}

// nowFunc is the single clock read used when building the "processed by"
// line.
var nowFunc = time.Now
