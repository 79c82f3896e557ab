package transform

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/ratos/gcode-postprocessor/metadata"
	"github.com/ratos/gcode-postprocessor/perr"
	"github.com/ratos/gcode-postprocessor/pipeline"
	"github.com/ratos/gcode-postprocessor/warnings"
	"github.com/ratos/gcode-postprocessor/window"
)

// identifyGeneratorAction implements §4.7 item 1. It accumulates up to the
// first three lines of the file as one blob, since the identification line
// is occasionally preceded by a blank or unrelated comment line, and gives
// up once three lines have been seen without a match.
type identifyGeneratorAction struct {
	deps Dependencies
	seen []string
}

func (a *identifyGeneratorAction) Run(ctx *window.Context, st *pipeline.State) (pipeline.Outcome, error) {
	a.seen = append(a.seen, ctx.Text())
	blob := strings.Join(a.seen, "\n")

	id, err := metadata.ParseHeader(blob)
	if err != nil {
		if len(a.seen) >= 3 {
			return pipeline.Outcome{}, perr.AtLine(
				perr.InvalidInput("no generator identification found in the first three lines"),
				ctx.LineNumber(), ctx.Text())
		}
		// Identification is still pending: stop the rest of this line's
		// sequence rather than let a flavour-filtered action downstream
		// see a nil Identification and report an internal inconsistency.
		return pipeline.StopOutcome(), nil
	}

	if id.Processed() {
		return pipeline.Outcome{}, &perr.AlreadyProcessedError{Identification: &id}
	}

	if a.deps.Versions != nil && !a.deps.Versions.Supports(id.Flavour, id.GeneratorVersion) {
		if !st.AllowUnsupportedSlicers {
			return pipeline.Outcome{}, perr.AtLine(
				perr.InvalidInput(fmt.Sprintf("slicer %s version %s is not in the supported list",
					id.Flavour, versionOrUnknown(id.GeneratorVersion))),
				ctx.LineNumber(), ctx.Text())
		}
		st.Warnings.Warn(warnings.KindMetadata, fmt.Sprintf(
			"unsupported %s version %s allowed by explicit override",
			id.Flavour, versionOrUnknown(id.GeneratorVersion)), ctx.LineNumber())
	}

	st.Identification = &id

	key := a.deps.Registry.Reserve()
	if err := ctx.SetText(ctx.Text() + strings.Repeat(" ", a.deps.Tunables.HeaderPadding)); err != nil {
		return pipeline.Outcome{}, err
	}
	if err := ctx.SetBookmarkKey(key); err != nil {
		return pipeline.Outcome{}, err
	}
	st.FirstLineHandle = &key

	return pipeline.RemoveAndStopOutcome(), nil
}

func versionOrUnknown(v *semver.Version) string {
	if v == nil {
		return "unknown"
	}
	return v.String()
}
