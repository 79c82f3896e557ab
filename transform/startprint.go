package transform

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ratos/gcode-postprocessor/gcode"
	"github.com/ratos/gcode-postprocessor/perr"
	"github.com/ratos/gcode-postprocessor/pipeline"
	"github.com/ratos/gcode-postprocessor/window"
)

var (
	startPrintRE     = regexp.MustCompile(`(?i)^\s*(?:RMMU_)?START_PRINT\b`)
	initialToolRE    = regexp.MustCompile(`(?i)\bINITIAL_TOOL=(\d+)`)
	otherLayerTempRE = regexp.MustCompile(`(?i)\bEXTRUDER_OTHER_LAYER_TEMP=([0-9.,]+)`)
)

// findStartPrintAction implements §4.7 item 2: locate START_PRINT (or
// RMMU_START_PRINT), capturing its optional parameters, and reject any
// movement or toolchange command seen before it's found.
type findStartPrintAction struct {
	deps Dependencies
}

func (a *findStartPrintAction) Run(ctx *window.Context, st *pipeline.State) (pipeline.Outcome, error) {
	text := ctx.Text()
	trimmed := strings.TrimSpace(text)

	if trimmed == "" || trimmed[0] == ';' {
		return pipeline.ContinueOutcome(), nil
	}

	if startPrintRE.MatchString(trimmed) {
		if m := initialToolRE.FindStringSubmatch(trimmed); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				st.AddUsedTool(n)
			}
		}
		if m := otherLayerTempRE.FindStringSubmatch(trimmed); m != nil {
			for _, part := range strings.Split(m[1], ",") {
				v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
				if err == nil {
					st.PerToolOtherLayerTemp = append(st.PerToolOtherLayerTemp, v)
				}
			}
		}

		key := a.deps.Registry.Reserve()
		if err := ctx.SetText(text + strings.Repeat(" ", a.deps.Tunables.StartPrintPadding)); err != nil {
			return pipeline.Outcome{}, err
		}
		if err := ctx.SetBookmarkKey(key); err != nil {
			return pipeline.Outcome{}, err
		}
		st.StartPrintHandle = &key

		return pipeline.RemoveAndStopOutcome(), nil
	}

	if cmd, ok := gcode.Parse(trimmed); ok && (cmd.IsMove() || cmd.IsToolChange()) {
		return pipeline.Outcome{}, perr.AtLine(
			perr.InvalidInput("movement or tool-change command seen before START_PRINT"),
			ctx.LineNumber(), text)
	}

	return pipeline.ContinueOutcome(), nil
}
