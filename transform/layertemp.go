package transform

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ratos/gcode-postprocessor/pipeline"
	"github.com/ratos/gcode-postprocessor/window"
)

var (
	layerChangeRE = regexp.MustCompile(`(?i)^_?ON_LAYER_CHANGE\s+LAYER=2\b`)
	m104RE        = regexp.MustCompile(`(?i)^M104\s+S([0-9.]+)`)
)

// fixOtherLayerTemperatureAction implements §4.7 item 4 (Orca/SuperSlicer
// only, gated by pipeline.Filtered): bookmark the layer-2 marker and every
// M104 line found within the scan window, deferring the actual redaction
// and corrected-temperature insertion to finalisation, since the
// replacement text (computed from used-tools and per-tool other-layer
// temps) isn't fully known until the whole file has streamed.
type fixOtherLayerTemperatureAction struct {
	deps Dependencies
}

func (a *fixOtherLayerTemperatureAction) Run(ctx *window.Context, st *pipeline.State) (pipeline.Outcome, error) {
	text := ctx.Text()
	if !layerChangeRE.MatchString(strings.TrimSpace(text)) {
		return pipeline.ContinueOutcome(), nil
	}

	key := a.deps.Registry.Reserve()
	if err := ctx.SetText(text + strings.Repeat(" ", a.deps.Tunables.HeaderPadding)); err != nil {
		return pipeline.Outcome{}, err
	}
	if err := ctx.SetBookmarkKey(key); err != nil {
		return pipeline.Outcome{}, err
	}
	st.LayerChangeHandle = &key

	for _, neighbour := range ctx.ScanForward(a.deps.Tunables.LayerChangeScanForward) {
		m := m104RE.FindStringSubmatch(strings.TrimSpace(neighbour.Text()))
		if m == nil {
			continue
		}
		if temp, err := strconv.ParseFloat(m[1], 64); err == nil {
			st.ExtruderTemps = append(st.ExtruderTemps, temp)
		}
		tempKey := a.deps.Registry.Reserve()
		if err := neighbour.SetText(neighbour.Text() + strings.Repeat(" ", len(RemovedByPrefix))); err != nil {
			return pipeline.Outcome{}, err
		}
		if err := neighbour.SetBookmarkKey(tempKey); err != nil {
			return pipeline.Outcome{}, err
		}
		st.AddExtruderTempHandle(tempKey)
	}

	return pipeline.RemoveAndContinueOutcome(), nil
}
