package transform

import (
	"regexp"
	"strings"

	"github.com/ratos/gcode-postprocessor/pipeline"
	"github.com/ratos/gcode-postprocessor/window"
)

var (
	configBeginRE = regexp.MustCompile(`(?i)^;\s*(?:prusaslicer_config\s*=\s*begin|CONFIG_BLOCK_START|SuperSlicer_config\s*=\s*begin)\s*$`)
	configEndRE   = regexp.MustCompile(`(?i)^;\s*(?:prusaslicer_config\s*=\s*end|CONFIG_BLOCK_END|SuperSlicer_config\s*=\s*end)\s*$`)
	configLineRE  = regexp.MustCompile(`^;\s*(\S+)\s*=\s*(.+)$`)
)

// captureSlicerConfigStartAction implements §4.7 item 5's first half: watch
// for a flavour-specific config-block marker and, on match, replace itself
// with the capturing action that consumes the block's body.
type captureSlicerConfigStartAction struct{}

func (captureSlicerConfigStartAction) Run(ctx *window.Context, st *pipeline.State) (pipeline.Outcome, error) {
	if !configBeginRE.MatchString(strings.TrimSpace(ctx.Text())) {
		return pipeline.ContinueOutcome(), nil
	}
	return pipeline.ContinueOutcome().ReplacedBy(&captureSlicerConfigBodyAction{}), nil
}

// captureSlicerConfigBodyAction is the self-replacement that consumes the
// config block body, one "key = value" pair per line, until the
// flavour-specific end marker.
type captureSlicerConfigBodyAction struct{}

func (captureSlicerConfigBodyAction) Run(ctx *window.Context, st *pipeline.State) (pipeline.Outcome, error) {
	text := strings.TrimSpace(ctx.Text())

	if configEndRE.MatchString(text) {
		return pipeline.RemoveAndContinueOutcome(), nil
	}
	if m := configLineRE.FindStringSubmatch(text); m != nil {
		if st.SlicerConfig == nil {
			st.SlicerConfig = make(map[string]string)
		}
		st.SlicerConfig[m[1]] = m[2]
	}
	return pipeline.ContinueOutcome(), nil
}
