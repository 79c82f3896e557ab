// Package transform holds the concrete action library (C7): generator
// identification, START_PRINT location, the common-commands sub-sequence
// (first-move capture, extent tracking, toolchange rewriting), the Orca/Super
// layer-2 temperature fix, and slicer-config capture.
package transform

import (
	"github.com/ratos/gcode-postprocessor/bookmark"
	"github.com/ratos/gcode-postprocessor/config"
	"github.com/ratos/gcode-postprocessor/metadata"
	"github.com/ratos/gcode-postprocessor/pipeline"
)

// RemovedByPrefix is prepended to any line the action layer redacts in
// place (a retract, a Z-hop, a superseded M104, a redundant first
// toolchange). Applied at most once per line: a line already carrying the
// prefix is left untouched (see DESIGN.md's Open Question decision on the
// legacy double-prefix behaviour).
const RemovedByPrefix = "; Removed by RatOS post processor: "

// Dependencies are the facade-owned collaborators every action needs: a
// bookmark registry to reserve keys against, and the configuration data
// that parameterises version checks and scan bounds.
type Dependencies struct {
	Registry *bookmark.Registry
	Versions *config.SupportedVersions
	Tunables config.Tunables
}

// BuildSequence assembles the C7 action library in the dispatch order
// spec.md §4.7 mandates.
func BuildSequence(deps Dependencies) *pipeline.Sequence {
	return pipeline.NewSequence(
		pipeline.Of(&identifyGeneratorAction{deps: deps}),
		pipeline.Of(&findStartPrintAction{deps: deps}),
		pipeline.SubOf(&commonCommandsEntry{},
			pipeline.Of(&firstMoveCaptureAction{}),
			pipeline.Of(&extentTrackingAction{}),
			pipeline.Of(&toolchangeRewriteAction{deps: deps}),
		),
		pipeline.Of(&pipeline.Filtered{
			Flavours: metadata.FlavourOrcaSlicer | metadata.FlavourSuperSlicer,
			Inner:    &fixOtherLayerTemperatureAction{deps: deps},
		}),
		pipeline.Of(&captureSlicerConfigStartAction{}),
	)
}

func removedBy(text string) string {
	return CommentOut(text)
}

// CommentOut prepends RemovedByPrefix to text, unless it is already there —
// applied once per line regardless of caller (the action layer during the
// forward pass, or the facade during finalisation).
func CommentOut(text string) string {
	if hasRemovedByPrefix(text) {
		return text
	}
	return RemovedByPrefix + text
}

func hasRemovedByPrefix(text string) bool {
	return len(text) >= len(RemovedByPrefix) && text[:len(RemovedByPrefix)] == RemovedByPrefix
}
