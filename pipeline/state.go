package pipeline

import (
	"math"

	"github.com/ratos/gcode-postprocessor/bookmark"
	"github.com/ratos/gcode-postprocessor/gcode"
	"github.com/ratos/gcode-postprocessor/metadata"
	"github.com/ratos/gcode-postprocessor/warnings"
)

// State is the single per-stream object threaded through every action call
// (C6). It is not safe for concurrent use.
type State struct {
	// Immutable for the lifetime of one stream.
	IDEX                    bool
	QuickInspectionOnly     bool
	AllowUnsupportedSlicers bool

	Warnings warnings.Sink

	// Populated once, early in the stream, then read-only.
	Identification *metadata.Identification

	// Bookmarked-line handles. Nil until the owning action runs.
	FirstLineHandle     *bookmark.Key
	StartPrintHandle    *bookmark.Key
	LayerChangeHandle   *bookmark.Key
	ExtruderTempHandles []bookmark.Key

	// Accumulated analysis.
	ExtruderTemps          []float64
	PerToolOtherLayerTemp  []float64
	ToolChangeCount        int
	MinX, MaxX             float64
	UsedTools              []int
	FirstMoveX, FirstMoveY *float64
	HasPurgeTower          *bool
	SlicerConfig           map[string]string

	// Per-line scratch, reset before each line is dispatched.
	Current   gcode.Command
	CurrentOK bool
}

// NewState constructs a State with the invariants of §4.6: MinX begins at
// +Inf, MaxX at -Inf, and both remain there until the first G1 with an X
// parameter is seen.
func NewState(idex, quickOnly, allowUnsupported bool, warn warnings.Sink) *State {
	if warn == nil {
		warn = warnings.Discard
	}
	return &State{
		IDEX:                    idex,
		QuickInspectionOnly:     quickOnly,
		AllowUnsupportedSlicers: allowUnsupported,
		Warnings:                warn,
		MinX:                    math.Inf(1),
		MaxX:                    math.Inf(-1),
	}
}

// ResetLine clears the per-line scratch fields ahead of dispatching a new
// line through the action sequence.
func (s *State) ResetLine() {
	s.Current = gcode.Command{}
	s.CurrentOK = false
}

// AddUsedTool appends tool to UsedTools, preserving insertion order and
// rejecting duplicates, per §4.6.
func (s *State) AddUsedTool(tool int) {
	for _, t := range s.UsedTools {
		if t == tool {
			return
		}
	}
	s.UsedTools = append(s.UsedTools, tool)
}

// ObserveX folds an X coordinate into the running MinX/MaxX extent.
func (s *State) ObserveX(x float64) {
	if x < s.MinX {
		s.MinX = x
	}
	if x > s.MaxX {
		s.MaxX = x
	}
}

// AddExtruderTempHandle records one more bookmarked M104 line discovered
// during the other-layer-temperature fix (§4.7 item 4).
func (s *State) AddExtruderTempHandle(key bookmark.Key) {
	s.ExtruderTempHandles = append(s.ExtruderTempHandles, key)
}
