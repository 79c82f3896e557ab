package pipeline_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ratos/gcode-postprocessor/pipeline"
)

func TestNewStateExtentInvariants(t *testing.T) {
	st := pipeline.NewState(false, false, false, nil)
	assert.True(t, math.IsInf(st.MinX, 1))
	assert.True(t, math.IsInf(st.MaxX, -1))
}

func TestObserveXUpdatesExtent(t *testing.T) {
	st := pipeline.NewState(false, false, false, nil)
	st.ObserveX(5)
	st.ObserveX(-2)
	st.ObserveX(3)
	assert.Equal(t, -2.0, st.MinX)
	assert.Equal(t, 5.0, st.MaxX)
}

func TestAddUsedToolPreservesOrderNoDuplicates(t *testing.T) {
	st := pipeline.NewState(false, false, false, nil)
	st.AddUsedTool(2)
	st.AddUsedTool(0)
	st.AddUsedTool(2)
	st.AddUsedTool(1)
	assert.Equal(t, []int{2, 0, 1}, st.UsedTools)
}

func TestResetLineClearsScratch(t *testing.T) {
	st := pipeline.NewState(false, false, false, nil)
	st.CurrentOK = true
	st.ResetLine()
	assert.False(t, st.CurrentOK)
}
