package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratos/gcode-postprocessor/perr"
)

func TestFirstMoveCaptureLatchesOnlyOnce(t *testing.T) {
	lines := append(header(), "G1 X10 Y20 E1", "G1 X30 Y40 E1")
	_, st, err := driveLines(t, lines, false, false, false)
	require.NoError(t, err)
	require.NotNil(t, st.FirstMoveX)
	require.NotNil(t, st.FirstMoveY)
	assert.Equal(t, 10.0, *st.FirstMoveX)
	assert.Equal(t, 20.0, *st.FirstMoveY)
}

func TestFirstMoveCaptureStopsInspectionInQuickMode(t *testing.T) {
	lines := append(header(), "G1 X10 Y20 E1", "G1 X99 Y99 E1")
	_, st, err := driveLines(t, lines, false, true, false)
	require.Error(t, err)
	var complete perr.InspectionComplete
	require.ErrorAs(t, err, &complete)
	assert.Equal(t, 10.0, *st.FirstMoveX)
}

func TestExtentTrackingUpdatesMinMaxX(t *testing.T) {
	lines := append(header(), "G1 X10 Y0 E1", "G1 X-5 Y0 E1", "G1 X40 Y0 E1")
	_, st, err := driveLines(t, lines, false, false, false)
	require.NoError(t, err)
	assert.Equal(t, -5.0, st.MinX)
	assert.Equal(t, 40.0, st.MaxX)
}

func TestExtentTrackingIgnoresMovesWithoutX(t *testing.T) {
	lines := append(header(), "G1 E1 F1800")
	_, st, err := driveLines(t, lines, false, false, false)
	require.NoError(t, err)
	assert.True(t, st.MinX > st.MaxX, "extent must remain at its +Inf/-Inf initial values")
}

func TestUnrecognizedLineSkipsCommonSubSequence(t *testing.T) {
	lines := append(header(), "; a plain comment that is not a command")
	_, st, err := driveLines(t, lines, false, false, false)
	require.NoError(t, err)
	assert.Nil(t, st.FirstMoveX)
}
