package transform_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratos/gcode-postprocessor/perr"
)

func header() []string {
	return []string{
		"; generated by PrusaSlicer 2.8.1 on 2024-05-01 at 10:00:00",
		"START_PRINT INITIAL_TOOL=0",
	}
}

func TestToolchangeFirstTimeIsRedactedOnly(t *testing.T) {
	lines := append(header(), "T0", "G1 X10 Y10 E1")
	out, st, err := driveLines(t, lines, true, false, false)
	require.NoError(t, err)
	assert.Equal(t, 1, st.ToolChangeCount)
	found := false
	for _, l := range out {
		if strings.Contains(l, "Removed by") && strings.Contains(l, "T0") {
			found = true
		}
	}
	assert.True(t, found, "the first toolchange must be commented out, not rewritten")
}

func TestToolchangeRewrittenWithXY(t *testing.T) {
	lines := append(header(),
		"T0",
		"G1 X5 Y5 E1",
		"G1 E-2 F1800",
		"T1",
		"G1 X20 Y30 F6000",
		"G1 Z1.2",
	)
	out, st, err := driveLines(t, lines, true, false, false)
	require.NoError(t, err)
	assert.Equal(t, 2, st.ToolChangeCount)
	assert.Contains(t, st.UsedTools, 1)

	var toolshift string
	for _, l := range out {
		if strings.HasPrefix(l, "T1 X") {
			toolshift = l
		}
	}
	require.NotEmpty(t, toolshift, "T1 should have been rewritten to a toolshift line: %v", out)
	assert.Contains(t, toolshift, "X20")
	assert.Contains(t, toolshift, "Y30")
}

func TestToolchangeNoXYMoveFails(t *testing.T) {
	lines := append(header(),
		"T0",
		"G1 X5 Y5 E1",
		"T1",
		"G1 E1",
	)
	_, _, err := driveLines(t, lines, true, false, false)
	require.Error(t, err)
	var perrErr *perr.Error
	require.ErrorAs(t, err, &perrErr)
	assert.Equal(t, perr.KindInvalidInput, perrErr.Kind)
}

func TestArcCommandFails(t *testing.T) {
	lines := append(header(), "G2 X100 Y100 I10 J0 E1")
	_, _, err := driveLines(t, lines, false, false, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arcs")
}
