package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceConfigCapturesPrusaSlicerBlock(t *testing.T) {
	lines := append(header(),
		"; prusaslicer_config = begin",
		"; layer_height = 0.2",
		"; nozzle_diameter = 0.4,0.4",
		"; prusaslicer_config = end",
	)
	_, st, err := driveLines(t, lines, false, false, false)
	require.NoError(t, err)
	require.NotNil(t, st.SlicerConfig)
	assert.Equal(t, "0.2", st.SlicerConfig["layer_height"])
	assert.Equal(t, "0.4,0.4", st.SlicerConfig["nozzle_diameter"])
}

func TestSliceConfigCapturesSuperSlicerBlock(t *testing.T) {
	lines := append(header(),
		"; SuperSlicer_config = begin",
		"; fill_density = 15%",
		"; SuperSlicer_config = end",
	)
	_, st, err := driveLines(t, lines, false, false, false)
	require.NoError(t, err)
	require.Equal(t, "15%", st.SlicerConfig["fill_density"])
}

func TestSliceConfigCapturesOrcaConfigBlock(t *testing.T) {
	lines := append(orcaHeader(),
		"; CONFIG_BLOCK_START",
		"; wall_loops = 3",
		"; CONFIG_BLOCK_END",
	)
	_, st, err := driveLines(t, lines, false, false, false)
	require.NoError(t, err)
	require.Equal(t, "3", st.SlicerConfig["wall_loops"])
}

func TestSliceConfigIgnoresLinesOutsideBlock(t *testing.T) {
	lines := append(header(), "; random_key = should_not_be_captured")
	_, st, err := driveLines(t, lines, false, false, false)
	require.NoError(t, err)
	assert.Nil(t, st.SlicerConfig)
}
