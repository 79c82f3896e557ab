package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePathsRequiresInput(t *testing.T) {
	_, _, err := resolvePaths(nil, false)
	require.Error(t, err)
}

func TestResolvePathsSingleArgRequiresOverwriteInputFlag(t *testing.T) {
	_, _, err := resolvePaths([]string{"in.gcode"}, false)
	require.Error(t, err)

	in, out, err := resolvePaths([]string{"in.gcode"}, true)
	require.NoError(t, err)
	assert.Equal(t, "in.gcode", in)
	assert.Equal(t, "in.gcode", out)
}

func TestResolvePathsTwoArgs(t *testing.T) {
	in, out, err := resolvePaths([]string{"in.gcode", "out.gcode"}, false)
	require.NoError(t, err)
	assert.Equal(t, "in.gcode", in)
	assert.Equal(t, "out.gcode", out)
}

func TestResolvePathsRejectsExtraArgs(t *testing.T) {
	_, _, err := resolvePaths([]string{"in.gcode", "out.gcode", "extra"}, false)
	require.Error(t, err)
}

func TestCurrentVersionFallsBackWithoutScriptDir(t *testing.T) {
	old := os.Getenv("RATOS_SCRIPT_DIR")
	require.NoError(t, os.Unsetenv("RATOS_SCRIPT_DIR"))
	defer os.Setenv("RATOS_SCRIPT_DIR", old)

	v := currentVersion()
	assert.Equal(t, fallbackVersion, v.String())
}

func TestRecorderEmitsJSONWhenNonInteractive(t *testing.T) {
	r := newRecorder(true)
	assert.True(t, r.json)
}
