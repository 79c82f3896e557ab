package postprocessor_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratos/gcode-postprocessor/perr"
	"github.com/ratos/gcode-postprocessor/postprocessor"
)

func writeTemp(t *testing.T, lines []string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "input.gcode")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

// S1
func TestInspectUnprocessedPrusaSlicerFile(t *testing.T) {
	path := writeTemp(t, []string{
		"; generated by PrusaSlicer 2.8.1 on 2024-05-01 at 10:00:00",
		"START_PRINT INITIAL_TOOL=0",
	})

	res, err := postprocessor.Inspect(path, postprocessor.Options{IDEX: true})
	require.NoError(t, err)
	assert.Equal(t, postprocessor.PrintabilityMustProcess, res.Printability)

	res, err = postprocessor.Inspect(path, postprocessor.Options{IDEX: false})
	require.NoError(t, err)
	assert.Equal(t, postprocessor.PrintabilityReady, res.Printability)
}

// S2
func TestTransformFixesOrcaOtherLayerTemperature(t *testing.T) {
	lines := []string{
		"; generated with OrcaSlicer 2.1.1 in RatOS dialect 0.1 on 2024-05-01 at 10:00:00",
		"START_PRINT INITIAL_TOOL=0 EXTRUDER_OTHER_LAYER_TEMP=210,220",
		"T0",
		"G1 X1 Y1 E1",
		"T1",
		"G1 X20 Y30 F6000",
		"ON_LAYER_CHANGE LAYER=2",
		"M104 S210",
		"G1 X5 Y5 E1",
	}
	in := writeTemp(t, lines)
	out := filepath.Join(filepath.Dir(in), "output.gcode")

	res, err := postprocessor.Transform(context.Background(), in, out, postprocessor.Options{IDEX: false})
	require.NoError(t, err)
	require.NotNil(t, res)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "; Removed by RatOS post processor: M104 S210")
	assert.Contains(t, content, "M104 S220 T1")
}

// S3
func TestTransformRewritesSecondToolchange(t *testing.T) {
	lines := []string{
		"; generated by PrusaSlicer 2.8.1 on 2024-05-01 at 10:00:00",
		"START_PRINT INITIAL_TOOL=0",
		"T0",
		"G1 X1 Y1 E1",
		"T1",
		"G1 E-2 F1800",
		"G1 X20 Y30 F6000",
		"G1 Z1.2",
	}
	in := writeTemp(t, lines)
	out := filepath.Join(filepath.Dir(in), "output.gcode")

	_, err := postprocessor.Transform(context.Background(), in, out, postprocessor.Options{IDEX: false})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "; Removed by RatOS post processor: T0")
	assert.Contains(t, content, "T1 X20 Y30 Z1.2")
}

// S4
func TestTransformAbortsOnArc(t *testing.T) {
	lines := []string{
		"; generated by PrusaSlicer 2.8.1 on 2024-05-01 at 10:00:00",
		"START_PRINT INITIAL_TOOL=0",
		"G2 X100 Y100 I10 J0 E1",
	}
	in := writeTemp(t, lines)
	out := filepath.Join(filepath.Dir(in), "output.gcode")

	_, err := postprocessor.Transform(context.Background(), in, out, postprocessor.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arcs")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr) || statErr == nil, "output file state is implementation-defined on abort, but must not panic")
}

// S5
func TestInspectProcessedFileRequiresReprocessForIDEXMismatch(t *testing.T) {
	path := writeTemp(t, []string{
		"; processed by RatOS.PostProcessor 0.2.0 on 2024-05-01 at 10:00:00 UTC v:3 m:1a2b",
	})

	res, err := postprocessor.Inspect(path, postprocessor.Options{IDEX: true})
	require.NoError(t, err)
	assert.Equal(t, postprocessor.PrintabilityMustReprocess, res.Printability)
	assert.Contains(t, res.Reason, "IDEX")
}

// S6
func TestTransformRaisesCancelledWithoutWriting(t *testing.T) {
	in := writeTemp(t, []string{""})
	out := filepath.Join(filepath.Dir(in), "output.gcode")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := postprocessor.Transform(ctx, in, out, postprocessor.Options{})
	require.Error(t, err)
	var perrErr *perr.Error
	require.ErrorAs(t, err, &perrErr)
	assert.Equal(t, perr.KindCancelled, perrErr.Kind)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output file should be left behind on cancellation")
}

func TestInspectUnparsableHeaderFailsByDefault(t *testing.T) {
	path := writeTemp(t, []string{"; just some comment", "; another comment", "; yet another"})
	_, err := postprocessor.Inspect(path, postprocessor.Options{})
	require.Error(t, err)
	var perrErr *perr.Error
	require.ErrorAs(t, err, &perrErr)
	assert.Equal(t, perr.KindInvalidInput, perrErr.Kind)
}

func TestInspectUnparsableHeaderWithOverrideReturnsUnknown(t *testing.T) {
	path := writeTemp(t, []string{"; just some comment"})
	res, err := postprocessor.Inspect(path, postprocessor.Options{AllowUnknownGenerator: true})
	require.NoError(t, err)
	assert.Equal(t, postprocessor.PrintabilityUnknown, res.Printability)
}

func TestAnalyseQuickStopsAtFirstMove(t *testing.T) {
	lines := []string{
		"; generated by PrusaSlicer 2.8.1 on 2024-05-01 at 10:00:00",
		"START_PRINT INITIAL_TOOL=0",
		"G1 X10 Y10 E1",
		"T1",
	}
	path := writeTemp(t, lines)

	analysis, err := postprocessor.Analyse(context.Background(), path, postprocessor.Options{QuickInspectionOnly: true})
	require.NoError(t, err)
	require.NotNil(t, analysis.FirstMoveX)
	assert.Equal(t, 10.0, *analysis.FirstMoveX)
	assert.Nil(t, analysis.ToolChangeCount, "quick analysis must not carry full-only fields")
}

func TestAnalyseFullCollectsToolchangeCount(t *testing.T) {
	lines := []string{
		"; generated by PrusaSlicer 2.8.1 on 2024-05-01 at 10:00:00",
		"START_PRINT INITIAL_TOOL=0",
		"T0",
		"G1 X1 Y1 E1",
		"T1",
		"G1 X20 Y30 E1",
	}
	path := writeTemp(t, lines)

	analysis, err := postprocessor.Analyse(context.Background(), path, postprocessor.Options{})
	require.NoError(t, err)
	require.NotNil(t, analysis.ToolChangeCount)
	assert.Equal(t, 2, *analysis.ToolChangeCount)
}

func TestTransformRejectsExistingOutputWithoutOverwrite(t *testing.T) {
	in := writeTemp(t, []string{
		"; generated by PrusaSlicer 2.8.1 on 2024-05-01 at 10:00:00",
		"START_PRINT INITIAL_TOOL=0",
	})
	out := filepath.Join(filepath.Dir(in), "output.gcode")
	require.NoError(t, os.WriteFile(out, []byte("existing"), 0644))

	_, err := postprocessor.Transform(context.Background(), in, out, postprocessor.Options{Overwrite: false})
	require.Error(t, err)
	var perrErr *perr.Error
	require.ErrorAs(t, err, &perrErr)
	assert.Equal(t, perr.KindResource, perrErr.Kind)
}
