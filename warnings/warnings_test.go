package warnings_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ratos/gcode-postprocessor/warnings"
)

func TestBufferAccumulatesInOrder(t *testing.T) {
	var b warnings.Buffer
	b.Warn(warnings.KindHeuristicSmell, "walk exhausted without finding an XY move", 12)
	b.Warn(warnings.KindMetadata, "trailer char count mismatch", 0)

	items := b.Items()
	assert.Len(t, items, 2)
	assert.Equal(t, warnings.KindHeuristicSmell, items[0].Kind)
	assert.Equal(t, 12, items[0].Line)
	assert.Equal(t, warnings.KindMetadata, items[1].Kind)
}

func TestWarningStringIncludesLineOnlyWhenSet(t *testing.T) {
	withLine := warnings.Warning{Kind: warnings.KindHeuristicSmell, Msg: "smell", Line: 5}
	withoutLine := warnings.Warning{Kind: warnings.KindMetadata, Msg: "meta"}

	assert.Contains(t, withLine.String(), "line 5")
	assert.NotContains(t, withoutLine.String(), "line")
}

func TestFuncAdapterForwardsCalls(t *testing.T) {
	var got warnings.Warning
	sink := warnings.Func(func(kind warnings.Kind, msg string, line int) {
		got = warnings.Warning{Kind: kind, Msg: msg, Line: line}
	})
	sink.Warn(warnings.KindMetadata, "hello", 3)
	assert.Equal(t, warnings.KindMetadata, got.Kind)
	assert.Equal(t, "hello", got.Msg)
}

func TestDiscardDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		warnings.Discard.Warn(warnings.KindHeuristicSmell, "ignored", 1)
	})
}
