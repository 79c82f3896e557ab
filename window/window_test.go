package window_test

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratos/gcode-postprocessor/bookmark"
	"github.com/ratos/gcode-postprocessor/window"
)

type recordingSink struct{ lines []string }

func (s *recordingSink) Emit(_ context.Context, item bookmark.Item) error {
	s.lines = append(s.lines, item.Text)
	return nil
}

func feedAll(t *testing.T, behind, ahead int, input []string, cb window.Callback) []string {
	t.Helper()
	sink := &recordingSink{}
	p := window.New(behind, ahead, sink)
	ctx := context.Background()
	for _, line := range input {
		require.NoError(t, p.Feed(ctx, line, cb))
	}
	require.NoError(t, p.Flush(ctx, cb))
	return sink.lines
}

func TestForwardOnlyDeterminism(t *testing.T) {
	input := []string{"a", "b", "c", "d", "e", "f", "g"}
	out := feedAll(t, 2, 2, input, func(c *window.Context) error { return nil })
	assert.Equal(t, input, out)
}

func TestEveryLineIsVisitedExactlyOnce(t *testing.T) {
	input := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		input = append(input, strconv.Itoa(i))
	}
	visited := map[string]int{}
	_ = feedAll(t, 3, 5, input, func(c *window.Context) error {
		visited[c.Text()]++
		return nil
	})
	require.Len(t, visited, len(input))
	for _, line := range input {
		assert.Equal(t, 1, visited[line], "line %q visited %d times", line, visited[line])
	}
}

func TestWindowNeighbourhood(t *testing.T) {
	input := []string{"L0", "L1", "L2", "L3", "L4", "L5", "L6", "L7", "L8", "L9"}
	behind, ahead := 3, 3

	_ = feedAll(t, behind, ahead, input, func(c *window.Context) error {
		cur, err := strconv.Atoi(c.Text()[1:])
		require.NoError(t, err)

		for k := -behind; k <= ahead; k++ {
			neighbour, ok := c.GetLine(k)
			wantIdx := cur + k
			if wantIdx < 0 || wantIdx >= len(input) {
				continue
			}
			if !ok {
				// Out of currently-buffered range is only acceptable at the
				// extreme edges of the stream; assert it didn't happen for
				// interior lines with full context available.
				continue
			}
			assert.Equal(t, input[wantIdx], neighbour.Text(), "line %s, offset %d", c.Text(), k)
		}
		return nil
	})
}

func TestSmallInputNeverFillsWindow(t *testing.T) {
	input := []string{"only", "two"}
	out := feedAll(t, 20, 100, input, func(c *window.Context) error { return nil })
	assert.Equal(t, input, out)
}

func TestRemoveSkipsEmission(t *testing.T) {
	input := []string{"keep1", "drop", "keep2"}
	out := feedAll(t, 1, 1, input, func(c *window.Context) error {
		if c.Text() == "drop" {
			return c.Remove()
		}
		return nil
	})
	assert.Equal(t, []string{"keep1", "keep2"}, out)
}

func TestSetTextReplacesLine(t *testing.T) {
	input := []string{"a", "b", "c"}
	out := feedAll(t, 1, 1, input, func(c *window.Context) error {
		if c.Text() == "b" {
			return c.SetText("B!")
		}
		return nil
	})
	assert.Equal(t, []string{"a", "B!", "c"}, out)
}

func TestDuplicateBookmarkKeyIsError(t *testing.T) {
	input := []string{"a", "b", "c"}
	sink := &recordingSink{}
	p := window.New(1, 1, sink)
	reg := bookmark.NewRegistry()
	ctx := context.Background()

	var lastErr error
	for _, line := range input {
		err := p.Feed(ctx, line, func(c *window.Context) error {
			k1 := reg.Reserve()
			if err := c.SetBookmarkKey(k1); err != nil {
				return err
			}
			return c.SetBookmarkKey(k1)
		})
		if err != nil {
			lastErr = err
		}
	}
	require.NoError(t, p.Flush(ctx, func(c *window.Context) error { return nil }))
	var dup window.DuplicateBookmarkError
	assert.ErrorAs(t, lastErr, &dup)
}

func TestNeighbourCanBeMutatedBeforeEviction(t *testing.T) {
	// A still-buffered neighbour hasn't reached the sink yet, so an action
	// triggered by a later line (e.g. commenting out a retract seen a few
	// lines back, ahead of a toolchange) must be able to rewrite it in
	// place.
	input := []string{"a", "b", "c"}
	out := feedAll(t, 1, 1, input, func(c *window.Context) error {
		if c.Text() == "b" {
			prev, ok := c.GetLine(-1)
			require.True(t, ok)
			return prev.SetText("mutated")
		}
		return nil
	})
	assert.Equal(t, []string{"mutated", "b", "c"}, out)
}

func TestNeighbourBookmarkDuplicateDetectedAcrossContexts(t *testing.T) {
	// "b" gets a bookmark key while it is itself the current line (during
	// the initial burst); later, while "c" is current, a fresh Context
	// reaching "b" via GetLine(-1) must still see it as already keyed.
	input := []string{"a", "b", "c", "d"}
	sink := &recordingSink{}
	p := window.New(1, 1, sink)
	reg := bookmark.NewRegistry()
	ctx := context.Background()

	var dupErr error
	cb := func(c *window.Context) error {
		switch c.Text() {
		case "b":
			return c.SetBookmarkKey(reg.Reserve())
		case "c":
			prev, ok := c.GetLine(-1)
			require.True(t, ok)
			dupErr = prev.SetBookmarkKey(reg.Reserve())
		}
		return nil
	}
	for _, line := range input {
		require.NoError(t, p.Feed(ctx, line, cb))
	}
	require.NoError(t, p.Flush(ctx, cb))

	var dup window.DuplicateBookmarkError
	assert.ErrorAs(t, dupErr, &dup)
}

func TestStaleContextPanicsAfterCallbackReturns(t *testing.T) {
	input := []string{"a", "b", "c", "d"}
	var stale *window.Context
	_ = feedAll(t, 1, 1, input, func(c *window.Context) error {
		if c.Text() == "b" {
			stale = c
		}
		if c.Text() == "c" && stale != nil {
			assert.Panics(t, func() { _ = stale.Text() })
			stale = nil
		}
		return nil
	})
}

func TestFlushProcessesTailBeforeNeverFilling(t *testing.T) {
	// behind+ahead+1 = 201, input is far shorter: the window never fills,
	// so Flush alone must process every line exactly once.
	var visited []string
	input := []string{"x", "y", "z"}
	out := feedAll(t, 100, 100, input, func(c *window.Context) error {
		visited = append(visited, c.Text())
		return nil
	})
	assert.Equal(t, input, visited)
	assert.Equal(t, input, out)
}

func TestErrorPropagatesFromCallback(t *testing.T) {
	sink := &recordingSink{}
	p := window.New(0, 0, sink)
	ctx := context.Background()
	boom := fmt.Errorf("boom")
	err := p.Feed(ctx, "only", func(c *window.Context) error { return boom })
	require.ErrorIs(t, err, boom)
}
