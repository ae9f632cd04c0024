package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collab-backend/internal/protocol"
)

func TestCanvasStrokeLifecycle(t *testing.T) {
	cv := NewCanvas()

	cv.ApplyStart("s1", protocol.Point{X: 1, Y: 1}, "#ff0000", 3)
	cv.ApplyDraw("s1", protocol.Point{X: 2, Y: 2})
	cv.ApplyDraw("s1", protocol.Point{X: 3, Y: 3})
	cv.ApplyEnd("s1")

	s, ok := cv.Stroke("s1")
	require.True(t, ok)
	assert.Equal(t, "#ff0000", s.Color)
	assert.Equal(t, 3.0, s.Width)
	assert.True(t, s.Closed)
	assert.Equal(t, []protocol.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}, s.Points)
}

func TestCanvasDuplicateStartOverwrites(t *testing.T) {
	cv := NewCanvas()

	cv.ApplyStart("s1", protocol.Point{X: 1, Y: 1}, "#ff0000", 3)
	cv.ApplyDraw("s1", protocol.Point{X: 2, Y: 2})
	cv.ApplyStart("s1", protocol.Point{X: 9, Y: 9}, "#0000ff", 5)

	s, ok := cv.Stroke("s1")
	require.True(t, ok)
	assert.Equal(t, "#0000ff", s.Color)
	assert.Equal(t, 5.0, s.Width)
	assert.Equal(t, []protocol.Point{{X: 9, Y: 9}}, s.Points, "last start wins, earlier points discarded")
	assert.False(t, s.Closed)

	assert.Len(t, cv.Strokes(), 1, "overwrite must not duplicate the stroke")
}

func TestCanvasDrawBeforeStartIsNoOp(t *testing.T) {
	cv := NewCanvas()

	cv.ApplyDraw("ghost", protocol.Point{X: 1, Y: 1})
	cv.ApplyEnd("ghost")

	_, ok := cv.Stroke("ghost")
	assert.False(t, ok)
	assert.Empty(t, cv.Strokes())
}

func TestCanvasClearDiscardsEverything(t *testing.T) {
	cv := NewCanvas()

	cv.ApplyStart("s1", protocol.Point{X: 1, Y: 1}, "#000", 1)
	cv.ApplyStart("s2", protocol.Point{X: 2, Y: 2}, "#000", 1)
	cv.ApplyClear()

	assert.Empty(t, cv.Strokes())

	// the canvas keeps working after a clear
	cv.ApplyStart("s3", protocol.Point{X: 3, Y: 3}, "#000", 1)
	assert.Len(t, cv.Strokes(), 1)
}

func TestCanvasStrokesInCreationOrder(t *testing.T) {
	cv := NewCanvas()

	cv.ApplyStart("s1", protocol.Point{X: 1, Y: 1}, "#000", 1)
	cv.ApplyStart("s2", protocol.Point{X: 2, Y: 2}, "#000", 1)
	cv.ApplyStart("s1", protocol.Point{X: 9, Y: 9}, "#000", 1)

	strokes := cv.Strokes()
	require.Len(t, strokes, 2)
	assert.Equal(t, "s1", strokes[0].ID, "overwrite keeps the original creation slot")
	assert.Equal(t, "s2", strokes[1].ID)
}

func TestCanvasApplyRoutesEvents(t *testing.T) {
	cv := NewCanvas()

	cv.Apply(protocol.Drawing{Type: protocol.DrawStart, StrokeID: "s1", Point: &protocol.Point{X: 1, Y: 1}, Color: "#000", Width: 2})
	cv.Apply(protocol.Drawing{Type: protocol.DrawMove, StrokeID: "s1", Point: &protocol.Point{X: 2, Y: 2}})
	cv.Apply(protocol.Drawing{Type: protocol.DrawEnd, StrokeID: "s1"})

	s, ok := cv.Stroke("s1")
	require.True(t, ok)
	assert.Len(t, s.Points, 2)
	assert.True(t, s.Closed)
}

func TestCanvasSnapshotIsACopy(t *testing.T) {
	cv := NewCanvas()
	cv.ApplyStart("s1", protocol.Point{X: 1, Y: 1}, "#000", 1)

	snap := cv.Strokes()
	snap[0].Points[0] = protocol.Point{X: 99, Y: 99}
	snap[0].Color = "#fff"

	s, _ := cv.Stroke("s1")
	assert.Equal(t, protocol.Point{X: 1, Y: 1}, s.Points[0])
	assert.Equal(t, "#000", s.Color)
}
