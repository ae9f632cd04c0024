package client

import (
	"sync"
	"time"

	"collab-backend/internal/protocol"
)

// Stroke is one freehand gesture: an id, a growing point sequence and its
// pen settings. Points only ever grow until the whole canvas is cleared.
type Stroke struct {
	ID        string
	Points    []protocol.Point
	Color     string
	Width     float64
	CreatedAt time.Time
	Closed    bool
}

// Canvas is the whiteboard model. The same apply path runs for local
// gestures and remote events; only the emission differs, and that lives in
// Session. Rendering is always a full redraw from Strokes().
type Canvas struct {
	mu      sync.Mutex
	strokes map[string]*Stroke
	order   []string
}

// NewCanvas Canvas 생성
func NewCanvas() *Canvas {
	return &Canvas{strokes: make(map[string]*Stroke)}
}

// Apply routes one drawing event to the matching model operation.
func (cv *Canvas) Apply(d protocol.Drawing) {
	switch d.Type {
	case protocol.DrawStart:
		if d.Point != nil {
			cv.ApplyStart(d.StrokeID, *d.Point, d.Color, d.Width)
		}
	case protocol.DrawMove:
		if d.Point != nil {
			cv.ApplyDraw(d.StrokeID, *d.Point)
		}
	case protocol.DrawEnd:
		cv.ApplyEnd(d.StrokeID)
	}
}

// ApplyStart opens a stroke. A duplicate start overwrites: last start wins.
func (cv *Canvas) ApplyStart(strokeID string, p protocol.Point, color string, width float64) {
	cv.mu.Lock()
	defer cv.mu.Unlock()

	if _, exists := cv.strokes[strokeID]; !exists {
		cv.order = append(cv.order, strokeID)
	}
	cv.strokes[strokeID] = &Stroke{
		ID:        strokeID,
		Points:    []protocol.Point{p},
		Color:     color,
		Width:     width,
		CreatedAt: time.Now(),
	}
}

// ApplyDraw appends a point to an open stroke. A draw for an unknown stroke
// is a no-op: with no cross-client ordering guarantee it can arrive before
// its start, and dropping it is the defined behavior.
func (cv *Canvas) ApplyDraw(strokeID string, p protocol.Point) {
	cv.mu.Lock()
	defer cv.mu.Unlock()

	s, ok := cv.strokes[strokeID]
	if !ok {
		return
	}
	s.Points = append(s.Points, p)
}

// ApplyEnd marks a stroke closed. A terminal marker only; the points drawn
// so far already render.
func (cv *Canvas) ApplyEnd(strokeID string) {
	cv.mu.Lock()
	defer cv.mu.Unlock()

	if s, ok := cv.strokes[strokeID]; ok {
		s.Closed = true
	}
}

// ApplyClear discards every stroke.
func (cv *Canvas) ApplyClear() {
	cv.mu.Lock()
	defer cv.mu.Unlock()

	cv.strokes = make(map[string]*Stroke)
	cv.order = nil
}

// Strokes returns a snapshot in creation order for a full redraw.
func (cv *Canvas) Strokes() []Stroke {
	cv.mu.Lock()
	defer cv.mu.Unlock()

	out := make([]Stroke, 0, len(cv.order))
	for _, id := range cv.order {
		s := cv.strokes[id]
		copied := *s
		copied.Points = make([]protocol.Point, len(s.Points))
		copy(copied.Points, s.Points)
		out = append(out, copied)
	}
	return out
}

// Stroke returns one stroke snapshot by id.
func (cv *Canvas) Stroke(id string) (Stroke, bool) {
	cv.mu.Lock()
	defer cv.mu.Unlock()

	s, ok := cv.strokes[id]
	if !ok {
		return Stroke{}, false
	}
	copied := *s
	copied.Points = make([]protocol.Point, len(s.Points))
	copy(copied.Points, s.Points)
	return copied, true
}
