package engine

import "github.com/go-gl/mathgl/mgl64"

// Line thickness tags consumed by the renderer: >= 0.5 reads as strong,
// 0.4..0.5 as medium, anything below as weak.
const (
	lineStrong = 0.6
	lineMedium = 0.45
)

// ContactLine is a renderable segment with a thickness tag.
type ContactLine struct {
	A, B      mgl64.Vec2
	Thickness float64
}

// RenderQueue collects the per-step shapes produced by forces and energies.
// It is rebuilt on every Step and safe to read between steps.
type RenderQueue struct {
	Points []mgl64.Vec2
	Lines  []ContactLine
}

func (q *RenderQueue) reset() {
	q.Points = q.Points[:0]
	q.Lines = q.Lines[:0]
}

func (q *RenderQueue) point(p mgl64.Vec2) {
	q.Points = append(q.Points, p)
}

func (q *RenderQueue) line(a, b mgl64.Vec2, thickness float64) {
	q.Lines = append(q.Lines, ContactLine{A: a, B: b, Thickness: thickness})
}
