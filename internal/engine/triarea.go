package engine

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/avbd2d/internal/linalg"
)

// TriArea preserves the signed area of a triangle of three particles:
// C = 0.5*cross(pB-pA, pC-pA) - restArea. Each vertex Jacobian is half
// the 90 degree rotation of the opposite edge; the Hessian is zero.
type TriArea struct {
	forceBase
	a, b, c  *Body
	restArea float64
}

func NewTriArea(s *Solver, a, b, c *Body, stiffness float64) *TriArea {
	if a == nil || b == nil || c == nil {
		if s.Logf != nil {
			s.Logf("area constraint dropped: %v", ErrInvalidBodies)
		}
		return nil
	}
	t := &TriArea{a: a, b: b, c: c}
	t.restArea = t.area()
	t.attach(t, s, a, b, c)
	t.stiffness[0] = stiffness
	return t
}

func (t *TriArea) Rows() int        { return 1 }
func (t *TriArea) Initialize() bool { return true }

func (t *TriArea) area() float64 {
	pa := t.a.translation()
	pb := t.b.translation()
	pc := t.c.translation()
	return 0.5 * linalg.Cross2(pb.Sub(pa), pc.Sub(pa))
}

func (t *TriArea) ComputeConstraints(alpha float64) {
	t.C[0] = t.area() - t.restArea
}

func (t *TriArea) ComputeDerivatives(body *Body) {
	pa := t.a.translation()
	pb := t.b.translation()
	pc := t.c.translation()
	var g mgl64.Vec2
	switch body {
	case t.a:
		g = linalg.Perp(pc.Sub(pb)).Mul(0.5)
	case t.b:
		g = linalg.Perp(pa.Sub(pc)).Mul(0.5)
	case t.c:
		g = linalg.Perp(pb.Sub(pa)).Mul(0.5)
	}
	t.J[0] = mgl64.Vec3{g[0], g[1], 0}
	t.H[0] = mgl64.Mat3{}
}

func (t *TriArea) draw(q *RenderQueue) {
	if t.Disabled() {
		return
	}
	pa := t.a.translation()
	pb := t.b.translation()
	pc := t.c.translation()
	q.line(pa, pb, lineMedium)
	q.line(pb, pc, lineMedium)
	q.line(pc, pa, lineMedium)
}

var _ Force = (*TriArea)(nil)
