package engine

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/avbd2d/internal/linalg"
)

// Spring is a single soft row C = |rAw - rBw| - restLength with finite
// stiffness. Degenerate geometry (coincident anchors) leaves the row
// quiescent until the anchors separate.
type Spring struct {
	forceBase
	bodyA, bodyB *Body
	rA, rB       mgl64.Vec2
	restLength   float64
}

func NewSpring(s *Solver, bodyA, bodyB *Body, rA, rB mgl64.Vec2, stiffness, restLength float64) *Spring {
	if bodyA == nil || bodyB == nil {
		if s.Logf != nil {
			s.Logf("spring dropped: %v", ErrInvalidBodies)
		}
		return nil
	}
	sp := &Spring{bodyA: bodyA, bodyB: bodyB, rA: rA, rB: rB, restLength: restLength}
	sp.attach(sp, s, bodyA, bodyB)
	sp.stiffness[0] = stiffness
	return sp
}

func (sp *Spring) Rows() int        { return 1 }
func (sp *Spring) Initialize() bool { return true }

func (sp *Spring) delta() mgl64.Vec2 {
	return sp.bodyA.WorldPoint(sp.rA).Sub(sp.bodyB.WorldPoint(sp.rB))
}

func (sp *Spring) ComputeConstraints(alpha float64) {
	sp.C[0] = sp.delta().Len() - sp.restLength
}

func (sp *Spring) ComputeDerivatives(body *Body) {
	d := sp.delta()
	l := d.Len()
	if l < 1e-9 {
		sp.J[0] = mgl64.Vec3{}
		sp.H[0] = mgl64.Mat3{}
		return
	}
	n := d.Mul(1 / l)

	// sigma is the translation sign, u the angular sweep of this body's
	// anchor, w its second angular derivative projected on n.
	var sigma float64
	var arm mgl64.Vec2
	switch body {
	case sp.bodyA:
		sigma = 1
		arm = sp.bodyA.Rotation().Mul2x1(sp.rA)
	case sp.bodyB:
		sigma = -1
		arm = sp.bodyB.Rotation().Mul2x1(sp.rB)
	default:
		return
	}
	u := linalg.Perp(arm).Mul(sigma)
	w := arm.Mul(-sigma)

	sp.J[0] = mgl64.Vec3{sigma * n[0], sigma * n[1], n.Dot(u)}

	htt := mgl64.Ident2().Sub(linalg.Outer2(n, n)).Mul(1 / l)
	hu := htt.Mul2x1(u)
	var h mgl64.Mat3
	h.Set(0, 0, htt.At(0, 0))
	h.Set(0, 1, htt.At(0, 1))
	h.Set(1, 0, htt.At(1, 0))
	h.Set(1, 1, htt.At(1, 1))
	h.Set(0, 2, sigma*hu[0])
	h.Set(1, 2, sigma*hu[1])
	h.Set(2, 0, sigma*hu[0])
	h.Set(2, 1, sigma*hu[1])
	h.Set(2, 2, u.Dot(hu)+n.Dot(w))
	sp.H[0] = h
}

func (sp *Spring) draw(q *RenderQueue) {
	if sp.Disabled() {
		return
	}
	q.line(sp.bodyA.WorldPoint(sp.rA), sp.bodyB.WorldPoint(sp.rB), lineMedium)
}

var _ Force = (*Spring)(nil)
