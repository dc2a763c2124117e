package engine

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/avbd2d/internal/linalg"
)

// nearHardStiffness stands in for an incompressible distance constraint
// when the compliance is zero.
const nearHardStiffness = 1e12

// Length is a distance constraint between two anchor points, soft or hard
// depending on its compliance: k = 1/compliance when compliance > 0,
// near-hard otherwise. Unlike Spring it carries no curvature term.
type Length struct {
	forceBase
	bodyA, bodyB *Body
	rA, rB       mgl64.Vec2
	restLength   float64
}

func NewLength(s *Solver, bodyA, bodyB *Body, rA, rB mgl64.Vec2, compliance, restLength, fracture float64) *Length {
	if bodyA == nil || bodyB == nil {
		if s.Logf != nil {
			s.Logf("length constraint dropped: %v", ErrInvalidBodies)
		}
		return nil
	}
	l := &Length{bodyA: bodyA, bodyB: bodyB, rA: rA, rB: rB, restLength: restLength}
	l.attach(l, s, bodyA, bodyB)
	if compliance > 0 {
		l.stiffness[0] = 1 / compliance
	} else {
		l.stiffness[0] = nearHardStiffness
	}
	l.fracture[0] = fracture
	return l
}

func (l *Length) Rows() int        { return 1 }
func (l *Length) Initialize() bool { return true }

func (l *Length) delta() mgl64.Vec2 {
	return l.bodyA.WorldPoint(l.rA).Sub(l.bodyB.WorldPoint(l.rB))
}

func (l *Length) ComputeConstraints(alpha float64) {
	l.C[0] = l.delta().Len() - l.restLength
}

func (l *Length) ComputeDerivatives(body *Body) {
	d := l.delta()
	ln := d.Len()
	l.H[0] = mgl64.Mat3{}
	if ln < 1e-9 {
		l.J[0] = mgl64.Vec3{}
		return
	}
	n := d.Mul(1 / ln)
	switch body {
	case l.bodyA:
		arm := l.bodyA.Rotation().Mul2x1(l.rA)
		l.J[0] = mgl64.Vec3{n[0], n[1], n.Dot(linalg.Perp(arm))}
	case l.bodyB:
		arm := l.bodyB.Rotation().Mul2x1(l.rB)
		l.J[0] = mgl64.Vec3{-n[0], -n[1], -n.Dot(linalg.Perp(arm))}
	}
}

func (l *Length) draw(q *RenderQueue) {
	if l.Disabled() {
		return
	}
	q.line(l.bodyA.WorldPoint(l.rA), l.bodyB.WorldPoint(l.rB), lineMedium)
}

var _ Force = (*Length)(nil)
