package engine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Joint rigidly relates two anchor points and the relative angle of two
// bodies with three rows: translation x, translation y and angle. With a
// nil bodyA the joint pins bodyB to the world anchor rA, which is the
// form the drag handle uses.
type Joint struct {
	forceBase
	bodyA, bodyB *Body
	rA, rB       mgl64.Vec2
	restAngle    float64
	armLength    float64
	c0           mgl64.Vec3
}

// NewJoint captures the rest state at construction. The stiffness vector
// is (linear x, linear y, angular); +Inf entries are hard rows. Crossing
// fractureTorque on the angular dual disables the joint permanently.
// A nil bodyB is invalid and yields no joint.
func NewJoint(s *Solver, bodyA, bodyB *Body, rA, rB mgl64.Vec2, stiffness mgl64.Vec3, fractureTorque float64) *Joint {
	if bodyB == nil {
		if s.Logf != nil {
			s.Logf("joint dropped: %v", ErrInvalidBodies)
		}
		return nil
	}
	j := &Joint{bodyA: bodyA, bodyB: bodyB, rA: rA, rB: rB}
	if bodyA != nil {
		j.attach(j, s, bodyA, bodyB)
		j.restAngle = bodyA.pos[2] - bodyB.pos[2]
		arm := bodyA.Rotation().Mul2x1(rA).Add(bodyB.Rotation().Mul2x1(rB))
		j.armLength = arm.Dot(arm)
	} else {
		j.attach(j, s, bodyB)
		j.restAngle = -bodyB.pos[2]
		arm := bodyB.Rotation().Mul2x1(rB)
		j.armLength = arm.Dot(arm)
	}
	for row := 0; row < 3; row++ {
		j.stiffness[row] = stiffness[row]
	}
	j.fracture[2] = fractureTorque
	return j
}

// SetAnchor moves the world anchor of a one-body joint.
func (j *Joint) SetAnchor(p mgl64.Vec2) { j.rA = p }

func (j *Joint) Rows() int { return 3 }

func (j *Joint) anchorA() mgl64.Vec2 {
	if j.bodyA == nil {
		return j.rA
	}
	return j.bodyA.WorldPoint(j.rA)
}

func (j *Joint) angleA() float64 {
	if j.bodyA == nil {
		return 0
	}
	return j.bodyA.pos[2]
}

// value evaluates the raw constraint (rAw - rBw, (thetaA-thetaB-rest)*L).
func (j *Joint) value() mgl64.Vec3 {
	d := j.anchorA().Sub(j.bodyB.WorldPoint(j.rB))
	dth := (j.angleA() - j.bodyB.pos[2] - j.restAngle) * j.armLength
	return mgl64.Vec3{d[0], d[1], dth}
}

func (j *Joint) Initialize() bool {
	j.c0 = j.value()
	return true
}

// ComputeConstraints fills the Taylor-stabilized rows C(q) - (1-alpha)*C0,
// so alpha=1 enforces exact position alignment and alpha<1 leaks the error
// present at step start.
func (j *Joint) ComputeConstraints(alpha float64) {
	v := j.value()
	for row := 0; row < 3; row++ {
		j.C[row] = v[row] - (1-alpha)*j.c0[row]
	}
}

func (j *Joint) ComputeDerivatives(body *Body) {
	switch body {
	case j.bodyA:
		arm := j.bodyA.Rotation().Mul2x1(j.rA)
		j.J[0] = mgl64.Vec3{1, 0, -arm[1]}
		j.J[1] = mgl64.Vec3{0, 1, arm[0]}
		j.J[2] = mgl64.Vec3{0, 0, j.armLength}
		j.H[0] = mgl64.Mat3{}
		j.H[0].Set(2, 2, -arm[0])
		j.H[1] = mgl64.Mat3{}
		j.H[1].Set(2, 2, -arm[1])
		j.H[2] = mgl64.Mat3{}
	case j.bodyB:
		arm := j.bodyB.Rotation().Mul2x1(j.rB)
		j.J[0] = mgl64.Vec3{-1, 0, arm[1]}
		j.J[1] = mgl64.Vec3{0, -1, -arm[0]}
		j.J[2] = mgl64.Vec3{0, 0, -j.armLength}
		j.H[0] = mgl64.Mat3{}
		j.H[0].Set(2, 2, arm[0])
		j.H[1] = mgl64.Mat3{}
		j.H[1].Set(2, 2, arm[1])
		j.H[2] = mgl64.Mat3{}
	}
}

func (j *Joint) draw(q *RenderQueue) {
	if j.Disabled() {
		return
	}
	a := j.anchorA()
	b := j.bodyB.WorldPoint(j.rB)
	thickness := lineMedium
	if math.IsInf(j.stiffness[0], 1) && math.IsInf(j.stiffness[1], 1) {
		thickness = lineStrong
	}
	q.line(a, b, thickness)
	q.point(a)
	q.point(b)
}

var _ Force = (*Joint)(nil)
