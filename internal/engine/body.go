package engine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/avbd2d/internal/linalg"
)

// Spin is clamped before the inertial prediction to keep fast rotors from
// tunnelling through the penalty ramp.
const maxAngularVelocity = 50.0

// Body is a rigid rectangular region, or a point particle when its size is
// zero. Pose and velocity are generalized 3-vectors (x, y, theta).
type Body struct {
	solver *Solver

	pos      mgl64.Vec3
	vel      mgl64.Vec3
	prevVel  mgl64.Vec3
	lastPos  mgl64.Vec3
	inertial mgl64.Vec3

	size     mgl64.Vec2
	mass     float64
	moment   float64
	friction float64
	radius   float64

	dragged bool
	dragVel mgl64.Vec3

	forces   []Force
	energies []Energy
}

// NewBody creates a w x h rectangle. A zero density produces a static,
// immovable body.
func NewBody(s *Solver, pos mgl64.Vec3, size mgl64.Vec2, density, friction float64) *Body {
	b := &Body{
		solver:   s,
		pos:      pos,
		size:     size,
		friction: friction,
	}
	b.mass = density * size[0] * size[1]
	if b.mass > 0 {
		b.moment = b.mass * (size[0]*size[0] + size[1]*size[1]) / 12
	}
	b.radius = 0.5 * math.Hypot(size[0], size[1])
	s.bodies = append(s.bodies, b)
	return b
}

// NewParticle creates a point body of the given mass. Particles carry a
// nominal moment equal to their mass so the per-body 3x3 mass block stays
// positive definite; nothing in the system applies torque to them.
func NewParticle(s *Solver, pos mgl64.Vec2, mass float64) *Body {
	b := &Body{
		solver: s,
		pos:    mgl64.Vec3{pos[0], pos[1], 0},
		mass:   mass,
		moment: mass,
	}
	s.bodies = append(s.bodies, b)
	return b
}

func (b *Body) Position() mgl64.Vec3     { return b.pos }
func (b *Body) SetPosition(q mgl64.Vec3) { b.pos = q }
func (b *Body) Velocity() mgl64.Vec3     { return b.vel }

// SetVelocity is a no-op on static bodies.
func (b *Body) SetVelocity(v mgl64.Vec3) {
	if b.IsStatic() {
		return
	}
	b.vel = v
}

func (b *Body) Mass() float64      { return b.mass }
func (b *Body) Moment() float64    { return b.moment }
func (b *Body) Friction() float64  { return b.friction }
func (b *Body) Size() mgl64.Vec2   { return b.size }
func (b *Body) Radius() float64    { return b.radius }
func (b *Body) IsStatic() bool     { return b.mass <= 0 }
func (b *Body) Forces() []Force    { return b.forces }
func (b *Body) Energies() []Energy { return b.energies }

// Rotation builds the 2x2 rotation matrix for the body's current angle.
func (b *Body) Rotation() mgl64.Mat2 {
	return linalg.Rotation(b.pos[2])
}

// WorldPoint maps a body-frame offset to world space.
func (b *Body) WorldPoint(local mgl64.Vec2) mgl64.Vec2 {
	p := b.Rotation().Mul2x1(local)
	return mgl64.Vec2{b.pos[0] + p[0], b.pos[1] + p[1]}
}

func (b *Body) translation() mgl64.Vec2 {
	return mgl64.Vec2{b.pos[0], b.pos[1]}
}

// SetDragged marks the body as held by the interaction handle.
// The extra velocity is folded into the body once at the next velocity
// update, then cleared.
func (b *Body) SetDragged(dragged bool)      { b.dragged = dragged }
func (b *Body) AddDragVelocity(v mgl64.Vec3) { b.dragVel = b.dragVel.Add(v) }

// ConstrainedTo reports whether a force already links b and other.
func (b *Body) ConstrainedTo(other *Body) bool {
	for _, f := range b.forces {
		for _, fb := range f.Bodies() {
			if fb == other {
				return true
			}
		}
	}
	return false
}

func (b *Body) addForce(f Force) {
	b.forces = append(b.forces, f)
}

func (b *Body) removeForce(f Force) {
	for i, ff := range b.forces {
		if ff == f {
			b.forces = append(b.forces[:i], b.forces[i+1:]...)
			return
		}
	}
}

func (b *Body) addEnergy(e Energy) {
	b.energies = append(b.energies, e)
}

func (b *Body) removeEnergy(e Energy) {
	for i, ee := range b.energies {
		if ee == e {
			b.energies = append(b.energies[:i], b.energies[i+1:]...)
			return
		}
	}
}

// Destroy unlinks and destroys every force and energy touching the body,
// then removes it from the solver. Detachment is explicit: peers are
// released first, the entry after.
func (b *Body) Destroy() {
	for len(b.forces) > 0 {
		b.solver.DestroyForce(b.forces[0])
	}
	for len(b.energies) > 0 {
		b.solver.DestroyEnergy(b.energies[0])
	}
	for i, bb := range b.solver.bodies {
		if bb == b {
			b.solver.bodies = append(b.solver.bodies[:i], b.solver.bodies[i+1:]...)
			return
		}
	}
}
