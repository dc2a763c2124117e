package engine

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestSpringRestLengthEquilibrium(t *testing.T) {
	s := NewSolver()
	s.SetGravity(mgl64.Vec2{0, 0})
	a := NewBody(s, mgl64.Vec3{0, 0, 0}, mgl64.Vec2{1, 1}, 0, 0.5)
	b := NewBody(s, mgl64.Vec3{4, 0, 0}, mgl64.Vec2{1, 1}, 1, 0.5)
	NewSpring(s, a, b, mgl64.Vec2{}, mgl64.Vec2{}, 200, 3)

	for i := 0; i < 600; i++ {
		s.Step(s.dt)
	}

	d := b.Position()[0] - a.Position()[0]
	if math.Abs(d-3) > 0.05 {
		t.Errorf("spring settled at length %f, want 3", d)
	}
}

func TestSpringConstraintValue(t *testing.T) {
	s := NewSolver()
	a := NewParticle(s, mgl64.Vec2{0, 0}, 1)
	b := NewParticle(s, mgl64.Vec2{5, 0}, 1)
	sp := NewSpring(s, a, b, mgl64.Vec2{}, mgl64.Vec2{}, 100, 3)

	sp.ComputeConstraints(1)
	if math.Abs(sp.C[0]-2) > 1e-12 {
		t.Errorf("C = %f, want 2", sp.C[0])
	}
}

func TestSpringJacobianFiniteDifference(t *testing.T) {
	s := NewSolver()
	a := NewBody(s, mgl64.Vec3{0.3, -0.2, 0.4}, mgl64.Vec2{1, 1}, 1, 0.5)
	b := NewBody(s, mgl64.Vec3{3.1, 1.2, -0.7}, mgl64.Vec2{1, 1}, 1, 0.5)
	sp := NewSpring(s, a, b, mgl64.Vec2{0.2, 0.1}, mgl64.Vec2{-0.3, 0.25}, 100, 2)

	value := func() float64 {
		sp.ComputeConstraints(1)
		return sp.C[0]
	}

	const h = 1e-6
	for _, body := range []*Body{a, b} {
		sp.ComputeDerivatives(body)
		jac := sp.J[0]
		for dof := 0; dof < 3; dof++ {
			q := body.Position()
			qh := q
			qh[dof] += h
			body.SetPosition(qh)
			up := value()
			qh[dof] -= 2 * h
			body.SetPosition(qh)
			down := value()
			body.SetPosition(q)

			fd := (up - down) / (2 * h)
			if math.Abs(fd-jac[dof]) > 1e-5 {
				t.Errorf("dC/dq[%d] = %f, finite difference %f", dof, jac[dof], fd)
			}
		}
	}
}

func TestSpringDegenerateGeometry(t *testing.T) {
	s := NewSolver()
	a := NewParticle(s, mgl64.Vec2{1, 1}, 1)
	b := NewParticle(s, mgl64.Vec2{1, 1}, 1)
	sp := NewSpring(s, a, b, mgl64.Vec2{}, mgl64.Vec2{}, 100, 1)

	sp.ComputeDerivatives(a)
	if sp.J[0] != (mgl64.Vec3{}) {
		t.Errorf("degenerate spring Jacobian = %v, want zero", sp.J[0])
	}
	if sp.H[0] != (mgl64.Mat3{}) {
		t.Errorf("degenerate spring Hessian not zero")
	}
}

func TestLengthHardWhenIncompliant(t *testing.T) {
	s := NewSolver()
	a := NewParticle(s, mgl64.Vec2{0, 0}, 1)
	b := NewParticle(s, mgl64.Vec2{2, 0}, 1)

	hard := NewLength(s, a, b, mgl64.Vec2{}, mgl64.Vec2{}, 0, 2, math.Inf(1))
	if hard.stiffness[0] != nearHardStiffness {
		t.Errorf("zero compliance stiffness = %g, want %g", hard.stiffness[0], nearHardStiffness)
	}

	soft := NewLength(s, a, b, mgl64.Vec2{}, mgl64.Vec2{}, 0.01, 2, math.Inf(1))
	if math.Abs(soft.stiffness[0]-100) > 1e-9 {
		t.Errorf("compliance 0.01 stiffness = %g, want 100", soft.stiffness[0])
	}
}
