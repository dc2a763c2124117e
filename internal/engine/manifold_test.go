package engine

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func restingBoxWorld() (*Solver, *Body) {
	s := NewSolver()
	NewBody(s, mgl64.Vec3{0, -5, 0}, mgl64.Vec2{50, 2}, 0, 0.5)
	box := NewBody(s, mgl64.Vec3{0, -3.5, 0}, mgl64.Vec2{1, 1}, 1, 0.5)
	return s, box
}

func findManifold(s *Solver) *Manifold {
	for _, f := range s.forces {
		if m, ok := f.(*Manifold); ok {
			return m
		}
	}
	return nil
}

func TestManifoldFeaturePersistence(t *testing.T) {
	s, _ := restingBoxWorld()

	for i := 0; i < 30; i++ {
		s.Step(s.dt)
	}
	m := findManifold(s)
	if m == nil {
		t.Fatal("no manifold between box and floor")
	}
	if m.Contacts() != 2 {
		t.Fatalf("resting box has %d contacts, want 2", m.Contacts())
	}

	ids := [2]uint32{m.FeatureID(0), m.FeatureID(1)}
	if ids[0] == ids[1] {
		t.Error("duplicate feature ids inside one manifold")
	}

	for i := 0; i < 30; i++ {
		s.Step(s.dt)
	}
	m2 := findManifold(s)
	if m2 == nil {
		t.Fatal("manifold vanished while resting")
	}
	got := [2]uint32{m2.FeatureID(0), m2.FeatureID(1)}
	if got != ids {
		t.Errorf("feature ids changed across steps: %v -> %v", ids, got)
	}
}

func TestManifoldWarmStartCarriesPenalty(t *testing.T) {
	s, _ := restingBoxWorld()

	for i := 0; i < 10; i++ {
		s.Step(s.dt)
	}
	m := findManifold(s)
	if m == nil {
		t.Fatal("no manifold")
	}
	// A warm-started resting contact keeps a grown penalty, not the floor
	// value a fresh manifold would start from.
	if m.Penalty(0) <= PenaltyMin {
		t.Errorf("normal penalty %f not warm started", m.Penalty(0))
	}
}

func TestManifoldNormalRowPushesOnly(t *testing.T) {
	s, _ := restingBoxWorld()
	for i := 0; i < 60; i++ {
		s.Step(s.dt)
	}
	m := findManifold(s)
	if m == nil {
		t.Fatal("no manifold")
	}
	for i := 0; i < m.Contacts(); i++ {
		if m.Lambda(2*i) > 0 {
			t.Errorf("contact %d normal dual %f is pulling", i, m.Lambda(2*i))
		}
	}
}

func TestManifoldCoulombCone(t *testing.T) {
	s := NewSolver()
	NewBody(s, mgl64.Vec3{0, -5, 0.1}, mgl64.Vec2{50, 2}, 0, 0.6)
	box := NewBody(s, mgl64.Vec3{0, -3, 0.1}, mgl64.Vec2{1, 1}, 1, 0.6)
	box.SetVelocity(mgl64.Vec3{2, 0, 0})

	for i := 0; i < 240; i++ {
		s.Step(s.dt)
	}
	m := findManifold(s)
	if m == nil {
		t.Fatal("no manifold")
	}
	mu := math.Sqrt(0.6 * 0.6)
	for i := 0; i < m.Contacts(); i++ {
		ln := math.Abs(m.Lambda(2 * i))
		lt := math.Abs(m.Lambda(2*i + 1))
		if lt > mu*ln+1e-6 {
			t.Errorf("contact %d violates the friction cone: |lt|=%f > mu*|ln|=%f", i, lt, mu*ln)
		}
	}
}

func TestManifoldSeparationRemovesForce(t *testing.T) {
	s := NewSolver()
	a := NewBody(s, mgl64.Vec3{0, 0, 0}, mgl64.Vec2{2, 2}, 0, 0.5)
	b := NewBody(s, mgl64.Vec3{1.9, 0, 0}, mgl64.Vec2{2, 2}, 1, 0.5)

	m := NewManifold(s, a, b)
	if !m.Initialize() {
		t.Fatal("overlapping pair failed to initialize")
	}

	b.SetPosition(mgl64.Vec3{10, 0, 0})
	if m.Initialize() {
		t.Error("separated pair still initializes")
	}
}
