package engine

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/avbd2d/internal/linalg"
)

func TestFallingBoxRestsOnFloor(t *testing.T) {
	s := NewSolver()
	NewBody(s, mgl64.Vec3{0, -5, 0}, mgl64.Vec2{50, 2}, 0, 0.5)
	box := NewBody(s, mgl64.Vec3{0, 10, 0}, mgl64.Vec2{1, 1}, 1, 0.5)

	for i := 0; i < 300; i++ {
		s.Step(s.dt)
	}

	if s.UrgentStop() {
		t.Fatal("urgent stop during a plain drop")
	}
	p := box.Position()
	if linalg.HasNaN3(p) {
		t.Fatalf("box pose has NaN: %v", p)
	}
	// Floor top at -4, box half-height 0.5.
	if math.Abs(p[1]-(-3.5)) > 0.1 {
		t.Errorf("box rests at y = %f, want about -3.5", p[1])
	}
	if math.Abs(p[2]) > 0.05 {
		t.Errorf("box tilted to theta = %f", p[2])
	}
	if box.Velocity().Len() > 0.05 {
		t.Errorf("box still moving at %v", box.Velocity())
	}
}

func TestTwoBoxStackComesToRest(t *testing.T) {
	s := NewSolver()
	NewBody(s, mgl64.Vec3{0, -5, 0}, mgl64.Vec2{50, 2}, 0, 0.5)
	lower := NewBody(s, mgl64.Vec3{0, -3, 0}, mgl64.Vec2{2, 2}, 1, 0.5)
	upper := NewBody(s, mgl64.Vec3{0, -0.9, 0}, mgl64.Vec2{2, 2}, 1, 0.5)

	for i := 0; i < 600; i++ {
		s.Step(s.dt)
	}

	if s.UrgentStop() {
		t.Fatal("urgent stop in a resting stack")
	}
	for _, b := range []*Body{lower, upper} {
		if b.Velocity().Len() > 0.05 {
			t.Errorf("stacked box still moving at %v", b.Velocity())
		}
	}
	if upper.Position()[1] < lower.Position()[1]+1.8 {
		t.Errorf("stack collapsed: lower y=%f upper y=%f",
			lower.Position()[1], upper.Position()[1])
	}

	manifolds := 0
	for _, f := range s.forces {
		if m, ok := f.(*Manifold); ok {
			manifolds++
			if m.Contacts() != 2 {
				t.Errorf("resting manifold has %d contacts, want 2", m.Contacts())
			}
			for i := 0; i < m.Contacts(); i++ {
				if !m.Stick(i) {
					t.Errorf("resting contact %d is not sticking", i)
				}
			}
		}
	}
	if manifolds != 2 {
		t.Errorf("stack has %d manifolds, want 2", manifolds)
	}
}

func TestRowInvariantsAfterStep(t *testing.T) {
	s := NewSolver()
	NewBody(s, mgl64.Vec3{0, -5, 0}, mgl64.Vec2{50, 2}, 0, 0.5)
	NewBody(s, mgl64.Vec3{0, -3, 0}, mgl64.Vec2{2, 2}, 1, 0.5)
	a := NewParticle(s, mgl64.Vec2{-3, 0}, 1)
	b := NewParticle(s, mgl64.Vec2{-3, 2}, 1)
	NewSpring(s, a, b, mgl64.Vec2{}, mgl64.Vec2{}, 500, 2)

	for i := 0; i < 120; i++ {
		s.Step(s.dt)

		for _, f := range s.forces {
			fb := f.base()
			if fb.Disabled() {
				continue
			}
			for j := 0; j < f.Rows(); j++ {
				hi := math.Min(PenaltyMax, fb.stiffness[j])
				if fb.penalty[j] < PenaltyMin-1e-12 || fb.penalty[j] > hi+1e-12 {
					t.Fatalf("step %d: penalty %g outside [%g, %g]",
						i, fb.penalty[j], PenaltyMin, hi)
				}
				if fb.lambda[j] < fb.fmin[j]-1e-12 || fb.lambda[j] > fb.fmax[j]+1e-12 {
					t.Fatalf("step %d: lambda %g outside [%g, %g]",
						i, fb.lambda[j], fb.fmin[j], fb.fmax[j])
				}
			}
		}
	}
}

func TestDeterminism(t *testing.T) {
	run := func() []mgl64.Vec3 {
		s := NewSolver()
		NewBody(s, mgl64.Vec3{0, -5, 0}, mgl64.Vec2{50, 2}, 0, 0.5)
		NewBody(s, mgl64.Vec3{0.1, -3, 0.05}, mgl64.Vec2{2, 2}, 1, 0.5)
		NewBody(s, mgl64.Vec3{-0.1, -0.8, -0.03}, mgl64.Vec2{2, 2}, 1, 0.5)
		for i := 0; i < 120; i++ {
			s.Step(s.dt)
		}
		var poses []mgl64.Vec3
		for _, b := range s.Bodies() {
			poses = append(poses, b.Position())
		}
		return poses
	}

	first := run()
	second := run()
	if len(first) != len(second) {
		t.Fatalf("body counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("body %d poses differ bit-for-bit: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestPausedStepIsNoOp(t *testing.T) {
	s := NewSolver()
	b := NewBody(s, mgl64.Vec3{0, 10, 0}, mgl64.Vec2{1, 1}, 1, 0.5)

	s.SetPaused(true)
	before := b.Position()
	s.Step(s.dt)
	if b.Position() != before {
		t.Error("paused step moved a body")
	}

	s.SetPaused(false)
	s.Step(s.dt)
	if b.Position() == before {
		t.Error("unpaused step did not move a falling body")
	}
}

func TestMaxStepsTripsUrgentStop(t *testing.T) {
	s := NewSolver()
	b := NewBody(s, mgl64.Vec3{0, 10, 0}, mgl64.Vec2{1, 1}, 1, 0.5)
	s.MaxSteps = 3

	for i := 0; i < 10; i++ {
		s.Step(s.dt)
	}
	if !s.UrgentStop() {
		t.Fatal("step cap did not trip the urgent stop")
	}
	if s.Steps() != 3 {
		t.Errorf("ran %d steps, want 3", s.Steps())
	}

	after := b.Position()
	s.Step(s.dt)
	if b.Position() != after {
		t.Error("urgently-stopped solver still steps")
	}
}

func TestResetClearsUrgentStop(t *testing.T) {
	s := NewSolver()
	NewBody(s, mgl64.Vec3{0, 10, 0}, mgl64.Vec2{1, 1}, 1, 0.5)
	s.MaxSteps = 1
	s.Step(s.dt)
	if !s.UrgentStop() {
		t.Fatal("expected urgent stop")
	}

	s.Reset()
	if s.UrgentStop() || s.Paused() || s.Steps() != 0 {
		t.Error("reset did not clear the latched state")
	}
	if len(s.Bodies()) != 0 || len(s.forces) != 0 || len(s.energies) != 0 {
		t.Error("reset left entities behind")
	}
}

func TestIterationFloor(t *testing.T) {
	s := NewSolver()
	s.SetIterations(0)
	if s.Iterations() != 1 {
		t.Errorf("iterations = %d, want floor of 1", s.Iterations())
	}
}

func TestZeroGravityReplaced(t *testing.T) {
	s := NewSolver()
	s.SetGravity(mgl64.Vec2{0, 0})
	g := s.Gravity()
	if g[0] != 0 || g[1] != 1e-6 {
		t.Errorf("zero gravity mapped to %v, want (0, 1e-6)", g)
	}
}

func TestJointedPairSkipsContact(t *testing.T) {
	s := NewSolver()
	a := NewBody(s, mgl64.Vec3{0, 0, 0}, mgl64.Vec2{2, 2}, 0, 0.5)
	b := NewBody(s, mgl64.Vec3{1, 0, 0}, mgl64.Vec2{2, 2}, 1, 0.5)
	hard := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	NewJoint(s, a, b, mgl64.Vec2{0.5, 0}, mgl64.Vec2{-0.5, 0}, hard, math.Inf(1))

	s.Step(s.dt)

	for _, f := range s.forces {
		if _, ok := f.(*Manifold); ok {
			t.Error("broadphase opened a manifold on a jointed pair")
		}
	}
}
