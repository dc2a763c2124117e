package engine

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestCollideSeparatedBoxes(t *testing.T) {
	s := NewSolver()
	a := NewBody(s, mgl64.Vec3{0, 0, 0}, mgl64.Vec2{2, 2}, 1, 0.5)
	b := NewBody(s, mgl64.Vec3{5, 0, 0}, mgl64.Vec2{2, 2}, 1, 0.5)

	if got := collideBoxes(a, b); got != nil {
		t.Errorf("separated boxes produced %d contacts", len(got))
	}
}

func TestCollideRestingBox(t *testing.T) {
	s := NewSolver()
	floor := NewBody(s, mgl64.Vec3{0, -5, 0}, mgl64.Vec2{50, 2}, 0, 0.5)
	// Slight overlap with the floor's top face at y = -4.
	box := NewBody(s, mgl64.Vec3{0, -3.51, 0}, mgl64.Vec2{1, 1}, 1, 0.5)

	contacts := collideBoxes(floor, box)
	if len(contacts) != 2 {
		t.Fatalf("got %d contacts, want 2", len(contacts))
	}
	if contacts[0].feature.key() == contacts[1].feature.key() {
		t.Error("contacts in one manifold share a feature id")
	}
	for _, c := range contacts {
		if c.separation > 0 {
			t.Errorf("survivor has positive separation %f", c.separation)
		}
		// Reference is the floor's top face: normal points up toward the box.
		if math.Abs(c.normal[0]) > 1e-9 || math.Abs(c.normal[1]-1) > 1e-9 {
			t.Errorf("normal = %v, want (0, 1)", c.normal)
		}
		if math.Abs(c.position[1]-(-4)) > 1e-9 {
			t.Errorf("contact not slid onto the reference face: y = %f", c.position[1])
		}
	}
}

func TestCollideDeepOverlapSeparation(t *testing.T) {
	s := NewSolver()
	a := NewBody(s, mgl64.Vec3{0, 0, 0}, mgl64.Vec2{2, 2}, 1, 0.5)
	b := NewBody(s, mgl64.Vec3{1.5, 0, 0}, mgl64.Vec2{2, 2}, 1, 0.5)

	contacts := collideBoxes(a, b)
	if len(contacts) == 0 {
		t.Fatal("overlapping boxes produced no contacts")
	}
	for _, c := range contacts {
		if math.Abs(c.separation-(-0.5)) > 1e-9 {
			t.Errorf("separation = %f, want -0.5", c.separation)
		}
	}
}

func TestCollideRotatedBox(t *testing.T) {
	s := NewSolver()
	floor := NewBody(s, mgl64.Vec3{0, -5, 0}, mgl64.Vec2{50, 2}, 0, 0.5)
	// A box tilted 45 degrees with its corner just inside the floor face.
	box := NewBody(s, mgl64.Vec3{0, -4 + math.Sqrt2/2 - 0.01, math.Pi / 4}, mgl64.Vec2{1, 1}, 1, 0.5)

	contacts := collideBoxes(floor, box)
	if len(contacts) == 0 {
		t.Fatal("corner-touching box produced no contacts")
	}
	for _, c := range contacts {
		if c.separation > 0 {
			t.Errorf("positive separation %f", c.separation)
		}
	}
}

func TestFeaturePairFlipIsInvolution(t *testing.T) {
	fp := featurePair{inEdge1: edge1, outEdge1: edge2, inEdge2: edge3, outEdge2: edge4}
	orig := fp
	fp.flip()
	if fp == orig {
		t.Error("flip changed nothing")
	}
	fp.flip()
	if fp != orig {
		t.Error("double flip is not the identity")
	}
}

func TestCollideParticleAgainstBox(t *testing.T) {
	s := NewSolver()
	floor := NewBody(s, mgl64.Vec3{0, -5, 0}, mgl64.Vec2{50, 2}, 0, 0.5)
	p := NewParticle(s, mgl64.Vec2{0, -4.1}, 1)

	contacts := collideBoxes(floor, p)
	if len(contacts) == 0 {
		t.Fatal("particle inside the floor produced no contacts")
	}
	for _, c := range contacts {
		if c.separation > 0 {
			t.Errorf("positive separation %f", c.separation)
		}
	}
}
