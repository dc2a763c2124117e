package engine_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/avbd2d/internal/engine"
	"github.com/san-kum/avbd2d/internal/scene"
)

func stepFor(s *engine.Solver, seconds float64) {
	n := int(seconds / s.Dt())
	for i := 0; i < n; i++ {
		s.Step(s.Dt())
	}
}

var _ = Describe("pendulum from a world anchor", func() {
	It("keeps its length and swings back", func() {
		w, err := scene.Build(mustBuiltin("pendulum"))
		Expect(err).NotTo(HaveOccurred())
		s := w.Solver

		var bob *engine.Body
		for _, b := range s.Bodies() {
			if !b.IsStatic() {
				bob = b
			}
		}
		Expect(bob).NotTo(BeNil())

		crossedBack := false
		minX := 5.0
		for i := 0; i < int(5.0/s.Dt()); i++ {
			s.Step(s.Dt())
			p := bob.Position()
			r := math.Hypot(p[0], p[1])
			Expect(r).To(BeNumerically("~", 5, 0.1))
			if p[0] < minX {
				minX = p[0]
			}
			if p[0] > 2 && i > 60 && minX < -2 {
				crossedBack = true
			}
		}
		Expect(s.UrgentStop()).To(BeFalse())
		Expect(crossedBack).To(BeTrue(), "bob never completed a swing")
	})
})

var _ = Describe("fracturing joint", func() {
	It("disables once the angular dual crosses the threshold and the bodies separate", func() {
		s := engine.NewSolver()
		mount := engine.NewBody(s, mgl64.Vec3{0, 3, 0}, mgl64.Vec2{1, 1}, 0, 0.5)
		arm := engine.NewBody(s, mgl64.Vec3{2.5, 3, 0}, mgl64.Vec2{4, 0.5}, 2, 0.5)
		hard := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
		j := engine.NewJoint(s, mount, arm, mgl64.Vec2{0.5, 0}, mgl64.Vec2{-2, 0}, hard, 0.05)

		stepFor(s, 3)

		Expect(j.Disabled()).To(BeTrue())
		Expect(arm.Position()[1]).To(BeNumerically("<", 2),
			"arm still held up after fracture")
	})
})

var _ = Describe("neo-hookean hex cell", func() {
	It("deforms against the floor without inverting", func() {
		w, err := scene.Build(mustBuiltin("hex"))
		Expect(err).NotTo(HaveOccurred())
		s := w.Solver

		for i := 0; i < int(3.0/s.Dt()); i++ {
			s.Step(s.Dt())
		}
		Expect(s.UrgentStop()).To(BeFalse())

		elements := 0
		for _, b := range s.Bodies() {
			Expect(math.IsNaN(b.Position()[0])).To(BeFalse())
			Expect(math.IsNaN(b.Position()[1])).To(BeFalse())
			for _, e := range b.Energies() {
				if nh, ok := e.(*engine.NeoHookean); ok {
					Expect(nh.DetF()).To(BeNumerically(">", 0.2))
					elements++
				}
			}
		}
		Expect(elements).To(BeNumerically(">", 0))
	})
})

var _ = Describe("stvk cantilever beam", func() {
	It("sags at the free end and stays finite", func() {
		w, err := scene.Build(mustBuiltin("cantilever"))
		Expect(err).NotTo(HaveOccurred())
		s := w.Solver
		s.SetUseEnergyRamp(false)

		// Left-most bottom particle is the free tip.
		var tip *engine.Body
		for _, b := range s.Bodies() {
			if tip == nil || b.Position()[0] < tip.Position()[0] {
				tip = b
			}
		}
		tipStart := tip.Position()[1]

		for i := 0; i < int(2.0/s.Dt()); i++ {
			s.Step(s.Dt())
		}
		Expect(s.UrgentStop()).To(BeFalse())

		for _, b := range s.Bodies() {
			Expect(math.IsNaN(b.Position()[1])).To(BeFalse())
			for _, e := range b.Energies() {
				if sv, ok := e.(*engine.StVK); ok {
					Expect(sv.DetF()).To(BeNumerically(">", 0))
				}
			}
		}
		Expect(tip.Position()[1]).To(BeNumerically("<", tipStart),
			"free end never deflected downward")
	})
})

func mustBuiltin(name string) *scene.Description {
	desc, err := scene.Builtin(name)
	Expect(err).NotTo(HaveOccurred())
	return desc
}
