package scene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/avbd2d/internal/engine"
)

// Hardcoded fixtures cover the setups the wire format cannot express:
// anything built from point particles. The builders are fully
// deterministic, so identical parameters reproduce identical
// trajectories.

const particleColor = "#7ec97e"

func buildFixture(w *World, name string) error {
	switch name {
	case "pendulum":
		buildPendulum(w)
	case "cloth":
		buildCloth(w, 15, 10, 1.0)
	case "hex":
		buildHexCell(w, mgl64.Vec2{0, 2}, 3.0)
	case "cantilever":
		buildCantilever(w, 20, 5, 1.0)
	default:
		return fmt.Errorf("scene: unknown hardcoded fixture %q", name)
	}
	return nil
}

// buildPendulum hangs a unit-mass particle from a world-anchored static
// point by a near-hard distance constraint of rest length 5.
func buildPendulum(w *World) {
	anchor := engine.NewBody(w.Solver, mgl64.Vec3{}, mgl64.Vec2{}, 0, 0)
	bob := engine.NewParticle(w.Solver, mgl64.Vec2{5, 0}, 1)
	w.Colors[anchor] = defaultStaticColor
	w.Colors[bob] = particleColor
	engine.NewLength(w.Solver, anchor, bob, mgl64.Vec2{}, mgl64.Vec2{}, 0, 5, math.Inf(1))
}

// buildCloth lays out an nx by ny particle grid joined by near-hard
// distance constraints, with the top corners and center pinned to the
// world.
func buildCloth(w *World, nx, ny int, spacing float64) {
	grid := make([]*engine.Body, nx*ny)
	x0 := -float64(nx-1) * spacing / 2
	y0 := 8.0

	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			p := engine.NewParticle(w.Solver,
				mgl64.Vec2{x0 + float64(i)*spacing, y0 - float64(j)*spacing}, 0.25)
			grid[j*nx+i] = p
			w.Colors[p] = particleColor
		}
	}

	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			p := grid[j*nx+i]
			if i+1 < nx {
				engine.NewLength(w.Solver, p, grid[j*nx+i+1],
					mgl64.Vec2{}, mgl64.Vec2{}, 0, spacing, math.Inf(1))
			}
			if j+1 < ny {
				engine.NewLength(w.Solver, p, grid[(j+1)*nx+i],
					mgl64.Vec2{}, mgl64.Vec2{}, 0, spacing, math.Inf(1))
			}
		}
	}

	hard := mgl64.Vec3{math.Inf(1), math.Inf(1), 0}
	for _, i := range []int{0, nx / 2, nx - 1} {
		p := grid[i]
		anchor := mgl64.Vec2{p.Position()[0], p.Position()[1]}
		engine.NewJoint(w.Solver, nil, p, anchor, mgl64.Vec2{}, hard, math.Inf(1))
	}
}

// buildHexCell places a Neo-Hookean soft cell: one central particle, six
// ring particles, six triangular elements plus soft area preservation.
func buildHexCell(w *World, center mgl64.Vec2, radius float64) {
	const (
		youngs  = 3000.0
		poisson = 0.3
	)

	hub := engine.NewParticle(w.Solver, center, 1)
	w.Colors[hub] = particleColor
	ring := make([]*engine.Body, 6)
	for k := 0; k < 6; k++ {
		a := float64(k) * math.Pi / 3
		p := engine.NewParticle(w.Solver,
			mgl64.Vec2{center[0] + radius*math.Cos(a), center[1] + radius*math.Sin(a)}, 1)
		ring[k] = p
		w.Colors[p] = particleColor
	}

	for k := 0; k < 6; k++ {
		a := ring[k]
		b := ring[(k+1)%6]
		engine.NewNeoHookean(w.Solver, hub, a, b, youngs, poisson)
		engine.NewTriArea(w.Solver, hub, a, b, 500)
	}
}

// buildCantilever builds a quads-wide by quads-high StVK beam with its
// right column pinned rigidly to the world.
func buildCantilever(w *World, quadsX, quadsY int, spacing float64) {
	const (
		mu   = 300.0
		lame = 258.0
	)

	nx, ny := quadsX+1, quadsY+1
	grid := make([]*engine.Body, nx*ny)
	x0 := -float64(quadsX) * spacing / 2
	y0 := 0.0

	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			p := engine.NewParticle(w.Solver,
				mgl64.Vec2{x0 + float64(i)*spacing, y0 + float64(j)*spacing}, 1)
			grid[j*nx+i] = p
			w.Colors[p] = particleColor
		}
	}

	for j := 0; j < quadsY; j++ {
		for i := 0; i < quadsX; i++ {
			p00 := grid[j*nx+i]
			p10 := grid[j*nx+i+1]
			p01 := grid[(j+1)*nx+i]
			p11 := grid[(j+1)*nx+i+1]
			engine.NewStVK(w.Solver, p00, p10, p01, mu, lame)
			engine.NewStVK(w.Solver, p10, p11, p01, mu, lame)
		}
	}

	hard := mgl64.Vec3{math.Inf(1), math.Inf(1), 0}
	for j := 0; j < ny; j++ {
		p := grid[j*nx+nx-1]
		anchor := mgl64.Vec2{p.Position()[0], p.Position()[1]}
		engine.NewJoint(w.Solver, nil, p, anchor, mgl64.Vec2{}, hard, math.Inf(1))
	}
}
