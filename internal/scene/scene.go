// Package scene loads world descriptions and populates a solver from
// them. A description lists static and dynamic rectangles, joint and
// spring forces by body index, and optionally names a hardcoded fixture
// builder for the soft-body setups that need point particles.
package scene

import (
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/avbd2d/internal/engine"
)

const (
	DefaultBoundsX = 400.0
	DefaultBoundsY = 300.0

	defaultStaticColor  = "#8a8a8a"
	defaultDynamicColor = "#4fa3e3"
)

// Bounds is the rectangular world limit used by the driver to cull
// wayward bodies.
type Bounds struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Object describes one rectangle. Rotation is in degrees on the wire and
// converted to radians before use. Static entries are always built with
// zero density; a dynamic entry with zero density is built with density 1.
type Object struct {
	Position     [2]float64 `yaml:"position"`
	Rotation     float64    `yaml:"rotation"`
	InitVelocity [3]float64 `yaml:"init_velocity"`
	Scale        [2]float64 `yaml:"scale"`
	Density      float64    `yaml:"density"`
	Friction     float64    `yaml:"friction"`
	Color        string     `yaml:"color"`
}

// JointForce joins body_b to body_a, or to the world anchor ra when
// body_a is absent. Stiffness is (linear x, linear y, angular); .inf
// entries are hard rows. A zero fracture means unbreakable.
type JointForce struct {
	BodyA     *int       `yaml:"body_a"`
	BodyB     int        `yaml:"body_b"`
	RA        [2]float64 `yaml:"ra"`
	RB        [2]float64 `yaml:"rb"`
	Stiffness [3]float64 `yaml:"stiffness"`
	Fracture  float64    `yaml:"fracture"`
}

type SpringForce struct {
	BodyA      int        `yaml:"body_a"`
	BodyB      int        `yaml:"body_b"`
	RA         [2]float64 `yaml:"ra"`
	RB         [2]float64 `yaml:"rb"`
	Stiffness  float64    `yaml:"stiffness"`
	RestLength float64    `yaml:"rest_length"`
}

// Description is the wire format of a scene. Body indices count statics
// first, then dynamics, each in file order.
type Description struct {
	Name         string        `yaml:"name"`
	Gravity      [2]float64    `yaml:"gravity"`
	Bounds       *Bounds       `yaml:"bounds"`
	Static       []Object      `yaml:"static"`
	Dynamic      []Object      `yaml:"dynamic"`
	JointForces  []JointForce  `yaml:"joint_forces"`
	SpringForces []SpringForce `yaml:"spring_forces"`
	Hardcoded    string        `yaml:"hardcoded"`
}

func Load(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var desc Description
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, err
	}
	return &desc, nil
}

func Save(path string, desc *Description) error {
	data, err := yaml.Marshal(desc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// World couples a built solver with the renderer-facing body colors and
// the culling bounds.
type World struct {
	Desc   *Description
	Solver *engine.Solver
	Colors map[*engine.Body]string
	Bounds Bounds
}

// Build populates a fresh solver from the description.
func Build(desc *Description) (*World, error) {
	w := &World{
		Desc:   desc,
		Solver: engine.NewSolver(),
		Colors: make(map[*engine.Body]string),
		Bounds: Bounds{X: DefaultBoundsX, Y: DefaultBoundsY},
	}
	if desc.Bounds != nil {
		w.Bounds = *desc.Bounds
	}
	if desc.Gravity != [2]float64{} {
		w.Solver.SetGravity(mgl64.Vec2{desc.Gravity[0], desc.Gravity[1]})
	}

	var bodies []*engine.Body
	for _, o := range desc.Static {
		bodies = append(bodies, w.addObject(o, 0, defaultStaticColor))
	}
	for _, o := range desc.Dynamic {
		density := o.Density
		if density == 0 {
			density = 1
		}
		bodies = append(bodies, w.addObject(o, density, defaultDynamicColor))
	}

	for _, jf := range desc.JointForces {
		var bodyA *engine.Body
		rA := mgl64.Vec2{jf.RA[0], jf.RA[1]}
		if jf.BodyA != nil {
			b, err := bodyAt(bodies, *jf.BodyA)
			if err != nil {
				return nil, err
			}
			bodyA = b
		}
		bodyB, err := bodyAt(bodies, jf.BodyB)
		if err != nil {
			return nil, err
		}
		stiff := mgl64.Vec3{jf.Stiffness[0], jf.Stiffness[1], jf.Stiffness[2]}
		fracture := jf.Fracture
		if fracture == 0 {
			fracture = math.Inf(1)
		}
		engine.NewJoint(w.Solver, bodyA, bodyB, rA, mgl64.Vec2{jf.RB[0], jf.RB[1]}, stiff, fracture)
	}

	for _, sf := range desc.SpringForces {
		bodyA, err := bodyAt(bodies, sf.BodyA)
		if err != nil {
			return nil, err
		}
		bodyB, err := bodyAt(bodies, sf.BodyB)
		if err != nil {
			return nil, err
		}
		engine.NewSpring(w.Solver, bodyA, bodyB,
			mgl64.Vec2{sf.RA[0], sf.RA[1]}, mgl64.Vec2{sf.RB[0], sf.RB[1]},
			sf.Stiffness, sf.RestLength)
	}

	if desc.Hardcoded != "" {
		if err := buildFixture(w, desc.Hardcoded); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (w *World) addObject(o Object, density float64, fallbackColor string) *engine.Body {
	pos := mgl64.Vec3{o.Position[0], o.Position[1], o.Rotation * math.Pi / 180}
	b := engine.NewBody(w.Solver, pos, mgl64.Vec2{o.Scale[0], o.Scale[1]}, density, o.Friction)
	b.SetVelocity(mgl64.Vec3{o.InitVelocity[0], o.InitVelocity[1], o.InitVelocity[2]})
	color := o.Color
	if color == "" {
		color = fallbackColor
	}
	w.Colors[b] = color
	return b
}

func bodyAt(bodies []*engine.Body, i int) (*engine.Body, error) {
	if i < 0 || i >= len(bodies) {
		return nil, fmt.Errorf("scene: body index %d out of range (%d bodies)", i, len(bodies))
	}
	return bodies[i], nil
}

// CullOutOfBounds removes bodies outside the limit box and reports how
// many were destroyed. Call between steps only.
func (w *World) CullOutOfBounds() int {
	n := 0
	bodies := w.Solver.Bodies()
	for i := 0; i < len(bodies); {
		b := bodies[i]
		p := b.Position()
		if math.Abs(p[0]) > w.Bounds.X || math.Abs(p[1]) > w.Bounds.Y {
			delete(w.Colors, b)
			b.Destroy()
			bodies = w.Solver.Bodies()
			n++
			continue
		}
		i++
	}
	return n
}

// Reset rebuilds the world from its description: identical parameters
// yield identical trajectories.
func (w *World) Reset() error {
	w.Solver.Reset()
	fresh, err := Build(w.Desc)
	if err != nil {
		return err
	}
	w.Solver = fresh.Solver
	w.Colors = fresh.Colors
	w.Bounds = fresh.Bounds
	return nil
}
