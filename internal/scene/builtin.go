package scene

import (
	"fmt"
	"math"
	"sort"
)

// Builtin scenes cover the reference setups; file-based descriptions can
// override or extend them.
var builtins = map[string]func() *Description{
	"boxstack":   boxStack,
	"pendulum":   pendulum,
	"fracture":   fracture,
	"cloth":      cloth,
	"hex":        hexCell,
	"cantilever": cantilever,
}

func Builtin(name string) (*Description, error) {
	fn, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("scene: unknown builtin %q", name)
	}
	return fn(), nil
}

func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func floor() Object {
	return Object{
		Position: [2]float64{0, -5},
		Scale:    [2]float64{50, 2},
		Friction: 0.5,
	}
}

func boxStack() *Description {
	desc := &Description{
		Name:    "boxstack",
		Gravity: [2]float64{0, -9.81},
		Static:  []Object{floor()},
	}
	for i := 0; i < 4; i++ {
		desc.Dynamic = append(desc.Dynamic, Object{
			Position: [2]float64{0, -3 + 2.1*float64(i)},
			Scale:    [2]float64{2, 2},
			Density:  1,
			Friction: 0.5,
		})
	}
	return desc
}

func pendulum() *Description {
	return &Description{
		Name:      "pendulum",
		Gravity:   [2]float64{0, -9.81},
		Hardcoded: "pendulum",
	}
}

func fracture() *Description {
	return &Description{
		Name:    "fracture",
		Gravity: [2]float64{0, -9.81},
		Static: []Object{
			floor(),
			{Position: [2]float64{0, 3}, Scale: [2]float64{1, 1}, Friction: 0.5},
		},
		Dynamic: []Object{
			{Position: [2]float64{2.5, 3}, Scale: [2]float64{4, 0.5}, Density: 2, Friction: 0.5},
		},
		JointForces: []JointForce{
			{
				BodyA:     intPtr(1),
				BodyB:     2,
				RA:        [2]float64{0.5, 0},
				RB:        [2]float64{-2, 0},
				Stiffness: [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)},
				Fracture:  100,
			},
		},
	}
}

func cloth() *Description {
	return &Description{
		Name:      "cloth",
		Gravity:   [2]float64{0, -9.81},
		Static:    []Object{floor()},
		Hardcoded: "cloth",
	}
}

func hexCell() *Description {
	return &Description{
		Name:      "hex",
		Gravity:   [2]float64{0, -9.81},
		Static:    []Object{floor()},
		Hardcoded: "hex",
	}
}

func cantilever() *Description {
	return &Description{
		Name:      "cantilever",
		Gravity:   [2]float64{0, -9.81},
		Hardcoded: "cantilever",
	}
}

func intPtr(i int) *int { return &i }
