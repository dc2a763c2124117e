package engine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Penalty bounds for every constraint row. The penalty grows monotonically
// during iteration and never exceeds min(PenaltyMax, row stiffness).
const (
	PenaltyMin = 1.0
	PenaltyMax = 1e9
)

const maxRows = 4

// Force is one constraint contributing rows to the augmented Lagrangian.
//
// Initialize runs once per step and returns false to request removal.
// ComputeConstraints fills the row values C for the current poses;
// ComputeDerivatives fills the Jacobian and Hessian rows for one
// participating body.
type Force interface {
	Bodies() []*Body
	Rows() int
	Initialize() bool
	ComputeConstraints(alpha float64)
	ComputeDerivatives(body *Body)

	draw(q *RenderQueue)
	base() *forceBase
}

// forceBase carries the per-row bookkeeping shared by every force kind:
// value, Jacobian and Hessian for the queried body, stiffness, penalty,
// dual multiplier, force bounds and fracture threshold.
type forceBase struct {
	solver *Solver
	bodies []*Body

	C         [maxRows]float64
	J         [maxRows]mgl64.Vec3
	H         [maxRows]mgl64.Mat3
	stiffness [maxRows]float64
	penalty   [maxRows]float64
	lambda    [maxRows]float64
	fmin      [maxRows]float64
	fmax      [maxRows]float64
	fracture  [maxRows]float64
}

func (f *forceBase) base() *forceBase { return f }
func (f *forceBase) Bodies() []*Body  { return f.bodies }

// Lambda and Penalty expose row state for observers and tests.
func (f *forceBase) Lambda(row int) float64  { return f.lambda[row] }
func (f *forceBase) Penalty(row int) float64 { return f.penalty[row] }

// Disabled reports whether the force has been turned dormant by fracture.
func (f *forceBase) Disabled() bool {
	for i := range f.stiffness {
		if f.stiffness[i] != 0 {
			return false
		}
	}
	return true
}

// attach registers the force with the solver and links the body
// back-references. Rows default to hard, unbounded and unbreakable.
func (f *forceBase) attach(self Force, s *Solver, bodies ...*Body) {
	f.solver = s
	f.bodies = bodies
	for j := 0; j < maxRows; j++ {
		f.stiffness[j] = math.Inf(1)
		f.penalty[j] = PenaltyMin
		f.fmin[j] = math.Inf(-1)
		f.fmax[j] = math.Inf(1)
		f.fracture[j] = math.Inf(1)
	}
	s.forces = append(s.forces, self)
	for _, b := range bodies {
		b.addForce(self)
	}
}

// disable zeroes stiffness, penalty and dual on every row. The force stays
// in the lists but contributes nothing until the scene is reset.
func (f *forceBase) disable() {
	for j := 0; j < maxRows; j++ {
		f.stiffness[j] = 0
		f.penalty[j] = 0
		f.lambda[j] = 0
	}
}
