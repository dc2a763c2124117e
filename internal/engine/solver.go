package engine

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/avbd2d/internal/linalg"
	"github.com/san-kum/avbd2d/internal/metrics"
)

// Solver defaults.
const (
	DefaultDt         = 1.0 / 60.0
	DefaultIterations = 10
	DefaultAlpha      = 0.99
	DefaultBeta       = 1e5
	DefaultGamma      = 0.99
	DefaultBetaEnergy = 10.0
)

// Solver owns the body, force and energy lists and advances them with the
// augmented vertex block descent step. All mutation happens inside Step;
// readers may inspect state between steps only.
type Solver struct {
	bodies   []*Body
	forces   []Force
	energies []Energy

	dt                float64
	gravity           mgl64.Vec2
	iterations        int
	alpha             float64
	beta              float64
	gamma             float64
	betaEnergy        float64
	useEnergyRamp     bool
	postStabilization bool
	projection        ProjectionMode

	trustRatio  float64
	prevElastic float64

	paused     bool
	urgentStop bool

	// MaxSteps trips the urgent stop after that many steps when >= 0.
	// Negative disables the cap.
	MaxSteps int
	steps    int

	queue RenderQueue
	timer *metrics.StepTimer

	// Logf receives diagnostics; nil silences them.
	Logf func(format string, args ...any)
}

func NewSolver() *Solver {
	s := &Solver{
		dt:                DefaultDt,
		iterations:        DefaultIterations,
		alpha:             DefaultAlpha,
		beta:              DefaultBeta,
		gamma:             DefaultGamma,
		betaEnergy:        DefaultBetaEnergy,
		useEnergyRamp:     true,
		postStabilization: true,
		projection:        ProjectAdaptive,
		trustRatio:        1,
		MaxSteps:          -1,
	}
	s.SetGravity(mgl64.Vec2{0, -9.81})
	s.timer = metrics.NewStepTimer(time.Second)
	return s
}

// Parameter surface. Everything takes effect on the next Step.

// SetGravity replaces an exactly-zero gravity with a tiny downward pull so
// the adaptive warm-start weight stays well defined.
func (s *Solver) SetGravity(g mgl64.Vec2) {
	if g[0] == 0 && g[1] == 0 {
		g = mgl64.Vec2{0, 1e-6}
	}
	s.gravity = g
}

func (s *Solver) SetAlpha(a float64)      { s.alpha = linalg.Clamp(a, 0, 1) }
func (s *Solver) SetBeta(b float64)       { s.beta = b }
func (s *Solver) SetBetaEnergy(b float64) { s.betaEnergy = b }
func (s *Solver) SetGamma(g float64)      { s.gamma = linalg.Clamp(g, 0, 1) }

func (s *Solver) SetIterations(n int) {
	if n < 1 {
		n = 1
	}
	s.iterations = n
}

func (s *Solver) SetPostStabilization(on bool)       { s.postStabilization = on }
func (s *Solver) SetProjectionMode(m ProjectionMode) { s.projection = m }
func (s *Solver) SetUseEnergyRamp(on bool)           { s.useEnergyRamp = on }
func (s *Solver) SetPaused(p bool)                   { s.paused = p }

func (s *Solver) Gravity() mgl64.Vec2        { return s.gravity }
func (s *Solver) Dt() float64                { return s.dt }
func (s *Solver) Iterations() int            { return s.iterations }
func (s *Solver) Alpha() float64             { return s.alpha }
func (s *Solver) Beta() float64              { return s.beta }
func (s *Solver) Gamma() float64             { return s.gamma }
func (s *Solver) Projection() ProjectionMode { return s.projection }
func (s *Solver) Paused() bool               { return s.paused }
func (s *Solver) UrgentStop() bool           { return s.urgentStop }
func (s *Solver) Bodies() []*Body            { return s.bodies }
func (s *Solver) Steps() int                 { return s.steps }
func (s *Solver) StepTime() time.Duration    { return s.timer.Average() }

func (s *Solver) ContactsToRender() []mgl64.Vec2      { return s.queue.Points }
func (s *Solver) ContactLinesToRender() []ContactLine { return s.queue.Lines }

// ElasticEnergy sums the cached element energies.
func (s *Solver) ElasticEnergy() float64 {
	total := 0.0
	for _, e := range s.energies {
		total += e.Value()
	}
	return total
}

// Reset destroys everything and clears the latched flags. This is the only
// way to recover from an urgent stop.
func (s *Solver) Reset() {
	for len(s.bodies) > 0 {
		s.bodies[0].Destroy()
	}
	s.forces = nil
	s.energies = nil
	s.paused = false
	s.urgentStop = false
	s.steps = 0
	s.trustRatio = 1
	s.prevElastic = 0
	s.queue.reset()
	s.timer.Reset()
}

func (s *Solver) DestroyForce(f Force) {
	for _, b := range f.Bodies() {
		b.removeForce(f)
	}
	for i, ff := range s.forces {
		if ff == f {
			s.forces = append(s.forces[:i], s.forces[i+1:]...)
			return
		}
	}
}

func (s *Solver) DestroyEnergy(e Energy) {
	for _, b := range e.Bodies() {
		b.removeEnergy(e)
	}
	for i, ee := range s.energies {
		if ee == e {
			s.energies = append(s.energies[:i], s.energies[i+1:]...)
			return
		}
	}
}

func (s *Solver) fail(format string, args ...any) {
	s.urgentStop = true
	if s.Logf != nil {
		s.Logf(format, args...)
	}
}

// Step advances the world one fixed tick. A paused or urgently-stopped
// solver is a no-op.
func (s *Solver) Step(dt float64) {
	if s.paused || s.urgentStop {
		return
	}
	if math.Abs(dt-s.dt) > 0.01 && s.Logf != nil {
		s.Logf("step dt %.5f drifts from solver dt %.5f", dt, s.dt)
	}
	start := time.Now()

	s.queue.reset()
	s.broadphase()
	s.initializeForces()
	s.initializeEnergies()
	s.predictInertial(dt)
	s.iterate(dt)

	s.timer.Observe(time.Since(start), time.Now())
	s.steps++
	if s.MaxSteps >= 0 && s.steps >= s.MaxSteps {
		s.fail("step cap %d reached", s.MaxSteps)
	}
}

// broadphase admits any unconstrained pair whose bounding circles overlap
// and opens a fresh manifold for it.
func (s *Solver) broadphase() {
	for i := 0; i < len(s.bodies); i++ {
		for j := i + 1; j < len(s.bodies); j++ {
			a, b := s.bodies[i], s.bodies[j]
			if a.IsStatic() && b.IsStatic() {
				continue
			}
			dp := b.translation().Sub(a.translation())
			rr := a.radius + b.radius
			if dp.Dot(dp) > rr*rr {
				continue
			}
			if a.ConstrainedTo(b) {
				continue
			}
			NewManifold(s, a, b)
		}
	}
}

// initializeForces runs the one-shot per-step hook on every force, prunes
// the ones that ask for removal, and applies the warm-start decay to the
// dual and penalty of each row.
func (s *Solver) initializeForces() {
	for i := 0; i < len(s.forces); {
		f := s.forces[i]
		if !f.Initialize() {
			s.DestroyForce(f)
			continue
		}
		f.draw(&s.queue)

		fb := f.base()
		for j := 0; j < f.Rows(); j++ {
			if s.postStabilization {
				fb.penalty[j] *= s.gamma
			} else {
				fb.lambda[j] *= s.alpha * s.gamma
				fb.penalty[j] *= s.gamma
			}
			hi := math.Min(PenaltyMax, fb.stiffness[j])
			if hi < PenaltyMin {
				fb.penalty[j] = hi
			} else {
				fb.penalty[j] = linalg.Clamp(fb.penalty[j], PenaltyMin, hi)
			}
		}
		i++
	}
}

func (s *Solver) initializeEnergies() {
	for i := 0; i < len(s.energies); {
		e := s.energies[i]
		if !e.Initialize() {
			s.DestroyEnergy(e)
			continue
		}
		e.draw(&s.queue)

		eb := e.ebase()
		for j := 0; j < e.Rows(); j++ {
			eb.keff[j] = linalg.Clamp(s.gamma*eb.keff[j], energyStiffMin, eb.target[j])
		}
		i++
	}
}

// predictInertial clamps spin, records the step-start pose, and advances
// every dynamic body toward its free-flight prediction. The inertial
// target carries full gravity; the warm-start advance scales gravity by
// the fraction of last step's acceleration that gravity explains.
func (s *Solver) predictInertial(dt float64) {
	glen := s.gravity.Len()
	ghat := s.gravity.Mul(1 / glen)

	for _, b := range s.bodies {
		b.vel[2] = linalg.Clamp(b.vel[2], -maxAngularVelocity, maxAngularVelocity)
		b.lastPos = b.pos

		if b.IsStatic() {
			b.inertial = b.pos
			continue
		}

		accel := b.vel.Sub(b.prevVel).Mul(1 / dt)
		accelExt := accel[0]*ghat[0] + accel[1]*ghat[1]
		weight := linalg.Clamp(accelExt/glen, 0, 1)

		gdt2 := mgl64.Vec3{s.gravity[0] * dt * dt, s.gravity[1] * dt * dt, 0}
		b.inertial = b.pos.Add(b.vel.Mul(dt)).Add(gdt2)
		b.pos = b.lastPos.Add(b.vel.Mul(dt)).Add(gdt2.Mul(weight))
	}
}

func (s *Solver) iterate(dt float64) {
	total := s.iterations
	if s.postStabilization {
		total++
	}

	for it := 0; it < total; it++ {
		stabilize := s.postStabilization && it == total-1
		alphaCur := s.alpha
		if stabilize {
			alphaCur = 0
		}

		deltaPred := 0.0
		for _, b := range s.bodies {
			if b.IsStatic() {
				continue
			}
			if !s.solveBody(b, dt, alphaCur, &deltaPred) {
				return
			}
		}

		if s.projection == ProjectAdaptive {
			current := s.ElasticEnergy()
			actual := s.prevElastic - current
			if math.Abs(deltaPred) > 1e-10 {
				s.trustRatio = actual / deltaPred
			} else {
				s.trustRatio = 1
			}
			s.prevElastic = current
		}

		if !stabilize {
			s.updateDuals(alphaCur)
		}

		if it == s.iterations-1 {
			s.extractVelocities(dt)
		}
	}
}

// solveBody performs the primal block solve for one body: assemble the
// 3x3 SPD system from the mass block, every touching force row and every
// touching energy, then descend by its LDLT solution.
func (s *Solver) solveBody(b *Body, dt float64, alphaCur float64, deltaPred *float64) bool {
	massDiag := mgl64.Vec3{b.mass, b.mass, b.moment}.Mul(1 / (dt * dt))
	lhs := mgl64.Diag3(massDiag)
	rhs := lhs.Mul3x1(b.pos.Sub(b.inertial))

	for _, f := range b.forces {
		f.ComputeConstraints(alphaCur)
		f.ComputeDerivatives(b)
		fb := f.base()
		for j := 0; j < f.Rows(); j++ {
			lambdaLocal := 0.0
			if math.IsInf(fb.stiffness[j], 1) {
				lambdaLocal = fb.lambda[j]
			}
			fj := linalg.Clamp(fb.penalty[j]*fb.C[j]+lambdaLocal, fb.fmin[j], fb.fmax[j])

			// Diagonal geometric stiffness keeps the curvature of the
			// rotating Jacobian without breaking positive definiteness.
			h := fb.H[j]
			geo := mgl64.Vec3{h.Col(0).Len(), h.Col(1).Len(), h.Col(2).Len()}.Mul(math.Abs(fj))

			rhs = rhs.Add(fb.J[j].Mul(fj))
			lhs = lhs.Add(linalg.Outer3(fb.J[j], fb.J[j]).Mul(fb.penalty[j])).Add(mgl64.Diag3(geo))
		}
	}

	var energyGrad mgl64.Vec3
	for _, e := range b.energies {
		grad, hess := e.ComputeTerms(b, s.projection, s.trustRatio)
		if linalg.HasNaN3(grad) {
			s.fail("urgent stop: %v", ErrNaNGradient)
			return false
		}
		if s.useEnergyRamp {
			eb := e.ebase()
			scale := eb.keff[0] / eb.target[0]
			grad = grad.Mul(scale)
			hess = hess.Mul(scale)
			reg := grad.Len() * 0.01
			hess = hess.Add(mgl64.Diag3(mgl64.Vec3{reg, reg, reg}))
		}
		rhs = rhs.Add(grad)
		lhs = lhs.Add(hess)
		energyGrad = energyGrad.Add(grad)
	}

	dx, ok := linalg.SolveLDLT(lhs, rhs)
	if !ok {
		s.fail("urgent stop: %v", ErrNotPositiveDefinite)
		return false
	}
	b.pos = b.pos.Sub(dx)
	*deltaPred += 0.5 * dx.Dot(energyGrad)
	return true
}

// updateDuals runs the augmented-Lagrangian dual step and the penalty and
// stiffness ramps against the poses just produced by the primal pass.
func (s *Solver) updateDuals(alphaCur float64) {
	for _, f := range s.forces {
		f.ComputeConstraints(alphaCur)
		fb := f.base()
		for j := 0; j < f.Rows(); j++ {
			lambdaLocal := 0.0
			if math.IsInf(fb.stiffness[j], 1) {
				lambdaLocal = fb.lambda[j]
			}
			lam := linalg.Clamp(lambdaLocal+fb.penalty[j]*fb.C[j], fb.fmin[j], fb.fmax[j])
			fb.lambda[j] = lam

			if math.Abs(lam) >= fb.fracture[j] {
				fb.disable()
				break
			}

			// Grow the penalty only while the dual is unsaturated; a
			// saturated dual means the bound, not the constraint, is
			// active.
			if lam > fb.fmin[j] && lam < fb.fmax[j] {
				fb.penalty[j] = math.Min(fb.penalty[j]+s.beta*math.Abs(fb.C[j]),
					math.Min(fb.stiffness[j], PenaltyMax))
			}
		}
	}

	for _, e := range s.energies {
		eb := e.ebase()
		strain := e.Strain()
		for j := 0; j < e.Rows(); j++ {
			eb.keff[j] = math.Min(eb.keff[j]+s.betaEnergy*strain, eb.target[j])
		}
	}
}

// extractVelocities converts the pose delta of the main iterations into
// velocities, before any post-stabilization pass touches the poses again.
func (s *Solver) extractVelocities(dt float64) {
	for _, b := range s.bodies {
		if b.IsStatic() {
			continue
		}
		b.prevVel = b.vel
		b.vel = b.pos.Sub(b.lastPos).Mul(1 / dt)
		if b.dragged {
			b.vel = b.vel.Add(b.dragVel)
			b.dragVel = mgl64.Vec3{}
		}
	}
}
