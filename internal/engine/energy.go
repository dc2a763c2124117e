package engine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/avbd2d/internal/linalg"
)

// ProjectionMode selects how the energy Hessian eigenvalues are made
// positive before reassembly.
type ProjectionMode int

const (
	// ProjectClamp floors each eigenvalue at a small positive epsilon.
	ProjectClamp ProjectionMode = iota
	// ProjectAbsolute takes magnitudes, floored at the same epsilon.
	ProjectAbsolute
	// ProjectAdaptive picks between the two from the trust-region ratio.
	ProjectAdaptive
)

func (m ProjectionMode) String() string {
	switch m {
	case ProjectClamp:
		return "clamp"
	case ProjectAbsolute:
		return "abs"
	case ProjectAdaptive:
		return "adaptive"
	}
	return "unknown"
}

// ParseProjectionMode maps a config token to a mode; unknown tokens fall
// back to adaptive.
func ParseProjectionMode(s string) ProjectionMode {
	switch s {
	case "clamp":
		return ProjectClamp
	case "abs", "absolute":
		return ProjectAbsolute
	default:
		return ProjectAdaptive
	}
}

const (
	// Elements at or below this Jacobian determinant count as inverted.
	invertEps = 0.1
	// SPD floor for projected eigenvalues.
	projectionEps = 1e-3
	// Effective stiffness never ramps below 1.
	energyStiffMin = 1.0
)

// Energy is a per-element elastic potential contributing a gradient and an
// SPD-projected Hessian to each of its particles.
type Energy interface {
	Bodies() []*Body
	Rows() int
	Initialize() bool

	// ComputeTerms returns the raw gradient and SPD Hessian of the cached
	// energy with respect to the queried body's coordinates. The angular
	// components are zero for particles.
	ComputeTerms(body *Body, mode ProjectionMode, trustRatio float64) (mgl64.Vec3, mgl64.Mat3)

	// Value is the element's cached energy from the latest ComputeTerms.
	Value() float64

	// Strain is the element's current strain measure, driving the
	// stiffness ramp.
	Strain() float64

	draw(q *RenderQueue)
	ebase() *energyBase
}

type energyBase struct {
	solver *Solver
	bodies []*Body
	target [maxRows]float64
	keff   [maxRows]float64
	energy float64
}

func (e *energyBase) ebase() *energyBase { return e }
func (e *energyBase) Bodies() []*Body    { return e.bodies }
func (e *energyBase) Value() float64     { return e.energy }

// Stiffness exposes the ramp state for observers and tests.
func (e *energyBase) Stiffness(row int) (effective, target float64) {
	return e.keff[row], e.target[row]
}

func (e *energyBase) attachEnergy(self Energy, s *Solver, bodies ...*Body) {
	e.solver = s
	e.bodies = bodies
	s.energies = append(s.energies, self)
	for _, b := range bodies {
		b.addEnergy(self)
	}
}

// triElement is the shared finite-element machinery for a triangle of
// three particles: rest shape, shape-function gradients and Lame
// parameters.
type triElement struct {
	energyBase
	a, b, c  *Body
	dmInv    mgl64.Mat2
	restArea float64
	gradN    [3]mgl64.Vec2
	mu, lame float64
}

// initTriElement captures the rest configuration. Returns false for a
// degenerate or inverted rest triangle.
func (t *triElement) initTriElement(a, b, c *Body, mu, lame float64) bool {
	t.a, t.b, t.c = a, b, c
	t.mu, t.lame = mu, lame

	e1 := b.translation().Sub(a.translation())
	e2 := c.translation().Sub(a.translation())
	dm := mgl64.Mat2FromCols(e1, e2)
	det := dm.Det()
	if det <= 1e-12 {
		return false
	}
	t.dmInv = dm.Inv()
	t.restArea = 0.5 * det

	dmInvT := t.dmInv.Transpose()
	t.gradN[1] = dmInvT.Col(0)
	t.gradN[2] = dmInvT.Col(1)
	t.gradN[0] = t.gradN[1].Add(t.gradN[2]).Mul(-1)

	t.target[0] = mu + lame
	t.keff[0] = energyStiffMin
	return true
}

func (t *triElement) Rows() int        { return 1 }
func (t *triElement) Initialize() bool { return true }

func (t *triElement) vertexIndex(b *Body) int {
	switch b {
	case t.a:
		return 0
	case t.b:
		return 1
	case t.c:
		return 2
	}
	return -1
}

// deformation builds F = Ds * Dm^-1 from the current particle positions.
func (t *triElement) deformation() (mgl64.Mat2, float64) {
	e1 := t.b.translation().Sub(t.a.translation())
	e2 := t.c.translation().Sub(t.a.translation())
	f := mgl64.Mat2FromCols(e1, e2).Mul2(t.dmInv)
	return f, f.Det()
}

// DetF is the element's current Jacobian determinant; positive means the
// triangle keeps its rest orientation.
func (t *triElement) DetF() float64 {
	_, j := t.deformation()
	return j
}

// detGradient is dJ/dF.
func detGradient(f mgl64.Mat2) mgl64.Mat2 {
	return mgl64.Mat2FromRows(
		mgl64.Vec2{f.At(1, 1), -f.At(1, 0)},
		mgl64.Vec2{-f.At(0, 1), f.At(0, 0)},
	)
}

// inversionTerms handles J <= invertEps with a quadratic penalty pushing
// the element back toward J = invertEps.
func (t *triElement) inversionTerms(i int, f mgl64.Mat2, j float64) (mgl64.Vec3, mgl64.Mat3) {
	alpha := 3 * math.Max(t.mu, t.lame)
	t.energy = t.restArea * alpha * (invertEps - j) * (invertEps - j)

	g2 := detGradient(f).Mul2x1(t.gradN[i]).Mul(-t.restArea * alpha * (invertEps - j))

	diag := t.restArea * alpha
	var h mgl64.Mat3
	h.Set(0, 0, diag)
	h.Set(1, 1, diag)
	return mgl64.Vec3{g2[0], g2[1], 0}, h
}

func projectEigen(lam float64, mode ProjectionMode, trustRatio float64) float64 {
	switch mode {
	case ProjectAbsolute:
		return math.Max(math.Abs(lam), projectionEps)
	case ProjectAdaptive:
		if math.Abs(trustRatio-1) > 0.01 {
			return math.Max(math.Abs(lam), projectionEps)
		}
		return math.Max(lam, projectionEps)
	default:
		return math.Max(lam, projectionEps)
	}
}

func mat2Vec(m mgl64.Mat2) mgl64.Vec4 {
	return mgl64.Vec4{m[0], m[1], m[2], m[3]}
}

// assembleHessian projects the four analytic eigenvalues of d2Psi/dF2 in
// singular-value coordinates and reassembles the per-vertex 2x2 Hessian.
// The Frobenius basis is built from the eigenmodes scaling1, scaling2,
// twist = (D12-D21)/sqrt2 and flip = (D12+D21)/sqrt2 with Dij = ui (x) vj.
func (t *triElement) assembleHessian(u, v mgl64.Mat2, a11, a22, a12, twist, flip float64,
	i int, mode ProjectionMode, trustRatio float64) mgl64.Mat3 {

	// Analytic eigen-decomposition of the 2x2 scaling block.
	mean := (a11 + a22) / 2
	diff := (a11 - a22) / 2
	r := math.Hypot(diff, a12)
	lam1 := mean + r
	lam2 := mean - r
	var e1 mgl64.Vec2
	if math.Abs(a12) > 1e-12 {
		e1 = mgl64.Vec2{lam1 - a22, a12}
		e1 = e1.Mul(1 / e1.Len())
	} else if a11 >= a22 {
		e1 = mgl64.Vec2{1, 0}
	} else {
		e1 = mgl64.Vec2{0, 1}
	}
	e2 := linalg.Perp(e1)

	u1, u2 := u.Col(0), u.Col(1)
	v1, v2 := v.Col(0), v.Col(1)
	d11 := linalg.Outer2(u1, v1)
	d22 := linalg.Outer2(u2, v2)
	d12 := linalg.Outer2(u1, v2)
	d21 := linalg.Outer2(u2, v1)

	invSqrt2 := 1 / math.Sqrt2
	modes := [4]struct {
		lam float64
		m   mgl64.Mat2
	}{
		{lam1, d11.Mul(e1[0]).Add(d22.Mul(e1[1]))},
		{lam2, d11.Mul(e2[0]).Add(d22.Mul(e2[1]))},
		{twist, d12.Sub(d21).Mul(invSqrt2)},
		{flip, d12.Add(d21).Mul(invSqrt2)},
	}

	var hf mgl64.Mat4
	for _, md := range modes {
		lam := projectEigen(md.lam, mode, trustRatio)
		vec := mat2Vec(md.m)
		hf = hf.Add(linalg.Outer4(vec, vec).Mul(lam))
	}

	// Contract the Frobenius-basis Hessian with the shape gradient.
	g := t.gradN[i]
	var h2 mgl64.Mat2
	for a := 0; a < 2; a++ {
		for b := 0; b < 2; b++ {
			sum := 0.0
			for c := 0; c < 2; c++ {
				for cp := 0; cp < 2; cp++ {
					sum += hf.At(2*c+a, 2*cp+b) * g[c] * g[cp]
				}
			}
			h2.Set(a, b, sum*t.restArea)
		}
	}

	var h mgl64.Mat3
	h.Set(0, 0, h2.At(0, 0))
	h.Set(0, 1, h2.At(0, 1))
	h.Set(1, 0, h2.At(1, 0))
	h.Set(1, 1, h2.At(1, 1))
	return h
}

func (t *triElement) draw(q *RenderQueue) {
	thickness := 0.25 + 0.35*t.keff[0]/t.target[0]
	pa := t.a.translation()
	pb := t.b.translation()
	pc := t.c.translation()
	q.line(pa, pb, thickness)
	q.line(pb, pc, thickness)
	q.line(pc, pa, thickness)
}
