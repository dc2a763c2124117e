package engine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/avbd2d/internal/linalg"
)

// StVK is the Saint Venant-Kirchhoff triangle energy over the Green strain
// L = (F^T F - I)/2: Psi = mu*tr(L^2) + lambda/2*tr(L)^2.
type StVK struct {
	triElement
}

// NewStVK builds an element over three particles from the Lame parameters
// directly.
func NewStVK(s *Solver, a, b, c *Body, mu, lame float64) *StVK {
	e := &StVK{}
	if !e.initTriElement(a, b, c, mu, lame) {
		if s.Logf != nil {
			s.Logf("stvk element dropped: degenerate rest shape")
		}
		return nil
	}
	e.attachEnergy(e, s, a, b, c)
	return e
}

func (e *StVK) green() (mgl64.Mat2, mgl64.Mat2, float64) {
	f, j := e.deformation()
	l := f.Transpose().Mul2(f).Sub(mgl64.Ident2()).Mul(0.5)
	return f, l, j
}

func (e *StVK) ComputeTerms(body *Body, mode ProjectionMode, trustRatio float64) (mgl64.Vec3, mgl64.Mat3) {
	i := e.vertexIndex(body)
	if i < 0 {
		return mgl64.Vec3{}, mgl64.Mat3{}
	}

	f, l, j := e.green()
	if j <= invertEps {
		return e.inversionTerms(i, f, j)
	}

	trL := l.Trace()
	l2 := l.Mul2(l)
	e.energy = e.restArea * (e.mu*l2.Trace() + 0.5*e.lame*trL*trL)

	// P = F*(2*mu*L + lambda*tr(L)*I)
	p := f.Mul2(l.Mul(2 * e.mu).Add(mgl64.Ident2().Mul(e.lame * trL)))
	g2 := p.Mul2x1(e.gradN[i]).Mul(e.restArea)

	u, s, v := linalg.SVD2(f)
	s1, s2 := s[0], s[1]
	l1 := (s1*s1 - 1) / 2
	l2d := (s2*s2 - 1) / 2
	tr := l1 + l2d

	a11 := 2*e.mu*l1 + e.lame*tr + (2*e.mu+e.lame)*s1*s1
	a22 := 2*e.mu*l2d + e.lame*tr + (2*e.mu+e.lame)*s2*s2
	a12 := e.lame * s1 * s2
	twist := e.mu*(s1*s1-s1*s2+s2*s2-1) + e.lame*tr
	flip := e.mu*(s1*s1+s1*s2+s2*s2-1) + e.lame*tr

	h := e.assembleHessian(u, v, a11, a22, a12, twist, flip, i, mode, trustRatio)
	return mgl64.Vec3{g2[0], g2[1], 0}, h
}

// Strain is the Frobenius norm of the Green strain plus |tr L|.
func (e *StVK) Strain() float64 {
	_, l, _ := e.green()
	frob := math.Sqrt(l[0]*l[0] + l[1]*l[1] + l[2]*l[2] + l[3]*l[3])
	return frob + math.Abs(l.Trace())
}

var _ Energy = (*StVK)(nil)
