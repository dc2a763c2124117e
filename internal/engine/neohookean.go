package engine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/avbd2d/internal/linalg"
)

// NeoHookean is the stable Neo-Hookean triangle energy
// Psi = mu/2*(I1-2) + lambda/2*(J-a)^2 with a = 1 + mu/lambda, so the
// rest configuration is stress free.
type NeoHookean struct {
	triElement
}

// NewNeoHookean builds an element over three particles from Young's
// modulus and Poisson's ratio (plane strain).
func NewNeoHookean(s *Solver, a, b, c *Body, youngs, poisson float64) *NeoHookean {
	mu := youngs / (2 * (1 + poisson))
	lame := youngs * poisson / ((1 + poisson) * (1 - 2*poisson))
	e := &NeoHookean{}
	if !e.initTriElement(a, b, c, mu, lame) {
		if s.Logf != nil {
			s.Logf("neo-hookean element dropped: degenerate rest shape")
		}
		return nil
	}
	e.attachEnergy(e, s, a, b, c)
	return e
}

func (e *NeoHookean) ComputeTerms(body *Body, mode ProjectionMode, trustRatio float64) (mgl64.Vec3, mgl64.Mat3) {
	i := e.vertexIndex(body)
	if i < 0 {
		return mgl64.Vec3{}, mgl64.Mat3{}
	}

	f, j := e.deformation()
	if j <= invertEps {
		return e.inversionTerms(i, f, j)
	}

	a := 1 + e.mu/e.lame
	i1 := f[0]*f[0] + f[1]*f[1] + f[2]*f[2] + f[3]*f[3]
	e.energy = e.restArea * (0.5*e.mu*(i1-2) + 0.5*e.lame*(j-a)*(j-a))

	// P = mu*F + lambda*(J-a)*J*F^-T
	p := f.Mul(e.mu).Add(f.Inv().Transpose().Mul(e.lame * (j - a) * j))
	g2 := p.Mul2x1(e.gradN[i]).Mul(e.restArea)

	u, s, v := linalg.SVD2(f)
	s1, s2 := s[0], s[1]
	a11 := e.mu + e.lame*s2*s2
	a22 := e.mu + e.lame*s1*s1
	a12 := e.lame * (2*j - a)
	twist := e.mu + e.lame*(j-a)
	flip := e.mu - e.lame*(j-a)

	h := e.assembleHessian(u, v, a11, a22, a12, twist, flip, i, mode, trustRatio)
	return mgl64.Vec3{g2[0], g2[1], 0}, h
}

// Strain is the Frobenius norm of F-I plus the volume deviation |J-1|.
func (e *NeoHookean) Strain() float64 {
	f, j := e.deformation()
	d := f.Sub(mgl64.Ident2())
	frob := math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2] + d[3]*d[3])
	return frob + math.Abs(j-1)
}

var _ Energy = (*NeoHookean)(nil)
