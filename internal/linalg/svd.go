package linalg

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SVD2 decomposes f = u * diag(s) * v^T with u and v proper rotations.
// When det(f) < 0 the smaller singular value s[1] carries the negative
// sign, which keeps det(u*v^T) = +1 as the energy Hessian projection
// requires.
func SVD2(f mgl64.Mat2) (u mgl64.Mat2, s mgl64.Vec2, v mgl64.Mat2) {
	e := (f.At(0, 0) + f.At(1, 1)) / 2
	fd := (f.At(0, 0) - f.At(1, 1)) / 2
	g := (f.At(1, 0) + f.At(0, 1)) / 2
	h := (f.At(1, 0) - f.At(0, 1)) / 2

	q := math.Hypot(e, h)
	r := math.Hypot(fd, g)
	s = mgl64.Vec2{q + r, q - r}

	a1 := math.Atan2(g, fd)
	a2 := math.Atan2(h, e)
	theta := (a2 - a1) / 2
	phi := (a2 + a1) / 2

	u = Rotation(phi)
	v = Rotation(-theta)

	// Both factors are rotations by construction; flip the reflection into
	// the smaller singular value if a degenerate input slipped through.
	if u.Det()*v.Det() < 0 {
		s[1] = -s[1]
		v = v.Mul2(mgl64.Diag2(mgl64.Vec2{1, -1}))
	}
	return u, s, v
}
