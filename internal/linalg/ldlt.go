package linalg

import "github.com/go-gl/mathgl/mgl64"

// SolveLDLT solves a*x = b for a symmetric positive definite 3x3 matrix a
// using an LDL^T factorization. The caller is responsible for regularizing
// a to be SPD; a non-positive pivot returns ok=false and the zero vector.
func SolveLDLT(a mgl64.Mat3, b mgl64.Vec3) (mgl64.Vec3, bool) {
	d0 := a.At(0, 0)
	if d0 <= 0 {
		return mgl64.Vec3{}, false
	}
	l10 := a.At(1, 0) / d0
	l20 := a.At(2, 0) / d0

	d1 := a.At(1, 1) - l10*l10*d0
	if d1 <= 0 {
		return mgl64.Vec3{}, false
	}
	l21 := (a.At(2, 1) - l20*l10*d0) / d1

	d2 := a.At(2, 2) - l20*l20*d0 - l21*l21*d1
	if d2 <= 0 {
		return mgl64.Vec3{}, false
	}

	// Forward substitution L*y = b.
	y0 := b[0]
	y1 := b[1] - l10*y0
	y2 := b[2] - l20*y0 - l21*y1

	// Diagonal scale and back substitution L^T*x = z.
	z0 := y0 / d0
	z1 := y1 / d1
	z2 := y2 / d2

	x2 := z2
	x1 := z1 - l21*x2
	x0 := z0 - l10*x1 - l20*x2

	return mgl64.Vec3{x0, x1, x2}, true
}
