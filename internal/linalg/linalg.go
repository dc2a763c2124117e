package linalg

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Rotation returns the 2x2 rotation matrix for angle theta.
func Rotation(theta float64) mgl64.Mat2 {
	return mgl64.Rotate2D(theta)
}

// Perp returns the 90 degree counter-clockwise rotation of v.
func Perp(v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{-v[1], v[0]}
}

// Cross2 is the scalar 2D cross product a.x*b.y - a.y*b.x.
func Cross2(a, b mgl64.Vec2) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// SafeNormalize returns the unit vector of v, or the zero vector when v is
// degenerate.
func SafeNormalize(v mgl64.Vec2) mgl64.Vec2 {
	l := v.Len()
	if l < 1e-12 {
		return mgl64.Vec2{}
	}
	return v.Mul(1 / l)
}

// AbsMat2 returns the element-wise absolute value of m.
func AbsMat2(m mgl64.Mat2) mgl64.Mat2 {
	var r mgl64.Mat2
	for i := range m {
		r[i] = math.Abs(m[i])
	}
	return r
}

// Outer2, Outer3 and Outer4 wrap the mgl64 outer products so call sites
// read uniformly.
func Outer2(a, b mgl64.Vec2) mgl64.Mat2 { return a.OuterProd2(b) }
func Outer3(a, b mgl64.Vec3) mgl64.Mat3 { return a.OuterProd3(b) }
func Outer4(a, b mgl64.Vec4) mgl64.Mat4 { return a.OuterProd4(b) }

// HasNaN2 reports whether either component of v is NaN.
func HasNaN2(v mgl64.Vec2) bool {
	return math.IsNaN(v[0]) || math.IsNaN(v[1])
}

// HasNaN3 reports whether any component of v is NaN.
func HasNaN3(v mgl64.Vec3) bool {
	return math.IsNaN(v[0]) || math.IsNaN(v[1]) || math.IsNaN(v[2])
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
