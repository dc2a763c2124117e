// Package linalg supplies the small fixed-size matrix operations the solver
// consumes on top of mgl64: rotations, outer products, an LDLT solve of a
// 3x3 symmetric positive definite system, and an orientation-preserving
// 2x2 singular value decomposition.
package linalg
