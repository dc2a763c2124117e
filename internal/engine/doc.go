// Package engine implements a 2D rigid and soft body simulation built on
// Augmented Vertex Block Descent: a primal-dual block coordinate descent on
// the augmented Lagrangian of the constraint system.
//
// A [Solver] owns three flat lists: bodies, forces (constraint rows) and
// energies (finite-element triangles). Each call to [Solver.Step] performs
// one fixed tick: broadphase pairing, force and energy warm starting, an
// inertial prediction, N primal-dual iterations and a velocity update.
//
// Forces implement the [Force] operation set {Initialize,
// ComputeConstraints, ComputeDerivatives}; the concrete kinds are [Joint],
// [Spring], [Length], [TriArea] and the box-box contact [Manifold].
// Energies implement [Energy] with the hyperelastic models [NeoHookean]
// and [StVK].
package engine
