package engine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/avbd2d/internal/linalg"
)

// Contacts engage this far before the surfaces actually touch.
const collisionMargin = 0.0005

// stickSlop is the tangential drift below which a contact may stick.
const stickSlop = 0.01

// manifoldContact is one persistent contact feature. The stored normal
// points from body B toward body A, so the normal row value is the signed
// gap plus the collision margin: penetration drives it negative and the
// clamped-negative force separates the pair.
type manifoldContact struct {
	feature uint32
	pA, pB  mgl64.Vec2 // offsets in each body's frame
	normal  mgl64.Vec2 // world frame, B toward A

	jAn, jAt mgl64.Vec3
	jBn, jBt mgl64.Vec3
	c0       mgl64.Vec2 // (normal, tangent) at step start
	stick    bool
}

type oldContact struct {
	feature uint32
	pA, pB  mgl64.Vec2
	penalty [2]float64
	lambda  [2]float64
	stick   bool
}

// Manifold is the contact constraint between two rectangles: up to two
// persistent contact points, each contributing a normal and a tangent row
// with Coulomb friction coupling them.
type Manifold struct {
	forceBase
	bodyA, bodyB *Body
	friction     float64
	contacts     []manifoldContact
	oldContacts  []oldContact
}

func NewManifold(s *Solver, bodyA, bodyB *Body) *Manifold {
	m := &Manifold{
		bodyA:    bodyA,
		bodyB:    bodyB,
		friction: math.Sqrt(bodyA.friction * bodyB.friction),
	}
	m.attach(m, s, bodyA, bodyB)
	return m
}

func (m *Manifold) Rows() int { return 2 * len(m.contacts) }

// Contacts exposes the live contact set for observers and tests.
func (m *Manifold) Contacts() int { return len(m.contacts) }

func (m *Manifold) Stick(i int) bool      { return m.contacts[i].stick }
func (m *Manifold) FeatureID(i int) uint32 { return m.contacts[i].feature }

// Initialize re-collides the pair, merges warm-start state from the
// previous step's contacts by feature ID, and precomputes the normal and
// tangent Jacobians. Returns false when the pair has separated.
func (m *Manifold) Initialize() bool {
	m.oldContacts = m.oldContacts[:0]
	for i, c := range m.contacts {
		m.oldContacts = append(m.oldContacts, oldContact{
			feature: c.feature,
			pA:      c.pA,
			pB:      c.pB,
			penalty: [2]float64{m.penalty[2*i], m.penalty[2*i+1]},
			lambda:  [2]float64{m.lambda[2*i], m.lambda[2*i+1]},
			stick:   c.stick,
		})
	}

	raw := collideBoxes(m.bodyA, m.bodyB)
	if len(raw) == 0 {
		return false
	}

	rotAT := m.bodyA.Rotation().Transpose()
	rotBT := m.bodyB.Rotation().Transpose()
	posA := m.bodyA.translation()
	posB := m.bodyB.translation()

	m.contacts = m.contacts[:0]
	for _, rc := range raw {
		var c manifoldContact
		c.feature = rc.feature.key()
		c.normal = rc.normal.Mul(-1)

		// The slid point lies on the reference face, the pre-slid clip
		// point on the incident body; the difference encodes penetration.
		if rc.refIsA {
			c.pA = rotAT.Mul2x1(rc.position.Sub(posA))
			c.pB = rotBT.Mul2x1(rc.incident.Sub(posB))
		} else {
			c.pA = rotAT.Mul2x1(rc.incident.Sub(posA))
			c.pB = rotBT.Mul2x1(rc.position.Sub(posB))
		}
		m.contacts = append(m.contacts, c)
	}

	for i := range m.contacts {
		c := &m.contacts[i]

		m.stiffness[2*i] = math.Inf(1)
		m.stiffness[2*i+1] = math.Inf(1)
		m.penalty[2*i] = PenaltyMin
		m.penalty[2*i+1] = PenaltyMin
		m.lambda[2*i] = 0
		m.lambda[2*i+1] = 0
		m.fracture[2*i] = math.Inf(1)
		m.fracture[2*i+1] = math.Inf(1)

		// Pushing-only normal row; the tangent bounds are refreshed from
		// the friction cone every iteration.
		m.fmin[2*i] = math.Inf(-1)
		m.fmax[2*i] = 0
		m.fmin[2*i+1] = 0
		m.fmax[2*i+1] = 0

		for _, old := range m.oldContacts {
			if old.feature != c.feature {
				continue
			}
			m.penalty[2*i] = old.penalty[0]
			m.penalty[2*i+1] = old.penalty[1]
			m.lambda[2*i] = old.lambda[0]
			m.lambda[2*i+1] = old.lambda[1]
			c.stick = old.stick
			if old.stick {
				// Static friction resists motion relative to the
				// persistent contact point, not the regenerated one.
				c.pA = old.pA
				c.pB = old.pB
			}
			break
		}

		n := c.normal
		t := mgl64.Vec2{n[1], -n[0]}
		armA := m.bodyA.Rotation().Mul2x1(c.pA)
		armB := m.bodyB.Rotation().Mul2x1(c.pB)

		c.jAn = mgl64.Vec3{n[0], n[1], linalg.Cross2(armA, n)}
		c.jAt = mgl64.Vec3{t[0], t[1], linalg.Cross2(armA, t)}
		c.jBn = mgl64.Vec3{-n[0], -n[1], -linalg.Cross2(armB, n)}
		c.jBt = mgl64.Vec3{-t[0], -t[1], -linalg.Cross2(armB, t)}

		d := posA.Add(armA).Sub(posB.Add(armB))
		c.c0 = mgl64.Vec2{n.Dot(d) + collisionMargin, t.Dot(d)}
	}
	return true
}

// ComputeConstraints evaluates the linearized rows
// C = (1-alpha)*C0 + J*(q - q_last) and refreshes the Coulomb cone from
// the current normal dual.
func (m *Manifold) ComputeConstraints(alpha float64) {
	dqA := m.bodyA.pos.Sub(m.bodyA.lastPos)
	dqB := m.bodyB.pos.Sub(m.bodyB.lastPos)

	for i := range m.contacts {
		c := &m.contacts[i]
		m.C[2*i] = (1-alpha)*c.c0[0] + c.jAn.Dot(dqA) + c.jBn.Dot(dqB)
		m.C[2*i+1] = (1-alpha)*c.c0[1] + c.jAt.Dot(dqA) + c.jBt.Dot(dqB)

		cone := m.friction * math.Abs(m.lambda[2*i])
		m.fmax[2*i+1] = cone
		m.fmin[2*i+1] = -cone

		c.stick = math.Abs(m.lambda[2*i+1]) < cone && math.Abs(c.c0[1]) < stickSlop
	}
}

func (m *Manifold) ComputeDerivatives(body *Body) {
	for i := range m.contacts {
		c := &m.contacts[i]
		if body == m.bodyA {
			m.J[2*i] = c.jAn
			m.J[2*i+1] = c.jAt
		} else {
			m.J[2*i] = c.jBn
			m.J[2*i+1] = c.jBt
		}
		m.H[2*i] = mgl64.Mat3{}
		m.H[2*i+1] = mgl64.Mat3{}
	}
}

func (m *Manifold) draw(q *RenderQueue) {
	for i := range m.contacts {
		q.point(m.bodyA.WorldPoint(m.contacts[i].pA))
	}
}

var _ Force = (*Manifold)(nil)
