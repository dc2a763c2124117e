package engine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/avbd2d/internal/linalg"
)

// Face-switching hysteresis for the separating-axis choice.
const (
	relativeTol = 0.95
	absoluteTol = 0.01
)

type edgeID uint8

const (
	noEdge edgeID = iota
	edge1
	edge2
	edge3
	edge4
)

// featurePair tags a clipped vertex with the in/out edges that produced it
// on each body. The packed key identifies a contact across steps.
type featurePair struct {
	inEdge1, outEdge1 edgeID
	inEdge2, outEdge2 edgeID
}

func (fp featurePair) key() uint32 {
	return uint32(fp.inEdge1) | uint32(fp.outEdge1)<<8 |
		uint32(fp.inEdge2)<<16 | uint32(fp.outEdge2)<<24
}

// flip swaps the body-1 and body-2 tags, so the packing tolerates a
// swapped reference body.
func (fp *featurePair) flip() {
	fp.inEdge1, fp.inEdge2 = fp.inEdge2, fp.inEdge1
	fp.outEdge1, fp.outEdge2 = fp.outEdge2, fp.outEdge1
}

type clipVertex struct {
	v  mgl64.Vec2
	fp featurePair
}

// rawContact is one narrow-phase survivor: the clip point slid onto the
// reference face, the original clip point on the incident body, the face
// normal pointing from A toward B, and the signed separation.
type rawContact struct {
	position   mgl64.Vec2
	incident   mgl64.Vec2
	normal     mgl64.Vec2
	separation float64
	feature    featurePair
	refIsA     bool
}

type faceAxis int

const (
	faceAX faceAxis = iota
	faceAY
	faceBX
	faceBY
)

func clipSegmentToLine(vIn [2]clipVertex, normal mgl64.Vec2, offset float64, clipEdge edgeID) ([2]clipVertex, int) {
	var vOut [2]clipVertex
	numOut := 0

	d0 := normal.Dot(vIn[0].v) - offset
	d1 := normal.Dot(vIn[1].v) - offset

	if d0 <= 0 {
		vOut[numOut] = vIn[0]
		numOut++
	}
	if d1 <= 0 {
		vOut[numOut] = vIn[1]
		numOut++
	}

	if d0*d1 < 0 {
		t := d0 / (d0 - d1)
		vOut[numOut].v = vIn[0].v.Add(vIn[1].v.Sub(vIn[0].v).Mul(t))
		if d0 > 0 {
			vOut[numOut].fp = vIn[0].fp
			vOut[numOut].fp.inEdge1 = clipEdge
			vOut[numOut].fp.inEdge2 = noEdge
		} else {
			vOut[numOut].fp = vIn[1].fp
			vOut[numOut].fp.outEdge1 = clipEdge
			vOut[numOut].fp.outEdge2 = noEdge
		}
		numOut++
	}

	return vOut, numOut
}

// computeIncidentEdge picks the edge of the incident box whose outward
// normal is most anti-parallel to the reference normal and returns its two
// endpoints in world space with their edge tags.
func computeIncidentEdge(h, pos mgl64.Vec2, rot mgl64.Mat2, normal mgl64.Vec2) [2]clipVertex {
	var c [2]clipVertex
	n := rot.Transpose().Mul2x1(normal).Mul(-1)

	if math.Abs(n[0]) > math.Abs(n[1]) {
		if n[0] > 0 {
			c[0].v = mgl64.Vec2{h[0], -h[1]}
			c[0].fp.inEdge2, c[0].fp.outEdge2 = edge3, edge4
			c[1].v = mgl64.Vec2{h[0], h[1]}
			c[1].fp.inEdge2, c[1].fp.outEdge2 = edge4, edge1
		} else {
			c[0].v = mgl64.Vec2{-h[0], h[1]}
			c[0].fp.inEdge2, c[0].fp.outEdge2 = edge1, edge2
			c[1].v = mgl64.Vec2{-h[0], -h[1]}
			c[1].fp.inEdge2, c[1].fp.outEdge2 = edge2, edge3
		}
	} else {
		if n[1] > 0 {
			c[0].v = mgl64.Vec2{h[0], h[1]}
			c[0].fp.inEdge2, c[0].fp.outEdge2 = edge4, edge1
			c[1].v = mgl64.Vec2{-h[0], h[1]}
			c[1].fp.inEdge2, c[1].fp.outEdge2 = edge1, edge2
		} else {
			c[0].v = mgl64.Vec2{-h[0], -h[1]}
			c[0].fp.inEdge2, c[0].fp.outEdge2 = edge2, edge3
			c[1].v = mgl64.Vec2{h[0], -h[1]}
			c[1].fp.inEdge2, c[1].fp.outEdge2 = edge3, edge4
		}
	}

	c[0].v = pos.Add(rot.Mul2x1(c[0].v))
	c[1].v = pos.Add(rot.Mul2x1(c[1].v))
	return c
}

// collideBoxes runs SAT over the four candidate face axes and, on overlap,
// Sutherland-Hodgman clips the incident edge against the reference face's
// side planes. At most two contacts survive behind the reference plane.
func collideBoxes(a, b *Body) []rawContact {
	hA := a.size.Mul(0.5)
	hB := b.size.Mul(0.5)

	posA := a.translation()
	posB := b.translation()

	rotA := a.Rotation()
	rotB := b.Rotation()
	rotAT := rotA.Transpose()
	rotBT := rotB.Transpose()

	dp := posB.Sub(posA)
	dA := rotAT.Mul2x1(dp)
	dB := rotBT.Mul2x1(dp)

	c := rotAT.Mul2(rotB)
	absC := linalg.AbsMat2(c)
	absCT := absC.Transpose()

	// SAT on box A's axes.
	faceA := mgl64.Vec2{math.Abs(dA[0]), math.Abs(dA[1])}.Sub(hA).Sub(absC.Mul2x1(hB))
	if faceA[0] > 0 || faceA[1] > 0 {
		return nil
	}

	// SAT on box B's axes.
	faceB := mgl64.Vec2{math.Abs(dB[0]), math.Abs(dB[1])}.Sub(hB).Sub(absCT.Mul2x1(hA))
	if faceB[0] > 0 || faceB[1] > 0 {
		return nil
	}

	// Reference face: largest penetration, biased against face switching.
	axis := faceAX
	separation := faceA[0]
	normal := rotA.Col(0)
	if dA[0] <= 0 {
		normal = normal.Mul(-1)
	}

	if faceA[1] > relativeTol*separation+absoluteTol*hA[1] {
		axis = faceAY
		separation = faceA[1]
		normal = rotA.Col(1)
		if dA[1] <= 0 {
			normal = normal.Mul(-1)
		}
	}
	if faceB[0] > relativeTol*separation+absoluteTol*hB[0] {
		axis = faceBX
		separation = faceB[0]
		normal = rotB.Col(0)
		if dB[0] <= 0 {
			normal = normal.Mul(-1)
		}
	}
	if faceB[1] > relativeTol*separation+absoluteTol*hB[1] {
		axis = faceBY
		normal = rotB.Col(1)
		if dB[1] <= 0 {
			normal = normal.Mul(-1)
		}
	}

	var (
		frontNormal, sideNormal mgl64.Vec2
		incidentEdge            [2]clipVertex
		front, negSide, posSide float64
		negEdge, posEdge        edgeID
	)

	switch axis {
	case faceAX:
		frontNormal = normal
		front = posA.Dot(frontNormal) + hA[0]
		sideNormal = rotA.Col(1)
		side := posA.Dot(sideNormal)
		negSide = -side + hA[1]
		posSide = side + hA[1]
		negEdge, posEdge = edge3, edge1
		incidentEdge = computeIncidentEdge(hB, posB, rotB, frontNormal)
	case faceAY:
		frontNormal = normal
		front = posA.Dot(frontNormal) + hA[1]
		sideNormal = rotA.Col(0)
		side := posA.Dot(sideNormal)
		negSide = -side + hA[0]
		posSide = side + hA[0]
		negEdge, posEdge = edge2, edge4
		incidentEdge = computeIncidentEdge(hB, posB, rotB, frontNormal)
	case faceBX:
		frontNormal = normal.Mul(-1)
		front = posB.Dot(frontNormal) + hB[0]
		sideNormal = rotB.Col(1)
		side := posB.Dot(sideNormal)
		negSide = -side + hB[1]
		posSide = side + hB[1]
		negEdge, posEdge = edge3, edge1
		incidentEdge = computeIncidentEdge(hA, posA, rotA, frontNormal)
	case faceBY:
		frontNormal = normal.Mul(-1)
		front = posB.Dot(frontNormal) + hB[1]
		sideNormal = rotB.Col(0)
		side := posB.Dot(sideNormal)
		negSide = -side + hB[0]
		posSide = side + hB[0]
		negEdge, posEdge = edge2, edge4
		incidentEdge = computeIncidentEdge(hA, posA, rotA, frontNormal)
	}

	clip1, np := clipSegmentToLine(incidentEdge, sideNormal.Mul(-1), negSide, negEdge)
	if np < 2 {
		return nil
	}
	clip2, np := clipSegmentToLine(clip1, sideNormal, posSide, posEdge)
	if np < 2 {
		return nil
	}

	refIsA := axis == faceAX || axis == faceAY
	var contacts []rawContact
	for i := 0; i < 2; i++ {
		sep := frontNormal.Dot(clip2[i].v) - front
		if sep > 0 {
			continue
		}
		rc := rawContact{
			position:   clip2[i].v.Sub(frontNormal.Mul(sep)),
			incident:   clip2[i].v,
			normal:     normal,
			separation: sep,
			feature:    clip2[i].fp,
			refIsA:     refIsA,
		}
		if !refIsA {
			rc.feature.flip()
		}
		contacts = append(contacts, rc)
	}
	return contacts
}
