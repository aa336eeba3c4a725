// Package force implements component I: the pluggable pairwise inter-object
// force policy that PhysicalSphere.run_physics and PhysicalCylinder's physics
// step consult for avoidance/adhesion between triangulation neighbors.
package force

import (
	"math"

	"github.com/bdm-go/biodynamo/geom"
)

// InterObjectForce is the 4-variant pairwise contract (spec §4.I). Every
// method returns the force applied to the first ("self") object; for a
// cylinder self, ProximalShare in [0,1] is the fraction of that force
// transmitted to the cylinder's proximal (mother-side) mass, the remainder
// applying to its distal mass. A zero-magnitude force is the "not in
// contact" case (spec §4.F's contact-set definition).
type InterObjectForce interface {
	SphereSphere(selfRadius float64, selfCenter geom.Vec3, otherRadius float64, otherCenter geom.Vec3) geom.Vec3
	SphereCylinder(sphereRadius float64, sphereCenter geom.Vec3, cylProximal, cylDistal geom.Vec3, cylRadius float64) geom.Vec3
	CylinderSphere(cylProximal, cylDistal geom.Vec3, cylRadius float64, sphereRadius float64, sphereCenter geom.Vec3) (f geom.Vec3, proximalShare float64)
	CylinderCylinder(selfProximal, selfDistal geom.Vec3, selfRadius float64, otherProximal, otherDistal geom.Vec3, otherRadius float64) (f geom.Vec3, proximalShare float64)
}

// Default is the smoothed hard-repulsion policy of spec §4.I.
type Default struct {
	K     float64 // repulsion stiffness
	Gamma float64 // repulsion damping-like term
}

// NewDefault returns the policy with the spec's default constants (k=2, γ=1).
func NewDefault() *Default {
	return &Default{K: 2, Gamma: 1}
}

func sphereSphere(k, gamma, r1 float64, c1 geom.Vec3, r2 float64, c2 geom.Vec3) geom.Vec3 {
	diff := c1.Sub(c2)
	dist := diff.Len()
	if dist < 1e-9 {
		dist = 1e-9
		diff = geom.Vec3{1e-9, 0, 0}
	}
	delta := r1 + r2 - dist
	if delta <= 0 {
		return geom.Vec3{}
	}
	r := r1 * r2 / (r1 + r2)
	scalar := (k*delta - gamma*math.Sqrt(r*delta)) / dist
	return diff.Mul(scalar)
}

// SphereSphere is the spec's core formula: overlap δ = r1+r2-|c1-c2|, zero
// below contact, else F = (k·δ - γ·√(r·δ))/|c1-c2| · (c1-c2) with
// r = r1·r2/(r1+r2).
func (d *Default) SphereSphere(r1 float64, c1 geom.Vec3, r2 float64, c2 geom.Vec3) geom.Vec3 {
	return sphereSphere(d.K, d.Gamma, r1, c1, r2, c2)
}

// closestPointOnSegment projects p onto segment a-b, clamped to [0,1], and
// returns the point and the clamp parameter.
func closestPointOnSegment(p, a, b geom.Vec3) (geom.Vec3, float64) {
	axis := b.Sub(a)
	lenSq := axis.Dot(axis)
	if lenSq < 1e-18 {
		return a, 0
	}
	t := p.Sub(a).Dot(axis) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return a.Add(axis.Mul(t)), t
}

// SphereCylinder projects the sphere center onto the cylinder's segment
// (clamped), then treats the closest point as a virtual sphere of the
// cylinder's radius and applies SphereSphere between the two.
func (d *Default) SphereCylinder(sphereRadius float64, sphereCenter geom.Vec3, cylProximal, cylDistal geom.Vec3, cylRadius float64) geom.Vec3 {
	closest, _ := closestPointOnSegment(sphereCenter, cylProximal, cylDistal)
	return sphereSphere(d.K, d.Gamma, sphereRadius, sphereCenter, cylRadius, closest)
}

// CylinderSphere is the mirror of SphereCylinder: the reaction force applies
// to the cylinder, split between its endpoints by the clamp parameter (the
// closer the closest point is to the proximal end, the larger its share).
func (d *Default) CylinderSphere(cylProximal, cylDistal geom.Vec3, cylRadius float64, sphereRadius float64, sphereCenter geom.Vec3) (geom.Vec3, float64) {
	closest, t := closestPointOnSegment(sphereCenter, cylProximal, cylDistal)
	onSphere := sphereSphere(d.K, d.Gamma, sphereRadius, sphereCenter, cylRadius, closest)
	return onSphere.Mul(-1), 1 - t
}

// CylinderCylinder finds the closest points on the two segments (Catmull-
// style line-line) and applies SphereSphere between the two virtual
// spheres there, splitting the self-side force by its clamp parameter.
func (d *Default) CylinderCylinder(selfProximal, selfDistal geom.Vec3, selfRadius float64, otherProximal, otherDistal geom.Vec3, otherRadius float64) (geom.Vec3, float64) {
	s, t := geom.SegmentSegmentClosestPoints(selfProximal, selfDistal, otherProximal, otherDistal)
	pSelf := selfProximal.Add(selfDistal.Sub(selfProximal).Mul(s))
	pOther := otherProximal.Add(otherDistal.Sub(otherProximal).Mul(t))
	f := sphereSphere(d.K, d.Gamma, selfRadius, pSelf, otherRadius, pOther)
	return f, 1 - s
}

// Adhesive wraps Default and adds short-range attraction below the contact
// threshold, up to Range, scaled by AdhesionK (spec §4.I, "used in Figure
// 9-style networks").
type Adhesive struct {
	Default
	AdhesionK float64
	Range     float64
}

// NewAdhesive returns an adhesive policy with the given attraction strength
// and range, built on the default repulsion constants.
func NewAdhesive(adhesionK, adhesionRange float64) *Adhesive {
	return &Adhesive{Default: Default{K: 2, Gamma: 1}, AdhesionK: adhesionK, Range: adhesionRange}
}

func (a *Adhesive) attraction(r1 float64, c1 geom.Vec3, r2 float64, c2 geom.Vec3) geom.Vec3 {
	diff := c1.Sub(c2)
	dist := diff.Len()
	if dist < 1e-9 {
		return geom.Vec3{}
	}
	gap := dist - (r1 + r2)
	if gap <= 0 || gap > a.Range {
		return geom.Vec3{}
	}
	scalar := -a.AdhesionK * (a.Range - gap) / dist
	return diff.Mul(scalar)
}

func (a *Adhesive) SphereSphere(r1 float64, c1 geom.Vec3, r2 float64, c2 geom.Vec3) geom.Vec3 {
	rep := a.Default.SphereSphere(r1, c1, r2, c2)
	if rep != (geom.Vec3{}) {
		return rep
	}
	return a.attraction(r1, c1, r2, c2)
}

func (a *Adhesive) SphereCylinder(sphereRadius float64, sphereCenter geom.Vec3, cylProximal, cylDistal geom.Vec3, cylRadius float64) geom.Vec3 {
	closest, _ := closestPointOnSegment(sphereCenter, cylProximal, cylDistal)
	return a.SphereSphere(sphereRadius, sphereCenter, cylRadius, closest)
}

func (a *Adhesive) CylinderSphere(cylProximal, cylDistal geom.Vec3, cylRadius float64, sphereRadius float64, sphereCenter geom.Vec3) (geom.Vec3, float64) {
	closest, t := closestPointOnSegment(sphereCenter, cylProximal, cylDistal)
	onSphere := a.SphereSphere(sphereRadius, sphereCenter, cylRadius, closest)
	return onSphere.Mul(-1), 1 - t
}

func (a *Adhesive) CylinderCylinder(selfProximal, selfDistal geom.Vec3, selfRadius float64, otherProximal, otherDistal geom.Vec3, otherRadius float64) (geom.Vec3, float64) {
	s, t := geom.SegmentSegmentClosestPoints(selfProximal, selfDistal, otherProximal, otherDistal)
	pSelf := selfProximal.Add(selfDistal.Sub(selfProximal).Mul(s))
	pOther := otherProximal.Add(otherDistal.Sub(otherProximal).Mul(t))
	f := a.SphereSphere(selfRadius, pSelf, otherRadius, pOther)
	return f, 1 - s
}
