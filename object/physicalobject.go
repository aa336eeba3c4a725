// Package object implements components F/G/H: PhysicalObject, the common
// base for PhysicalSphere and PhysicalCylinder, plus PhysicalBond and
// Excrescence. It also re-exports the InterObjectForce contract (component
// I), which the sibling force package declares and implements.
package object

import (
	"math"
	"math/rand"

	"github.com/bdm-go/biodynamo/force"
	"github.com/bdm-go/biodynamo/geom"
	"github.com/bdm-go/biodynamo/node"
	"github.com/bdm-go/biodynamo/substance"
)

// Color mirrors substance.Color for a PhysicalObject's own rendering hint.
type Color = substance.Color

// PhysicalObject is component F: a PhysicalNode that also carries mass,
// shape, intracellular substances, bonds, and excrescences (spec §3).
type PhysicalObject struct {
	*node.PhysicalNode

	massLocation geom.Vec3
	axisX        geom.Vec3
	axisY        geom.Vec3
	axisZ        geom.Vec3

	diameter  float64
	volume    float64
	mass      float64
	adherence float64
	color     Color

	stillExisting bool
	onScheduler   bool
	lastStepForce geom.Vec3

	intracellular map[string]*substance.IntracellularSubstance
	bonds         []*PhysicalBond
	excrescences  []*Excrescence

	lib *substance.Library

	// lengthFn, when set, returns the length used in place of diameter for
	// substances marked not volume_dependent (spec §3: "Q scales with length
	// not volume"). PhysicalCylinder sets this to its actual_length;
	// PhysicalSphere leaves it nil (diameter is the natural length proxy).
	lengthFn func() float64
}

func newPhysicalObject(position geom.Vec3, library *substance.Library, diameter float64) *PhysicalObject {
	po := &PhysicalObject{
		PhysicalNode:  node.NewEmbedded(library),
		massLocation:  position,
		axisX:         geom.Vec3{1, 0, 0},
		axisY:         geom.Vec3{0, 1, 0},
		axisZ:         geom.Vec3{0, 0, 1},
		diameter:      diameter,
		adherence:     0.1,
		stillExisting: true,
		onScheduler:   true,
		intracellular: make(map[string]*substance.IntracellularSubstance),
		lib:           library,
	}
	po.volume = sphereVolumeFromDiameter(diameter)
	po.mass = po.volume
	return po
}

func sphereVolumeFromDiameter(d float64) float64 {
	r := d / 2
	return (4.0 / 3.0) * math.Pi * r * r * r
}

func cylinderVolume(diameter, length float64) float64 {
	r := diameter / 2
	return math.Pi * r * r * length
}

// MassLocation is the world-space position this object's mechanics act on.
func (o *PhysicalObject) MassLocation() geom.Vec3 { return o.massLocation }

// Axes returns the local orthonormal (x,y,z) frame.
func (o *PhysicalObject) Axes() (x, y, z geom.Vec3) { return o.axisX, o.axisY, o.axisZ }

// Diameter, Volume, Mass, Adherence, Color are the object's scalar state.
func (o *PhysicalObject) Diameter() float64  { return o.diameter }
func (o *PhysicalObject) Volume() float64    { return o.volume }
func (o *PhysicalObject) Mass() float64      { return o.mass }
func (o *PhysicalObject) Adherence() float64 { return o.adherence }
func (o *PhysicalObject) Color() Color       { return o.color }
func (o *PhysicalObject) SetColor(c Color)   { o.color = c }

// StillExisting/OnScheduler report the object's lifecycle flags (spec §3).
func (o *PhysicalObject) StillExisting() bool { return o.stillExisting }
func (o *PhysicalObject) OnScheduler() bool   { return o.onScheduler }
func (o *PhysicalObject) SetOnScheduler(v bool) {
	o.onScheduler = v
}

// LastStepForce is the total force applied at the end of the previous
// physics sub-phase, exposed for biological modules that react to
// mechanical load.
func (o *PhysicalObject) LastStepForce() geom.Vec3 { return o.lastStepForce }

// LocalToGlobal converts a vector from the object's local axes to world
// coordinates.
func (o *PhysicalObject) LocalToGlobal(v geom.Vec3) geom.Vec3 {
	return o.axisX.Mul(v.X()).Add(o.axisY.Mul(v.Y())).Add(o.axisZ.Mul(v.Z()))
}

// GlobalToLocal is the inverse of LocalToGlobal (the axes are orthonormal,
// so this is just a dot-product projection onto each axis).
func (o *PhysicalObject) GlobalToLocal(v geom.Vec3) geom.Vec3 {
	return geom.Vec3{v.Dot(o.axisX), v.Dot(o.axisY), v.Dot(o.axisZ)}
}

// LocalToGlobalPolar converts spherical coordinates (length, phi, theta),
// expressed relative to the local axes, into a world-space direction
// vector of that length (spec §4.G "spherical direction relative to the
// local axes").
func (o *PhysicalObject) LocalToGlobalPolar(length, phi, theta float64) geom.Vec3 {
	local := geom.Vec3{
		length * math.Sin(phi) * math.Cos(theta),
		length * math.Sin(phi) * math.Sin(theta),
		length * math.Cos(phi),
	}
	return o.LocalToGlobal(local)
}

// GetIntracellularConcentration returns 0 if sub is untracked.
func (o *PhysicalObject) GetIntracellularConcentration(id string) float64 {
	if s, ok := o.intracellular[id]; ok {
		return s.Concentration
	}
	return 0
}

// SetIntracellularConcentration creates sub from the library template on
// first reference and sets its concentration, keeping Q = C * V consistent
// (spec §3's intracellular invariant). V is always the object's own volume
// here, also for substances marked not volume-dependent; the length-based
// scaling for those applies only in DiffuseWithThisPhysicalObject.
func (o *PhysicalObject) SetIntracellularConcentration(id string, concentration float64) {
	s := o.ensureIntracellular(id)
	s.Concentration = concentration
	s.SetFromVolume(o.volume)
}

// Intracellular returns the live instance for id, creating a default one
// from the library if this is the first reference.
func (o *PhysicalObject) Intracellular(id string) *substance.IntracellularSubstance {
	return o.ensureIntracellular(id)
}

// IntracellularSubstances returns every intracellular substance currently
// tracked by this object.
func (o *PhysicalObject) IntracellularSubstances() map[string]*substance.IntracellularSubstance {
	out := make(map[string]*substance.IntracellularSubstance, len(o.intracellular))
	for k, v := range o.intracellular {
		out[k] = v
	}
	return out
}

func (o *PhysicalObject) ensureIntracellular(id string) *substance.IntracellularSubstance {
	if s, ok := o.intracellular[id]; ok {
		return s
	}
	s := o.lib.IntracellularSubstanceInstance(id)
	o.intracellular[id] = s
	return s
}

// AddPhysicalBond registers a bond shared with another object; bonds are
// stored on both endpoints (spec §4.F).
func (o *PhysicalObject) AddPhysicalBond(b *PhysicalBond) {
	o.bonds = append(o.bonds, b)
}

// RemovePhysicalBond removes a bond from this object's list only; callers
// remove it from the peer separately (PhysicalBond.Release does both).
func (o *PhysicalObject) RemovePhysicalBond(b *PhysicalBond) {
	for i, cur := range o.bonds {
		if cur == b {
			o.bonds = append(o.bonds[:i], o.bonds[i+1:]...)
			return
		}
	}
}

// PhysicalBonds returns the object's current bonds.
func (o *PhysicalObject) PhysicalBonds() []*PhysicalBond { return o.bonds }

// AddExcrescence attaches a new bouton/spine to this object.
func (o *PhysicalObject) AddExcrescence(e *Excrescence) {
	o.excrescences = append(o.excrescences, e)
}

// Excrescences returns the object's owned excrescences.
func (o *PhysicalObject) Excrescences() []*Excrescence { return o.excrescences }

// contactDistance is the "distance" argument of the two-compartment
// diffusion formula (spec §4.F): for two objects sharing an edge of the
// same neurite tree, it is the cylinder length joining them; otherwise it
// is the inter-mass-location distance (the spatial-organization neighbor
// case).
func contactDistance(a, b *PhysicalObject, treeDistance float64) float64 {
	if treeDistance > 0 {
		return treeDistance
	}
	return a.massLocation.Sub(b.massLocation).Len()
}

// DiffuseWithThisPhysicalObject runs one step of inter-object diffusion
// (spec §4.F) between o and other for every intracellular substance either
// one carries, skipping substances with negligible diffusion constant.
// treeDistance, when positive, overrides the inter-center distance with the
// tree-path length (e.g. a cylinder's own actual_length toward its mother).
func (o *PhysicalObject) DiffuseWithThisPhysicalObject(other *PhysicalObject, treeDistance, dt float64) {
	distance := contactDistance(o, other, treeDistance)
	if distance < 1e-12 {
		return
	}
	ids := make(map[string]bool, len(o.intracellular)+len(other.intracellular))
	for id := range o.intracellular {
		ids[id] = true
	}
	for id := range other.intracellular {
		ids[id] = true
	}
	for id := range ids {
		sa := o.ensureIntracellular(id)
		sb := other.ensureIntracellular(id)
		d := math.Max(sa.DiffusionConstant, sb.DiffusionConstant)
		if d < 1e-14 {
			continue
		}
		va, vb := o.volumeForDiffusion(sa), other.volumeForDiffusion(sb)
		qa, qb, skip := substance.TwoCompartmentDiffuse(distance, d, sa.Quantity, sb.Quantity, va, vb, dt)
		if skip {
			continue
		}
		sa.Quantity = qa
		sa.RefreshConcentration(va)
		sb.Quantity = qb
		sb.RefreshConcentration(vb)
	}
}

func (o *PhysicalObject) volumeForDiffusion(s *substance.IntracellularSubstance) float64 {
	if s.VolumeDependent {
		return o.volume
	}
	if o.lengthFn != nil {
		return o.lengthFn()
	}
	return o.diameter
}

// RandomPerpendicular returns a unit vector perpendicular to v with a
// random phase, used when an axis update degenerates (spec §4.A).
func RandomPerpendicular(v geom.Vec3, rng *rand.Rand) geom.Vec3 {
	return geom.PerpendicularTo(v, rng)
}

// InterObjectForce is re-exported so callers only need to import object,
// not force, to implement a custom policy.
type InterObjectForce = force.InterObjectForce
