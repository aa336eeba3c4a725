package object

import (
	"math"
	"math/rand"

	"github.com/bdm-go/biodynamo/geom"
	"github.com/bdm-go/biodynamo/node"
	"github.com/bdm-go/biodynamo/spatial"
	"github.com/bdm-go/biodynamo/substance"
)

// PhysicalSphere is component G: a soma-like PhysicalObject with no
// internal state beyond growth/division triggers and a set of daughter
// cylinders (spec §4.G).
type PhysicalSphere struct {
	*PhysicalObject

	tr *spatial.Triangulation[node.Site]

	daughters     []*PhysicalCylinder
	daughtersCoord map[*PhysicalCylinder]geom.Vec3 // unit direction, local axes

	RotationalInertia           float64
	InterObjectForceCoefficient float64

	ForcePolicy InterObjectForce
	rng         *rand.Rand

	tractorForce geom.Vec3
}

const minSphereDiameter = 1e-3

// NewPhysicalSphere creates a sphere at position, inserts it into tr as a
// triangulation site, and registers it with library for substance lookups.
// Retries with a small jitter on ErrPositionNotAllowed (spec §4.B's
// documented retry contract).
func NewPhysicalSphere(tr *spatial.Triangulation[node.Site], rng *rand.Rand, position geom.Vec3, diameter float64, library *substance.Library, forcePolicy InterObjectForce) (*PhysicalSphere, error) {
	sp := &PhysicalSphere{
		PhysicalObject: newPhysicalObject(position, library, diameter),
		tr:             tr,
		daughtersCoord: make(map[*PhysicalCylinder]geom.Vec3),
		RotationalInertia:           0.5,
		InterObjectForceCoefficient: 1,
		ForcePolicy:                 forcePolicy,
		rng:                         rng,
	}
	sp.Attach(position, sp)

	pos := position
	start := tr.AnyTetrahedron()
	for attempt := 0; attempt < 8; attempt++ {
		_, err := tr.Insert(sp.Space(), start)
		if err == nil {
			return sp, nil
		}
		if !spatial.IsPositionNotAllowed(err) {
			return nil, err
		}
		pos = geom.Vec3{
			pos.X() + (rng.Float64()-0.5)*1e-3,
			pos.Y() + (rng.Float64()-0.5)*1e-3,
			pos.Z() + (rng.Float64()-0.5)*1e-3,
		}
		sp.massLocation = pos
		sp.Space().Position = pos
	}
	return nil, spatial.ErrPositionNotAllowed
}

// Daughters returns the cylinders attached directly to this sphere.
func (sp *PhysicalSphere) Daughters() []*PhysicalCylinder { return sp.daughters }

// SetTractorForce sets a biologically-requested force applied every physics
// step in addition to the mechanical forces (spec §4.G).
func (sp *PhysicalSphere) SetTractorForce(f geom.Vec3) { sp.tractorForce = f }

// OriginOf is PhysicalSphere's half of the Mother contract (spec §4.H):
// a daughter cylinder's proximal attachment is on the sphere's surface, in
// the direction daughtersCoord records.
func (sp *PhysicalSphere) OriginOf(daughter *PhysicalCylinder) geom.Vec3 {
	dir, ok := sp.daughtersCoord[daughter]
	if !ok {
		dir = geom.Vec3{0, 0, 1}
	}
	world := sp.LocalToGlobal(dir)
	return sp.MassLocation().Add(world.Mul(0.5 * sp.Diameter()))
}

func (sp *PhysicalSphere) removeDaughter(cyl *PhysicalCylinder) {
	for i, d := range sp.daughters {
		if d == cyl {
			sp.daughters = append(sp.daughters[:i], sp.daughters[i+1:]...)
			delete(sp.daughtersCoord, cyl)
			return
		}
	}
}

// ChangeVolume integrates a volume growth rate (speed, volume/time) over
// dt, clips to a minimum, and refreshes intracellular concentrations.
func (sp *PhysicalSphere) ChangeVolume(speed, dt float64) {
	sp.volume += speed * dt
	minVol := sphereVolumeFromDiameter(minSphereDiameter)
	if sp.volume < minVol {
		sp.volume = minVol
	}
	sp.diameter = 2 * math.Cbrt(3*sp.volume/(4*math.Pi))
	sp.mass = sp.volume
	for _, s := range sp.intracellular {
		s.RefreshConcentration(sp.volume)
	}
}

// ChangeDiameter integrates a diameter growth rate over dt, clips to a
// minimum, and refreshes intracellular concentrations.
func (sp *PhysicalSphere) ChangeDiameter(speed, dt float64) {
	sp.diameter += speed * dt
	if sp.diameter < minSphereDiameter {
		sp.diameter = minSphereDiameter
	}
	sp.volume = sphereVolumeFromDiameter(sp.diameter)
	sp.mass = sp.volume
	for _, s := range sp.intracellular {
		s.RefreshConcentration(sp.volume)
	}
}

// AddNewPhysicalCylinder creates a daughter neurite segment of the given
// length starting at the sphere surface in spherical direction (phi,
// theta) relative to the local axes, installs it in the triangulation, and
// returns it with this sphere as its mother (spec §4.G).
func (sp *PhysicalSphere) AddNewPhysicalCylinder(length, phi, theta, diameter float64, library *substance.Library) (*PhysicalCylinder, error) {
	dir := sp.LocalToGlobalPolar(1, phi, theta)
	dir = sp.ensureUnique(dir)

	cyl, err := newPhysicalCylinder(sp.tr, sp.rng, sp, dir.Mul(length), diameter, library, sp.ForcePolicy, 0)
	if err != nil {
		return nil, err
	}
	local := sp.GlobalToLocal(dir)
	sp.daughters = append(sp.daughters, cyl)
	sp.daughtersCoord[cyl] = local
	// newPhysicalCylinder placed cyl before its direction was recorded, so
	// re-anchor it at the surface point for that direction.
	cyl.massLocation = sp.OriginOf(cyl).Add(cyl.springAxis)
	if err := cyl.reposition(); err != nil {
		return nil, err
	}
	return cyl, nil
}

func (sp *PhysicalSphere) ensureUnique(dir geom.Vec3) geom.Vec3 {
	// Two daughters sharing the exact same attachment direction would make
	// OriginOf ambiguous for neither in practice, but nudge away from exact
	// duplicates defensively.
	for _, d := range sp.daughtersCoord {
		if sp.LocalToGlobal(d).Sub(dir).Len() < 1e-9 {
			dir = dir.Add(geom.RandomUnitVector(sp.rng).Mul(1e-6))
		}
	}
	return dir
}

// Divide produces a second sphere: radii split so r1^3 + r2^3 = r^3 with
// r2^3/r1^3 = vr; centers displaced along (phi, theta) by amounts inversely
// proportional to volume so the center of mass doesn't move; intracellular
// substances are partitioned (spec §4.G).
func (sp *PhysicalSphere) Divide(vr, phi, theta float64, library *substance.Library) (*PhysicalSphere, error) {
	r := sp.diameter / 2
	r3 := r * r * r
	r1_3 := r3 / (1 + vr)
	r2_3 := r3 - r1_3
	r1 := math.Cbrt(r1_3)
	r2 := math.Cbrt(r2_3)

	dir := sp.LocalToGlobalPolar(1, phi, theta)
	v1, v2 := r1_3, r2_3 // proportional to volume
	total := v1 + v2
	// Displace inversely proportional to volume: the smaller daughter moves
	// further, so v1*d1 == v2*d2 and d1+d2 == separation.
	separation := r1 + r2
	d2 := separation * v1 / total
	d1 := separation - d2

	center := sp.MassLocation()
	newCenter := center.Add(dir.Mul(d2))
	sp.massLocation = center.Sub(dir.Mul(d1))
	sp.diameter = 2 * r1
	sp.volume = sphereVolumeFromDiameter(sp.diameter)
	sp.mass = sp.volume
	if err := sp.tr.MoveTo(sp.Space(), sp.massLocation); err != nil {
		return nil, err
	}

	other, err := NewPhysicalSphere(sp.tr, sp.rng, newCenter, 2*r2, library, sp.ForcePolicy)
	if err != nil {
		return nil, err
	}
	other.axisX, other.axisY, other.axisZ = sp.axisX, sp.axisY, sp.axisZ

	for id, s := range sp.intracellular {
		thisS, otherS := s.Partition(sp.volume, other.volume)
		sp.intracellular[id] = thisS
		other.intracellular[id] = otherS
	}
	return other, nil
}

// RunPhysics computes the sphere's translational displacement for one step
// from tractor force, daughter spring reactions, triangulation-neighbor
// avoidance, bond forces, and the artificial-wall force if wallForce is
// non-nil; applies it through the triangulation if it exceeds adherence,
// clamped to maxDisplacement (spec §4.G). wallForce is nil when artificial
// walls are disabled for spheres; a caller wires it to
// ecm.ECM.WallForceForSpheres so the decision of whether to enable it
// stays in the config, not in this package.
func (sp *PhysicalSphere) RunPhysics(dt, maxDisplacement float64, wallForce func(geom.Vec3, float64) geom.Vec3) error {
	total := sp.tractorForce
	var rotationTorque geom.Vec3

	for _, d := range sp.daughters {
		forceFromDaughter := d.ForceTransmittedToMother()
		total = total.Add(forceFromDaughter)
		r := sp.LocalToGlobal(sp.daughtersCoord[d])
		rotationTorque = rotationTorque.Add(r.Cross(forceFromDaughter))
	}

	for _, neighbor := range sp.tr.Neighbors(sp.Space()) {
		total = total.Add(sp.avoidanceForceFrom(neighbor))
	}

	for _, b := range sp.bonds {
		total = total.Add(b.ForceOn(sp.PhysicalObject, geom.Vec3{}))
	}

	if wallForce != nil {
		total = total.Add(wallForce(sp.massLocation, sp.diameter/2))
	}

	sp.lastStepForce = total

	if rotationTorque.Len() > sp.RotationalInertia {
		angle := math.Pi * dt
		sp.axisX = geom.RotateAroundAxis(sp.axisX, rotationTorque, angle)
		sp.axisY = geom.RotateAroundAxis(sp.axisY, rotationTorque, angle)
		sp.axisZ = geom.RotateAroundAxis(sp.axisZ, rotationTorque, angle)
	}

	mag := total.Len()
	if mag <= sp.adherence {
		sp.onScheduler = false
		return nil
	}
	delta := total.Mul(dt / math.Max(sp.mass, 1e-12))
	if delta.Len() > maxDisplacement {
		delta = delta.Mul(maxDisplacement / delta.Len())
	}
	if err := sp.tr.Move(sp.Space(), delta); err != nil {
		return err
	}
	sp.massLocation = sp.Space().Position
	sp.onScheduler = true
	return nil
}

func (sp *PhysicalSphere) avoidanceForceFrom(other node.Site) geom.Vec3 {
	switch o := other.(type) {
	case *PhysicalSphere:
		return sp.ForcePolicy.SphereSphere(sp.diameter/2, sp.massLocation, o.diameter/2, o.massLocation)
	case *PhysicalCylinder:
		return sp.ForcePolicy.SphereCylinder(sp.diameter/2, sp.massLocation, o.ProximalEnd(), o.massLocation, o.diameter/2)
	default:
		return geom.Vec3{}
	}
}

// RunIntracellularDiffusion iterates over daughter cylinders in randomized
// order (so every substance eventually diffuses in both directions across
// many steps) and diffuses with each (spec §4.G).
func (sp *PhysicalSphere) RunIntracellularDiffusion(dt float64) {
	order := sp.rng.Perm(len(sp.daughters))
	for _, i := range order {
		d := sp.daughters[i]
		sp.DiffuseWithThisPhysicalObject(d.PhysicalObject, d.ActualLength(), dt)
	}
}
