package object

import "github.com/bdm-go/biodynamo/geom"

// PhysicalBond is an elastic spring between two PhysicalObjects, attached
// at fixed local (polar) points on each (spec §3/§4.F). It may additionally
// slide along one endpoint's cylinder axis to absorb tangential motion.
type PhysicalBond struct {
	A, B *PhysicalObject

	// originOnA/originOnB are the local attachment offsets from each
	// object's mass_location, in that object's own axes.
	originOnA geom.Vec3
	originOnB geom.Vec3

	RestingLength float64
	SpringK       float64
	Damping       float64

	// OneSidedOnA/OneSidedOnB, when true, means the corresponding endpoint
	// does not itself move in response to the bond's force (e.g. a
	// synapse's presynaptic side pinned by a separate mechanism).
	OneSidedOnA bool
	OneSidedOnB bool

	// sliding, when set, is the cylinder this bond's B-side attachment
	// slides along; slideCoordinate is the distance from the cylinder's
	// proximal end.
	sliding         *PhysicalCylinder
	slideCoordinate float64
}

// NewPhysicalBond creates a bond between a and b at their current positions,
// with resting length equal to their current separation, and registers it
// on both endpoints.
func NewPhysicalBond(a, b *PhysicalObject, k, damping float64) *PhysicalBond {
	bond := &PhysicalBond{
		A: a, B: b,
		originOnA:     geom.Vec3{},
		originOnB:     geom.Vec3{},
		RestingLength: a.MassLocation().Sub(b.MassLocation()).Len(),
		SpringK:       k,
		Damping:       damping,
	}
	a.AddPhysicalBond(bond)
	b.AddPhysicalBond(bond)
	return bond
}

func (bond *PhysicalBond) attachmentWorld(obj *PhysicalObject, local geom.Vec3) geom.Vec3 {
	return obj.MassLocation().Add(obj.LocalToGlobal(local))
}

// ForceOn returns the spring+damping force this bond exerts on obj (which
// must be A or B), pulling/pushing it toward the other endpoint.
func (bond *PhysicalBond) ForceOn(obj *PhysicalObject, relativeVelocity geom.Vec3) geom.Vec3 {
	pa := bond.attachmentWorld(bond.A, bond.originOnA)
	pb := bond.attachmentWorld(bond.B, bond.originOnB)
	axis := pb.Sub(pa)
	length := axis.Len()
	if length < 1e-12 {
		return geom.Vec3{}
	}
	dir := axis.Mul(1 / length)
	stretch := length - bond.RestingLength
	scalar := bond.SpringK*stretch - bond.Damping*relativeVelocity.Dot(dir)
	force := dir.Mul(scalar)
	if obj == bond.A {
		return force
	}
	return force.Mul(-1)
}

// Release removes this bond from both endpoints (spec §4.F, "removed
// symmetrically").
func (bond *PhysicalBond) Release() {
	bond.A.RemovePhysicalBond(bond)
	bond.B.RemovePhysicalBond(bond)
}

// Other returns the endpoint opposite to obj.
func (bond *PhysicalBond) Other(obj *PhysicalObject) *PhysicalObject {
	if obj == bond.A {
		return bond.B
	}
	return bond.A
}

// SetSliding marks this bond as sliding along cyl at the given coordinate
// (distance from cyl's proximal end), used by the collision-avoidance path
// (spec §4.H "Collision check").
func (bond *PhysicalBond) SetSliding(cyl *PhysicalCylinder, coordinate float64) {
	bond.sliding = cyl
	bond.slideCoordinate = coordinate
}

// Sliding reports the cylinder this bond currently slides on, if any.
func (bond *PhysicalBond) Sliding() (*PhysicalCylinder, float64, bool) {
	if bond.sliding == nil {
		return nil, 0, false
	}
	return bond.sliding, bond.slideCoordinate, true
}

// AdvanceSlide shifts the slide coordinate by delta, migrating the bond to
// the neighboring cylinder (mother or daughter_left) if the coordinate
// exits [0, L], keeping the bond alive on the new segment (spec §4.F).
func (bond *PhysicalBond) AdvanceSlide(delta float64) {
	if bond.sliding == nil {
		return
	}
	cyl := bond.sliding
	coord := bond.slideCoordinate + delta
	L := cyl.ActualLength()
	for coord < 0 {
		mother, ok := cyl.mother.(*PhysicalCylinder)
		if !ok {
			coord = 0
			break
		}
		coord += mother.ActualLength()
		cyl = mother
		L = cyl.ActualLength()
	}
	for coord > L {
		if cyl.daughterLeft == nil {
			coord = L
			break
		}
		coord -= L
		cyl = cyl.daughterLeft
		L = cyl.ActualLength()
	}
	bond.sliding = cyl
	bond.slideCoordinate = coord
}

// Excrescence is component H's synaptic attachment point (spec §3): a
// bouton or spine on a PhysicalObject's surface, optionally paired with a
// peer excrescence on another object to form a synapse.
type ExcrescenceKind int

const (
	Bouton ExcrescenceKind = iota
	Spine
)

type Excrescence struct {
	Owner *PhysicalObject
	Kind  ExcrescenceKind

	// LocalCoordinate is the attachment point's position along the owning
	// object's axis (used to re-derive world position and, for cylinders,
	// to track redistribution across split/merge).
	LocalCoordinate geom.Vec3

	peer *Excrescence
	bond *PhysicalBond
}

// NewExcrescence attaches a new bouton/spine to owner at the given local
// coordinate.
func NewExcrescence(owner *PhysicalObject, kind ExcrescenceKind, localCoordinate geom.Vec3) *Excrescence {
	e := &Excrescence{Owner: owner, Kind: kind, LocalCoordinate: localCoordinate}
	owner.AddExcrescence(e)
	return e
}

// WorldPosition is the excrescence's current position in world space.
func (e *Excrescence) WorldPosition() geom.Vec3 {
	return e.Owner.MassLocation().Add(e.Owner.LocalToGlobal(e.LocalCoordinate))
}

// Peer returns the excrescence this one is synapsed with, if any.
func (e *Excrescence) Peer() (*Excrescence, bool) {
	if e.peer == nil {
		return nil, false
	}
	return e.peer, true
}

// SynapseWith pairs e with other (a bouton typically pairing with a spine),
// optionally creating a PhysicalBond between their owning objects so the
// synapse also has a mechanical presence (the "SimpleSynapse" scenario's
// supplemented operation).
func (e *Excrescence) SynapseWith(other *Excrescence, bond bool, k, damping float64) *PhysicalBond {
	e.peer = other
	other.peer = e
	if !bond {
		return nil
	}
	b := NewPhysicalBond(e.Owner, other.Owner, k, damping)
	e.bond = b
	other.bond = b
	return b
}

// Detach breaks any existing synapse pairing and releases the associated
// bond, if one was created.
func (e *Excrescence) Detach() {
	if e.peer != nil {
		e.peer.peer = nil
		e.peer = nil
	}
	if e.bond != nil {
		e.bond.Release()
		e.bond = nil
	}
}
