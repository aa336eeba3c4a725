// Package node implements component D (PhysicalNode) and component C (the
// movement listener that conserves extracellular substance mass across
// triangulation topology changes), since both are tightly coupled: the
// listener only ever touches PhysicalNode's own substance map.
package node

import (
	"sync"

	"github.com/bdm-go/biodynamo/geom"
	"github.com/bdm-go/biodynamo/spatial"
	"github.com/bdm-go/biodynamo/substance"
	"github.com/google/uuid"
)

// unitSubstanceID is reserved: querying its concentration always returns 1.0
// (spec §4.D, "the identifier U ... reserved for unit").
const unitSubstanceID = "U"

// Site is what the triangulation stores as a SpaceNode payload (spec §3's
// "PhysicalObject : PhysicalNode" inheritance, expressed as interface
// satisfaction rather than embedding: PhysicalNode, PhysicalSphere, and
// PhysicalCylinder all implement Site and coexist as vertices of the same
// Triangulation[Site]).
type Site interface {
	ID() uuid.UUID
	GetExtracellularConcentration(id string) float64
	SetExtracellularQuantity(id string, quantity float64)
	Substance(id string) (*substance.Instance, bool)
	Substances() map[string]*substance.Instance
}

// PhysicalNode is a site of the triangulation (component D): it owns a
// SpaceNode and a map of extracellular substances. PhysicalSphere and
// PhysicalCylinder wrap an embedded PhysicalNode (via NewEmbedded+Attach) so
// they can serve as triangulation sites in their own right; "dummy" nodes
// (placed purely to stabilize the mesh) are bare PhysicalNodes with no
// further behavior.
type PhysicalNode struct {
	mu sync.Mutex

	id    uuid.UUID
	space *spatial.SpaceNode[Site]

	library    *substance.Library
	substances map[string]*substance.Instance
	listener   *ConservationListener
}

// NewEmbedded constructs a PhysicalNode with no SpaceNode yet attached, for
// use by wrapper types (PhysicalObject and its descendants) that need to
// attach themselves, rather than the bare PhysicalNode, as the triangulation
// payload. Call Attach before the node is inserted into any triangulation.
func NewEmbedded(library *substance.Library) *PhysicalNode {
	return &PhysicalNode{
		id:         uuid.New(),
		library:    library,
		substances: make(map[string]*substance.Instance),
		listener:   NewConservationListener(),
	}
}

// Attach creates this node's SpaceNode at position with the given payload
// (the outer wrapper type for PhysicalObject descendants, or n itself for
// bare PhysicalNodes) and registers the mass-conservation listener.
func (n *PhysicalNode) Attach(position geom.Vec3, payload Site) {
	n.space = spatial.NewSpaceNode(position, payload)
	n.space.AddListener(n.listener)
}

// New constructs a detached, self-attached "dummy" PhysicalNode at position.
// It is not part of any triangulation until Triangulation.Insert is called
// with its Space() node.
func New(position geom.Vec3, library *substance.Library) *PhysicalNode {
	n := NewEmbedded(library)
	n.Attach(position, n)
	return n
}

// ID is the node's stable identity.
func (n *PhysicalNode) ID() uuid.UUID { return n.id }

// Space returns the underlying triangulation vertex.
func (n *PhysicalNode) Space() *spatial.SpaceNode[Site] { return n.space }

// Position is a convenience accessor for the node's current site location.
func (n *PhysicalNode) Position() geom.Vec3 { return n.space.Position }

// Volume is the Voronoi-like volume the triangulation currently attributes
// to this node.
func (n *PhysicalNode) Volume() float64 { return n.space.Volume }

// GetExtracellularConcentration returns the concentration of substance id at
// this node, 0 if the node has never seen it, or 1.0 for the reserved "unit"
// id.
func (n *PhysicalNode) GetExtracellularConcentration(id string) float64 {
	if id == unitSubstanceID {
		return 1.0
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if s, ok := n.substances[id]; ok {
		return s.Concentration
	}
	return 0
}

// SetExtracellularConcentration sets the concentration of substance id,
// creating it from the library template if not already present, and keeps
// Q = C * V consistent.
func (n *PhysicalNode) SetExtracellularConcentration(id string, concentration float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	s := n.ensureSubstanceLocked(id)
	s.Concentration = concentration
	s.SetFromVolume(n.space.Volume)
}

// ModifyExtracellularQuantity integrates a rate of change (quantity per unit
// time) over dt into substance id's quantity, then refreshes its
// concentration from the node's current volume (§4.D).
func (n *PhysicalNode) ModifyExtracellularQuantity(id string, dqPerTime, dt float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	s := n.ensureSubstanceLocked(id)
	s.Quantity += dqPerTime * dt
	if s.Quantity < 0 {
		s.Quantity = 0
	}
	s.RefreshConcentration(n.space.Volume)
}

// SetExtracellularQuantity directly sets substance id's quantity (used by
// the conservation listener to apply its mass-conservation rescaling) and
// refreshes concentration from the node's current volume.
func (n *PhysicalNode) SetExtracellularQuantity(id string, quantity float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	s := n.ensureSubstanceLocked(id)
	s.Quantity = quantity
	s.RefreshConcentration(n.space.Volume)
}

// Substance returns the live substance instance for id if present.
func (n *PhysicalNode) Substance(id string) (*substance.Instance, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	s, ok := n.substances[id]
	return s, ok
}

// Substances returns every extracellular substance currently tracked here.
func (n *PhysicalNode) Substances() map[string]*substance.Instance {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make(map[string]*substance.Instance, len(n.substances))
	for k, v := range n.substances {
		out[k] = v
	}
	return out
}

func (n *PhysicalNode) ensureSubstanceLocked(id string) *substance.Instance {
	if s, ok := n.substances[id]; ok {
		return s
	}
	s := n.library.SubstanceInstance(id)
	n.substances[id] = s
	return s
}

// ComputeConcentrationAtDistanceBasedOnGradient extrapolates the
// concentration of sub at a point offset by delta from this node, using a
// simple linear (Taylor) extrapolation along whatever local gradient the
// caller supplies — used by the movement listener when the destination
// doesn't fall inside any located tetrahedron (§4.D, §4.C).
func ComputeConcentrationAtDistanceBasedOnGradient(baseConcentration float64, gradient, delta geom.Vec3) float64 {
	c := baseConcentration + gradient.Dot(delta)
	if c < 0 {
		return 0
	}
	return c
}

// GetBarycentricCoordinates is the Delaunay-independent static helper (§4.D)
// solving the 4x4 barycentric system for p against the 4 tetrahedron
// vertices.
func GetBarycentricCoordinates(p geom.Vec3, vertices [4]geom.Vec3) (weights [4]float64, ok bool) {
	return geom.BarycentricCoordinates(p, vertices)
}
