package spatial

import (
	"github.com/bdm-go/biodynamo/geom"
	"github.com/google/uuid"
)

// SpaceNode is a Delaunay-triangulation vertex carrying a user payload of
// type T (a PhysicalNode, in the rest of the engine). Component B's
// incremental Delaunay tetrahedralization is generic over T the way the
// source's SpaceNode<T> was a C++ template.
type SpaceNode[T any] struct {
	id       uuid.UUID
	Position geom.Vec3
	Payload  T

	tetrahedra map[uuid.UUID]*Tetrahedron[T]
	listeners  []MovementListener[T]

	// Volume is the Voronoi-like volume estimate this node is attributed by
	// the triangulation (spec §3 "Voronoi-cell estimate").
	Volume float64
}

// NewSpaceNode constructs a detached node; it is not part of any
// triangulation until inserted.
func NewSpaceNode[T any](position geom.Vec3, payload T) *SpaceNode[T] {
	return &SpaceNode[T]{
		id:         uuid.New(),
		Position:   position,
		Payload:    payload,
		tetrahedra: make(map[uuid.UUID]*Tetrahedron[T]),
	}
}

// ID is the node's stable identity, used as map keys throughout the
// triangulation and by the open-triangle organizer's triangle identity.
func (n *SpaceNode[T]) ID() uuid.UUID { return n.id }

// AddListener registers a movement listener that will be invoked around
// every insert/move/remove touching this node (component C).
func (n *SpaceNode[T]) AddListener(l MovementListener[T]) {
	n.listeners = append(n.listeners, l)
}

// AdjacentTetrahedra returns the tetrahedra currently incident to this node.
func (n *SpaceNode[T]) AdjacentTetrahedra() []*Tetrahedron[T] {
	out := make([]*Tetrahedron[T], 0, len(n.tetrahedra))
	for _, t := range n.tetrahedra {
		out = append(out, t)
	}
	return out
}

// AdjacentNodes returns the distinct neighbor nodes reachable through this
// node's incident tetrahedra.
func (n *SpaceNode[T]) AdjacentNodes() []*SpaceNode[T] {
	seen := make(map[uuid.UUID]*SpaceNode[T])
	for _, t := range n.tetrahedra {
		for _, other := range t.Nodes {
			if other != n {
				seen[other.id] = other
			}
		}
	}
	out := make([]*SpaceNode[T], 0, len(seen))
	for _, o := range seen {
		out = append(out, o)
	}
	return out
}

func (n *SpaceNode[T]) addTetrahedron(t *Tetrahedron[T])    { n.tetrahedra[t.id] = t }
func (n *SpaceNode[T]) removeTetrahedron(t *Tetrahedron[T]) { delete(n.tetrahedra, t.id) }

func (n *SpaceNode[T]) notifyBeforeMove(newPos geom.Vec3) {
	for _, l := range n.listeners {
		l.BeforeMove(n, newPos)
	}
}

func (n *SpaceNode[T]) notifyAfterMove(before, after []*SpaceNode[T]) {
	for _, l := range n.listeners {
		l.AfterMove(n, before, after)
	}
}

func (n *SpaceNode[T]) notifyBeforeRemove() {
	for _, l := range n.listeners {
		l.BeforeRemove(n)
	}
}

func (n *SpaceNode[T]) notifyAfterRemove(before []*SpaceNode[T]) {
	for _, l := range n.listeners {
		l.AfterRemove(n, before)
	}
}

func (n *SpaceNode[T]) notifyBeforeAdd() {
	for _, l := range n.listeners {
		l.BeforeAdd(n)
	}
}

func (n *SpaceNode[T]) notifyAfterAdd(after []*SpaceNode[T]) {
	for _, l := range n.listeners {
		l.AfterAdd(n, after)
	}
}

// Tetrahedron is a 4-node simplex of the triangulation, stored with
// positive orientation. It keeps no circumsphere data: InSphere evaluates
// the in-sphere determinant from the four vertex positions on every call.
type Tetrahedron[T any] struct {
	id    uuid.UUID
	Nodes [4]*SpaceNode[T]

	// visitStamp is a slot for a "checking index" (spec §4.B). No pass in
	// this package sets or reads it: the walk and the Bowyer-Watson search
	// track visited tetrahedra in a per-call map instead.
	visitStamp int64
}

func newTetrahedron[T any](a, b, c, d *SpaceNode[T]) *Tetrahedron[T] {
	t := &Tetrahedron[T]{id: uuid.New(), Nodes: [4]*SpaceNode[T]{a, b, c, d}}
	if geom.Orientation(a.Position, b.Position, c.Position, d.Position) < 0 {
		t.Nodes[2], t.Nodes[3] = t.Nodes[3], t.Nodes[2]
	}
	return t
}

// ID is the tetrahedron's stable identity.
func (t *Tetrahedron[T]) ID() uuid.UUID { return t.id }

// ContainsNode reports whether n is one of the tetrahedron's four vertices.
func (t *Tetrahedron[T]) ContainsNode(n *SpaceNode[T]) bool {
	for _, v := range t.Nodes {
		if v == n {
			return true
		}
	}
	return false
}

// FaceOpposite returns the 3 nodes of the face opposite to vertex at index
// i (0..3), in a consistent winding order.
func (t *Tetrahedron[T]) FaceOpposite(i int) [3]*SpaceNode[T] {
	var out [3]*SpaceNode[T]
	k := 0
	for j := 0; j < 4; j++ {
		if j == i {
			continue
		}
		out[k] = t.Nodes[j]
		k++
	}
	return out
}

// Faces returns all 4 faces of the tetrahedron.
func (t *Tetrahedron[T]) Faces() [4][3]*SpaceNode[T] {
	return [4][3]*SpaceNode[T]{t.FaceOpposite(0), t.FaceOpposite(1), t.FaceOpposite(2), t.FaceOpposite(3)}
}

// InSphere tests point p against this tetrahedron's (implicit) circumsphere.
// Positive means p is strictly inside.
func (t *Tetrahedron[T]) InSphere(p geom.Vec3) float64 {
	a, b, c, d := t.Nodes[0].Position, t.Nodes[1].Position, t.Nodes[2].Position, t.Nodes[3].Position
	return geom.InSphere(a, b, c, d, p)
}

// Contains does a sign-based point-in-tetrahedron test using the
// orientation predicate against all four faces.
func (t *Tetrahedron[T]) Contains(p geom.Vec3) bool {
	v := [4]geom.Vec3{t.Nodes[0].Position, t.Nodes[1].Position, t.Nodes[2].Position, t.Nodes[3].Position}
	o0 := geom.Orientation(v[1], v[2], v[3], p)
	o1 := geom.Orientation(v[0], v[3], v[2], p)
	o2 := geom.Orientation(v[0], v[1], v[3], p)
	o3 := geom.Orientation(v[0], v[2], v[1], p)
	allNonNeg := o0 >= -1e-9 && o1 >= -1e-9 && o2 >= -1e-9 && o3 >= -1e-9
	allNonPos := o0 <= 1e-9 && o1 <= 1e-9 && o2 <= 1e-9 && o3 <= 1e-9
	return allNonNeg || allNonPos
}

// Triangle3D identifies a triangular face by its three vertices, used as the
// open-triangle organizer's key.
type Triangle3D[T any] struct {
	Nodes [3]*SpaceNode[T]
}

func (tri Triangle3D[T]) key() triangleKey {
	ids := [3]uuid.UUID{tri.Nodes[0].id, tri.Nodes[1].id, tri.Nodes[2].id}
	// Sort the 3 ids so the key is independent of winding order (the face is
	// a two-sided/one-sided *identity*, not an oriented triangle).
	if ids[0].String() > ids[1].String() {
		ids[0], ids[1] = ids[1], ids[0]
	}
	if ids[1].String() > ids[2].String() {
		ids[1], ids[2] = ids[2], ids[1]
	}
	if ids[0].String() > ids[1].String() {
		ids[0], ids[1] = ids[1], ids[0]
	}
	return triangleKey(ids)
}

type triangleKey [3]uuid.UUID

// Edge connects two nodes of the triangulation and offers helpers to walk
// "around" it via the tetrahedra that share it; the cross-opposite nodes
// are the third/fourth vertices of a tetrahedron incident to the edge. The
// triangulation's own insert/move/remove paths do not use it.
type Edge[T any] struct {
	A, B *SpaceNode[T]
}

// CrossOppositeNodes returns, for a tetrahedron incident to this edge, the
// two nodes that are NOT endpoints of the edge.
func (e Edge[T]) CrossOppositeNodes(t *Tetrahedron[T]) (c, d *SpaceNode[T], ok bool) {
	var others []*SpaceNode[T]
	for _, n := range t.Nodes {
		if n != e.A && n != e.B {
			others = append(others, n)
		}
	}
	if len(others) != 2 {
		return nil, nil, false
	}
	return others[0], others[1], true
}

// IncidentTetrahedra returns the tetrahedra, among those passed in, that
// contain both endpoints of the edge.
func (e Edge[T]) IncidentTetrahedra(candidates []*Tetrahedron[T]) []*Tetrahedron[T] {
	var out []*Tetrahedron[T]
	for _, t := range candidates {
		if t.ContainsNode(e.A) && t.ContainsNode(e.B) {
			out = append(out, t)
		}
	}
	return out
}
