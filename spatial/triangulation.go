package spatial

import (
	"math/rand"
	"sync"

	"github.com/bdm-go/biodynamo/geom"
	"github.com/google/uuid"
)

const (
	coincidentEpsilon = 1e-9
	jitterFraction    = 0.01
)

// Triangulation maintains a dynamic 3D Delaunay tetrahedralization over a
// moving point set (component B). All mutating operations are serialized
// behind a single mutex — spec §5 only requires serializability against any
// set of concurrent geometric mutations, and a single lock is the simplest
// implementation that provides it; the substance-library maps elsewhere are
// write-once/read-many and need no such lock.
type Triangulation[T any] struct {
	mu sync.Mutex

	nodes      map[uuid.UUID]*SpaceNode[T]
	tetrahedra map[uuid.UUID]*Tetrahedron[T]
	ghostIDs   map[uuid.UUID]bool

	rng *rand.Rand
}

// NewTriangulation seeds the mesh with a single super-tetrahedron large
// enough to contain every point that will ever be inserted within
// [center-extent, center+extent]^3. The super-tetrahedron's four corners are
// "ghost" nodes: they participate in Delaunay tests like any other site but
// are filtered out of every result the caller sees (Neighbors,
// VerticesOfContainingTetra), matching the "outside convex hull" null-marker
// semantics spec.md §4.B asks for.
func NewTriangulation[T any](rng *rand.Rand, center geom.Vec3, extent float64) *Triangulation[T] {
	big := extent * 50
	var zero T
	g0 := NewSpaceNode(center.Add(geom.Vec3{-big, -big, -big}), zero)
	g1 := NewSpaceNode(center.Add(geom.Vec3{big, -big, -big}), zero)
	g2 := NewSpaceNode(center.Add(geom.Vec3{0, big, -big}), zero)
	g3 := NewSpaceNode(center.Add(geom.Vec3{0, 0, big}), zero)

	t := &Triangulation[T]{
		nodes:      make(map[uuid.UUID]*SpaceNode[T]),
		tetrahedra: make(map[uuid.UUID]*Tetrahedron[T]),
		ghostIDs:   make(map[uuid.UUID]bool),
		rng:        rng,
	}
	for _, g := range []*SpaceNode[T]{g0, g1, g2, g3} {
		t.nodes[g.id] = g
		t.ghostIDs[g.id] = true
	}
	seed := newTetrahedron(g0, g1, g2, g3)
	t.addTetra(seed)
	return t
}

func (t *Triangulation[T]) addTetra(tet *Tetrahedron[T]) {
	t.tetrahedra[tet.id] = tet
	for _, n := range tet.Nodes {
		n.addTetrahedron(tet)
	}
}

func (t *Triangulation[T]) removeTetra(tet *Tetrahedron[T]) {
	delete(t.tetrahedra, tet.id)
	for _, n := range tet.Nodes {
		n.removeTetrahedron(tet)
	}
}

func (t *Triangulation[T]) isGhost(n *SpaceNode[T]) bool { return t.ghostIDs[n.id] }

// AnyTetrahedron returns an arbitrary tetrahedron currently in the mesh,
// suitable as a start_tetra for Insert/point-location when the caller has no
// better hint (e.g. the very first real insertion).
func (t *Triangulation[T]) AnyTetrahedron() *Tetrahedron[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, tet := range t.tetrahedra {
		return tet
	}
	return nil
}

// Jitter nudges a position by up to jitterFraction of characteristicLength
// in a random direction. Exposed for callers that receive
// ErrPositionNotAllowed and want to retry per spec §4.B / §7.
func Jitter(rng *rand.Rand, pos geom.Vec3, characteristicLength float64) geom.Vec3 {
	delta := geom.RandomUnitVector(rng).Mul(rng.Float64() * jitterFraction * characteristicLength)
	return pos.Add(delta)
}

// findNeighborAcrossFace returns the tetrahedron sharing face (other than
// from), or nil if face is on the convex hull boundary.
func (t *Triangulation[T]) findNeighborAcrossFace(from *Tetrahedron[T], face [3]*SpaceNode[T]) *Tetrahedron[T] {
	for _, candidate := range face[0].tetrahedra {
		if candidate == from {
			continue
		}
		if candidate.ContainsNode(face[1]) && candidate.ContainsNode(face[2]) {
			return candidate
		}
	}
	return nil
}

func sign(v float64) int {
	switch {
	case v > 1e-12:
		return 1
	case v < -1e-12:
		return -1
	default:
		return 0
	}
}

// stochasticWalk locates the tetrahedron containing target by a randomized
// visibility walk starting at start (spec §4.B "stochastic visibility
// walk"). Returns (nil, false) if target lies outside the convex hull —
// which in practice only happens if the caller's super-tetrahedron extent
// was too small.
func (t *Triangulation[T]) stochasticWalk(target geom.Vec3, start *Tetrahedron[T]) (*Tetrahedron[T], bool) {
	cur := start
	visited := make(map[uuid.UUID]bool)
	for steps := 0; steps < 10_000; steps++ {
		if cur.Contains(target) {
			return cur, true
		}
		visited[cur.id] = true
		order := t.rng.Perm(4)
		moved := false
		for _, i := range order {
			vertex := cur.Nodes[i]
			face := cur.FaceOpposite(i)
			oVertex := geom.Orientation(face[0].Position, face[1].Position, face[2].Position, vertex.Position)
			oTarget := geom.Orientation(face[0].Position, face[1].Position, face[2].Position, target)
			if sign(oVertex) == 0 || sign(oVertex) == sign(oTarget) {
				continue
			}
			neighbor := t.findNeighborAcrossFace(cur, face)
			if neighbor == nil {
				return nil, false
			}
			if visited[neighbor.id] {
				continue
			}
			cur = neighbor
			moved = true
			break
		}
		if !moved {
			return cur, true
		}
	}
	return cur, true
}

// gatherBadTetrahedra runs the Bowyer-Watson BFS from seed, collecting every
// tetrahedron whose circumsphere contains p.
func (t *Triangulation[T]) gatherBadTetrahedra(seed *Tetrahedron[T], p geom.Vec3) []*Tetrahedron[T] {
	visited := map[uuid.UUID]bool{seed.id: true}
	queue := []*Tetrahedron[T]{seed}
	var bad []*Tetrahedron[T]
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.InSphere(p) <= 1e-9 {
			continue
		}
		bad = append(bad, cur)
		for _, face := range cur.Faces() {
			n := t.findNeighborAcrossFace(cur, face)
			if n == nil || visited[n.id] {
				continue
			}
			visited[n.id] = true
			queue = append(queue, n)
		}
	}
	return bad
}

// Insert adds node to the mesh, restoring Delaunay-ness via Bowyer-Watson
// carve-and-fan around the point. start is any tetrahedron already in the
// mesh (AnyTetrahedron() if the caller has no better hint).
func (t *Triangulation[T]) Insert(node *SpaceNode[T], start *Tetrahedron[T]) ([]*Tetrahedron[T], error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	node.notifyBeforeAdd()

	located, ok := t.stochasticWalk(node.Position, start)
	if !ok {
		return nil, ErrPositionNotAllowed
	}
	for _, v := range located.Nodes {
		if geom.Distance(v.Position, node.Position) < coincidentEpsilon {
			return nil, ErrPositionNotAllowed
		}
	}

	bad := t.gatherBadTetrahedra(located, node.Position)
	if len(bad) == 0 {
		bad = []*Tetrahedron[T]{located}
	}

	org := NewOpenTriangleOrganizer[T]()
	for _, bt := range bad {
		for _, face := range bt.Faces() {
			org.PutTriangle(Triangle3D[T]{Nodes: face})
		}
	}
	for _, bt := range bad {
		t.removeTetra(bt)
	}

	created := org.FanWithApex(node)
	for _, nt := range created {
		t.addTetra(nt)
	}
	t.nodes[node.id] = node

	affected := node.AdjacentNodes()
	for _, n := range affected {
		t.recomputeVolume(n)
	}
	t.recomputeVolume(node)

	node.notifyAfterAdd(affected)
	return created, nil
}

// Remove erases node from the mesh, re-triangulating its star via
// OpenTriangleOrganizer.Triangulate.
func (t *Triangulation[T]) Remove(node *SpaceNode[T]) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	node.notifyBeforeRemove()
	oldNeighbors := node.AdjacentNodes()

	created, err := t.carveAndRetriangulate(node, oldNeighbors)
	if err != nil {
		return err
	}
	delete(t.nodes, node.id)
	for _, nt := range created {
		t.addTetra(nt)
	}
	for _, n := range oldNeighbors {
		t.recomputeVolume(n)
	}
	node.notifyAfterRemove(oldNeighbors)
	return nil
}

// carveAndRetriangulate removes every tetrahedron incident to node and
// closes the resulting cavity using only the remaining mesh nodes (the
// clean-up path, used for both Remove and the move restoration strategy).
func (t *Triangulation[T]) carveAndRetriangulate(node *SpaceNode[T], neighbors []*SpaceNode[T]) ([]*Tetrahedron[T], error) {
	affectedTetras := node.AdjacentTetrahedra()
	org := NewOpenTriangleOrganizer[T]()
	idx := func(tet *Tetrahedron[T]) int {
		for i, n := range tet.Nodes {
			if n == node {
				return i
			}
		}
		return -1
	}
	for _, tet := range affectedTetras {
		i := idx(tet)
		if i < 0 {
			continue
		}
		org.PutTriangle(Triangle3D[T]{Nodes: tet.FaceOpposite(i)})
	}
	for _, tet := range affectedTetras {
		t.removeTetra(tet)
	}

	candidates := make(map[uuid.UUID]*SpaceNode[T])
	for _, n := range neighbors {
		candidates[n.id] = n
		for _, n2 := range n.AdjacentNodes() {
			candidates[n2.id] = n2
		}
	}
	delete(candidates, node.id)
	candidateList := make([]*SpaceNode[T], 0, len(candidates))
	for _, n := range candidates {
		candidateList = append(candidateList, n)
	}

	return org.Triangulate(candidateList)
}

// MoveTo relocates node to an absolute position, restoring Delaunay-ness by
// removing and reinserting it (the clean-up path; see DESIGN.md for why the
// flip-only fast path from spec.md §4.B was not also implemented).
func (t *Triangulation[T]) MoveTo(node *SpaceNode[T], newPosition geom.Vec3) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	node.notifyBeforeMove(newPosition)
	oldNeighbors := node.AdjacentNodes()
	oldPosition := node.Position

	created, err := t.carveAndRetriangulate(node, oldNeighbors)
	if err != nil {
		// Restore the cavity we just carved before giving up, so the mesh is
		// left in a consistent state.
		t.reinsertAtSamePosition(node, oldNeighbors)
		return err
	}
	for _, nt := range created {
		t.addTetra(nt)
	}

	node.Position = newPosition
	var start *Tetrahedron[T]
	for _, n := range oldNeighbors {
		if tets := n.AdjacentTetrahedra(); len(tets) > 0 {
			start = tets[0]
			break
		}
	}
	if start == nil {
		for _, tet := range t.tetrahedra {
			start = tet
			break
		}
	}

	located, ok := t.stochasticWalk(newPosition, start)
	if !ok {
		node.Position = oldPosition
		t.reinsertAtSamePosition(node, oldNeighbors)
		return ErrPositionNotAllowed
	}
	for _, v := range located.Nodes {
		if v != node && geom.Distance(v.Position, newPosition) < coincidentEpsilon {
			node.Position = oldPosition
			t.reinsertAtSamePosition(node, oldNeighbors)
			return ErrPositionNotAllowed
		}
	}

	bad := t.gatherBadTetrahedra(located, newPosition)
	if len(bad) == 0 {
		bad = []*Tetrahedron[T]{located}
	}
	org := NewOpenTriangleOrganizer[T]()
	for _, bt := range bad {
		for _, face := range bt.Faces() {
			org.PutTriangle(Triangle3D[T]{Nodes: face})
		}
	}
	for _, bt := range bad {
		t.removeTetra(bt)
	}
	for _, nt := range org.FanWithApex(node) {
		t.addTetra(nt)
	}

	newNeighbors := node.AdjacentNodes()
	for _, n := range newNeighbors {
		t.recomputeVolume(n)
	}
	for _, n := range oldNeighbors {
		t.recomputeVolume(n)
	}
	t.recomputeVolume(node)

	node.notifyAfterMove(oldNeighbors, newNeighbors)
	return nil
}

// Move translates node by delta. See MoveTo.
func (t *Triangulation[T]) Move(node *SpaceNode[T], delta geom.Vec3) error {
	return t.MoveTo(node, node.Position.Add(delta))
}

// reinsertAtSamePosition is the failure-path recovery helper: it closes the
// cavity left by carveAndRetriangulate using node's own (unchanged)
// position, used when a move attempt has to be aborted.
func (t *Triangulation[T]) reinsertAtSamePosition(node *SpaceNode[T], neighbors []*SpaceNode[T]) {
	var start *Tetrahedron[T]
	for _, tet := range t.tetrahedra {
		start = tet
		break
	}
	if start == nil {
		return
	}
	located, ok := t.stochasticWalk(node.Position, start)
	if !ok {
		return
	}
	bad := t.gatherBadTetrahedra(located, node.Position)
	if len(bad) == 0 {
		bad = []*Tetrahedron[T]{located}
	}
	org := NewOpenTriangleOrganizer[T]()
	for _, bt := range bad {
		for _, face := range bt.Faces() {
			org.PutTriangle(Triangle3D[T]{Nodes: face})
		}
	}
	for _, bt := range bad {
		t.removeTetra(bt)
	}
	for _, nt := range org.FanWithApex(node) {
		t.addTetra(nt)
	}
}

// Neighbors returns the payloads of node's adjacent real (non-ghost) nodes.
func (t *Triangulation[T]) Neighbors(node *SpaceNode[T]) []T {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []T
	for _, n := range node.AdjacentNodes() {
		if t.isGhost(n) {
			continue
		}
		out = append(out, n.Payload)
	}
	return out
}

// VerticesOfContainingTetra returns the 4 payloads of the tetrahedron
// containing p, or ok=false if p lies outside the convex hull of the real
// (non-ghost) nodes.
func (t *Triangulation[T]) VerticesOfContainingTetra(p geom.Vec3) (verts [4]T, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var start *Tetrahedron[T]
	for _, tet := range t.tetrahedra {
		start = tet
		break
	}
	if start == nil {
		return verts, false
	}
	located, walked := t.stochasticWalk(p, start)
	if !walked {
		return verts, false
	}
	for _, n := range located.Nodes {
		if t.isGhost(n) {
			return verts, false
		}
	}
	for i, n := range located.Nodes {
		verts[i] = n.Payload
	}
	return verts, true
}

// recomputeVolume re-estimates node's Voronoi-like volume as the sum of
// 1/4 of the volume of every incident tetrahedron (each tetrahedron
// contributes equally to its four corners' cells). This is a coarse but
// cheap and always-positive estimate; spec.md does not mandate an exact
// Voronoi computation, only that substance accounting is consistent with
// whatever volume estimate is used (component C's job).
func (t *Triangulation[T]) recomputeVolume(n *SpaceNode[T]) {
	var total float64
	for _, tet := range n.tetrahedra {
		total += tetraVolume(tet) / 4
	}
	n.Volume = total
}

func tetraVolume[T any](t *Tetrahedron[T]) float64 {
	a, b, c, d := t.Nodes[0].Position, t.Nodes[1].Position, t.Nodes[2].Position, t.Nodes[3].Position
	return abs(geom.Orientation(a, b, c, d)) / 6
}
