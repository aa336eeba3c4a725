package spatial

import "github.com/bdm-go/biodynamo/geom"

// OpenTriangleOrganizer collects the boundary faces exposed while carving
// out a cavity of tetrahedra (Bowyer-Watson insertion, or the clean-up path
// used by move/remove). A face put in twice is internal to the cavity
// ("two-sided") and cancels out; a face put in once is a true boundary
// ("one-sided") that Triangulate must close up with a new tetrahedron.
type OpenTriangleOrganizer[T any] struct {
	entries map[triangleKey]*openEntry[T]
}

type openEntry[T any] struct {
	triangle Triangle3D[T]
	count    int
}

// NewOpenTriangleOrganizer returns an empty organizer ready to accumulate a
// single carve-and-retriangulate pass.
func NewOpenTriangleOrganizer[T any]() *OpenTriangleOrganizer[T] {
	return &OpenTriangleOrganizer[T]{entries: make(map[triangleKey]*openEntry[T])}
}

// PutTriangle registers a face exposed by removing a tetrahedron. Calling it
// twice for the same unordered triple of nodes marks the face two-sided
// (internal) and it is dropped from the boundary.
func (o *OpenTriangleOrganizer[T]) PutTriangle(tri Triangle3D[T]) {
	k := tri.key()
	if e, ok := o.entries[k]; ok {
		e.count++
		return
	}
	o.entries[k] = &openEntry[T]{triangle: tri, count: 1}
}

// OneSidedTriangles returns the boundary faces still pending closure (those
// registered an odd number of times — in practice exactly once, since a
// well-formed cavity never exposes the same face three times).
func (o *OpenTriangleOrganizer[T]) OneSidedTriangles() []Triangle3D[T] {
	var out []Triangle3D[T]
	for _, e := range o.entries {
		if e.count%2 == 1 {
			out = append(out, e.triangle)
		}
	}
	return out
}

// FanWithApex closes every one-sided boundary triangle by connecting it to
// apex, the Bowyer-Watson insertion case where the new node is the only
// possible 4th vertex.
func (o *OpenTriangleOrganizer[T]) FanWithApex(apex *SpaceNode[T]) []*Tetrahedron[T] {
	tris := o.OneSidedTriangles()
	out := make([]*Tetrahedron[T], 0, len(tris))
	for _, tri := range tris {
		out = append(out, newTetrahedron(tri.Nodes[0], tri.Nodes[1], tri.Nodes[2], apex))
	}
	return out
}

// Triangulate closes every one-sided boundary triangle by picking, among
// candidates, the node that keeps the result Delaunay-valid: the apex whose
// circumsphere (with the triangle) contains none of the other candidates.
// This is the path used to restore the mesh after a node move or removal,
// where there is no single designated new point.
func (o *OpenTriangleOrganizer[T]) Triangulate(candidates []*SpaceNode[T]) ([]*Tetrahedron[T], error) {
	tris := o.OneSidedTriangles()
	out := make([]*Tetrahedron[T], 0, len(tris))
	for _, tri := range tris {
		apex, ok := bestDelaunayApex(tri, candidates)
		if !ok {
			return nil, ErrInvariantViolation
		}
		out = append(out, newTetrahedron(tri.Nodes[0], tri.Nodes[1], tri.Nodes[2], apex))
	}
	return out, nil
}

func bestDelaunayApex[T any](tri Triangle3D[T], candidates []*SpaceNode[T]) (*SpaceNode[T], bool) {
	a, b, c := tri.Nodes[0], tri.Nodes[1], tri.Nodes[2]
	var best *SpaceNode[T]
	bestScore := 0.0
	for _, d := range candidates {
		if d == a || d == b || d == c {
			continue
		}
		vol := geom.Orientation(a.Position, b.Position, c.Position, d.Position)
		if vol == 0 {
			continue // coplanar, degenerate tetra
		}
		valid := true
		for _, e := range candidates {
			if e == a || e == b || e == c || e == d {
				continue
			}
			s := geom.InSphere(a.Position, b.Position, c.Position, d.Position, e.Position)
			if vol < 0 {
				s = -s // InSphere's sign convention assumes positive orientation
			}
			if s > 1e-9 {
				valid = false
				break
			}
		}
		if !valid {
			continue
		}
		score := abs(vol)
		if best == nil || score > bestScore {
			best, bestScore = d, score
		}
	}
	return best, best != nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
