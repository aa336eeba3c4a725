package spatial

import "github.com/bdm-go/biodynamo/geom"

// MovementListener is the hook Component C (mass conservation) plugs into
// Component B. The triangulation calls these in the documented order
// (before-move, after-move, before-remove, after-remove, before-add,
// after-add) around every topology change. Implementations see only
// *SpaceNode[T] — they reach into the payload themselves, which keeps the
// triangulation package free of any dependency on what T actually is.
type MovementListener[T any] interface {
	// BeforeMove is called with the node about to move and its destination.
	BeforeMove(node *SpaceNode[T], newPosition geom.Vec3)
	// AfterMove is called once the node has settled at its new position and
	// the mesh is Delaunay again. affectedBefore is the neighbor set
	// captured by BeforeMove; affectedAfter is the neighbor set once the
	// move has completed (includes any newly adjacent nodes).
	AfterMove(node *SpaceNode[T], affectedBefore, affectedAfter []*SpaceNode[T])

	// BeforeRemove is called with the node about to be erased.
	BeforeRemove(node *SpaceNode[T])
	// AfterRemove is called once the node's star has been re-triangulated.
	// affectedBefore is the neighbor set captured by BeforeRemove.
	AfterRemove(node *SpaceNode[T], affectedBefore []*SpaceNode[T])

	// BeforeAdd is called with a node about to be inserted, before its
	// position has been located in the mesh.
	BeforeAdd(node *SpaceNode[T])
	// AfterAdd is called once the node is fully wired into the mesh.
	AfterAdd(node *SpaceNode[T], affectedAfter []*SpaceNode[T])
}
