package spatial

import (
	"math/rand"
	"testing"

	"github.com/bdm-go/biodynamo/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTriangulation() *Triangulation[int] {
	rng := rand.New(rand.NewSource(1))
	return NewTriangulation[int](rng, geom.Vec3{0, 0, 0}, 1000)
}

func TestInsertGrowsNeighborSet(t *testing.T) {
	tr := newTestTriangulation()

	center := NewSpaceNode(geom.Vec3{0, 0, 0}, 1)
	_, err := tr.Insert(center, tr.AnyTetrahedron())
	require.NoError(t, err)

	positions := []geom.Vec3{
		{10, 0, 0}, {-10, 0, 0}, {0, 10, 0}, {0, -10, 0}, {0, 0, 10},
	}
	var nodes []*SpaceNode[int]
	for i, p := range positions {
		n := NewSpaceNode(p, i+2)
		_, err := tr.Insert(n, tr.AnyTetrahedron())
		require.NoError(t, err)
		nodes = append(nodes, n)
	}

	neighbors := tr.Neighbors(center)
	assert.NotEmpty(t, neighbors)
	for _, n := range neighbors {
		assert.NotEqual(t, 1, n) // center itself should not be its own neighbor
	}
	_ = nodes
}

func TestInsertDuplicatePositionRejected(t *testing.T) {
	tr := newTestTriangulation()
	a := NewSpaceNode(geom.Vec3{1, 1, 1}, 1)
	_, err := tr.Insert(a, tr.AnyTetrahedron())
	require.NoError(t, err)

	b := NewSpaceNode(geom.Vec3{1, 1, 1}, 2)
	_, err = tr.Insert(b, tr.AnyTetrahedron())
	assert.ErrorIs(t, err, ErrPositionNotAllowed)
}

func TestMoveToPreservesNodeCount(t *testing.T) {
	tr := newTestTriangulation()
	var nodes []*SpaceNode[int]
	for i, p := range []geom.Vec3{
		{0, 0, 0}, {10, 0, 0}, {-10, 0, 0}, {0, 10, 0}, {0, -10, 0}, {0, 0, 10}, {0, 0, -10},
	} {
		n := NewSpaceNode(p, i)
		_, err := tr.Insert(n, tr.AnyTetrahedron())
		require.NoError(t, err)
		nodes = append(nodes, n)
	}

	before := len(tr.nodes)
	err := tr.MoveTo(nodes[0], geom.Vec3{1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, before, len(tr.nodes))
	assert.Equal(t, geom.Vec3{1, 1, 1}, nodes[0].Position)
}

func TestRemoveDropsNodeFromNeighborLists(t *testing.T) {
	tr := newTestTriangulation()
	var nodes []*SpaceNode[int]
	for i, p := range []geom.Vec3{
		{0, 0, 0}, {10, 0, 0}, {-10, 0, 0}, {0, 10, 0}, {0, -10, 0}, {0, 0, 10}, {0, 0, -10},
	} {
		n := NewSpaceNode(p, i)
		_, err := tr.Insert(n, tr.AnyTetrahedron())
		require.NoError(t, err)
		nodes = append(nodes, n)
	}

	target := nodes[1]
	err := tr.Remove(target)
	require.NoError(t, err)

	for _, n := range nodes {
		if n == target {
			continue
		}
		for _, neighbor := range tr.Neighbors(n) {
			assert.NotEqual(t, target.Payload, neighbor)
		}
	}
}

func TestVerticesOfContainingTetraOutsideHull(t *testing.T) {
	tr := newTestTriangulation()
	for i, p := range []geom.Vec3{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1},
	} {
		n := NewSpaceNode(p, i)
		_, err := tr.Insert(n, tr.AnyTetrahedron())
		require.NoError(t, err)
	}

	_, ok := tr.VerticesOfContainingTetra(geom.Vec3{100000, 100000, 100000})
	assert.False(t, ok)
}
