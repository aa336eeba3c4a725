package node

import (
	"math/rand"
	"testing"

	"github.com/bdm-go/biodynamo/geom"
	"github.com/bdm-go/biodynamo/spatial"
	"github.com/bdm-go/biodynamo/substance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitSubstanceAlwaysOne(t *testing.T) {
	n := New(geom.Vec3{}, substance.NewLibrary())
	assert.Equal(t, 1.0, n.GetExtracellularConcentration("U"))
}

func TestModifyExtracellularQuantityIntegratesOverDt(t *testing.T) {
	n := New(geom.Vec3{}, substance.NewLibrary())
	n.space.Volume = 2.0
	n.ModifyExtracellularQuantity("A", 10, 0.5)
	s, ok := n.Substance("A")
	require.True(t, ok)
	assert.InDelta(t, 5.0, s.Quantity, 1e-9)
	assert.InDelta(t, 2.5, s.Concentration, 1e-9)
}

func TestConservationListenerPreservesMassAcrossInsert(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tr := spatial.NewTriangulation[Site](rng, geom.Vec3{}, 1000)
	lib := substance.NewLibrary()

	var total float64
	var nodes []*PhysicalNode
	for _, p := range []geom.Vec3{{0, 0, 0}, {20, 0, 0}, {0, 20, 0}, {0, 0, 20}, {-20, -20, -20}} {
		pn := New(p, lib)
		pn.SetExtracellularConcentration("A", 5)
		_, err := tr.Insert(pn.Space(), tr.AnyTetrahedron())
		require.NoError(t, err)
		nodes = append(nodes, pn)
	}
	for _, pn := range nodes {
		if s, ok := pn.Substance("A"); ok {
			total += s.Quantity
		}
	}

	newNode := New(geom.Vec3{5, 5, 5}, lib)
	_, err := tr.Insert(newNode.Space(), tr.AnyTetrahedron())
	require.NoError(t, err)

	var totalAfter float64
	for _, pn := range append(nodes, newNode) {
		if s, ok := pn.Substance("A"); ok {
			totalAfter += s.Quantity
		}
	}
	assert.InDelta(t, total, totalAfter, 1e-6*total+1e-9)
}
