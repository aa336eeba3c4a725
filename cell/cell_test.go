package cell

import (
	"math/rand"
	"testing"

	"github.com/bdm-go/biodynamo/biology"
	"github.com/bdm-go/biodynamo/force"
	"github.com/bdm-go/biodynamo/geom"
	"github.com/bdm-go/biodynamo/node"
	"github.com/bdm-go/biodynamo/object"
	"github.com/bdm-go/biodynamo/spatial"
	"github.com/bdm-go/biodynamo/substance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTriangulation(rng *rand.Rand) *spatial.Triangulation[node.Site] {
	return spatial.NewTriangulation[node.Site](rng, geom.Vec3{}, 1000)
}

type divisionCountingModule struct {
	biology.BaseModule
	runs int
}

func (m *divisionCountingModule) Run() { m.runs++ }
func (m *divisionCountingModule) IsCopiedWhenSomaDivides() bool { return true }
func (m *divisionCountingModule) GetCopy(newOwner biology.CellElement) biology.Module {
	c := &divisionCountingModule{}
	c.SetCellElement(newOwner)
	return c
}

func TestNewCellWrapsSphere(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tr := newTestTriangulation(rng)
	lib := substance.NewLibrary()
	sphere, err := object.NewPhysicalSphere(tr, rng, geom.Vec3{0, 0, 0}, 20, lib, force.NewDefault())
	require.NoError(t, err)

	c := NewCell(sphere)
	assert.Equal(t, sphere, c.Soma.PhysicalSphere)
	assert.Equal(t, c, c.Soma.Cell())
}

func TestSomaDivideCopiesFlaggedModules(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	tr := newTestTriangulation(rng)
	lib := substance.NewLibrary()
	sphere, err := object.NewPhysicalSphere(tr, rng, geom.Vec3{0, 0, 0}, 20, lib, force.NewDefault())
	require.NoError(t, err)

	c := NewCell(sphere)
	m := &divisionCountingModule{}
	c.Soma.AddModule(m)

	daughterCell, err := c.Soma.Divide(1.0, 0, 0, lib)
	require.NoError(t, err)
	require.Len(t, daughterCell.Soma.Modules(), 1)
	assert.Equal(t, daughterCell.Soma, daughterCell.Soma.Modules()[0].GetCellElement())
}

func TestExtendNewNeuriteJoinsSameCell(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tr := newTestTriangulation(rng)
	lib := substance.NewLibrary()
	sphere, err := object.NewPhysicalSphere(tr, rng, geom.Vec3{0, 0, 0}, 20, lib, force.NewDefault())
	require.NoError(t, err)

	c := NewCell(sphere)
	ne, err := c.Soma.ExtendNewNeurite(5, 0, 0, 1, lib)
	require.NoError(t, err)
	assert.Equal(t, c, ne.Cell())
	assert.InDelta(t, 5.0, ne.ActualLength(), 1e-9)
}

func TestNeuriteBranchJoinsSameCell(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	tr := newTestTriangulation(rng)
	lib := substance.NewLibrary()
	sphere, err := object.NewPhysicalSphere(tr, rng, geom.Vec3{0, 0, 0}, 20, lib, force.NewDefault())
	require.NoError(t, err)
	c := NewCell(sphere)
	ne, err := c.Soma.ExtendNewNeurite(10, 0, 0, 1, lib)
	require.NoError(t, err)

	branch, err := ne.Branch(4, geom.Vec3{1, 0, 0}, 0.8, lib)
	require.NoError(t, err)
	require.NotNil(t, branch)
	assert.Equal(t, c, branch.Cell())
}

func TestGrowOrDivideGrowsBelowThreshold(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	tr := newTestTriangulation(rng)
	lib := substance.NewLibrary()
	sphere, err := object.NewPhysicalSphere(tr, rng, geom.Vec3{0, 0, 0}, 10, lib, force.NewDefault())
	require.NoError(t, err)
	c := NewCell(sphere)

	before := c.Soma.Volume()
	daughter, err := c.GrowOrDivide(20, 350, 1, 1.0, 0, 0, lib)
	require.NoError(t, err)
	assert.Nil(t, daughter)
	assert.Greater(t, c.Soma.Volume(), before)
}
