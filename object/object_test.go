package object

import (
	"math/rand"
	"testing"

	"github.com/bdm-go/biodynamo/force"
	"github.com/bdm-go/biodynamo/geom"
	"github.com/bdm-go/biodynamo/node"
	"github.com/bdm-go/biodynamo/spatial"
	"github.com/bdm-go/biodynamo/substance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTriangulation(rng *rand.Rand) *spatial.Triangulation[node.Site] {
	return spatial.NewTriangulation[node.Site](rng, geom.Vec3{}, 1000)
}

func TestNewPhysicalSphereInsertsIntoTriangulation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tr := newTestTriangulation(rng)
	lib := substance.NewLibrary()
	sp, err := NewPhysicalSphere(tr, rng, geom.Vec3{0, 0, 0}, 10, lib, force.NewDefault())
	require.NoError(t, err)
	assert.Greater(t, sp.Volume(), 0.0)
	assert.Equal(t, 10.0, sp.Diameter())
}

func TestSphereRunPhysicsNoMovementBelowAdherence(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	tr := newTestTriangulation(rng)
	lib := substance.NewLibrary()
	sp, err := NewPhysicalSphere(tr, rng, geom.Vec3{0, 0, 0}, 10, lib, force.NewDefault())
	require.NoError(t, err)
	before := sp.MassLocation()
	require.NoError(t, sp.RunPhysics(0.01, 1.0, nil))
	assert.Equal(t, before, sp.MassLocation())
	assert.False(t, sp.OnScheduler())
}

func TestAddNewPhysicalCylinderAttachesAtSurface(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tr := newTestTriangulation(rng)
	lib := substance.NewLibrary()
	sp, err := NewPhysicalSphere(tr, rng, geom.Vec3{0, 0, 0}, 10, lib, force.NewDefault())
	require.NoError(t, err)
	cyl, err := sp.AddNewPhysicalCylinder(5, 0, 0, 1, lib)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, cyl.ActualLength(), 1e-9)
	assert.Equal(t, sp, cyl.Mother())
	assert.Len(t, sp.Daughters(), 1)
	assert.InDelta(t, 5.0, cyl.ProximalEnd().Sub(sp.MassLocation()).Len(), 1e-9)
}

func TestSphereDividePreservesTotalVolumeApproximately(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	tr := newTestTriangulation(rng)
	lib := substance.NewLibrary()
	sp, err := NewPhysicalSphere(tr, rng, geom.Vec3{0, 0, 0}, 10, lib, force.NewDefault())
	require.NoError(t, err)
	originalVolume := sp.Volume()

	other, err := sp.Divide(1.0, 0, 0, lib)
	require.NoError(t, err)
	assert.InDelta(t, originalVolume, sp.Volume()+other.Volume(), 1e-6)
}

func TestCylinderForceTransmittedToMotherIsZeroAtRest(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	tr := newTestTriangulation(rng)
	lib := substance.NewLibrary()
	sp, err := NewPhysicalSphere(tr, rng, geom.Vec3{0, 0, 0}, 10, lib, force.NewDefault())
	require.NoError(t, err)
	cyl, err := sp.AddNewPhysicalCylinder(5, 0, 0, 1, lib)
	require.NoError(t, err)
	f := cyl.ForceTransmittedToMother()
	assert.InDelta(t, 0, f.Len(), 1e-9)
}

func TestRetractCylinderDisappearsWhenBelowMinimum(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	tr := newTestTriangulation(rng)
	lib := substance.NewLibrary()
	sp, err := NewPhysicalSphere(tr, rng, geom.Vec3{0, 0, 0}, 10, lib, force.NewDefault())
	require.NoError(t, err)
	cyl, err := sp.AddNewPhysicalCylinder(3, 0, 0, 1, lib)
	require.NoError(t, err)
	require.NoError(t, cyl.RetractCylinder(1.0, 2.0))
	assert.Empty(t, sp.Daughters())
}

func TestExcrescenceSynapseWithCreatesBond(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tr := newTestTriangulation(rng)
	lib := substance.NewLibrary()
	a, err := NewPhysicalSphere(tr, rng, geom.Vec3{0, 0, 0}, 10, lib, force.NewDefault())
	require.NoError(t, err)
	b, err := NewPhysicalSphere(tr, rng, geom.Vec3{100, 0, 0}, 10, lib, force.NewDefault())
	require.NoError(t, err)

	bouton := NewExcrescence(a.PhysicalObject, Bouton, geom.Vec3{0, 0, 5})
	spine := NewExcrescence(b.PhysicalObject, Spine, geom.Vec3{0, 0, -5})

	bond := bouton.SynapseWith(spine, true, 5, 0.5)
	require.NotNil(t, bond)
	peer, ok := bouton.Peer()
	require.True(t, ok)
	assert.Equal(t, spine, peer)
	assert.Len(t, a.PhysicalBonds(), 1)
	assert.Len(t, b.PhysicalBonds(), 1)
}

func TestDiffuseWithThisPhysicalObjectConservesQuantity(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	tr := newTestTriangulation(rng)
	lib := substance.NewLibrary()
	sp, err := NewPhysicalSphere(tr, rng, geom.Vec3{0, 0, 0}, 10, lib, force.NewDefault())
	require.NoError(t, err)
	cyl, err := sp.AddNewPhysicalCylinder(5, 0, 0, 1, lib)
	require.NoError(t, err)

	sp.SetIntracellularConcentration("X", 2)
	lib.RegisterIntracellular(substance.Template{ID: "X", DiffusionConstant: 0.5})
	sp.Intracellular("X").Quantity = sp.Volume() * 2

	totalBefore := sp.Intracellular("X").Quantity + cyl.Intracellular("X").Quantity
	sp.DiffuseWithThisPhysicalObject(cyl.PhysicalObject, cyl.ActualLength(), 0.1)
	totalAfter := sp.Intracellular("X").Quantity + cyl.Intracellular("X").Quantity
	assert.InDelta(t, totalBefore, totalAfter, 1e-6*totalBefore+1e-9)
}
