package ecm

import (
	"math/rand"
	"testing"

	"github.com/bdm-go/biodynamo/biodynamo"
	"github.com/bdm-go/biodynamo/cell"
	"github.com/bdm-go/biodynamo/force"
	"github.com/bdm-go/biodynamo/geom"
	"github.com/bdm-go/biodynamo/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestECM() *ECM {
	rng := rand.New(rand.NewSource(1))
	cfg := biodynamo.NewConfig()
	return New(cfg, rng, biodynamo.NewNopLogger())
}

func TestCreatePhysicalNodeInstanceRegisters(t *testing.T) {
	e := newTestECM()
	n, err := e.CreatePhysicalNodeInstance(geom.Vec3{1, 2, 3})
	require.NoError(t, err)
	assert.Len(t, e.Nodes(), 1)
	assert.Equal(t, n, e.Nodes()[0])
}

func TestAddAndRemovePhysicalSphere(t *testing.T) {
	e := newTestECM()
	sp, err := object.NewPhysicalSphere(e.Triangulation(), e.RNG(), geom.Vec3{0, 0, 0}, 10, e.Library(), force.NewDefault())
	require.NoError(t, err)
	e.AddPhysicalSphere(sp)
	assert.Len(t, e.Spheres(), 1)

	e.RemovePhysicalSphere(sp)
	assert.Empty(t, e.Spheres())
}

func TestAddCellRegistersSoma(t *testing.T) {
	e := newTestECM()
	sp, err := object.NewPhysicalSphere(e.Triangulation(), e.RNG(), geom.Vec3{0, 0, 0}, 10, e.Library(), force.NewDefault())
	require.NoError(t, err)
	c := cell.NewCell(sp)
	e.AddCell(c)
	assert.Len(t, e.Cells(), 1)
	assert.Len(t, e.Somas(), 1)
}

func TestClearAllResetsRegistries(t *testing.T) {
	e := newTestECM()
	_, err := e.CreatePhysicalNodeInstance(geom.Vec3{0, 0, 0})
	require.NoError(t, err)
	e.AdvanceTime(5)

	e.ClearAll()
	assert.Empty(t, e.Nodes())
	assert.Equal(t, 0.0, e.Time())
}

func TestBellGradientPeaksAtMean(t *testing.T) {
	e := newTestECM()
	e.AddArtificialGradient(ArtificialGradient{
		SubstanceID: "A", Shape: Bell, Axis: 2, Max: 1.0, Mean: 400, Sigma: 160,
	})
	atPeak := e.GetValueArtificialConcentration("A", geom.Vec3{0, 0, 400})
	atFar := e.GetValueArtificialConcentration("A", geom.Vec3{0, 0, 0})
	assert.InDelta(t, 1.0, atPeak, 1e-9)
	assert.Less(t, atFar, atPeak)

	gradAtPeak := e.GetGradientArtificialConcentration("A", geom.Vec3{0, 0, 400})
	assert.InDelta(t, 0, gradAtPeak.Z(), 1e-9)

	gradBelow := e.GetGradientArtificialConcentration("A", geom.Vec3{0, 0, 300})
	assert.Greater(t, gradBelow.Z(), 0.0)
}

func TestForceFromArtificialWallPushesInward(t *testing.T) {
	e := newTestECM()
	cfg := e.Config()
	f := e.ForceFromArtificialWall(geom.Vec3{cfg.BoundingBoxXMax + 5, 0, 0}, 1)
	assert.Less(t, f.X(), 0.0)

	inside := e.ForceFromArtificialWall(geom.Vec3{0, 0, 0}, 1)
	assert.Equal(t, geom.Vec3{}, inside)
}
