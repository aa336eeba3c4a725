package geom

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotateAroundAxisComposesAdditively(t *testing.T) {
	v := Vec3{1, 0, 0}
	axis := Vec3{0, 0, 1}

	once := RotateAroundAxis(v, axis, math.Pi/3)
	twice := RotateAroundAxis(once, axis, math.Pi/3)
	direct := RotateAroundAxis(v, axis, 2*math.Pi/3)

	assert.InDelta(t, direct.X(), twice.X(), 1e-9)
	assert.InDelta(t, direct.Y(), twice.Y(), 1e-9)
	assert.InDelta(t, direct.Z(), twice.Z(), 1e-9)
}

func TestBarycentricCoordinatesSumToOne(t *testing.T) {
	verts := [4]Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	p := Vec3{0.2, 0.3, 0.1}

	w, ok := BarycentricCoordinates(p, verts)
	require.True(t, ok)

	sum := w[0] + w[1] + w[2] + w[3]
	assert.InDelta(t, 1.0, sum, 1e-12)

	// Reconstruct p from the weights.
	got := verts[0].Mul(w[0]).Add(verts[1].Mul(w[1])).Add(verts[2].Mul(w[2])).Add(verts[3].Mul(w[3]))
	assert.InDelta(t, p.X(), got.X(), 1e-9)
	assert.InDelta(t, p.Y(), got.Y(), 1e-9)
	assert.InDelta(t, p.Z(), got.Z(), 1e-9)
}

func TestInSphereSignsAgreeWithOrientation(t *testing.T) {
	a := Vec3{0, 0, 0}
	b := Vec3{1, 0, 0}
	c := Vec3{0, 1, 0}
	d := Vec3{0, 0, 1}
	require.Greater(t, Orientation(a, b, c, d), 0.0)

	center := Vec3{0.25, 0.25, 0.25}
	inside := InSphere(a, b, c, d, center)
	far := InSphere(a, b, c, d, Vec3{10, 10, 10})
	assert.Greater(t, inside, 0.0)
	assert.Less(t, far, 0.0)
}

func TestGaussSolveMatchesCramer2(t *testing.T) {
	x, y, ok := Cramer2(2, 1, 1, 3, 5, 10)
	require.True(t, ok)

	sol, ok := GaussSolve([][]float64{{2, 1}, {1, 3}}, []float64{5, 10})
	require.True(t, ok)
	assert.InDelta(t, x, sol[0], 1e-9)
	assert.InDelta(t, y, sol[1], 1e-9)
}

func TestPerpendicularToIsOrthogonal(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	v := Vec3{3, 4, 0}
	p := PerpendicularTo(v, rng)
	assert.InDelta(t, 0.0, v.Dot(p), 1e-9)
	assert.InDelta(t, 1.0, p.Len(), 1e-9)
}

func TestNormalizeFallsBackOnZeroVector(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := Normalize(Vec3{0, 0, 0}, rng)
	assert.InDelta(t, 1.0, n.Len(), 1e-9)
}
