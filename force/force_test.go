package force

import (
	"testing"

	"github.com/bdm-go/biodynamo/geom"
	"github.com/stretchr/testify/assert"
)

func TestSphereSphereNoOverlapIsZero(t *testing.T) {
	d := NewDefault()
	f := d.SphereSphere(1, geom.Vec3{0, 0, 0}, 1, geom.Vec3{10, 0, 0})
	assert.Equal(t, geom.Vec3{}, f)
}

func TestSphereSpherePushesApart(t *testing.T) {
	d := NewDefault()
	f := d.SphereSphere(1, geom.Vec3{0, 0, 0}, 1, geom.Vec3{1, 0, 0})
	assert.Less(t, f.X(), 0.0)
}

func TestCylinderCylinderProximalShareWithinRange(t *testing.T) {
	d := NewDefault()
	_, p := d.CylinderCylinder(
		geom.Vec3{0, 0, 0}, geom.Vec3{10, 0, 0}, 0.5,
		geom.Vec3{5, -1, 0}, geom.Vec3{5, 1, 0}, 0.5,
	)
	assert.GreaterOrEqual(t, p, 0.0)
	assert.LessOrEqual(t, p, 1.0)
}

func TestAdhesiveAttractsJustOutsideContact(t *testing.T) {
	a := NewAdhesive(0.5, 2.0)
	f := a.SphereSphere(1, geom.Vec3{0, 0, 0}, 1, geom.Vec3{2.5, 0, 0})
	assert.Greater(t, f.X(), 0.0) // pulled toward the other sphere
}

func TestAdhesiveRepulsionOverridesAttractionWhenOverlapping(t *testing.T) {
	a := NewAdhesive(0.5, 2.0)
	f := a.SphereSphere(1, geom.Vec3{0, 0, 0}, 1, geom.Vec3{1, 0, 0})
	assert.Less(t, f.X(), 0.0)
}
