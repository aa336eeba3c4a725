package substance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwoCompartmentDiffuseConservesMass(t *testing.T) {
	qa, qb, skip := TwoCompartmentDiffuse(10, 0.5, 100, 0, 2, 2, 0.1)
	require.False(t, skip)
	assert.InDelta(t, 100, qa+qb, 1e-9)
	assert.Less(t, qa, 100.0) // mass should flow from A toward B
}

func TestTwoCompartmentDiffuseSkipsBelowFloor(t *testing.T) {
	qa, qb, skip := TwoCompartmentDiffuse(10, 1e-15, 100, 0, 2, 2, 0.1)
	assert.True(t, skip)
	assert.Equal(t, 100.0, qa)
	assert.Equal(t, 0.0, qb)
}

func TestDegradeIsExponentialDecay(t *testing.T) {
	inst := NewInstance(Template{ID: "X", DegradationConstant: 1.0})
	inst.Quantity = 10
	inst.Degrade(1.0)
	assert.InDelta(t, 10*0.36787944117, inst.Quantity, 1e-6)
}

func TestLibraryAutoCreatesDefaultTemplate(t *testing.T) {
	lib := NewLibrary()
	inst := lib.SubstanceInstance("unregistered")
	assert.Equal(t, "unregistered", inst.ID)
	assert.Equal(t, 0.0, inst.DiffusionConstant)
}

func TestPartitionPreservesTotalQuantity(t *testing.T) {
	s := NewIntracellularInstance(Template{ID: "S"})
	s.Quantity = 40
	s.PartitionCoefficient = 0.3
	this, other := s.Partition(5, 5)
	assert.InDelta(t, 40, this.Quantity+other.Quantity, 1e-9)
	assert.InDelta(t, 12, this.Quantity, 1e-9)
}
