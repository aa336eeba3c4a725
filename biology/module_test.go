package biology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeElement struct{ id string }

func (f *fakeElement) ID() string { return f.id }

type growthModule struct {
	BaseModule
	ran    bool
	copied bool
}

func (g *growthModule) Run() { g.ran = true }

func (g *growthModule) IsCopiedWhenSomaDivides() bool { return true }

func (g *growthModule) GetCopy(newOwner CellElement) Module {
	copy := &growthModule{copied: true}
	copy.SetCellElement(newOwner)
	return copy
}

func TestBaseModuleBindsCellElement(t *testing.T) {
	m := &growthModule{}
	e := &fakeElement{id: "a"}
	m.SetCellElement(e)
	assert.Equal(t, e, m.GetCellElement())
	m.Run()
	assert.True(t, m.ran)
}

func TestCopyModulesForEventFiltersByFlag(t *testing.T) {
	divModule := &growthModule{}
	other := &notCopiedModule{}
	modules := []Module{divModule, other}
	newOwner := &fakeElement{id: "b"}

	copies := CopyModulesForEvent(modules, newOwner, func(m Module) bool {
		return m.IsCopiedWhenSomaDivides()
	})

	require.Len(t, copies, 1)
	gm, ok := copies[0].(*growthModule)
	require.True(t, ok)
	assert.True(t, gm.copied)
	assert.Equal(t, newOwner, gm.GetCellElement())
}

type notCopiedModule struct{ BaseModule }

func (n *notCopiedModule) Run()                               {}
func (n *notCopiedModule) GetCopy(newOwner CellElement) Module { return n }
