package cell

import (
	"github.com/bdm-go/biodynamo/object"
	"github.com/bdm-go/biodynamo/substance"
	"github.com/google/uuid"
)

// Cell is the top-level biological agent spec.md §3 lists in the ECM's
// registry ("lists of .../SomaElement/NeuriteElement/Cell"): one soma plus
// whatever neurite tree hangs off it. The tree itself is just the soma's
// PhysicalSphere.Daughters() chain; Cell doesn't duplicate that structure,
// it only anchors identity and rendering color for the whole agent.
type Cell struct {
	id   uuid.UUID
	Soma *SomaElement

	Color object.Color
}

// NewCell creates a Cell around a freshly-built PhysicalSphere.
func NewCell(sphere *object.PhysicalSphere) *Cell {
	return newCellAround(sphere)
}

func newCellAround(sphere *object.PhysicalSphere) *Cell {
	c := &Cell{id: uuid.New()}
	c.Soma = newSomaElement(sphere, c)
	return c
}

// ID is the cell's own stable identity, independent of its soma's (a cell
// survives a soma-diameter change but not a soma replacement in the source
// model, so the two ids are tracked separately per spec.md §9's "pick one
// owner chain" resolution).
func (c *Cell) ID() uuid.UUID { return c.id }

// SetColor/GetColor are the agent-level rendering hint spec.md's
// DividingCell scenario refers to ("Single sphere ... red").
func (c *Cell) SetColor(col object.Color) { c.Color = col }
func (c *Cell) GetColor() object.Color    { return c.Color }

// RunModules runs every module on the soma and, for callers that also want
// the neurite tree covered, is expected to be paired with a caller-side
// walk over the tree's NeuriteElements (the tree is owned by the caller via
// ecm's registry, not duplicated here — see package doc).
func (c *Cell) RunModules() {
	c.Soma.RunModules()
}

// GrowOrDivide is the common DividingCell/DividingModule scenario shape
// (spec.md §8 scenarios 1-2): grow by speed if diameter is below
// threshold, otherwise divide. Returns the daughter cell when a division
// happened.
func (c *Cell) GrowOrDivide(threshold, growthSpeed, dt, vr, phi, theta float64, library *substance.Library) (*Cell, error) {
	if c.Soma.Diameter() < threshold {
		c.Soma.ChangeVolume(growthSpeed, dt)
		return nil, nil
	}
	return c.Soma.Divide(vr, phi, theta, library)
}
