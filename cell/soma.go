// Package cell supplements spec.md's distilled ECM list types
// (SomaElement/NeuriteElement/Cell) with the thin biological-agent wrapper
// original_source's src/local_biology/ and include/cells/cell.h carry: the
// layer that owns a cell element's BiologicalModule list and implements
// the copy-on-division/branch/elongate semantics §6 describes (spec.md's
// distillation mentions these only as ECM list types; three of the six
// end-to-end scenarios need the full behavior).
package cell

import (
	"github.com/bdm-go/biodynamo/biology"
	"github.com/bdm-go/biodynamo/object"
	"github.com/bdm-go/biodynamo/substance"
)

// SomaElement is the biological facet of a PhysicalSphere: the cell body,
// carrying the module list the engine runs once per tick.
type SomaElement struct {
	*object.PhysicalSphere

	cell    *Cell
	modules []biology.Module
}

func newSomaElement(sphere *object.PhysicalSphere, owner *Cell) *SomaElement {
	return &SomaElement{PhysicalSphere: sphere, cell: owner}
}

// ID satisfies biology.CellElement with the underlying sphere's stable
// identity.
func (s *SomaElement) ID() string { return s.PhysicalSphere.ID().String() }

// Cell returns the agent this soma is the body of.
func (s *SomaElement) Cell() *Cell { return s.cell }

// AddModule attaches m to this element, binding its CellElement back-
// pointer.
func (s *SomaElement) AddModule(m biology.Module) {
	m.SetCellElement(s)
	s.modules = append(s.modules, m)
}

// Modules returns the currently attached modules.
func (s *SomaElement) Modules() []biology.Module { return s.modules }

// RunModules runs every attached module once, in attachment order (spec.md
// §5: per-object order within a sub-phase is otherwise unspecified, but a
// single element's own modules run in a fixed, reproducible order).
func (s *SomaElement) RunModules() {
	for _, m := range s.modules {
		m.Run()
	}
}

// ExtendNewNeurite grows a first neurite segment off this soma (spec.md
// §4.G AddNewPhysicalCylinder), wraps it as a NeuriteElement belonging to
// the same cell, and copies this soma's modules flagged
// IsCopiedWhenNeuriteExtendsFromSoma onto it.
func (s *SomaElement) ExtendNewNeurite(length, phi, theta, diameter float64, library *substance.Library) (*NeuriteElement, error) {
	cyl, err := s.PhysicalSphere.AddNewPhysicalCylinder(length, phi, theta, diameter, library)
	if err != nil {
		return nil, err
	}
	ne := newNeuriteElement(cyl, s.cell)
	ne.modules = biology.CopyModulesForEvent(s.modules, ne, func(m biology.Module) bool {
		return m.IsCopiedWhenNeuriteExtendsFromSoma()
	})
	return ne, nil
}

// Divide splits this soma into two (spec.md §4.G PhysicalSphere.Divide),
// creating a new sibling Cell for the daughter and copying this soma's
// modules flagged IsCopiedWhenSomaDivides onto the daughter's soma.
func (s *SomaElement) Divide(vr, phi, theta float64, library *substance.Library) (*Cell, error) {
	daughterSphere, err := s.PhysicalSphere.Divide(vr, phi, theta, library)
	if err != nil {
		return nil, err
	}
	daughterCell := newCellAround(daughterSphere)
	daughterCell.Soma.modules = biology.CopyModulesForEvent(s.modules, daughterCell.Soma, func(m biology.Module) bool {
		return m.IsCopiedWhenSomaDivides()
	})
	return daughterCell, nil
}
