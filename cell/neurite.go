package cell

import (
	"github.com/bdm-go/biodynamo/biology"
	"github.com/bdm-go/biodynamo/geom"
	"github.com/bdm-go/biodynamo/object"
	"github.com/bdm-go/biodynamo/substance"
)

// NeuriteElement is the biological facet of a PhysicalCylinder: one
// dendrite/axon segment, carrying its own module list.
type NeuriteElement struct {
	*object.PhysicalCylinder

	cell    *Cell
	modules []biology.Module
}

func newNeuriteElement(cyl *object.PhysicalCylinder, owner *Cell) *NeuriteElement {
	return &NeuriteElement{PhysicalCylinder: cyl, cell: owner}
}

// ID satisfies biology.CellElement with the underlying cylinder's stable
// identity.
func (n *NeuriteElement) ID() string { return n.PhysicalCylinder.ID().String() }

// Cell returns the agent this segment belongs to.
func (n *NeuriteElement) Cell() *Cell { return n.cell }

// AddModule attaches m to this element, binding its CellElement
// back-pointer.
func (n *NeuriteElement) AddModule(m biology.Module) {
	m.SetCellElement(n)
	n.modules = append(n.modules, m)
}

// Modules returns the currently attached modules.
func (n *NeuriteElement) Modules() []biology.Module { return n.modules }

// RunModules runs every attached module once, in attachment order.
func (n *NeuriteElement) RunModules() {
	for _, m := range n.modules {
		m.Run()
	}
}

// Elongate advances the growth cone by speed*dt in dir (spec.md §4.H
// MovePointMass/ExtendCylinder), then runs discretization. When
// discretization splits this segment (its length exceeded the maximum), a
// new proximal NeuriteElement is created for the upstream half and this
// element's elongation-flagged modules are copied onto it — the "neurite
// elongates" copy event (spec.md §6
// is_copied_when_neurite_elongates); this element keeps its own modules
// and remains the distal (growing) segment.
func (n *NeuriteElement) Elongate(speed, dt float64, dir geom.Vec3, library *substance.Library) (*NeuriteElement, error) {
	prevMother := n.PhysicalCylinder.Mother()
	if err := n.PhysicalCylinder.ExtendCylinder(speed, dt, dir); err != nil {
		return nil, err
	}
	if err := n.PhysicalCylinder.RunDiscretization(library); err != nil {
		return nil, err
	}
	newMother := n.PhysicalCylinder.Mother()
	if newMother == prevMother {
		return nil, nil
	}
	proximalCyl, ok := newMother.(*object.PhysicalCylinder)
	if !ok {
		return nil, nil
	}
	proximal := newNeuriteElement(proximalCyl, n.cell)
	proximal.modules = biology.CopyModulesForEvent(n.modules, proximal, func(m biology.Module) bool {
		return m.IsCopiedWhenNeuriteElongates()
	})
	return proximal, nil
}

// Branch creates a side branch off this segment (spec.md §4.H
// BranchCylinder), wrapping the new segment as a NeuriteElement and
// copying this element's modules flagged IsCopiedWhenNeuriteBranches onto
// it.
func (n *NeuriteElement) Branch(length float64, dir geom.Vec3, diameter float64, library *substance.Library) (*NeuriteElement, error) {
	branch, err := n.PhysicalCylinder.BranchCylinder(length, dir, diameter, library)
	if err != nil || branch == nil {
		return nil, err
	}
	be := newNeuriteElement(branch, n.cell)
	be.modules = biology.CopyModulesForEvent(n.modules, be, func(m biology.Module) bool {
		return m.IsCopiedWhenNeuriteBranches()
	})
	return be, nil
}

// Bifurcate splits this terminal segment into two (spec.md §4.H
// BifurcateCylinder), applying the same neurite-branches copy flag to
// both daughters (the spec names no separate flag for a terminal
// bifurcation vs. a side branch) and dropping any module on this element
// flagged IsDeletedAfterBifurcation, since it has already done its job at
// the decision point.
func (n *NeuriteElement) Bifurcate(length float64, dir1, dir2 geom.Vec3, diameter float64, library *substance.Library) (left, right *NeuriteElement, err error) {
	leftCyl, rightCyl, err := n.PhysicalCylinder.BifurcateCylinder(length, dir1, dir2, diameter, library)
	if err != nil || leftCyl == nil {
		return nil, nil, err
	}
	left = newNeuriteElement(leftCyl, n.cell)
	right = newNeuriteElement(rightCyl, n.cell)
	left.modules = biology.CopyModulesForEvent(n.modules, left, func(m biology.Module) bool {
		return m.IsCopiedWhenNeuriteBranches()
	})
	right.modules = biology.CopyModulesForEvent(n.modules, right, func(m biology.Module) bool {
		return m.IsCopiedWhenNeuriteBranches()
	})

	var kept []biology.Module
	for _, m := range n.modules {
		if !m.IsDeletedAfterBifurcation() {
			kept = append(kept, m)
		}
	}
	n.modules = kept
	return left, right, nil
}
