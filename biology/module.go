// Package biology implements component §6's BiologicalModule capability
// set: the engine calls Run on every module attached to every cell element
// once per tick (sub-phase 4 of the step order, spec.md §5), after physics,
// discretization, and intracellular diffusion have settled.
package biology

// CellElement is the subset of cell.SomaElement/cell.NeuriteElement a
// BiologicalModule needs: a handle back to the agent it's attached to. It
// lives here (rather than being imported from cell) so biology has no
// dependency on cell — cell depends on biology instead, matching the
// direction a capability interface should be owned by its consumer.
type CellElement interface {
	// ID is a stable identifier, used by modules that need to recognize
	// "the same element" across copies (e.g. to avoid re-triggering a
	// once-per-element effect).
	ID() string
}

// Module is the engine-facing capability every biological rule body
// implements (spec.md §6's BiologicalModule).
type Module interface {
	// Run executes this module's rule body for one tick against its
	// attached cell element.
	Run()

	// IsCopiedWhenNeuriteBranches, IsCopiedWhenSomaDivides,
	// IsCopiedWhenNeuriteElongates, IsCopiedWhenNeuriteExtendsFromSoma are
	// the copy-on-event flags: when the corresponding tree operation
	// happens, the engine asks GetCopy() for each module whose flag is
	// true and attaches the result to the new element; modules whose flag
	// is false are simply dropped from the new element.
	IsCopiedWhenNeuriteBranches() bool
	IsCopiedWhenSomaDivides() bool
	IsCopiedWhenNeuriteElongates() bool
	IsCopiedWhenNeuriteExtendsFromSoma() bool

	// IsDeletedAfterBifurcation reports whether this module is removed
	// from its element once that element bifurcates (it has already done
	// its job and a bifurcation means a new growth-cone decision point,
	// typically handled by fresh modules on the daughters instead).
	IsDeletedAfterBifurcation() bool

	// GetCopy produces a new, independent module instance for an agent
	// created by division/branching/elongation, already bound to newOwner.
	GetCopy(newOwner CellElement) Module

	// SetCellElement/GetCellElement bind this module to the element whose
	// Run it operates against.
	SetCellElement(e CellElement)
	GetCellElement() CellElement
}

// BaseModule gives a concrete module type the CellElement binding and a set
// of copy-flag defaults (all false, not deleted after bifurcation) so a
// rule body only needs to embed BaseModule and override Run, GetCopy, and
// whichever copy flags it actually wants true.
type BaseModule struct {
	element CellElement
}

func (b *BaseModule) SetCellElement(e CellElement) { b.element = e }
func (b *BaseModule) GetCellElement() CellElement  { return b.element }

func (b *BaseModule) IsCopiedWhenNeuriteBranches() bool        { return false }
func (b *BaseModule) IsCopiedWhenSomaDivides() bool            { return false }
func (b *BaseModule) IsCopiedWhenNeuriteElongates() bool       { return false }
func (b *BaseModule) IsCopiedWhenNeuriteExtendsFromSoma() bool { return false }
func (b *BaseModule) IsDeletedAfterBifurcation() bool          { return false }

// CopyModulesForEvent filters modules by the copy-on-event flag selector
// matching the given tree operation, and returns fresh copies bound to
// newOwner — the shared helper every cell-tier operation (divide, branch,
// elongate, extend-from-soma) calls (spec.md §6, "copy modules per flag").
func CopyModulesForEvent(modules []Module, newOwner CellElement, shouldCopy func(Module) bool) []Module {
	var copies []Module
	for _, m := range modules {
		if shouldCopy(m) {
			copies = append(copies, m.GetCopy(newOwner))
		}
	}
	return copies
}
