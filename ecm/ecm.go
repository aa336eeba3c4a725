// Package ecm implements component J: the process-wide extracellular
// matrix singleton. It owns the registries of every physical and
// biological object, the triangulation, the substance template library,
// the simulation clock, and artificial gradient/wall configuration
// (spec.md §4.J).
package ecm

import (
	"math/rand"
	"sync"

	"github.com/bdm-go/biodynamo/biodynamo"
	"github.com/bdm-go/biodynamo/cell"
	"github.com/bdm-go/biodynamo/geom"
	"github.com/bdm-go/biodynamo/node"
	"github.com/bdm-go/biodynamo/object"
	"github.com/bdm-go/biodynamo/spatial"
	"github.com/bdm-go/biodynamo/substance"
)

// ECM is the process-wide singleton described by spec.md §4.J. Unlike the
// teacher's global ECS world, this is an explicit value an application
// constructs and tears down (spec.md §9: "the ECM must be clear_all-able
// between simulations") — nothing here is held in a package-level
// variable, so multiple simulations can coexist in one process if a
// caller wants that, while a typical embedder just keeps one.
type ECM struct {
	mu sync.Mutex

	config *biodynamo.Config
	logger biodynamo.Logger
	rng    *rand.Rand

	tr     *spatial.Triangulation[node.Site]
	extent float64
	lib    *substance.Library

	time float64

	nodes     []*node.PhysicalNode
	spheres   []*object.PhysicalSphere
	cylinders []*object.PhysicalCylinder
	cells     []*cell.Cell
	somas     []*cell.SomaElement
	neurites  []*cell.NeuriteElement

	gradients []ArtificialGradient
}

// New creates an ECM with a fresh triangulation (centered at the origin,
// sized to the config's bounding box) and substance library.
func New(config *biodynamo.Config, rng *rand.Rand, logger biodynamo.Logger) *ECM {
	if logger == nil {
		logger = biodynamo.NewNopLogger()
	}
	extent := config.BoundingBoxXMax - config.BoundingBoxXMin
	if dy := config.BoundingBoxYMax - config.BoundingBoxYMin; dy > extent {
		extent = dy
	}
	if dz := config.BoundingBoxZMax - config.BoundingBoxZMin; dz > extent {
		extent = dz
	}
	return &ECM{
		config: config,
		logger: logger,
		rng:    rng,
		tr:     spatial.NewTriangulation[node.Site](rng, geom.Vec3{}, extent),
		extent: extent,
		lib:    substance.NewLibrary(),
	}
}

// Triangulation exposes the shared spatial structure for components that
// need to insert/move/remove sites directly (object.NewPhysicalSphere and
// friends take it as a constructor argument).
func (e *ECM) Triangulation() *spatial.Triangulation[node.Site] { return e.tr }

// Library exposes the substance template registry.
func (e *ECM) Library() *substance.Library { return e.lib }

// Config/Logger/RNG expose the shared engine-wide resources.
func (e *ECM) Config() *biodynamo.Config { return e.config }
func (e *ECM) Logger() biodynamo.Logger  { return e.logger }
func (e *ECM) RNG() *rand.Rand           { return e.rng }

// Time is the simulation clock, advanced once per tick by AdvanceTime
// (spec.md §5 sub-phase 6, "time advance").
func (e *ECM) Time() float64 { return e.time }

// AdvanceTime moves the simulation clock forward by dt and tags the
// logger with the new tick so anything logged for the rest of this step
// carries the simulation time it happened at.
func (e *ECM) AdvanceTime(dt float64) {
	e.mu.Lock()
	e.time += dt
	t := e.time
	e.logger = e.logger.WithTick(t)
	e.mu.Unlock()
	e.logger.Debugf("advanced simulation clock by %g", dt)
}

// CreatePhysicalNodeInstance creates a bare PhysicalNode at position and
// inserts it into the triangulation as a dummy site, so every moving
// object has a well-defined Voronoi volume even where no biological
// object sits (spec.md §4.J).
func (e *ECM) CreatePhysicalNodeInstance(position geom.Vec3) (*node.PhysicalNode, error) {
	n := node.New(position, e.lib)
	start := e.tr.AnyTetrahedron()
	if _, err := e.tr.Insert(n.Space(), start); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.nodes = append(e.nodes, n)
	e.mu.Unlock()
	return n, nil
}

// SubstanceInstance/IntracellularSubstanceInstance return a fresh copy of
// a named template, auto-creating a default one on first reference
// (spec.md §4.J, §7 ConfigurationError policy — delegated to
// substance.Library, which already implements the auto-creation).
func (e *ECM) SubstanceInstance(id string) *substance.Instance {
	return e.lib.SubstanceInstance(id)
}

func (e *ECM) IntracellularSubstanceInstance(id string) *substance.IntracellularSubstance {
	return e.lib.IntracellularSubstanceInstance(id)
}

// RegisterExtracellularTemplate/RegisterIntracellularTemplate pre-seed the
// library so later auto-creation uses real diffusion/degradation
// parameters rather than the library's zero-value defaults.
func (e *ECM) RegisterExtracellularTemplate(tmpl substance.Template) {
	e.lib.RegisterExtracellular(tmpl)
}

func (e *ECM) RegisterIntracellularTemplate(tmpl substance.Template) {
	e.lib.RegisterIntracellular(tmpl)
}

// AddPhysicalSphere/AddPhysicalCylinder register an already-constructed
// object with the ECM (spec.md §4.J: "when a PhysicalSphere/Cylinder is
// added, it is also added as a PhysicalNode" — true by construction here,
// since both embed *node.PhysicalNode already inserted into the same
// triangulation; ECM's own node list is reserved for dummy sites created
// via CreatePhysicalNodeInstance).
func (e *ECM) AddPhysicalSphere(s *object.PhysicalSphere) {
	e.mu.Lock()
	e.spheres = append(e.spheres, s)
	e.mu.Unlock()
}

func (e *ECM) AddPhysicalCylinder(c *object.PhysicalCylinder) {
	e.mu.Lock()
	e.cylinders = append(e.cylinders, c)
	e.mu.Unlock()
}

func (e *ECM) AddCell(c *cell.Cell) {
	e.mu.Lock()
	e.cells = append(e.cells, c)
	e.somas = append(e.somas, c.Soma)
	e.mu.Unlock()
}

func (e *ECM) AddNeuriteElement(n *cell.NeuriteElement) {
	e.mu.Lock()
	e.neurites = append(e.neurites, n)
	e.mu.Unlock()
}

// RemovePhysicalSphere/RemovePhysicalCylinder drop an object from the
// registry (called when a sphere/cylinder is retracted or merged away;
// the triangulation-side removal is the object's own responsibility, per
// spec.md §5 "unregisters itself from ECM and from the triangulation in a
// single atomic action" — callers are expected to pair this with the
// object's own Remove/RetractCylinder/disappear path).
func (e *ECM) RemovePhysicalSphere(s *object.PhysicalSphere) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, cur := range e.spheres {
		if cur == s {
			e.spheres = append(e.spheres[:i], e.spheres[i+1:]...)
			return
		}
	}
}

func (e *ECM) RemovePhysicalCylinder(c *object.PhysicalCylinder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, cur := range e.cylinders {
		if cur == c {
			e.cylinders = append(e.cylinders[:i], e.cylinders[i+1:]...)
			return
		}
	}
}

// Spheres, Cylinders, Cells, Somas, Neurites, Nodes return snapshots of the
// current registries. The scheduler (an external collaborator, spec.md
// §6) is expected to call these once per tick and iterate.
func (e *ECM) Spheres() []*object.PhysicalSphere {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*object.PhysicalSphere, len(e.spheres))
	copy(out, e.spheres)
	return out
}

func (e *ECM) Cylinders() []*object.PhysicalCylinder {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*object.PhysicalCylinder, len(e.cylinders))
	copy(out, e.cylinders)
	return out
}

func (e *ECM) Cells() []*cell.Cell {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*cell.Cell, len(e.cells))
	copy(out, e.cells)
	return out
}

func (e *ECM) Somas() []*cell.SomaElement {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*cell.SomaElement, len(e.somas))
	copy(out, e.somas)
	return out
}

func (e *ECM) Neurites() []*cell.NeuriteElement {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*cell.NeuriteElement, len(e.neurites))
	copy(out, e.neurites)
	return out
}

func (e *ECM) Nodes() []*node.PhysicalNode {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*node.PhysicalNode, len(e.nodes))
	copy(out, e.nodes)
	return out
}

// ClearAll tears down every registry, resets the clock, and replaces the
// triangulation and substance library with fresh ones, so the same *ECM
// value can seed a fresh simulation run (spec.md §4.J/§9).
func (e *ECM) ClearAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.time = 0
	e.nodes = nil
	e.spheres = nil
	e.cylinders = nil
	e.cells = nil
	e.somas = nil
	e.neurites = nil
	e.gradients = nil
	e.lib = substance.NewLibrary()
	e.tr = spatial.NewTriangulation[node.Site](e.rng, geom.Vec3{}, e.extent)
}
