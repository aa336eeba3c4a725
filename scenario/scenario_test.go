// Package scenario exercises the component packages together the way a
// scheduler-driving application would, covering the six end-to-end
// scenarios named in spec.md §8. These are property-level assertions
// (growth is monotonic, synapses pair, clusters separate), not byte-for-
// byte golden-file comparisons — golden-JSON replay tooling belongs to the
// multi-sim orchestration layer spec.md §1 keeps external to this library.
package scenario

import (
	"math"
	"math/rand"
	"testing"

	"github.com/bdm-go/biodynamo/biodynamo"
	"github.com/bdm-go/biodynamo/biology"
	"github.com/bdm-go/biodynamo/cell"
	"github.com/bdm-go/biodynamo/ecm"
	"github.com/bdm-go/biodynamo/force"
	"github.com/bdm-go/biodynamo/geom"
	"github.com/bdm-go/biodynamo/object"
	"github.com/bdm-go/biodynamo/substance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestECM(seed int64) *ecm.ECM {
	rng := rand.New(rand.NewSource(seed))
	cfg := biodynamo.NewConfigWith(biodynamo.WithBoundingBox(-500, 500, -500, 500, -500, 500))
	return ecm.New(cfg, rng, biodynamo.NewNopLogger())
}

func insideBoundingBox(cfg *biodynamo.Config, p geom.Vec3) bool {
	return p.X() >= cfg.BoundingBoxXMin && p.X() <= cfg.BoundingBoxXMax &&
		p.Y() >= cfg.BoundingBoxYMin && p.Y() <= cfg.BoundingBoxYMax &&
		p.Z() >= cfg.BoundingBoxZMin && p.Z() <= cfg.BoundingBoxZMax
}

// 1. DividingCell: a single red sphere grows until it crosses a diameter
// threshold, then divides; repeated for many steps the cell count only
// grows and every cell stays inside the bounding box.
func TestDividingCellGrowsAndDivides(t *testing.T) {
	e := newTestECM(1)
	sphere, err := object.NewPhysicalSphere(e.Triangulation(), e.RNG(), geom.Vec3{0, 3, 5}, 10, e.Library(), force.NewDefault())
	require.NoError(t, err)
	sphere.SetColor(object.Color{255, 0, 0, 255})
	root := cell.NewCell(sphere)
	e.AddCell(root)

	cells := []*cell.Cell{root}
	for step := 0; step < 5000; step++ {
		current := append([]*cell.Cell(nil), cells...)
		for _, c := range current {
			daughter, err := c.GrowOrDivide(20, 350, 0.01, 1.0, 0, 0, e.Library())
			require.NoError(t, err)
			if daughter != nil {
				cells = append(cells, daughter)
			}
		}
	}

	assert.Greater(t, len(cells), 1, "population should have divided at least once")
	cfg := e.Config()
	for _, c := range cells {
		assert.True(t, insideBoundingBox(cfg, c.Soma.MassLocation()), "cell drifted outside the bounding box")
	}
}

// 2. DividingModule: the same grow-or-divide behavior, but expressed as a
// BiologicalModule attached to the soma rather than a direct method call,
// confirming the module is copied onto every daughter soma.
type growDivideModule struct {
	biology.BaseModule
	threshold, growthSpeed, dt float64
	lib                        *substance.Library
	registry                   *[]*cell.Cell
}

func (m *growDivideModule) IsCopiedWhenSomaDivides() bool { return true }

func (m *growDivideModule) GetCopy(newOwner biology.CellElement) biology.Module {
	c := &growDivideModule{threshold: m.threshold, growthSpeed: m.growthSpeed, dt: m.dt, lib: m.lib, registry: m.registry}
	c.SetCellElement(newOwner)
	return c
}

func (m *growDivideModule) Run() {
	soma := m.GetCellElement().(*cell.SomaElement)
	if soma.Diameter() < m.threshold {
		soma.ChangeVolume(m.growthSpeed, m.dt)
		return
	}
	daughter, err := soma.Divide(1.0, 0, 0, m.lib)
	if err == nil && daughter != nil {
		*m.registry = append(*m.registry, daughter)
	}
}

func TestDividingModuleCopiesOntoDaughters(t *testing.T) {
	e := newTestECM(2)
	sphere, err := object.NewPhysicalSphere(e.Triangulation(), e.RNG(), geom.Vec3{0, 0, 0}, 10, e.Library(), force.NewDefault())
	require.NoError(t, err)
	root := cell.NewCell(sphere)
	e.AddCell(root)

	cells := []*cell.Cell{root}
	m := &growDivideModule{threshold: 20, growthSpeed: 300, dt: 0.01, lib: e.Library(), registry: &cells}
	root.Soma.AddModule(m)

	for step := 0; step < 400; step++ {
		current := append([]*cell.Cell(nil), cells...)
		for _, c := range current {
			c.RunModules()
		}
	}

	assert.Greater(t, len(cells), 1)
	for _, c := range cells[1:] {
		require.Len(t, c.Soma.Modules(), 1, "divided module should have been copied onto every daughter")
	}
}

// 3. SimpleSynapse: an excitatory axon growing up and an inhibitory
// dendrite growing down meet in the middle; a bouton/spine pair synapses
// with a mechanical bond.
func TestSimpleSynapseFormsBond(t *testing.T) {
	e := newTestECM(3)
	lib := e.Library()

	excSphere, err := object.NewPhysicalSphere(e.Triangulation(), e.RNG(), geom.Vec3{-2.5, 0, -30}, 10, lib, force.NewDefault())
	require.NoError(t, err)
	excSphere.SetColor(object.Color{255, 0, 0, 255})
	excCell := cell.NewCell(excSphere)

	inhSphere, err := object.NewPhysicalSphere(e.Triangulation(), e.RNG(), geom.Vec3{2.5, 0, 30}, 10, lib, force.NewDefault())
	require.NoError(t, err)
	inhSphere.SetColor(object.Color{0, 0, 255, 255})
	inhCell := cell.NewCell(inhSphere)

	axon, err := excCell.Soma.ExtendNewNeurite(2, 0, 0, 1, lib)
	require.NoError(t, err)
	dendrite, err := inhCell.Soma.ExtendNewNeurite(2, math.Pi, 0, 1, lib)
	require.NoError(t, err)

	up := geom.Vec3{0, 0, 1}
	down := geom.Vec3{0, 0, -1}
	for step := 0; step < 80 && axon.MassLocation().Z() < dendrite.MassLocation().Z(); step++ {
		_, err = axon.Elongate(1, 1, up, lib)
		require.NoError(t, err)
		_, err = dendrite.Elongate(1, 1, down, lib)
		require.NoError(t, err)
	}
	require.Greater(t, axon.MassLocation().Z(), dendrite.MassLocation().Z(),
		"axon and dendrite tips should have passed each other")

	bouton := object.NewExcrescence(axon.PhysicalObject, object.Bouton, geom.Vec3{})
	spine := object.NewExcrescence(dendrite.PhysicalObject, object.Spine, geom.Vec3{})

	bond := bouton.SynapseWith(spine, true, 1.0, 0.1)
	require.NotNil(t, bond)

	peer, ok := bouton.Peer()
	assert.True(t, ok)
	assert.Equal(t, spine, peer)

	peer, ok = spine.Peer()
	assert.True(t, ok)
	assert.Equal(t, bouton, peer)

	assert.Contains(t, axon.PhysicalObject.PhysicalBonds(), bond)
	assert.Contains(t, dendrite.PhysicalObject.PhysicalBonds(), bond)
}

// chemoElement adapts a *cell.NeuriteElement's tip so a chemoModule's
// biology.CellElement binding (ID()) can reach it, without biology needing
// to know about cell.
type chemoElement struct {
	tip *cell.NeuriteElement
}

func (c *chemoElement) ID() string { return c.tip.ID() }

// 4. NeuriteChemoAttraction: a growth cone biased toward a Gaussian
// substance field drifts toward the field's peak.
type chemoModule struct {
	biology.BaseModule
	e       *ecm.ECM
	rng     *rand.Rand
	prevDir geom.Vec3
}

func (m *chemoModule) Run() {
	elem := m.GetCellElement().(*chemoElement)
	grad := m.e.GetGradientArtificialConcentration("A", elem.tip.MassLocation())
	noise := geom.RandomUnitVector(m.rng)
	dir := m.prevDir.Mul(0.5).Add(grad.Mul(0.4)).Add(noise.Mul(0.1))
	dir = geom.Normalize(dir, m.rng)
	m.prevDir = dir
	_, _ = elem.tip.Elongate(1, 1, dir, m.e.Library())
}

func TestNeuriteChemoAttractionDriftsTowardPeak(t *testing.T) {
	e := newTestECM(4)
	lib := e.Library()
	e.AddArtificialGradient(ecm.ArtificialGradient{
		SubstanceID: "A", Shape: ecm.Bell, Axis: 2, Max: 1.0, Mean: 400, Sigma: 160,
	})

	sphere, err := object.NewPhysicalSphere(e.Triangulation(), e.RNG(), geom.Vec3{0, 0, 0}, 10, lib, force.NewDefault())
	require.NoError(t, err)
	root := cell.NewCell(sphere)
	tip, err := root.Soma.ExtendNewNeurite(2, 0, 0, 1, lib)
	require.NoError(t, err)

	startZ := tip.MassLocation().Z()
	elem := &chemoElement{tip: tip}
	m := &chemoModule{e: e, rng: e.RNG(), prevDir: geom.Vec3{0, 0, 1}}
	m.SetCellElement(elem)

	for step := 0; step < 200; step++ {
		m.Run()
	}

	assert.Greater(t, tip.MassLocation().Z(), startZ, "growth cone should have drifted toward the gradient peak")
}

// 5. SmallNetwork: 8 cells in two populations, each extending one
// chemoattracted axon; after a fixed run, excrescences are added to every
// tip and paired up by proximity, yielding at least one synapse.
func TestSmallNetworkFormsSynapses(t *testing.T) {
	e := newTestECM(5)
	lib := e.Library()
	e.AddArtificialGradient(ecm.ArtificialGradient{
		SubstanceID: "A", Shape: ecm.Bell, Axis: 2, Max: 1.0, Mean: 0, Sigma: 200,
	})

	type tipInfo struct {
		tip        *cell.NeuriteElement
		excitatory bool
	}
	var tips []tipInfo
	for i := 0; i < 4; i++ {
		x := -20.0 + float64(i)*2
		sp, err := object.NewPhysicalSphere(e.Triangulation(), e.RNG(), geom.Vec3{x, 0, -20}, 10, lib, force.NewDefault())
		require.NoError(t, err)
		c := cell.NewCell(sp)
		tip, err := c.Soma.ExtendNewNeurite(2, 0, 0, 1, lib)
		require.NoError(t, err)
		tips = append(tips, tipInfo{tip: tip, excitatory: true})
	}
	for i := 0; i < 4; i++ {
		x := 20.0 - float64(i)*2
		sp, err := object.NewPhysicalSphere(e.Triangulation(), e.RNG(), geom.Vec3{x, 0, 20}, 10, lib, force.NewDefault())
		require.NoError(t, err)
		c := cell.NewCell(sp)
		tip, err := c.Soma.ExtendNewNeurite(2, math.Pi, 0, 1, lib)
		require.NoError(t, err)
		tips = append(tips, tipInfo{tip: tip, excitatory: false})
	}

	rng := e.RNG()
	for step := 0; step < 150; step++ {
		for _, ti := range tips {
			grad := e.GetGradientArtificialConcentration("A", ti.tip.MassLocation())
			dir := geom.Normalize(grad.Add(geom.RandomUnitVector(rng).Mul(0.05)), rng)
			_, _ = ti.tip.Elongate(1, 1, dir, lib)
		}
	}

	var excrescences []*object.Excrescence
	for _, ti := range tips {
		kind := object.Spine
		if ti.excitatory {
			kind = object.Bouton
		}
		excrescences = append(excrescences, object.NewExcrescence(ti.tip.PhysicalObject, kind, geom.Vec3{}))
	}

	synapses := 0
	used := make(map[int]bool)
	for i, a := range excrescences {
		if used[i] || a.Kind != object.Bouton {
			continue
		}
		best, bestDist := -1, math.Inf(1)
		for j, b := range excrescences {
			if used[j] || b.Kind != object.Spine {
				continue
			}
			d := a.WorldPosition().Sub(b.WorldPosition()).Len()
			if d < bestDist {
				best, bestDist = j, d
			}
		}
		if best >= 0 {
			a.SynapseWith(excrescences[best], true, 1.0, 0.1)
			used[i], used[best] = true, true
			synapses++
		}
	}

	assert.GreaterOrEqual(t, synapses, 1)
	assert.LessOrEqual(t, synapses, 4)
}

// 6. SomaClustering: two populations secrete their own color substance and
// climb their own color's local gradient (sensed by comparing against
// immediate triangulation neighbors), so the two population centroids
// separate rather than collapse together.
func centroid(cells []*cell.Cell) geom.Vec3 {
	var sum geom.Vec3
	for _, c := range cells {
		sum = sum.Add(c.Soma.MassLocation())
	}
	return sum.Mul(1.0 / float64(len(cells)))
}

func averageDistanceToCentroid(cells []*cell.Cell) float64 {
	c := centroid(cells)
	total := 0.0
	for _, cc := range cells {
		total += cc.Soma.MassLocation().Sub(c).Len()
	}
	return total / float64(len(cells))
}

func moveTowardOwnColor(e *ecm.ECM, cells []*cell.Cell, colorID string) {
	for _, c := range cells {
		sphere := c.Soma.PhysicalSphere
		self := sphere.GetExtracellularConcentration(colorID)
		neighbors := e.Triangulation().Neighbors(sphere.Space())

		bestConc := self
		var bestPos geom.Vec3
		found := false
		for _, nb := range neighbors {
			other, ok := nb.(*object.PhysicalSphere)
			if !ok || other == sphere {
				continue
			}
			conc := other.GetExtracellularConcentration(colorID)
			if conc > bestConc {
				bestConc = conc
				bestPos = other.MassLocation()
				found = true
			}
		}
		if !found {
			continue
		}
		dir := bestPos.Sub(sphere.MassLocation())
		if dir.Len() < 1e-9 {
			continue
		}
		dir = dir.Mul(1.0 / dir.Len())
		newPos := sphere.MassLocation().Add(dir)
		_ = e.Triangulation().MoveTo(sphere.Space(), newPos)
	}
}

func TestSomaClusteringSeparatesPopulations(t *testing.T) {
	e := newTestECM(6)
	lib := e.Library()
	rng := e.RNG()

	const perGroup = 12
	spawn := func(center geom.Vec3) []*cell.Cell {
		var out []*cell.Cell
		for i := 0; i < perGroup; i++ {
			pos := center.Add(geom.Vec3{rng.Float64()*20 - 10, rng.Float64()*20 - 10, rng.Float64()*20 - 10})
			sp, err := object.NewPhysicalSphere(e.Triangulation(), rng, pos, 10, lib, force.NewDefault())
			require.NoError(t, err)
			c := cell.NewCell(sp)
			out = append(out, c)
			e.AddCell(c)
		}
		return out
	}

	yellow := spawn(geom.Vec3{-100, 0, 0})
	violet := spawn(geom.Vec3{100, 0, 0})

	initialSeparation := centroid(yellow).Sub(centroid(violet)).Len()

	for step := 0; step < 60; step++ {
		for _, c := range yellow {
			c.Soma.ModifyExtracellularQuantity("yellow", 50, 1)
		}
		for _, c := range violet {
			c.Soma.ModifyExtracellularQuantity("violet", 50, 1)
		}

		moveTowardOwnColor(e, yellow, "yellow")
		moveTowardOwnColor(e, violet, "violet")
	}

	finalSeparation := centroid(yellow).Sub(centroid(violet)).Len()
	assert.Greater(t, finalSeparation, initialSeparation*0.9,
		"populations should not collapse into each other")

	assert.Less(t, averageDistanceToCentroid(yellow), 40.0, "yellow population should stay loosely clustered")
	assert.Less(t, averageDistanceToCentroid(violet), 40.0, "violet population should stay loosely clustered")
}
