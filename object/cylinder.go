package object

import (
	"math"
	"math/rand"

	"github.com/bdm-go/biodynamo/geom"
	"github.com/bdm-go/biodynamo/node"
	"github.com/bdm-go/biodynamo/spatial"
	"github.com/bdm-go/biodynamo/substance"
)

// Mother is component H's "exactly one mother" relation: either a
// PhysicalSphere or another PhysicalCylinder.
type Mother interface {
	node.Site
	OriginOf(daughter *PhysicalCylinder) geom.Vec3
}

// PhysicalCylinder is component H: a 1D spring between its mother's
// attachment point and its own mass_location, representing one neurite
// segment of a dendritic/axonal tree (spec §4.H).
type PhysicalCylinder struct {
	*PhysicalObject

	tr  *spatial.Triangulation[node.Site]
	rng *rand.Rand

	mother       Mother
	daughterLeft *PhysicalCylinder
	daughterRight *PhysicalCylinder

	springAxis    geom.Vec3
	actualLength  float64
	restingLength float64
	springConstant float64
	tension       float64

	branchOrder int

	forceToTransmitToProximalMass geom.Vec3

	ForcePolicy InterObjectForce
}

const (
	minCylinderLength = 2.0
	maxCylinderLength = 15.0
	bifurcMinLength   = 5.0
)

func newPhysicalCylinder(tr *spatial.Triangulation[node.Site], rng *rand.Rand, mother Mother, springAxis geom.Vec3, diameter float64, library *substance.Library, forcePolicy InterObjectForce, branchOrder int) (*PhysicalCylinder, error) {
	cyl := &PhysicalCylinder{
		PhysicalObject: newPhysicalObject(geom.Vec3{}, library, diameter),
		tr:             tr,
		rng:            rng,
		mother:         mother,
		springAxis:     springAxis,
		springConstant: 10,
		branchOrder:    branchOrder,
		ForcePolicy:    forcePolicy,
	}
	cyl.lengthFn = cyl.ActualLength

	origin := mother.OriginOf(cyl)
	cyl.massLocation = origin.Add(springAxis)
	cyl.actualLength = springAxis.Len()
	cyl.restingLength = cyl.actualLength // zero tension at creation
	cyl.volume = cylinderVolume(diameter, cyl.actualLength)
	cyl.mass = cyl.volume
	cyl.updateLocalCoordinateAxisFromScratch()
	cyl.Attach(cyl.midpoint(), cyl)

	start := tr.AnyTetrahedron()
	if _, err := tr.Insert(cyl.Space(), start); err != nil {
		return nil, err
	}
	return cyl, nil
}

func (c *PhysicalCylinder) midpoint() geom.Vec3 {
	origin := c.mother.OriginOf(c)
	return origin.Add(c.massLocation).Mul(0.5)
}

// ActualLength, RestingLength, Tension, SpringConstant, BranchOrder are the
// cylinder's mechanical state (spec §3).
func (c *PhysicalCylinder) ActualLength() float64   { return c.actualLength }
func (c *PhysicalCylinder) RestingLength() float64  { return c.restingLength }
func (c *PhysicalCylinder) Tension() float64        { return c.tension }
func (c *PhysicalCylinder) BranchOrder() int        { return c.branchOrder }
func (c *PhysicalCylinder) Mother() Mother          { return c.mother }
func (c *PhysicalCylinder) DaughterLeft() *PhysicalCylinder  { return c.daughterLeft }
func (c *PhysicalCylinder) DaughterRight() *PhysicalCylinder { return c.daughterRight }
func (c *PhysicalCylinder) SpringAxis() geom.Vec3   { return c.springAxis }

// ProximalEnd is the cylinder's attachment point on its mother.
func (c *PhysicalCylinder) ProximalEnd() geom.Vec3 { return c.mother.OriginOf(c) }

// OriginOf is PhysicalCylinder's half of the Mother contract: a daughter
// branching directly off this cylinder attaches at its own mass_location
// (spec §4.H — daughters share the mother's distal tip unless a later
// insert_proximal_cylinder shifts the branch point upstream).
func (c *PhysicalCylinder) OriginOf(daughter *PhysicalCylinder) geom.Vec3 {
	return c.massLocation
}

func (c *PhysicalCylinder) recomputeTension() {
	if c.restingLength < 1e-12 {
		c.tension = 0
		return
	}
	c.tension = c.springConstant * (c.actualLength - c.restingLength) / c.restingLength
}

// updateDependentPhysicalVariables recomputes spring_axis, actual_length,
// tension, and volume from the mother's current origin and this cylinder's
// mass_location (spec §4.H).
func (c *PhysicalCylinder) updateDependentPhysicalVariables() {
	origin := c.mother.OriginOf(c)
	c.springAxis = c.massLocation.Sub(origin)
	c.actualLength = c.springAxis.Len()
	c.recomputeTension()
	c.volume = cylinderVolume(c.diameter, c.actualLength)
	c.mass = c.volume
}

func (c *PhysicalCylinder) updateLocalCoordinateAxisFromScratch() {
	dir := c.springAxis
	if dir.Len() < 1e-12 {
		dir = geom.Vec3{0, 0, 1}
	}
	x := dir.Normalize()
	y := geom.PerpendicularTo(x, c.rng)
	z := x.Cross(y).Normalize()
	c.axisX, c.axisY, c.axisZ = x, y, z
}

// updateLocalCoordinateAxis keeps x aligned with spring_axis and y close to
// its previous direction, renormalizing z = x * y; falls back to a random
// perpendicular if the configuration degenerates (spec §4.H).
func (c *PhysicalCylinder) updateLocalCoordinateAxis() {
	dir := c.springAxis
	if dir.Len() < 1e-9 {
		return
	}
	x := dir.Normalize()
	y := c.axisY.Sub(x.Mul(x.Dot(c.axisY)))
	if y.Len() < 1e-9 {
		y = geom.PerpendicularTo(x, c.rng)
	} else {
		y = y.Normalize()
	}
	z := x.Cross(y).Normalize()
	c.axisX, c.axisY, c.axisZ = x, y, z
}

func (c *PhysicalCylinder) reposition() error {
	newPos := c.midpoint()
	return c.tr.MoveTo(c.Space(), newPos)
}

// correctDirection projects dir onto the plane perpendicular to spring_axis
// when the angle between them exceeds 90 degrees (spec §4.H "Direction
// correction").
func (c *PhysicalCylinder) correctDirection(dir geom.Vec3) geom.Vec3 {
	axis := c.springAxis.Normalize()
	if dir.Dot(axis) < 0 {
		dir = dir.Sub(axis.Mul(dir.Dot(axis)))
		if dir.Len() < 1e-9 {
			dir = geom.PerpendicularTo(axis, c.rng)
		}
	}
	return dir
}

// MovePointMass advances mass_location along dir by speed*dt, recomputing
// spring_axis/actual_length/resting_length for zero tension (spec §4.H).
// Only valid on a terminal cylinder (no daughter_left); silently a no-op
// otherwise.
func (c *PhysicalCylinder) MovePointMass(speed, dt float64, dir geom.Vec3) error {
	if c.daughterLeft != nil {
		return nil
	}
	if dir.Len() < 1e-12 {
		return nil
	}
	move := dir.Normalize().Mul(speed * dt)
	c.massLocation = c.massLocation.Add(move)
	c.updateDependentPhysicalVariables()
	c.restingLength = c.actualLength // zero tension
	c.tension = 0
	c.updateLocalCoordinateAxis()
	return c.reposition()
}

// ExtendCylinder moves the point mass only if dir aligns with spring_axis
// (dot > 0).
func (c *PhysicalCylinder) ExtendCylinder(speed, dt float64, dir geom.Vec3) error {
	if dir.Dot(c.springAxis) <= 0 {
		return nil
	}
	return c.MovePointMass(speed, dt, dir)
}

// RetractCylinder shortens the cylinder by speed*dt keeping tension
// constant; if it would shrink below the minimum length it merges with its
// mother (if the mother is a single-daughter cylinder, recursively) or
// disappears entirely (spec §4.H).
func (c *PhysicalCylinder) RetractCylinder(speed, dt float64) error {
	if c.daughterLeft != nil {
		return nil
	}
	shrink := speed * dt
	newLength := c.actualLength - shrink
	if newLength >= minCylinderLength {
		c.actualLength = newLength
		c.springAxis = c.springAxis.Normalize().Mul(newLength)
		c.massLocation = c.mother.OriginOf(c).Add(c.springAxis)
		// keep tension constant: R = k*L/(T+k)
		c.restingLength = c.springConstant * c.actualLength / (c.tension + c.springConstant)
		c.volume = cylinderVolume(c.diameter, c.actualLength)
		c.mass = c.volume
		c.updateLocalCoordinateAxis()
		return c.reposition()
	}
	return c.vanishIntoMother()
}

func (c *PhysicalCylinder) vanishIntoMother() error {
	motherCyl, isCyl := c.mother.(*PhysicalCylinder)
	if isCyl && motherCyl.daughterRight == nil {
		return motherCyl.mergeDaughter(c)
	}
	return c.disappear()
}

// disappear removes this cylinder: mother stops referencing it, ECM's
// triangulation unregisters its SpaceNode, and its intracellular substances
// are transferred to the mother (spec §4.H).
func (c *PhysicalCylinder) disappear() error {
	for id, s := range c.intracellular {
		ms := c.mother.(interface {
			Intracellular(string) *substance.IntracellularSubstance
		}).Intracellular(id)
		ms.Quantity += s.Quantity
	}
	switch m := c.mother.(type) {
	case *PhysicalSphere:
		m.removeDaughter(c)
	case *PhysicalCylinder:
		m.removeDaughterRef(c)
	}
	return c.tr.Remove(c.Space())
}

func (c *PhysicalCylinder) removeDaughterRef(child *PhysicalCylinder) {
	if c.daughterLeft == child {
		c.daughterLeft = c.daughterRight
		c.daughterRight = nil
	} else if c.daughterRight == child {
		c.daughterRight = nil
	}
}

// mergeDaughter absorbs child (its sole daughter) into this cylinder: this
// cylinder takes over child's mass_location, daughters, intracellular
// quantities and excrescences (shifted by the absorbed length); tension is
// kept constant and resting_length recomputed; child is removed from the
// triangulation, and any biological element wrapping it is left untouched
// here (spec §4.H).
func (c *PhysicalCylinder) mergeDaughter(child *PhysicalCylinder) error {
	absorbed := c.actualLength
	c.massLocation = child.massLocation
	c.daughterLeft = child.daughterLeft
	c.daughterRight = child.daughterRight
	if c.daughterLeft != nil {
		c.daughterLeft.mother = c
	}
	if c.daughterRight != nil {
		c.daughterRight.mother = c
	}
	for id, s := range child.intracellular {
		mine := c.Intracellular(id)
		mine.Quantity += s.Quantity
	}
	for _, e := range child.excrescences {
		e.LocalCoordinate = e.LocalCoordinate.Add(geom.Vec3{0, 0, absorbed})
		e.Owner = c.PhysicalObject
		c.AddExcrescence(e)
	}
	tension := c.tension
	c.updateDependentPhysicalVariables()
	c.restingLength = c.springConstant * c.actualLength / (tension + c.springConstant)
	c.tension = tension
	c.updateLocalCoordinateAxis()
	if err := c.tr.Remove(child.Space()); err != nil {
		return err
	}
	return c.reposition()
}

// RunDiscretization splits the cylinder if it has grown past the maximum
// length, or merges it into its mother if it has shrunk below the minimum
// and the mother is a sole-daughter cylinder whose combined length stays
// under the maximum (spec §4.H). Only meaningful on a terminal cylinder.
func (c *PhysicalCylinder) RunDiscretization(library *substance.Library) error {
	if c.daughterLeft != nil {
		return nil
	}
	if c.actualLength > maxCylinderLength {
		_, err := c.insertProximalCylinder(0.5, library)
		return err
	}
	if motherCyl, ok := c.mother.(*PhysicalCylinder); ok && motherCyl.daughterRight == nil {
		if c.actualLength < minCylinderLength && motherCyl.actualLength+c.actualLength < maxCylinderLength-1 {
			return motherCyl.mergeDaughter(c)
		}
	}
	return nil
}

// insertProximalCylinder splits this cylinder at distal_portion in (0,1): a
// new cylinder is created upstream taking over the mother relation; mass
// and axes are inherited; resting_length splits in the same ratio;
// intracellular substances with D > 1e-12 are distributed by
// distal_portion, others remain entirely distal; excrescences are
// redistributed by local coordinate (spec §4.H).
func (c *PhysicalCylinder) insertProximalCylinder(distalPortion float64, library *substance.Library) (*PhysicalCylinder, error) {
	origin := c.mother.OriginOf(c)
	splitPoint := origin.Add(c.springAxis.Mul(1 - distalPortion))

	proximal := &PhysicalCylinder{
		PhysicalObject: newPhysicalObject(splitPoint, library, c.diameter),
		tr:             c.tr,
		rng:            c.rng,
		mother:         c.mother,
		springAxis:     splitPoint.Sub(origin),
		springConstant: c.springConstant,
		branchOrder:    c.branchOrder,
		ForcePolicy:    c.ForcePolicy,
		daughterLeft:   c,
	}
	proximal.lengthFn = proximal.ActualLength
	proximal.actualLength = proximal.springAxis.Len()
	proximal.restingLength = c.restingLength * (1 - distalPortion)
	proximal.massLocation = splitPoint
	proximal.axisX, proximal.axisY, proximal.axisZ = c.axisX, c.axisY, c.axisZ
	proximal.volume = cylinderVolume(proximal.diameter, proximal.actualLength)
	proximal.mass = proximal.volume

	switch m := c.mother.(type) {
	case *PhysicalSphere:
		dir := m.daughtersCoord[c]
		delete(m.daughtersCoord, c)
		m.removeDaughter(c)
		m.daughters = append(m.daughters, proximal)
		m.daughtersCoord[proximal] = dir
	case *PhysicalCylinder:
		m.removeDaughterRef(c)
		if m.daughterLeft == nil {
			m.daughterLeft = proximal
		} else {
			m.daughterRight = proximal
		}
	}

	c.mother = proximal
	c.restingLength = c.restingLength * distalPortion
	c.updateDependentPhysicalVariables()

	for id, s := range c.intracellular {
		if s.DiffusionConstant > 1e-12 {
			total := s.Quantity
			s.Quantity = total * distalPortion
			proxS := s.Clone()
			proxS.Quantity = total * (1 - distalPortion)
			proximal.intracellular[id] = proxS
		}
	}

	var kept []*Excrescence
	for _, e := range c.excrescences {
		localZ := e.LocalCoordinate.Z()
		if localZ > c.actualLength {
			e.LocalCoordinate = geom.Vec3{e.LocalCoordinate.X(), e.LocalCoordinate.Y(), localZ - c.actualLength}
			e.Owner = proximal.PhysicalObject
			proximal.AddExcrescence(e)
		} else {
			kept = append(kept, e)
		}
	}
	c.excrescences = kept

	proximal.Attach(proximal.midpoint(), proximal)
	if _, err := c.tr.Insert(proximal.Space(), c.tr.AnyTetrahedron()); err != nil {
		return nil, err
	}
	if err := c.reposition(); err != nil {
		return nil, err
	}
	return proximal, nil
}

// BranchCylinder splits this cylinder via insert_proximal_cylinder(0.5),
// then extends the newly-created proximal cylinder with a side cylinder in
// the corrected direction as its daughter_right (spec §4.H). Valid only
// when daughter_right is not already set.
func (c *PhysicalCylinder) BranchCylinder(length float64, dir geom.Vec3, diameter float64, library *substance.Library) (*PhysicalCylinder, error) {
	if c.daughterRight != nil {
		return nil, nil
	}
	proximal, err := c.insertProximalCylinder(0.5, library)
	if err != nil {
		return nil, err
	}
	corrected := proximal.correctDirection(dir)
	branch, err := newPhysicalCylinder(c.tr, c.rng, proximal, corrected.Normalize().Mul(length), diameter, library, c.ForcePolicy, proximal.branchOrder+1)
	if err != nil {
		return nil, err
	}
	proximal.daughterRight = branch
	return branch, nil
}

// BifurcateCylinder creates two new cylinders as daughter_left and
// daughter_right of this (terminal) cylinder, each of the given length in
// the corrected direction. Valid only when L > bifurcMinLength.
func (c *PhysicalCylinder) BifurcateCylinder(length float64, dir1, dir2 geom.Vec3, diameter float64, library *substance.Library) (left, right *PhysicalCylinder, err error) {
	if c.daughterLeft != nil || c.actualLength <= bifurcMinLength {
		return nil, nil, nil
	}
	d1 := c.correctDirection(dir1)
	d2 := c.correctDirection(dir2)
	left, err = newPhysicalCylinder(c.tr, c.rng, c, d1.Normalize().Mul(length), diameter, library, c.ForcePolicy, c.branchOrder+1)
	if err != nil {
		return nil, nil, err
	}
	right, err = newPhysicalCylinder(c.tr, c.rng, c, d2.Normalize().Mul(length), diameter, library, c.ForcePolicy, c.branchOrder+1)
	if err != nil {
		return nil, nil, err
	}
	c.daughterLeft, c.daughterRight = left, right
	return left, right, nil
}

// ForceTransmittedToMother is how children pull on their parents:
// max(T,0)/L * spring_axis + force_to_transmit_to_proximal_mass (spec
// §4.H).
func (c *PhysicalCylinder) ForceTransmittedToMother() geom.Vec3 {
	t := math.Max(c.tension, 0)
	var pull geom.Vec3
	if c.actualLength > 1e-12 {
		pull = c.springAxis.Mul(t / c.actualLength)
	}
	return pull.Add(c.forceToTransmitToProximalMass)
}

func (c *PhysicalCylinder) isRelative(other node.Site) bool {
	switch o := other.(type) {
	case *PhysicalCylinder:
		if o == c.daughterLeft || o == c.daughterRight {
			return true
		}
		if o.mother == Mother(c) {
			return true
		}
		if motherCyl, ok := c.mother.(*PhysicalCylinder); ok && o == motherCyl {
			return true
		}
		if c.mother == o.mother {
			return true // siblings under the same mother
		}
	case *PhysicalSphere:
		if s, ok := c.mother.(*PhysicalSphere); ok && s == o {
			return true
		}
	}
	return false
}

func (c *PhysicalCylinder) hasBondWith(other node.Site) bool {
	for _, b := range c.bonds {
		if b.Other(c.PhysicalObject).ID() == other.ID() {
			return true
		}
	}
	return false
}

func (c *PhysicalCylinder) avoidanceForceFrom(other node.Site) geom.Vec3 {
	if c.isRelative(other) || c.hasBondWith(other) {
		return geom.Vec3{}
	}
	switch o := other.(type) {
	case *PhysicalSphere:
		f, _ := c.ForcePolicy.CylinderSphere(c.ProximalEnd(), c.massLocation, c.diameter/2, o.Diameter()/2, o.MassLocation())
		return f
	case *PhysicalCylinder:
		f, _ := c.ForcePolicy.CylinderCylinder(c.ProximalEnd(), c.massLocation, c.diameter/2, o.ProximalEnd(), o.massLocation, o.diameter/2)
		return f
	default:
		return geom.Vec3{}
	}
}

// antiKinkForce penalizes a large angle at this cylinder's distal mass
// between the proximal-relative and distal-relative directions, via a
// simple spring on the far-to-self vector (spec §4.H, optional term).
func (c *PhysicalCylinder) antiKinkForce() geom.Vec3 {
	if c.daughterLeft == nil {
		return geom.Vec3{}
	}
	proximalDir := c.mother.OriginOf(c).Sub(c.massLocation)
	distalDir := c.daughterLeft.massLocation.Sub(c.massLocation)
	if proximalDir.Len() < 1e-9 || distalDir.Len() < 1e-9 {
		return geom.Vec3{}
	}
	straightLine := proximalDir.Normalize().Add(distalDir.Normalize()).Mul(-0.5)
	return straightLine.Mul(c.springConstant * 0.1)
}

// RunPhysics computes the force on the distal mass (spec §4.H's six
// contributions, now including the artificial-wall force if wallForce is
// non-nil), stores the proximal share, applies the resulting displacement
// if it exceeds adherence, and finally runs the collision-avoidance check
// against every neighboring cylinder, installing or releasing a sliding
// bond as needed (spec §4.H "Collision check"). wallForce is nil when
// artificial walls are disabled for cylinders; a caller wires it to
// ecm.ECM.WallForceForCylinders.
func (c *PhysicalCylinder) RunPhysics(dt, maxDisplacement float64, wallForce func(geom.Vec3, float64) geom.Vec3) error {
	c.recomputeTension()
	previousMassLocation := c.massLocation

	fSpring := geom.Vec3{}
	if c.actualLength > 1e-12 {
		fSpring = c.springAxis.Mul(-c.tension / c.actualLength)
	}
	total := fSpring

	for _, d := range []*PhysicalCylinder{c.daughterLeft, c.daughterRight} {
		if d != nil {
			total = total.Add(d.ForceTransmittedToMother())
		}
	}

	neighbors := c.tr.Neighbors(c.Space())
	for _, neighbor := range neighbors {
		total = total.Add(c.avoidanceForceFrom(neighbor))
	}

	for _, b := range c.bonds {
		total = total.Add(b.ForceOn(c.PhysicalObject, geom.Vec3{}))
	}

	if wallForce != nil {
		total = total.Add(wallForce(c.massLocation, c.diameter/2))
	}

	total = total.Add(c.antiKinkForce())

	// proximal share: by convention, half the net reaction transmits to the
	// mother, the rest moves the distal mass (spec leaves the exact split to
	// the implementation beyond "a tuple (fx,fy,fz,p)").
	const proximalShare = 0.5
	c.forceToTransmitToProximalMass = total.Mul(proximalShare)
	fDistal := total.Mul(1 - proximalShare)

	c.lastStepForce = total
	if fDistal.Len() <= c.adherence {
		c.onScheduler = false
		return nil
	}
	delta := fDistal.Mul(dt / math.Max(c.mass, 1e-12))
	if delta.Len() > maxDisplacement {
		delta = delta.Mul(maxDisplacement / delta.Len())
	}
	c.massLocation = c.massLocation.Add(delta)
	c.updateDependentPhysicalVariables()
	c.updateLocalCoordinateAxis()
	if err := c.reposition(); err != nil {
		return err
	}
	c.onScheduler = true

	for _, neighbor := range neighbors {
		still, ok := neighbor.(*PhysicalCylinder)
		if !ok || c.isRelative(still) {
			continue
		}
		c.AddPhysicalBondIfCrossing(still, previousMassLocation)
	}
	return nil
}

// HowMuchCanWeMove computes the fraction in [0,1] of a proposed move the
// triangle (a,b,c) can make before crossing the still segment d-e, or 1.0
// if no crossing occurs (spec §4.H "Collision check", auxiliary heuristic).
func HowMuchCanWeMove(aFrom, aTo, b, c, d, e geom.Vec3) float64 {
	steps := 20
	for i := steps; i >= 1; i-- {
		frac := float64(i) / float64(steps)
		candidate := aFrom.Add(aTo.Sub(aFrom).Mul(frac))
		if !segmentCrossesTriangle(d, e, candidate, b, c) {
			return frac
		}
	}
	return 0
}

func segmentCrossesTriangle(d, e, a, b, cpt geom.Vec3) bool {
	dir := e.Sub(d)
	length := dir.Len()
	if length < 1e-12 {
		return false
	}
	t, ok := geom.RayTriangleIntersect(d, dir.Normalize(), a, b, cpt)
	return ok && t >= 0 && t <= length
}

// AddPhysicalBondIfCrossing detects an inverted crossing between this
// cylinder's motion and a neighboring still cylinder and installs a sliding
// bond to pull the configuration out of the illegal state, or releases an
// existing such bond once the configuration is legal again (spec §4.H).
// This is intentionally heuristic, not a continuous-collision guarantee.
func (c *PhysicalCylinder) AddPhysicalBondIfCrossing(still *PhysicalCylinder, previousMassLocation geom.Vec3) {
	crossing := segmentCrossesTriangle(still.ProximalEnd(), still.massLocation, previousMassLocation, c.massLocation, c.ProximalEnd())
	for _, b := range c.bonds {
		if sl, _, ok := b.Sliding(); ok && sl == still {
			if !crossing {
				b.Release()
			}
			return
		}
	}
	if crossing {
		bond := NewPhysicalBond(c.PhysicalObject, still.PhysicalObject, c.springConstant, 0.1)
		bond.SetSliding(still, still.actualLength/2)
	}
}
