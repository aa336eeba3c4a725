// Package substance implements component E: the chemical-substance template
// and per-object/per-node instance model, including diffusion and
// degradation semantics shared by extracellular (PhysicalNode) and
// intracellular/membrane (PhysicalObject) accounting.
package substance

import "math"

// Color mirrors the small RGBA byte tuple the rest of the engine uses for
// debug/visualization hand-off (never interpreted by the core itself).
type Color [4]uint8

// Template is the immutable recipe a Substance instance is stamped from:
// an id, a diffusion constant D >= 0 and a degradation constant d >= 0.
type Template struct {
	ID                  string
	Color               Color
	DiffusionConstant   float64
	DegradationConstant float64
}

// Instance is a concrete substance living on a PhysicalNode or
// PhysicalObject. The invariant Q = C * V is maintained by whoever owns the
// volume (the PhysicalNode's Voronoi volume, or the object's volume/length);
// this package only ever touches Q and C together via SetFromVolume /
// RefreshConcentration so the invariant can't silently drift.
type Instance struct {
	Template
	Concentration float64
	Quantity      float64
}

// NewInstance stamps a fresh, zero-quantity instance from a template.
func NewInstance(tmpl Template) *Instance {
	return &Instance{Template: tmpl}
}

// Clone returns an independent copy of the instance.
func (s *Instance) Clone() *Instance {
	cp := *s
	return &cp
}

// SetFromVolume sets Quantity = Concentration * volume (used after a change
// in the owner's volume, keeping the invariant in §3 intact without having
// to touch Concentration).
func (s *Instance) SetFromVolume(volume float64) {
	s.Quantity = s.Concentration * volume
}

// RefreshConcentration recomputes Concentration = Quantity / volume
// (used after a change in Quantity — diffusion, degradation, or listener
// mass-conservation rescaling).
func (s *Instance) RefreshConcentration(volume float64) {
	if volume < 1e-14 {
		s.Concentration = 0
		return
	}
	s.Concentration = s.Quantity / volume
}

// Degrade applies one step of exponential decay, Q *= exp(-d*dt) (§4.E),
// scaling Concentration by the same factor so Q = C * V still holds.
func (s *Instance) Degrade(dt float64) {
	if s.DegradationConstant < 1e-14 {
		return
	}
	f := math.Exp(-s.DegradationConstant * dt)
	s.Quantity *= f
	s.Concentration *= f
}

// IntracellularSubstance adds the membrane/intracellular-specific knobs:
// visibility to neighboring nodes, volume- vs length-scaling, and the
// asymmetric partition ratio used when a soma divides (§3).
type IntracellularSubstance struct {
	Instance
	VisibleFromOutside bool
	VolumeDependent    bool
	// PartitionCoefficient is the fraction of quantity retained by "this"
	// daughter at division; the other daughter gets the remainder.
	PartitionCoefficient float64
}

// NewIntracellularInstance stamps a fresh intracellular substance, defaulting
// to an even split and volume-dependent scaling (the common case).
func NewIntracellularInstance(tmpl Template) *IntracellularSubstance {
	return &IntracellularSubstance{
		Instance:             *NewInstance(tmpl),
		VolumeDependent:      true,
		PartitionCoefficient: 0.5,
	}
}

func (s *IntracellularSubstance) Clone() *IntracellularSubstance {
	cp := *s
	return &cp
}

// Partition splits s into two instances (this daughter, other daughter)
// according to PartitionCoefficient, rescaling each to the given post-
// division volumes so concentration invariants hold immediately after.
func (s *IntracellularSubstance) Partition(volumeThis, volumeOther float64) (this, other *IntracellularSubstance) {
	ratio := s.PartitionCoefficient
	total := s.Quantity
	this = s.Clone()
	other = s.Clone()
	this.Quantity = total * ratio
	other.Quantity = total * (1 - ratio)
	this.RefreshConcentration(volumeThis)
	other.RefreshConcentration(volumeOther)
	return this, other
}
