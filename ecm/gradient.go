package ecm

import (
	"math"

	"github.com/bdm-go/biodynamo/geom"
)

// GradientShape distinguishes the two analytical profiles spec.md §4.J
// names for artificial gradients.
type GradientShape int

const (
	// Bell is a Gaussian profile along Axis, peaking at Mean with the
	// given Max and spread Sigma.
	Bell GradientShape = iota
	// Linear is a piecewise-linear profile along Axis defined by
	// ascending (position, value) Points.
	Linear
)

// ArtificialGradient is one named, analytically-defined chemical field
// superimposed over the simulation space (spec.md §4.J: "bell (Gaussian
// along an axis), linear (piecewise-linear along an axis)"). Several may
// share the same SubstanceID; their contributions sum.
type ArtificialGradient struct {
	SubstanceID string
	Shape       GradientShape
	Axis        int // 0=x, 1=y, 2=z

	// Bell parameters.
	Max, Mean, Sigma float64

	// Linear parameters: Points must be sorted ascending by position
	// (Points[i][0]); value is held flat beyond the first/last point.
	Points [][2]float64
}

func (g ArtificialGradient) coordinate(p geom.Vec3) float64 {
	switch g.Axis {
	case 0:
		return p.X()
	case 1:
		return p.Y()
	default:
		return p.Z()
	}
}

func (g ArtificialGradient) axisUnit() geom.Vec3 {
	switch g.Axis {
	case 0:
		return geom.Vec3{1, 0, 0}
	case 1:
		return geom.Vec3{0, 1, 0}
	default:
		return geom.Vec3{0, 0, 1}
	}
}

func (g ArtificialGradient) value(x float64) float64 {
	switch g.Shape {
	case Bell:
		d := x - g.Mean
		return g.Max * math.Exp(-(d*d)/(2*g.Sigma*g.Sigma))
	default:
		return g.linearValue(x)
	}
}

func (g ArtificialGradient) derivative(x float64) float64 {
	switch g.Shape {
	case Bell:
		d := x - g.Mean
		return -g.value(x) * d / (g.Sigma * g.Sigma)
	default:
		return g.linearSlope(x)
	}
}

func (g ArtificialGradient) linearValue(x float64) float64 {
	pts := g.Points
	if len(pts) == 0 {
		return 0
	}
	if x <= pts[0][0] {
		return pts[0][1]
	}
	if x >= pts[len(pts)-1][0] {
		return pts[len(pts)-1][1]
	}
	for i := 0; i < len(pts)-1; i++ {
		x0, v0 := pts[i][0], pts[i][1]
		x1, v1 := pts[i+1][0], pts[i+1][1]
		if x >= x0 && x <= x1 {
			t := (x - x0) / (x1 - x0)
			return v0 + t*(v1-v0)
		}
	}
	return pts[len(pts)-1][1]
}

func (g ArtificialGradient) linearSlope(x float64) float64 {
	pts := g.Points
	if len(pts) < 2 {
		return 0
	}
	if x <= pts[0][0] || x >= pts[len(pts)-1][0] {
		return 0
	}
	for i := 0; i < len(pts)-1; i++ {
		x0, v0 := pts[i][0], pts[i][1]
		x1, v1 := pts[i+1][0], pts[i+1][1]
		if x >= x0 && x <= x1 {
			return (v1 - v0) / (x1 - x0)
		}
	}
	return 0
}

// AddArtificialGradient registers a new gradient contribution for id.
func (e *ECM) AddArtificialGradient(g ArtificialGradient) {
	e.mu.Lock()
	e.gradients = append(e.gradients, g)
	e.mu.Unlock()
}

// GetValueArtificialConcentration returns the analytical superposition of
// every registered gradient for id at p (spec.md §4.J).
func (e *ECM) GetValueArtificialConcentration(id string, p geom.Vec3) float64 {
	e.mu.Lock()
	gradients := append([]ArtificialGradient(nil), e.gradients...)
	e.mu.Unlock()

	total := 0.0
	for _, g := range gradients {
		if g.SubstanceID != id {
			continue
		}
		total += g.value(g.coordinate(p))
	}
	return total
}

// GetGradientArtificialConcentration returns the analytical gradient
// (direction and magnitude) of the superposed field for id at p.
func (e *ECM) GetGradientArtificialConcentration(id string, p geom.Vec3) geom.Vec3 {
	e.mu.Lock()
	gradients := append([]ArtificialGradient(nil), e.gradients...)
	e.mu.Unlock()

	var total geom.Vec3
	for _, g := range gradients {
		if g.SubstanceID != id {
			continue
		}
		slope := g.derivative(g.coordinate(p))
		total = total.Add(g.axisUnit().Mul(slope))
	}
	return total
}
