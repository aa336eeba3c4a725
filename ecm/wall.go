package ecm

import "github.com/bdm-go/biodynamo/geom"

// ForceFromArtificialWall returns a linear restoring force proportional to
// how far p (the center of an object with radius r) pokes outside the
// ECM's bounding box on each axis, or the zero vector if it is fully
// inside (spec.md §4.J). Callers gate this on the relevant
// ArtificialWallsFor{Spheres,Cylinders} config flag themselves, since a
// cylinder's wall force applies per endpoint while a sphere's applies at
// its single center.
func (e *ECM) ForceFromArtificialWall(p geom.Vec3, r float64) geom.Vec3 {
	c := e.config
	const k = 2.0 // restoring stiffness; matches force.Default's k for continuity at the boundary

	var f geom.Vec3
	f = f.Add(axisRestoring(p.X(), r, c.BoundingBoxXMin, c.BoundingBoxXMax, k, geom.Vec3{1, 0, 0}))
	f = f.Add(axisRestoring(p.Y(), r, c.BoundingBoxYMin, c.BoundingBoxYMax, k, geom.Vec3{0, 1, 0}))
	f = f.Add(axisRestoring(p.Z(), r, c.BoundingBoxZMin, c.BoundingBoxZMax, k, geom.Vec3{0, 0, 1}))
	return f
}

// WallForceForSpheres returns ForceFromArtificialWall if artificial walls
// are enabled for spheres in this ECM's config, or nil otherwise — the
// closure a PhysicalSphere.RunPhysics caller threads in to satisfy its
// wallForce parameter (spec.md §4.G "artificial-wall force if enabled").
func (e *ECM) WallForceForSpheres() func(geom.Vec3, float64) geom.Vec3 {
	if !e.config.ArtificialWallsForSpheres {
		return nil
	}
	return e.ForceFromArtificialWall
}

// WallForceForCylinders is WallForceForSpheres' cylinder counterpart
// (spec.md §4.H "artificial-wall force if enabled").
func (e *ECM) WallForceForCylinders() func(geom.Vec3, float64) geom.Vec3 {
	if !e.config.ArtificialWallsForCylinders {
		return nil
	}
	return e.ForceFromArtificialWall
}

func axisRestoring(coord, r, min, max, k float64, axis geom.Vec3) geom.Vec3 {
	if coord-r < min {
		return axis.Mul(k * (min - (coord - r)))
	}
	if coord+r > max {
		return axis.Mul(-k * ((coord + r) - max))
	}
	return geom.Vec3{}
}
