package geom

import "math"

// Orientation returns the signed volume of the tetrahedron (a,b,c,d),
// positive if d lies on the positive side of the plane through a,b,c in
// right-hand orientation. No exact-arithmetic guarantee is made; callers in
// a degenerate (near-zero) configuration should jitter and retry.
func Orientation(a, b, c, d Vec3) float64 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	return ab.Cross(ac).Dot(ad)
}

// InSphere returns > 0 if p lies strictly inside the circumsphere of
// (a,b,c,d) (assuming a,b,c,d are given with positive Orientation), 0 on the
// sphere (within tolerance), and < 0 outside.
func InSphere(a, b, c, d, p Vec3) float64 {
	sq := func(v Vec3) float64 { return v.Dot(v) }
	row := func(v, base Vec3) [4]float64 {
		d := v.Sub(base)
		return [4]float64{d.X(), d.Y(), d.Z(), sq(d)}
	}
	ra := row(a, p)
	rb := row(b, p)
	rc := row(c, p)
	rd := row(d, p)
	m := [4][4]float64{ra, rb, rc, rd}
	// With rows (v - p, |v - p|^2) the raw determinant is negative inside
	// the circumsphere of a positively oriented (a,b,c,d), hence the negation.
	return -det4(m)
}

func det4(m [4][4]float64) float64 {
	// Laplace expansion along the first column.
	minor3 := func(skipRow int) float64 {
		var rows [3][3]float64
		ri := 0
		for r := 0; r < 4; r++ {
			if r == skipRow {
				continue
			}
			rows[ri] = [3]float64{m[r][1], m[r][2], m[r][3]}
			ri++
		}
		return rows[0][0]*(rows[1][1]*rows[2][2]-rows[1][2]*rows[2][1]) -
			rows[0][1]*(rows[1][0]*rows[2][2]-rows[1][2]*rows[2][0]) +
			rows[0][2]*(rows[1][0]*rows[2][1]-rows[1][1]*rows[2][0])
	}
	return m[0][0]*minor3(0) - m[1][0]*minor3(1) + m[2][0]*minor3(2) - m[3][0]*minor3(3)
}

// IsCospherical reports whether p lies on the circumsphere of (a,b,c,d)
// within the given tolerance, used by the triangulation to detect
// cospherical neighbor groups during clean-up restoration.
func IsCospherical(a, b, c, d, p Vec3, tolerance float64) bool {
	return math.Abs(InSphere(a, b, c, d, p)) < tolerance
}

// BarycentricCoordinates solves for the barycentric weights of p with
// respect to the tetrahedron vertices (4 points). Returns ok=false if the
// tetrahedron is degenerate (zero volume).
func BarycentricCoordinates(p Vec3, vertices [4]Vec3) (weights [4]float64, ok bool) {
	// Solve [v1-v0, v2-v0, v3-v0] * [l1,l2,l3]^T = p - v0, l0 = 1-l1-l2-l3.
	v0 := vertices[0]
	m := Mat33{
		vertices[1].X() - v0.X(), vertices[1].Y() - v0.Y(), vertices[1].Z() - v0.Z(),
		vertices[2].X() - v0.X(), vertices[2].Y() - v0.Y(), vertices[2].Z() - v0.Z(),
		vertices[3].X() - v0.X(), vertices[3].Y() - v0.Y(), vertices[3].Z() - v0.Z(),
	}
	rhs := p.Sub(v0)
	sol, ok := Cramer3(m, rhs)
	if !ok {
		return weights, false
	}
	weights[1], weights[2], weights[3] = sol.X(), sol.Y(), sol.Z()
	weights[0] = 1 - weights[1] - weights[2] - weights[3]
	return weights, true
}

// SegmentSegmentClosestPoints returns the parameters (s, t) in [0,1]
// minimizing the distance between segment p1-p2 and segment p3-p4 (Catmull-
// style closest-point-on-two-lines, clamped to the segment extents).
func SegmentSegmentClosestPoints(p1, p2, p3, p4 Vec3) (s, t float64) {
	d1 := p2.Sub(p1)
	d2 := p4.Sub(p3)
	r := p1.Sub(p3)
	a := d1.Dot(d1)
	e := d2.Dot(d2)
	f := d2.Dot(r)

	if a < 1e-14 && e < 1e-14 {
		return 0, 0
	}
	if a < 1e-14 {
		return 0, clamp01(f/e)
	}
	c := d1.Dot(r)
	if e < 1e-14 {
		return clamp01(-c / a), 0
	}

	b := d1.Dot(d2)
	denom := a*e - b*b
	if math.Abs(denom) > 1e-14 {
		s = clamp01((b*f - c*e) / denom)
	} else {
		s = 0
	}
	t = (b*s + f) / e
	if t < 0 {
		t = 0
		s = clamp01(-c / a)
	} else if t > 1 {
		t = 1
		s = clamp01((b - c) / a)
	}
	return s, t
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RayTriangleIntersect tests whether the ray origin+t*dir (t>=0) crosses the
// triangle (a,b,c), using the Moller-Trumbore algorithm. ok is false if
// there is no intersection (including the ray being parallel to the plane).
func RayTriangleIntersect(origin, dir, a, b, c Vec3) (t float64, ok bool) {
	const eps = 1e-12
	edge1 := b.Sub(a)
	edge2 := c.Sub(a)
	h := dir.Cross(edge2)
	det := edge1.Dot(h)
	if math.Abs(det) < eps {
		return 0, false
	}
	inv := 1.0 / det
	s := origin.Sub(a)
	u := s.Dot(h) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(edge1)
	v := dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t = edge2.Dot(q) * inv
	if t < eps {
		return 0, false
	}
	return t, true
}
