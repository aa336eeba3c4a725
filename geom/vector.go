// Package geom is the geometry kernel: 3D vector/matrix algebra, orientation
// and in-sphere predicates, and the small linear solvers the spatial
// organization layer needs. All arithmetic is double precision; there are no
// exact predicates, so callers that hit a degenerate configuration are
// expected to jitter the offending point and retry (see spatial.Jitter).
package geom

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a plain 3D value type. It is an alias for mgl64.Vec3 so that
// callers can use mathgl's own arithmetic (Add, Sub, Mul, Dot, Cross, Len)
// directly alongside the domain helpers below.
type Vec3 = mgl64.Vec3

// Mat33 is a plain 3x3 value type, alias for mgl64.Mat3.
type Mat33 = mgl64.Mat3

// Add returns a+b.
func Add(a, b Vec3) Vec3 { return a.Add(b) }

// Subtract returns a-b.
func Subtract(a, b Vec3) Vec3 { return a.Sub(b) }

// ScalarMul returns s*v.
func ScalarMul(s float64, v Vec3) Vec3 { return v.Mul(s) }

// Dot returns a.b.
func Dot(a, b Vec3) float64 { return a.Dot(b) }

// Cross returns axb.
func Cross(a, b Vec3) Vec3 { return a.Cross(b) }

// Norm returns |v|.
func Norm(v Vec3) float64 { return v.Len() }

// Normalize returns v/|v|. If v is (near) zero, a random perpendicular-style
// unit vector is returned instead of dividing by zero (§7 Numeric recovery).
func Normalize(v Vec3, rng *rand.Rand) Vec3 {
	n := v.Len()
	if n < 1e-14 {
		return RandomUnitVector(rng)
	}
	return v.Mul(1.0 / n)
}

// Distance returns |a-b|.
func Distance(a, b Vec3) float64 { return a.Sub(b).Len() }

// RandomUnitVector samples a uniformly distributed unit vector. Used
// whenever a direction would otherwise come from a zero-length vector.
func RandomUnitVector(rng *rand.Rand) Vec3 {
	for {
		v := Vec3{rng.Float64()*2 - 1, rng.Float64()*2 - 1, rng.Float64()*2 - 1}
		n := v.Len()
		if n > 1e-6 && n <= 1.0 {
			return v.Mul(1.0 / n)
		}
	}
}

// RotateAroundAxis rotates v around the unit axis by theta radians, using
// Rodrigues' rotation formula.
func RotateAroundAxis(v, axis Vec3, theta float64) Vec3 {
	axis = axis.Normalize()
	cosT, sinT := math.Cos(theta), math.Sin(theta)
	term1 := v.Mul(cosT)
	term2 := axis.Cross(v).Mul(sinT)
	term3 := axis.Mul(axis.Dot(v) * (1 - cosT))
	return term1.Add(term2).Add(term3)
}

// Angle returns the unsigned angle between a and b, in [0, pi].
func Angle(a, b Vec3) float64 {
	na, nb := a.Len(), b.Len()
	if na < 1e-14 || nb < 1e-14 {
		return 0
	}
	cosT := a.Dot(b) / (na * nb)
	if cosT > 1 {
		cosT = 1
	} else if cosT < -1 {
		cosT = -1
	}
	return math.Acos(cosT)
}

// Projection returns the component of v projected onto dir (dir need not be
// normalized).
func Projection(v, dir Vec3) Vec3 {
	n := dir.Dot(dir)
	if n < 1e-14 {
		return Vec3{}
	}
	return dir.Mul(v.Dot(dir) / n)
}

// PerpendicularTo returns a unit vector perpendicular to v. When v is
// degenerate (zero length), a random unit vector is returned; otherwise the
// result is given a random phase around v by rotating a fixed perpendicular
// seed, matching the source's "random perpendicular direction" helper used
// to avoid always picking the same tie-break plane.
func PerpendicularTo(v Vec3, rng *rand.Rand) Vec3 {
	n := v.Len()
	if n < 1e-14 {
		return RandomUnitVector(rng)
	}
	unit := v.Mul(1.0 / n)
	seed := Vec3{1, 0, 0}
	if math.Abs(unit.X()) > 0.9 {
		seed = Vec3{0, 1, 0}
	}
	perp := unit.Cross(seed).Normalize()
	phase := rng.Float64() * 2 * math.Pi
	return RotateAroundAxis(perp, unit, phase)
}

// Det2 returns the determinant of a 2x2 matrix given row-major.
func Det2(a, b, c, d float64) float64 {
	return a*d - b*c
}

// mat3At returns entry (row, col) of a column-major Mat33 (mgl64's layout:
// column c occupies indices [3c, 3c+1, 3c+2]).
func mat3At(m Mat33, row, col int) float64 { return m[col*3+row] }

// Det3 returns the determinant of a 3x3 matrix via cofactor expansion.
func Det3(m Mat33) float64 {
	a, b, c := mat3At(m, 0, 0), mat3At(m, 0, 1), mat3At(m, 0, 2)
	d, e, f := mat3At(m, 1, 0), mat3At(m, 1, 1), mat3At(m, 1, 2)
	g, h, i := mat3At(m, 2, 0), mat3At(m, 2, 1), mat3At(m, 2, 2)
	return a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
}

// LRDet computes the determinant of an n x n matrix (given as n rows)
// via LR (LU) decomposition with partial pivoting. Returns 0 if the matrix
// is singular to working precision.
func LRDet(a [][]float64) float64 {
	n := len(a)
	m := make([][]float64, n)
	for i := range a {
		m[i] = append([]float64(nil), a[i]...)
	}
	det := 1.0
	for col := 0; col < n; col++ {
		pivot := col
		maxAbs := math.Abs(m[col][col])
		for r := col + 1; r < n; r++ {
			if v := math.Abs(m[r][col]); v > maxAbs {
				maxAbs = v
				pivot = r
			}
		}
		if maxAbs < 1e-14 {
			return 0
		}
		if pivot != col {
			m[col], m[pivot] = m[pivot], m[col]
			det = -det
		}
		det *= m[col][col]
		for r := col + 1; r < n; r++ {
			factor := m[r][col] / m[col][col]
			for c := col; c < n; c++ {
				m[r][c] -= factor * m[col][c]
			}
		}
	}
	return det
}

// Cramer2 solves the 2x2 system [[a,b],[c,d]]*[x,y] = [e,f]. ok is false if
// the system is singular.
func Cramer2(a, b, c, d, e, f float64) (x, y float64, ok bool) {
	det := Det2(a, b, c, d)
	if math.Abs(det) < 1e-14 {
		return 0, 0, false
	}
	x = Det2(e, b, f, d) / det
	y = Det2(a, e, c, f) / det
	return x, y, true
}

// Cramer3 solves a 3x3 system M*x = v using Cramer's rule.
func Cramer3(m Mat33, v Vec3) (x Vec3, ok bool) {
	det := Det3(m)
	if math.Abs(det) < 1e-14 {
		return Vec3{}, false
	}
	col := func(mat Mat33, c int, replacement Vec3) Mat33 {
		out := mat
		out[c*3], out[c*3+1], out[c*3+2] = replacement[0], replacement[1], replacement[2]
		return out
	}
	mx := col(m, 0, v)
	my := col(m, 1, v)
	mz := col(m, 2, v)
	return Vec3{Det3(mx) / det, Det3(my) / det, Det3(mz) / det}, true
}

// GaussSolve solves a (small) n x n linear system a*x = b by Gaussian
// elimination with partial pivoting. a is consumed (copied internally). ok
// is false if the system is singular to working precision.
func GaussSolve(a [][]float64, b []float64) (x []float64, ok bool) {
	n := len(a)
	m := make([][]float64, n)
	rhs := append([]float64(nil), b...)
	for i := range a {
		m[i] = append([]float64(nil), a[i]...)
	}
	for col := 0; col < n; col++ {
		pivot := col
		maxAbs := math.Abs(m[col][col])
		for r := col + 1; r < n; r++ {
			if v := math.Abs(m[r][col]); v > maxAbs {
				maxAbs = v
				pivot = r
			}
		}
		if maxAbs < 1e-14 {
			return nil, false
		}
		if pivot != col {
			m[col], m[pivot] = m[pivot], m[col]
			rhs[col], rhs[pivot] = rhs[pivot], rhs[col]
		}
		for r := col + 1; r < n; r++ {
			factor := m[r][col] / m[col][col]
			for c := col; c < n; c++ {
				m[r][c] -= factor * m[col][c]
			}
			rhs[r] -= factor * rhs[col]
		}
	}
	x = make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := rhs[i]
		for j := i + 1; j < n; j++ {
			sum -= m[i][j] * x[j]
		}
		x[i] = sum / m[i][i]
	}
	return x, true
}
