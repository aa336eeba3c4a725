package substance

import "math"

// TwoCompartmentDiffuse solves the closed-form two-reservoir diffusion used
// for inter-object substance exchange (§4.F): given the distance separating
// the two reservoirs, the substance's diffusion constant, the two current
// quantities and volumes, and a time step, returns the new quantities.
//
//	a = D / distance, m = a * (1/Va + 1/Vb), n = a * Qtot / Vb
//	K = Qa - n/m
//	Qa(dt) = K*exp(-m*dt) + n/m, Qb(dt) = Qtot - Qa(dt)
//
// skip is true (quantities unchanged) when D is below the numeric floor or
// distance is non-positive.
func TwoCompartmentDiffuse(distance, diffusionConstant, qa, qb, va, vb, dt float64) (qaNew, qbNew float64, skip bool) {
	if diffusionConstant < 1e-14 || distance < 1e-14 || va < 1e-14 || vb < 1e-14 {
		return qa, qb, true
	}
	a := diffusionConstant / distance
	m := a * (1/va + 1/vb)
	qTot := qa + qb
	n := a * qTot / vb
	if m < 1e-14 {
		return qa, qb, true
	}
	k := qa - n/m
	qaNew = k*math.Exp(-m*dt) + n/m
	qbNew = qTot - qaNew
	return qaNew, qbNew, false
}

// ShouldSkipDiffusion reports whether the concentration difference between
// two reservoirs is small enough to not bother computing diffusion at all
// (the "intracellular_diffusion_min_concentration /
// min_dc_over_c" early-exit thresholds from spec.md §6).
func ShouldSkipDiffusion(ca, cb, minConcentration, minDCOverC float64) bool {
	if ca < minConcentration && cb < minConcentration {
		return true
	}
	avg := (ca + cb) / 2
	if avg < 1e-14 {
		return true
	}
	return math.Abs(ca-cb)/avg < minDCOverC
}
