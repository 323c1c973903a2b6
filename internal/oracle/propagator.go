package oracle

import (
	"math"
	"time"
)

// Propagator yields ECI position/velocity for a single satellite at a given
// time. Swappable: a higher-fidelity SGP4 implementation can satisfy the
// same interface without changing any caller in this repo.
type Propagator interface {
	Position(t time.Time) (Vector3, error)
	Velocity(t time.Time) (Vector3, error)
}

// KeplerJ2Propagator is a two-body Kepler propagator with J2 secular drift
// of the right ascension of the ascending node and argument of perigee. It
// is deterministic for identical inputs, and good enough to drive FoV/pass
// and link-budget geometry without claiming bit-for-bit parity with a full
// SGP4 implementation.
type KeplerJ2Propagator struct {
	tle TLE
	a   float64 // semi-major axis, km
	n   float64 // mean motion, rad/s
}

// NewKeplerJ2Propagator builds a propagator from parsed TLE mean elements.
func NewKeplerJ2Propagator(t TLE) *KeplerJ2Propagator {
	n := t.MeanMotionRevDay * 2 * math.Pi / 86400
	return &KeplerJ2Propagator{
		tle: t,
		a:   t.SemiMajorAxisKm(),
		n:   n,
	}
}

// elements returns the secularly-drifted RAAN, argument of perigee, and mean
// anomaly at time t.
func (p *KeplerJ2Propagator) elements(t time.Time) (raan, argp, manom float64) {
	dt := t.Sub(p.tle.Epoch).Seconds()
	e := p.tle.Eccentricity
	i := deg2rad(p.tle.InclinationDeg)
	oneMinusE2 := 1 - e*e

	// J2 secular rates (standard first-order perturbation terms).
	factor := -1.5 * p.n * J2 * (EarthRadiusKm * EarthRadiusKm) / (p.a * p.a * oneMinusE2 * oneMinusE2)
	raanDot := factor * math.Cos(i)
	argpDot := factor * (2.5*math.Sin(i)*math.Sin(i) - 2)

	raan = deg2rad(p.tle.RAANDeg) + raanDot*dt
	argp = deg2rad(p.tle.ArgPerigeeDeg) + argpDot*dt
	manom = deg2rad(p.tle.MeanAnomalyDeg) + p.n*dt
	return
}

// solveKepler solves Kepler's equation M = E - e*sin(E) for eccentric
// anomaly E via Newton-Raphson.
func solveKepler(m, e float64) float64 {
	m = math.Mod(m, 2*math.Pi)
	if m < 0 {
		m += 2 * math.Pi
	}
	E := m
	if e > 0.8 {
		E = math.Pi
	}
	for i := 0; i < 50; i++ {
		f := E - e*math.Sin(E) - m
		fp := 1 - e*math.Cos(E)
		delta := f / fp
		E -= delta
		if math.Abs(delta) < 1e-12 {
			break
		}
	}
	return E
}

// stateAt computes perifocal-to-ECI position and velocity at time t.
func (p *KeplerJ2Propagator) stateAt(t time.Time) (Vector3, Vector3) {
	raan, argp, manom := p.elements(t)
	e := p.tle.Eccentricity
	i := deg2rad(p.tle.InclinationDeg)

	E := solveKepler(manom, e)
	cosE, sinE := math.Cos(E), math.Sin(E)
	sqrt1me2 := math.Sqrt(1 - e*e)

	// Perifocal-frame position/velocity.
	xp := p.a * (cosE - e)
	yp := p.a * sqrt1me2 * sinE
	r := p.a * (1 - e*cosE)
	edot := p.n / (1 - e*cosE)
	vxp := -p.a * sinE * edot
	vyp := p.a * sqrt1me2 * cosE * edot

	cosO, sinO := math.Cos(raan), math.Sin(raan)
	cosw, sinw := math.Cos(argp), math.Sin(argp)
	cosi, sini := math.Cos(i), math.Sin(i)

	// Rotation perifocal -> ECI (3-1-3 Euler sequence: -argp about z, -i
	// about x, -raan about z, composed as standard R3(-O)R1(-i)R3(-w)).
	px := cosO*cosw - sinO*sinw*cosi
	py := sinO*cosw + cosO*sinw*cosi
	pz := sinw * sini
	qx := -cosO*sinw - sinO*cosw*cosi
	qy := -sinO*sinw + cosO*cosw*cosi
	qz := cosw * sini

	pos := Vector3{
		X: px*xp + qx*yp,
		Y: py*xp + qy*yp,
		Z: pz*xp + qz*yp,
	}
	vel := Vector3{
		X: px*vxp + qx*vyp,
		Y: py*vxp + qy*vyp,
		Z: pz*vxp + qz*vyp,
	}
	_ = r
	return pos, vel
}

// Position implements Propagator.
func (p *KeplerJ2Propagator) Position(t time.Time) (Vector3, error) {
	pos, _ := p.stateAt(t)
	return pos, nil
}

// Velocity implements Propagator.
func (p *KeplerJ2Propagator) Velocity(t time.Time) (Vector3, error) {
	_, vel := p.stateAt(t)
	return vel, nil
}
