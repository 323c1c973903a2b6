package oracle

import (
	"math"
	"sort"
	"time"

	"github.com/orbsim/orbsim/internal/domain"
)

// GroundPoint is a ground location: latitude/longitude in degrees and
// elevation in meters.
type GroundPoint struct {
	LatDeg float64
	LonDeg float64
	ElevM  float64
}

// ecef returns the ground point's Earth-centered, Earth-fixed position (km),
// treating Earth as spherical; adequate for the elevation-angle and
// range-rate computations this oracle is asked to make.
func (g GroundPoint) ecef() Vector3 {
	r := EarthRadiusKm + g.ElevM/1000
	lat := deg2rad(g.LatDeg)
	lon := deg2rad(g.LonDeg)
	return Vector3{
		X: r * math.Cos(lat) * math.Cos(lon),
		Y: r * math.Cos(lat) * math.Sin(lon),
		Z: r * math.Sin(lat),
	}
}

// Oracle is the Geometry Oracle: a registry of per-satellite propagators
// plus pure functions over them. It holds no simulated-time state of its
// own; every method takes an explicit time.Time.
type Oracle struct {
	props  map[int]Propagator
	epochs map[int]TLE
}

// New creates an empty Oracle.
func New() *Oracle {
	return &Oracle{props: map[int]Propagator{}, epochs: map[int]TLE{}}
}

// RegisterSatellite parses a TLE pair and installs a propagator for the
// given satellite id.
func (o *Oracle) RegisterSatellite(satID int, line1, line2 string) error {
	tle, err := ParseTLE(line1, line2)
	if err != nil {
		return &domain.GeometryError{SatelliteID: satID, Reason: err.Error()}
	}
	o.props[satID] = NewKeplerJ2Propagator(tle)
	o.epochs[satID] = tle
	return nil
}

// RegisterPropagator installs a caller-supplied propagator directly; used
// by tests and by any future higher-fidelity backend swapped in behind the
// same interface.
func (o *Oracle) RegisterPropagator(satID int, p Propagator) {
	o.props[satID] = p
}

func (o *Oracle) propagator(satID int) (Propagator, error) {
	p, ok := o.props[satID]
	if !ok {
		return nil, &domain.GeometryError{SatelliteID: satID, Reason: "no propagator registered"}
	}
	return p, nil
}

// Position returns ECI position (km) at time t.
func (o *Oracle) Position(satID int, t time.Time) (Vector3, error) {
	p, err := o.propagator(satID)
	if err != nil {
		return Vector3{}, err
	}
	return p.Position(t)
}

// Velocity returns ECI velocity (km/s) at time t.
func (o *Oracle) Velocity(satID int, t time.Time) (Vector3, error) {
	p, err := o.propagator(satID)
	if err != nil {
		return Vector3{}, err
	}
	return p.Velocity(t)
}

// Positions is the bulk propagation variant: one-shot propagation over an
// entire [t0,t1:delta] run, avoiding repeated per-epoch calls.
func (o *Oracle) Positions(satID int, t0, t1 time.Time, delta time.Duration) ([]Vector3, error) {
	p, err := o.propagator(satID)
	if err != nil {
		return nil, err
	}
	var out []Vector3
	for t := t0; !t.After(t1); t = t.Add(delta) {
		pos, err := p.Position(t)
		if err != nil {
			return nil, err
		}
		out = append(out, pos)
	}
	return out, nil
}

// InSunlight reports whether the satellite is illuminated by the sun (not in
// Earth's cylindrical shadow) at time t.
func (o *Oracle) InSunlight(satID int, t time.Time) (bool, error) {
	pos, err := o.Position(satID, t)
	if err != nil {
		return false, err
	}
	sunDir := sunDirection(t)
	// Cylindrical shadow model: the satellite is eclipsed if its projection
	// onto the anti-sun direction is positive (behind Earth from the sun)
	// and its perpendicular distance from the sun line is less than Earth's
	// radius.
	alongSun := pos.Dot(sunDir)
	if alongSun > 0 {
		return true, nil // sunward side of Earth
	}
	perp := pos.Sub(sunDir.Scale(alongSun))
	return perp.Norm() > EarthRadiusKm, nil
}

// sunDirection returns a low-precision unit vector from Earth to the sun in
// the ECI frame, sufficient for an eclipse predicate (not for navigation).
func sunDirection(t time.Time) Vector3 {
	jd := julianDate(t)
	n := jd - 2451545.0 // days since J2000
	L := math.Mod(280.460+0.9856474*n, 360)
	g := deg2rad(math.Mod(357.528+0.9856003*n, 360))
	lambda := deg2rad(L) + deg2rad(1.915)*math.Sin(g) + deg2rad(0.020)*math.Sin(2*g)
	eps := deg2rad(23.439 - 0.0000004*n)
	return Vector3{
		X: math.Cos(lambda),
		Y: math.Cos(eps) * math.Sin(lambda),
		Z: math.Sin(eps) * math.Sin(lambda),
	}
}

func julianDate(t time.Time) float64 {
	unix := float64(t.Unix()) + float64(t.Nanosecond())/1e9
	return unix/86400.0 + 2440587.5
}

// gmst returns Greenwich mean sidereal time in radians at t, for rotating
// ECI to an Earth-fixed frame.
func gmst(t time.Time) float64 {
	jd := julianDate(t)
	T := (jd - 2451545.0) / 36525.0
	thetaDeg := 280.46061837 + 360.98564736629*(jd-2451545.0) + 0.000387933*T*T
	return deg2rad(math.Mod(thetaDeg, 360))
}

// eciToECEF rotates an ECI vector into the Earth-fixed frame at time t.
func eciToECEF(v Vector3, t time.Time) Vector3 {
	theta := gmst(t)
	cos, sin := math.Cos(theta), math.Sin(theta)
	return Vector3{
		X: cos*v.X + sin*v.Y,
		Y: -sin*v.X + cos*v.Y,
		Z: v.Z,
	}
}

// elevationDeg returns the elevation angle, in degrees, of the satellite
// (given in ECEF) as seen from the ground point.
func elevationDeg(satECEF Vector3, g GroundPoint) float64 {
	topo := satECEF.Sub(g.ecef())
	lat := deg2rad(g.LatDeg)
	lon := deg2rad(g.LonDeg)

	// ENU unit vectors at the ground point.
	up := Vector3{X: math.Cos(lat) * math.Cos(lon), Y: math.Cos(lat) * math.Sin(lon), Z: math.Sin(lat)}
	east := Vector3{X: -math.Sin(lon), Y: math.Cos(lon), Z: 0}
	north := up.Cross(east).Scale(-1)

	e := topo.Dot(east)
	n := topo.Dot(north)
	u := topo.Dot(up)
	horiz := math.Hypot(e, n)
	return rad2deg(math.Atan2(u, horiz))
}

// PassWindow is a contiguous interval during which a satellite is above a
// ground point's minimum elevation.
type PassWindow struct {
	Start time.Time
	End   time.Time
}

// Passes returns the contiguous intervals in [t0,t1] during which satID is
// above minElevationDeg as seen from g, sampled at the given step. Endpoints
// at the window boundary are clipped.
func (o *Oracle) Passes(satID int, g GroundPoint, t0, t1 time.Time, minElevationDeg float64, step time.Duration) ([]PassWindow, error) {
	p, err := o.propagator(satID)
	if err != nil {
		return nil, err
	}
	if step <= 0 {
		step = time.Second
	}

	var windows []PassWindow
	var curStart time.Time
	inPass := false

	sample := func(t time.Time) (bool, error) {
		pos, err := p.Position(t)
		if err != nil {
			return false, err
		}
		return elevationDeg(eciToECEF(pos, t), g) >= minElevationDeg, nil
	}

	t := t0
	for !t.After(t1) {
		above, err := sample(t)
		if err != nil {
			return nil, err
		}
		switch {
		case above && !inPass:
			inPass = true
			curStart = t
		case !above && inPass:
			inPass = false
			windows = append(windows, PassWindow{Start: curStart, End: t})
		}
		t = t.Add(step)
	}
	if inPass {
		windows = append(windows, PassWindow{Start: curStart, End: t1})
	}
	return windows, nil
}

// RelativeMotion returns the slant-range distance (meters) and range-rate
// (m/s, positive = receding) between the satellite and a ground point at
// time t.
func (o *Oracle) RelativeMotion(satID int, g GroundPoint, t time.Time) (distanceM, rangeRateMPS float64, err error) {
	p, err := o.propagator(satID)
	if err != nil {
		return 0, 0, err
	}
	pos, err := p.Position(t)
	if err != nil {
		return 0, 0, err
	}
	vel, err := p.Velocity(t)
	if err != nil {
		return 0, 0, err
	}

	gPos := eciToECEFInertialApprox(g, t)
	rel := pos.Sub(gPos)
	dist := rel.Norm()

	// Ground point velocity in the (quasi-)inertial frame from Earth's
	// rotation: omega x r.
	omega := Vector3{Z: EarthRotationRadPerSec}
	gVel := omega.Cross(gPos)
	relVel := vel.Sub(gVel)

	rangeRate := 0.0
	if dist > 0 {
		rangeRate = rel.Dot(relVel) / dist
	}
	return dist * 1000, rangeRate * 1000, nil
}

// eciToECEFInertialApprox rotates a ground point's ECEF position into the
// (quasi-)inertial frame at time t; the inverse rotation of eciToECEF.
func eciToECEFInertialApprox(g GroundPoint, t time.Time) Vector3 {
	ecef := g.ecef()
	theta := gmst(t)
	cos, sin := math.Cos(theta), math.Sin(theta)
	return Vector3{
		X: cos*ecef.X - sin*ecef.Y,
		Y: sin*ecef.X + cos*ecef.Y,
		Z: ecef.Z,
	}
}

// SatDistance returns the straight-line distance (meters) between two
// satellites' ECI positions at time t; used by ISL link budgets, which
// bypass the ground-point-based RelativeMotion helper entirely.
func (o *Oracle) SatDistance(satA, satB int, t time.Time) (float64, error) {
	a, err := o.Position(satA, t)
	if err != nil {
		return 0, err
	}
	b, err := o.Position(satB, t)
	if err != nil {
		return 0, err
	}
	return a.Sub(b).Norm() * 1000, nil
}

// SortPassWindows sorts pass windows by start time; used by the fov
// package's pass-table memo to keep interval lists binary-searchable.
func SortPassWindows(w []PassWindow) {
	sort.Slice(w, func(i, j int) bool { return w[i].Start.Before(w[j].Start) })
}
