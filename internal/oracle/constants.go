package oracle

const (
	// MuEarth is the Earth standard gravitational parameter, km^3/s^2.
	MuEarth = 398600.4418
	// EarthRadiusKm is the Earth mean equatorial radius, km.
	EarthRadiusKm = 6378.137
	// J2 is Earth's second dynamic form factor (oblateness term).
	J2 = 1.08262668e-3
	// EarthRotationRadPerSec is Earth's sidereal rotation rate.
	EarthRotationRadPerSec = 7.2921150e-5
)
