package oracle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TLE holds the mean orbital elements parsed from a NORAD two-line element
// set.
type TLE struct {
	SatelliteNumber  string
	Epoch            time.Time
	InclinationDeg   float64
	RAANDeg          float64
	Eccentricity     float64
	ArgPerigeeDeg    float64
	MeanAnomalyDeg   float64
	MeanMotionRevDay float64
}

// ParseTLE parses a standard NORAD two-line element pair.
func ParseTLE(line1, line2 string) (TLE, error) {
	if len(line1) < 69 || len(line2) < 69 {
		return TLE{}, fmt.Errorf("tle: lines too short (line1=%d line2=%d)", len(line1), len(line2))
	}
	if line1[0] != '1' || line2[0] != '2' {
		return TLE{}, fmt.Errorf("tle: unexpected line numbers %q/%q", line1[:1], line2[:1])
	}

	var t TLE
	t.SatelliteNumber = strings.TrimSpace(line1[2:7])

	epochYear, err := strconv.Atoi(strings.TrimSpace(line1[18:20]))
	if err != nil {
		return TLE{}, fmt.Errorf("tle: bad epoch year: %w", err)
	}
	epochDay, err := strconv.ParseFloat(strings.TrimSpace(line1[20:32]), 64)
	if err != nil {
		return TLE{}, fmt.Errorf("tle: bad epoch day: %w", err)
	}
	fullYear := 2000 + epochYear
	if epochYear >= 57 { // NORAD two-digit-year pivot
		fullYear = 1900 + epochYear
	}
	jan1 := time.Date(fullYear, 1, 1, 0, 0, 0, 0, time.UTC)
	t.Epoch = jan1.Add(time.Duration((epochDay - 1) * 24 * float64(time.Hour)))

	if t.InclinationDeg, err = parseFixed(line2[8:16]); err != nil {
		return TLE{}, fmt.Errorf("tle: inclination: %w", err)
	}
	if t.RAANDeg, err = parseFixed(line2[17:25]); err != nil {
		return TLE{}, fmt.Errorf("tle: raan: %w", err)
	}
	eccStr := "0." + strings.TrimSpace(line2[26:33])
	if t.Eccentricity, err = strconv.ParseFloat(eccStr, 64); err != nil {
		return TLE{}, fmt.Errorf("tle: eccentricity: %w", err)
	}
	if t.ArgPerigeeDeg, err = parseFixed(line2[34:42]); err != nil {
		return TLE{}, fmt.Errorf("tle: arg perigee: %w", err)
	}
	if t.MeanAnomalyDeg, err = parseFixed(line2[43:51]); err != nil {
		return TLE{}, fmt.Errorf("tle: mean anomaly: %w", err)
	}
	if t.MeanMotionRevDay, err = parseFixed(line2[52:63]); err != nil {
		return TLE{}, fmt.Errorf("tle: mean motion: %w", err)
	}
	return t, nil
}

func parseFixed(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// SemiMajorAxisKm derives the semi-major axis from the mean motion via
// Kepler's third law.
func (t TLE) SemiMajorAxisKm() float64 {
	n := t.MeanMotionRevDay * 2 * math.Pi / 86400 // rad/s
	return math.Cbrt(MuEarth / (n * n))
}
