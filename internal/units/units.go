// Package units provides shared angle conversions and range checks for the
// geometry grids. All angles on disk and in geometry bundles are degrees;
// trigonometry happens in radians.
package units

import "math"

// Angular ranges of the geometry grids, in degrees.
const (
	ZenithMin = 0
	ZenithMax = 180

	LatitudeMin = -90
	LatitudeMax = 90

	LongitudeMin = -180
	LongitudeMax = 180
)

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// ValidZenith reports whether deg is a usable zenith angle. NaN is not.
func ValidZenith(deg float64) bool {
	return deg >= ZenithMin && deg <= ZenithMax
}

// ValidLatitude reports whether deg is a usable latitude. NaN is not.
func ValidLatitude(deg float64) bool {
	return deg >= LatitudeMin && deg <= LatitudeMax
}

// WrapAzimuthDelta folds an azimuth difference into [0, 180] degrees, the
// symmetric range the coefficient tables are tabulated over.
func WrapAzimuthDelta(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg > 180 {
		deg = 360 - deg
	}
	return deg
}
